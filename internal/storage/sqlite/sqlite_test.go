package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mmynk/sharethebill/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "sharethebill-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Get returns ErrNotFound for missing key", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Set then Get round-trips value", func(t *testing.T) {
		if err := store.Set(ctx, "k1", []byte("v1")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Set(ctx, "k1", []byte("v2")); err != nil {
			t.Fatalf("Set overwrite failed: %v", err)
		}
		got, err := store.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "v2" {
			t.Errorf("Get = %q, want v2", got)
		}
	})

	t.Run("Delete removes key and tolerates missing keys", func(t *testing.T) {
		if err := store.Set(ctx, "k2", []byte("v")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Delete(ctx, "k2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.Get(ctx, "k2"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := store.Delete(ctx, "k2"); err != nil {
			t.Errorf("Delete of missing key failed: %v", err)
		}
	})

	t.Run("CompareAndSwap with nil prev creates only once", func(t *testing.T) {
		if err := store.CompareAndSwap(ctx, "k3", nil, []byte("a")); err != nil {
			t.Fatalf("create failed: %v", err)
		}
		err := store.CompareAndSwap(ctx, "k3", nil, []byte("b"))
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict on second create, got %v", err)
		}
	})

	t.Run("CompareAndSwap rejects stale prev", func(t *testing.T) {
		if err := store.CompareAndSwap(ctx, "k3", []byte("a"), []byte("b")); err != nil {
			t.Fatalf("swap failed: %v", err)
		}
		err := store.CompareAndSwap(ctx, "k3", []byte("a"), []byte("c"))
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict for stale prev, got %v", err)
		}
		got, _ := store.Get(ctx, "k3")
		if string(got) != "b" {
			t.Errorf("value = %q, want b", got)
		}
	})

	t.Run("CompareAndDelete distinguishes conflict from missing", func(t *testing.T) {
		if err := store.Set(ctx, "k4", []byte("x")); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.CompareAndDelete(ctx, "k4", []byte("y")); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
		if err := store.CompareAndDelete(ctx, "k4", []byte("x")); err != nil {
			t.Fatalf("CompareAndDelete failed: %v", err)
		}
		if err := store.CompareAndDelete(ctx, "k4", []byte("x")); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("sets add, remove and list members", func(t *testing.T) {
		for _, m := range []string{"b", "a", "c", "a"} {
			if err := store.AddToSet(ctx, "set", m); err != nil {
				t.Fatalf("AddToSet failed: %v", err)
			}
		}
		if err := store.RemoveFromSet(ctx, "set", "c"); err != nil {
			t.Fatalf("RemoveFromSet failed: %v", err)
		}
		members, err := store.Members(ctx, "set")
		if err != nil {
			t.Fatalf("Members failed: %v", err)
		}
		sort.Strings(members)
		if len(members) != 2 || members[0] != "a" || members[1] != "b" {
			t.Errorf("Members = %v, want [a b]", members)
		}

		empty, err := store.Members(ctx, "other-set")
		if err != nil {
			t.Fatalf("Members failed: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("expected empty set, got %v", empty)
		}
	})
}

func TestCompareAndSwap_ConcurrentWritersOneWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "counter", []byte("0")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	const writers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := store.CompareAndSwap(ctx, "counter", []byte("0"), []byte{byte('a' + i)})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			} else if !errors.Is(err, storage.ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly one successful swap, got %d", successes)
	}
}

func TestSQLiteStore_DriverErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewFromDB(db)
	ctx := context.Background()
	driverErr := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT value FROM kv").WithArgs("k").WillReturnError(driverErr)
	_, err = store.Get(ctx, "k")
	if !errors.Is(err, driverErr) || errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Get error = %v, want wrapped driver error", err)
	}

	mock.ExpectExec("UPDATE kv SET value").WillReturnError(driverErr)
	err = store.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	if !errors.Is(err, driverErr) || errors.Is(err, storage.ErrConflict) {
		t.Errorf("CompareAndSwap error = %v, want wrapped driver error", err)
	}

	mock.ExpectExec("UPDATE kv SET value").WillReturnResult(sqlmock.NewResult(0, 0))
	err = store.CompareAndSwap(ctx, "k", []byte("a"), []byte("b"))
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("CompareAndSwap error = %v, want ErrConflict", err)
	}

	mock.ExpectExec("INSERT OR IGNORE INTO set_members").WithArgs("s", "m").WillReturnError(driverErr)
	if err := store.AddToSet(ctx, "s", "m"); !errors.Is(err, driverErr) {
		t.Errorf("AddToSet error = %v, want wrapped driver error", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
