package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/sharethebill/internal/metrics"
	"github.com/mmynk/sharethebill/internal/models"
	"github.com/mmynk/sharethebill/internal/storage"
)

const retryBackoff = 20 * time.Millisecond

// mutateFunc changes a freshly loaded bill in place. It may run more than
// once, so it must not have side effects outside the bill.
type mutateFunc func(b *models.Bill) error

// mutate loads a bill, applies fn and writes the result back only if the
// stored document is still the one that was read. On a concurrent write the
// whole cycle is retried, up to maxRetries times.
func (l *Ledger) mutate(ctx context.Context, id string, fn mutateFunc) (*models.Bill, error) {
	key := storage.BillKey(id)

	for attempt := 0; ; attempt++ {
		bill, raw, err := l.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(bill); err != nil {
			return nil, err
		}
		bill.Version++
		bill.UpdatedAt = l.now().UTC()

		next, err := json.Marshal(bill)
		if err != nil {
			return nil, fmt.Errorf("%w: encoding bill %s: %w", ErrStorage, id, err)
		}

		err = l.store.CompareAndSwap(ctx, key, raw, next)
		if err == nil {
			return bill, nil
		}
		// Redis reports a key deleted under WATCH as not found.
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: bill %s", ErrNotFound, id)
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%w: saving bill %s: %w", ErrStorage, id, err)
		}
		if attempt >= l.maxRetries {
			slog.Warn("Giving up on contended bill", "bill_id", id, "attempts", attempt+1)
			return nil, fmt.Errorf("%w: bill %s was modified concurrently, try again", ErrConflict, id)
		}

		metrics.CASRetries.Inc()
		slog.Debug("Bill changed concurrently, retrying", "bill_id", id, "attempt", attempt+1)

		// Simple incremental backoff
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: saving bill %s: %w", ErrStorage, id, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * retryBackoff):
		}
	}
}

func observeCreated() {
	metrics.BillsCreated.Inc()
}

func observePayment(completed bool) {
	metrics.PaymentsRecorded.Inc()
	if completed {
		metrics.BillsCompleted.Inc()
	}
}
