package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/sharethebill/internal/models"
	"github.com/mmynk/sharethebill/internal/storage"
	"github.com/mmynk/sharethebill/internal/storage/sqlite"
)

func newFarcasterSink(t *testing.T, handler http.HandlerFunc) (*FarcasterSink, *httptest.Server, storage.Store) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	sink := NewFarcasterSink(store, "https://sharethebill.example")
	sink.client = srv.Client()
	return sink, srv, store
}

func TestFarcasterSink_Notify(t *testing.T) {
	var got sendRequest
	sink, srv, _ := newFarcasterSink(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"result":{"successfulTokens":["tok"],"invalidTokens":[],"rateLimitedTokens":[]}}`))
	})
	ctx := context.Background()

	require.NoError(t, sink.SaveDetails(ctx, 5, models.NotificationDetails{URL: srv.URL, Token: "tok"}))
	require.NoError(t, sink.Notify(ctx, 5, "A very long notification title that will be clipped", "body"))

	assert.NotEmpty(t, got.NotificationID)
	assert.Equal(t, []string{"tok"}, got.Tokens)
	assert.Equal(t, "https://sharethebill.example", got.TargetURL)
	assert.Len(t, []rune(got.Title), MaxTitleLength)
	assert.Equal(t, "body", got.Body)
}

func TestFarcasterSink_SkipsUsersWithoutDetails(t *testing.T) {
	called := false
	sink, _, _ := newFarcasterSink(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	require.NoError(t, sink.Notify(context.Background(), 9, "t", "b"))
	assert.False(t, called)
}

func TestFarcasterSink_InvalidTokenForgetsDetails(t *testing.T) {
	sink, srv, store := newFarcasterSink(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"successfulTokens":[],"invalidTokens":["tok"],"rateLimitedTokens":[]}}`))
	})
	ctx := context.Background()

	require.NoError(t, sink.SaveDetails(ctx, 5, models.NotificationDetails{URL: srv.URL, Token: "tok"}))
	require.NoError(t, sink.Notify(ctx, 5, "t", "b"))

	_, err := store.Get(ctx, storage.NotificationDetailsKey(5))
	assert.True(t, errors.Is(err, storage.ErrNotFound), "details should be deleted, got %v", err)
}

func TestFarcasterSink_RateLimited(t *testing.T) {
	sink, srv, _ := newFarcasterSink(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":{"successfulTokens":[],"invalidTokens":[],"rateLimitedTokens":["tok"]}}`))
	})
	ctx := context.Background()

	require.NoError(t, sink.SaveDetails(ctx, 5, models.NotificationDetails{URL: srv.URL, Token: "tok"}))
	assert.ErrorIs(t, sink.Notify(ctx, 5, "t", "b"), ErrRateLimited)
}

func TestFarcasterSink_SaveDetailsValidation(t *testing.T) {
	sink, _, _ := newFarcasterSink(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	assert.ErrorIs(t, sink.SaveDetails(ctx, 5, models.NotificationDetails{URL: "http://insecure.example", Token: "tok"}), ErrInvalidDetails)
	assert.ErrorIs(t, sink.SaveDetails(ctx, 5, models.NotificationDetails{URL: "https://ok.example"}), ErrInvalidDetails)
}
