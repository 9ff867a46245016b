package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/sharethebill/internal/models"
	"github.com/mmynk/sharethebill/internal/storage"
)

var (
	// ErrRateLimited is returned when the client rate limited the token.
	ErrRateLimited = errors.New("notification rate limited")

	ErrInvalidDetails = errors.New("invalid notification details")
)

// FarcasterSink sends Farcaster mini-app notifications using the url and
// token each user's client registered.
type FarcasterSink struct {
	store     storage.Store
	targetURL string
	client    *http.Client
}

// NewFarcasterSink creates a FarcasterSink. targetURL is opened when the
// user taps a notification.
func NewFarcasterSink(store storage.Store, targetURL string) *FarcasterSink {
	return &FarcasterSink{
		store:     store,
		targetURL: targetURL,
		client:    &http.Client{Timeout: 5 * time.Second},
	}
}

// SaveDetails stores the notification url and token for fid.
func (s *FarcasterSink) SaveDetails(ctx context.Context, fid int64, details models.NotificationDetails) error {
	u, err := url.Parse(details.URL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("%w: url must be an absolute https url", ErrInvalidDetails)
	}
	if details.Token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidDetails)
	}
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode notification details: %w", err)
	}
	if err := s.store.Set(ctx, storage.NotificationDetailsKey(fid), data); err != nil {
		return fmt.Errorf("failed to save notification details: %w", err)
	}
	return nil
}

// DeleteDetails forgets fid's notification details.
func (s *FarcasterSink) DeleteDetails(ctx context.Context, fid int64) error {
	return s.store.Delete(ctx, storage.NotificationDetailsKey(fid))
}

func (s *FarcasterSink) details(ctx context.Context, fid int64) (*models.NotificationDetails, error) {
	data, err := s.store.Get(ctx, storage.NotificationDetailsKey(fid))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load notification details: %w", err)
	}
	var d models.NotificationDetails
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to decode notification details: %w", err)
	}
	return &d, nil
}

type sendRequest struct {
	NotificationID string   `json:"notificationId"`
	Title          string   `json:"title"`
	Body           string   `json:"body"`
	TargetURL      string   `json:"targetUrl"`
	Tokens         []string `json:"tokens"`
}

type sendResponse struct {
	Result struct {
		SuccessfulTokens  []string `json:"successfulTokens"`
		InvalidTokens     []string `json:"invalidTokens"`
		RateLimitedTokens []string `json:"rateLimitedTokens"`
	} `json:"result"`
}

// Notify implements Sink. Users who never enabled notifications are
// skipped silently.
func (s *FarcasterSink) Notify(ctx context.Context, fid int64, title, body string) error {
	d, err := s.details(ctx, fid)
	if err != nil {
		return err
	}
	if d == nil {
		slog.Debug("No notification details, skipping", "fid", fid)
		return nil
	}

	title, body = Clip(title, body)
	payload, err := json.Marshal(sendRequest{
		NotificationID: uuid.NewString(),
		Title:          title,
		Body:           body,
		TargetURL:      s.targetURL,
		Tokens:         []string{d.Token},
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notification endpoint returned status %d", resp.StatusCode)
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode notification response: %w", err)
	}

	switch {
	case slices.Contains(result.Result.InvalidTokens, d.Token):
		// The user disabled notifications or removed the app
		if err := s.DeleteDetails(ctx, fid); err != nil {
			slog.Warn("Failed to delete invalid notification token", "fid", fid, "error", err)
		}
		return nil
	case slices.Contains(result.Result.RateLimitedTokens, d.Token):
		return ErrRateLimited
	}
	return nil
}
