// Package notify delivers short user notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// Farcaster mini-app notifications reject longer text.
const (
	MaxTitleLength = 32
	MaxBodyLength  = 128
)

// Sink delivers a notification to a user.
type Sink interface {
	Notify(ctx context.Context, fid int64, title, body string) error
}

// LogSink only logs notifications. Useful for development or when no
// delivery channel is configured.
type LogSink struct{}

// Notify implements Sink.
func (LogSink) Notify(ctx context.Context, fid int64, title, body string) error {
	slog.InfoContext(ctx, "Notification", "fid", fid, "title", title, "body", body)
	return nil
}

// Composite delivers every notification through all of its sinks.
type Composite struct {
	sinks []Sink
}

// NewComposite creates a Composite. Nil sinks are ignored.
func NewComposite(sinks ...Sink) *Composite {
	c := &Composite{}
	for _, s := range sinks {
		c.Add(s)
	}
	return c
}

// Add appends a sink.
func (c *Composite) Add(s Sink) {
	if s != nil {
		c.sinks = append(c.sinks, s)
	}
}

// Notify implements Sink. Every sink is tried; failures are joined.
func (c *Composite) Notify(ctx context.Context, fid int64, title, body string) error {
	if len(c.sinks) == 0 {
		return errors.New("no sinks configured")
	}
	var errs []error
	for _, s := range c.sinks {
		if err := s.Notify(ctx, fid, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("composite notify failed: %w", errors.Join(errs...))
	}
	return nil
}

// Clip shortens title and body to what clients accept.
func Clip(title, body string) (string, string) {
	return clip(title, MaxTitleLength), clip(body, MaxBodyLength)
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
