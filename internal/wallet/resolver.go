// Package wallet resolves and registers the addresses users receive
// payments at.
package wallet

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoAddress is returned when a user has no known payment address.
var ErrNoAddress = errors.New("no wallet address")

// Resolver looks up a user's payment address.
type Resolver interface {
	ResolveWalletAddress(ctx context.Context, fid int64) (string, error)
}

// Chain tries each resolver in order and returns the first address found.
type Chain []Resolver

// ResolveWalletAddress implements Resolver.
func (c Chain) ResolveWalletAddress(ctx context.Context, fid int64) (string, error) {
	var errs []error
	for _, r := range c {
		addr, err := r.ResolveWalletAddress(ctx, fid)
		if err == nil && addr != "" {
			return addr, nil
		}
		if err != nil && !errors.Is(err, ErrNoAddress) {
			slog.Warn("Wallet resolver failed", "fid", fid, "error", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return "", ErrNoAddress
}
