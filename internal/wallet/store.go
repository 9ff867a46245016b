package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/sharethebill/internal/models"
	"github.com/mmynk/sharethebill/internal/storage"
)

// StoreResolver keeps addresses users registered themselves in the
// key-value store.
type StoreResolver struct {
	store storage.Store
	now   func() time.Time
}

// NewStoreResolver creates a StoreResolver.
func NewStoreResolver(store storage.Store) *StoreResolver {
	return &StoreResolver{store: store, now: time.Now}
}

// Register validates address and stores it as fid's payment address,
// replacing any previous one.
func (r *StoreResolver) Register(ctx context.Context, fid int64, address string) (*models.WalletRegistration, error) {
	if fid <= 0 {
		return nil, fmt.Errorf("%w: invalid fid %d", ErrInvalidAddress, fid)
	}
	normalized, err := ValidateAddress(address)
	if err != nil {
		return nil, err
	}

	reg := &models.WalletRegistration{
		FID:          fid,
		Address:      normalized,
		RegisteredAt: r.now().Unix(),
	}
	data, err := json.Marshal(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode wallet: %w", err)
	}
	if err := r.store.Set(ctx, storage.WalletKey(fid), data); err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}

	slog.Info("Wallet registered", "fid", fid, "address", normalized)
	return reg, nil
}

// Lookup returns the registration for fid, or ErrNoAddress.
func (r *StoreResolver) Lookup(ctx context.Context, fid int64) (*models.WalletRegistration, error) {
	data, err := r.store.Get(ctx, storage.WalletKey(fid))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoAddress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	var reg models.WalletRegistration
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to decode wallet: %w", err)
	}
	return &reg, nil
}

// ResolveWalletAddress implements Resolver.
func (r *StoreResolver) ResolveWalletAddress(ctx context.Context, fid int64) (string, error) {
	reg, err := r.Lookup(ctx, fid)
	if err != nil {
		return "", err
	}
	return reg.Address, nil
}
