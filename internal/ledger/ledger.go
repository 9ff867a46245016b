// Package ledger owns bills and their payment lifecycle.
//
// A bill is a single JSON document in the key-value store. Every mutation is
// a read-modify-write guarded by compare-and-swap, so concurrent payments on
// the same bill never clobber each other. Reverse indexes (per-user bill sets
// and the open-bills set) are written alongside the document.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/sharethebill/internal/models"
	"github.com/mmynk/sharethebill/internal/storage"
	"github.com/mmynk/sharethebill/internal/wallet"
)

const (
	defaultMaxRetries    = 5
	defaultNotifyTimeout = 10 * time.Second
)

// WalletResolver resolves the address a user receives payments at.
// wallet.ErrNoAddress, or an empty address, means the user has none.
type WalletResolver interface {
	ResolveWalletAddress(ctx context.Context, fid int64) (string, error)
}

// Notifier delivers a short message to a user. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, fid int64, title, body string) error
}

// Ledger implements the bill operations on top of a Store.
type Ledger struct {
	store    storage.Store
	wallets  WalletResolver
	notifier Notifier

	now           func() time.Time
	newID         func() string
	maxRetries    int
	notifyTimeout time.Duration

	// pending tracks in-flight notification dispatches.
	pending sync.WaitGroup
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides how bill ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(l *Ledger) { l.newID = fn }
}

// WithMaxRetries sets how many times a conflicting write is retried.
func WithMaxRetries(n int) Option {
	return func(l *Ledger) { l.maxRetries = n }
}

// WithNotifyTimeout bounds each background notification dispatch.
func WithNotifyTimeout(d time.Duration) Option {
	return func(l *Ledger) { l.notifyTimeout = d }
}

// New creates a Ledger. A nil notifier disables notifications.
func New(store storage.Store, wallets WalletResolver, notifier Notifier, opts ...Option) *Ledger {
	l := &Ledger{
		store:         store,
		wallets:       wallets,
		notifier:      notifier,
		now:           time.Now,
		newID:         uuid.NewString,
		maxRetries:    defaultMaxRetries,
		notifyTimeout: defaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WaitForNotifications blocks until every notification dispatched so far
// has been attempted.
//
// It must only be called once nothing else can dispatch: stop the RPC server
// and the reminder scheduler first. A Ledger method running concurrently with
// the wait may start a dispatch the wait does not cover.
func (l *Ledger) WaitForNotifications() {
	l.pending.Wait()
}

// CreateBill validates the input, computes the split and persists a new
// pending bill indexed under every participant.
func (l *Ledger) CreateBill(ctx context.Context, in CreateBillInput) (*models.Bill, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	fids, amounts, err := in.split()
	if err != nil {
		return nil, err
	}

	address, err := l.wallets.ResolveWalletAddress(ctx, in.CreatorFID)
	if err != nil && !errors.Is(err, wallet.ErrNoAddress) {
		return nil, fmt.Errorf("%w: resolving wallet for fid %d: %w", ErrStorage, in.CreatorFID, err)
	}
	if address == "" {
		return nil, fmt.Errorf("%w: creator must have a verified payment address", ErrValidation)
	}

	now := l.now().UTC()
	bill := &models.Bill{
		ID:                   l.newID(),
		Title:                in.Title,
		Description:          in.Description,
		TotalAmount:          in.TotalAmount,
		Currency:             in.Currency,
		SplitType:            in.SplitType,
		CreatorFID:           in.CreatorFID,
		CreatorWalletAddress: address,
		Participants:         make([]models.Participant, len(fids)),
		Status:               models.BillPending,
		Tags:                 in.Tags,
		CreatedAt:            now,
		UpdatedAt:            now,
		DueDate:              utcPtr(in.DueDate),
		Version:              1,
	}
	for i, fid := range fids {
		bill.Participants[i] = models.Participant{
			FID:        fid,
			AmountOwed: amounts[i],
			Status:     models.ParticipantPending,
		}
	}

	if err := l.insert(ctx, bill); err != nil {
		return nil, err
	}
	observeCreated()
	slog.Info("Bill created", "bill_id", bill.ID, "creator_fid", bill.CreatorFID,
		"total", bill.TotalAmount.StringFixed(2), "currency", bill.Currency, "participants", len(bill.Participants))

	var notes []notification
	for _, p := range bill.Participants {
		if p.FID != bill.CreatorFID {
			notes = append(notes, billCreatedMessage(bill, p))
		}
	}
	l.dispatch(ctx, bill.ID, notes)
	return bill, nil
}

// insert writes a brand-new bill and its indexes. If any index write fails,
// everything already written is removed again.
func (l *Ledger) insert(ctx context.Context, bill *models.Bill) error {
	data, err := json.Marshal(bill)
	if err != nil {
		return fmt.Errorf("%w: encoding bill: %w", ErrStorage, err)
	}
	if err := l.store.CompareAndSwap(ctx, storage.BillKey(bill.ID), nil, data); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("%w: bill %s already exists", ErrConflict, bill.ID)
		}
		return fmt.Errorf("%w: saving bill: %w", ErrStorage, err)
	}

	indexes := make([]string, 0, len(bill.Participants)+1)
	for _, p := range bill.Participants {
		indexes = append(indexes, storage.UserBillsKey(p.FID))
	}
	indexes = append(indexes, storage.OpenBillsKey())

	for i, key := range indexes {
		if err := l.store.AddToSet(ctx, key, bill.ID); err != nil {
			return l.undoInsert(ctx, bill.ID, indexes[:i], err)
		}
	}
	return nil
}

func (l *Ledger) undoInsert(ctx context.Context, billID string, written []string, cause error) error {
	var cleanup []error
	for _, key := range written {
		if err := l.store.RemoveFromSet(ctx, key, billID); err != nil {
			cleanup = append(cleanup, err)
		}
	}
	if err := l.store.Delete(ctx, storage.BillKey(billID)); err != nil {
		cleanup = append(cleanup, err)
	}
	if len(cleanup) > 0 {
		slog.Error("Bill creation left partial state", "bill_id", billID, "error", cause, "cleanup_errors", errors.Join(cleanup...))
		return fmt.Errorf("%w: creating bill %s: %w", ErrPartiallyApplied, billID, errors.Join(append([]error{cause}, cleanup...)...))
	}
	slog.Warn("Bill creation rolled back", "bill_id", billID, "error", cause)
	return fmt.Errorf("%w: indexing bill: %w", ErrStorage, cause)
}

// GetBill returns the bill with the given id.
func (l *Ledger) GetBill(ctx context.Context, id string) (*models.Bill, error) {
	bill, _, err := l.load(ctx, id)
	return bill, err
}

func (l *Ledger) load(ctx context.Context, id string) (*models.Bill, []byte, error) {
	if id == "" {
		return nil, nil, fmt.Errorf("%w: bill id is required", ErrValidation)
	}
	data, err := l.store.Get(ctx, storage.BillKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: bill %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: loading bill %s: %w", ErrStorage, id, err)
	}
	var bill models.Bill
	if err := json.Unmarshal(data, &bill); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding bill %s: %w", ErrStorage, id, err)
	}
	return &bill, data, nil
}

// UpdateBillMetadata applies the non-nil fields of update. Only the creator
// may update a bill, and the only status it may be set to is cancelled.
func (l *Ledger) UpdateBillMetadata(ctx context.Context, id string, requestorFID int64, update MetadataUpdate) (*models.Bill, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}

	var cancelled bool
	bill, err := l.mutate(ctx, id, func(b *models.Bill) error {
		cancelled = false
		if b.CreatorFID != requestorFID {
			return fmt.Errorf("%w: only the creator can update bill %s", ErrUnauthorized, id)
		}
		if update.Status != nil {
			switch b.Status {
			case models.BillCancelled:
				return fmt.Errorf("%w: bill %s is already cancelled", ErrConflict, id)
			case models.BillCompleted:
				return fmt.Errorf("%w: bill %s is already completed", ErrConflict, id)
			}
			b.Status = models.BillCancelled
			cancelled = true
		}
		update.apply(b)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cancelled {
		l.closeBill(ctx, bill.ID)
		slog.Info("Bill cancelled", "bill_id", bill.ID, "creator_fid", bill.CreatorFID)

		var notes []notification
		for _, p := range bill.Unpaid() {
			if p.FID != bill.CreatorFID {
				notes = append(notes, billCancelledMessage(bill, p.FID))
			}
		}
		l.dispatch(ctx, bill.ID, notes)
	}
	return bill, nil
}

// RecordPayment marks a participant paid. The amount must match what the
// participant owes within one cent.
func (l *Ledger) RecordPayment(ctx context.Context, billID string, fid int64, amount decimal.Decimal, txRef string) (*models.Bill, error) {
	if !txHashPattern.MatchString(txRef) {
		return nil, fmt.Errorf("%w: payment hash must be a 0x-prefixed 32-byte hex string", ErrValidation)
	}

	var completed bool
	bill, err := l.mutate(ctx, billID, func(b *models.Bill) error {
		completed = false
		if b.Status == models.BillCancelled {
			return fmt.Errorf("%w: bill %s is cancelled", ErrConflict, billID)
		}
		p, ok := b.Participant(fid)
		if !ok {
			return fmt.Errorf("%w: fid %d is not a participant of bill %s", ErrNotFound, fid, billID)
		}
		if p.Status == models.ParticipantPaid {
			return fmt.Errorf("%w: fid %d has already paid bill %s", ErrConflict, fid, billID)
		}
		if !withinOneCent(amount, p.AmountOwed) {
			return fmt.Errorf("%w: payment of %s does not match amount owed %s", ErrValidation,
				amount.StringFixed(2), p.AmountOwed.StringFixed(2))
		}

		paidAt := l.now().UTC()
		p.Status = models.ParticipantPaid
		p.PaidAt = &paidAt
		p.PaymentHash = txRef
		p.FailureReason = ""

		prev := b.Status
		b.Status = b.DeriveStatus()
		completed = prev != models.BillCompleted && b.Status == models.BillCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}

	observePayment(completed)
	slog.Info("Payment recorded", "bill_id", bill.ID, "fid", fid, "amount", amount.StringFixed(2), "status", bill.Status)
	if completed {
		l.closeBill(ctx, bill.ID)
	}

	var notes []notification
	for _, p := range bill.Participants {
		if p.FID != fid {
			notes = append(notes, paymentReceivedMessage(bill, fid, p.FID))
		}
	}
	if completed {
		for _, p := range bill.Participants {
			notes = append(notes, billCompletedMessage(bill, p.FID))
		}
	}
	l.dispatch(ctx, bill.ID, notes)
	return bill, nil
}

// MarkPaymentFailed records that a participant's payment attempt failed.
// The participant may retry; a paid participant cannot be marked failed.
func (l *Ledger) MarkPaymentFailed(ctx context.Context, billID string, fid int64, reason string) (*models.Bill, error) {
	reason = truncate(reason, maxReasonLength)
	return l.mutate(ctx, billID, func(b *models.Bill) error {
		if b.Status == models.BillCancelled {
			return fmt.Errorf("%w: bill %s is cancelled", ErrConflict, billID)
		}
		p, ok := b.Participant(fid)
		if !ok {
			return fmt.Errorf("%w: fid %d is not a participant of bill %s", ErrNotFound, fid, billID)
		}
		if p.Status == models.ParticipantPaid {
			return fmt.Errorf("%w: fid %d has already paid bill %s", ErrConflict, fid, billID)
		}
		p.Status = models.ParticipantFailed
		p.FailureReason = reason
		return nil
	})
}

// DeleteBill removes a bill that nobody has paid yet, along with its indexes.
func (l *Ledger) DeleteBill(ctx context.Context, id string, requestorFID int64) error {
	bill, raw, err := l.load(ctx, id)
	if err != nil {
		return err
	}
	if bill.HasPayments() {
		return fmt.Errorf("%w: bill %s has payments and cannot be deleted", ErrConflict, id)
	}
	if bill.CreatorFID != requestorFID {
		return fmt.Errorf("%w: only the creator can delete bill %s", ErrUnauthorized, id)
	}

	// A payment recorded between load and delete makes the stored document
	// differ from raw, which fails the delete instead of losing the payment.
	if err := l.store.CompareAndDelete(ctx, storage.BillKey(id), raw); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return fmt.Errorf("%w: bill %s changed while deleting", ErrConflict, id)
		case errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("%w: bill %s", ErrNotFound, id)
		default:
			return fmt.Errorf("%w: deleting bill %s: %w", ErrStorage, id, err)
		}
	}

	var errs []error
	for _, p := range bill.Participants {
		if err := l.store.RemoveFromSet(ctx, storage.UserBillsKey(p.FID), id); err != nil {
			errs = append(errs, err)
		}
	}
	if err := l.store.RemoveFromSet(ctx, storage.OpenBillsKey(), id); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		slog.Error("Bill deleted with stale index entries", "bill_id", id, "error", errors.Join(errs...))
		return fmt.Errorf("%w: bill %s deleted but %d index entries remain: %w", ErrPartiallyApplied, id, len(errs), errors.Join(errs...))
	}

	slog.Info("Bill deleted", "bill_id", id, "creator_fid", requestorFID)
	return nil
}

// closeBill drops a terminal bill from the open-bills index. Failure only
// costs the reminder job an extra lookup, which prunes it then.
func (l *Ledger) closeBill(ctx context.Context, id string) {
	if err := l.store.RemoveFromSet(ctx, storage.OpenBillsKey(), id); err != nil {
		slog.Warn("Failed to remove bill from open index", "bill_id", id, "error", err)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
