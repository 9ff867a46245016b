package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/sharethebill/internal/calculator"
	"github.com/mmynk/sharethebill/internal/models"
	"github.com/mmynk/sharethebill/internal/storage"
)

const (
	loadConcurrency = 8

	// ReminderWindow is how far ahead of its due date a bill is reminded.
	ReminderWindow = 24 * time.Hour
)

// ListBillsForUser summarizes every bill fid created or participates in,
// newest first.
func (l *Ledger) ListBillsForUser(ctx context.Context, fid int64) ([]models.BillSummary, error) {
	bills, err := l.loadIndexed(ctx, storage.UserBillsKey(fid))
	if err != nil {
		return nil, err
	}

	summaries := make([]models.BillSummary, 0, len(bills))
	for _, b := range bills {
		s := models.BillSummary{
			ID:               b.ID,
			Title:            b.Title,
			TotalAmount:      b.TotalAmount,
			Currency:         b.Currency,
			Status:           b.Status,
			ParticipantCount: len(b.Participants),
			IsCreator:        b.CreatorFID == fid,
			CreatedAt:        b.CreatedAt,
			DueDate:          b.DueDate,
		}
		if p, ok := b.Participant(fid); ok {
			s.MyShare = p.AmountOwed
			s.MyStatus = p.Status
		}
		summaries = append(summaries, s)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// BalancesForUser returns what fid is owed and owes per counterparty across
// unpaid shares of their bills.
func (l *Ledger) BalancesForUser(ctx context.Context, fid int64) ([]calculator.CounterpartyBalance, error) {
	bills, err := l.loadIndexed(ctx, storage.UserBillsKey(fid))
	if err != nil {
		return nil, err
	}
	return calculator.CalculateBalances(fid, bills), nil
}

// RemindDue notifies every unpaid participant of an open bill due within
// ReminderWindow of now, or overdue. Terminal bills found in the open index
// are pruned. It returns the number of reminders dispatched.
func (l *Ledger) RemindDue(ctx context.Context, now time.Time) (int, error) {
	bills, err := l.loadIndexed(ctx, storage.OpenBillsKey())
	if err != nil {
		return 0, err
	}

	cutoff := now.Add(ReminderWindow)
	sent := 0
	for _, b := range bills {
		if b.Status.Terminal() {
			l.closeBill(ctx, b.ID)
			continue
		}
		if b.DueDate == nil || b.DueDate.After(cutoff) {
			continue
		}

		var notes []notification
		for _, p := range b.Unpaid() {
			if p.FID != b.CreatorFID {
				notes = append(notes, reminderMessage(b, p))
			}
		}
		l.dispatch(ctx, b.ID, notes)
		sent += len(notes)
	}
	return sent, nil
}

// loadIndexed loads every bill whose id is in the set at key. Ids whose
// document is gone are skipped; they are left behind by a partially applied
// delete.
func (l *Ledger) loadIndexed(ctx context.Context, key string) ([]*models.Bill, error) {
	ids, err := l.store.Members(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: reading index %s: %w", ErrStorage, key, err)
	}

	loaded := make([]*models.Bill, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			bill, _, err := l.load(gctx, id)
			if errors.Is(err, ErrNotFound) {
				slog.Warn("Index references missing bill", "index", key, "bill_id", id)
				return nil
			}
			if err != nil {
				return err
			}
			loaded[i] = bill
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bills := make([]*models.Bill, 0, len(loaded))
	for _, b := range loaded {
		if b != nil {
			bills = append(bills, b)
		}
	}
	return bills, nil
}
