package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/sharethebill/internal/metrics"
	"github.com/mmynk/sharethebill/internal/models"
)

const notifyConcurrency = 4

type notification struct {
	fid   int64
	title string
	body  string
}

// dispatch delivers notes in the background. The caller never waits on
// delivery and never sees a delivery error.
func (l *Ledger) dispatch(ctx context.Context, billID string, notes []notification) {
	if l.notifier == nil || len(notes) == 0 {
		return
	}

	// Keep request values (for logging) but not the request's deadline.
	base := context.WithoutCancel(ctx)

	l.pending.Add(1)
	go func() {
		defer l.pending.Done()

		ctx, cancel := context.WithTimeout(base, l.notifyTimeout)
		defer cancel()

		var g errgroup.Group
		g.SetLimit(notifyConcurrency)
		for _, n := range notes {
			g.Go(func() error {
				if err := l.notifier.Notify(ctx, n.fid, n.title, n.body); err != nil {
					metrics.Notifications.WithLabelValues("failed").Inc()
					return fmt.Errorf("notify fid %d: %w", n.fid, err)
				}
				metrics.Notifications.WithLabelValues("sent").Inc()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			slog.Warn("Some notifications failed", "bill_id", billID, "count", len(notes), "error", err)
		}
	}()
}

func billCreatedMessage(b *models.Bill, p models.Participant) notification {
	return notification{
		fid:   p.FID,
		title: "New bill to split",
		body:  fmt.Sprintf("You owe %s %s for %q", p.AmountOwed.StringFixed(2), b.Currency, b.Title),
	}
}

func paymentReceivedMessage(b *models.Bill, payer, to int64) notification {
	return notification{
		fid:   to,
		title: "Payment received",
		body:  fmt.Sprintf("fid %d paid their share of %q", payer, b.Title),
	}
}

func billCompletedMessage(b *models.Bill, to int64) notification {
	return notification{
		fid:   to,
		title: "Bill settled",
		body:  fmt.Sprintf("Everyone has paid for %q", b.Title),
	}
}

func billCancelledMessage(b *models.Bill, to int64) notification {
	return notification{
		fid:   to,
		title: "Bill cancelled",
		body:  fmt.Sprintf("%q was cancelled and no longer needs payment", b.Title),
	}
}

func reminderMessage(b *models.Bill, p models.Participant) notification {
	return notification{
		fid:   p.FID,
		title: "Payment reminder",
		body:  fmt.Sprintf("You still owe %s %s for %q", p.AmountOwed.StringFixed(2), b.Currency, b.Title),
	}
}
