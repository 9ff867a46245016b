package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/sharethebill/internal/models"
)

// CounterpartyBalance is the outstanding position between a user and one
// other user in one currency.
type CounterpartyBalance struct {
	FID      int64           `json:"fid"`
	Currency models.Currency `json:"currency"`
	OwedToMe decimal.Decimal `json:"owedToMe"` // Unpaid shares of bills I created
	IOwe     decimal.Decimal `json:"iOwe"`     // My unpaid shares of their bills
	Net      decimal.Decimal `json:"net"`      // Positive = they owe me
}

type balanceKey struct {
	fid      int64
	currency models.Currency
}

// CalculateBalances computes fid's outstanding balances against every
// counterparty across the given bills.
//
// Algorithm:
// - Cancelled bills are skipped
// - Bill creator is the creditor for every unpaid non-creator share
// - net = owed_to_me - i_owe, per counterparty and currency
func CalculateBalances(fid int64, bills []*models.Bill) []CounterpartyBalance {
	balances := make(map[balanceKey]*CounterpartyBalance)

	get := func(other int64, currency models.Currency) *CounterpartyBalance {
		k := balanceKey{fid: other, currency: currency}
		if _, exists := balances[k]; !exists {
			balances[k] = &CounterpartyBalance{
				FID:      other,
				Currency: currency,
				OwedToMe: decimal.Zero,
				IOwe:     decimal.Zero,
			}
		}
		return balances[k]
	}

	for _, bill := range bills {
		if bill.Status == models.BillCancelled {
			continue
		}

		for _, p := range bill.Participants {
			if p.Status == models.ParticipantPaid || p.FID == bill.CreatorFID {
				continue
			}
			switch {
			case bill.CreatorFID == fid:
				// They owe me
				b := get(p.FID, bill.Currency)
				b.OwedToMe = b.OwedToMe.Add(p.AmountOwed)
			case p.FID == fid:
				// I owe the creator
				b := get(bill.CreatorFID, bill.Currency)
				b.IOwe = b.IOwe.Add(p.AmountOwed)
			}
		}
	}

	out := make([]CounterpartyBalance, 0, len(balances))
	for _, b := range balances {
		b.Net = b.OwedToMe.Sub(b.IOwe)
		if b.OwedToMe.IsZero() && b.IOwe.IsZero() {
			continue
		}
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FID != out[j].FID {
			return out[i].FID < out[j].FID
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}
