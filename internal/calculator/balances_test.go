package calculator

import (
	"testing"

	"github.com/mmynk/sharethebill/internal/models"
)

func participant(fid int64, amount string, status models.ParticipantStatus) models.Participant {
	return models.Participant{FID: fid, AmountOwed: d(amount), Status: status}
}

func TestCalculateBalances(t *testing.T) {
	bills := []*models.Bill{
		{
			// Alice (1) created, Bob (2) and Charlie (3) owe her
			CreatorFID: 1,
			Currency:   models.CurrencyUSDC,
			Status:     models.BillCollecting,
			Participants: []models.Participant{
				participant(1, "30", models.ParticipantPending),
				participant(2, "30", models.ParticipantPending),
				participant(3, "30", models.ParticipantPaid),
			},
		},
		{
			// Bob created, Alice owes him
			CreatorFID: 2,
			Currency:   models.CurrencyUSDC,
			Status:     models.BillPending,
			Participants: []models.Participant{
				participant(2, "10", models.ParticipantPending),
				participant(1, "12.50", models.ParticipantFailed),
			},
		},
		{
			// Cancelled bills never count
			CreatorFID: 2,
			Currency:   models.CurrencyUSDC,
			Status:     models.BillCancelled,
			Participants: []models.Participant{
				participant(2, "5", models.ParticipantPending),
				participant(1, "5", models.ParticipantPending),
			},
		},
		{
			// Different currency is tracked separately
			CreatorFID: 2,
			Currency:   models.CurrencyETH,
			Status:     models.BillPending,
			Participants: []models.Participant{
				participant(2, "0.5", models.ParticipantPending),
				participant(1, "0.5", models.ParticipantPending),
			},
		},
	}

	got := CalculateBalances(1, bills)
	if len(got) != 2 {
		t.Fatalf("expected 2 balances, got %d: %+v", len(got), got)
	}

	// Sorted by fid then currency: (2, ETH), (2, USDC)
	eth, usdc := got[0], got[1]
	if eth.FID != 2 || eth.Currency != models.CurrencyETH {
		t.Fatalf("unexpected first balance: %+v", eth)
	}
	if !eth.IOwe.Equal(d("0.5")) || !eth.Net.Equal(d("-0.5")) {
		t.Errorf("ETH balance = %+v, want iOwe 0.5 net -0.5", eth)
	}

	if usdc.FID != 2 || usdc.Currency != models.CurrencyUSDC {
		t.Fatalf("unexpected second balance: %+v", usdc)
	}
	if !usdc.OwedToMe.Equal(d("30")) {
		t.Errorf("USDC owedToMe = %s, want 30", usdc.OwedToMe)
	}
	if !usdc.IOwe.Equal(d("12.50")) {
		t.Errorf("USDC iOwe = %s, want 12.50", usdc.IOwe)
	}
	if !usdc.Net.Equal(d("17.50")) {
		t.Errorf("USDC net = %s, want 17.50", usdc.Net)
	}
}

func TestCalculateBalances_NothingOutstanding(t *testing.T) {
	bills := []*models.Bill{
		{
			CreatorFID: 1,
			Currency:   models.CurrencyUSDC,
			Status:     models.BillCompleted,
			Participants: []models.Participant{
				participant(1, "10", models.ParticipantPaid),
				participant(2, "10", models.ParticipantPaid),
			},
		},
	}
	if got := CalculateBalances(2, bills); len(got) != 0 {
		t.Errorf("expected no balances, got %+v", got)
	}
}
