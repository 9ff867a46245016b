package models

import "testing"

func billWith(status BillStatus, participants ...ParticipantStatus) *Bill {
	b := &Bill{Status: status}
	for i, s := range participants {
		b.Participants = append(b.Participants, Participant{FID: int64(i + 1), Status: s})
	}
	return b
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name string
		bill *Bill
		want BillStatus
	}{
		{"nobody paid", billWith(BillPending, ParticipantPending, ParticipantFailed), BillPending},
		{"some paid", billWith(BillPending, ParticipantPaid, ParticipantPending), BillCollecting},
		{"failed does not block collecting", billWith(BillPending, ParticipantPaid, ParticipantFailed), BillCollecting},
		{"all paid", billWith(BillCollecting, ParticipantPaid, ParticipantPaid), BillCompleted},
		{"cancelled is sticky", billWith(BillCancelled, ParticipantPaid, ParticipantPaid), BillCancelled},
		{"no participants", billWith(BillPending), BillPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.bill.DeriveStatus(); got != tt.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBillHelpers(t *testing.T) {
	b := billWith(BillCollecting, ParticipantPaid, ParticipantPending, ParticipantFailed)

	if !b.HasPayments() {
		t.Error("expected HasPayments")
	}
	if !b.IsParticipant(3) || b.IsParticipant(4) {
		t.Error("IsParticipant mismatch")
	}

	unpaid := b.Unpaid()
	if len(unpaid) != 2 || unpaid[0].FID != 2 || unpaid[1].FID != 3 {
		t.Errorf("Unpaid() = %+v", unpaid)
	}

	p, ok := b.Participant(2)
	if !ok {
		t.Fatal("participant 2 missing")
	}
	p.Status = ParticipantPaid
	if b.Participants[1].Status != ParticipantPaid {
		t.Error("Participant should return a pointer into the bill")
	}

	if BillPending.Terminal() || !BillCompleted.Terminal() || !BillCancelled.Terminal() {
		t.Error("Terminal mismatch")
	}
	if !CurrencyUSDC.Valid() || Currency("DOGE").Valid() {
		t.Error("Currency.Valid mismatch")
	}
}
