package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the asset a bill is settled in.
type Currency string

const (
	CurrencyUSDC Currency = "USDC"
	CurrencyETH  Currency = "ETH"
)

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	switch c {
	case CurrencyUSDC, CurrencyETH:
		return true
	}
	return false
}

// SplitType is the method used to derive each participant's share.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitCustom     SplitType = "custom"
	SplitPercentage SplitType = "percentage"
)

// Valid reports whether t is a known split type.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitCustom, SplitPercentage:
		return true
	}
	return false
}

// BillStatus is the lifecycle state of a bill.
type BillStatus string

const (
	BillDraft      BillStatus = "draft"
	BillPending    BillStatus = "pending"
	BillCollecting BillStatus = "collecting"
	BillCompleted  BillStatus = "completed"
	BillCancelled  BillStatus = "cancelled"
)

// Terminal reports whether no further payment can move the bill.
func (s BillStatus) Terminal() bool {
	return s == BillCompleted || s == BillCancelled
}

// ParticipantStatus is the payment state of one participant.
type ParticipantStatus string

const (
	ParticipantPending ParticipantStatus = "pending"
	ParticipantPaid    ParticipantStatus = "paid"
	ParticipantFailed  ParticipantStatus = "failed"
)

// Bill represents a request to split a fixed total among participants.
// It is persisted as a single JSON document.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// TotalAmount is fixed at creation and always equals the sum of
	// participants' AmountOwed.
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Currency    Currency        `json:"currency"`
	SplitType   SplitType       `json:"splitType"`

	// CreatorFID is the Farcaster fid of the user who created the bill.
	CreatorFID int64 `json:"creatorFid"`

	// CreatorWalletAddress receives every participant payment.
	CreatorWalletAddress string `json:"creatorWalletAddress"`

	// Participants keeps insertion order. The first participant absorbs
	// any rounding remainder.
	Participants []Participant `json:"participants"`

	Status BillStatus `json:"status"`
	Tags   []string   `json:"tags,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DueDate   *time.Time `json:"dueDate,omitempty"`

	// Version is bumped on every write of the document.
	Version int64 `json:"version"`
}

// Participant is a user owing a fixed share of a Bill.
type Participant struct {
	FID        int64             `json:"fid"`
	AmountOwed decimal.Decimal   `json:"amountOwed"`
	Status     ParticipantStatus `json:"status"`

	// PaidAt and PaymentHash are set only on the transition to paid.
	PaidAt      *time.Time `json:"paidAt,omitempty"`
	PaymentHash string     `json:"paymentHash,omitempty"`

	// FailureReason is the last reported reason for a failed payment.
	FailureReason string `json:"failureReason,omitempty"`
}

// Participant returns the participant with the given fid.
func (b *Bill) Participant(fid int64) (*Participant, bool) {
	for i := range b.Participants {
		if b.Participants[i].FID == fid {
			return &b.Participants[i], true
		}
	}
	return nil, false
}

// IsParticipant reports whether fid is listed on the bill.
func (b *Bill) IsParticipant(fid int64) bool {
	_, ok := b.Participant(fid)
	return ok
}

// HasPayments reports whether any participant has paid.
func (b *Bill) HasPayments() bool {
	for _, p := range b.Participants {
		if p.Status == ParticipantPaid {
			return true
		}
	}
	return false
}

// DeriveStatus computes the bill status from its participants.
// Cancellation is sticky and overrides participant state.
func (b *Bill) DeriveStatus() BillStatus {
	if b.Status == BillCancelled {
		return BillCancelled
	}
	paid := 0
	for _, p := range b.Participants {
		if p.Status == ParticipantPaid {
			paid++
		}
	}
	switch {
	case len(b.Participants) > 0 && paid == len(b.Participants):
		return BillCompleted
	case paid > 0:
		return BillCollecting
	default:
		return BillPending
	}
}

// Unpaid returns the participants whose status is not paid.
func (b *Bill) Unpaid() []Participant {
	var out []Participant
	for _, p := range b.Participants {
		if p.Status != ParticipantPaid {
			out = append(out, p)
		}
	}
	return out
}

// BillSummary is one entry of a user's bill listing.
type BillSummary struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	TotalAmount      decimal.Decimal   `json:"totalAmount"`
	Currency         Currency          `json:"currency"`
	MyShare          decimal.Decimal   `json:"myShare"`
	MyStatus         ParticipantStatus `json:"myStatus,omitempty"`
	Status           BillStatus        `json:"status"`
	ParticipantCount int               `json:"participantCount"`
	IsCreator        bool              `json:"isCreator"`
	CreatedAt        time.Time         `json:"createdAt"`
	DueDate          *time.Time        `json:"dueDate,omitempty"`
}
