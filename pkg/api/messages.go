package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/sharethebill/internal/calculator"
	"github.com/mmynk/sharethebill/internal/models"
)

// ParticipantShare is one participant of a new bill. Amount is read for
// custom splits and Percentage for percentage splits.
type ParticipantShare struct {
	FID        int64           `json:"fid"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage decimal.Decimal `json:"percentage"`
}

type CreateBillRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	TotalAmount  decimal.Decimal    `json:"totalAmount"`
	Currency     models.Currency    `json:"currency"`
	SplitType    models.SplitType   `json:"splitType"`
	Participants []ParticipantShare `json:"participants"`
	DueDate      *time.Time         `json:"dueDate,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
}

type CreateBillResponse struct {
	Bill *models.Bill `json:"bill"`
}

type GetBillRequest struct {
	BillID string `json:"billId"`
}

type GetBillResponse struct {
	Bill *models.Bill `json:"bill"`
}

// UpdateBillRequest changes bill metadata. Omitted fields are left as is.
type UpdateBillRequest struct {
	BillID       string             `json:"billId"`
	Title        *string            `json:"title,omitempty"`
	Description  *string            `json:"description,omitempty"`
	Status       *models.BillStatus `json:"status,omitempty"`
	DueDate      *time.Time         `json:"dueDate,omitempty"`
	ClearDueDate bool               `json:"clearDueDate,omitempty"`
	Tags         *[]string          `json:"tags,omitempty"`
}

type UpdateBillResponse struct {
	Bill *models.Bill `json:"bill"`
}

// RecordPaymentRequest reports the caller's payment of their share.
type RecordPaymentRequest struct {
	BillID      string          `json:"billId"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentHash string          `json:"paymentHash"`
}

type RecordPaymentResponse struct {
	Bill *models.Bill `json:"bill"`
}

type MarkPaymentFailedRequest struct {
	BillID string `json:"billId"`
	Reason string `json:"reason,omitempty"`
}

type MarkPaymentFailedResponse struct {
	Bill *models.Bill `json:"bill"`
}

type DeleteBillRequest struct {
	BillID string `json:"billId"`
}

type DeleteBillResponse struct{}

type ListBillsRequest struct{}

type ListBillsResponse struct {
	Bills []models.BillSummary `json:"bills"`
}

type GetBalancesRequest struct{}

type GetBalancesResponse struct {
	Balances []calculator.CounterpartyBalance `json:"balances"`
}

type RegisterWalletRequest struct {
	Address string `json:"address"`
}

type RegisterWalletResponse struct {
	Wallet *models.WalletRegistration `json:"wallet"`
}

// GetWalletRequest looks up where a user receives payments. A zero FID
// means the caller.
type GetWalletRequest struct {
	FID int64 `json:"fid,omitempty"`
}

type GetWalletResponse struct {
	FID     int64  `json:"fid"`
	Address string `json:"address"`
}

type RegisterNotificationDetailsRequest struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

type RegisterNotificationDetailsResponse struct{}
