package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/sharethebill/internal/ledger"
	"github.com/mmynk/sharethebill/internal/middleware"
	"github.com/mmynk/sharethebill/pkg/api"
)

// BillService implements the Connect BillService on top of the ledger.
// The caller is always the fid from the request's session token.
type BillService struct {
	ledger *ledger.Ledger
}

var _ api.BillServiceHandler = (*BillService)(nil)

// NewBillService creates a new BillService.
func NewBillService(l *ledger.Ledger) *BillService {
	return &BillService{ledger: l}
}

// callerFID returns the authenticated fid or an Unauthenticated error.
func callerFID(ctx context.Context) (int64, error) {
	fid := middleware.GetFID(ctx)
	if fid <= 0 {
		return 0, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}
	return fid, nil
}

// CreateBill creates a bill owned by the caller.
func (s *BillService) CreateBill(ctx context.Context, req *connect.Request[api.CreateBillRequest]) (*connect.Response[api.CreateBillResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	participants := make([]ledger.ParticipantInput, len(req.Msg.Participants))
	for i, p := range req.Msg.Participants {
		participants[i] = ledger.ParticipantInput{FID: p.FID, Amount: p.Amount, Percentage: p.Percentage}
	}

	bill, err := s.ledger.CreateBill(ctx, ledger.CreateBillInput{
		Title:        req.Msg.Title,
		Description:  req.Msg.Description,
		TotalAmount:  req.Msg.TotalAmount,
		Currency:     req.Msg.Currency,
		SplitType:    req.Msg.SplitType,
		CreatorFID:   fid,
		Participants: participants,
		DueDate:      req.Msg.DueDate,
		Tags:         req.Msg.Tags,
	})
	if err != nil {
		slog.Debug("CreateBill rejected", "fid", fid, "error", err)
		return nil, ledgerError("CreateBill", err)
	}
	return connect.NewResponse(&api.CreateBillResponse{Bill: bill}), nil
}

// GetBill returns a bill the caller participates in.
func (s *BillService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	bill, err := s.ledger.GetBill(ctx, req.Msg.BillID)
	if err != nil {
		return nil, ledgerError("GetBill", err)
	}
	if !bill.IsParticipant(fid) {
		return nil, ledgerError("GetBill", fmt.Errorf("%w: fid %d is not on bill %s", ledger.ErrUnauthorized, fid, bill.ID))
	}
	return connect.NewResponse(&api.GetBillResponse{Bill: bill}), nil
}

// UpdateBill changes bill metadata or cancels the bill.
func (s *BillService) UpdateBill(ctx context.Context, req *connect.Request[api.UpdateBillRequest]) (*connect.Response[api.UpdateBillResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	m := req.Msg
	bill, err := s.ledger.UpdateBillMetadata(ctx, m.BillID, fid, ledger.MetadataUpdate{
		Title:        m.Title,
		Description:  m.Description,
		Status:       m.Status,
		DueDate:      m.DueDate,
		ClearDueDate: m.ClearDueDate,
		Tags:         m.Tags,
	})
	if err != nil {
		return nil, ledgerError("UpdateBill", err)
	}
	return connect.NewResponse(&api.UpdateBillResponse{Bill: bill}), nil
}

// RecordPayment records the caller's payment of their share.
func (s *BillService) RecordPayment(ctx context.Context, req *connect.Request[api.RecordPaymentRequest]) (*connect.Response[api.RecordPaymentResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	bill, err := s.ledger.RecordPayment(ctx, req.Msg.BillID, fid, req.Msg.Amount, req.Msg.PaymentHash)
	if err != nil {
		return nil, ledgerError("RecordPayment", err)
	}
	return connect.NewResponse(&api.RecordPaymentResponse{Bill: bill}), nil
}

// MarkPaymentFailed records that the caller's payment attempt failed.
func (s *BillService) MarkPaymentFailed(ctx context.Context, req *connect.Request[api.MarkPaymentFailedRequest]) (*connect.Response[api.MarkPaymentFailedResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	bill, err := s.ledger.MarkPaymentFailed(ctx, req.Msg.BillID, fid, req.Msg.Reason)
	if err != nil {
		return nil, ledgerError("MarkPaymentFailed", err)
	}
	return connect.NewResponse(&api.MarkPaymentFailedResponse{Bill: bill}), nil
}

// DeleteBill deletes an unpaid bill the caller created.
func (s *BillService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.DeleteBill(ctx, req.Msg.BillID, fid); err != nil {
		return nil, ledgerError("DeleteBill", err)
	}
	return connect.NewResponse(&api.DeleteBillResponse{}), nil
}

// ListBills lists the caller's bills, newest first.
func (s *BillService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	bills, err := s.ledger.ListBillsForUser(ctx, fid)
	if err != nil {
		return nil, ledgerError("ListBills", err)
	}
	return connect.NewResponse(&api.ListBillsResponse{Bills: bills}), nil
}

// GetBalances returns the caller's outstanding balances per counterparty.
func (s *BillService) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	balances, err := s.ledger.BalancesForUser(ctx, fid)
	if err != nil {
		return nil, ledgerError("GetBalances", err)
	}
	return connect.NewResponse(&api.GetBalancesResponse{Balances: balances}), nil
}
