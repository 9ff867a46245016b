package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/sharethebill/internal/models"
	"github.com/mmynk/sharethebill/internal/notify"
	"github.com/mmynk/sharethebill/internal/wallet"
	"github.com/mmynk/sharethebill/pkg/api"
)

// WalletRegistry stores the addresses users register themselves.
type WalletRegistry interface {
	Register(ctx context.Context, fid int64, address string) (*models.WalletRegistration, error)
}

// NotificationRegistry stores the mini-app notification details of users.
type NotificationRegistry interface {
	SaveDetails(ctx context.Context, fid int64, details models.NotificationDetails) error
}

// WalletService implements the Connect WalletService.
type WalletService struct {
	registry      WalletRegistry
	resolver      wallet.Resolver
	notifications NotificationRegistry
}

var _ api.WalletServiceHandler = (*WalletService)(nil)

// NewWalletService creates a new WalletService. resolver is used for lookups
// and may consult more sources than registry.
func NewWalletService(registry WalletRegistry, resolver wallet.Resolver, notifications NotificationRegistry) *WalletService {
	return &WalletService{
		registry:      registry,
		resolver:      resolver,
		notifications: notifications,
	}
}

// RegisterWallet sets the caller's payment address.
func (s *WalletService) RegisterWallet(ctx context.Context, req *connect.Request[api.RegisterWalletRequest]) (*connect.Response[api.RegisterWalletResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}

	reg, err := s.registry.Register(ctx, fid, req.Msg.Address)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidAddress) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		slog.Error("RegisterWallet failed", "fid", fid, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, errOperationFailed)
	}
	return connect.NewResponse(&api.RegisterWalletResponse{Wallet: reg}), nil
}

// GetWallet resolves where a user receives payments.
func (s *WalletService) GetWallet(ctx context.Context, req *connect.Request[api.GetWalletRequest]) (*connect.Response[api.GetWalletResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.FID != 0 {
		fid = req.Msg.FID
	}

	addr, err := s.resolver.ResolveWalletAddress(ctx, fid)
	if errors.Is(err, wallet.ErrNoAddress) || (err == nil && addr == "") {
		return nil, connect.NewError(connect.CodeNotFound, wallet.ErrNoAddress)
	}
	if err != nil {
		slog.Error("GetWallet failed", "fid", fid, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, errOperationFailed)
	}
	return connect.NewResponse(&api.GetWalletResponse{FID: fid, Address: addr}), nil
}

// RegisterNotificationDetails stores the caller's notification url and token.
func (s *WalletService) RegisterNotificationDetails(ctx context.Context, req *connect.Request[api.RegisterNotificationDetailsRequest]) (*connect.Response[api.RegisterNotificationDetailsResponse], error) {
	fid, err := callerFID(ctx)
	if err != nil {
		return nil, err
	}
	if s.notifications == nil {
		return nil, connect.NewError(connect.CodeUnimplemented, errors.New("notifications are not enabled"))
	}

	details := models.NotificationDetails{URL: req.Msg.URL, Token: req.Msg.Token}
	if err := s.notifications.SaveDetails(ctx, fid, details); err != nil {
		if errors.Is(err, notify.ErrInvalidDetails) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		slog.Error("RegisterNotificationDetails failed", "fid", fid, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, errOperationFailed)
	}
	slog.Info("Notification details registered", "fid", fid)
	return connect.NewResponse(&api.RegisterNotificationDetailsResponse{}), nil
}
