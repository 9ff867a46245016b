package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// WalletServiceName is the fully-qualified name of the WalletService service.
const WalletServiceName = "sharethebill.v1.WalletService"

// Fully-qualified WalletService procedure names.
const (
	WalletServiceRegisterWalletProcedure              = "/sharethebill.v1.WalletService/RegisterWallet"
	WalletServiceGetWalletProcedure                   = "/sharethebill.v1.WalletService/GetWallet"
	WalletServiceRegisterNotificationDetailsProcedure = "/sharethebill.v1.WalletService/RegisterNotificationDetails"
)

// WalletServiceHandler is implemented by the wallet RPC server.
type WalletServiceHandler interface {
	RegisterWallet(context.Context, *connect.Request[RegisterWalletRequest]) (*connect.Response[RegisterWalletResponse], error)
	GetWallet(context.Context, *connect.Request[GetWalletRequest]) (*connect.Response[GetWalletResponse], error)
	RegisterNotificationDetails(context.Context, *connect.Request[RegisterNotificationDetailsRequest]) (*connect.Response[RegisterNotificationDetailsResponse], error)
}

// NewWalletServiceHandler builds an HTTP handler from the service
// implementation.
func NewWalletServiceHandler(svc WalletServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		WalletServiceRegisterWalletProcedure:              connect.NewUnaryHandler(WalletServiceRegisterWalletProcedure, svc.RegisterWallet, opts...),
		WalletServiceGetWalletProcedure:                   connect.NewUnaryHandler(WalletServiceGetWalletProcedure, svc.GetWallet, opts...),
		WalletServiceRegisterNotificationDetailsProcedure: connect.NewUnaryHandler(WalletServiceRegisterNotificationDetailsProcedure, svc.RegisterNotificationDetails, opts...),
	}
	return "/" + WalletServiceName + "/", route(routes)
}

// WalletServiceClient is a client for the sharethebill.v1.WalletService service.
type WalletServiceClient struct {
	registerWallet              *connect.Client[RegisterWalletRequest, RegisterWalletResponse]
	getWallet                   *connect.Client[GetWalletRequest, GetWalletResponse]
	registerNotificationDetails *connect.Client[RegisterNotificationDetailsRequest, RegisterNotificationDetailsResponse]
}

// NewWalletServiceClient constructs a client for the WalletService.
func NewWalletServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *WalletServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &WalletServiceClient{
		registerWallet:              connect.NewClient[RegisterWalletRequest, RegisterWalletResponse](httpClient, baseURL+WalletServiceRegisterWalletProcedure, opts...),
		getWallet:                   connect.NewClient[GetWalletRequest, GetWalletResponse](httpClient, baseURL+WalletServiceGetWalletProcedure, opts...),
		registerNotificationDetails: connect.NewClient[RegisterNotificationDetailsRequest, RegisterNotificationDetailsResponse](httpClient, baseURL+WalletServiceRegisterNotificationDetailsProcedure, opts...),
	}
}

func (c *WalletServiceClient) RegisterWallet(ctx context.Context, req *connect.Request[RegisterWalletRequest]) (*connect.Response[RegisterWalletResponse], error) {
	return c.registerWallet.CallUnary(ctx, req)
}

func (c *WalletServiceClient) GetWallet(ctx context.Context, req *connect.Request[GetWalletRequest]) (*connect.Response[GetWalletResponse], error) {
	return c.getWallet.CallUnary(ctx, req)
}

func (c *WalletServiceClient) RegisterNotificationDetails(ctx context.Context, req *connect.Request[RegisterNotificationDetailsRequest]) (*connect.Response[RegisterNotificationDetailsResponse], error) {
	return c.registerNotificationDetails.CallUnary(ctx, req)
}
