package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// BillServiceName is the fully-qualified name of the BillService service.
const BillServiceName = "sharethebill.v1.BillService"

// Fully-qualified BillService procedure names.
const (
	BillServiceCreateBillProcedure        = "/sharethebill.v1.BillService/CreateBill"
	BillServiceGetBillProcedure           = "/sharethebill.v1.BillService/GetBill"
	BillServiceUpdateBillProcedure        = "/sharethebill.v1.BillService/UpdateBill"
	BillServiceRecordPaymentProcedure     = "/sharethebill.v1.BillService/RecordPayment"
	BillServiceMarkPaymentFailedProcedure = "/sharethebill.v1.BillService/MarkPaymentFailed"
	BillServiceDeleteBillProcedure        = "/sharethebill.v1.BillService/DeleteBill"
	BillServiceListBillsProcedure         = "/sharethebill.v1.BillService/ListBills"
	BillServiceGetBalancesProcedure       = "/sharethebill.v1.BillService/GetBalances"
)

// BillServiceHandler is implemented by the bill RPC server.
type BillServiceHandler interface {
	CreateBill(context.Context, *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error)
	GetBill(context.Context, *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error)
	UpdateBill(context.Context, *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error)
	RecordPayment(context.Context, *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error)
	MarkPaymentFailed(context.Context, *connect.Request[MarkPaymentFailedRequest]) (*connect.Response[MarkPaymentFailedResponse], error)
	DeleteBill(context.Context, *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error)
	ListBills(context.Context, *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error)
	GetBalances(context.Context, *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error)
}

// NewBillServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		BillServiceCreateBillProcedure:        connect.NewUnaryHandler(BillServiceCreateBillProcedure, svc.CreateBill, opts...),
		BillServiceGetBillProcedure:           connect.NewUnaryHandler(BillServiceGetBillProcedure, svc.GetBill, opts...),
		BillServiceUpdateBillProcedure:        connect.NewUnaryHandler(BillServiceUpdateBillProcedure, svc.UpdateBill, opts...),
		BillServiceRecordPaymentProcedure:     connect.NewUnaryHandler(BillServiceRecordPaymentProcedure, svc.RecordPayment, opts...),
		BillServiceMarkPaymentFailedProcedure: connect.NewUnaryHandler(BillServiceMarkPaymentFailedProcedure, svc.MarkPaymentFailed, opts...),
		BillServiceDeleteBillProcedure:        connect.NewUnaryHandler(BillServiceDeleteBillProcedure, svc.DeleteBill, opts...),
		BillServiceListBillsProcedure:         connect.NewUnaryHandler(BillServiceListBillsProcedure, svc.ListBills, opts...),
		BillServiceGetBalancesProcedure:       connect.NewUnaryHandler(BillServiceGetBalancesProcedure, svc.GetBalances, opts...),
	}
	return "/" + BillServiceName + "/", route(routes)
}

// BillServiceClient is a client for the sharethebill.v1.BillService service.
type BillServiceClient struct {
	createBill        *connect.Client[CreateBillRequest, CreateBillResponse]
	getBill           *connect.Client[GetBillRequest, GetBillResponse]
	updateBill        *connect.Client[UpdateBillRequest, UpdateBillResponse]
	recordPayment     *connect.Client[RecordPaymentRequest, RecordPaymentResponse]
	markPaymentFailed *connect.Client[MarkPaymentFailedRequest, MarkPaymentFailedResponse]
	deleteBill        *connect.Client[DeleteBillRequest, DeleteBillResponse]
	listBills         *connect.Client[ListBillsRequest, ListBillsResponse]
	getBalances       *connect.Client[GetBalancesRequest, GetBalancesResponse]
}

// NewBillServiceClient constructs a client for the BillService. baseURL is
// the server's base URL, e.g. http://localhost:8080.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &BillServiceClient{
		createBill:        connect.NewClient[CreateBillRequest, CreateBillResponse](httpClient, baseURL+BillServiceCreateBillProcedure, opts...),
		getBill:           connect.NewClient[GetBillRequest, GetBillResponse](httpClient, baseURL+BillServiceGetBillProcedure, opts...),
		updateBill:        connect.NewClient[UpdateBillRequest, UpdateBillResponse](httpClient, baseURL+BillServiceUpdateBillProcedure, opts...),
		recordPayment:     connect.NewClient[RecordPaymentRequest, RecordPaymentResponse](httpClient, baseURL+BillServiceRecordPaymentProcedure, opts...),
		markPaymentFailed: connect.NewClient[MarkPaymentFailedRequest, MarkPaymentFailedResponse](httpClient, baseURL+BillServiceMarkPaymentFailedProcedure, opts...),
		deleteBill:        connect.NewClient[DeleteBillRequest, DeleteBillResponse](httpClient, baseURL+BillServiceDeleteBillProcedure, opts...),
		listBills:         connect.NewClient[ListBillsRequest, ListBillsResponse](httpClient, baseURL+BillServiceListBillsProcedure, opts...),
		getBalances:       connect.NewClient[GetBalancesRequest, GetBalancesResponse](httpClient, baseURL+BillServiceGetBalancesProcedure, opts...),
	}
}

func (c *BillServiceClient) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) UpdateBill(ctx context.Context, req *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error) {
	return c.updateBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) RecordPayment(ctx context.Context, req *connect.Request[RecordPaymentRequest]) (*connect.Response[RecordPaymentResponse], error) {
	return c.recordPayment.CallUnary(ctx, req)
}

func (c *BillServiceClient) MarkPaymentFailed(ctx context.Context, req *connect.Request[MarkPaymentFailedRequest]) (*connect.Response[MarkPaymentFailedResponse], error) {
	return c.markPaymentFailed.CallUnary(ctx, req)
}

func (c *BillServiceClient) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

func (c *BillServiceClient) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

func (c *BillServiceClient) GetBalances(ctx context.Context, req *connect.Request[GetBalancesRequest]) (*connect.Response[GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func route(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := routes[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
