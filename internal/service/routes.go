package service

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/sharethebill/pkg/api"
)

// Register mounts both Connect services on mux.
func Register(mux *http.ServeMux, bills *BillService, wallets *WalletService, opts ...connect.HandlerOption) {
	billPath, billHandler := api.NewBillServiceHandler(bills, opts...)
	mux.Handle(billPath, billHandler)

	walletPath, walletHandler := api.NewWalletServiceHandler(wallets, opts...)
	mux.Handle(walletPath, walletHandler)
}
