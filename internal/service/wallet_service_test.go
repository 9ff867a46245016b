package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/sharethebill/pkg/api"
)

func TestRegisterAndGetWallet(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, err := env.wallets.GetWallet(ctx, as(t, env, alice, &api.GetWalletRequest{}))
	expectCode(t, err, connect.CodeNotFound, "")

	resp, err := env.wallets.RegisterWallet(ctx, as(t, env, alice, &api.RegisterWalletRequest{
		Address: "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
	}))
	if err != nil {
		t.Fatalf("RegisterWallet failed: %v", err)
	}
	if resp.Msg.Wallet.Address != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("expected checksummed address, got %s", resp.Msg.Wallet.Address)
	}

	// Anyone can look up where alice gets paid
	got, err := env.wallets.GetWallet(ctx, as(t, env, bob, &api.GetWalletRequest{FID: alice}))
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if got.Msg.FID != alice || got.Msg.Address != resp.Msg.Wallet.Address {
		t.Errorf("unexpected wallet %+v", got.Msg)
	}
}

func TestRegisterWallet_Invalid(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.wallets.RegisterWallet(context.Background(), as(t, env, alice, &api.RegisterWalletRequest{Address: "vitalik.eth"}))
	expectCode(t, err, connect.CodeInvalidArgument, "")
}

func TestRegisterNotificationDetails(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	_, err := env.wallets.RegisterNotificationDetails(ctx, as(t, env, alice, &api.RegisterNotificationDetailsRequest{
		URL: "https://api.farcaster.xyz/v1/frame-notifications", Token: "abc",
	}))
	if err != nil {
		t.Fatalf("RegisterNotificationDetails failed: %v", err)
	}

	_, err = env.wallets.RegisterNotificationDetails(ctx, as(t, env, alice, &api.RegisterNotificationDetailsRequest{
		URL: "ftp://example.com", Token: "abc",
	}))
	expectCode(t, err, connect.CodeInvalidArgument, "")
}
