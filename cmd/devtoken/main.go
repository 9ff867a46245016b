// Command devtoken mints a session token for local testing.
//
//	JWT_SECRET=... go run ./cmd/devtoken -fid 3
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/mmynk/sharethebill/internal/auth"
)

func main() {
	fid := flag.Int64("fid", 0, "Farcaster id to issue the token for")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}
	if *fid <= 0 {
		slog.Error("fid must be positive", "fid", *fid)
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(secret, *ttl).Generate(*fid)
	if err != nil {
		slog.Error("Failed to generate token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
