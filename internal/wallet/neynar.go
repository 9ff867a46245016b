package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultNeynarURL = "https://api.neynar.com/v2/farcaster/user/bulk"

// NeynarResolver resolves a user's verified Ethereum address through the
// Neynar Farcaster API.
type NeynarResolver struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewNeynarResolver creates a NeynarResolver. An empty baseURL uses the
// public API.
func NewNeynarResolver(apiKey, baseURL string) *NeynarResolver {
	if baseURL == "" {
		baseURL = defaultNeynarURL
	}
	return &NeynarResolver{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type neynarUsers struct {
	Users []struct {
		FID                int64 `json:"fid"`
		VerifiedAddresses struct {
			EthAddresses []string `json:"eth_addresses"`
			Primary      struct {
				EthAddress string `json:"eth_address"`
			} `json:"primary"`
		} `json:"verified_addresses"`
	} `json:"users"`
}

// ResolveWalletAddress implements Resolver. It prefers the user's primary
// verified address and falls back to the first verified one.
func (r *NeynarResolver) ResolveWalletAddress(ctx context.Context, fid int64) (string, error) {
	u := r.baseURL + "?" + url.Values{"fids": {strconv.FormatInt(fid, 10)}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build neynar request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-api-key", r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("neynar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoAddress
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("neynar returned status %d", resp.StatusCode)
	}

	var body neynarUsers
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode neynar response: %w", err)
	}
	for _, user := range body.Users {
		if user.FID != fid {
			continue
		}
		candidates := append([]string{user.VerifiedAddresses.Primary.EthAddress}, user.VerifiedAddresses.EthAddresses...)
		for _, c := range candidates {
			if c == "" {
				continue
			}
			if addr, err := ValidateAddress(c); err == nil {
				return addr, nil
			}
		}
	}
	return "", ErrNoAddress
}
