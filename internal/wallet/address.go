package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

var ErrInvalidAddress = errors.New("invalid wallet address")

// ValidateAddress checks that addr is a 20-byte hex address and returns it in
// EIP-55 checksum form. Mixed-case input must already carry a valid
// checksum; all-lowercase and all-uppercase input is accepted as is.
func ValidateAddress(addr string) (string, error) {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return "", fmt.Errorf("%w: %q must be 0x followed by 40 hex characters", ErrInvalidAddress, addr)
	}
	body := addr[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("%w: %q is not hex", ErrInvalidAddress, addr)
	}

	sum := Checksum(body)
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && sum != addr {
		return "", fmt.Errorf("%w: %q has a bad checksum", ErrInvalidAddress, addr)
	}
	return sum, nil
}

// Checksum returns the EIP-55 mixed-case form of a 40 character hex address
// body, prefixed with 0x.
func Checksum(body string) string {
	lower := strings.ToLower(strings.TrimPrefix(body, "0x"))

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - 'a' + 'A'
		}
	}
	return "0x" + string(out)
}
