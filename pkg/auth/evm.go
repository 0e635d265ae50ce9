package auth

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MessagePrefix is the leading token of a signed auth message.
// Callers sign "bridge-auth:<unix seconds>" with personal_sign.
const MessagePrefix = "bridge-auth:"

// VerifyEIP191Signature verifies an EIP-191 personal_sign signature
// Returns the recovered Ethereum address if valid
func VerifyEIP191Signature(message, signature string) (common.Address, error) {
	// Decode signature from hex
	sigBytes, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid signature hex: %w", err)
	}

	if len(sigBytes) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: expected 65, got %d", len(sigBytes))
	}

	// Ethereum signature has recovery id (v) at the end
	// v can be 0, 1, 27, or 28 - normalize to 0 or 1
	if sigBytes[64] >= 27 {
		sigBytes[64] -= 27
	}

	// Create the EIP-191 prefixed message hash
	prefixedMsg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message)
	msgHash := crypto.Keccak256Hash([]byte(prefixedMsg))

	// Recover the public key
	pubKey, err := crypto.SigToPub(msgHash.Bytes(), sigBytes)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	// Derive the address from the public key
	addr := crypto.PubkeyToAddress(*pubKey)
	return addr, nil
}

// CheckMessageFreshness validates the signed message format and rejects
// messages older than maxAge or issued in the future.
func CheckMessageFreshness(message string, maxAge time.Duration, now time.Time) error {
	if !strings.HasPrefix(message, MessagePrefix) {
		return fmt.Errorf("malformed auth message")
	}
	ts, err := strconv.ParseInt(strings.TrimPrefix(message, MessagePrefix), 10, 64)
	if err != nil {
		return fmt.Errorf("malformed auth message timestamp: %w", err)
	}
	issued := time.Unix(ts, 0)
	if issued.After(now.Add(time.Minute)) {
		return fmt.Errorf("auth message issued in the future")
	}
	if now.Sub(issued) > maxAge {
		return fmt.Errorf("auth message expired")
	}
	return nil
}

// ValidateEVMAddress checks if a string is a valid EVM address
func ValidateEVMAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") {
		return false
	}
	if len(address) != 42 {
		return false
	}
	_, err := hex.DecodeString(address[2:])
	return err == nil
}

// NormalizeAddress returns a checksummed EVM address
func NormalizeAddress(address string) string {
	return common.HexToAddress(address).Hex()
}
