package utils

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ParsePublicKey decodes a hex secp256k1 public key. It accepts the 65-byte
// uncompressed form (0x04...), the 64-byte form without prefix, and the
// 33-byte compressed form, with or without a 0x prefix.
func ParsePublicKey(pubKeyHex string) (*ecdsa.PublicKey, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(pubKeyHex), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode public key: %w", err)
	}

	switch len(raw) {
	case 65:
		return crypto.UnmarshalPubkey(raw)
	case 64:
		return crypto.UnmarshalPubkey(append([]byte{0x04}, raw...))
	case 33:
		return crypto.DecompressPubkey(raw)
	default:
		return nil, fmt.Errorf("public key must be 33, 64 or 65 bytes, got %d", len(raw))
	}
}

// PublicKeyToAddress derives the Ethereum address controlled by a public key.
func PublicKeyToAddress(pubKeyHex string) (common.Address, error) {
	pub, err := ParsePublicKey(pubKeyHex)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SamePublicKey reports whether two keys are the same point.
func SamePublicKey(a, b *ecdsa.PublicKey) bool {
	if a == nil || b == nil {
		return false
	}
	return bytes.Equal(crypto.FromECDSAPub(a), crypto.FromECDSAPub(b))
}

// NormalizeSignature returns a copy of a 65-byte [R || S || V] signature
// with V moved from 27/28 to 0/1.
func NormalizeSignature(sig []byte) ([]byte, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	out := make([]byte, len(sig))
	copy(out, sig)
	// Adjust recovery ID for Ethereum
	if out[64] >= 27 {
		out[64] -= 27
	}
	return out, nil
}

// RecoverPublicKey recovers the signer of a 32-byte digest.
func RecoverPublicKey(digest []byte, sig []byte) (*ecdsa.PublicKey, error) {
	normalized, err := NormalizeSignature(sig)
	if err != nil {
		return nil, err
	}

	pubKey, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to recover public key: %w", err)
	}
	return pubKey, nil
}

// ValidateAddress checks if a string is a valid Ethereum address
func ValidateAddress(address string) bool {
	return common.IsHexAddress(address)
}

// NormalizeAddress ensures an address is properly checksummed
func NormalizeAddress(address string) string {
	if !common.IsHexAddress(address) {
		return ""
	}
	return common.HexToAddress(address).Hex()
}
