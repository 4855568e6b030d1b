package utils

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// NativeDecimals is the number of decimals of the native currency (wei per ether).
const NativeDecimals = 18

var amountPattern = regexp.MustCompile(`^\d*\.?\d+$`)

// ValidateAmount checks if an amount string is a plain, non-negative decimal
func ValidateAmount(amount string) (*decimal.Decimal, error) {
	if amount == "" {
		return nil, fmt.Errorf("amount cannot be empty")
	}

	if !amountPattern.MatchString(amount) {
		return nil, fmt.Errorf("invalid amount format: %q", amount)
	}

	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}

	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}

	return &dec, nil
}

// ValidateTransactionHash checks an EVM transaction hash (0x + 64 hex).
func ValidateTransactionHash(hash string) error {
	if hash == "" {
		return fmt.Errorf("transaction hash cannot be empty")
	}
	if !strings.HasPrefix(hash, "0x") {
		return fmt.Errorf("transaction hash must start with 0x")
	}
	if len(hash) != 66 {
		return fmt.Errorf("transaction hash must be 66 characters long")
	}
	if !isHexString(hash[2:]) {
		return fmt.Errorf("transaction hash must be valid hex")
	}
	return nil
}

// Helper function to check if a string is valid hexadecimal
func isHexString(s string) bool {
	match, _ := regexp.MatchString("^[0-9a-fA-F]+$", s)
	return match
}

// ParseAmountWithDecimals parses a decimal amount string and converts it to an
// integer amount of minimal units. Amounts with more fractional digits than
// decimals are rejected rather than truncated.
func ParseAmountWithDecimals(amount string, decimals int) (*big.Int, error) {
	dec, err := ValidateAmount(amount)
	if err != nil {
		return nil, err
	}

	// Multiply by 10^decimals to get the raw integer amount
	result := dec.Shift(int32(decimals))
	if !result.Equal(result.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}

	return result.BigInt(), nil
}

// ParseEther converts a decimal ether amount into wei.
func ParseEther(amount string) (*big.Int, error) {
	return ParseAmountWithDecimals(amount, NativeDecimals)
}

// FormatAmountFromBigInt formats a big.Int amount to decimal string with specified decimals
func FormatAmountFromBigInt(amount *big.Int, decimals int) string {
	dec := decimal.NewFromBigInt(amount, -int32(decimals))
	return dec.String()
}

// FormatEther renders a wei amount as a decimal ether string.
func FormatEther(wei *big.Int) string {
	return FormatAmountFromBigInt(wei, NativeDecimals)
}
