package utils

import (
	"fmt"
	"math/big"
	"strings"
)

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
// The conversion is exact integer arithmetic, so identical inputs always
// produce identical strings.
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0", nil
	}
	if decimals == 0 {
		return amount.String(), nil
	}

	abs := new(big.Int).Abs(amount)
	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, divisor, new(big.Int))

	fracStr := frac.String()
	if len(fracStr) > int(decimals) {
		return "", fmt.Errorf("fraction %s wider than %d decimals", fracStr, decimals)
	}
	fracStr = strings.Repeat("0", int(decimals)-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")

	var sb strings.Builder
	if amount.Sign() < 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(whole.String())
	if fracStr != "" {
		sb.WriteByte('.')
		sb.WriteString(fracStr)
	}
	return sb.String(), nil
}

// FormatEther formats a wei amount with 18 decimals.
func FormatEther(wei *big.Int) string {
	s, _ := FormatBigInt(wei, 18)
	return s
}

// FormatGwei formats a wei amount in gwei.
func FormatGwei(wei *big.Int) string {
	s, _ := FormatBigInt(wei, 9)
	return s
}

// ApplyPercentBuffer returns value * (100 + percent) / 100.
func ApplyPercentBuffer(value *big.Int, percent int) *big.Int {
	out := new(big.Int).Mul(value, big.NewInt(int64(100+percent)))
	return out.Div(out, big.NewInt(100))
}

// ParseBigInt parses a decimal or 0x-prefixed hex integer.
func ParseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty integer")
	}
	var (
		v  *big.Int
		ok bool
	)
	if hex, found := strings.CutPrefix(s, "0x"); found {
		v, ok = new(big.Int).SetString(hex, 16)
	} else {
		v, ok = new(big.Int).SetString(s, 10)
	}
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return v, nil
}
