package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashPattern  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)
)

// IsValidAddress reports whether s is 0x followed by exactly 40 hex characters.
func IsValidAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// IsValidTxHash reports whether s is 0x followed by exactly 64 hex characters.
func IsValidTxHash(s string) bool {
	return txHashPattern.MatchString(s)
}

// ParseChainID accepts "146", "0x92" or a JSON number string.
func ParseChainID(s string) (uint64, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
