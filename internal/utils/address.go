package utils

import (
	"regexp"
)

// Starknet field elements are shorter than 32 bytes, so addresses render
// with anywhere from 50 to 64 hex digits depending on leading zeros.
var starknetAddressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{50,64}$`)

// IsValidStarknetAddress reports whether addr looks like a Starknet account
// address. Format check only; no on-chain existence check.
func IsValidStarknetAddress(addr string) bool {
	return starknetAddressRegex.MatchString(addr)
}
