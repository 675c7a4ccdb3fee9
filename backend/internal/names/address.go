package names

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// IsValidAddress reports whether s is a well-formed chain address: "0x"
// followed by 40 hex digits. All-lowercase and all-uppercase forms are
// accepted as is; mixed case must carry a valid EIP-55 checksum.
func IsValidAddress(s string) bool {
	if len(s) != 42 || (s[:2] != "0x" && s[:2] != "0X") {
		return false
	}
	digits := s[2:]
	if _, err := hex.DecodeString(digits); err != nil {
		return false
	}
	lower := strings.ToLower(digits)
	if digits == lower || digits == strings.ToUpper(digits) {
		return true
	}
	return ChecksumAddress(s)[2:] == digits
}

// ChecksumAddress returns the EIP-55 mixed-case form of a hex address.
// The input must already be syntactically valid.
func ChecksumAddress(s string) string {
	return common.HexToAddress(s).Hex()
}

// ShortenAddress renders the first six and last four characters joined by an
// ellipsis. Strings under ten runes are returned unchanged rather than
// overlapping the two halves.
func ShortenAddress(s string) string {
	r := []rune(s)
	if len(r) < 10 {
		return s
	}
	return string(r[:6]) + "…" + string(r[len(r)-4:])
}
