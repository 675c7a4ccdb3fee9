package names

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0x1234567890abcdef1234567890abcdef12345678", true},
		{"0X1234567890ABCDEF1234567890ABCDEF12345678", true},
		// EIP-55 reference vectors
		{"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", true},
		{"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359", true},
		{"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB", true},
		{"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb", true},
		// bad checksum
		{"0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", false},
		{"0xNOTVALID", false},
		{"0x4567890abcdef1234567890abcdef1234567890", false},
		{"1234567890abcdef1234567890abcdef1234567890", false},
		{"0x1234567890abcdef1234567890abcdef1234567g", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAddress(tt.in))
		})
	}
}

func TestChecksumAddress(t *testing.T) {
	want := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	assert.Equal(t, want, ChecksumAddress(strings.ToLower(want)))
}

func TestShortenAddress(t *testing.T) {
	assert.Equal(t, "0x1234…5678", ShortenAddress("0x1234567890abcdef1234567890abcdef12345678"))
	assert.Equal(t, "0xNOTV…ALID", ShortenAddress("0xNOTVALID"))
	// under ten runes the halves would overlap, so the input is kept
	assert.Equal(t, "0xabc", ShortenAddress("0xabc"))
	assert.Equal(t, "0x1234567", ShortenAddress("0x1234567"))
	assert.Equal(t, "0x1234…5678", ShortenAddress("0x12345678"), "ten runes is the shortest shortened form")
}
