package serialization

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeChecksum computes the SHA-256 checksum of the data section.
func ComputeChecksum(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// ChecksumHex renders a checksum the way headers store it.
func ChecksumHex(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}

// ParseChecksum decodes a header checksum string.
func ParseChecksum(s string) ([32]byte, error) {
	var sum [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil {
		return sum, fmt.Errorf("invalid checksum encoding: %w", err)
	}
	if len(raw) != len(sum) {
		return sum, fmt.Errorf("invalid checksum length %d, want %d", len(raw), len(sum))
	}
	copy(sum[:], raw)
	return sum, nil
}

// ValidateChecksum compares a computed checksum against the stored one.
func ValidateChecksum(computed, stored [32]byte) error {
	if computed != stored {
		return ErrChecksumMismatch
	}
	return nil
}
