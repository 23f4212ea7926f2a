package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	binLength         = 6
	productCodeLength = 2
	tailLength        = 4
	// minMaskedLength keeps at least two characters hidden by Mask.
	minMaskedLength = binLength + tailLength + 2
)

// Hasher produces the keyed deduplication digest of a PAN.
type Hasher interface {
	Hash(pan string) (string, error)
}

// Derivation holds the values derived from a PAN that are safe to persist in clear.
type Derivation struct {
	Bin         string
	ProductCode string
	MaskedTail  string
	Hash        string
}

// Derive computes the BIN, product code, masked tail and dedup hash of pan. It performs no
// I/O and returns the same result for the same input and hasher key.
func Derive(pan string, hasher Hasher) (Derivation, error) {
	normalized := NormalizePAN(pan)
	hash, err := hasher.Hash(normalized)
	if err != nil {
		return Derivation{}, fmt.Errorf("failed to hash card pan: %w", err)
	}
	return Derivation{
		Bin:         Bin(normalized),
		ProductCode: ProductCode(normalized),
		MaskedTail:  MaskedTail(normalized),
		Hash:        hash,
	}, nil
}

// NormalizePAN removes the space and dash separators commonly used when printing a PAN.
func NormalizePAN(pan string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(pan))
}

// Bin returns the leading six characters of pan, or the whole value when shorter.
func Bin(pan string) string {
	if len(pan) < binLength {
		return pan
	}
	return pan[:binLength]
}

// ProductCode returns the two characters following the BIN.
func ProductCode(pan string) string {
	if len(pan) < binLength+productCodeLength {
		return ""
	}
	return pan[binLength : binLength+productCodeLength]
}

// MaskedTail returns the last four characters of pan.
func MaskedTail(pan string) string {
	if len(pan) < tailLength {
		return pan
	}
	return pan[len(pan)-tailLength:]
}

// Mask renders pan as BIN, asterisks and tail. Inputs shorter than a PAN are masked entirely.
func Mask(pan string) string {
	normalized := NormalizePAN(pan)
	if len(normalized) < minMaskedLength {
		return strings.Repeat("*", len(normalized))
	}
	hidden := len(normalized) - binLength - tailLength
	return Bin(normalized) + strings.Repeat("*", hidden) + MaskedTail(normalized)
}

// ParseBIN converts a BIN to the integer the write procedure expects. It fails unless bin is
// exactly six decimal digits.
func ParseBIN(bin string) (int64, error) {
	if len(bin) != binLength {
		return 0, ErrInvalidBIN
	}
	for _, r := range bin {
		if r < '0' || r > '9' {
			return 0, ErrInvalidBIN
		}
	}
	value, err := strconv.ParseInt(bin, 10, 64)
	if err != nil {
		return 0, ErrInvalidBIN
	}
	return value, nil
}
