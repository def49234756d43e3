package generator

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Alphabet is the character set of generated tokens.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// RandomToken returns a token of the given length drawn uniformly from Alphabet.
func RandomToken(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(length)

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		sb.WriteByte(Alphabet[n.Int64()])
	}

	return sb.String(), nil
}

// Combinations returns the number of distinct tokens of the given length,
// saturating at limit.
func Combinations(length int, limit uint64) uint64 {
	total := uint64(1)
	for i := 0; i < length; i++ {
		if total > limit/uint64(len(Alphabet)) {
			return limit
		}
		total *= uint64(len(Alphabet))
	}
	if total > limit {
		return limit
	}
	return total
}
