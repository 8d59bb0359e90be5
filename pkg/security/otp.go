// Package security holds the delivery code primitives: generation and
// argon2id hashing of the code stored on the order.
package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns length uniformly random decimal digits,
// leading zeros included.
func GenerateNumericCode(length int) (string, error) {
	if length < 1 || length > 18 {
		return "", fmt.Errorf("code length %d out of range 1..18", length)
	}
	bound := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
