package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateResetCode generates a random numeric code of the given length.
func GenerateResetCode(length int) (string, error) {
	max := big.NewInt(10)
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random digit: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
