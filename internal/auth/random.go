package auth

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

// GenerateResetToken returns a URL-safe token backed by 32 bytes of
// randomness, suitable for embedding in a reset link.
func GenerateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateNumericCode returns a random code of the given number of decimal
// digits, used for the email login codes.
func GenerateNumericCode(length int) (string, error) {
	max := big.NewInt(10)
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		result[i] = byte('0' + n.Int64())
	}
	return string(result), nil
}
