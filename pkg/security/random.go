package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// ShortCodeCharset excludes the glyphs that are easy to misread at a
// register: 0, O, I, L and 1.
const ShortCodeCharset = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ShortCodeLength is the number of characters staff type for a manual redeem.
const ShortCodeLength = 6

// GenerateShortCode returns a random short code drawn from ShortCodeCharset.
func GenerateShortCode() (string, error) {
	return RandomString(ShortCodeCharset, ShortCodeLength)
}

// RandomString draws length characters uniformly from charset using crypto/rand.
func RandomString(charset string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if charset == "" {
		return "", fmt.Errorf("charset cannot be empty")
	}

	max := big.NewInt(int64(len(charset)))
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
