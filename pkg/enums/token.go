package enums

import "fmt"

// TokenStatus is the lifecycle state of a redemption token.
type TokenStatus string

const (
	TokenStatusActive   TokenStatus = "active"
	TokenStatusRedeemed TokenStatus = "redeemed"
	TokenStatusExpired  TokenStatus = "expired"
)

var validTokenStatuses = []TokenStatus{
	TokenStatusActive,
	TokenStatusRedeemed,
	TokenStatusExpired,
}

// String implements fmt.Stringer.
func (s TokenStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known TokenStatus.
func (s TokenStatus) IsValid() bool {
	for _, candidate := range validTokenStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseTokenStatus converts raw input into a TokenStatus.
func ParseTokenStatus(value string) (TokenStatus, error) {
	for _, candidate := range validTokenStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid token status %q", value)
}
