package enums

import "fmt"

// MerchantStatus tracks the soft-delete lifecycle of a merchant.
type MerchantStatus string

const (
	MerchantStatusActive  MerchantStatus = "active"
	MerchantStatusDeleted MerchantStatus = "deleted"
)

var validMerchantStatuses = []MerchantStatus{
	MerchantStatusActive,
	MerchantStatusDeleted,
}

// String implements fmt.Stringer.
func (s MerchantStatus) String() string {
	return string(s)
}

// IsValid reports whether the value matches a known MerchantStatus.
func (s MerchantStatus) IsValid() bool {
	for _, candidate := range validMerchantStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMerchantStatus converts raw input into a MerchantStatus.
func ParseMerchantStatus(value string) (MerchantStatus, error) {
	for _, candidate := range validMerchantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid merchant status %q", value)
}
