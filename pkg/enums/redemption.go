package enums

import "fmt"

// RedemptionMethod records how staff entered the token at the point of sale.
type RedemptionMethod string

const (
	RedemptionMethodScan   RedemptionMethod = "scan"
	RedemptionMethodManual RedemptionMethod = "manual"
)

var validRedemptionMethods = []RedemptionMethod{
	RedemptionMethodScan,
	RedemptionMethodManual,
}

// String implements fmt.Stringer.
func (m RedemptionMethod) String() string {
	return string(m)
}

// IsValid reports whether the value matches a known RedemptionMethod.
func (m RedemptionMethod) IsValid() bool {
	for _, candidate := range validRedemptionMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseRedemptionMethod converts raw input into a RedemptionMethod.
func ParseRedemptionMethod(value string) (RedemptionMethod, error) {
	for _, candidate := range validRedemptionMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid redemption method %q", value)
}

// RedemptionResult labels the outcome of a redeem attempt. Everything other
// than success is a soft business outcome, not an error.
type RedemptionResult string

const (
	RedemptionResultSuccess         RedemptionResult = "success"
	RedemptionResultAlreadyRedeemed RedemptionResult = "already_redeemed"
	RedemptionResultExpired         RedemptionResult = "expired"
	RedemptionResultOfferInactive   RedemptionResult = "offer_inactive"
	RedemptionResultCapReached      RedemptionResult = "cap_reached"
)

// String implements fmt.Stringer.
func (r RedemptionResult) String() string {
	return string(r)
}
