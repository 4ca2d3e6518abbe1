package enums

import "fmt"

// FulfillmentStatus tracks a vendor's progress on its slice of an order.
type FulfillmentStatus string

const (
	FulfillmentStatusPending   FulfillmentStatus = "pending"
	FulfillmentStatusPreparing FulfillmentStatus = "preparing"
	FulfillmentStatusShipped   FulfillmentStatus = "shipped"
)

var validFulfillmentStatuses = []FulfillmentStatus{
	FulfillmentStatusPending,
	FulfillmentStatusPreparing,
	FulfillmentStatusShipped,
}

var fulfillmentStatusRank = map[FulfillmentStatus]int{
	FulfillmentStatusPending:   0,
	FulfillmentStatusPreparing: 1,
	FulfillmentStatusShipped:   2,
}

// String implements fmt.Stringer.
func (f FulfillmentStatus) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentStatus.
func (f FulfillmentStatus) IsValid() bool {
	for _, candidate := range validFulfillmentStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving to the target status is allowed.
// Progress is strictly forward; a vendor cannot walk a fulfillment back.
func (f FulfillmentStatus) CanTransitionTo(target FulfillmentStatus) bool {
	if !f.IsValid() || !target.IsValid() {
		return false
	}
	return fulfillmentStatusRank[target] > fulfillmentStatusRank[f]
}

// ParseFulfillmentStatus converts raw input into a FulfillmentStatus.
func ParseFulfillmentStatus(value string) (FulfillmentStatus, error) {
	for _, candidate := range validFulfillmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment status %q", value)
}
