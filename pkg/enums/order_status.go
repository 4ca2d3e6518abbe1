package enums

import "fmt"

// OrderStatus tracks the lifecycle of a procurement order.
type OrderStatus string

const (
	OrderStatusAwaitingYayasan OrderStatus = "awaiting_yayasan"
	OrderStatusApprovedYayasan OrderStatus = "approved_yayasan"
	OrderStatusRejectedYayasan OrderStatus = "rejected_yayasan"
	OrderStatusCompleted       OrderStatus = "completed"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusAwaitingYayasan,
	OrderStatusApprovedYayasan,
	OrderStatusRejectedYayasan,
	OrderStatusCompleted,
}

var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAwaitingYayasan: {OrderStatusApprovedYayasan, OrderStatusRejectedYayasan},
	OrderStatusApprovedYayasan: {OrderStatusCompleted},
	OrderStatusRejectedYayasan: {},
	OrderStatusCompleted:       {},
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from this status.
func (o OrderStatus) IsTerminal() bool {
	return len(orderStatusTransitions[o]) == 0 && o.IsValid()
}

// CanTransitionTo reports whether moving to the target status is allowed.
func (o OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[o] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
