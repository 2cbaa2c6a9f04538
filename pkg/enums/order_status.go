package enums

import "fmt"

// OrderStatus describes the lifecycle label attached to a committed order.
// Checkout always assigns OrderStatusCompleted; the field stays a plain
// mutable label with no transition rules.
type OrderStatus string

const (
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCanceled  OrderStatus = "canceled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCompleted,
	OrderStatusPending,
	OrderStatusCanceled,
}

// IsValid reports whether the value matches the canonical order status enum.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts the raw string to OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
