package models

import (
	"fmt"
	"time"
)

type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending    OrderStatus = "pending"    // placed, stock reserved
	OrderStatusProcessing OrderStatus = "processing" // accepted, being prepared
	OrderStatusShipped    OrderStatus = "shipped"    // handed to the courier
	OrderStatusDelivered  OrderStatus = "delivered"  // terminal
	OrderStatusCanceled   OrderStatus = "canceled"   // terminal, stock released

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

const (
	PaymentMethodCOD  = "cod"
	PaymentMethodCard = "card"
)

// Cancellation provenance. Once set it is never overwritten.
const (
	CancelledByUser  = "user"
	CancelledByAdmin = "admin"
)

// orderTransitions is the full lifecycle. Delivered and canceled have
// no outgoing edges; canceled is reachable before shipping only.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCanceled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCanceled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCanceled:   {},
}

// ParseOrderStatus maps a request string onto the closed status set.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	_, ok := orderTransitions[status]
	return status, ok
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status has no outgoing edges.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

// InvalidTransitionError is returned when a requested status change is
// not an edge of the lifecycle. It is never coerced to a nearby state.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition: %s -> %s", e.From, e.To)
}

type Order struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	OrderRef        string        `gorm:"uniqueIndex;not null" json:"order_ref"`
	UserID          string        `gorm:"index;not null" json:"user_id"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	ShippingAddress Address       `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	ShippingCost    int64         `json:"shipping_cost"` // minor units
	TotalAmount     int64         `json:"total_amount"`  // minor units
	Status          OrderStatus   `gorm:"type:VARCHAR(20);default:'pending'" json:"status"`
	PaymentStatus   PaymentStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"payment_status"`
	PaymentMethod   string        `gorm:"type:VARCHAR(20)" json:"payment_method"` // "cod" or "card"
	CancelledBy     string        `gorm:"type:VARCHAR(20)" json:"cancelled_by,omitempty"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// OrderItem is an immutable snapshot taken from the cart at placement.
// It is never re-derived from the live product.
type OrderItem struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	OrderID      uint    `gorm:"index" json:"order_id"`
	ProductID    uint    `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductImage string  `json:"product_image"`
	Price        int64   `json:"price"`         // minor units
	RegularPrice int64   `json:"regular_price"` // minor units
	Weight       float64 `json:"weight"`
	Quantity     int     `json:"quantity"`
}
