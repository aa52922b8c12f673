package models

import (
	"time"

	"github.com/google/uuid"
)

// Order statuses.
const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCancelled  = "cancelled"
)

// Payment methods accepted at checkout. Labels only, no gateway integration.
const (
	PaymentCOD     = "COD"
	PaymentVNPay   = "VNPAY"
	PaymentMomo    = "MOMO"
	PaymentBanking = "Banking"
	PaymentZaloPay = "ZaloPay"
)

// Payment statuses.
const (
	PaymentStatusPending  = "Pending"
	PaymentStatusPaid     = "Paid"
	PaymentStatusFailed   = "Failed"
	PaymentStatusRefunded = "Refunded"
)

// Roles recorded on cancellation.
const (
	CancelRoleUser  = "User"
	CancelRoleAdmin = "Admin"
)

// statusTransitions is the legal forward transition graph. Cancellation is not
// listed: it runs through the dedicated cancel path so stock restitution can
// never be skipped.
var statusTransitions = map[string][]string{
	StatusPending:    {StatusConfirmed, StatusProcessing},
	StatusConfirmed:  {StatusProcessing, StatusShipped},
	StatusProcessing: {StatusShipped, StatusDelivered},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

var statusLabels = map[string]string{
	StatusPending:    "Order placed",
	StatusConfirmed:  "Order confirmed",
	StatusProcessing: "Being prepared",
	StatusShipped:    "Handed to courier",
	StatusDelivered:  "Delivered",
	StatusCancelled:  "Cancelled",
}

// IsValidStatus reports whether s is a known order status.
func IsValidStatus(s string) bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminalStatus reports whether no further transition is permitted from s.
func IsTerminalStatus(s string) bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether the forward transition from -> to is legal.
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusLabel returns the human-readable label for a status.
func StatusLabel(s string) string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return s
}

// IsValidPaymentMethod reports whether m is an accepted payment method.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentCOD, PaymentVNPay, PaymentMomo, PaymentBanking, PaymentZaloPay:
		return true
	}
	return false
}

// Order is the purchase aggregate. Shipping fields and item prices are
// snapshots taken at creation time, independent of later catalog edits.
type Order struct {
	BaseModel
	UserID uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User   *User     `json:"user,omitempty"`

	Items []OrderItem `json:"items,omitempty"`

	ShippingFullName string `json:"shipping_full_name"`
	ShippingAddress  string `json:"shipping_address"`
	ShippingCity     string `json:"shipping_city"`
	ShippingPhone    string `json:"shipping_phone"`

	PaymentMethod string  `json:"payment_method"`
	PaymentStatus string  `json:"payment_status"`
	ItemsPrice    float64 `json:"items_price"`
	ShippingPrice float64 `json:"shipping_price"`
	TotalPrice    float64 `json:"total_price"`

	Status        string             `gorm:"index" json:"status"`
	StatusHistory []OrderStatusEvent `json:"status_history,omitempty"`

	IsPaid      bool       `json:"is_paid"`
	PaidAt      *time.Time `json:"paid_at"`
	IsDelivered bool       `json:"is_delivered"`
	DeliveredAt *time.Time `json:"delivered_at"`

	IsCancelled     bool       `json:"is_cancelled"`
	CancelledAt     *time.Time `json:"cancelled_at"`
	CancelReason    string     `json:"cancel_reason"`
	CancelledBy     *uuid.UUID `gorm:"type:uuid" json:"cancelled_by"`
	CancelledByRole string     `json:"cancelled_by_role"`
}

// OrderItem is a line-item snapshot of one purchased product.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;index" json:"product_id"`
	Name      string    `json:"name"`
	Amount    int       `json:"amount"`
	Image     string    `json:"image"`
	Price     float64   `json:"price"`
	Discount  float64   `json:"discount"`
}

// OrderStatusEvent is one append-only entry of an order's status history.
type OrderStatusEvent struct {
	BaseModel
	OrderID   uuid.UUID `gorm:"type:uuid;index" json:"order_id"`
	Status    string    `json:"status"`
	UpdatedBy uuid.UUID `gorm:"type:uuid" json:"updated_by"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}
