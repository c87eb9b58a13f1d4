package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DeliveryMethod selects how an order reaches the customer.
type DeliveryMethod string

const (
	DeliveryPickup  DeliveryMethod = "pickup"
	DeliveryCourier DeliveryMethod = "delivery"
)

// Valid reports whether the label is a known delivery method.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryPickup || m == DeliveryCourier
}

// PaymentMethod is a customer-chosen label; there is no settlement
// integration behind it.
type PaymentMethod string

const (
	PaymentCard        PaymentMethod = "card"
	PaymentCash        PaymentMethod = "cash"
	PaymentUponReceipt PaymentMethod = "upon_receipt"
)

// Valid reports whether the label is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCard || m == PaymentCash || m == PaymentUponReceipt
}

// OrderStatus tracks back-office fulfilment progress.
type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// Valid reports whether the label is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Order is a customer purchase record. TotalAmount is always computed
// server-side from the snapshotted line prices. Phone doubles as the
// access token for the public tracking lookup.
type Order struct {
	BaseModel
	OrderNumber       string          `gorm:"uniqueIndex;not null" json:"order_number"`
	TrackingNumber    string          `gorm:"uniqueIndex;not null" json:"tracking_number"`
	UserID            *uuid.UUID      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User              *User           `json:"user,omitempty"`
	CustomerName      string          `gorm:"not null" json:"customer_name"`
	Phone             string          `gorm:"not null;index" json:"phone"`
	Email             string          `json:"email,omitempty"`
	DeliveryMethod    DeliveryMethod  `gorm:"type:varchar(16);default:'pickup'" json:"delivery_method"`
	DeliveryCity      string          `json:"delivery_city,omitempty"`
	DeliveryStreet    string          `json:"delivery_street,omitempty"`
	DeliveryHouse     string          `json:"delivery_house,omitempty"`
	DeliveryApartment string          `json:"delivery_apartment,omitempty"`
	DeliveryComment   string          `json:"delivery_comment,omitempty"`
	PaymentMethod     PaymentMethod   `gorm:"type:varchar(16);default:'card'" json:"payment_method"`
	TotalAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status            OrderStatus     `gorm:"type:varchar(16);default:'new';index" json:"status"`
	Notes             string          `json:"notes,omitempty"`
	Items             []OrderItem     `gorm:"constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// OrderItem is one product line within an order. PriceEach is frozen from
// the product's price at order time and never recomputed.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	PriceEach decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price_each"`
}

// LineTotal is PriceEach multiplied by Quantity.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.PriceEach.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
