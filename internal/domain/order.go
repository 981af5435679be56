package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ErrInvalidTransition is returned when an order status change is not allowed
// by the transition table.
var ErrInvalidTransition = errors.New("invalid order status transition")

// statusTransitions is the explicit transition table: pending may move to
// either terminal state, terminal states accept only themselves (idempotent
// repeats succeed without effect).
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusCompleted, OrderStatusCancelled},
	OrderStatusCompleted: {},
	OrderStatusCancelled: {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionTo reports whether a status change from s to next is allowed.
// A same-state transition is always allowed so that repeated confirmations
// stay idempotent.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a denormalized line snapshot captured at purchase time,
// independent of later product edits or deletion.
type OrderItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	ImageURL    string    `json:"image_url,omitempty"`
	UnitPrice   float64   `json:"unit_price"`
	Size        string    `json:"size"`
	Quantity    int       `json:"quantity"`
	Subtotal    float64   `json:"subtotal"`
}

// ShippingAddress is the destination captured on an order
type ShippingAddress struct {
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// Order represents a placed order. The whole struct is stored as a JSON
// document; the total is computed once at creation time and never recomputed.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	Items           []OrderItem     `json:"items"`
	Total           float64         `json:"total"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItemsFromCart converts cart lines into denormalized order items.
func OrderItemsFromCart(lines []CartLine) []OrderItem {
	items := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, OrderItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			ImageURL:    l.Product.ImageURL,
			UnitPrice:   l.Product.UnitPrice(),
			Size:        l.Size,
			Quantity:    l.Quantity,
			Subtotal:    l.Subtotal(),
		})
	}
	return items
}
