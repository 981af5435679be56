package domain

import (
	"math"

	"github.com/google/uuid"
)

// ProductSnapshot is the slice of product data a cart line carries. It is
// captured when the item is added so that later product edits or deletion do
// not rewrite history.
type ProductSnapshot struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discount_price,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
}

// UnitPrice returns the discount price when one was captured, otherwise the
// regular price.
func (s ProductSnapshot) UnitPrice() float64 {
	if s.DiscountPrice != nil {
		return *s.DiscountPrice
	}
	return s.Price
}

// CartLine is a single (product, size, quantity) entry. Identity for merge
// purposes is the (product id, size) pair.
type CartLine struct {
	Product  ProductSnapshot `json:"product"`
	Size     string          `json:"size"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns unit price times quantity, rounded to cents.
func (l CartLine) Subtotal() float64 {
	return RoundCents(l.Product.UnitPrice() * float64(l.Quantity))
}

// Cart is an explicit cart state container. It holds its own ordered lines and
// is passed to callers instead of living in ambient global state. Mutations
// are synchronous and not safe for concurrent use.
type Cart struct {
	lines []CartLine
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{}
}

// NewCartFromLines builds a cart around an existing line slice, such as the
// snapshot stored on a user document.
func NewCartFromLines(lines []CartLine) *Cart {
	c := &Cart{lines: make([]CartLine, len(lines))}
	copy(c.lines, lines)
	return c
}

// AddItem merges the product into the cart: an existing line with the same
// product id and size gets its quantity incremented by one, otherwise a new
// line with quantity one is appended.
func (c *Cart) AddItem(product ProductSnapshot, size string) {
	for i := range c.lines {
		if c.lines[i].Product.ID == product.ID && c.lines[i].Size == size {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, CartLine{Product: product, Size: size, Quantity: 1})
}

// RemoveItem deletes the matching line. Removing a line that does not exist is
// a no-op.
func (c *Cart) RemoveItem(productID uuid.UUID, size string) {
	for i := range c.lines {
		if c.lines[i].Product.ID == productID && c.lines[i].Size == size {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

// UpdateQuantity overwrites the quantity of the matching line. A quantity
// below one removes the line, so the cart never holds a non-positive line.
// Updating a line that does not exist is a no-op.
func (c *Cart) UpdateQuantity(productID uuid.UUID, size string, quantity int) {
	if quantity < 1 {
		c.RemoveItem(productID, size)
		return
	}
	for i := range c.lines {
		if c.lines[i].Product.ID == productID && c.lines[i].Size == size {
			c.lines[i].Quantity = quantity
			return
		}
	}
}

// Total sums unit price times quantity across all lines, preferring the
// captured discount price. An empty cart totals zero.
func (c *Cart) Total() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Product.UnitPrice() * float64(l.Quantity)
	}
	return RoundCents(total)
}

// Clear resets the cart to empty.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of lines in the cart.
func (c *Cart) Len() int {
	return len(c.lines)
}

// RoundCents rounds a currency amount to two decimal places.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
