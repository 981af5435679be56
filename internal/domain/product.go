package domain

import (
	"time"

	"github.com/google/uuid"
)

// Gender values a product can target
const (
	GenderMen    = "men"
	GenderWomen  = "women"
	GenderUnisex = "unisex"
)

// Color represents a selectable product color
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// Product represents a product in the catalog
type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Price         float64   `json:"price" db:"price"`
	DiscountPrice *float64  `json:"discount_price,omitempty" db:"discount_price"`
	Category      string    `json:"category" db:"category"`
	Gender        string    `json:"gender" db:"gender"`
	Sizes         []string  `json:"sizes" db:"sizes"`
	Colors        []Color   `json:"colors" db:"colors"`
	Images        []string  `json:"images" db:"images"`
	Featured      bool      `json:"featured" db:"featured"`
	IsBestSeller  bool      `json:"is_best_seller" db:"is_best_seller"`
	IsNewArrival  bool      `json:"is_new_arrival" db:"is_new_arrival"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// EffectivePrice returns the discount price when one is set, otherwise the
// regular price.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}
