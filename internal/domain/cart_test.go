package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func snapshot(name string, price float64, discount *float64) ProductSnapshot {
	return ProductSnapshot{
		ID:            uuid.New(),
		Name:          name,
		Price:         price,
		DiscountPrice: discount,
	}
}

func discount(v float64) *float64 {
	return &v
}

func TestCart_AddSameProductAndSizeMergesLines(t *testing.T) {
	cart := NewCart()
	shirt := snapshot("Oxford Shirt", 20, nil)

	cart.AddItem(shirt, "M")
	cart.AddItem(shirt, "M")

	assert.Equal(t, 1, cart.Len())
	assert.Equal(t, 2, cart.Lines()[0].Quantity)
}

func TestCart_DifferentSizesAreDistinctLines(t *testing.T) {
	cart := NewCart()
	shirt := snapshot("Oxford Shirt", 20, nil)

	cart.AddItem(shirt, "M")
	cart.AddItem(shirt, "L")

	assert.Equal(t, 2, cart.Len())
	for _, line := range cart.Lines() {
		assert.Equal(t, 1, line.Quantity)
	}
}

func TestCart_RemoveMissingLineIsNoOp(t *testing.T) {
	cart := NewCart()
	cart.AddItem(snapshot("Oxford Shirt", 20, nil), "M")

	cart.RemoveItem(uuid.New(), "M")

	assert.Equal(t, 1, cart.Len())
}

func TestCart_TotalPrefersDiscountPrice(t *testing.T) {
	cart := NewCart()
	cart.AddItem(snapshot("Hoodie", 60, discount(45)), "S")

	assert.Equal(t, 45.0, cart.Total())
}

func TestCart_TotalEmptyCartIsZero(t *testing.T) {
	assert.Equal(t, 0.0, NewCart().Total())
}

// Scenario from the checkout flow: two of product A at 20 plus one of
// product B at 15 discounted to 10 must total exactly 50.00.
func TestCart_MixedDiscountTotal(t *testing.T) {
	cart := NewCart()
	a := snapshot("Tee", 20, nil)
	b := snapshot("Cap", 15, discount(10))

	cart.AddItem(a, "M")
	cart.AddItem(a, "M")
	cart.AddItem(b, "L")

	assert.Equal(t, 50.0, cart.Total())
}

func TestCart_UpdateQuantityOverwrites(t *testing.T) {
	cart := NewCart()
	shirt := snapshot("Oxford Shirt", 20, nil)
	cart.AddItem(shirt, "M")

	cart.UpdateQuantity(shirt.ID, "M", 5)

	assert.Equal(t, 5, cart.Lines()[0].Quantity)
	assert.Equal(t, 100.0, cart.Total())
}

func TestCart_UpdateQuantityBelowOneRemovesLine(t *testing.T) {
	cart := NewCart()
	shirt := snapshot("Oxford Shirt", 20, nil)
	cart.AddItem(shirt, "M")

	cart.UpdateQuantity(shirt.ID, "M", 0)

	assert.Equal(t, 0, cart.Len())
}

func TestCart_ClearEmptiesCart(t *testing.T) {
	cart := NewCart()
	cart.AddItem(snapshot("Tee", 20, nil), "M")
	cart.AddItem(snapshot("Cap", 15, nil), "L")

	cart.Clear()

	assert.Equal(t, 0, cart.Len())
	assert.Equal(t, 0.0, cart.Total())
}

func TestProperty_AddingNTimesYieldsQuantityN(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("adding the same product+size n times yields one line with quantity n", prop.ForAll(
		func(n int, price float64) bool {
			cart := NewCart()
			p := snapshot("Tee", price, nil)
			for i := 0; i < n; i++ {
				cart.AddItem(p, "M")
			}
			return cart.Len() == 1 && cart.Lines()[0].Quantity == n
		},
		gen.IntRange(1, 50),
		gen.Float64Range(0.01, 500),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_TotalMatchesSumOfSubtotals(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("cart total equals the rounded sum of line subtotals", prop.ForAll(
		func(prices []float64) bool {
			cart := NewCart()
			var expected float64
			for i, price := range prices {
				// Whole-cent prices keep the arithmetic exact
				cents := float64(int(price*100)) / 100
				p := snapshot("Item", cents, nil)
				size := []string{"S", "M", "L"}[i%3]
				cart.AddItem(p, size)
				expected += cents
			}
			return cart.Total() == RoundCents(expected)
		},
		gen.SliceOf(gen.Float64Range(0.01, 200)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_RemoveThenTotalNeverNegative(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("removing lines never drives the total negative", prop.ForAll(
		func(adds int, removes int) bool {
			cart := NewCart()
			p := snapshot("Tee", 19.99, nil)
			for i := 0; i < adds; i++ {
				cart.AddItem(p, "M")
			}
			for i := 0; i < removes; i++ {
				cart.RemoveItem(p.ID, "M")
			}
			return cart.Total() >= 0
		},
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
