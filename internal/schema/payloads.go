package schema

import "github.com/shopspring/decimal"

const (
	// PriceScale is the number of decimals carried by Price.
	PriceScale = 2
	// QuantityScale is the number of decimals carried by Quantity.
	QuantityScale = 4
)

// Price is a fixed-point price scaled by 100, exactly as carried on the wire.
type Price uint16

// Decimal returns the price in currency units.
func (p Price) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -PriceScale)
}

func (p Price) String() string {
	return p.Decimal().StringFixed(PriceScale)
}

// Quantity is a scaled integer with QuantityScale decimals.
type Quantity int64

// QuantityFromDecimal converts a decimal amount into a scaled quantity.
func QuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(d.Shift(QuantityScale).IntPart())
}

// Decimal returns the quantity in instrument units.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), -QuantityScale)
}

func (q Quantity) String() string {
	return q.Decimal().String()
}

// Tick is one decoded market update.
type Tick struct {
	Seq    uint16
	Price  Price
	Signal bool
}
