package domain

import (
	"github.com/shopspring/decimal"

	catalog "github.com/harvestmkt/marketcore/internal/catalog/domain"
)

// TaxRate is the fixed marketplace tax applied to cart subtotals (8%).
var TaxRate = decimal.New(8, -2)

// Line is one product/quantity pairing in the cart. Product is the
// cached snapshot and is nil while its resolve is still pending; totals
// skip lines without a snapshot.
type Line struct {
	ProductID string
	Quantity  uint64
	Product   *catalog.Product
}

// Cart is the local projection of the ledger-held cart. Lines keep
// insertion order and hold at most one line per product. The projection
// is owned by the synchronizer; consumers only ever see clones.
type Cart struct {
	Lines []Line
}

// Clone copies the projection. Snapshots are shared: they are immutable
// once fetched.
func (c Cart) Clone() Cart {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// Line returns the line for productID, if present.
func (c Cart) Line(productID string) (Line, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return Line{}, false
}

// ItemCount is the total quantity across all lines.
func (c Cart) ItemCount() uint64 {
	var n uint64
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of price times quantity across lines with a
// resolved snapshot. Derived values are recomputed per call and never
// stored.
func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		if l.Product == nil {
			continue
		}
		sum = sum.Add(l.Product.Price.Mul(decimal.NewFromUint64(l.Quantity)))
	}
	return sum
}

// Tax is Subtotal times TaxRate.
func (c Cart) Tax() decimal.Decimal {
	return c.Subtotal().Mul(TaxRate)
}

// Total is Subtotal plus Tax.
func (c Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.Tax())
}
