package domain

import "github.com/shopspring/decimal"

// QuoteLine is one priced cart line in an order summary.
type QuoteLine struct {
	ProductID string
	Name      string
	Quantity  uint64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Quote is the order summary shown before submission: every line priced
// from its current snapshot, with tax and the flat shipping fee applied.
type Quote struct {
	Lines       []QuoteLine
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
}
