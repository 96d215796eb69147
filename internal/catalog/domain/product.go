package domain

import "github.com/shopspring/decimal"

// Product is a display-ready snapshot of a ledger product record. Price
// has been converted out of the ledger's 10^18 fixed-point encoding and
// carries display precision only. Snapshots are immutable once fetched
// within a session.
type Product struct {
	ID            string
	Seller        string
	Name          string
	Category      string
	Price         decimal.Decimal
	StockQuantity uint64
	Unit          string
	Description   string
	ImageURLs     []string
	IsAvailable   bool
	IsOrganic     bool
	SoldCount     uint64
	Location      string
}
