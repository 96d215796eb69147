package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Status of an order. Transitions are driven by the ledger and only ever
// read here; the core never mutates a status locally.
type Status string

const (
	StatusPaymentEscrowed Status = "payment_escrowed"
	StatusInDelivery      Status = "in_delivery"
	StatusCompleted       Status = "completed"
	StatusDisputed        Status = "disputed"
)

// StatusFromCode maps the ledger's numeric status encoding.
func StatusFromCode(code uint8) (Status, error) {
	switch code {
	case 0:
		return StatusPaymentEscrowed, nil
	case 1:
		return StatusInDelivery, nil
	case 2:
		return StatusCompleted, nil
	case 3:
		return StatusDisputed, nil
	default:
		return "", fmt.Errorf("unknown order status code %d", code)
	}
}

// Order is a display-ready view of a ledger order. ProductIDs and
// Quantities are parallel sequences: index i of Quantities belongs to
// index i of ProductIDs. Amounts carry display precision only.
type Order struct {
	ID              string
	Buyer           string
	Seller          string
	ProductIDs      []string
	Quantities      []uint64
	TotalPrice      decimal.Decimal
	ShippingFee     decimal.Decimal
	Status          Status
	ShippingAddress string
	TrackingInfo    string
}

// Validate checks the parallel-sequence invariant.
func (o Order) Validate() error {
	if len(o.ProductIDs) != len(o.Quantities) {
		return fmt.Errorf("order %s: %d product ids but %d quantities", o.ID, len(o.ProductIDs), len(o.Quantities))
	}
	return nil
}
