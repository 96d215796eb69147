package app

import (
	"context"

	"github.com/harvestmkt/marketcore/internal/ledger"
)

// Source is the slice of the ledger surface the resolver reads and
// writes. Amounts on this interface are ledger-native fixed point.
type Source interface {
	Product(ctx context.Context, id string) (ledger.Product, error)
	UserProducts(ctx context.Context, address string) ([]ledger.Product, error)
	AddProduct(ctx context.Context, p ledger.Product) (string, error)
	UpdateProduct(ctx context.Context, p ledger.Product) error
}
