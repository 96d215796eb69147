package app

import (
	"context"

	"github.com/harvestmkt/marketcore/internal/cart/domain"
	catalog "github.com/harvestmkt/marketcore/internal/catalog/domain"
	"github.com/harvestmkt/marketcore/internal/ledger"
)

// CartLedger is the slice of the remote ledger the synchronizer talks
// to. Writes block until their receipt is terminal; none of them retry.
type CartLedger interface {
	CartItems(ctx context.Context, owner string) ([]ledger.CartItem, error)
	AddToCart(ctx context.Context, owner, productID string, quantity uint64) error
	UpdateCartItemQuantity(ctx context.Context, owner, productID string, quantity uint64) error
	ClearCart(ctx context.Context, owner string) error
}

// ProductResolver supplies cached snapshots for cart lines.
type ProductResolver interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// Notifier receives user-facing cart events: projection changes for
// re-render, write failures for an error toastline.
type Notifier interface {
	CartChanged(cart domain.Cart)
	WriteFailed(op string, err error)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) CartChanged(domain.Cart)   {}
func (NopNotifier) WriteFailed(string, error) {}
