package app

import (
	"context"

	"github.com/harvestmkt/marketcore/internal/ledger"
)

// OrderLedger is the slice of the remote ledger the order flow uses.
type OrderLedger interface {
	CreateOrderFromCart(ctx context.Context, owner, shippingAddress string) ([]string, error)
	OrderDetails(ctx context.Context, orderID string) (ledger.Order, error)
	UserOrders(ctx context.Context, address string) ([]ledger.Order, error)
	SellerOrders(ctx context.Context, address string) ([]ledger.Order, error)
}

// LocalCart is the synchronizer hook the flow uses to reconcile local
// state after the ledger has consumed the cart.
type LocalCart interface {
	ClearLocal()
}

// Notifier receives the order-confirmation signal.
type Notifier interface {
	OrderPlaced(orderIDs []string)
}

// NopNotifier discards confirmations.
type NopNotifier struct{}

func (NopNotifier) OrderPlaced([]string) {}
