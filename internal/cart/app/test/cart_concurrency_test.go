package app_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/harvestmkt/marketcore/internal/cart/app"
	"github.com/harvestmkt/marketcore/internal/ledger"
	"github.com/harvestmkt/marketcore/internal/ledger/ledgertest"

	catalogapp "github.com/harvestmkt/marketcore/internal/catalog/app"
)

// Concurrent mutations are not serialized against each other; the
// projection is last-write-wins. For commutative adds that still means
// quantities sum on both sides once every write has resolved.
func TestCart_ConcurrentAddItemIncrement(t *testing.T) {
	ctx := context.Background()

	led := ledgertest.New()
	productID := led.SeedProduct(ledger.Product{
		Name:   "Heirloom Tomatoes",
		Seller: "0xseller",
		Price:  ledger.FromDecimal(decimal.RequireFromString("3.99")),
	})

	resolver := catalogapp.NewResolver(led, 64, 0, slog.Default())
	svc := app.NewService("0xbuyer", led, resolver, nil, slog.Default())

	const N = 100
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < N; i++ {
		g.Go(func() error {
			return svc.AddItem(ctx, productID, 1)
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AddItem failed: %v", err)
	}

	line, ok := svc.Snapshot().Line(productID)
	if !ok || line.Quantity != N {
		t.Fatalf("local quantity = %d, want %d", line.Quantity, N)
	}

	remote, err := led.CartItems(ctx, "0xbuyer")
	if err != nil {
		t.Fatalf("CartItems failed: %v", err)
	}
	gotQty := uint64(0)
	for _, it := range remote {
		if it.ProductID == productID {
			gotQty = it.Quantity
			break
		}
	}
	if gotQty != N {
		t.Fatalf("remote quantity = %d, want %d", gotQty, N)
	}
}
