package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	cart "github.com/harvestmkt/marketcore/internal/cart/domain"
	catalog "github.com/harvestmkt/marketcore/internal/catalog/domain"
	"github.com/harvestmkt/marketcore/internal/checkout/domain"
)

var ErrEmptyCart = errors.New("cart is empty")

// CartSource supplies the local cart projection the quote prices.
type CartSource interface {
	Snapshot() cart.Cart
}

// CatalogReader resolves snapshots for lines that are still missing one.
type CatalogReader interface {
	Product(ctx context.Context, id string) (catalog.Product, error)
}

// Service builds order summaries from the current cart. Lines without a
// resolved snapshot are fetched concurrently, bounded by maxConcurrent.
type Service struct {
	cart    CartSource
	catalog CatalogReader

	shippingFee   decimal.Decimal
	maxConcurrent int
}

func NewService(cartSrc CartSource, catalogReader CatalogReader, shippingFee decimal.Decimal, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 10
	}
	return &Service{
		cart:          cartSrc,
		catalog:       catalogReader,
		shippingFee:   shippingFee,
		maxConcurrent: maxConcurrent,
	}
}

func (s *Service) Quote(ctx context.Context) (domain.Quote, error) {
	snap := s.cart.Snapshot()
	if len(snap.Lines) == 0 {
		return domain.Quote{}, ErrEmptyCart
	}

	lines := make([]domain.QuoteLine, len(snap.Lines))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range snap.Lines {
		g.Go(func() error {
			l := snap.Lines[idx]
			if l.Quantity == 0 {
				return fmt.Errorf("quantity must be greater than zero: %d", l.Quantity)
			}

			p := l.Product
			if p == nil {
				resolved, err := s.catalog.Product(ctx, l.ProductID)
				if err != nil {
					return fmt.Errorf("failed to get product %s: %w", l.ProductID, err)
				}
				p = &resolved
			}

			qty := decimal.NewFromUint64(l.Quantity)
			lines[idx] = domain.QuoteLine{
				ProductID: p.ID,
				Name:      p.Name,
				Quantity:  l.Quantity,
				UnitPrice: p.Price,
				LineTotal: p.Price.Mul(qty),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	tax := subtotal.Mul(cart.TaxRate)

	return domain.Quote{
		Lines:       lines,
		Subtotal:    subtotal,
		Tax:         tax,
		ShippingFee: s.shippingFee,
		Total:       subtotal.Add(tax).Add(s.shippingFee),
	}, nil
}
