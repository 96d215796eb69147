package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	cart "github.com/harvestmkt/marketcore/internal/cart/domain"
	catalog "github.com/harvestmkt/marketcore/internal/catalog/domain"
)

type staticCart struct{ cart cart.Cart }

func (s staticCart) Snapshot() cart.Cart { return s.cart.Clone() }

type staticCatalog struct{ products map[string]catalog.Product }

func (s staticCatalog) Product(ctx context.Context, id string) (catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return catalog.Product{}, errors.New("unknown product")
	}
	return p, nil
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestQuoteTotals(t *testing.T) {
	tomatoes := catalog.Product{ID: "tomatoes", Name: "Tomatoes", Price: money("3.99")}
	beef := catalog.Product{ID: "beef", Name: "Beef", Price: money("12.99")}

	src := staticCart{cart: cart.Cart{Lines: []cart.Line{
		{ProductID: "tomatoes", Quantity: 3, Product: &tomatoes},
		{ProductID: "beef", Quantity: 1, Product: &beef},
	}}}

	svc := NewService(src, staticCatalog{}, money("5.00"), 4)
	q, err := svc.Quote(context.Background())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}

	if got := q.Subtotal.String(); got != "24.96" {
		t.Fatalf("subtotal = %s, want 24.96", got)
	}
	if got := q.Tax.StringFixed(2); got != "2.00" {
		t.Fatalf("display tax = %s, want 2.00", got)
	}
	if got := q.Total.StringFixed(2); got != "31.96" {
		t.Fatalf("display total = %s, want 31.96", got)
	}
	if len(q.Lines) != 2 || q.Lines[0].LineTotal.String() != "11.97" {
		t.Fatalf("lines = %+v", q.Lines)
	}
}

func TestQuoteResolvesPendingSnapshots(t *testing.T) {
	src := staticCart{cart: cart.Cart{Lines: []cart.Line{
		{ProductID: "eggs", Quantity: 2},
	}}}
	cat := staticCatalog{products: map[string]catalog.Product{
		"eggs": {ID: "eggs", Name: "Eggs", Price: money("6.50")},
	}}

	svc := NewService(src, cat, decimal.Zero, 4)
	q, err := svc.Quote(context.Background())
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Lines[0].Name != "Eggs" || q.Lines[0].LineTotal.String() != "13" {
		t.Fatalf("line = %+v", q.Lines[0])
	}
}

func TestQuoteEmptyCart(t *testing.T) {
	svc := NewService(staticCart{}, staticCatalog{}, decimal.Zero, 4)
	if _, err := svc.Quote(context.Background()); !errors.Is(err, ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestQuoteFailsOnUnresolvableLine(t *testing.T) {
	src := staticCart{cart: cart.Cart{Lines: []cart.Line{
		{ProductID: "ghost", Quantity: 1},
	}}}
	svc := NewService(src, staticCatalog{}, decimal.Zero, 4)
	if _, err := svc.Quote(context.Background()); err == nil {
		t.Fatal("expected error for unresolvable line")
	}
}
