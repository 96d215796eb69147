package app

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/harvestmkt/marketcore/internal/ledger"
	"github.com/harvestmkt/marketcore/internal/ledger/ledgertest"
	"github.com/harvestmkt/marketcore/internal/order/domain"
)

const buyer = "0xbuyer"

type localCartSpy struct{ cleared int }

func (c *localCartSpy) ClearLocal() { c.cleared++ }

type confirmSpy struct{ placed [][]string }

func (c *confirmSpy) OrderPlaced(ids []string) { c.placed = append(c.placed, ids) }

func cartedLedger(t *testing.T) *ledgertest.Ledger {
	t.Helper()
	led := ledgertest.New()
	led.SeedProduct(ledger.Product{ID: "tomatoes", Seller: "0xs1", Name: "Tomatoes",
		Price: ledger.FromDecimal(decimal.RequireFromString("3.99"))})
	led.SeedProduct(ledger.Product{ID: "beef", Seller: "0xs2", Name: "Beef",
		Price: ledger.FromDecimal(decimal.RequireFromString("12.99"))})

	ctx := context.Background()
	if err := led.AddToCart(ctx, buyer, "tomatoes", 3); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	if err := led.AddToCart(ctx, buyer, "beef", 1); err != nil {
		t.Fatalf("AddToCart: %v", err)
	}
	return led
}

func TestSubmitSuccess(t *testing.T) {
	led := cartedLedger(t)
	cart := &localCartSpy{}
	confirm := &confirmSpy{}
	svc := NewService(buyer, led, cart, confirm, slog.Default())

	ids, err := svc.Submit(context.Background(), "12 Orchard Lane, Petaluma CA 94952")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// Two sellers in the cart means two escrowed orders.
	if len(ids) != 2 {
		t.Fatalf("order ids = %v, want 2", ids)
	}
	if cart.cleared != 1 {
		t.Fatalf("local cart cleared %d times, want 1", cart.cleared)
	}
	if len(confirm.placed) != 1 {
		t.Fatalf("confirmation fired %d times, want 1", len(confirm.placed))
	}

	remote, err := led.CartItems(context.Background(), buyer)
	if err != nil {
		t.Fatalf("CartItems: %v", err)
	}
	if len(remote) != 0 {
		t.Fatalf("ledger cart = %+v, want consumed", remote)
	}
}

func TestSubmitEmptyAddressNoRemoteCall(t *testing.T) {
	led := cartedLedger(t)
	cart := &localCartSpy{}
	svc := NewService(buyer, led, cart, nil, slog.Default())

	_, err := svc.Submit(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("err = %v, want ErrInvalidAddress", err)
	}

	// Validation failure happens before any ledger interaction.
	remote, _ := led.CartItems(context.Background(), buyer)
	if len(remote) != 2 {
		t.Fatalf("ledger cart = %+v, want untouched", remote)
	}
	if cart.cleared != 0 {
		t.Fatal("local cart must not be cleared")
	}
}

func TestSubmitFailureLeavesCartUntouched(t *testing.T) {
	led := cartedLedger(t)
	cart := &localCartSpy{}
	confirm := &confirmSpy{}
	svc := NewService(buyer, led, cart, confirm, slog.Default())

	led.FailNextWrites(1, errors.New("escrow reverted"))
	_, err := svc.Submit(context.Background(), "12 Orchard Lane")
	if err == nil {
		t.Fatal("expected submit error")
	}

	if cart.cleared != 0 {
		t.Fatal("local cart must not be cleared on failure")
	}
	if len(confirm.placed) != 0 {
		t.Fatal("no confirmation on failure")
	}
	remote, _ := led.CartItems(context.Background(), buyer)
	if len(remote) != 2 {
		t.Fatalf("ledger cart = %+v, want untouched", remote)
	}
}

func TestDetailsConvertsOrder(t *testing.T) {
	led := cartedLedger(t)
	svc := NewService(buyer, led, &localCartSpy{}, nil, slog.Default())

	ids, err := svc.Submit(context.Background(), "12 Orchard Lane")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var tomatoOrder domain.Order
	found := false
	for _, id := range ids {
		o, err := svc.Details(context.Background(), id)
		if err != nil {
			t.Fatalf("Details: %v", err)
		}
		if o.Validate() != nil {
			t.Fatalf("parallel invariant violated: %+v", o)
		}
		if len(o.ProductIDs) == 1 && o.ProductIDs[0] == "tomatoes" {
			tomatoOrder = o
			found = true
		}
	}
	if !found {
		t.Fatal("no order for the tomatoes seller")
	}

	if tomatoOrder.Status != domain.StatusPaymentEscrowed {
		t.Fatalf("status = %s, want payment_escrowed", tomatoOrder.Status)
	}
	// 3 x 3.99 + 5.00 flat shipping.
	if got := tomatoOrder.TotalPrice.StringFixed(2); got != "16.97" {
		t.Fatalf("total = %s, want 16.97", got)
	}
	if got := tomatoOrder.ShippingFee.StringFixed(2); got != "5.00" {
		t.Fatalf("shipping = %s, want 5.00", got)
	}
}

func TestDetailsUnknownOrder(t *testing.T) {
	svc := NewService(buyer, ledgertest.New(), &localCartSpy{}, nil, slog.Default())
	if _, err := svc.Details(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStatusIsExternallyOwned(t *testing.T) {
	led := cartedLedger(t)
	svc := NewService(buyer, led, &localCartSpy{}, nil, slog.Default())

	ids, err := svc.Submit(context.Background(), "12 Orchard Lane")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := led.SetOrderStatus(ids[0], ledger.OrderStatusDisputed); err != nil {
		t.Fatalf("SetOrderStatus: %v", err)
	}

	o, err := svc.Details(context.Background(), ids[0])
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if o.Status != domain.StatusDisputed {
		t.Fatalf("status = %s, want disputed (read back from ledger)", o.Status)
	}
}

func TestBuyerAndSellerViews(t *testing.T) {
	led := cartedLedger(t)
	svc := NewService(buyer, led, &localCartSpy{}, nil, slog.Default())
	if _, err := svc.Submit(context.Background(), "12 Orchard Lane"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	bought, err := svc.ForBuyer(context.Background())
	if err != nil {
		t.Fatalf("ForBuyer: %v", err)
	}
	if len(bought) != 2 {
		t.Fatalf("buyer orders = %d, want 2", len(bought))
	}

	sellerSvc := NewService("0xs1", led, &localCartSpy{}, nil, slog.Default())
	sold, err := sellerSvc.ForSeller(context.Background())
	if err != nil {
		t.Fatalf("ForSeller: %v", err)
	}
	if len(sold) != 1 {
		t.Fatalf("seller orders = %d, want 1", len(sold))
	}
}
