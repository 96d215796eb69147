package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	cartapp "github.com/harvestmkt/marketcore/internal/cart/app"
	catalogapp "github.com/harvestmkt/marketcore/internal/catalog/app"
	checkoutapp "github.com/harvestmkt/marketcore/internal/checkout/app"
	"github.com/harvestmkt/marketcore/internal/ledger"
	"github.com/harvestmkt/marketcore/internal/ledger/ledgertest"
	orderapp "github.com/harvestmkt/marketcore/internal/order/app"
	"github.com/harvestmkt/marketcore/internal/session"
	sessionsqlite "github.com/harvestmkt/marketcore/internal/session/sqlite"
)

func newTestDaemon(t *testing.T) (*httptest.Server, *ledgertest.Ledger) {
	t.Helper()

	led := ledgertest.Seeded()
	log := slog.Default()

	profiles, err := sessionsqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("profile store: %v", err)
	}
	t.Cleanup(func() { _ = profiles.Close() })

	sess, _, err := session.Resolve(context.Background(), profiles, "0xtestbuyer")
	if err != nil {
		t.Fatalf("session: %v", err)
	}

	notify := slogNotifier{log: log}
	resolver := catalogapp.NewResolver(led, 64, time.Minute, log)
	cartSvc := cartapp.NewService(sess.Address, led, resolver, notify, log)
	checkoutSvc := checkoutapp.NewService(cartSvc, resolver, ledger.ToDecimal(ledgertest.DefaultShippingFee), 4)
	orderSvc := orderapp.NewService(sess.Address, led, cartSvc, notify, log)

	srv := &server{
		cart:     cartSvc,
		catalog:  resolver,
		checkout: checkoutSvc,
		orders:   orderSvc,
		profiles: profiles,
		session:  sess,
		log:      log,
	}

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, led
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode
}

func firstProductID(t *testing.T, ts *httptest.Server, seller string) string {
	t.Helper()
	var products []struct {
		ID string `json:"id"`
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/products?seller="+seller, nil, &products); code != http.StatusOK {
		t.Fatalf("list products: %d", code)
	}
	if len(products) == 0 {
		t.Fatal("seeded catalog is empty")
	}
	return products[0].ID
}

func TestBuyerJourney(t *testing.T) {
	ts, led := newTestDaemon(t)
	productID := firstProductID(t, ts, ledgertest.SellerGreenAcres)

	var cart cartJSON
	code := doJSON(t, http.MethodPost, ts.URL+"/v1/cart/items",
		map[string]any{"product_id": productID, "quantity": 3}, &cart)
	if code != http.StatusOK {
		t.Fatalf("add item: %d", code)
	}
	if cart.ItemCount != 3 {
		t.Fatalf("item count = %d, want 3", cart.ItemCount)
	}
	if cart.Lines[0].Product == nil {
		t.Fatal("line should carry a resolved snapshot")
	}

	var quote struct {
		Subtotal string `json:"subtotal"`
		Total    string `json:"total"`
	}
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/checkout/quote", nil, &quote); code != http.StatusOK {
		t.Fatalf("quote: %d", code)
	}
	if quote.Subtotal != "11.97" {
		t.Fatalf("subtotal = %s, want 11.97", quote.Subtotal)
	}

	// The ledger's own running total agrees with the local projection.
	raw, err := led.CartTotal(context.Background(), "0xtestbuyer")
	if err != nil {
		t.Fatalf("CartTotal: %v", err)
	}
	if got := ledger.ToDecimal(raw).StringFixed(2); got != "11.97" {
		t.Fatalf("ledger cart total = %s, want 11.97", got)
	}

	var placed struct {
		OrderIDs []string `json:"order_ids"`
	}
	code = doJSON(t, http.MethodPost, ts.URL+"/v1/orders", map[string]string{
		"first_name":       "Ada",
		"last_name":        "Okafor",
		"city":             "Petaluma",
		"zip":              "94952",
		"shipping_address": "12 Orchard Lane, Petaluma CA 94952",
	}, &placed)
	if code != http.StatusCreated {
		t.Fatalf("submit: %d", code)
	}
	if len(placed.OrderIDs) != 1 {
		t.Fatalf("order ids = %v, want 1", placed.OrderIDs)
	}

	// Cart is empty on both sides after a confirmed submission.
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/cart", nil, &cart); code != http.StatusOK {
		t.Fatalf("get cart: %d", code)
	}
	if cart.ItemCount != 0 {
		t.Fatalf("item count = %d, want 0", cart.ItemCount)
	}
	remote, err := led.CartItems(context.Background(), "0xtestbuyer")
	if err != nil {
		t.Fatalf("CartItems: %v", err)
	}
	if len(remote) != 0 {
		t.Fatalf("remote cart = %+v, want empty", remote)
	}

	var order orderJSON
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/orders/"+placed.OrderIDs[0], nil, &order); code != http.StatusOK {
		t.Fatalf("order details: %d", code)
	}
	if order.Status != "payment_escrowed" {
		t.Fatalf("status = %s, want payment_escrowed", order.Status)
	}
}

func TestSubmitValidationBlocksRemoteCall(t *testing.T) {
	ts, led := newTestDaemon(t)
	productID := firstProductID(t, ts, ledgertest.SellerGreenAcres)

	if code := doJSON(t, http.MethodPost, ts.URL+"/v1/cart/items",
		map[string]any{"product_id": productID}, nil); code != http.StatusOK {
		t.Fatalf("add item: %d", code)
	}

	// Missing zip: rejected at the form boundary, nothing reaches the
	// ledger.
	code := doJSON(t, http.MethodPost, ts.URL+"/v1/orders", map[string]string{
		"first_name":       "Ada",
		"last_name":        "Okafor",
		"city":             "Petaluma",
		"shipping_address": "12 Orchard Lane",
	}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("submit = %d, want 400", code)
	}

	remote, err := led.CartItems(context.Background(), "0xtestbuyer")
	if err != nil {
		t.Fatalf("CartItems: %v", err)
	}
	if len(remote) != 1 {
		t.Fatalf("remote cart = %+v, want untouched", remote)
	}
}

func TestFailedAddSurfacesErrorAndRollsBack(t *testing.T) {
	ts, led := newTestDaemon(t)
	productID := firstProductID(t, ts, ledgertest.SellerGreenAcres)

	led.FailNextWrites(1, ledger.ErrWriteRejected)
	code := doJSON(t, http.MethodPost, ts.URL+"/v1/cart/items",
		map[string]any{"product_id": productID, "quantity": 2}, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("add item = %d, want 400", code)
	}

	var cart cartJSON
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/cart", nil, &cart); code != http.StatusOK {
		t.Fatalf("get cart: %d", code)
	}
	if cart.ItemCount != 0 {
		t.Fatalf("item count = %d, want rolled back to 0", cart.ItemCount)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	ts, _ := newTestDaemon(t)

	var p session.Profile
	code := doJSON(t, http.MethodPut, ts.URL+"/v1/profile", map[string]string{
		"role":     "seller",
		"name":     "Green Acres Farm",
		"location": "Petaluma, CA",
	}, &p)
	if code != http.StatusOK {
		t.Fatalf("put profile: %d", code)
	}

	var got session.Profile
	if code := doJSON(t, http.MethodGet, ts.URL+"/v1/profile", nil, &got); code != http.StatusOK {
		t.Fatalf("get profile: %d", code)
	}
	if got.Role != session.RoleSeller || got.Name != "Green Acres Farm" {
		t.Fatalf("profile = %+v", got)
	}
}
