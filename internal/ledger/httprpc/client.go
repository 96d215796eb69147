// Package httprpc implements the ledger interface against a remote
// ledger gateway speaking JSON over HTTP. Monetary amounts travel as
// base-10 integer strings (10^18-scaled); writes come back as receipts
// that the client polls to a terminal status.
package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/harvestmkt/marketcore/internal/ledger"
)

const (
	defaultTimeout      = 15 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

type Client struct {
	base         string
	hc           *http.Client
	pollInterval time.Duration
}

var _ ledger.Ledger = (*Client)(nil)

// New builds a client for the gateway at baseURL. A nil hc gets a default
// client with a request timeout; per-operation deadlines come from the
// caller's context.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		base:         baseURL,
		hc:           hc,
		pollInterval: defaultPollInterval,
	}
}

type productDTO struct {
	ID            string   `json:"id"`
	Seller        string   `json:"seller"`
	Name          string   `json:"name"`
	Category      string   `json:"category"`
	Price         string   `json:"price"`
	StockQuantity uint64   `json:"stock_quantity"`
	Unit          string   `json:"unit"`
	Description   string   `json:"description"`
	ImageURLs     []string `json:"image_urls"`
	IsAvailable   bool     `json:"is_available"`
	IsOrganic     bool     `json:"is_organic"`
	SoldCount     uint64   `json:"sold_count"`
	Location      string   `json:"location"`
}

type cartItemDTO struct {
	ProductID string `json:"product_id"`
	Quantity  uint64 `json:"quantity"`
}

type orderDTO struct {
	ID              string   `json:"id"`
	Buyer           string   `json:"buyer"`
	Seller          string   `json:"seller"`
	ProductIDs      []string `json:"product_ids"`
	Quantities      []uint64 `json:"quantities"`
	TotalPrice      string   `json:"total_price"`
	ShippingFee     string   `json:"shipping_fee"`
	Status          uint8    `json:"status"`
	ShippingAddress string   `json:"shipping_address"`
	TrackingInfo    string   `json:"tracking_info"`
}

type receiptDTO struct {
	TxID     string   `json:"tx_id"`
	Status   string   `json:"status"`
	Error    string   `json:"error,omitempty"`
	OrderIDs []string `json:"order_ids,omitempty"`
	EntityID string   `json:"entity_id,omitempty"`
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed amount %q", s)
	}
	return n, nil
}

func (d productDTO) toWire() (ledger.Product, error) {
	price, err := parseAmount(d.Price)
	if err != nil {
		return ledger.Product{}, fmt.Errorf("product %s: %w", d.ID, err)
	}
	return ledger.Product{
		ID:            d.ID,
		Seller:        d.Seller,
		Name:          d.Name,
		Category:      d.Category,
		Price:         price,
		StockQuantity: d.StockQuantity,
		Unit:          d.Unit,
		Description:   d.Description,
		ImageURLs:     d.ImageURLs,
		IsAvailable:   d.IsAvailable,
		IsOrganic:     d.IsOrganic,
		SoldCount:     d.SoldCount,
		Location:      d.Location,
	}, nil
}

func (d orderDTO) toWire() (ledger.Order, error) {
	total, err := parseAmount(d.TotalPrice)
	if err != nil {
		return ledger.Order{}, fmt.Errorf("order %s: %w", d.ID, err)
	}
	fee, err := parseAmount(d.ShippingFee)
	if err != nil {
		return ledger.Order{}, fmt.Errorf("order %s: %w", d.ID, err)
	}
	return ledger.Order{
		ID:              d.ID,
		Buyer:           d.Buyer,
		Seller:          d.Seller,
		ProductIDs:      d.ProductIDs,
		Quantities:      d.Quantities,
		TotalPrice:      total,
		ShippingFee:     fee,
		Status:          d.Status,
		ShippingAddress: d.ShippingAddress,
		TrackingInfo:    d.TrackingInfo,
	}, nil
}

func fromWireProduct(p ledger.Product) productDTO {
	price := "0"
	if p.Price != nil {
		price = p.Price.String()
	}
	return productDTO{
		ID:            p.ID,
		Seller:        p.Seller,
		Name:          p.Name,
		Category:      p.Category,
		Price:         price,
		StockQuantity: p.StockQuantity,
		Unit:          p.Unit,
		Description:   p.Description,
		ImageURLs:     p.ImageURLs,
		IsAvailable:   p.IsAvailable,
		IsOrganic:     p.IsOrganic,
		SoldCount:     p.SoldCount,
		Location:      p.Location,
	}
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ledger.ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: gateway returned %d", ledger.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("ledger read %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ledger read %s: decode: %w", path, err)
	}
	return nil
}

// write submits a mutating request and blocks until its receipt reaches a
// terminal status. There is no retry and no timeout beyond ctx.
func (c *Client) write(ctx context.Context, method, path string, body any) (receiptDTO, error) {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return receiptDTO{}, err
		}
		buf = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, buf)
	if err != nil {
		return receiptDTO{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return receiptDTO{}, fmt.Errorf("%w: %v", ledger.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return receiptDTO{}, fmt.Errorf("%w: gateway returned %d", ledger.ErrWriteRejected, resp.StatusCode)
	}

	var rcpt receiptDTO
	if err := json.NewDecoder(resp.Body).Decode(&rcpt); err != nil {
		return receiptDTO{}, fmt.Errorf("ledger write %s: decode receipt: %w", path, err)
	}
	return c.waitReceipt(ctx, rcpt)
}

func (c *Client) waitReceipt(ctx context.Context, rcpt receiptDTO) (receiptDTO, error) {
	t := time.NewTicker(c.pollInterval)
	defer t.Stop()

	for {
		switch rcpt.Status {
		case ledger.ReceiptConfirmed:
			return rcpt, nil
		case ledger.ReceiptFailed:
			return rcpt, fmt.Errorf("%w: %s", ledger.ErrWriteRejected, rcpt.Error)
		}

		select {
		case <-ctx.Done():
			return rcpt, ctx.Err()
		case <-t.C:
		}

		var next receiptDTO
		if err := c.get(ctx, "/v1/tx/"+url.PathEscape(rcpt.TxID), &next); err != nil {
			return rcpt, err
		}
		rcpt = next
	}
}

func accountPath(address, rest string) string {
	return "/v1/accounts/" + url.PathEscape(address) + rest
}

func (c *Client) CartItems(ctx context.Context, owner string) ([]ledger.CartItem, error) {
	var dtos []cartItemDTO
	if err := c.get(ctx, accountPath(owner, "/cart"), &dtos); err != nil {
		return nil, err
	}
	items := make([]ledger.CartItem, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, ledger.CartItem{ProductID: d.ProductID, Quantity: d.Quantity})
	}
	return items, nil
}

func (c *Client) CartTotal(ctx context.Context, owner string) (*big.Int, error) {
	var out struct {
		Total string `json:"total"`
	}
	if err := c.get(ctx, accountPath(owner, "/cart/total"), &out); err != nil {
		return nil, err
	}
	return parseAmount(out.Total)
}

func (c *Client) Product(ctx context.Context, id string) (ledger.Product, error) {
	var d productDTO
	if err := c.get(ctx, "/v1/products/"+url.PathEscape(id), &d); err != nil {
		return ledger.Product{}, err
	}
	return d.toWire()
}

func (c *Client) OrderDetails(ctx context.Context, orderID string) (ledger.Order, error) {
	var d orderDTO
	if err := c.get(ctx, "/v1/orders/"+url.PathEscape(orderID), &d); err != nil {
		return ledger.Order{}, err
	}
	return d.toWire()
}

func (c *Client) ordersFor(ctx context.Context, address, side string) ([]ledger.Order, error) {
	var dtos []orderDTO
	if err := c.get(ctx, accountPath(address, "/orders?side="+side), &dtos); err != nil {
		return nil, err
	}
	orders := make([]ledger.Order, 0, len(dtos))
	for _, d := range dtos {
		o, err := d.toWire()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (c *Client) UserOrders(ctx context.Context, address string) ([]ledger.Order, error) {
	return c.ordersFor(ctx, address, "buyer")
}

func (c *Client) SellerOrders(ctx context.Context, address string) ([]ledger.Order, error) {
	return c.ordersFor(ctx, address, "seller")
}

func (c *Client) UserProducts(ctx context.Context, address string) ([]ledger.Product, error) {
	var dtos []productDTO
	if err := c.get(ctx, accountPath(address, "/products"), &dtos); err != nil {
		return nil, err
	}
	products := make([]ledger.Product, 0, len(dtos))
	for _, d := range dtos {
		p, err := d.toWire()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (c *Client) AddToCart(ctx context.Context, owner, productID string, quantity uint64) error {
	_, err := c.write(ctx, http.MethodPost, accountPath(owner, "/cart/items"), cartItemDTO{
		ProductID: productID,
		Quantity:  quantity,
	})
	return err
}

func (c *Client) UpdateCartItemQuantity(ctx context.Context, owner, productID string, quantity uint64) error {
	_, err := c.write(ctx, http.MethodPut, accountPath(owner, "/cart/items/"+url.PathEscape(productID)), struct {
		Quantity uint64 `json:"quantity"`
	}{quantity})
	return err
}

func (c *Client) ClearCart(ctx context.Context, owner string) error {
	_, err := c.write(ctx, http.MethodDelete, accountPath(owner, "/cart"), nil)
	return err
}

func (c *Client) CreateOrderFromCart(ctx context.Context, owner, shippingAddress string) ([]string, error) {
	rcpt, err := c.write(ctx, http.MethodPost, accountPath(owner, "/orders"), struct {
		ShippingAddress string `json:"shipping_address"`
	}{shippingAddress})
	if err != nil {
		return nil, err
	}
	return rcpt.OrderIDs, nil
}

func (c *Client) AddProduct(ctx context.Context, p ledger.Product) (string, error) {
	rcpt, err := c.write(ctx, http.MethodPost, "/v1/products", fromWireProduct(p))
	if err != nil {
		return "", err
	}
	return rcpt.EntityID, nil
}

func (c *Client) UpdateProduct(ctx context.Context, p ledger.Product) error {
	_, err := c.write(ctx, http.MethodPut, "/v1/products/"+url.PathEscape(p.ID), fromWireProduct(p))
	return err
}
