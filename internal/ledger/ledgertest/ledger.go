// Package ledgertest provides an in-memory ledger used by tests and by
// marketd in standalone mode. It mimics the remote ledger's observable
// behavior (escrow orders, per-seller order split, fixed-point amounts)
// without any settlement logic.
package ledgertest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/google/uuid"

	"github.com/harvestmkt/marketcore/internal/ledger"
)

// DefaultShippingFee is the flat per-order shipping fee the fake ledger
// charges, 10^18-scaled ($5.00).
var DefaultShippingFee = new(big.Int).Mul(big.NewInt(5), ledger.PriceScale)

// Ledger is an in-memory ledger.Ledger. Safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	products     map[string]ledger.Product
	productOrder []string

	carts  map[string][]ledger.CartItem
	orders map[string]ledger.Order

	shippingFee *big.Int

	writeErr      error
	failingWrites int

	readErr      error
	failingReads int
}

var _ ledger.Ledger = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{
		products:    make(map[string]ledger.Product),
		carts:       make(map[string][]ledger.CartItem),
		orders:      make(map[string]ledger.Order),
		shippingFee: DefaultShippingFee,
	}
}

// FailNextWrites makes the next n writes fail with err before touching
// any state.
func (l *Ledger) FailNextWrites(n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failingWrites = n
	l.writeErr = err
}

// FailNextReads makes the next n reads fail with err.
func (l *Ledger) FailNextReads(n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failingReads = n
	l.readErr = err
}

// SeedProduct installs a product, assigning an id when p.ID is empty.
func (l *Ledger) SeedProduct(p ledger.Product) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if _, ok := l.products[p.ID]; !ok {
		l.productOrder = append(l.productOrder, p.ID)
	}
	l.products[p.ID] = p
	return p.ID
}

// SetShippingFee overrides the flat per-order fee.
func (l *Ledger) SetShippingFee(raw *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.shippingFee = new(big.Int).Set(raw)
}

// SetOrderStatus drives an externally-owned status transition, the way
// the real ledger would after delivery or dispute events.
func (l *Ledger) SetOrderStatus(orderID string, status uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return ledger.ErrNotFound
	}
	o.Status = status
	l.orders[orderID] = o
	return nil
}

func (l *Ledger) nextReadErr() error {
	if l.failingReads > 0 {
		l.failingReads--
		return l.readErr
	}
	return nil
}

func (l *Ledger) nextWriteErr() error {
	if l.failingWrites > 0 {
		l.failingWrites--
		return l.writeErr
	}
	return nil
}

func (l *Ledger) CartItems(ctx context.Context, owner string) ([]ledger.CartItem, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextReadErr(); err != nil {
		return nil, err
	}
	items := make([]ledger.CartItem, len(l.carts[owner]))
	copy(items, l.carts[owner])
	return items, nil
}

func (l *Ledger) CartTotal(ctx context.Context, owner string) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextReadErr(); err != nil {
		return nil, err
	}
	total := new(big.Int)
	for _, it := range l.carts[owner] {
		p, ok := l.products[it.ProductID]
		if !ok {
			continue
		}
		line := new(big.Int).Mul(p.Price, new(big.Int).SetUint64(it.Quantity))
		total.Add(total, line)
	}
	return total, nil
}

func (l *Ledger) Product(ctx context.Context, id string) (ledger.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextReadErr(); err != nil {
		return ledger.Product{}, err
	}
	p, ok := l.products[id]
	if !ok {
		return ledger.Product{}, ledger.ErrNotFound
	}
	return p, nil
}

func (l *Ledger) OrderDetails(ctx context.Context, orderID string) (ledger.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextReadErr(); err != nil {
		return ledger.Order{}, err
	}
	o, ok := l.orders[orderID]
	if !ok {
		return ledger.Order{}, ledger.ErrNotFound
	}
	return o, nil
}

func (l *Ledger) UserOrders(ctx context.Context, address string) ([]ledger.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextReadErr(); err != nil {
		return nil, err
	}
	var out []ledger.Order
	for _, o := range l.orders {
		if o.Buyer == address {
			out = append(out, o)
		}
	}
	return out, nil
}

func (l *Ledger) SellerOrders(ctx context.Context, address string) ([]ledger.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextReadErr(); err != nil {
		return nil, err
	}
	var out []ledger.Order
	for _, o := range l.orders {
		if o.Seller == address {
			out = append(out, o)
		}
	}
	return out, nil
}

func (l *Ledger) UserProducts(ctx context.Context, address string) ([]ledger.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextReadErr(); err != nil {
		return nil, err
	}
	var out []ledger.Product
	for _, id := range l.productOrder {
		p := l.products[id]
		if p.Seller == address {
			out = append(out, p)
		}
	}
	return out, nil
}

func (l *Ledger) AddToCart(ctx context.Context, owner, productID string, quantity uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextWriteErr(); err != nil {
		return err
	}
	if quantity == 0 {
		return fmt.Errorf("%w: zero quantity", ledger.ErrWriteRejected)
	}
	if _, ok := l.products[productID]; !ok {
		return fmt.Errorf("%w: unknown product %s", ledger.ErrWriteRejected, productID)
	}
	items := l.carts[owner]
	for i, it := range items {
		if it.ProductID == productID {
			items[i].Quantity += quantity
			l.carts[owner] = items
			return nil
		}
	}
	l.carts[owner] = append(items, ledger.CartItem{ProductID: productID, Quantity: quantity})
	return nil
}

func (l *Ledger) UpdateCartItemQuantity(ctx context.Context, owner, productID string, quantity uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextWriteErr(); err != nil {
		return err
	}
	items := l.carts[owner]
	for i, it := range items {
		if it.ProductID != productID {
			continue
		}
		if quantity == 0 {
			l.carts[owner] = append(items[:i:i], items[i+1:]...)
		} else {
			items[i].Quantity = quantity
			l.carts[owner] = items
		}
		return nil
	}
	return fmt.Errorf("%w: product %s not in cart", ledger.ErrWriteRejected, productID)
}

func (l *Ledger) ClearCart(ctx context.Context, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextWriteErr(); err != nil {
		return err
	}
	delete(l.carts, owner)
	return nil
}

// CreateOrderFromCart groups the cart by seller, escrows one order per
// seller, empties the cart, and bumps each product's sold count.
func (l *Ledger) CreateOrderFromCart(ctx context.Context, owner, shippingAddress string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextWriteErr(); err != nil {
		return nil, err
	}
	if shippingAddress == "" {
		return nil, fmt.Errorf("%w: empty shipping address", ledger.ErrWriteRejected)
	}
	items := l.carts[owner]
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty cart", ledger.ErrWriteRejected)
	}

	type group struct {
		ids  []string
		qtys []uint64
		sum  *big.Int
	}
	groups := make(map[string]*group)
	var sellers []string
	for _, it := range items {
		p, ok := l.products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown product %s", ledger.ErrWriteRejected, it.ProductID)
		}
		g, ok := groups[p.Seller]
		if !ok {
			g = &group{sum: new(big.Int)}
			groups[p.Seller] = g
			sellers = append(sellers, p.Seller)
		}
		g.ids = append(g.ids, it.ProductID)
		g.qtys = append(g.qtys, it.Quantity)
		line := new(big.Int).Mul(p.Price, new(big.Int).SetUint64(it.Quantity))
		g.sum.Add(g.sum, line)

		p.SoldCount += it.Quantity
		l.products[it.ProductID] = p
	}

	var orderIDs []string
	for _, seller := range sellers {
		g := groups[seller]
		id := uuid.NewString()
		l.orders[id] = ledger.Order{
			ID:              id,
			Buyer:           owner,
			Seller:          seller,
			ProductIDs:      g.ids,
			Quantities:      g.qtys,
			TotalPrice:      new(big.Int).Add(g.sum, l.shippingFee),
			ShippingFee:     new(big.Int).Set(l.shippingFee),
			Status:          ledger.OrderStatusEscrowed,
			ShippingAddress: shippingAddress,
		}
		orderIDs = append(orderIDs, id)
	}

	delete(l.carts, owner)
	return orderIDs, nil
}

func (l *Ledger) AddProduct(ctx context.Context, p ledger.Product) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextWriteErr(); err != nil {
		return "", err
	}
	if p.Name == "" || p.Price == nil || p.Price.Sign() <= 0 {
		return "", fmt.Errorf("%w: invalid product", ledger.ErrWriteRejected)
	}
	p.ID = uuid.NewString()
	l.products[p.ID] = p
	l.productOrder = append(l.productOrder, p.ID)
	return p.ID, nil
}

func (l *Ledger) UpdateProduct(ctx context.Context, p ledger.Product) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.nextWriteErr(); err != nil {
		return err
	}
	if _, ok := l.products[p.ID]; !ok {
		return fmt.Errorf("%w: unknown product %s", ledger.ErrWriteRejected, p.ID)
	}
	l.products[p.ID] = p
	return nil
}
