// Package ledger defines the boundary to the external value-holding
// ledger: read and write operations, their wire-level types, and the
// fixed-point encoding monetary amounts use when crossing it. The ledger
// itself is opaque; implementations live in subpackages.
package ledger

import (
	"context"
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound reports that the requested entity does not exist on the
	// ledger. Readers must treat transport-level failures as "unknown",
	// never as ErrNotFound.
	ErrNotFound = errors.New("ledger: not found")

	// ErrUnavailable reports that the ledger could not be reached or did
	// not answer.
	ErrUnavailable = errors.New("ledger: unavailable")

	// ErrWriteRejected reports a write whose receipt came back failed.
	ErrWriteRejected = errors.New("ledger: write rejected")
)

// priceScaleDigits is the fixed-point exponent: amounts cross the ledger
// boundary as integers scaled by 10^18.
const priceScaleDigits = 18

// PriceScale is 10^18 as a big integer.
var PriceScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(priceScaleDigits), nil)

// ToDecimal converts a raw 10^18-scaled ledger amount into a decimal
// currency amount. The result is display precision only, never
// settlement precision.
func ToDecimal(raw *big.Int) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -priceScaleDigits)
}

// FromDecimal converts a decimal currency amount into the raw
// 10^18-scaled encoding. Digits beyond the scale are truncated.
func FromDecimal(d decimal.Decimal) *big.Int {
	return d.Shift(priceScaleDigits).BigInt()
}

// Product is the ledger-native product record. Price is 10^18-scaled.
type Product struct {
	ID            string
	Seller        string
	Name          string
	Category      string
	Price         *big.Int
	StockQuantity uint64
	Unit          string
	Description   string
	ImageURLs     []string
	IsAvailable   bool
	IsOrganic     bool
	SoldCount     uint64
	Location      string
}

// CartItem is one product/quantity pairing in a ledger-held cart.
type CartItem struct {
	ProductID string
	Quantity  uint64
}

// Order status codes as the ledger encodes them.
const (
	OrderStatusEscrowed   uint8 = 0
	OrderStatusInDelivery uint8 = 1
	OrderStatusCompleted  uint8 = 2
	OrderStatusDisputed   uint8 = 3
)

// Order is the ledger-native order record. ProductIDs and Quantities are
// parallel: index i of Quantities belongs to index i of ProductIDs.
// TotalPrice and ShippingFee are 10^18-scaled.
type Order struct {
	ID              string
	Buyer           string
	Seller          string
	ProductIDs      []string
	Quantities      []uint64
	TotalPrice      *big.Int
	ShippingFee     *big.Int
	Status          uint8
	ShippingAddress string
	TrackingInfo    string
}

// Receipt statuses for the write lifecycle.
const (
	ReceiptPending   = "pending"
	ReceiptConfirmed = "confirmed"
	ReceiptFailed    = "failed"
)

// Receipt describes the lifecycle of a submitted write.
type Receipt struct {
	TxID     string
	Status   string
	Error    string
	OrderIDs []string
}

// Reader is the side-effect-free half of the ledger surface. Each call
// either returns a value or fails; there are no partial results.
type Reader interface {
	CartItems(ctx context.Context, owner string) ([]CartItem, error)
	CartTotal(ctx context.Context, owner string) (*big.Int, error)
	Product(ctx context.Context, id string) (Product, error)
	OrderDetails(ctx context.Context, orderID string) (Order, error)
	UserOrders(ctx context.Context, address string) ([]Order, error)
	SellerOrders(ctx context.Context, address string) ([]Order, error)
	UserProducts(ctx context.Context, address string) ([]Product, error)
}

// Writer is the state-mutating half. Every method blocks until the
// write's receipt reaches a terminal status: a nil error means confirmed,
// a non-nil error means failed or never submitted. No method retries.
type Writer interface {
	AddToCart(ctx context.Context, owner, productID string, quantity uint64) error
	UpdateCartItemQuantity(ctx context.Context, owner, productID string, quantity uint64) error
	ClearCart(ctx context.Context, owner string) error

	// CreateOrderFromCart turns the owner's current cart into orders, one
	// per distinct seller, and returns their ids. The cart on the ledger
	// is emptied as part of the same write.
	CreateOrderFromCart(ctx context.Context, owner, shippingAddress string) ([]string, error)

	AddProduct(ctx context.Context, p Product) (string, error)
	UpdateProduct(ctx context.Context, p Product) error
}

// Ledger is the full remote surface the core depends on.
type Ledger interface {
	Reader
	Writer
}
