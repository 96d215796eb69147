package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harvestmkt/marketcore/internal/ledger"
	"github.com/harvestmkt/marketcore/internal/order/domain"
)

var (
	// ErrInvalidAddress rejects a submission before any remote call is
	// attempted. Field-level checkout validation (names, city, zip) is
	// the caller's job; the flow only enforces its own contract.
	ErrInvalidAddress = errors.New("shipping address required")

	ErrNotFound = errors.New("not found")
)

// Service is the order submission flow plus the order read side. A
// submission converts the current cart into a single create-order write;
// only after that write confirms is the local cart cleared. On failure
// the cart is left untouched and the error re-raised so the caller can
// offer a retry. Nothing here retries automatically.
type Service struct {
	owner  string
	ledger OrderLedger
	cart   LocalCart
	notify Notifier
	log    *slog.Logger
}

func NewService(owner string, led OrderLedger, cart LocalCart, notify Notifier, log *slog.Logger) *Service {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Service{
		owner:  owner,
		ledger: led,
		cart:   cart,
		notify: notify,
		log:    log,
	}
}

// Submit creates orders from the owner's ledger-held cart.
func (s *Service) Submit(ctx context.Context, shippingAddress string) ([]string, error) {
	shippingAddress = strings.TrimSpace(shippingAddress)
	if shippingAddress == "" {
		return nil, ErrInvalidAddress
	}

	ids, err := s.ledger.CreateOrderFromCart(ctx, s.owner, shippingAddress)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.cart.ClearLocal()
	s.notify.OrderPlaced(ids)
	s.log.Info("order placed", slog.Int("orders", len(ids)))
	return ids, nil
}

// Details reads one order. Absence means "unknown", not "nonexistent",
// when the read itself failed.
func (s *Service) Details(ctx context.Context, orderID string) (domain.Order, error) {
	raw, err := s.ledger.OrderDetails(ctx, orderID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return domain.Order{}, ErrNotFound
		}
		s.log.Warn("order fetch failed", slog.String("order_id", orderID), slog.Any("err", err))
		return domain.Order{}, err
	}
	return fromWire(raw)
}

// ForBuyer lists the session actor's purchases.
func (s *Service) ForBuyer(ctx context.Context) ([]domain.Order, error) {
	raws, err := s.ledger.UserOrders(ctx, s.owner)
	if err != nil {
		s.log.Warn("buyer orders fetch failed", slog.Any("err", err))
		return nil, err
	}
	return fromWireAll(raws)
}

// ForSeller lists orders addressed to the session actor as seller.
func (s *Service) ForSeller(ctx context.Context) ([]domain.Order, error) {
	raws, err := s.ledger.SellerOrders(ctx, s.owner)
	if err != nil {
		s.log.Warn("seller orders fetch failed", slog.Any("err", err))
		return nil, err
	}
	return fromWireAll(raws)
}

func fromWireAll(raws []ledger.Order) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(raws))
	for _, raw := range raws {
		o, err := fromWire(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func fromWire(raw ledger.Order) (domain.Order, error) {
	status, err := domain.StatusFromCode(raw.Status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", raw.ID, err)
	}

	o := domain.Order{
		ID:              raw.ID,
		Buyer:           raw.Buyer,
		Seller:          raw.Seller,
		ProductIDs:      raw.ProductIDs,
		Quantities:      raw.Quantities,
		TotalPrice:      ledger.ToDecimal(raw.TotalPrice),
		ShippingFee:     ledger.ToDecimal(raw.ShippingFee),
		Status:          status,
		ShippingAddress: raw.ShippingAddress,
		TrackingInfo:    raw.TrackingInfo,
	}
	if err := o.Validate(); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}
