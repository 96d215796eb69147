package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/harvestmkt/marketcore/internal/cart/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotInCart    = errors.New("product not in cart")
)

// Service is the cart synchronizer. It owns the authoritative local
// projection and keeps it consistent with the remote ledger under
// optimistic-update discipline: the local mutation is applied and visible
// synchronously, the remote write follows, and on write failure the
// projection is restored to its pre-operation snapshot. The same
// compensation path covers every mutating operation.
//
// Operations are not serialized against each other: a second mutation may
// begin before the first's remote write resolves, and the projection is
// last-write-wins. The ledger's own write ordering is its concern.
type Service struct {
	owner    string
	ledger   CartLedger
	products ProductResolver
	notify   Notifier
	log      *slog.Logger

	mu   sync.Mutex
	cart domain.Cart
}

func NewService(owner string, led CartLedger, products ProductResolver, notify Notifier, log *slog.Logger) *Service {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Service{
		owner:    owner,
		ledger:   led,
		products: products,
		notify:   notify,
		log:      log,
	}
}

// Snapshot returns a read projection of the current cart.
func (s *Service) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// apply takes a pre-mutation snapshot, mutates the projection, and
// announces the change. The returned snapshot is what rollback restores.
func (s *Service) apply(mutate func(*domain.Cart)) domain.Cart {
	s.mu.Lock()
	snap := s.cart.Clone()
	mutate(&s.cart)
	changed := s.cart.Clone()
	s.mu.Unlock()

	s.notify.CartChanged(changed)
	return snap
}

// rollback restores a pre-operation snapshot after a failed write and
// surfaces the failure.
func (s *Service) rollback(op string, snap domain.Cart, err error) {
	s.mu.Lock()
	s.cart = snap.Clone()
	s.mu.Unlock()

	s.log.Warn("cart write failed, rolled back",
		slog.String("op", op), slog.Any("err", err))
	s.notify.WriteFailed(op, err)
	s.notify.CartChanged(snap)
}

// AddItem merges quantity of productID into the cart, then writes the
// add to the ledger. The snapshot is resolved first so the line renders
// with product data; a resolve failure leaves the line's snapshot absent
// but does not block the add.
func (s *Service) AddItem(ctx context.Context, productID string, quantity uint64) error {
	productID = strings.TrimSpace(productID)
	if productID == "" || quantity == 0 {
		return ErrInvalidInput
	}

	var snapshot *domain.Line
	if p, err := s.products.Product(ctx, productID); err == nil {
		snapshot = &domain.Line{ProductID: productID, Quantity: quantity, Product: &p}
	} else {
		s.log.Warn("snapshot resolve failed, adding without product data",
			slog.String("product_id", productID), slog.Any("err", err))
	}

	snap := s.apply(func(c *domain.Cart) {
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				c.Lines[i].Quantity += quantity
				if c.Lines[i].Product == nil && snapshot != nil {
					c.Lines[i].Product = snapshot.Product
				}
				return
			}
		}
		line := domain.Line{ProductID: productID, Quantity: quantity}
		if snapshot != nil {
			line.Product = snapshot.Product
		}
		c.Lines = append(c.Lines, line)
	})

	if err := s.ledger.AddToCart(ctx, s.owner, productID, quantity); err != nil {
		s.rollback("add_item", snap, err)
		return fmt.Errorf("add item %s: %w", productID, err)
	}
	return nil
}

// RemoveItem deletes the line locally, then writes the removal to the
// ledger, modeled as setting the quantity to zero.
func (s *Service) RemoveItem(ctx context.Context, productID string) error {
	if _, ok := s.Snapshot().Line(productID); !ok {
		return ErrNotInCart
	}

	snap := s.apply(func(c *domain.Cart) {
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				c.Lines = append(c.Lines[:i:i], c.Lines[i+1:]...)
				return
			}
		}
	})

	if err := s.ledger.UpdateCartItemQuantity(ctx, s.owner, productID, 0); err != nil {
		s.rollback("remove_item", snap, err)
		return fmt.Errorf("remove item %s: %w", productID, err)
	}
	return nil
}

// UpdateQuantity sets the line's quantity. A quantity below one delegates
// to RemoveItem.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, quantity uint64) error {
	if quantity < 1 {
		return s.RemoveItem(ctx, productID)
	}
	if _, ok := s.Snapshot().Line(productID); !ok {
		return ErrNotInCart
	}

	snap := s.apply(func(c *domain.Cart) {
		for i := range c.Lines {
			if c.Lines[i].ProductID == productID {
				c.Lines[i].Quantity = quantity
				return
			}
		}
	})

	if err := s.ledger.UpdateCartItemQuantity(ctx, s.owner, productID, quantity); err != nil {
		s.rollback("update_quantity", snap, err)
		return fmt.Errorf("update quantity %s: %w", productID, err)
	}
	return nil
}

// Clear empties the projection, then writes the clear to the ledger.
func (s *Service) Clear(ctx context.Context) error {
	snap := s.apply(func(c *domain.Cart) {
		c.Lines = nil
	})

	if err := s.ledger.ClearCart(ctx, s.owner); err != nil {
		s.rollback("clear_cart", snap, err)
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ClearLocal empties the projection without a remote write. The order
// flow calls it once the ledger has already consumed the cart.
func (s *Service) ClearLocal() {
	s.mu.Lock()
	s.cart = domain.Cart{}
	s.mu.Unlock()
	s.notify.CartChanged(domain.Cart{})
}

// Refresh replaces the projection with the ledger's view of the cart,
// resolving snapshots best-effort. Used at session start.
func (s *Service) Refresh(ctx context.Context) error {
	items, err := s.ledger.CartItems(ctx, s.owner)
	if err != nil {
		return fmt.Errorf("refresh cart: %w", err)
	}

	lines := make([]domain.Line, 0, len(items))
	for _, it := range items {
		line := domain.Line{ProductID: it.ProductID, Quantity: it.Quantity}
		if p, err := s.products.Product(ctx, it.ProductID); err == nil {
			line.Product = &p
		} else {
			s.log.Warn("snapshot resolve failed during refresh",
				slog.String("product_id", it.ProductID), slog.Any("err", err))
		}
		lines = append(lines, line)
	}

	s.mu.Lock()
	s.cart = domain.Cart{Lines: lines}
	changed := s.cart.Clone()
	s.mu.Unlock()

	s.notify.CartChanged(changed)
	return nil
}
