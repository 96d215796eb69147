package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/harvestmkt/marketcore/internal/catalog/domain"
	"github.com/harvestmkt/marketcore/internal/ledger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
)

// Resolver resolves product ids to display-ready snapshots, memoizing
// them in a size-bounded, TTL-expiring cache shared by every consumer of
// the session. Concurrent resolves for the same uncached id are coalesced
// into a single ledger read.
type Resolver struct {
	src Source
	log *slog.Logger

	cache    *expirable.LRU[string, domain.Product]
	listings *expirable.LRU[string, []domain.Product]
	flight   singleflight.Group
}

func NewResolver(src Source, size int, ttl time.Duration, log *slog.Logger) *Resolver {
	if size <= 0 {
		size = 512
	}
	return &Resolver{
		src:      src,
		log:      log,
		cache:    expirable.NewLRU[string, domain.Product](size, nil, ttl),
		listings: expirable.NewLRU[string, []domain.Product](size, nil, ttl),
	}
}

// Product returns the snapshot for id, fetching it from the ledger on a
// cache miss. A read failure is logged and returned; absence of a product
// means "unknown", not "nonexistent".
func (r *Resolver) Product(ctx context.Context, id string) (domain.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Product{}, ErrInvalidInput
	}

	if p, ok := r.cache.Get(id); ok {
		return p, nil
	}

	v, err, _ := r.flight.Do(id, func() (any, error) {
		raw, err := r.src.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		p := fromWire(raw)
		r.cache.Add(id, p)
		return p, nil
	})
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return domain.Product{}, ErrNotFound
		}
		r.log.Warn("product fetch failed", slog.String("product_id", id), slog.Any("err", err))
		return domain.Product{}, err
	}
	return v.(domain.Product), nil
}

// SellerProducts lists the products a seller has on the ledger, through
// the listing cache. Individual snapshots from a listing also prime the
// per-id cache.
func (r *Resolver) SellerProducts(ctx context.Context, seller string) ([]domain.Product, error) {
	seller = strings.TrimSpace(seller)
	if seller == "" {
		return nil, ErrInvalidInput
	}

	if ps, ok := r.listings.Get(seller); ok {
		return ps, nil
	}

	raws, err := r.src.UserProducts(ctx, seller)
	if err != nil {
		r.log.Warn("listing fetch failed", slog.String("seller", seller), slog.Any("err", err))
		return nil, err
	}

	out := make([]domain.Product, 0, len(raws))
	for _, raw := range raws {
		p := fromWire(raw)
		r.cache.Add(p.ID, p)
		out = append(out, p)
	}
	r.listings.Add(seller, out)
	return out, nil
}

// AddProduct writes a new product to the ledger. On confirmation every
// listing cache entry is dropped so stale listings cannot hide the new
// product.
func (r *Resolver) AddProduct(ctx context.Context, p domain.Product) (string, error) {
	if strings.TrimSpace(p.Name) == "" || !p.Price.IsPositive() {
		return "", ErrInvalidInput
	}

	id, err := r.src.AddProduct(ctx, toWire(p))
	if err != nil {
		return "", fmt.Errorf("add product: %w", err)
	}

	r.listings.Purge()
	return id, nil
}

// UpdateProduct writes changed product fields to the ledger. On
// confirmation the product's cache entry is dropped so the next resolve
// re-reads the updated record.
func (r *Resolver) UpdateProduct(ctx context.Context, p domain.Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrInvalidInput
	}

	if err := r.src.UpdateProduct(ctx, toWire(p)); err != nil {
		return fmt.Errorf("update product %s: %w", p.ID, err)
	}

	r.cache.Remove(p.ID)
	return nil
}

func fromWire(raw ledger.Product) domain.Product {
	return domain.Product{
		ID:            raw.ID,
		Seller:        raw.Seller,
		Name:          raw.Name,
		Category:      raw.Category,
		Price:         ledger.ToDecimal(raw.Price),
		StockQuantity: raw.StockQuantity,
		Unit:          raw.Unit,
		Description:   raw.Description,
		ImageURLs:     raw.ImageURLs,
		IsAvailable:   raw.IsAvailable,
		IsOrganic:     raw.IsOrganic,
		SoldCount:     raw.SoldCount,
		Location:      raw.Location,
	}
}

func toWire(p domain.Product) ledger.Product {
	return ledger.Product{
		ID:            p.ID,
		Seller:        p.Seller,
		Name:          p.Name,
		Category:      p.Category,
		Price:         ledger.FromDecimal(p.Price),
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
