package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	cartapp "github.com/harvestmkt/marketcore/internal/cart/app"
	cartdomain "github.com/harvestmkt/marketcore/internal/cart/domain"
	catalogapp "github.com/harvestmkt/marketcore/internal/catalog/app"
	catalogdomain "github.com/harvestmkt/marketcore/internal/catalog/domain"
	checkoutapp "github.com/harvestmkt/marketcore/internal/checkout/app"
	orderapp "github.com/harvestmkt/marketcore/internal/order/app"
	orderdomain "github.com/harvestmkt/marketcore/internal/order/domain"
	"github.com/harvestmkt/marketcore/internal/session"
)

type server struct {
	cart     *cartapp.Service
	catalog  *catalogapp.Resolver
	checkout *checkoutapp.Service
	orders   *orderapp.Service
	profiles session.Store
	session  session.Session
	log      *slog.Logger
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	mux.HandleFunc("GET /v1/cart", s.handleGetCart)
	mux.HandleFunc("POST /v1/cart/items", s.handleAddItem)
	mux.HandleFunc("PUT /v1/cart/items/{id}", s.handleUpdateQuantity)
	mux.HandleFunc("DELETE /v1/cart/items/{id}", s.handleRemoveItem)
	mux.HandleFunc("DELETE /v1/cart", s.handleClearCart)

	mux.HandleFunc("GET /v1/checkout/quote", s.handleQuote)

	mux.HandleFunc("POST /v1/orders", s.handleSubmitOrder)
	mux.HandleFunc("GET /v1/orders", s.handleListOrders)
	mux.HandleFunc("GET /v1/orders/{id}", s.handleOrderDetails)

	mux.HandleFunc("GET /v1/products/{id}", s.handleGetProduct)
	mux.HandleFunc("GET /v1/products", s.handleListProducts)
	mux.HandleFunc("POST /v1/products", s.handleAddProduct)
	mux.HandleFunc("PUT /v1/products/{id}", s.handleUpdateProduct)

	mux.HandleFunc("GET /v1/profile", s.handleGetProfile)
	mux.HandleFunc("PUT /v1/profile", s.handlePutProfile)

	return mux
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("response encode failed", slog.Any("err", err))
	}
}

func (s *server) writeErr(w http.ResponseWriter, err error) {
	status, code, msg := httpStatusFromErr(err)
	s.writeJSON(w, status, map[string]string{"code": code, "error": msg})
}

func display(d decimal.Decimal) string { return d.StringFixed(2) }

type lineJSON struct {
	ProductID string       `json:"product_id"`
	Quantity  uint64       `json:"quantity"`
	Product   *productJSON `json:"product,omitempty"`
	LineTotal string       `json:"line_total,omitempty"`
}

type cartJSON struct {
	Lines     []lineJSON `json:"lines"`
	ItemCount uint64     `json:"item_count"`
	Subtotal  string     `json:"subtotal"`
	Tax       string     `json:"tax"`
	Total     string     `json:"total"`
}

type productJSON struct {
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

func toProductJSON(p catalogdomain.Product) *productJSON {
	return &productJSON{
		ID:            p.ID,
		Seller:        p.Seller,
		Name:          p.Name,
		Category:      p.Category,
		Price:         p.Price.String(),
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

func toCartJSON(c cartdomain.Cart) cartJSON {
	lines := make([]lineJSON, 0, len(c.Lines))
	for _, l := range c.Lines {
		lj := lineJSON{ProductID: l.ProductID, Quantity: l.Quantity}
		if l.Product != nil {
			lj.Product = toProductJSON(*l.Product)
			lj.LineTotal = display(l.Product.Price.Mul(decimal.NewFromUint64(l.Quantity)))
		}
		lines = append(lines, lj)
	}
	return cartJSON{
		Lines:     lines,
		ItemCount: c.ItemCount(),
		Subtotal:  display(c.Subtotal()),
		Tax:       display(c.Tax()),
		Total:     display(c.Total()),
	}
}

func (s *server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, toCartJSON(s.cart.Snapshot()))
}

func (s *server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID string `json:"product_id"`
		Quantity  uint64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, cartapp.ErrInvalidInput)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if err := s.cart.AddItem(r.Context(), req.ProductID, req.Quantity); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCartJSON(s.cart.Snapshot()))
}

func (s *server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity uint64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, cartapp.ErrInvalidInput)
		return
	}
	if err := s.cart.UpdateQuantity(r.Context(), r.PathValue("id"), req.Quantity); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCartJSON(s.cart.Snapshot()))
}

func (s *server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := s.cart.RemoveItem(r.Context(), r.PathValue("id")); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCartJSON(s.cart.Snapshot()))
}

func (s *server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.cart.Clear(r.Context()); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toCartJSON(s.cart.Snapshot()))
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	q, err := s.checkout.Quote(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}

	type quoteLineJSON struct {
		ProductID string `json:"product_id"`
		Name      string `json:"name"`
		Quantity  uint64 `json:"quantity"`
		UnitPrice string `json:"unit_price"`
		LineTotal string `json:"line_total"`
	}
	lines := make([]quoteLineJSON, 0, len(q.Lines))
	for _, l := range q.Lines {
		lines = append(lines, quoteLineJSON{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: display(l.UnitPrice),
			LineTotal: display(l.LineTotal),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"lines":        lines,
		"subtotal":     display(q.Subtotal),
		"tax":          display(q.Tax),
		"shipping_fee": display(q.ShippingFee),
		"total":        display(q.Total),
	})
}

func (s *server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName       string `json:"first_name"`
		LastName        string `json:"last_name"`
		City            string `json:"city"`
		Zip             string `json:"zip"`
		ShippingAddress string `json:"shipping_address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, orderapp.ErrInvalidAddress)
		return
	}

	// Checkout-form validation happens here, before the flow is invoked;
	// the flow itself only enforces the non-empty address contract.
	for _, field := range []string{req.FirstName, req.LastName, req.City, req.Zip} {
		if strings.TrimSpace(field) == "" {
			s.writeErr(w, orderapp.ErrInvalidAddress)
			return
		}
	}

	ids, err := s.orders.Submit(r.Context(), req.ShippingAddress)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"order_ids": ids})
}

type orderJSON struct {
	ID              string   `json:"id"`
	Buyer           string   `json:"buyer"`
	Seller          string   `json:"seller"`
	ProductIDs      []string `json:"product_ids"`
	Quantities      []uint64 `json:"quantities"`
	TotalPrice      string   `json:"total_price"`
	ShippingFee     string   `json:"shipping_fee"`
	Status          string   `json:"status"`
	ShippingAddress string   `json:"shipping_address"`
	TrackingInfo    string   `json:"tracking_info"`
}

func toOrderJSON(o orderdomain.Order) orderJSON {
	return orderJSON{
		ID:              o.ID,
		Buyer:           o.Buyer,
		Seller:          o.Seller,
		ProductIDs:      o.ProductIDs,
		Quantities:      o.Quantities,
		TotalPrice:      display(o.TotalPrice),
		ShippingFee:     display(o.ShippingFee),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		TrackingInfo:    o.TrackingInfo,
	}
}

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []orderdomain.Order
		err    error
	)
	if r.URL.Query().Get("side") == "seller" {
		orders, err = s.orders.ForSeller(r.Context())
	} else {
		orders, err = s.orders.ForBuyer(r.Context())
	}
	if err != nil {
		s.writeErr(w, err)
		return
	}

	out := make([]orderJSON, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderJSON(o))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *server) handleOrderDetails(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.Details(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toOrderJSON(o))
}

func (s *server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toProductJSON(p))
}

func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	seller := r.URL.Query().Get("seller")
	if seller == "" {
		seller = s.session.Address
	}
	ps, err := s.catalog.SellerProducts(r.Context(), seller)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]*productJSON, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductJSON(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *server) decodeProduct(r *http.Request) (catalogdomain.Product, error) {
	var req struct {
		Name          string   `json:"name"`
		Category      string   `json:"category"`
		Price         string   `json:"price"`
		StockQuantity uint64   `json:"stock_quantity"`
		Unit          string   `json:"unit"`
		Description   string   `json:"description"`
		ImageURLs     []string `json:"image_urls"`
		IsAvailable   bool     `json:"is_available"`
		IsOrganic     bool     `json:"is_organic"`
		Location      string   `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return catalogdomain.Product{}, catalogapp.ErrInvalidInput
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return catalogdomain.Product{}, catalogapp.ErrInvalidInput
	}
	return catalogdomain.Product{
		Seller:        s.session.Address,
		Name:          req.Name,
		Category:      req.Category,
		Price:         price,
		StockQuantity: req.StockQuantity,
		Unit:          req.Unit,
		Description:   req.Description,
		ImageURLs:     req.ImageURLs,
		IsAvailable:   req.IsAvailable,
		IsOrganic:     req.IsOrganic,
		Location:      req.Location,
	}, nil
}

func (s *server) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.decodeProduct(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	id, err := s.catalog.AddProduct(r.Context(), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.decodeProduct(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	p.ID = r.PathValue("id")
	if err := s.catalog.UpdateProduct(r.Context(), p); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.profiles.Get(r.Context(), s.session.Address)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role     string `json:"role"`
		Name     string `json:"name"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErr(w, session.ErrNotFound)
		return
	}
	role, err := session.ParseRole(req.Role)
	if err != nil {
		s.writeErr(w, catalogapp.ErrInvalidInput)
		return
	}
	p := session.Profile{
		Address:  s.session.Address,
		Role:     role,
		Name:     req.Name,
		Location: req.Location,
	}
	if err := s.profiles.Put(r.Context(), p); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}
