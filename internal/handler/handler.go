// Package handler exposes the REST/JSON API over chi.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/cookieshop/backend/internal/domain/order"
	"github.com/cookieshop/backend/internal/domain/product"
	"github.com/cookieshop/backend/internal/domain/settings"
)

// Handler implements the store API: settings, catalog, and orders.
type Handler struct {
	products product.Repository
	orders   *order.Service
	ledger   order.Repository
	settings settings.Repository
}

// New constructs a Handler with the required domain dependencies.
func New(
	products product.Repository,
	orders *order.Service,
	ledger order.Repository,
	set settings.Repository,
) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
		ledger:   ledger,
		settings: set,
	}
}

// Routes registers every API route on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/settings", h.getSettings)
	r.Put("/settings", h.updateSettings)

	r.Get("/products", h.listProducts)
	r.Post("/products", h.createProduct)
	r.Put("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)

	r.Post("/orders", h.placeOrder)
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Put("/orders/{id}/status", h.updateOrderStatus)
}

// --- shared payloads ---

type errorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type messagePayload struct {
	Message string `json:"message"`
}

type productPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type orderItemPayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type orderPayload struct {
	ID          string             `json:"id"`
	Customer    order.Customer     `json:"customer"`
	Items       []orderItemPayload `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
}

func toProductPayload(p product.Product) productPayload {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Images:      images,
		Category:    p.Category,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toOrderPayload(o order.Order) orderPayload {
	items := make([]orderItemPayload, len(o.Items))
	for i, item := range o.Items {
		items[i] = orderItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price.InexactFloat64(),
		}
	}
	return orderPayload{
		ID:          o.ID,
		Customer:    o.Customer,
		Items:       items,
		TotalAmount: o.Total.InexactFloat64(),
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
	}
}

// --- JSON plumbing ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, "invalid json body")
	}
	return nil
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorPayload{Code: http.StatusBadRequest, Message: message})
}

func notFound(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusNotFound, errorPayload{Code: http.StatusNotFound, Message: message})
}

// writeError maps a domain error to an HTTP response. Not-found errors become
// 404s, workflow and validation errors become 400s with their own message,
// and everything else is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, product.ErrNotFound) || errors.Is(err, order.ErrNotFound) {
		notFound(w, errMessage(err))
		return
	}

	var (
		pnf  *order.ProductNotFoundError
		insf *order.InsufficientStockError
		iq   *order.InvalidQuantityError
		ip   *order.InvalidPriceError
		be   *order.BlockedEmailError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, order.ErrInvalidTotal),
		errors.Is(err, order.ErrMissingEmail),
		errors.Is(err, order.ErrEmptyStatus),
		errors.As(err, &pnf),
		errors.As(err, &insf),
		errors.As(err, &iq),
		errors.As(err, &ip),
		errors.As(err, &be):
		badRequest(w, errMessage(err))
		return
	}

	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorPayload{
		Code:    http.StatusInternalServerError,
		Message: "internal server error",
	})
}

// errMessage unwraps service-level context ("create order: ...") so the
// client sees the triggering message only.
func errMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}
