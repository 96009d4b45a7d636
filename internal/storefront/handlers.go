// Package storefront serves the shopper cart over HTTP. Every cart load and
// mutation runs the volume discount evaluator before the cart is returned.
package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-volume-discounts/internal/cart"
	"github.com/noah-isme/toko-volume-discounts/internal/common"
	"github.com/noah-isme/toko-volume-discounts/internal/pricing"
	"github.com/noah-isme/toko-volume-discounts/internal/volume"
)

// Evaluator keeps cart fees in sync with the configured discounts.
type Evaluator interface {
	Evaluate(ctx context.Context, c *cart.Cart) volume.Outcome
}

// Handler wires the cart service to HTTP.
type Handler struct {
	Svc       *cart.Service
	Evaluator Evaluator
	Validate  *validator.Validate
	Log       zerolog.Logger
	TaxBps    int
	Currency  string
	// MinorUnits is the number of decimal places in one unit of Currency.
	MinorUnits int32
	Mutations  *prometheus.CounterVec
}

type addItemPayload struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Title     string `json:"title" validate:"max=200"`
	Qty       int    `json:"qty" validate:"gt=0,lte=100000"`
	UnitPrice int64  `json:"unitPrice" validate:"gte=0,lte=1000000000000"`
}

type updateItemPayload struct {
	Qty *int `json:"qty" validate:"required,gte=0,lte=100000"`
}

// Routes mounts the cart endpoints. writes wraps the mutating routes.
func (h *Handler) Routes(r chi.Router, writes ...func(http.Handler) http.Handler) {
	r.Get("/{id}", h.Get)
	r.Group(func(r chi.Router) {
		r.Use(writes...)
		r.Post("/", h.Create)
		r.Post("/{id}/items", h.AddItem)
		r.Patch("/{id}/items/{itemId}", h.UpdateItem)
		r.Delete("/{id}/items/{itemId}", h.RemoveItem)
	})
}

// Create opens an empty cart.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Create(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.count("create")
	h.respond(w, r, http.StatusCreated, c)
}

// Get returns the cart with its pricing. Loading the cart re-evaluates the discount.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, r, http.StatusOK, c)
}

// AddItem adds or increments a cart line.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload addItemPayload
	if !h.decode(w, r, &payload) {
		return
	}
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.Svc.AddItem(r.Context(), c, payload.ProductID, payload.Title, payload.Qty, pricing.Money(payload.UnitPrice)); err != nil {
		h.writeError(w, err)
		return
	}
	h.count("add_item")
	h.respond(w, r, http.StatusOK, c)
}

// UpdateItem sets a line quantity. Zero removes the line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var payload updateItemPayload
	if !h.decode(w, r, &payload) {
		return
	}
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.Svc.UpdateQty(r.Context(), c, chi.URLParam(r, "itemId"), *payload.Qty); err != nil {
		h.writeError(w, err)
		return
	}
	h.count("update_item")
	h.respond(w, r, http.StatusOK, c)
}

// RemoveItem deletes a cart line.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.Svc.RemoveItem(r.Context(), c, chi.URLParam(r, "itemId")); err != nil {
		h.writeError(w, err)
		return
	}
	h.count("remove_item")
	h.respond(w, r, http.StatusOK, c)
}

// respond evaluates the discount, persists the cart and writes it with pricing.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, c *cart.Cart) {
	if h.Evaluator != nil {
		h.Evaluator.Evaluate(r.Context(), c)
	}
	if err := h.Svc.Save(r.Context(), c); err != nil {
		h.writeError(w, err)
		return
	}
	summary := c.Summary(h.TaxBps)
	common.Data(w, status, map[string]any{
		"id":         c.ID,
		"items":      c.Items,
		"fees":       c.Fees,
		"quantity":   c.Quantity(),
		"pricing":    summary,
		"display":    h.display(summary),
		"currency":   h.Currency,
		"minorUnits": h.MinorUnits,
		"expiresAt":  c.ExpiresAt,
	})
}

func (h *Handler) display(s pricing.Summary) map[string]string {
	return map[string]string{
		"subtotal": pricing.Format(s.Subtotal, h.MinorUnits),
		"fees":     pricing.Format(s.Fees, h.MinorUnits),
		"tax":      pricing.Format(s.Tax, h.MinorUnits),
		"total":    pricing.Format(s.Total, h.MinorUnits),
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	if h.Validate == nil {
		return true
	}
	if err := h.Validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			common.JSONError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid payload", details)
			return false
		}
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return false
	}
	return true
}

func (h *Handler) count(op string) {
	if h.Mutations != nil {
		h.Mutations.WithLabelValues(op).Inc()
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, cart.ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	default:
		h.Log.Error().Err(err).Msg("cart request failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to process cart", nil)
	}
}
