package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/toko-volume-discounts/internal/pricing"
)

// ErrNotFound indicates the requested cart (or line) could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// Per-line limits. Larger values are rejected as invalid input.
const (
	MaxLineQty   = 100000
	MaxUnitPrice = pricing.Money(1_000_000_000_000)
)

// Service encapsulates cart domain operations.
type Service struct {
	Store Store
	TTL   time.Duration
	Now   func() time.Time
}

func (s *Service) ttl() time.Duration {
	if s == nil || s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create opens an empty cart.
func (s *Service) Create(ctx context.Context) (*Cart, error) {
	now := s.now().UTC()
	c := &Cart{
		ID:        uuid.NewString(),
		Items:     []Item{},
		Fees:      []Fee{},
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if err := s.Store.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get loads a cart.
func (s *Service) Get(ctx context.Context, id string) (*Cart, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	return s.Store.Get(ctx, id)
}

// Save persists c and slides its expiry forward.
func (s *Service) Save(ctx context.Context, c *Cart) error {
	c.ExpiresAt = s.now().UTC().Add(s.ttl())
	return s.Store.Save(ctx, c)
}

// AddItem adds qty of a product, merging into an existing line for the same product.
func (s *Service) AddItem(ctx context.Context, c *Cart, productID, title string, qty int, unitPrice pricing.Money) (Item, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return Item{}, fmt.Errorf("productId is required: %w", ErrInvalidInput)
	}
	if qty <= 0 {
		return Item{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	if unitPrice < 0 || unitPrice > MaxUnitPrice {
		return Item{}, fmt.Errorf("unitPrice must be between 0 and %d: %w", MaxUnitPrice, ErrInvalidInput)
	}
	if qty > MaxLineQty {
		return Item{}, fmt.Errorf("qty must not exceed %d: %w", MaxLineQty, ErrInvalidInput)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			if c.Items[i].Qty+qty > MaxLineQty {
				return Item{}, fmt.Errorf("qty must not exceed %d: %w", MaxLineQty, ErrInvalidInput)
			}
			c.Items[i].Qty += qty
			c.Items[i].UnitPrice = unitPrice
			if title != "" {
				c.Items[i].Title = title
			}
			return c.Items[i], nil
		}
	}
	item := Item{ID: uuid.NewString(), ProductID: productID, Title: title, Qty: qty, UnitPrice: unitPrice}
	c.Items = append(c.Items, item)
	return item, nil
}

// UpdateQty sets the quantity of a line; qty <= 0 removes it.
func (s *Service) UpdateQty(ctx context.Context, c *Cart, itemID string, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, c, itemID)
	}
	if qty > MaxLineQty {
		return fmt.Errorf("qty must not exceed %d: %w", MaxLineQty, ErrInvalidInput)
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Qty = qty
			return nil
		}
	}
	return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
}

// RemoveItem drops a line.
func (s *Service) RemoveItem(_ context.Context, c *Cart, itemID string) error {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
}
