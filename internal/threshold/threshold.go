// Package threshold models volume discount tiers stored as content records.
package threshold

import (
	"context"
	"fmt"

	"github.com/noah-isme/toko-volume-discounts/internal/content"
)

const (
	// Type is the content record type of a threshold.
	Type = "volume_discount"
	// MetaRequiredQuantity holds the minimum cart quantity.
	MetaRequiredQuantity = "_volume_discount_number"
	// MetaDiscountPercent holds the discount percentage.
	MetaDiscountPercent = "_volume_discount_amount"
)

// Threshold is a (quantity, percent) discount rule.
type Threshold struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	RequiredQuantity int64  `json:"required_quantity"`
	DiscountPercent  int64  `json:"discount_percent"`
	Status           string `json:"status"`
}

// FromRecord reads a threshold out of a content record and its meta.
func FromRecord(rec content.Record) Threshold {
	return Threshold{
		ID:               rec.ID,
		Title:            rec.Title,
		RequiredQuantity: content.NumericValue(rec.Meta[MetaRequiredQuantity]),
		DiscountPercent:  content.NumericValue(rec.Meta[MetaDiscountPercent]),
		Status:           rec.Status,
	}
}

// Repository reads thresholds from the content store.
type Repository struct {
	store content.Store
}

// NewRepository wraps store.
func NewRepository(store content.Store) *Repository {
	return &Repository{store: store}
}

// Best returns the published threshold with the greatest required quantity <= quantity.
func (r *Repository) Best(ctx context.Context, quantity int64) (Threshold, bool, error) {
	rec, ok, err := r.store.FindMaxMetaAtMost(ctx, Type, content.StatusPublish, MetaRequiredQuantity, quantity)
	if err != nil || !ok {
		return Threshold{}, false, err
	}
	meta, err := r.store.Meta(ctx, rec.ID)
	if err != nil {
		return Threshold{}, false, fmt.Errorf("load threshold meta: %w", err)
	}
	rec.Meta = meta
	return FromRecord(rec), true, nil
}

// RequiredQuantity re-reads the stored required quantity of id. Missing values read as 0.
func (r *Repository) RequiredQuantity(ctx context.Context, id string) (int64, error) {
	value, _, err := r.store.GetMeta(ctx, id, MetaRequiredQuantity)
	if err != nil {
		return 0, err
	}
	return content.NumericValue(value), nil
}
