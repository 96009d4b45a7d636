// Package cart holds the storefront session cart: line items plus named fees.
package cart

import (
	"time"

	"github.com/noah-isme/toko-volume-discounts/internal/pricing"
)

// Item is a cart line.
type Item struct {
	ID        string        `json:"id"`
	ProductID string        `json:"productId"`
	Title     string        `json:"title"`
	Qty       int           `json:"qty"`
	UnitPrice pricing.Money `json:"unitPrice"`
}

// Fee is a named, signed adjustment on the cart. Negative amounts are discounts.
type Fee struct {
	Key    string        `json:"key"`
	Label  string        `json:"label"`
	Amount pricing.Money `json:"amount"`
}

// Cart is the session cart state.
type Cart struct {
	ID        string    `json:"id"`
	Items     []Item    `json:"items"`
	Fees      []Fee     `json:"fees"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Quantity is the sum of line quantities.
func (c *Cart) Quantity() int64 {
	var total int64
	for _, it := range c.Items {
		if it.Qty > 0 {
			total += int64(it.Qty)
		}
	}
	return total
}

// PricingItems converts the lines for pricing calculations.
func (c *Cart) PricingItems() []pricing.Item {
	items := make([]pricing.Item, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, pricing.Item{Qty: it.Qty, UnitPrice: it.UnitPrice})
	}
	return items
}

// Subtotal is the line total before fees and tax.
func (c *Cart) Subtotal() pricing.Money {
	return pricing.Subtotal(c.PricingItems())
}

// AddFee adds fee, replacing any existing fee with the same key.
func (c *Cart) AddFee(fee Fee) {
	for i := range c.Fees {
		if c.Fees[i].Key == fee.Key {
			c.Fees[i] = fee
			return
		}
	}
	c.Fees = append(c.Fees, fee)
}

// RemoveFee drops the fee with key, if present.
func (c *Cart) RemoveFee(key string) {
	kept := c.Fees[:0]
	for _, f := range c.Fees {
		if f.Key != key {
			kept = append(kept, f)
		}
	}
	c.Fees = kept
}

// Fee returns the fee with key.
func (c *Cart) Fee(key string) (Fee, bool) {
	for _, f := range c.Fees {
		if f.Key == key {
			return f, true
		}
	}
	return Fee{}, false
}

// FeeAmounts lists the signed fee amounts.
func (c *Cart) FeeAmounts() []pricing.Money {
	amounts := make([]pricing.Money, 0, len(c.Fees))
	for _, f := range c.Fees {
		amounts = append(amounts, f.Amount)
	}
	return amounts
}

// FeesTotal sums every fee.
func (c *Cart) FeesTotal() pricing.Money {
	var total pricing.Money
	for _, f := range c.Fees {
		total = pricing.Add(total, f.Amount)
	}
	return total
}

// Summary prices the cart at taxBps.
func (c *Cart) Summary(taxBps int) pricing.Summary {
	return pricing.Summarize(c.PricingItems(), c.FeeAmounts(), taxBps)
}
