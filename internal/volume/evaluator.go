// Package volume applies the quantity-tiered cart discount.
package volume

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-volume-discounts/internal/cart"
	"github.com/noah-isme/toko-volume-discounts/internal/pricing"
	"github.com/noah-isme/toko-volume-discounts/internal/threshold"
)

// FeeKey identifies the discount fee on a cart.
const FeeKey = "volume_discount"

// Outcome describes what an evaluation did to the cart.
type Outcome string

const (
	OutcomeApplied        Outcome = "applied"
	OutcomeRemovedEmpty   Outcome = "removed_empty"
	OutcomeRemovedNone    Outcome = "removed_none"
	OutcomeRemovedRecheck Outcome = "removed_recheck"
	OutcomeRemovedError   Outcome = "removed_error"
	// OutcomeAppliedZero keeps the tier label on the cart with a zero amount.
	OutcomeAppliedZero Outcome = "applied_zero_percent"
)

// Applied reports whether the fee is present after the evaluation.
func (o Outcome) Applied() bool { return o == OutcomeApplied || o == OutcomeAppliedZero }

// Thresholds is the read side of the threshold repository.
type Thresholds interface {
	Best(ctx context.Context, quantity int64) (threshold.Threshold, bool, error)
	RequiredQuantity(ctx context.Context, id string) (int64, error)
}

// Config carries the host pricing policy the evaluator reads.
type Config struct {
	TaxBPS int
	// TaxesAfterDiscounts adds the cart tax to the discount base.
	TaxesAfterDiscounts bool
}

// Evaluator keeps the volume discount fee on a cart in sync with the tiers.
type Evaluator struct {
	thresholds  Thresholds
	cfg         Config
	log         zerolog.Logger
	evaluations *prometheus.CounterVec
}

// NewEvaluator builds an evaluator. evaluations may be nil.
func NewEvaluator(thresholds Thresholds, cfg Config, log zerolog.Logger, evaluations *prometheus.CounterVec) *Evaluator {
	return &Evaluator{thresholds: thresholds, cfg: cfg, log: log, evaluations: evaluations}
}

// Evaluate adds, replaces or removes the volume discount fee on c. It performs
// exactly one fee mutation and never fails; lookup errors remove the fee.
func (e *Evaluator) Evaluate(ctx context.Context, c *cart.Cart) Outcome {
	outcome, percent := e.evaluate(ctx, c)
	if e.evaluations != nil {
		e.evaluations.WithLabelValues(string(outcome)).Inc()
	}
	evt := e.log.Debug()
	if outcome == OutcomeRemovedError {
		evt = e.log.Warn()
	}
	evt.Str("cart_id", c.ID).
		Int64("quantity", c.Quantity()).
		Int64("percent", percent).
		Str("outcome", string(outcome)).
		Msg("volume discount evaluated")
	return outcome
}

func (e *Evaluator) evaluate(ctx context.Context, c *cart.Cart) (Outcome, int64) {
	quantity := c.Quantity()
	if quantity <= 0 {
		c.RemoveFee(FeeKey)
		return OutcomeRemovedEmpty, 0
	}

	best, ok, err := e.thresholds.Best(ctx, quantity)
	if err != nil {
		e.log.Error().Err(err).Str("cart_id", c.ID).Msg("volume discount lookup failed")
		c.RemoveFee(FeeKey)
		return OutcomeRemovedError, 0
	}
	if !ok {
		c.RemoveFee(FeeKey)
		return OutcomeRemovedNone, 0
	}

	required, err := e.thresholds.RequiredQuantity(ctx, best.ID)
	if err != nil {
		e.log.Error().Err(err).Str("cart_id", c.ID).Str("threshold_id", best.ID).Msg("volume discount recheck failed")
		c.RemoveFee(FeeKey)
		return OutcomeRemovedError, 0
	}
	if required <= 0 || required > quantity {
		c.RemoveFee(FeeKey)
		return OutcomeRemovedRecheck, 0
	}

	subtotal := c.Subtotal()
	base := subtotal
	if e.cfg.TaxesAfterDiscounts {
		base = pricing.Add(base, pricing.Tax(subtotal, e.cfg.TaxBPS))
	}
	amount := FeeAmount(base, best.DiscountPercent)
	c.AddFee(cart.Fee{
		Key:    FeeKey,
		Label:  best.Title,
		Amount: amount,
	})
	if best.DiscountPercent <= 0 {
		return OutcomeAppliedZero, best.DiscountPercent
	}
	return OutcomeApplied, best.DiscountPercent
}

// FeeAmount is -(base * percent / 100) rounded half away from zero to a whole
// minor unit. It is never positive: a non-positive base or percent yields 0 and
// magnitudes beyond int64 clamp to pricing.MaxMoney.
func FeeAmount(base pricing.Money, percent int64) pricing.Money {
	if base <= 0 || percent <= 0 {
		return 0
	}
	amount := decimal.NewFromInt(base).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0)
	return -pricing.FromDecimal(amount)
}
