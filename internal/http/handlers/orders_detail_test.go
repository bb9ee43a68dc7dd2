package handlers

import (
	"testing"
	"time"

	"swiftmart-admin-services/internal/discounts"

	"github.com/shopspring/decimal"
)

func TestDiscountBreakdown(t *testing.T) {
	window := func(d discounts.Discount) discounts.Discount {
		d.ValidFrom = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		d.ValidUntil = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
		d.IsActive = true
		return d
	}
	placedAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("percentage with cap", func(t *testing.T) {
		d := window(discounts.Discount{
			Code:                  "SAVE10",
			Name:                  "Ten percent",
			Type:                  discounts.TypePercentage,
			Value:                 decimal.NewFromInt(10),
			MaximumDiscountAmount: decimal.NewFromInt(50),
		})
		bd := discountBreakdown(d, decimal.NewFromInt(1000), decimal.NewFromInt(50), placedAt)
		if bd.ComputedAmount != 50 {
			t.Fatalf("got computedAmount=%v, want capped 50", bd.ComputedAmount)
		}
		if !bd.Applicable || bd.IneligibleReason != nil {
			t.Fatalf("expected applicable, got reason %v", bd.IneligibleReason)
		}
	})

	t.Run("fixed clamped to subtotal", func(t *testing.T) {
		d := window(discounts.Discount{
			Code:  "FLAT200",
			Name:  "Flat",
			Type:  discounts.TypeFixed,
			Value: decimal.NewFromInt(200),
		})
		bd := discountBreakdown(d, decimal.NewFromInt(120), decimal.NewFromInt(120), placedAt)
		if bd.ComputedAmount != 120 {
			t.Fatalf("got computedAmount=%v, want clamped 120", bd.ComputedAmount)
		}
	})

	t.Run("below minimum order carries a reason", func(t *testing.T) {
		d := window(discounts.Discount{
			Code:               "BIG",
			Name:               "Big orders",
			Type:               discounts.TypeFixed,
			Value:              decimal.NewFromInt(20),
			MinimumOrderAmount: decimal.NewFromInt(500),
		})
		bd := discountBreakdown(d, decimal.NewFromInt(100), decimal.Zero, placedAt)
		if bd.Applicable {
			t.Fatal("expected not applicable")
		}
		if bd.IneligibleReason == nil || *bd.IneligibleReason == "" {
			t.Fatal("expected a non-empty ineligible reason")
		}
	})

	t.Run("inactive code carries a reason", func(t *testing.T) {
		d := window(discounts.Discount{
			Code:  "OLD",
			Name:  "Retired",
			Type:  discounts.TypeFixed,
			Value: decimal.NewFromInt(10),
		})
		d.IsActive = false
		bd := discountBreakdown(d, decimal.NewFromInt(100), decimal.NewFromInt(10), placedAt)
		if bd.Applicable || bd.IneligibleReason == nil {
			t.Fatal("expected inactive discount to be flagged")
		}
		if bd.AppliedAmount != 10 {
			t.Fatalf("applied amount must still reflect the order row, got %v", bd.AppliedAmount)
		}
	})
}
