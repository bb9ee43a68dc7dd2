package discounts

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	TypePercentage DiscountType = "percentage"
	TypeFixed      DiscountType = "fixed"
)

// Discount mirrors the discounts table. Amounts are carried as decimals so
// percentage math never drifts on display.
type Discount struct {
	ID                    int64
	Code                  string
	Name                  string
	Type                  DiscountType
	Value                 decimal.Decimal
	MinimumOrderAmount    decimal.Decimal
	MaximumDiscountAmount decimal.Decimal
	UsageLimit            int64
	UsageCount            int64
	ValidFrom             time.Time
	ValidUntil            time.Time
	ApplicableProducts    []int64
	ApplicableCategories  []int64
	IsPublic              bool
	IsActive              bool
}

func ValidType(value string) bool {
	return DiscountType(value) == TypePercentage || DiscountType(value) == TypeFixed
}

// Validate enforces the creation/update contract: percentage values are capped
// at 100 and the validity window must be forward.
func Validate(d Discount) *Error {
	if strings.TrimSpace(d.Code) == "" {
		return ValidationError(ErrCodeRequired, "Discount code is required")
	}
	if strings.TrimSpace(d.Name) == "" {
		return ValidationError(ErrNameRequired, "Discount name is required")
	}
	if !ValidType(string(d.Type)) {
		return ValidationError(ErrTypeInvalid, "Discount type must be percentage or fixed")
	}
	if d.Value.LessThanOrEqual(decimal.Zero) {
		return ValidationError(ErrValueInvalid, "Discount value must be greater than zero")
	}
	if d.Type == TypePercentage && d.Value.GreaterThan(decimal.NewFromInt(100)) {
		return ValidationError(ErrPercentageOverLimit, "Percentage discounts cannot exceed 100")
	}
	if d.MinimumOrderAmount.IsNegative() || d.MaximumDiscountAmount.IsNegative() {
		return ValidationError(ErrAmountNegative, "Discount amounts cannot be negative")
	}
	if d.UsageLimit < 0 {
		return ValidationError(ErrUsageLimitNegative, "Usage limit cannot be negative")
	}
	if !d.ValidFrom.Before(d.ValidUntil) {
		return ValidationError(ErrValidityWindowInvalid, "validFrom must be before validUntil")
	}
	return nil
}

// Amount computes the discount for an order total. Percentage discounts honor
// the cap; fixed discounts never exceed the order total.
func Amount(d Discount, orderTotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch d.Type {
	case TypePercentage:
		amount = orderTotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
		if d.MaximumDiscountAmount.IsPositive() && amount.GreaterThan(d.MaximumDiscountAmount) {
			amount = d.MaximumDiscountAmount
		}
	case TypeFixed:
		amount = d.Value
	default:
		return decimal.Zero
	}
	if amount.GreaterThan(orderTotal) {
		amount = orderTotal
	}
	return amount
}

// Applicable gates application at order time: active, inside the validity
// window, minimum order met, usage limit not exhausted.
func Applicable(d Discount, orderTotal decimal.Decimal, now time.Time) *Error {
	if !d.IsActive {
		return ConflictError(ErrNotActive, "Discount is not active")
	}
	if now.Before(d.ValidFrom) {
		return ConflictError(ErrNotStarted, "Discount is not valid yet")
	}
	if now.After(d.ValidUntil) {
		return ConflictError(ErrExpired, "Discount has expired")
	}
	if d.UsageLimit > 0 && d.UsageCount >= d.UsageLimit {
		return ConflictError(ErrUsageLimitReached, "Discount usage limit reached")
	}
	if orderTotal.LessThan(d.MinimumOrderAmount) {
		return ValidationError(ErrMinOrderNotMet, "Order total does not meet the discount minimum")
	}
	return nil
}
