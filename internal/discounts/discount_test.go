package discounts

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func validDiscount() Discount {
	return Discount{
		Code:       "WELCOME10",
		Name:       "Welcome discount",
		Type:       TypePercentage,
		Value:      dec("10"),
		ValidFrom:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		IsActive:   true,
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Discount)
		code   ErrorCode
	}{
		{name: "valid", mutate: func(*Discount) {}},
		{name: "blank code", mutate: func(d *Discount) { d.Code = "  " }, code: ErrCodeRequired},
		{name: "blank name", mutate: func(d *Discount) { d.Name = "" }, code: ErrNameRequired},
		{name: "bad type", mutate: func(d *Discount) { d.Type = "bogo" }, code: ErrTypeInvalid},
		{name: "zero value", mutate: func(d *Discount) { d.Value = dec("0") }, code: ErrValueInvalid},
		{name: "percentage over 100", mutate: func(d *Discount) { d.Value = dec("101") }, code: ErrPercentageOverLimit},
		{name: "fixed over 100 allowed", mutate: func(d *Discount) { d.Type = TypeFixed; d.Value = dec("250") }},
		{name: "negative min order", mutate: func(d *Discount) { d.MinimumOrderAmount = dec("-1") }, code: ErrAmountNegative},
		{name: "negative usage limit", mutate: func(d *Discount) { d.UsageLimit = -1 }, code: ErrUsageLimitNegative},
		{name: "window inverted", mutate: func(d *Discount) { d.ValidFrom, d.ValidUntil = d.ValidUntil, d.ValidFrom }, code: ErrValidityWindowInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDiscount()
			tc.mutate(&d)
			err := Validate(d)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("expected valid, got %s", err.Code)
				}
				return
			}
			if err == nil || err.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestAmount(t *testing.T) {
	d := validDiscount()
	if got := Amount(d, dec("200.00")); !got.Equal(dec("20.00")) {
		t.Fatalf("expected 20.00, got %s", got)
	}

	d.MaximumDiscountAmount = dec("15.00")
	if got := Amount(d, dec("200.00")); !got.Equal(dec("15.00")) {
		t.Fatalf("cap must apply, got %s", got)
	}

	fixed := validDiscount()
	fixed.Type = TypeFixed
	fixed.Value = dec("50.00")
	if got := Amount(fixed, dec("30.00")); !got.Equal(dec("30.00")) {
		t.Fatalf("fixed discount must clamp to the order total, got %s", got)
	}
}

func TestApplicable(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	d := validDiscount()
	if err := Applicable(d, dec("100.00"), now); err != nil {
		t.Fatalf("expected applicable, got %s", err.Code)
	}

	inactive := validDiscount()
	inactive.IsActive = false
	if err := Applicable(inactive, dec("100.00"), now); err == nil || err.Code != ErrNotActive {
		t.Fatalf("expected NOT_ACTIVE, got %v", err)
	}

	early := validDiscount()
	if err := Applicable(early, dec("100.00"), time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)); err == nil || err.Code != ErrNotStarted {
		t.Fatalf("expected NOT_STARTED, got %v", err)
	}

	expired := validDiscount()
	if err := Applicable(expired, dec("100.00"), time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)); err == nil || err.Code != ErrExpired {
		t.Fatalf("expected EXPIRED, got %v", err)
	}

	exhausted := validDiscount()
	exhausted.UsageLimit = 5
	exhausted.UsageCount = 5
	if err := Applicable(exhausted, dec("100.00"), now); err == nil || err.Code != ErrUsageLimitReached {
		t.Fatalf("expected USAGE_LIMIT_REACHED, got %v", err)
	}

	minGate := validDiscount()
	minGate.MinimumOrderAmount = dec("150.00")
	if err := Applicable(minGate, dec("100.00"), now); err == nil || err.Code != ErrMinOrderNotMet {
		t.Fatalf("expected MIN_ORDER_NOT_MET, got %v", err)
	}
}
