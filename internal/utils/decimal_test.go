package utils

import (
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func TestNumericToDecimal(t *testing.T) {
	cases := []struct {
		name     string
		value    pgtype.Numeric
		expected string
	}{
		{name: "invalid", value: pgtype.Numeric{}, expected: "0"},
		{name: "whole", value: pgtype.Numeric{Int: big.NewInt(1500), Exp: 0, Valid: true}, expected: "1500"},
		{name: "cents", value: pgtype.Numeric{Int: big.NewInt(150001), Exp: -2, Valid: true}, expected: "1500.01"},
		{name: "negative", value: pgtype.Numeric{Int: big.NewInt(-250), Exp: -1, Valid: true}, expected: "-25"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			expected, err := decimal.NewFromString(tc.expected)
			if err != nil {
				t.Fatal(err)
			}
			if got := NumericToDecimal(tc.value); !got.Equal(expected) {
				t.Fatalf("expected %s, got %s", expected, got)
			}
		})
	}
}

func TestDecimalToNumericRoundTrip(t *testing.T) {
	original, err := decimal.NewFromString("1234.56")
	if err != nil {
		t.Fatal(err)
	}
	back := NumericToDecimal(DecimalToNumeric(original))
	if !back.Equal(original) {
		t.Fatalf("expected %s, got %s", original, back)
	}
}
