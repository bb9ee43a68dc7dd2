package inventory

import "testing"

func TestValidMovementType(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"in", true},
		{"out", true},
		{"adjustment", true},
		{"transfer", true},
		{"reservation", true},
		{"restoration", true},
		{"restock", false},
		{"damage", false},
		{"return", false},
		{"correction", false},
		{"IN", false},
		{"", false},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			if got := ValidMovementType(tc.value); got != tc.want {
				t.Fatalf("ValidMovementType(%q) = %v, want %v", tc.value, got, tc.want)
			}
		})
	}
}
