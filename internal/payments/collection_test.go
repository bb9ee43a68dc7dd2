package payments

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return d
}

func TestValidateCollectionAmount(t *testing.T) {
	cases := []struct {
		name    string
		amount  string
		balance string
		code    ErrorCode
	}{
		{name: "zero amount", amount: "0", balance: "1500.00", code: ErrAmountRequired},
		{name: "negative amount", amount: "-10", balance: "1500.00", code: ErrAmountRequired},
		{name: "one cent over balance", amount: "1500.01", balance: "1500.00", code: ErrAmountExceedsBalance},
		{name: "exact balance", amount: "1500.00", balance: "1500.00"},
		{name: "under balance", amount: "750.50", balance: "1500.00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCollectionAmount(dec(tc.amount), dec(tc.balance))
			if tc.code == "" {
				if err != nil {
					t.Fatalf("expected amount to be accepted, got %s", err.Code)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected %s, got nil", tc.code)
			}
			if err.Code != tc.code {
				t.Fatalf("expected %s, got %s", tc.code, err.Code)
			}
		})
	}
}

func TestApplyCollectionFull(t *testing.T) {
	result, err := ApplyCollection(CollectionInput{
		ExpectedAmount:   dec("1500.00"),
		CollectedAmount:  dec("0"),
		CollectionStatus: CollectionNotCollected,
		Amount:           dec("1500.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CollectionStatus != CollectionCollected {
		t.Fatalf("expected collected, got %s", result.CollectionStatus)
	}
	if result.SettlementStatus != SettlementCompleted {
		t.Fatalf("expected completed settlement, got %s", result.SettlementStatus)
	}
	if !result.BalanceAmount.IsZero() {
		t.Fatalf("expected zero balance, got %s", result.BalanceAmount)
	}
}

func TestApplyCollectionPartial(t *testing.T) {
	result, err := ApplyCollection(CollectionInput{
		ExpectedAmount:   dec("1500.00"),
		CollectedAmount:  dec("0"),
		CollectionStatus: CollectionNotCollected,
		Amount:           dec("500.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CollectionStatus != CollectionPartialCollected {
		t.Fatalf("expected partial_collected, got %s", result.CollectionStatus)
	}
	if result.SettlementStatus != SettlementPartial {
		t.Fatalf("expected partial settlement, got %s", result.SettlementStatus)
	}
	if !result.BalanceAmount.Equal(dec("1000.00")) {
		t.Fatalf("expected balance 1000.00, got %s", result.BalanceAmount)
	}
}

func TestApplyCollectionSecondPartialSettles(t *testing.T) {
	result, err := ApplyCollection(CollectionInput{
		ExpectedAmount:   dec("1500.00"),
		CollectedAmount:  dec("1000.00"),
		CollectionStatus: CollectionPartialCollected,
		Amount:           dec("500.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CollectionStatus != CollectionCollected {
		t.Fatalf("expected collected, got %s", result.CollectionStatus)
	}
	if !result.CollectedAmount.Equal(dec("1500.00")) {
		t.Fatalf("expected collected 1500.00, got %s", result.CollectedAmount)
	}
}

func TestApplyCollectionRejectsTerminal(t *testing.T) {
	_, err := ApplyCollection(CollectionInput{
		ExpectedAmount:   dec("100.00"),
		CollectedAmount:  dec("100.00"),
		CollectionStatus: CollectionCollected,
		Amount:           dec("10.00"),
	})
	if err == nil || err.Code != ErrAlreadyCollected {
		t.Fatalf("expected ALREADY_COLLECTED, got %v", err)
	}
}

func TestApplyCollectionOverBalanceWritesNothing(t *testing.T) {
	result, err := ApplyCollection(CollectionInput{
		ExpectedAmount:   dec("1500.00"),
		CollectedAmount:  dec("0"),
		CollectionStatus: CollectionNotCollected,
		Amount:           dec("1500.01"),
	})
	if err == nil || err.Code != ErrAmountExceedsBalance {
		t.Fatalf("expected AMOUNT_EXCEEDS_BALANCE, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected no result on rejection")
	}
}

func TestShortcutAmounts(t *testing.T) {
	balance := dec("1500.00")
	if !FullAmount(balance).Equal(balance) {
		t.Fatalf("full amount must equal the balance")
	}
	if !HalfAmount(balance).Equal(dec("750.00")) {
		t.Fatalf("expected 750.00, got %s", HalfAmount(balance))
	}
	if !HalfAmount(dec("0.01")).Equal(dec("0.01")) && !HalfAmount(dec("0.01")).Equal(dec("0.00")) {
		t.Fatalf("half of a cent must round to a representable amount, got %s", HalfAmount(dec("0.01")))
	}
}

func TestValidateIssueReport(t *testing.T) {
	cases := []struct {
		name        string
		issues      []string
		description string
		code        ErrorCode
	}{
		{name: "no issues", issues: nil, description: "customer gone", code: ErrIssueCodeRequired},
		{name: "unknown code", issues: []string{"dog_ate_cash"}, description: "x", code: ErrIssueCodeInvalid},
		{name: "blank description", issues: []string{"customer_not_available"}, description: "   ", code: ErrIssueDescRequired},
		{name: "valid", issues: []string{"customer_not_available", "other"}, description: "nobody home"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateIssueReport(tc.issues, tc.description)
			if tc.code == "" {
				if err != nil {
					t.Fatalf("expected valid report, got %s", err.Code)
				}
				return
			}
			if err == nil || err.Code != tc.code {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestApplyIssueReport(t *testing.T) {
	collection, settlement, err := ApplyIssueReport(CollectionNotCollected, SettlementPending, []string{"customer_refused_payment"}, "refused at door")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if collection != CollectionFailedCollection {
		t.Fatalf("expected failed_collection, got %s", collection)
	}
	if settlement != SettlementFailed {
		t.Fatalf("expected failed settlement, got %s", settlement)
	}

	_, settlement, err = ApplyIssueReport(CollectionPartialCollected, SettlementPartial, []string{"customer_unreachable"}, "no answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settlement != SettlementPartial {
		t.Fatalf("partial settlement must survive a failed follow-up, got %s", settlement)
	}

	_, _, err = ApplyIssueReport(CollectionCollected, SettlementCompleted, []string{"other"}, "late report")
	if err == nil || err.Code != ErrAlreadyCollected {
		t.Fatalf("expected ALREADY_COLLECTED, got %v", err)
	}
}

func TestRetryCollection(t *testing.T) {
	next, err := RetryCollection(CollectionFailedCollection)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != CollectionNotCollected {
		t.Fatalf("expected not_collected, got %s", next)
	}

	if _, err := RetryCollection(CollectionNotCollected); err == nil {
		t.Fatalf("expected retry to be rejected for non-failed collection")
	}
}

func TestOrderTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderConfirmed, OrderAssigned, true},
		{OrderAssigned, OrderOutForDelivery, true},
		{OrderOutForDelivery, OrderDelivered, true},
		{OrderDelivered, OrderCompleted, true},
		{OrderPending, OrderDelivered, false},
		{OrderCompleted, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderOutForDelivery, OrderCancelled, true},
		{OrderDelivered, OrderCancelled, false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	if !Balance(dec("100.00"), dec("150.00")).IsZero() {
		t.Fatalf("balance must clamp at zero")
	}
}
