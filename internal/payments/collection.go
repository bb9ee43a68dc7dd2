package payments

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CollectionInput is a collection attempt against an outstanding payment.
// Admin mark-received and delivery collect both go through here; they differ
// only in who is attributed as collector.
type CollectionInput struct {
	ExpectedAmount   decimal.Decimal
	CollectedAmount  decimal.Decimal
	CollectionStatus CollectionStatus
	Amount           decimal.Decimal
}

// CollectionResult is what the caller persists after a successful attempt.
type CollectionResult struct {
	CollectedAmount  decimal.Decimal
	BalanceAmount    decimal.Decimal
	CollectionStatus CollectionStatus
	SettlementStatus SettlementStatus
}

// Balance never goes below zero; overcollection is rejected before this point.
func Balance(expected, collected decimal.Decimal) decimal.Decimal {
	balance := expected.Sub(collected)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// FullAmount and HalfAmount back the "Full Payment" / "50% Payment" shortcuts.
func FullAmount(balance decimal.Decimal) decimal.Decimal {
	return balance
}

func HalfAmount(balance decimal.Decimal) decimal.Decimal {
	return balance.Div(decimal.NewFromInt(2)).Round(2)
}

// ValidateCollectionAmount rejects amounts that are not positive or exceed the
// outstanding balance. Nothing may be written when this fails.
func ValidateCollectionAmount(amount, balance decimal.Decimal) *Error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ValidationError(ErrAmountRequired, "Collection amount must be greater than zero", nil)
	}
	if amount.GreaterThan(balance) {
		return ValidationError(ErrAmountExceedsBalance, "Collection amount exceeds the outstanding balance", map[string]any{
			"balanceAmount": balance.StringFixed(2),
		})
	}
	return nil
}

// ApplyCollection moves a payment through the collection state machine.
// A full collection settles the payment; a partial one leaves it outstanding.
func ApplyCollection(in CollectionInput) (*CollectionResult, *Error) {
	if in.CollectionStatus.Terminal() {
		return nil, ConflictError(ErrAlreadyCollected, "Payment has already been collected")
	}

	balance := Balance(in.ExpectedAmount, in.CollectedAmount)
	if balance.IsZero() {
		return nil, ConflictError(ErrNothingOutstanding, "Payment has no outstanding balance")
	}

	if err := ValidateCollectionAmount(in.Amount, balance); err != nil {
		return nil, err
	}

	collected := in.CollectedAmount.Add(in.Amount)
	remaining := Balance(in.ExpectedAmount, collected)

	result := &CollectionResult{
		CollectedAmount: collected,
		BalanceAmount:   remaining,
	}
	if remaining.IsZero() {
		result.CollectionStatus = CollectionCollected
		result.SettlementStatus = SettlementCompleted
	} else {
		result.CollectionStatus = CollectionPartialCollected
		result.SettlementStatus = SettlementPartial
	}
	return result, nil
}

// ValidateIssueReport enforces the report-issue contract: at least one known
// issue code and a non-blank description.
func ValidateIssueReport(issues []string, description string) *Error {
	if len(issues) == 0 {
		return ValidationError(ErrIssueCodeRequired, "Select at least one issue", nil)
	}
	for _, issue := range issues {
		if !ValidIssueCode(issue) {
			return ValidationError(ErrIssueCodeInvalid, "Unknown issue code: "+issue, nil)
		}
	}
	if strings.TrimSpace(description) == "" {
		return ValidationError(ErrIssueDescRequired, "Issue description is required", nil)
	}
	return nil
}

// ApplyIssueReport marks a collection attempt as failed. A pending settlement
// fails with it; an already partial settlement stays partial.
func ApplyIssueReport(collectionStatus CollectionStatus, settlement SettlementStatus, issues []string, description string) (CollectionStatus, SettlementStatus, *Error) {
	if collectionStatus.Terminal() {
		return "", "", ConflictError(ErrAlreadyCollected, "Payment has already been collected")
	}
	if err := ValidateIssueReport(issues, description); err != nil {
		return "", "", err
	}
	next := SettlementFailed
	if settlement == SettlementPartial {
		next = SettlementPartial
	}
	return CollectionFailedCollection, next, nil
}

// RetryCollection re-opens a failed collection for another delivery attempt.
func RetryCollection(collectionStatus CollectionStatus) (CollectionStatus, *Error) {
	if collectionStatus != CollectionFailedCollection {
		return "", ConflictError(ErrCollectionNotFailed, "Only failed collections can be retried")
	}
	return CollectionNotCollected, nil
}
