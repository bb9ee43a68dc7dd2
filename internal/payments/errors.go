package payments

import "net/http"

type ErrorCode string

const (
	ErrAmountRequired        ErrorCode = "COLLECTION_AMOUNT_REQUIRED"
	ErrAmountExceedsBalance  ErrorCode = "COLLECTION_AMOUNT_EXCEEDS_BALANCE"
	ErrAlreadyCollected      ErrorCode = "COLLECTION_ALREADY_COLLECTED"
	ErrCollectionNotFailed   ErrorCode = "COLLECTION_NOT_FAILED"
	ErrIssueCodeRequired     ErrorCode = "ISSUE_CODE_REQUIRED"
	ErrIssueCodeInvalid      ErrorCode = "ISSUE_CODE_INVALID"
	ErrIssueDescRequired     ErrorCode = "ISSUE_DESCRIPTION_REQUIRED"
	ErrStatusInvalid         ErrorCode = "STATUS_INVALID"
	ErrTransitionNotAllowed  ErrorCode = "TRANSITION_NOT_ALLOWED"
	ErrNothingOutstanding    ErrorCode = "NOTHING_OUTSTANDING"
	ErrCollectionUnavailable ErrorCode = "COLLECTION_UNAVAILABLE"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Details    map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code ErrorCode, message string, status int, details map[string]any) *Error {
	return &Error{Code: code, Message: message, StatusCode: status, Details: details}
}

func ValidationError(code ErrorCode, message string, details map[string]any) *Error {
	return newError(code, message, http.StatusUnprocessableEntity, details)
}

func ConflictError(code ErrorCode, message string) *Error {
	return newError(code, message, http.StatusConflict, nil)
}
