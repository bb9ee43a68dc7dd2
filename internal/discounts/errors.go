package discounts

import "net/http"

type ErrorCode string

const (
	ErrCodeRequired          ErrorCode = "DISCOUNT_CODE_REQUIRED"
	ErrNameRequired          ErrorCode = "DISCOUNT_NAME_REQUIRED"
	ErrTypeInvalid           ErrorCode = "DISCOUNT_TYPE_INVALID"
	ErrValueInvalid          ErrorCode = "DISCOUNT_VALUE_INVALID"
	ErrPercentageOverLimit   ErrorCode = "DISCOUNT_PERCENTAGE_OVER_LIMIT"
	ErrValidityWindowInvalid ErrorCode = "DISCOUNT_VALIDITY_WINDOW_INVALID"
	ErrAmountNegative        ErrorCode = "DISCOUNT_AMOUNT_NEGATIVE"
	ErrUsageLimitNegative    ErrorCode = "DISCOUNT_USAGE_LIMIT_NEGATIVE"
	ErrMinOrderNotMet        ErrorCode = "DISCOUNT_MIN_ORDER_NOT_MET"
	ErrNotActive             ErrorCode = "DISCOUNT_NOT_ACTIVE"
	ErrExpired               ErrorCode = "DISCOUNT_EXPIRED"
	ErrNotStarted            ErrorCode = "DISCOUNT_NOT_STARTED"
	ErrUsageLimitReached     ErrorCode = "DISCOUNT_USAGE_LIMIT_REACHED"
)

type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

func ValidationError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, StatusCode: http.StatusBadRequest}
}

func ConflictError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, StatusCode: http.StatusConflict}
}
