package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"swiftmart-admin-services/internal/payments"
	"swiftmart-admin-services/pkg/response"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errMissingParam = errors.New("missing param")

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	return strconv.ParseInt(value, 10, 64)
}

// readPagination applies the shared list contract: page >= 1, default limit
// 20, hard cap 200.
func readPagination(r *http.Request) (page int, limit int) {
	query := r.URL.Query()
	page = 1
	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	limit = 20
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > 200 {
		limit = 200
	}
	return page, limit
}

func parseDateTimeParam(value string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported datetime %q", value)
}

// parseAmount accepts the loose JSON the dashboard sends: numbers or numeric
// strings.
func parseAmount(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case nil:
		return decimal.Zero, errors.New("amount required")
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return decimal.Zero, errors.New("amount required")
		}
		return decimal.NewFromString(trimmed)
	case json.Number:
		return decimal.NewFromString(v.String())
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", value)
	}
}

func parseAnyInt64(value any) (int64, error) {
	switch v := value.(type) {
	case nil:
		return 0, errMissingParam
	case float64:
		return int64(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, errMissingParam
		}
		return strconv.ParseInt(trimmed, 10, 64)
	default:
		return 0, fmt.Errorf("unsupported id type %T", value)
	}
}

func csvEscape(value string) string {
	return strings.ReplaceAll(value, "\"", "\"\"")
}

// writeDomainError maps a payments domain error onto the standard error
// envelope, carrying details (such as the outstanding balance) when present.
func writeDomainError(w http.ResponseWriter, err *payments.Error) {
	payload := map[string]any{
		"success": false,
		"error":   string(err.Code),
		"message": err.Message,
	}
	if len(err.Details) > 0 {
		payload["details"] = err.Details
	}
	response.JSON(w, err.StatusCode, payload)
}
