package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestReadPathInt64(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		want    int64
		wantErr bool
	}{
		{"plain id", "12", 12, false},
		{"trailing garbage rejected", "12abc", 0, true},
		{"leading garbage rejected", "abc12", 0, true},
		{"negative accepted", "-3", -3, false},
		{"empty", "", 0, true},
		{"float rejected", "12.5", 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/orders/x", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("orderId", tc.value)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

			got, err := readPathInt64(r, "orderId")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %d", tc.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestReadPagination(t *testing.T) {
	cases := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "/api/orders", 1, 20},
		{"explicit", "/api/orders?page=3&limit=50", 3, 50},
		{"zero page falls back", "/api/orders?page=0", 1, 20},
		{"negative limit falls back", "/api/orders?limit=-5", 1, 20},
		{"limit capped", "/api/orders?limit=5000", 1, 200},
		{"garbage ignored", "/api/orders?page=abc&limit=xyz", 1, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			page, limit := readPagination(r)
			if page != tc.wantPage || limit != tc.wantLimit {
				t.Fatalf("got page=%d limit=%d, want page=%d limit=%d", page, limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestParseDateTimeParam(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{"rfc3339", "2026-08-15T10:30:00Z", time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC), false},
		{"naive datetime", "2026-08-15T10:30:00", time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC), false},
		{"date only", "2026-08-15", time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC), false},
		{"garbage", "15/08/2026", time.Time{}, true},
		{"empty", "", time.Time{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseDateTimeParam(tc.value)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		name    string
		value   any
		want    string
		wantErr bool
	}{
		{"float", 1500.5, "1500.5", false},
		{"string", "1500.01", "1500.01", false},
		{"string with spaces", "  42  ", "42", false},
		{"json number", json.Number("99.99"), "99.99", false},
		{"nil", nil, "", true},
		{"empty string", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseAmount(tc.value)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %v", tc.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("got %s, want %s", got.String(), tc.want)
			}
		})
	}
}

func TestCSVEscape(t *testing.T) {
	if got := csvEscape(`plain`); got != `plain` {
		t.Fatalf("got %q", got)
	}
	if got := csvEscape(`say "hi"`); got != `say ""hi""` {
		t.Fatalf("got %q", got)
	}
}

func TestBuildPaymentReportCSVHeaderAlwaysPresent(t *testing.T) {
	buf := buildPaymentReportCSV(nil)
	want := "period,payments,expected,collected,failed\n"
	if buf.String() != want {
		t.Fatalf("empty report should be header only, got %q", buf.String())
	}
}

func TestBuildInventoryReportCSVHeaderAlwaysPresent(t *testing.T) {
	buf := buildInventoryReportCSV(nil)
	want := "product,sku,movements,unitsIn,unitsOut,netChange,endingStock\n"
	if buf.String() != want {
		t.Fatalf("empty report should be header only, got %q", buf.String())
	}
}

func TestBuildPaymentReportCSVRows(t *testing.T) {
	rows := []paymentReportRow{
		{Period: "2026-08-01", Payments: 3, Expected: 4500, Collected: 3000.5, Failed: 1},
	}
	buf := buildPaymentReportCSV(rows)
	want := "period,payments,expected,collected,failed\n\"2026-08-01\",3,4500.00,3000.50,1\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}
