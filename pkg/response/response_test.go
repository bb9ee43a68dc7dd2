package response

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestPaginatedTotalPages(t *testing.T) {
	cases := []struct {
		name      string
		total     int64
		limit     int
		wantPages float64
	}{
		{"zero rows still one page", 0, 20, 1},
		{"exact fit", 40, 20, 2},
		{"remainder rounds up", 41, 20, 3},
		{"single row", 1, 20, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Paginated(rec, "items", []string{}, 1, tc.limit, tc.total)

			var body struct {
				Success bool `json:"success"`
				Data    struct {
					Pagination struct {
						TotalPages float64 `json:"totalPages"`
					} `json:"pagination"`
				} `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !body.Success {
				t.Fatal("expected success=true")
			}
			if body.Data.Pagination.TotalPages != tc.wantPages {
				t.Fatalf("got totalPages=%v, want %v", body.Data.Pagination.TotalPages, tc.wantPages)
			}
		})
	}
}

func TestErrorEnvelopeShape(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, 401, "UNAUTHORIZED", "Authorization token required")

	if rec.Code != 401 {
		t.Fatalf("got status %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["success"] != false {
		t.Fatal("expected success=false")
	}
	if body["error"] != "UNAUTHORIZED" || body["message"] != "Authorization token required" {
		t.Fatalf("unexpected envelope: %v", body)
	}
}
