package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/phpdave11/gofpdf"
)

type orderReportRow struct {
	OrderNumber    string
	Status         string
	CustomerName   string
	DeliveryPerson string
	TotalAmount    float64
	PlacedAt       time.Time
}

// OrdersReportPDF renders the filtered order list as a downloadable PDF.
// Filters match the list endpoint so the export mirrors what the admin sees.
func (h *Handler) OrdersReportPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	whereClauses := []string{"1=1"}
	args := []any{}

	if status := strings.TrimSpace(query.Get("status")); status != "" {
		statuses := make([]string, 0)
		for _, raw := range strings.Split(status, ",") {
			if trimmed := strings.TrimSpace(raw); trimmed != "" {
				statuses = append(statuses, trimmed)
			}
		}
		if len(statuses) > 0 {
			whereClauses = append(whereClauses, "o.status = any($"+strconv.Itoa(len(args)+1)+")")
			args = append(args, statuses)
		}
	}
	if startDate := strings.TrimSpace(query.Get("startDate")); startDate != "" {
		parsed, err := parseDateTimeParam(startDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid startDate")
			return
		}
		whereClauses = append(whereClauses, "o.placed_at >= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}
	if endDate := strings.TrimSpace(query.Get("endDate")); endDate != "" {
		parsed, err := parseDateTimeParam(endDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid endDate")
			return
		}
		whereClauses = append(whereClauses, "o.placed_at <= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}

	rows, err := h.DB.Query(ctx, `
		select o.order_number, o.status, coalesce(c.name, ''), coalesce(d.name, ''),
		       o.total_amount, o.placed_at
		from orders o
		left join customers c on c.id = o.customer_id
		left join users d on d.id = o.delivery_person_id
		where `+strings.Join(whereClauses, " and ")+`
		order by o.placed_at desc
		limit 2000
	`, args...)
	if err != nil {
		h.Logger.Error("order report query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}
	defer rows.Close()

	reportRows := make([]orderReportRow, 0)
	var totalRevenue float64
	for rows.Next() {
		var (
			row    orderReportRow
			amount pgtype.Numeric
		)
		if err := rows.Scan(&row.OrderNumber, &row.Status, &row.CustomerName, &row.DeliveryPerson, &amount, &row.PlacedAt); err != nil {
			continue
		}
		row.TotalAmount = utils.NumericToFloat64(amount)
		if row.Status != "cancelled" {
			totalRevenue += row.TotalAmount
		}
		reportRows = append(reportRows, row)
	}

	out, err := renderOrdersReportPDF(reportRows, totalRevenue)
	if err != nil {
		h.Logger.Error("order report render failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report")
		return
	}

	filename := "orders-report-" + time.Now().Format("2006-01-02") + ".pdf"
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(out.Bytes())
}

func renderOrdersReportPDF(rows []orderReportRow, totalRevenue float64) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "Orders Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", time.Now().Format("2006-01-02 15:04")), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(34, 6, "Order", "B", 0, "L", false, 0, "")
	pdf.CellFormat(28, 6, "Status", "B", 0, "L", false, 0, "")
	pdf.CellFormat(44, 6, "Customer", "B", 0, "L", false, 0, "")
	pdf.CellFormat(40, 6, "Delivery person", "B", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "Total", "B", 0, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Placed", "B", 1, "L", false, 0, "")

	pdf.SetFont("Arial", "", 8)
	for _, row := range rows {
		pdf.CellFormat(34, 5, row.OrderNumber, "", 0, "L", false, 0, "")
		pdf.CellFormat(28, 5, row.Status, "", 0, "L", false, 0, "")
		pdf.CellFormat(44, 5, row.CustomerName, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 5, row.DeliveryPerson, "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 5, fmt.Sprintf("%.2f", row.TotalAmount), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 5, row.PlacedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Orders: %d", len(rows)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Revenue (excl. cancelled): %.2f", totalRevenue), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
