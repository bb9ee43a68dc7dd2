package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"swiftmart-admin-services/internal/inventory"
	"swiftmart-admin-services/internal/middleware"
	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type InventoryItem struct {
	ProductID   int64   `json:"productId"`
	ProductName string  `json:"productName"`
	SKU         string  `json:"sku"`
	VariantID   *int64  `json:"variantId"`
	VariantName *string `json:"variantName"`
	Quantity    int64   `json:"quantity"`
	Threshold   int64   `json:"threshold"`
	Price       float64 `json:"price"`
	IsActive    bool    `json:"isActive"`
	LowStock    bool    `json:"lowStock"`
}

const inventorySelect = `
	select p.id, p.name, coalesce(pv.sku, p.sku), pv.id, pv.name,
	       coalesce(pv.quantity, p.quantity), p.low_stock_threshold, p.price, p.is_active
	from products p
	left join product_variants pv on pv.product_id = p.id`

func scanInventoryRow(rows pgx.Rows) (*InventoryItem, error) {
	var (
		item        InventoryItem
		variantID   pgtype.Int8
		variantName pgtype.Text
		price       pgtype.Numeric
	)
	if err := rows.Scan(&item.ProductID, &item.ProductName, &item.SKU, &variantID, &variantName,
		&item.Quantity, &item.Threshold, &price, &item.IsActive); err != nil {
		return nil, err
	}
	item.VariantID = int8Ptr(variantID)
	item.VariantName = textPtr(variantName)
	item.Price = utils.NumericToFloat64(price)
	item.LowStock = item.Quantity <= item.Threshold
	return &item, nil
}

func (h *Handler) InventoryOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	page, limit := readPagination(r)

	whereClauses := []string{"1=1"}
	args := []any{}
	if search := strings.TrimSpace(query.Get("search")); search != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		whereClauses = append(whereClauses, "(p.name ilike "+placeholder+" or p.sku ilike "+placeholder+" or pv.sku ilike "+placeholder+")")
		args = append(args, "%"+search+"%")
	}
	if query.Get("activeOnly") == "true" {
		whereClauses = append(whereClauses, "p.is_active = true")
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	err := h.DB.QueryRow(ctx, `
		select count(*)
		from products p
		left join product_variants pv on pv.product_id = p.id
		where `+whereSQL, args...).Scan(&total)
	if err != nil {
		h.Logger.Error("inventory count failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch inventory")
		return
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := h.DB.Query(ctx, inventorySelect+` where `+whereSQL+`
		order by p.name, pv.name nulls first
		limit $`+strconv.Itoa(len(args)-1)+` offset $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("inventory query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch inventory")
		return
	}
	defer rows.Close()

	items := make([]InventoryItem, 0)
	for rows.Next() {
		item, err := scanInventoryRow(rows)
		if err != nil {
			continue
		}
		items = append(items, *item)
	}

	response.Paginated(w, "inventory", items, page, limit, total)
}

func (h *Handler) InventoryStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		totalProducts int64
		totalUnits    pgtype.Int8
		stockValue    pgtype.Numeric
		lowStock      int64
		outOfStock    int64
	)
	err := h.DB.QueryRow(ctx, `
		with stock as (
			select p.id, p.price, p.low_stock_threshold,
			       coalesce(pv.quantity, p.quantity) as quantity
			from products p
			left join product_variants pv on pv.product_id = p.id
			where p.is_active = true
		)
		select
		  count(distinct id),
		  coalesce(sum(quantity), 0),
		  coalesce(sum(quantity * price), 0),
		  count(*) filter (where quantity > 0 and quantity <= low_stock_threshold),
		  count(*) filter (where quantity <= 0)
		from stock
	`).Scan(&totalProducts, &totalUnits, &stockValue, &lowStock, &outOfStock)
	if err != nil {
		h.Logger.Error("inventory statistics failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch inventory statistics")
		return
	}

	response.Success(w, map[string]any{
		"totalProducts": totalProducts,
		"totalUnits":    totalUnits.Int64,
		"stockValue":    utils.NumericToFloat64(stockValue),
		"lowStock":      lowStock,
		"outOfStock":    outOfStock,
	})
}

func (h *Handler) InventoryLowStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, inventorySelect+`
		where p.is_active = true
		  and coalesce(pv.quantity, p.quantity) <= p.low_stock_threshold
		order by coalesce(pv.quantity, p.quantity) asc
		limit 500
	`)
	if err != nil {
		h.Logger.Error("low stock query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch low stock items")
		return
	}
	defer rows.Close()

	items := make([]InventoryItem, 0)
	for rows.Next() {
		item, err := scanInventoryRow(rows)
		if err != nil {
			continue
		}
		items = append(items, *item)
	}

	response.Success(w, map[string]any{"items": items})
}

type bulkUpdateEntry struct {
	ProductID    int64  `json:"productId"`
	VariantID    *int64 `json:"variantId"`
	Delta        int64  `json:"delta"`
	MovementType string `json:"movementType"`
	Reason       string `json:"reason"`
}

// InventoryBulkUpdate applies stock deltas atomically. Either every entry
// lands, with a movement row per change, or nothing does; a delta that would
// take stock negative aborts the whole batch.
func (h *Handler) InventoryBulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, _ := middleware.GetAuthContext(ctx)

	var payload struct {
		Updates []bulkUpdateEntry `json:"updates"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if len(payload.Updates) == 0 {
		response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "At least one update is required")
		return
	}
	if len(payload.Updates) > 200 {
		response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "At most 200 updates per batch")
		return
	}
	for i, entry := range payload.Updates {
		if entry.ProductID <= 0 || entry.Delta == 0 {
			response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
				fmt.Sprintf("Update %d needs a productId and a non-zero delta", i))
			return
		}
		if !inventory.ValidMovementType(entry.MovementType) {
			response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR",
				fmt.Sprintf("Update %d has unknown movement type %q", i, entry.MovementType))
			return
		}
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("bulk update tx begin failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update inventory")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	results := make([]map[string]any, 0, len(payload.Updates))
	for i, entry := range payload.Updates {
		var previousStock int64
		if entry.VariantID != nil {
			err = tx.QueryRow(ctx, `
				select quantity from product_variants
				where id = $1 and product_id = $2
				for update
			`, *entry.VariantID, entry.ProductID).Scan(&previousStock)
		} else {
			err = tx.QueryRow(ctx, `
				select quantity from products where id = $1 for update
			`, entry.ProductID).Scan(&previousStock)
		}
		if err == pgx.ErrNoRows {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Update %d: product not found", i))
			return
		}
		if err != nil {
			h.Logger.Error("bulk update lock failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update inventory")
			return
		}

		newStock := previousStock + entry.Delta
		if newStock < 0 {
			response.Error(w, http.StatusUnprocessableEntity, "STOCK_NEGATIVE",
				fmt.Sprintf("Update %d would take stock below zero (current %d, delta %d)", i, previousStock, entry.Delta))
			return
		}

		if entry.VariantID != nil {
			_, err = tx.Exec(ctx, `update product_variants set quantity = $2 where id = $1`, *entry.VariantID, newStock)
		} else {
			_, err = tx.Exec(ctx, `update products set quantity = $2 where id = $1`, entry.ProductID, newStock)
		}
		if err != nil {
			h.Logger.Error("bulk update write failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update inventory")
			return
		}

		_, err = tx.Exec(ctx, `
			insert into inventory_movements
			  (product_id, variant_id, movement_type, quantity, previous_stock, new_stock, reason, performed_by)
			values ($1, $2, $3, $4, $5, $6, nullif($7, ''), $8)
		`, entry.ProductID, entry.VariantID, entry.MovementType, entry.Delta, previousStock, newStock,
			strings.TrimSpace(entry.Reason), authCtx.UserID)
		if err != nil {
			h.Logger.Error("movement insert failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update inventory")
			return
		}

		results = append(results, map[string]any{
			"productId":     entry.ProductID,
			"variantId":     entry.VariantID,
			"previousStock": previousStock,
			"newStock":      newStock,
		})
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("bulk update commit failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update inventory")
		return
	}

	h.Logger.Info("inventory bulk update",
		zap.Int("entries", len(results)),
		zap.Int64("actorId", authCtx.UserID),
	)
	response.Success(w, map[string]any{"updates": results})
}

type inventoryReportRow struct {
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	SKU         string `json:"sku"`
	Movements   int64  `json:"movements"`
	UnitsIn     int64  `json:"unitsIn"`
	UnitsOut    int64  `json:"unitsOut"`
	NetChange   int64  `json:"netChange"`
	EndingStock int64  `json:"endingStock"`
}

// InventoryReports summarizes stock movements per product over a date range.
// format=csv downloads the same rows; the header is written even when the
// range has no movements. Ending stock uses the same rollup as the overview:
// variant quantities replace the product-level quantity when variants exist.
func (h *Handler) InventoryReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	whereClauses := []string{"1=1"}
	args := []any{}
	if startDate := strings.TrimSpace(query.Get("startDate")); startDate != "" {
		parsed, err := parseDateTimeParam(startDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid startDate")
			return
		}
		whereClauses = append(whereClauses, "m.created_at >= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}
	if endDate := strings.TrimSpace(query.Get("endDate")); endDate != "" {
		parsed, err := parseDateTimeParam(endDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid endDate")
			return
		}
		whereClauses = append(whereClauses, "m.created_at <= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}

	rows, err := h.DB.Query(ctx, `
		select p.id, p.name, p.sku,
		       count(m.id),
		       coalesce(sum(m.quantity) filter (where m.quantity > 0), 0),
		       coalesce(-sum(m.quantity) filter (where m.quantity < 0), 0),
		       coalesce(sum(m.quantity), 0),
		       coalesce((select sum(v.quantity) from product_variants v where v.product_id = p.id), p.quantity)
		from inventory_movements m
		join products p on p.id = m.product_id
		where `+strings.Join(whereClauses, " and ")+`
		group by p.id, p.name, p.sku, p.quantity
		order by p.name
		limit 5000
	`, args...)
	if err != nil {
		h.Logger.Error("inventory report query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build inventory report")
		return
	}
	defer rows.Close()

	reportRows := make([]inventoryReportRow, 0)
	for rows.Next() {
		var row inventoryReportRow
		if err := rows.Scan(&row.ProductID, &row.ProductName, &row.SKU,
			&row.Movements, &row.UnitsIn, &row.UnitsOut, &row.NetChange, &row.EndingStock); err != nil {
			continue
		}
		reportRows = append(reportRows, row)
	}

	if strings.EqualFold(strings.TrimSpace(query.Get("format")), "csv") {
		buf := buildInventoryReportCSV(reportRows)
		filename := "inventory-report-" + time.Now().Format("2006-01-02") + ".csv"
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		_, _ = w.Write(buf.Bytes())
		return
	}

	response.Success(w, map[string]any{"rows": reportRows})
}

func buildInventoryReportCSV(rows []inventoryReportRow) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString("product,sku,movements,unitsIn,unitsOut,netChange,endingStock\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("\"%s\",\"%s\",%d,%d,%d,%d,%d\n",
			csvEscape(row.ProductName), csvEscape(row.SKU),
			row.Movements, row.UnitsIn, row.UnitsOut, row.NetChange, row.EndingStock))
	}
	return &buf
}

type MovementView struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"productId"`
	VariantID     *int64    `json:"variantId"`
	MovementType  string    `json:"movementType"`
	Quantity      int64     `json:"quantity"`
	PreviousStock int64     `json:"previousStock"`
	NewStock      int64     `json:"newStock"`
	Reason        *string   `json:"reason"`
	PerformedBy   *string   `json:"performedBy"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (h *Handler) InventoryMovements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID, err := readPathInt64(r, "productId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid product id")
		return
	}
	page, limit := readPagination(r)

	var total int64
	if err := h.DB.QueryRow(ctx, `select count(*) from inventory_movements where product_id = $1`, productID).Scan(&total); err != nil {
		h.Logger.Error("movement count failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movements")
		return
	}

	rows, err := h.DB.Query(ctx, `
		select m.id, m.product_id, m.variant_id, m.movement_type, m.quantity,
		       m.previous_stock, m.new_stock, m.reason, u.name, m.created_at
		from inventory_movements m
		left join users u on u.id = m.performed_by
		where m.product_id = $1
		order by m.created_at desc
		limit $2 offset $3
	`, productID, limit, (page-1)*limit)
	if err != nil {
		h.Logger.Error("movement query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch movements")
		return
	}
	defer rows.Close()

	movements := make([]MovementView, 0)
	for rows.Next() {
		var (
			mv          MovementView
			variantID   pgtype.Int8
			reason      pgtype.Text
			performedBy pgtype.Text
		)
		if err := rows.Scan(&mv.ID, &mv.ProductID, &variantID, &mv.MovementType, &mv.Quantity,
			&mv.PreviousStock, &mv.NewStock, &reason, &performedBy, &mv.CreatedAt); err != nil {
			continue
		}
		mv.VariantID = int8Ptr(variantID)
		mv.Reason = textPtr(reason)
		mv.PerformedBy = textPtr(performedBy)
		movements = append(movements, mv)
	}

	response.Paginated(w, "movements", movements, page, limit, total)
}
