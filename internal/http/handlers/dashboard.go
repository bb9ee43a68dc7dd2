package handlers

import (
	"net/http"

	"swiftmart-admin-services/internal/payments"
	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

// DashboardOverview is the single call behind the landing screen: today's
// volume, outstanding COD money, collection trouble, and stock alerts.
func (h *Handler) DashboardOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dayStart, dayEnd, err := utils.DayBoundsInTimezone(utils.CurrentDateInTimezone(h.Config.ReportTimezone), h.Config.ReportTimezone)
	if err != nil {
		h.Logger.Error("dashboard day bounds failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch dashboard")
		return
	}

	var (
		todayOrders    int64
		todayRevenue   pgtype.Numeric
		pendingOrders  int64
		inFlightOrders int64
	)
	err = h.DB.QueryRow(ctx, `
		select
		  count(*) filter (where placed_at >= $1 and placed_at < $2 and status <> 'cancelled'),
		  coalesce(sum(total_amount) filter (where placed_at >= $1 and placed_at < $2 and status <> 'cancelled'), 0),
		  count(*) filter (where status = 'pending'),
		  count(*) filter (where status in ('confirmed', 'assigned', 'out_for_delivery'))
		from orders
	`, dayStart, dayEnd).Scan(&todayOrders, &todayRevenue, &pendingOrders, &inFlightOrders)
	if err != nil {
		h.Logger.Error("dashboard orders query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch dashboard")
		return
	}

	var (
		totalExpected      pgtype.Numeric
		totalCollected     pgtype.Numeric
		pendingCollections int64
		failedCollections  int64
		collectedToday     pgtype.Numeric
	)
	err = h.DB.QueryRow(ctx, `
		select
		  coalesce(sum(expected_amount), 0),
		  coalesce(sum(collected_amount), 0),
		  count(*) filter (where collection_status in ('not_collected', 'partial_collected')),
		  count(*) filter (where collection_status = 'failed_collection'),
		  coalesce(sum(collected_amount) filter (where collection_timestamp >= $1 and collection_timestamp < $2), 0)
		from payments
	`, dayStart, dayEnd).Scan(&totalExpected, &totalCollected, &pendingCollections, &failedCollections, &collectedToday)
	if err != nil {
		h.Logger.Error("dashboard payments query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch dashboard")
		return
	}

	var lowStockCount int64
	_ = h.DB.QueryRow(ctx, `
		select count(*)
		from products p
		left join product_variants pv on pv.product_id = p.id
		where p.is_active = true
		  and coalesce(pv.quantity, p.quantity) <= p.low_stock_threshold
	`).Scan(&lowStockCount)

	var activeDiscounts int64
	_ = h.DB.QueryRow(ctx, `
		select count(*)
		from discounts
		where is_active = true and valid_from <= now() and valid_until >= now()
	`).Scan(&activeDiscounts)

	outstanding, _ := payments.Balance(
		utils.NumericToDecimal(totalExpected),
		utils.NumericToDecimal(totalCollected),
	).Float64()

	response.Success(w, map[string]any{
		"orders": map[string]any{
			"today":    todayOrders,
			"pending":  pendingOrders,
			"inFlight": inFlightOrders,
			"revenue":  utils.NumericToFloat64(todayRevenue),
		},
		"payments": map[string]any{
			"outstandingBalance": outstanding,
			"pendingCollections": pendingCollections,
			"failedCollections":  failedCollections,
			"collectedToday":     utils.NumericToFloat64(collectedToday),
		},
		"inventory": map[string]any{
			"lowStock": lowStockCount,
		},
		"discounts": map[string]any{
			"active": activeDiscounts,
		},
	})
}
