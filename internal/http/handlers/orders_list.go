package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type OrderListItem struct {
	ID               int64      `json:"id"`
	OrderNumber      string     `json:"orderNumber"`
	Status           string     `json:"status"`
	CustomerID       *int64     `json:"customerId"`
	CustomerName     *string    `json:"customerName"`
	CustomerPhone    *string    `json:"customerPhone"`
	DeliveryPersonID *int64     `json:"deliveryPersonId"`
	DeliveryPerson   *string    `json:"deliveryPerson"`
	Subtotal         float64    `json:"subtotal"`
	DiscountAmount   float64    `json:"discountAmount"`
	TotalAmount      float64    `json:"totalAmount"`
	DeliveryAddress  *string    `json:"deliveryAddress"`
	PaymentStatus    *string    `json:"paymentStatus"`
	CollectionStatus *string    `json:"collectionStatus"`
	ItemCount        int64      `json:"itemCount"`
	PlacedAt         time.Time  `json:"placedAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	ShippedAt        *time.Time `json:"shippedAt"`
}

func (h *Handler) OrdersList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	statusParam := strings.TrimSpace(query.Get("status"))
	paymentStatus := strings.TrimSpace(query.Get("paymentStatus"))
	search := strings.TrimSpace(query.Get("search"))
	startDate := strings.TrimSpace(query.Get("startDate"))
	endDate := strings.TrimSpace(query.Get("endDate"))
	page, limit := readPagination(r)

	whereClauses := []string{"1=1"}
	args := []any{}

	if statusParam != "" {
		statuses := make([]string, 0)
		for _, raw := range strings.Split(statusParam, ",") {
			trimmed := strings.TrimSpace(raw)
			if trimmed != "" {
				statuses = append(statuses, trimmed)
			}
		}
		if len(statuses) > 0 {
			whereClauses = append(whereClauses, "o.status = any($"+strconv.Itoa(len(args)+1)+")")
			args = append(args, statuses)
		}
	}

	if paymentStatus != "" {
		whereClauses = append(whereClauses, "p.status = $"+strconv.Itoa(len(args)+1))
		args = append(args, paymentStatus)
	}

	if search != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		whereClauses = append(whereClauses, "(o.order_number ilike "+placeholder+" or c.name ilike "+placeholder+")")
		args = append(args, "%"+search+"%")
	}

	if startDate != "" {
		parsed, err := parseDateTimeParam(startDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid startDate")
			return
		}
		whereClauses = append(whereClauses, "o.placed_at >= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}

	if endDate != "" {
		parsed, err := parseDateTimeParam(endDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid endDate")
			return
		}
		whereClauses = append(whereClauses, "o.placed_at <= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}

	whereSQL := strings.Join(whereClauses, " and ")

	countQuery := `
		select count(*)
		from orders o
		left join payments p on p.order_id = o.id
		left join customers c on c.id = o.customer_id
		where ` + whereSQL
	var total int64
	if err := h.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		h.Logger.Error("order count failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch orders")
		return
	}

	args = append(args, limit, (page-1)*limit)
	listQuery := `
		select
		  o.id, o.order_number, o.status, o.customer_id, c.name, c.phone,
		  o.delivery_person_id, d.name,
		  o.subtotal, o.discount_amount, o.total_amount, o.delivery_address,
		  p.status, p.collection_status,
		  coalesce(oi_count.item_count, 0),
		  o.placed_at, o.updated_at, o.shipped_at
		from orders o
		left join payments p on p.order_id = o.id
		left join customers c on c.id = o.customer_id
		left join users d on d.id = o.delivery_person_id
		left join (
			select order_id, count(*) as item_count
			from order_items
			group by order_id
		) oi_count on oi_count.order_id = o.id
		where ` + whereSQL + `
		order by o.placed_at desc
		limit $` + strconv.Itoa(len(args)-1) + ` offset $` + strconv.Itoa(len(args))

	rows, err := h.DB.Query(ctx, listQuery, args...)
	if err != nil {
		h.Logger.Error("order list failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch orders")
		return
	}
	defer rows.Close()

	items := make([]OrderListItem, 0)
	for rows.Next() {
		var (
			order            OrderListItem
			customerID       pgtype.Int8
			customerName     pgtype.Text
			customerPhone    pgtype.Text
			deliveryPersonID pgtype.Int8
			deliveryPerson   pgtype.Text
			subtotal         pgtype.Numeric
			discountAmount   pgtype.Numeric
			totalAmount      pgtype.Numeric
			deliveryAddress  pgtype.Text
			paymentStatus    pgtype.Text
			collectionStatus pgtype.Text
			shippedAt        pgtype.Timestamptz
		)
		if err := rows.Scan(
			&order.ID,
			&order.OrderNumber,
			&order.Status,
			&customerID,
			&customerName,
			&customerPhone,
			&deliveryPersonID,
			&deliveryPerson,
			&subtotal,
			&discountAmount,
			&totalAmount,
			&deliveryAddress,
			&paymentStatus,
			&collectionStatus,
			&order.ItemCount,
			&order.PlacedAt,
			&order.UpdatedAt,
			&shippedAt,
		); err != nil {
			h.Logger.Error("order scan failed", zapError(err))
			continue
		}

		order.CustomerID = int8Ptr(customerID)
		order.CustomerName = textPtr(customerName)
		order.CustomerPhone = textPtr(customerPhone)
		order.DeliveryPersonID = int8Ptr(deliveryPersonID)
		order.DeliveryPerson = textPtr(deliveryPerson)
		order.Subtotal = utils.NumericToFloat64(subtotal)
		order.DiscountAmount = utils.NumericToFloat64(discountAmount)
		order.TotalAmount = utils.NumericToFloat64(totalAmount)
		order.DeliveryAddress = textPtr(deliveryAddress)
		order.PaymentStatus = textPtr(paymentStatus)
		order.CollectionStatus = textPtr(collectionStatus)
		order.ShippedAt = timestampPtr(shippedAt)
		items = append(items, order)
	}

	response.Paginated(w, "orders", items, page, limit, total)
}

func (h *Handler) OrdersStatsOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select status, count(*), coalesce(sum(total_amount), 0)
		from orders
		group by status
	`)
	if err != nil {
		h.Logger.Error("order stats failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch order statistics")
		return
	}
	defer rows.Close()

	byStatus := map[string]int64{}
	var totalOrders int64
	var totalRevenue float64
	for rows.Next() {
		var (
			status string
			count  int64
			amount pgtype.Numeric
		)
		if err := rows.Scan(&status, &count, &amount); err != nil {
			continue
		}
		byStatus[status] = count
		totalOrders += count
		if status != "cancelled" {
			totalRevenue += utils.NumericToFloat64(amount)
		}
	}

	var todayOrders int64
	var todayRevenue pgtype.Numeric
	_ = h.DB.QueryRow(ctx, `
		select count(*), coalesce(sum(total_amount), 0)
		from orders
		where placed_at >= date_trunc('day', now()) and status <> 'cancelled'
	`).Scan(&todayOrders, &todayRevenue)

	response.Success(w, map[string]any{
		"totalOrders":  totalOrders,
		"totalRevenue": totalRevenue,
		"byStatus":     byStatus,
		"today": map[string]any{
			"orders":  todayOrders,
			"revenue": utils.NumericToFloat64(todayRevenue),
		},
	})
}

func int8Ptr(v pgtype.Int8) *int64 {
	if !v.Valid {
		return nil
	}
	out := v.Int64
	return &out
}

func textPtr(v pgtype.Text) *string {
	if !v.Valid {
		return nil
	}
	out := v.String
	return &out
}

func timestampPtr(v pgtype.Timestamptz) *time.Time {
	if !v.Valid {
		return nil
	}
	out := v.Time
	return &out
}
