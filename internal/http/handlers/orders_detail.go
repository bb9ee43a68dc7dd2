package handlers

import (
	"context"
	"net/http"
	"time"

	"swiftmart-admin-services/internal/discounts"
	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type OrderItemView struct {
	ID          int64   `json:"id"`
	ProductID   *int64  `json:"productId"`
	ProductName string  `json:"productName"`
	VariantID   *int64  `json:"variantId"`
	VariantName *string `json:"variantName"`
	Quantity    int64   `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

type OrderPaymentView struct {
	ID                  int64      `json:"id"`
	Status              string     `json:"status"`
	CollectionStatus    string     `json:"collectionStatus"`
	Method              string     `json:"method"`
	ExpectedAmount      float64    `json:"expectedAmount"`
	CollectedAmount     float64    `json:"collectedAmount"`
	BalanceAmount       float64    `json:"balanceAmount"`
	DeliveryAttempts    int64      `json:"deliveryAttempts"`
	CollectionIssues    []string   `json:"collectionIssues"`
	IssueDescription    *string    `json:"issueDescription"`
	AdminNotes          *string    `json:"adminNotes"`
	TransactionID       *string    `json:"transactionId"`
	ProofURL            *string    `json:"proofUrl"`
	CollectionTimestamp *time.Time `json:"collectionTimestamp"`
}

func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var (
		order              OrderListItem
		customerID         pgtype.Int8
		customerName       pgtype.Text
		customerPhone      pgtype.Text
		customerEmail      pgtype.Text
		deliveryPersonID   pgtype.Int8
		deliveryPerson     pgtype.Text
		subtotal           pgtype.Numeric
		discountAmount     pgtype.Numeric
		totalAmount        pgtype.Numeric
		deliveryAddress    pgtype.Text
		shippingCarrier    pgtype.Text
		trackingNumber     pgtype.Text
		cancellationReason pgtype.Text
		discountID         pgtype.Int8
		shippedAt          pgtype.Timestamptz
	)
	err = h.DB.QueryRow(ctx, `
		select
		  o.id, o.order_number, o.status, o.customer_id, c.name, c.phone, c.email,
		  o.delivery_person_id, d.name,
		  o.subtotal, o.discount_amount, o.total_amount, o.delivery_address,
		  o.shipping_carrier, o.shipping_tracking_number, o.cancellation_reason,
		  o.discount_id,
		  o.placed_at, o.updated_at, o.shipped_at
		from orders o
		left join customers c on c.id = o.customer_id
		left join users d on d.id = o.delivery_person_id
		where o.id = $1
	`, orderID).Scan(
		&order.ID,
		&order.OrderNumber,
		&order.Status,
		&customerID,
		&customerName,
		&customerPhone,
		&customerEmail,
		&deliveryPersonID,
		&deliveryPerson,
		&subtotal,
		&discountAmount,
		&totalAmount,
		&deliveryAddress,
		&shippingCarrier,
		&trackingNumber,
		&cancellationReason,
		&discountID,
		&order.PlacedAt,
		&order.UpdatedAt,
		&shippedAt,
	)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	}
	if err != nil {
		h.Logger.Error("order detail failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch order")
		return
	}

	subtotalDec := utils.NumericToDecimal(subtotal)
	discountAmountDec := utils.NumericToDecimal(discountAmount)

	order.CustomerID = int8Ptr(customerID)
	order.CustomerName = textPtr(customerName)
	order.CustomerPhone = textPtr(customerPhone)
	order.DeliveryPersonID = int8Ptr(deliveryPersonID)
	order.DeliveryPerson = textPtr(deliveryPerson)
	order.Subtotal = utils.NumericToFloat64(subtotal)
	order.DiscountAmount = utils.NumericToFloat64(discountAmount)
	order.TotalAmount = utils.NumericToFloat64(totalAmount)
	order.DeliveryAddress = textPtr(deliveryAddress)
	order.ShippedAt = timestampPtr(shippedAt)

	items := make([]OrderItemView, 0)
	itemRows, err := h.DB.Query(ctx, `
		select oi.id, oi.product_id, oi.product_name, oi.variant_id, pv.name,
		       oi.quantity, oi.unit_price, oi.subtotal
		from order_items oi
		left join product_variants pv on pv.id = oi.variant_id
		where oi.order_id = $1
		order by oi.id
	`, orderID)
	if err == nil {
		defer itemRows.Close()
		for itemRows.Next() {
			var (
				item        OrderItemView
				productID   pgtype.Int8
				variantID   pgtype.Int8
				variantName pgtype.Text
				unitPrice   pgtype.Numeric
				lineTotal   pgtype.Numeric
			)
			if err := itemRows.Scan(&item.ID, &productID, &item.ProductName, &variantID, &variantName, &item.Quantity, &unitPrice, &lineTotal); err != nil {
				continue
			}
			item.ProductID = int8Ptr(productID)
			item.VariantID = int8Ptr(variantID)
			item.VariantName = textPtr(variantName)
			item.UnitPrice = utils.NumericToFloat64(unitPrice)
			item.Subtotal = utils.NumericToFloat64(lineTotal)
			items = append(items, item)
		}
	}

	var payment *OrderPaymentView
	var (
		pv                  OrderPaymentView
		expectedAmount      pgtype.Numeric
		collectedAmount     pgtype.Numeric
		issueDescription    pgtype.Text
		adminNotes          pgtype.Text
		transactionID       pgtype.Text
		proofURL            pgtype.Text
		collectionTimestamp pgtype.Timestamptz
		collectionIssues    []string
	)
	err = h.DB.QueryRow(ctx, `
		select id, status, collection_status, method, expected_amount, collected_amount,
		       delivery_attempts, coalesce(collection_issues, '{}'), issue_description,
		       admin_notes, transaction_id, proof_url, collection_timestamp
		from payments
		where order_id = $1
	`, orderID).Scan(
		&pv.ID,
		&pv.Status,
		&pv.CollectionStatus,
		&pv.Method,
		&expectedAmount,
		&collectedAmount,
		&pv.DeliveryAttempts,
		&collectionIssues,
		&issueDescription,
		&adminNotes,
		&transactionID,
		&proofURL,
		&collectionTimestamp,
	)
	if err == nil {
		expected := utils.NumericToDecimal(expectedAmount)
		collected := utils.NumericToDecimal(collectedAmount)
		pv.ExpectedAmount, _ = expected.Float64()
		pv.CollectedAmount, _ = collected.Float64()
		balance, _ := expected.Sub(collected).Float64()
		if balance < 0 {
			balance = 0
		}
		pv.BalanceAmount = balance
		pv.CollectionIssues = collectionIssues
		pv.IssueDescription = textPtr(issueDescription)
		pv.AdminNotes = textPtr(adminNotes)
		pv.TransactionID = textPtr(transactionID)
		pv.ProofURL = textPtr(proofURL)
		pv.CollectionTimestamp = timestampPtr(collectionTimestamp)
		payment = &pv
	}

	var discount *DiscountBreakdown
	if discountID.Valid {
		if d, err := h.loadDiscount(ctx, discountID.Int64); err == nil {
			bd := discountBreakdown(*d, subtotalDec, discountAmountDec, order.PlacedAt)
			discount = &bd
		} else if err != pgx.ErrNoRows {
			h.Logger.Error("order discount lookup failed", zapError(err))
		}
	}

	response.Success(w, map[string]any{
		"order":              order,
		"customerEmail":      textPtr(customerEmail),
		"shippingCarrier":    textPtr(shippingCarrier),
		"trackingNumber":     textPtr(trackingNumber),
		"cancellationReason": textPtr(cancellationReason),
		"discount":           discount,
		"items":              items,
		"payment":            payment,
	})
}

type DiscountBreakdown struct {
	Code             string  `json:"code"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	Value            float64 `json:"value"`
	ComputedAmount   float64 `json:"computedAmount"`
	AppliedAmount    float64 `json:"appliedAmount"`
	Applicable       bool    `json:"applicable"`
	IneligibleReason *string `json:"ineligibleReason,omitempty"`
}

// discountBreakdown recomputes what the discount is worth against the order
// subtotal, next to the amount that was actually applied at checkout.
// Eligibility is evaluated against the current discount definition, so an
// exhausted or expired code shows up with a reason.
func discountBreakdown(d discounts.Discount, subtotal, appliedAmount decimal.Decimal, placedAt time.Time) DiscountBreakdown {
	bd := DiscountBreakdown{
		Code: d.Code,
		Name: d.Name,
		Type: string(d.Type),
	}
	bd.Value, _ = d.Value.Float64()
	bd.ComputedAmount, _ = discounts.Amount(d, subtotal).Float64()
	bd.AppliedAmount, _ = appliedAmount.Float64()

	if err := discounts.Applicable(d, subtotal, placedAt); err != nil {
		reason := err.Message
		bd.IneligibleReason = &reason
	} else {
		bd.Applicable = true
	}
	return bd
}

func (h *Handler) loadDiscount(ctx context.Context, discountID int64) (*discounts.Discount, error) {
	var (
		d        discounts.Discount
		value    pgtype.Numeric
		minOrder pgtype.Numeric
		maxDisc  pgtype.Numeric
	)
	err := h.DB.QueryRow(ctx, `
		select id, code, name, type, value, minimum_order_amount, maximum_discount_amount,
		       usage_limit, usage_count, valid_from, valid_until, is_public, is_active
		from discounts
		where id = $1
	`, discountID).Scan(
		&d.ID, &d.Code, &d.Name, &d.Type, &value, &minOrder, &maxDisc,
		&d.UsageLimit, &d.UsageCount, &d.ValidFrom, &d.ValidUntil, &d.IsPublic, &d.IsActive,
	)
	if err != nil {
		return nil, err
	}
	d.Value = utils.NumericToDecimal(value)
	d.MinimumOrderAmount = utils.NumericToDecimal(minOrder)
	d.MaximumDiscountAmount = utils.NumericToDecimal(maxDisc)
	return &d, nil
}
