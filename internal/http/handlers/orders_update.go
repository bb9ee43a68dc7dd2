package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"swiftmart-admin-services/internal/middleware"
	"swiftmart-admin-services/internal/payments"
	"swiftmart-admin-services/internal/queue"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// OrderUpdateStatus moves an order along the delivery lifecycle. Transitions
// outside the lifecycle are rejected server side regardless of what the
// client sends, and cancellations always carry a reason.
func (h *Handler) OrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, _ := middleware.GetAuthContext(ctx)

	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var payload struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	next := payments.OrderStatus(strings.TrimSpace(payload.Status))
	if !payments.ValidOrderStatus(string(next)) {
		response.Error(w, http.StatusUnprocessableEntity, string(payments.ErrStatusInvalid), "Unknown order status: "+payload.Status)
		return
	}

	reason := strings.TrimSpace(payload.Reason)
	if next == payments.OrderCancelled && reason == "" {
		response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Cancellation reason is required")
		return
	}

	var current payments.OrderStatus
	err = h.DB.QueryRow(ctx, `select status from orders where id = $1`, orderID).Scan(&current)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	}
	if err != nil {
		h.Logger.Error("order status lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}

	if current.Terminal() {
		response.Error(w, http.StatusConflict, "INVALID_STATE", "Order is already "+string(current))
		return
	}
	if !payments.CanTransition(current, next) {
		response.Error(w, http.StatusConflict, string(payments.ErrTransitionNotAllowed), "Cannot move order from "+string(current)+" to "+string(next))
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update orders
		set status = $2,
		    cancellation_reason = case when $2 = 'cancelled' then $3 else cancellation_reason end,
		    updated_at = now()
		where id = $1 and status = $4
	`, orderID, string(next), reason, string(current))
	if err != nil {
		h.Logger.Error("order status update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}
	if tag.RowsAffected() == 0 {
		// Lost the race against a concurrent update.
		response.Error(w, http.StatusConflict, "INVALID_STATE", "Order changed, reload and retry")
		return
	}

	h.Logger.Info("order status updated",
		zap.Int64("orderId", orderID),
		zap.String("from", string(current)),
		zap.String("to", string(next)),
		zap.Int64("actorId", authCtx.UserID),
	)
	queue.Publish(ctx, h.Queue, queue.EventOrderStatusUpdated, queue.Event{
		OrderID: orderID,
		ActorID: authCtx.UserID,
		Status:  string(next),
	})

	response.Success(w, map[string]any{
		"orderId": orderID,
		"status":  string(next),
	})
}

func (h *Handler) OrderUpdateShipping(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var payload struct {
		Carrier        string `json:"carrier"`
		TrackingNumber string `json:"trackingNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	carrier := strings.TrimSpace(payload.Carrier)
	trackingNumber := strings.TrimSpace(payload.TrackingNumber)
	if carrier == "" || trackingNumber == "" {
		response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Carrier and tracking number are required")
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update orders
		set shipping_carrier = $2, shipping_tracking_number = $3,
		    shipped_at = coalesce(shipped_at, now()), updated_at = now()
		where id = $1
	`, orderID, carrier, trackingNumber)
	if err != nil {
		h.Logger.Error("order shipping update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update shipping")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	}

	response.Success(w, map[string]any{
		"orderId":        orderID,
		"carrier":        carrier,
		"trackingNumber": trackingNumber,
	})
}

// OrderUpdatePayment is the legacy "mark order paid" surface on the order
// screen. Marking paid requires a transaction reference; the detailed COD
// flow lives under the payments routes.
func (h *Handler) OrderUpdatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var payload struct {
		Status        string `json:"status"`
		TransactionID string `json:"transactionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	status := strings.TrimSpace(payload.Status)
	if !payments.ValidSettlementStatus(status) {
		response.Error(w, http.StatusUnprocessableEntity, string(payments.ErrStatusInvalid), "Unknown payment status: "+payload.Status)
		return
	}

	transactionID := strings.TrimSpace(payload.TransactionID)
	settled := status == string(payments.SettlementCompleted) || status == string(payments.SettlementPaidOnDelivery)
	if settled && transactionID == "" {
		response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Transaction reference is required when marking a payment as paid")
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update payments
		set status = $2,
		    transaction_id = nullif($3, ''),
		    updated_at = now()
		where order_id = $1
	`, orderID, status, transactionID)
	if err != nil {
		h.Logger.Error("order payment update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update payment")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "No payment found for this order")
		return
	}

	response.Success(w, map[string]any{
		"orderId": orderID,
		"status":  status,
	})
}
