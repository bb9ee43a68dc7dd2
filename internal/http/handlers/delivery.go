package handlers

import (
	"encoding/json"
	"net/http"

	"swiftmart-admin-services/internal/middleware"
	"swiftmart-admin-services/internal/payments"
	"swiftmart-admin-services/internal/queue"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type DeliveryPersonView struct {
	ID                  int64    `json:"id"`
	Name                string   `json:"name"`
	Email               string   `json:"email"`
	Phone               *string  `json:"phone"`
	IsActive            bool     `json:"isActive"`
	ActiveOrders        int64    `json:"activeOrders"`
	TotalCompleted      int64    `json:"totalCompleted"`
	TotalFailed         int64    `json:"totalFailed"`
	DeliveryRate        float64  `json:"deliveryRate"`
	AverageDeliveryMins *float64 `json:"averageDeliveryMins"`
}

// DeliveryPersonsList returns every delivery account with its workload and
// historical performance, which is what the assignment picker renders.
func (h *Handler) DeliveryPersonsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select
		  u.id, u.name, u.email, u.phone, u.is_active,
		  count(o.id) filter (where o.status in ('assigned', 'out_for_delivery')) as active_orders,
		  count(o.id) filter (where o.status = 'completed') as total_completed,
		  count(o.id) filter (where o.status = 'cancelled') as total_failed,
		  avg(extract(epoch from (o.updated_at - o.placed_at)) / 60.0)
		    filter (where o.status = 'completed') as avg_delivery_mins
		from users u
		left join orders o on o.delivery_person_id = u.id
		where u.role = 'DELIVERY'
		group by u.id, u.name, u.email, u.phone, u.is_active
		order by u.name
	`)
	if err != nil {
		h.Logger.Error("delivery persons query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch delivery persons")
		return
	}
	defer rows.Close()

	persons := make([]DeliveryPersonView, 0)
	for rows.Next() {
		var (
			person  DeliveryPersonView
			phone   pgtype.Text
			avgMins pgtype.Float8
		)
		if err := rows.Scan(&person.ID, &person.Name, &person.Email, &phone, &person.IsActive,
			&person.ActiveOrders, &person.TotalCompleted, &person.TotalFailed, &avgMins); err != nil {
			h.Logger.Error("delivery person scan failed", zapError(err))
			continue
		}
		person.Phone = textPtr(phone)
		finished := person.TotalCompleted + person.TotalFailed
		if finished > 0 {
			person.DeliveryRate = float64(person.TotalCompleted) / float64(finished)
		}
		if avgMins.Valid {
			mins := avgMins.Float64
			person.AverageDeliveryMins = &mins
		}
		persons = append(persons, person)
	}

	response.Success(w, map[string]any{"deliveryPersons": persons})
}

// DeliveryAssign puts a confirmed, unassigned order onto a delivery person.
// Changing an existing assignment goes through reassign instead.
func (h *Handler) DeliveryAssign(w http.ResponseWriter, r *http.Request) {
	h.assignDeliveryPerson(w, r, false)
}

// DeliveryReassign swaps the delivery person on an order that already has
// one, as long as the order is still in flight.
func (h *Handler) DeliveryReassign(w http.ResponseWriter, r *http.Request) {
	h.assignDeliveryPerson(w, r, true)
}

func (h *Handler) assignDeliveryPerson(w http.ResponseWriter, r *http.Request, reassign bool) {
	ctx := r.Context()
	authCtx, _ := middleware.GetAuthContext(ctx)

	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}

	var payload struct {
		DeliveryPersonID int64 `json:"deliveryPersonId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.DeliveryPersonID <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "deliveryPersonId is required")
		return
	}

	var personActive bool
	err = h.DB.QueryRow(ctx, `
		select is_active from users where id = $1 and role = 'DELIVERY'
	`, payload.DeliveryPersonID).Scan(&personActive)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Delivery person not found")
		return
	}
	if err != nil {
		h.Logger.Error("delivery person lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to assign order")
		return
	}
	if !personActive {
		response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Delivery person is inactive")
		return
	}

	var (
		status          payments.OrderStatus
		currentAssignee pgtype.Int8
	)
	err = h.DB.QueryRow(ctx, `
		select status, delivery_person_id from orders where id = $1
	`, orderID).Scan(&status, &currentAssignee)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Order not found")
		return
	}
	if err != nil {
		h.Logger.Error("order lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to assign order")
		return
	}

	if reassign {
		if !currentAssignee.Valid {
			response.Error(w, http.StatusConflict, "INVALID_STATE", "Order has no delivery person to replace")
			return
		}
		if status.Terminal() {
			response.Error(w, http.StatusConflict, "INVALID_STATE", "Order is already "+string(status))
			return
		}
	} else {
		if currentAssignee.Valid {
			response.Error(w, http.StatusConflict, "INVALID_STATE", "Order already has a delivery person, use reassign")
			return
		}
		if status != payments.OrderConfirmed {
			response.Error(w, http.StatusConflict, "INVALID_STATE", "Only confirmed orders can be assigned")
			return
		}
	}

	var query string
	if reassign {
		query = `
			update orders
			set delivery_person_id = $2, updated_at = now()
			where id = $1`
	} else {
		query = `
			update orders
			set delivery_person_id = $2, status = 'assigned', updated_at = now()
			where id = $1 and status = 'confirmed' and delivery_person_id is null`
	}
	tag, err := h.DB.Exec(ctx, query, orderID, payload.DeliveryPersonID)
	if err != nil {
		h.Logger.Error("delivery assignment failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to assign order")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusConflict, "INVALID_STATE", "Order changed, reload and retry")
		return
	}

	// Keep the pending COD settlement attributed to its courier.
	_, err = h.DB.Exec(ctx, `
		update payments
		set delivery_person_id = $2, updated_at = now()
		where order_id = $1 and collection_status <> 'collected'
	`, orderID, payload.DeliveryPersonID)
	if err != nil {
		h.Logger.Error("payment attribution update failed", zapError(err), zap.Int64("orderId", orderID))
	}

	h.Logger.Info("order assigned",
		zap.Int64("orderId", orderID),
		zap.Int64("deliveryPersonId", payload.DeliveryPersonID),
		zap.Bool("reassign", reassign),
		zap.Int64("actorId", authCtx.UserID),
	)
	if !reassign {
		queue.Publish(ctx, h.Queue, queue.EventOrderStatusUpdated, queue.Event{
			OrderID: orderID,
			ActorID: authCtx.UserID,
			Status:  string(payments.OrderAssigned),
		})
	}

	response.Success(w, map[string]any{
		"orderId":          orderID,
		"deliveryPersonId": payload.DeliveryPersonID,
	})
}
