package queue

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "swiftmart.events"
	EventsQueue    = "swiftmart.notifications"

	NotificationJobsExchange = "swiftmart.notification_jobs"
	NotificationJobsQueue    = "swiftmart.notification_jobs.process"
	NotificationJobsDLQ      = "swiftmart.notification_jobs.dlq"
	NotificationJobsRK       = "process"
	NotificationJobsDeadRK   = "dead"

	EventOrderStatusUpdated   = "order.status.updated"
	EventPaymentCollected     = "payment.collected"
	EventPaymentIssueReported = "payment.issue_reported"
)

type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OrderID    int64     `json:"orderId,omitempty"`
	PaymentID  int64     `json:"paymentId,omitempty"`
	ActorID    int64     `json:"actorId,omitempty"`
	Status     string    `json:"status,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publish sends a domain event onto the topic exchange; event IDs make the
// downstream notification worker idempotent.
func Publish(ctx context.Context, qc *Client, eventType string, evt Event) {
	if qc == nil {
		return
	}
	evt.ID = uuid.NewString()
	evt.Type = eventType
	evt.OccurredAt = time.Now().UTC()
	_ = qc.PublishJSON(ctx, EventsExchange, eventType, evt)
}

func EnsureNotificationJobsTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchangeKind(NotificationJobsExchange, "direct"); err != nil {
		return err
	}

	if _, err := qc.EnsureQueue(NotificationJobsDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(NotificationJobsDLQ, NotificationJobsExchange, NotificationJobsDeadRK); err != nil {
		return err
	}

	_, err := qc.EnsureQueueWithArgs(NotificationJobsQueue, amqp.Table{
		"x-dead-letter-exchange":    NotificationJobsExchange,
		"x-dead-letter-routing-key": NotificationJobsDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(NotificationJobsQueue, NotificationJobsExchange, NotificationJobsRK)
}

type notificationJob struct {
	EventID     string `json:"eventId"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	OrderNumber string `json:"orderNumber,omitempty"`
	PaymentID   int64  `json:"paymentId,omitempty"`
}

// ProcessEventToJobs translates domain events from the notifications queue
// into admin alert rows plus queued notification jobs.
func ProcessEventToJobs(ctx context.Context, db *pgxpool.Pool, qc *Client, body []byte) error {
	if db == nil || qc == nil {
		return nil
	}

	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.Type) == "" {
		// unknown envelope
		return nil
	}

	var job notificationJob
	job.EventID = evt.ID

	switch evt.Type {
	case EventOrderStatusUpdated:
		orderNumber, err := lookupOrderNumber(ctx, db, evt.OrderID)
		if err != nil {
			return err
		}
		job.Kind = "order_status"
		job.OrderNumber = orderNumber
		job.Title = "Order " + orderNumber + " updated"
		job.Body = "Order moved to " + evt.Status
	case EventPaymentCollected:
		orderNumber, err := lookupPaymentOrderNumber(ctx, db, evt.PaymentID)
		if err != nil {
			return err
		}
		job.Kind = "payment_collected"
		job.OrderNumber = orderNumber
		job.PaymentID = evt.PaymentID
		job.Title = "COD collected for " + orderNumber
		job.Body = "Collected " + evt.Amount
	case EventPaymentIssueReported:
		orderNumber, err := lookupPaymentOrderNumber(ctx, db, evt.PaymentID)
		if err != nil {
			return err
		}
		job.Kind = "payment_issue"
		job.OrderNumber = orderNumber
		job.PaymentID = evt.PaymentID
		job.Title = "Collection issue on " + orderNumber
		job.Body = "A delivery person reported a collection issue"
	default:
		// ignore
		return nil
	}

	// Idempotent on event ID so redeliveries do not duplicate alerts.
	_, err := db.Exec(ctx, `
		insert into admin_notifications (event_id, kind, title, body, order_number, payment_id)
		values ($1, $2, $3, $4, nullif($5, ''), nullif($6, 0))
		on conflict (event_id) do nothing
	`, job.EventID, job.Kind, job.Title, job.Body, job.OrderNumber, job.PaymentID)
	if err != nil {
		return err
	}

	return qc.PublishJSON(ctx, NotificationJobsExchange, NotificationJobsRK, job)
}

func lookupOrderNumber(ctx context.Context, db *pgxpool.Pool, orderID int64) (string, error) {
	var orderNumber string
	err := db.QueryRow(ctx, `select order_number from orders where id = $1`, orderID).Scan(&orderNumber)
	return orderNumber, err
}

func lookupPaymentOrderNumber(ctx context.Context, db *pgxpool.Pool, paymentID int64) (string, error) {
	var orderNumber string
	err := db.QueryRow(ctx, `
		select o.order_number
		from payments p
		join orders o on o.id = p.order_id
		where p.id = $1
	`, paymentID).Scan(&orderNumber)
	return orderNumber, err
}
