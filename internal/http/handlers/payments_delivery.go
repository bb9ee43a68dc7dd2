package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"swiftmart-admin-services/internal/middleware"
	"swiftmart-admin-services/internal/payments"
	"swiftmart-admin-services/internal/queue"
	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DeliveryMyPayments lists the payments assigned to the calling courier,
// outstanding first.
func (h *Handler) DeliveryMyPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}
	page, limit := readPagination(r)

	var total int64
	err := h.DB.QueryRow(ctx, "select count(*)"+paymentFromClause+" where p.delivery_person_id = $1", authCtx.UserID).Scan(&total)
	if err != nil {
		h.Logger.Error("my payments count failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch payments")
		return
	}

	rows, err := h.DB.Query(ctx, "select "+paymentSelectColumns+paymentFromClause+`
		where p.delivery_person_id = $1
		order by (p.collection_status = 'collected'), p.created_at desc
		limit $2 offset $3
	`, authCtx.UserID, limit, (page-1)*limit)
	if err != nil {
		h.Logger.Error("my payments query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch payments")
		return
	}
	defer rows.Close()

	items := make([]PaymentView, 0)
	for rows.Next() {
		pv, err := scanPaymentRow(rows)
		if err != nil {
			h.Logger.Error("payment scan failed", zapError(err))
			continue
		}
		items = append(items, *pv)
	}

	response.Paginated(w, "payments", items, page, limit, total)
}

// DeliveryCollectPayment records cash taken at the door. Shortcut values
// ("full", "half") resolve against the outstanding balance server side so a
// stale client cannot overcollect.
func (h *Handler) DeliveryCollectPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	paymentID, err := readPathInt64(r, "paymentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	var payload struct {
		Amount   any    `json:"amount"`
		Shortcut string `json:"shortcut"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	var amount decimal.Decimal
	shortcut := strings.TrimSpace(strings.ToLower(payload.Shortcut))
	if shortcut != "" {
		if shortcut != "full" && shortcut != "half" {
			response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "shortcut must be full or half")
			return
		}
	} else {
		amount, err = parseAmount(payload.Amount)
		if err != nil {
			response.Error(w, http.StatusUnprocessableEntity, string(payments.ErrAmountRequired), "Collection amount is required")
			return
		}
	}

	h.applyCollection(w, r, paymentID, amount, collectionAttribution{
		deliveryPersonID: authCtx.UserID,
		shortcut:         shortcut,
	})
}

type collectionAttribution struct {
	deliveryPersonID int64
	adminID          int64
	adminNotes       string
	shortcut         string
}

// applyCollection loads the payment, runs the collection state machine, and
// persists the result in one transaction. Both the courier collect and the
// admin mark-received endpoints land here.
func (h *Handler) applyCollection(w http.ResponseWriter, r *http.Request, paymentID int64, amount decimal.Decimal, attribution collectionAttribution) {
	ctx := r.Context()

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		h.Logger.Error("collection tx begin failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record collection")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		orderID          int64
		deliveryPersonID pgtype.Int8
		expectedAmount   pgtype.Numeric
		collectedAmount  pgtype.Numeric
		collectionStatus string
	)
	err = tx.QueryRow(ctx, `
		select order_id, delivery_person_id, expected_amount, collected_amount, collection_status
		from payments
		where id = $1
		for update
	`, paymentID).Scan(&orderID, &deliveryPersonID, &expectedAmount, &collectedAmount, &collectionStatus)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Payment not found")
		return
	}
	if err != nil {
		h.Logger.Error("collection payment lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record collection")
		return
	}

	// Couriers may only touch payments assigned to them.
	if attribution.deliveryPersonID != 0 {
		if !deliveryPersonID.Valid || deliveryPersonID.Int64 != attribution.deliveryPersonID {
			response.Error(w, http.StatusForbidden, "FORBIDDEN", "Payment is not assigned to you")
			return
		}
	}

	input := payments.CollectionInput{
		ExpectedAmount:   utils.NumericToDecimal(expectedAmount),
		CollectedAmount:  utils.NumericToDecimal(collectedAmount),
		CollectionStatus: payments.CollectionStatus(collectionStatus),
		Amount:           amount,
	}
	switch attribution.shortcut {
	case "full":
		input.Amount = payments.FullAmount(payments.Balance(input.ExpectedAmount, input.CollectedAmount))
	case "half":
		input.Amount = payments.HalfAmount(payments.Balance(input.ExpectedAmount, input.CollectedAmount))
	}

	result, domainErr := payments.ApplyCollection(input)
	if domainErr != nil {
		writeDomainError(w, domainErr)
		return
	}

	collectorID := attribution.deliveryPersonID
	if collectorID == 0 {
		collectorID = attribution.adminID
	}
	_, err = tx.Exec(ctx, `
		update payments
		set collected_amount = $2,
		    collection_status = $3,
		    status = $4,
		    collected_by = $5,
		    admin_notes = coalesce(nullif($6, ''), admin_notes),
		    collection_timestamp = now(),
		    updated_at = now()
		where id = $1
	`, paymentID,
		result.CollectedAmount.StringFixed(2),
		string(result.CollectionStatus),
		string(result.SettlementStatus),
		collectorID,
		attribution.adminNotes,
	)
	if err != nil {
		h.Logger.Error("collection update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record collection")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		h.Logger.Error("collection tx commit failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to record collection")
		return
	}

	h.Logger.Info("payment collected",
		zap.Int64("paymentId", paymentID),
		zap.Int64("orderId", orderID),
		zap.String("amount", input.Amount.StringFixed(2)),
		zap.String("collectionStatus", string(result.CollectionStatus)),
		zap.Int64("collectorId", collectorID),
	)
	queue.Publish(ctx, h.Queue, queue.EventPaymentCollected, queue.Event{
		OrderID:   orderID,
		PaymentID: paymentID,
		ActorID:   collectorID,
		Status:    string(result.CollectionStatus),
		Amount:    input.Amount.StringFixed(2),
	})

	collectedF, _ := result.CollectedAmount.Float64()
	balanceF, _ := result.BalanceAmount.Float64()
	response.Success(w, map[string]any{
		"paymentId":        paymentID,
		"collectedAmount":  collectedF,
		"balanceAmount":    balanceF,
		"collectionStatus": string(result.CollectionStatus),
		"status":           string(result.SettlementStatus),
	})
}

// DeliveryReportIssue marks a collection attempt as failed with the reasons
// the courier observed at the door.
func (h *Handler) DeliveryReportIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	paymentID, err := readPathInt64(r, "paymentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	var payload struct {
		Issues      []string `json:"issues"`
		Description string   `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	var (
		orderID          int64
		deliveryPersonID pgtype.Int8
		collectionStatus string
		settlementStatus string
	)
	err = h.DB.QueryRow(ctx, `
		select order_id, delivery_person_id, collection_status, status
		from payments
		where id = $1
	`, paymentID).Scan(&orderID, &deliveryPersonID, &collectionStatus, &settlementStatus)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Payment not found")
		return
	}
	if err != nil {
		h.Logger.Error("issue report lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to report issue")
		return
	}
	if !deliveryPersonID.Valid || deliveryPersonID.Int64 != authCtx.UserID {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Payment is not assigned to you")
		return
	}

	nextCollection, nextSettlement, domainErr := payments.ApplyIssueReport(
		payments.CollectionStatus(collectionStatus),
		payments.SettlementStatus(settlementStatus),
		payload.Issues,
		payload.Description,
	)
	if domainErr != nil {
		writeDomainError(w, domainErr)
		return
	}

	_, err = h.DB.Exec(ctx, `
		update payments
		set collection_status = $2,
		    status = $3,
		    collection_issues = $4,
		    issue_description = $5,
		    delivery_attempts = delivery_attempts + 1,
		    updated_at = now()
		where id = $1
	`, paymentID, string(nextCollection), string(nextSettlement), payload.Issues, strings.TrimSpace(payload.Description))
	if err != nil {
		h.Logger.Error("issue report update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to report issue")
		return
	}

	queue.Publish(ctx, h.Queue, queue.EventPaymentIssueReported, queue.Event{
		OrderID:   orderID,
		PaymentID: paymentID,
		ActorID:   authCtx.UserID,
		Status:    string(nextCollection),
	})

	response.Success(w, map[string]any{
		"paymentId":        paymentID,
		"collectionStatus": string(nextCollection),
		"status":           string(nextSettlement),
	})
}

// DeliveryRetryCollection re-opens a failed collection for another attempt.
func (h *Handler) DeliveryRetryCollection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	paymentID, err := readPathInt64(r, "paymentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	var (
		deliveryPersonID pgtype.Int8
		collectionStatus string
	)
	err = h.DB.QueryRow(ctx, `
		select delivery_person_id, collection_status from payments where id = $1
	`, paymentID).Scan(&deliveryPersonID, &collectionStatus)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Payment not found")
		return
	}
	if err != nil {
		h.Logger.Error("retry lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retry collection")
		return
	}
	if !deliveryPersonID.Valid || deliveryPersonID.Int64 != authCtx.UserID {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Payment is not assigned to you")
		return
	}

	next, domainErr := payments.RetryCollection(payments.CollectionStatus(collectionStatus))
	if domainErr != nil {
		writeDomainError(w, domainErr)
		return
	}

	_, err = h.DB.Exec(ctx, `
		update payments
		set collection_status = $2,
		    delivery_attempts = delivery_attempts + 1,
		    updated_at = now()
		where id = $1
	`, paymentID, string(next))
	if err != nil {
		h.Logger.Error("retry update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to retry collection")
		return
	}

	response.Success(w, map[string]any{
		"paymentId":        paymentID,
		"collectionStatus": string(next),
	})
}

// DeliveryUploadProof attaches a collection photo to a payment. Images are
// normalized (EXIF rotation, resize, JPEG re-encode) before landing in the
// object store.
func (h *Handler) DeliveryUploadProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}
	if h.Store == nil {
		response.Error(w, http.StatusServiceUnavailable, string(payments.ErrCollectionUnavailable), "Proof uploads are not available right now")
		return
	}

	paymentID, err := readPathInt64(r, "paymentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	var deliveryPersonID pgtype.Int8
	err = h.DB.QueryRow(ctx, `select delivery_person_id from payments where id = $1`, paymentID).Scan(&deliveryPersonID)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Payment not found")
		return
	}
	if err != nil {
		h.Logger.Error("proof upload lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to upload proof")
		return
	}
	if !deliveryPersonID.Valid || deliveryPersonID.Int64 != authCtx.UserID {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Payment is not assigned to you")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxProofFileSizeBytes)
	if err := r.ParseMultipartForm(h.Config.MaxProofFileSizeBytes); err != nil {
		response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Proof photo exceeds the size limit")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "A file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Failed to read uploaded file")
		return
	}

	contentType := utils.DetectContentType(data)
	if !utils.ValidateProofContentType(contentType) {
		response.Error(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Only JPEG, PNG, WebP and HEIC photos are accepted")
		return
	}

	normalized, meta, err := utils.NormalizeProofImage(data, 1600, 82)
	if err != nil {
		h.Logger.Warn("proof normalize failed", zapError(err), zap.String("filename", header.Filename))
		response.Error(w, http.StatusUnprocessableEntity, "IMAGE_DECODE_FAILED", "Could not process the uploaded photo")
		return
	}

	key := "payment-proofs/" + uuid.NewString() + ".jpg"
	url, err := h.Store.PutObject(ctx, key, normalized, "image/jpeg", "public, max-age=31536000")
	if err != nil {
		h.Logger.Error("proof upload failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to upload proof")
		return
	}

	_, err = h.DB.Exec(ctx, `
		update payments set proof_url = $2, updated_at = now() where id = $1
	`, paymentID, url)
	if err != nil {
		h.Logger.Error("proof url save failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to upload proof")
		return
	}

	response.Success(w, map[string]any{
		"paymentId": paymentID,
		"proofUrl":  url,
		"width":     meta.Width,
		"height":    meta.Height,
	})
}
