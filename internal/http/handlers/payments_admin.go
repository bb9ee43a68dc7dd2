package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"swiftmart-admin-services/internal/middleware"
	"swiftmart-admin-services/internal/payments"
	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

type PaymentView struct {
	ID                  int64      `json:"id"`
	OrderID             int64      `json:"orderId"`
	OrderNumber         string     `json:"orderNumber"`
	OrderStatus         string     `json:"orderStatus"`
	CustomerName        *string    `json:"customerName"`
	DeliveryPersonID    *int64     `json:"deliveryPersonId"`
	DeliveryPerson      *string    `json:"deliveryPerson"`
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
	ProofURL            *string    `json:"proofUrl"`
	CollectionTimestamp *time.Time `json:"collectionTimestamp"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

const paymentSelectColumns = `
	p.id, p.order_id, o.order_number, o.status, c.name,
	p.delivery_person_id, d.name,
	p.status, p.collection_status, p.method,
	p.expected_amount, p.collected_amount, p.delivery_attempts,
	coalesce(p.collection_issues, '{}'), p.issue_description, p.admin_notes,
	p.proof_url, p.collection_timestamp, p.created_at, p.updated_at`

const paymentFromClause = `
	from payments p
	join orders o on o.id = p.order_id
	left join customers c on c.id = p.customer_id
	left join users d on d.id = p.delivery_person_id`

func scanPaymentRow(row pgx.Row) (*PaymentView, error) {
	var (
		pv                  PaymentView
		customerName        pgtype.Text
		deliveryPersonID    pgtype.Int8
		deliveryPerson      pgtype.Text
		expectedAmount      pgtype.Numeric
		collectedAmount     pgtype.Numeric
		issueDescription    pgtype.Text
		adminNotes          pgtype.Text
		proofURL            pgtype.Text
		collectionTimestamp pgtype.Timestamptz
		collectionIssues    []string
	)
	err := row.Scan(
		&pv.ID,
		&pv.OrderID,
		&pv.OrderNumber,
		&pv.OrderStatus,
		&customerName,
		&deliveryPersonID,
		&deliveryPerson,
		&pv.Status,
		&pv.CollectionStatus,
		&pv.Method,
		&expectedAmount,
		&collectedAmount,
		&pv.DeliveryAttempts,
		&collectionIssues,
		&issueDescription,
		&adminNotes,
		&proofURL,
		&collectionTimestamp,
		&pv.CreatedAt,
		&pv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	expected := utils.NumericToDecimal(expectedAmount)
	collected := utils.NumericToDecimal(collectedAmount)
	pv.ExpectedAmount, _ = expected.Float64()
	pv.CollectedAmount, _ = collected.Float64()
	pv.BalanceAmount, _ = payments.Balance(expected, collected).Float64()

	pv.CustomerName = textPtr(customerName)
	pv.DeliveryPersonID = int8Ptr(deliveryPersonID)
	pv.DeliveryPerson = textPtr(deliveryPerson)
	pv.CollectionIssues = collectionIssues
	pv.IssueDescription = textPtr(issueDescription)
	pv.AdminNotes = textPtr(adminNotes)
	pv.ProofURL = textPtr(proofURL)
	pv.CollectionTimestamp = timestampPtr(collectionTimestamp)
	return &pv, nil
}

func (h *Handler) AdminPaymentsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	page, limit := readPagination(r)

	whereClauses := []string{"1=1"}
	args := []any{}

	if status := strings.TrimSpace(query.Get("status")); status != "" {
		if !payments.ValidSettlementStatus(status) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown payment status: "+status)
			return
		}
		whereClauses = append(whereClauses, "p.status = $"+strconv.Itoa(len(args)+1))
		args = append(args, status)
	}
	if collectionStatus := strings.TrimSpace(query.Get("collectionStatus")); collectionStatus != "" {
		if !payments.ValidCollectionStatus(collectionStatus) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown collection status: "+collectionStatus)
			return
		}
		whereClauses = append(whereClauses, "p.collection_status = $"+strconv.Itoa(len(args)+1))
		args = append(args, collectionStatus)
	}
	if raw := strings.TrimSpace(query.Get("deliveryPersonId")); raw != "" {
		personID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid deliveryPersonId")
			return
		}
		whereClauses = append(whereClauses, "p.delivery_person_id = $"+strconv.Itoa(len(args)+1))
		args = append(args, personID)
	}
	if search := strings.TrimSpace(query.Get("search")); search != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		whereClauses = append(whereClauses, "(o.order_number ilike "+placeholder+" or c.name ilike "+placeholder+")")
		args = append(args, "%"+search+"%")
	}
	if startDate := strings.TrimSpace(query.Get("startDate")); startDate != "" {
		parsed, err := parseDateTimeParam(startDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid startDate")
			return
		}
		whereClauses = append(whereClauses, "p.created_at >= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}
	if endDate := strings.TrimSpace(query.Get("endDate")); endDate != "" {
		parsed, err := parseDateTimeParam(endDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid endDate")
			return
		}
		whereClauses = append(whereClauses, "p.created_at <= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}

	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(ctx, "select count(*)"+paymentFromClause+" where "+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("payment count failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch payments")
		return
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := h.DB.Query(ctx, "select "+paymentSelectColumns+paymentFromClause+
		" where "+whereSQL+
		" order by p.created_at desc limit $"+strconv.Itoa(len(args)-1)+" offset $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("payment list failed", zapError(err))
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

func (h *Handler) AdminPaymentStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		totalPayments    int64
		totalExpected    pgtype.Numeric
		totalCollected   pgtype.Numeric
		notCollected     int64
		collected        int64
		partialCollected int64
		failedCollection int64
	)
	err := h.DB.QueryRow(ctx, `
		select
		  count(*),
		  coalesce(sum(expected_amount), 0),
		  coalesce(sum(collected_amount), 0),
		  count(*) filter (where collection_status = 'not_collected'),
		  count(*) filter (where collection_status = 'collected'),
		  count(*) filter (where collection_status = 'partial_collected'),
		  count(*) filter (where collection_status = 'failed_collection')
		from payments
	`).Scan(&totalPayments, &totalExpected, &totalCollected, &notCollected, &collected, &partialCollected, &failedCollection)
	if err != nil {
		h.Logger.Error("payment statistics failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch payment statistics")
		return
	}

	expected := utils.NumericToDecimal(totalExpected)
	collectedAmount := utils.NumericToDecimal(totalCollected)
	outstanding, _ := payments.Balance(expected, collectedAmount).Float64()
	expectedF, _ := expected.Float64()
	collectedF, _ := collectedAmount.Float64()

	collectionRate := 0.0
	if expectedF > 0 {
		collectionRate = collectedF / expectedF
	}

	response.Success(w, map[string]any{
		"totalPayments":      totalPayments,
		"totalExpected":      expectedF,
		"totalCollected":     collectedF,
		"outstandingBalance": outstanding,
		"collectionRate":     collectionRate,
		"byCollectionStatus": map[string]int64{
			"not_collected":     notCollected,
			"collected":         collected,
			"partial_collected": partialCollected,
			"failed_collection": failedCollection,
		},
	})
}

type paymentReportRow struct {
	Period    string  `json:"period"`
	Payments  int64   `json:"payments"`
	Expected  float64 `json:"expected"`
	Collected float64 `json:"collected"`
	Failed    int64   `json:"failed"`
}

// AdminPaymentReports aggregates collections by day, week, or month. With
// format=csv the same rows come back as a download; the header row is always
// present even when there is nothing to report.
func (h *Handler) AdminPaymentReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	granularity := strings.TrimSpace(query.Get("period"))
	if granularity == "" {
		granularity = "daily"
	}
	var trunc string
	switch granularity {
	case "daily":
		trunc = "day"
	case "weekly":
		trunc = "week"
	case "monthly":
		trunc = "month"
	default:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "period must be daily, weekly or monthly")
		return
	}

	whereClauses := []string{"1=1"}
	args := []any{}
	if startDate := strings.TrimSpace(query.Get("startDate")); startDate != "" {
		parsed, err := parseDateTimeParam(startDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid startDate")
			return
		}
		whereClauses = append(whereClauses, "p.created_at >= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}
	if endDate := strings.TrimSpace(query.Get("endDate")); endDate != "" {
		parsed, err := parseDateTimeParam(endDate)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid endDate")
			return
		}
		whereClauses = append(whereClauses, "p.created_at <= $"+strconv.Itoa(len(args)+1))
		args = append(args, parsed)
	}

	rows, err := h.DB.Query(ctx, `
		select
		  to_char(date_trunc('`+trunc+`', p.created_at), 'YYYY-MM-DD') as period,
		  count(*),
		  coalesce(sum(p.expected_amount), 0),
		  coalesce(sum(p.collected_amount), 0),
		  count(*) filter (where p.collection_status = 'failed_collection')
		from payments p
		where `+strings.Join(whereClauses, " and ")+`
		group by 1
		order by 1 desc
		limit 366
	`, args...)
	if err != nil {
		h.Logger.Error("payment reports failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build payment report")
		return
	}
	defer rows.Close()

	reportRows := make([]paymentReportRow, 0)
	var summary paymentReportRow
	for rows.Next() {
		var (
			row       paymentReportRow
			expected  pgtype.Numeric
			collected pgtype.Numeric
		)
		if err := rows.Scan(&row.Period, &row.Payments, &expected, &collected, &row.Failed); err != nil {
			continue
		}
		row.Expected = utils.NumericToFloat64(expected)
		row.Collected = utils.NumericToFloat64(collected)
		reportRows = append(reportRows, row)

		summary.Payments += row.Payments
		summary.Expected += row.Expected
		summary.Collected += row.Collected
		summary.Failed += row.Failed
	}

	if strings.EqualFold(strings.TrimSpace(query.Get("format")), "csv") {
		buf := buildPaymentReportCSV(reportRows)
		filename := "payment-report-" + granularity + "-" + time.Now().Format("2006-01-02") + ".csv"
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		_, _ = w.Write(buf.Bytes())
		return
	}

	response.Success(w, map[string]any{
		"period": granularity,
		"rows":   reportRows,
		"summary": map[string]any{
			"payments":  summary.Payments,
			"expected":  summary.Expected,
			"collected": summary.Collected,
			"failed":    summary.Failed,
		},
	})
}

func buildPaymentReportCSV(rows []paymentReportRow) *bytes.Buffer {
	var buf bytes.Buffer
	buf.WriteString("period,payments,expected,collected,failed\n")
	for _, row := range rows {
		buf.WriteString(fmt.Sprintf("\"%s\",%d,%.2f,%.2f,%d\n",
			csvEscape(row.Period), row.Payments, row.Expected, row.Collected, row.Failed))
	}
	return &buf
}

// AdminPaymentMarkReceived records money received at the office against an
// outstanding payment. It shares the collection state machine with the
// courier-side collect endpoint; only the attribution differs.
func (h *Handler) AdminPaymentMarkReceived(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, _ := middleware.GetAuthContext(ctx)

	paymentID, err := readPathInt64(r, "paymentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	var payload struct {
		Amount any    `json:"amount"`
		Notes  string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	amount, err := parseAmount(payload.Amount)
	if err != nil {
		response.Error(w, http.StatusUnprocessableEntity, string(payments.ErrAmountRequired), "Collection amount is required")
		return
	}

	h.applyCollection(w, r, paymentID, amount, collectionAttribution{
		adminID:    authCtx.UserID,
		adminNotes: strings.TrimSpace(payload.Notes),
	})
}

// AdminPaymentUpdate lets an admin correct the settlement status and notes on
// a payment without going through a collection attempt.
func (h *Handler) AdminPaymentUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, _ := middleware.GetAuthContext(ctx)

	paymentID, err := readPathInt64(r, "paymentId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payment id")
		return
	}

	var payload struct {
		Status *string `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if payload.Status == nil && payload.Notes == nil {
		response.Error(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Nothing to update")
		return
	}

	setClauses := []string{"updated_at = now()"}
	args := []any{paymentID}
	if payload.Status != nil {
		status := strings.TrimSpace(*payload.Status)
		if !payments.ValidSettlementStatus(status) {
			response.Error(w, http.StatusUnprocessableEntity, string(payments.ErrStatusInvalid), "Unknown payment status: "+status)
			return
		}
		setClauses = append(setClauses, "status = $"+strconv.Itoa(len(args)+1))
		args = append(args, status)
	}
	if payload.Notes != nil {
		setClauses = append(setClauses, "admin_notes = nullif($"+strconv.Itoa(len(args)+1)+", '')")
		args = append(args, strings.TrimSpace(*payload.Notes))
	}

	tag, err := h.DB.Exec(ctx, "update payments set "+strings.Join(setClauses, ", ")+" where id = $1", args...)
	if err != nil {
		h.Logger.Error("payment update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update payment")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Payment not found")
		return
	}

	h.Logger.Info("payment updated", zap.Int64("paymentId", paymentID), zap.Int64("actorId", authCtx.UserID))
	response.Success(w, map[string]any{"paymentId": paymentID})
}
