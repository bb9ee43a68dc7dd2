package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"swiftmart-admin-services/internal/discounts"
	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type DiscountView struct {
	ID                    int64     `json:"id"`
	Code                  string    `json:"code"`
	Name                  string    `json:"name"`
	Type                  string    `json:"type"`
	Value                 float64   `json:"value"`
	MinimumOrderAmount    float64   `json:"minimumOrderAmount"`
	MaximumDiscountAmount float64   `json:"maximumDiscountAmount"`
	UsageLimit            int64     `json:"usageLimit"`
	UsageCount            int64     `json:"usageCount"`
	ValidFrom             time.Time `json:"validFrom"`
	ValidUntil            time.Time `json:"validUntil"`
	ApplicableProducts    []int64   `json:"applicableProducts"`
	ApplicableCategories  []int64   `json:"applicableCategories"`
	IsPublic              bool      `json:"isPublic"`
	IsActive              bool      `json:"isActive"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}

type discountPayload struct {
	Code                  string  `json:"code"`
	Name                  string  `json:"name"`
	Type                  string  `json:"type"`
	Value                 any     `json:"value"`
	MinimumOrderAmount    any     `json:"minimumOrderAmount"`
	MaximumDiscountAmount any     `json:"maximumDiscountAmount"`
	UsageLimit            int64   `json:"usageLimit"`
	ValidFrom             string  `json:"validFrom"`
	ValidUntil            string  `json:"validUntil"`
	ApplicableProducts    []int64 `json:"applicableProducts"`
	ApplicableCategories  []int64 `json:"applicableCategories"`
	IsPublic              bool    `json:"isPublic"`
	IsActive              *bool   `json:"isActive"`
}

func (p discountPayload) toDomain() (discounts.Discount, *discounts.Error) {
	d := discounts.Discount{
		Code:                 strings.ToUpper(strings.TrimSpace(p.Code)),
		Name:                 strings.TrimSpace(p.Name),
		Type:                 discounts.DiscountType(strings.TrimSpace(p.Type)),
		UsageLimit:           p.UsageLimit,
		ApplicableProducts:   p.ApplicableProducts,
		ApplicableCategories: p.ApplicableCategories,
		IsPublic:             p.IsPublic,
		IsActive:             true,
	}
	if p.IsActive != nil {
		d.IsActive = *p.IsActive
	}

	var err error
	if d.Value, err = parseAmount(p.Value); err != nil {
		return d, discounts.ValidationError(discounts.ErrValueInvalid, "Discount value must be a number")
	}
	d.MinimumOrderAmount = decimal.Zero
	if p.MinimumOrderAmount != nil {
		if d.MinimumOrderAmount, err = parseAmount(p.MinimumOrderAmount); err != nil {
			return d, discounts.ValidationError(discounts.ErrAmountNegative, "minimumOrderAmount must be a number")
		}
	}
	d.MaximumDiscountAmount = decimal.Zero
	if p.MaximumDiscountAmount != nil {
		if d.MaximumDiscountAmount, err = parseAmount(p.MaximumDiscountAmount); err != nil {
			return d, discounts.ValidationError(discounts.ErrAmountNegative, "maximumDiscountAmount must be a number")
		}
	}

	if d.ValidFrom, err = parseDateTimeParam(strings.TrimSpace(p.ValidFrom)); err != nil {
		return d, discounts.ValidationError(discounts.ErrValidityWindowInvalid, "Invalid validFrom")
	}
	if d.ValidUntil, err = parseDateTimeParam(strings.TrimSpace(p.ValidUntil)); err != nil {
		return d, discounts.ValidationError(discounts.ErrValidityWindowInvalid, "Invalid validUntil")
	}

	if domainErr := discounts.Validate(d); domainErr != nil {
		return d, domainErr
	}
	return d, nil
}

func writeDiscountError(w http.ResponseWriter, err *discounts.Error) {
	response.Error(w, err.StatusCode, string(err.Code), err.Message)
}

const discountColumns = `
	id, code, name, type, value, minimum_order_amount, maximum_discount_amount,
	usage_limit, usage_count, valid_from, valid_until,
	coalesce(applicable_products, '{}'), coalesce(applicable_categories, '{}'),
	is_public, is_active, created_at, updated_at`

func scanDiscountRow(row pgx.Row) (*DiscountView, error) {
	var (
		dv       DiscountView
		value    pgtype.Numeric
		minOrder pgtype.Numeric
		maxDisc  pgtype.Numeric
	)
	err := row.Scan(
		&dv.ID, &dv.Code, &dv.Name, &dv.Type, &value, &minOrder, &maxDisc,
		&dv.UsageLimit, &dv.UsageCount, &dv.ValidFrom, &dv.ValidUntil,
		&dv.ApplicableProducts, &dv.ApplicableCategories,
		&dv.IsPublic, &dv.IsActive, &dv.CreatedAt, &dv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	dv.Value = utils.NumericToFloat64(value)
	dv.MinimumOrderAmount = utils.NumericToFloat64(minOrder)
	dv.MaximumDiscountAmount = utils.NumericToFloat64(maxDisc)
	return &dv, nil
}

func (h *Handler) DiscountsList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	page, limit := readPagination(r)

	whereClauses := []string{"1=1"}
	args := []any{}
	if search := strings.TrimSpace(query.Get("search")); search != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		whereClauses = append(whereClauses, "(code ilike "+placeholder+" or name ilike "+placeholder+")")
		args = append(args, "%"+search+"%")
	}
	switch query.Get("active") {
	case "true":
		whereClauses = append(whereClauses, "is_active = true")
	case "false":
		whereClauses = append(whereClauses, "is_active = false")
	}
	whereSQL := strings.Join(whereClauses, " and ")

	var total int64
	if err := h.DB.QueryRow(ctx, "select count(*) from discounts where "+whereSQL, args...).Scan(&total); err != nil {
		h.Logger.Error("discount count failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch discounts")
		return
	}

	args = append(args, limit, (page-1)*limit)
	rows, err := h.DB.Query(ctx, "select "+discountColumns+" from discounts where "+whereSQL+
		" order by created_at desc limit $"+strconv.Itoa(len(args)-1)+" offset $"+strconv.Itoa(len(args)), args...)
	if err != nil {
		h.Logger.Error("discount list failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch discounts")
		return
	}
	defer rows.Close()

	items := make([]DiscountView, 0)
	for rows.Next() {
		dv, err := scanDiscountRow(rows)
		if err != nil {
			h.Logger.Error("discount scan failed", zapError(err))
			continue
		}
		items = append(items, *dv)
	}

	response.Paginated(w, "discounts", items, page, limit, total)
}

func (h *Handler) DiscountCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload discountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	d, domainErr := payload.toDomain()
	if domainErr != nil {
		writeDiscountError(w, domainErr)
		return
	}

	row := h.DB.QueryRow(ctx, `
		insert into discounts
		  (code, name, type, value, minimum_order_amount, maximum_discount_amount,
		   usage_limit, valid_from, valid_until, applicable_products, applicable_categories,
		   is_public, is_active)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		returning `+discountColumns,
		d.Code, d.Name, string(d.Type), d.Value.StringFixed(2),
		d.MinimumOrderAmount.StringFixed(2), d.MaximumDiscountAmount.StringFixed(2),
		d.UsageLimit, d.ValidFrom, d.ValidUntil, d.ApplicableProducts, d.ApplicableCategories,
		d.IsPublic, d.IsActive)

	dv, err := scanDiscountRow(row)
	if err != nil {
		if isUniqueViolation(err) {
			response.Error(w, http.StatusConflict, "DISCOUNT_CODE_TAKEN", "A discount with this code already exists")
			return
		}
		h.Logger.Error("discount create failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create discount")
		return
	}

	h.Logger.Info("discount created", zap.Int64("discountId", dv.ID), zap.String("code", dv.Code))
	response.JSON(w, http.StatusCreated, map[string]any{"success": true, "data": dv})
}

func (h *Handler) DiscountUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	discountID, err := readPathInt64(r, "discountId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid discount id")
		return
	}

	var payload discountPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	d, domainErr := payload.toDomain()
	if domainErr != nil {
		writeDiscountError(w, domainErr)
		return
	}

	row := h.DB.QueryRow(ctx, `
		update discounts
		set code = $2, name = $3, type = $4, value = $5,
		    minimum_order_amount = $6, maximum_discount_amount = $7,
		    usage_limit = $8, valid_from = $9, valid_until = $10,
		    applicable_products = $11, applicable_categories = $12,
		    is_public = $13, is_active = $14, updated_at = now()
		where id = $1
		returning `+discountColumns,
		discountID, d.Code, d.Name, string(d.Type), d.Value.StringFixed(2),
		d.MinimumOrderAmount.StringFixed(2), d.MaximumDiscountAmount.StringFixed(2),
		d.UsageLimit, d.ValidFrom, d.ValidUntil, d.ApplicableProducts, d.ApplicableCategories,
		d.IsPublic, d.IsActive)

	dv, err := scanDiscountRow(row)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Discount not found")
		return
	}
	if err != nil {
		if isUniqueViolation(err) {
			response.Error(w, http.StatusConflict, "DISCOUNT_CODE_TAKEN", "A discount with this code already exists")
			return
		}
		h.Logger.Error("discount update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update discount")
		return
	}

	response.Success(w, dv)
}

func (h *Handler) DiscountDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	discountID, err := readPathInt64(r, "discountId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid discount id")
		return
	}

	var usageCount int64
	err = h.DB.QueryRow(ctx, `select usage_count from discounts where id = $1`, discountID).Scan(&usageCount)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Discount not found")
		return
	}
	if err != nil {
		h.Logger.Error("discount lookup failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete discount")
		return
	}

	// Used discounts are referenced by orders; deactivate instead of delete.
	if usageCount > 0 {
		_, err = h.DB.Exec(ctx, `update discounts set is_active = false, updated_at = now() where id = $1`, discountID)
		if err != nil {
			h.Logger.Error("discount deactivate failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete discount")
			return
		}
		response.Success(w, map[string]any{"discountId": discountID, "deactivated": true})
		return
	}

	if _, err = h.DB.Exec(ctx, `delete from discounts where id = $1`, discountID); err != nil {
		h.Logger.Error("discount delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete discount")
		return
	}

	response.Success(w, map[string]any{"discountId": discountID, "deleted": true})
}

func (h *Handler) DiscountToggleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	discountID, err := readPathInt64(r, "discountId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid discount id")
		return
	}

	var isActive bool
	err = h.DB.QueryRow(ctx, `
		update discounts set is_active = not is_active, updated_at = now()
		where id = $1
		returning is_active
	`, discountID).Scan(&isActive)
	if err == pgx.ErrNoRows {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Discount not found")
		return
	}
	if err != nil {
		h.Logger.Error("discount toggle failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to toggle discount")
		return
	}

	response.Success(w, map[string]any{"discountId": discountID, "isActive": isActive})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
