package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"swiftmart-admin-services/internal/auth"
	"swiftmart-admin-services/internal/middleware"
	"swiftmart-admin-services/internal/utils"
	"swiftmart-admin-services/pkg/response"

	"golang.org/x/crypto/bcrypt"
)

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

func (h *Handler) AuthLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" || payload.Password == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	var (
		userID       int64
		name         string
		role         string
		passwordHash string
		isActive     bool
	)
	err := h.DB.QueryRow(ctx, `
		select id, name, role, password_hash, is_active
		from users
		where lower(email) = $1
	`, email).Scan(&userID, &name, &role, &passwordHash, &isActive)
	if err != nil {
		// Same message for unknown email and wrong password.
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
		return
	}
	if !isActive {
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "Account is disabled")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(payload.Password)); err != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
		return
	}

	var sessionID int64
	expiresAt := time.Now().Add(time.Duration(h.Config.JWTRefreshExpirySeconds) * time.Second)
	err = h.DB.QueryRow(ctx, `
		insert into user_sessions (user_id, status, expires_at)
		values ($1, 'ACTIVE', $2)
		returning id
	`, userID, expiresAt).Scan(&sessionID)
	if err != nil {
		h.Logger.Error("session insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	userRole := auth.UserRole(role)
	accessToken, err := auth.IssueAccessToken(userID, sessionID, userRole, email, &name, h.Config.JWTSecret, h.Config.JWTExpirySeconds)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}
	refreshToken, err := auth.IssueRefreshToken(userID, sessionID, userRole, email, h.Config.JWTSecret, h.Config.JWTRefreshExpirySeconds)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	out := loginResponse{AccessToken: accessToken, RefreshToken: refreshToken}
	out.User.ID = userID
	out.User.Name = name
	out.User.Email = email
	out.User.Role = role
	response.Success(w, out)
}

func (h *Handler) AuthRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	claims, err := auth.VerifyRefreshToken(strings.TrimSpace(payload.RefreshToken), h.Config.JWTSecret)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid refresh token")
		return
	}

	userID, err := parseAnyInt64(claims.UserID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid refresh token")
		return
	}
	sessionID, err := parseAnyInt64(claims.SessionID)
	if err != nil {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid refresh token")
		return
	}

	var sessionOK bool
	err = h.DB.QueryRow(ctx, `
		select exists(
			select 1 from user_sessions
			where id = $1 and user_id = $2 and status = 'ACTIVE' and expires_at > now()
		)
	`, sessionID, userID).Scan(&sessionOK)
	if err != nil || !sessionOK {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Session expired")
		return
	}

	accessToken, err := auth.IssueAccessToken(userID, sessionID, claims.Role, claims.Email, claims.Name, h.Config.JWTSecret, h.Config.JWTExpirySeconds)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to refresh session")
		return
	}

	response.Success(w, map[string]any{"accessToken": accessToken})
}

func (h *Handler) AuthLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	authCtx, ok := middleware.GetAuthContext(ctx)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	_, err := h.DB.Exec(ctx, `
		update user_sessions
		set status = 'REVOKED', revoked_at = now()
		where id = $1 and user_id = $2
	`, authCtx.SessionID, authCtx.UserID)
	if err != nil {
		h.Logger.Error("session revoke failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign out")
		return
	}

	response.Success(w, map[string]any{"signedOut": true})
}

// AuthWSTicket mints the short-lived ticket the dashboard uses to open the
// live feed socket.
func (h *Handler) AuthWSTicket(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authorization required")
		return
	}

	ticket := utils.CreateWSTicket(h.Config.WSTicketSecret, authCtx.UserID, string(authCtx.Role), 60*time.Second)
	response.Success(w, map[string]any{"ticket": ticket, "expiresIn": 60})
}
