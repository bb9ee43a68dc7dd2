package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"strings"

	"swiftmart-admin-services/internal/auth"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const authContextKey contextKey = "authContext"

type AuthContext struct {
	UserID      int64
	SessionID   int64
	Role        auth.UserRole
	Email       string
	Name        string
	IsSuperUser bool
	Permissions []string
}

func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, authCtx)
}

func GetAuthContext(ctx context.Context) (*AuthContext, bool) {
	value := ctx.Value(authContextKey)
	if value == nil {
		return nil, false
	}
	ac, ok := value.(*AuthContext)
	return ac, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeAuthErrorDebug(w, status, message, "")
}

func writeAuthErrorDebug(w http.ResponseWriter, status int, message string, debug string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	code := "UNAUTHORIZED"
	if status == http.StatusForbidden {
		code = "FORBIDDEN"
	}
	payload := map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	}

	if os.Getenv("APP_ENV") == "development" && strings.TrimSpace(debug) != "" {
		payload["debug"] = debug
	}

	_ = json.NewEncoder(w).Encode(payload)
}

// AdminAuth authenticates dashboard admins. Beyond the JWT it revalidates the
// backing session row on every request, so a revoked session is an immediate
// 401 for the client's global logout handler.
func AdminAuth(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, status, message, debug := resolveAuthContext(r, db, jwtSecret)
			if authCtx == nil {
				writeAuthErrorDebug(w, status, message, debug)
				return
			}

			if !allowsRole(auth.RoleAdmin, authCtx.Role) {
				writeAuthError(w, http.StatusForbidden, "Admin access required")
				return
			}

			// Staff admins are gated per route; superusers bypass the map.
			if !authCtx.IsSuperUser {
				perm := auth.GetPermissionForAPI(r.URL.Path, r.Method)
				if perm != nil && !hasPermission(authCtx.Permissions, string(*perm)) {
					writeAuthError(w, http.StatusForbidden, "You do not have permission to access this resource")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// AnyAuth authenticates any active account without a role gate. Session
// management routes use it, since both admins and delivery persons hold
// sessions they must be able to revoke.
func AnyAuth(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, status, message, debug := resolveAuthContext(r, db, jwtSecret)
			if authCtx == nil {
				writeAuthErrorDebug(w, status, message, debug)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

// DeliveryAuth authenticates delivery persons for the collection routes.
func DeliveryAuth(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, status, message, debug := resolveAuthContext(r, db, jwtSecret)
			if authCtx == nil {
				writeAuthErrorDebug(w, status, message, debug)
				return
			}

			if !allowsRole(auth.RoleDelivery, authCtx.Role) {
				writeAuthError(w, http.StatusForbidden, "Delivery access required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), authCtx)))
		})
	}
}

func resolveAuthContext(r *http.Request, db *pgxpool.Pool, jwtSecret string) (*AuthContext, int, string, string) {
	token := auth.ParseBearerToken(r.Header.Get("Authorization"))
	claims, err := auth.VerifyAccessToken(token, jwtSecret)
	if err != nil {
		return nil, http.StatusUnauthorized, "Authorization token required", err.Error()
	}

	userID, err := parseInt64(claims.UserID)
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid token", err.Error()
	}
	sessionID, err := parseInt64(claims.SessionID)
	if err != nil {
		return nil, http.StatusUnauthorized, "Invalid token", err.Error()
	}

	var (
		role        string
		name        string
		isSuperUser bool
		isActive    bool
		permissions []string
	)
	query := `
		select u.role, u.name, u.is_superuser, u.is_active, coalesce(u.permissions, '{}')
		from users u
		join user_sessions us on us.id = $2 and us.user_id = u.id and us.status = 'ACTIVE' and us.expires_at > now()
		where u.id = $1
	`
	if err := db.QueryRow(r.Context(), query, userID, sessionID).Scan(&role, &name, &isSuperUser, &isActive, &permissions); err != nil {
		return nil, http.StatusUnauthorized, "Session expired", err.Error()
	}

	if !isActive {
		return nil, http.StatusForbidden, "Account is disabled", ""
	}

	return &AuthContext{
		UserID:      userID,
		SessionID:   sessionID,
		Role:        auth.UserRole(role),
		Email:       claims.Email,
		Name:        name,
		IsSuperUser: isSuperUser,
		Permissions: permissions,
	}, 0, "", ""
}

// allowsRole gates a route group on the account role. An empty requirement
// admits every authenticated role, which is what the session routes use.
func allowsRole(required auth.UserRole, got auth.UserRole) bool {
	return required == "" || required == got
}

func hasPermission(granted []string, want string) bool {
	for _, p := range granted {
		if p == want {
			return true
		}
	}
	return false
}

func parseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}
