package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// JWTValidator validates bearer tokens presented to the query API.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims is what the middleware needs from a validated token.
type JWTClaims struct {
	SubjectID string
	Role      string
}

// RoleSteward is the privileged role required by per-identity trust reads and
// the recompute endpoint.
const RoleSteward = "steward"

type contextKeySubjectID struct{}
type contextKeyRole struct{}

var (
	ContextKeySubjectID = contextKeySubjectID{}
	ContextKeyRole      = contextKeyRole{}
)

// GetSubjectID retrieves the authenticated subject from the context.
func GetSubjectID(ctx context.Context) string {
	subject, ok := ctx.Value(ContextKeySubjectID).(string)
	if !ok {
		return ""
	}
	return subject
}

// GetRole retrieves the authenticated subject's role from the context.
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(ContextKeyRole).(string)
	if !ok {
		return ""
	}
	return role
}

// RequireAuth validates the bearer token and stores subject and role in the
// request context. Requests without a valid token get 401.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				warn(ctx, logger, "unauthorized access - missing token", nil)
				unauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				warn(ctx, logger, "unauthorized access - invalid token", err)
				unauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeySubjectID, claims.SubjectID)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on the role RequireAuth stored in the context.
// Must be mounted after RequireAuth.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if GetRole(ctx) != role {
				warn(ctx, logger, "forbidden - role mismatch", nil)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

func warn(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if logger == nil {
		return
	}
	attrs := []any{"request_id", GetRequestID(ctx)}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	logger.WarnContext(ctx, msg, attrs...)
}
