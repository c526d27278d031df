package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
)

// RequireToken gates a route on a shared-secret header, compared in constant
// time. Used for the internal-service credential (X-Internal-Token) and the
// insight credential (X-Insight-Token); the two secrets are distinct so a
// leaked insight token never grants the batch credibility surface.
//
// An empty expected secret rejects every request: an unset env var must not
// degrade into an open endpoint that an absent header happens to match.
func RequireToken(header, expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(header)
			if expected == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				ctx := r.Context()
				if logger != nil {
					logger.WarnContext(ctx, "service token mismatch",
						"header", header,
						"request_id", GetRequestID(ctx),
					)
				}
				unauthorized(w, "service token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
