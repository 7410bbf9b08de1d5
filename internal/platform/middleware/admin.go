package middleware

import (
	"crypto/subtle"
	"net/http"
)

// RequireAdminToken guards staff/admin endpoints with a shared token header.
// Compares in constant time to avoid timing side channels.
func RequireAdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Admin-Token")
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"Admin token required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
