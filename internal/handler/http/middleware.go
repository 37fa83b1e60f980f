package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/naochaLuwang/daciana-cart/internal/identity"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

// identityKey is the context key for the shopper identity.
const identityKey contextKey = "user_id"

// IdentityFromHeader reads the X-User-ID header (injected by the API gateway
// after JWT validation; absent for anonymous shoppers) and feeds it to the
// identity watcher. The synchronizer reacts to the resulting transitions, so
// the first authenticated request after a login triggers the hydration pull.
func IdentityFromHeader(watcher *identity.Watcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := r.Header.Get("X-User-ID")
			watcher.Set(uid)
			ctx := context.WithValue(r.Context(), identityKey, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFromContext extracts the shopper identity from the request context.
// Returns the user ID and true when authenticated, or "" and false for
// anonymous sessions.
func identityFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(identityKey).(string)
	return uid, ok && uid != ""
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// CORS adds permissive Cross-Origin Resource Sharing headers for development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Correlation-ID, X-User-ID")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
