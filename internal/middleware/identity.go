package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// userIDKey is the context key under which the authenticated caller's user ID
// is stored. Unexported so only this package can set it.
type userIDKey struct{}

// NewIdentity returns a middleware that reads the authenticated caller's user
// ID from the X-User-Id header (set by the upstream gateway, which owns
// authentication) and places it in the request context.
//
// Requests without a valid UUID in the header are rejected with 401 — every
// route behind this middleware requires a caller identity. The value is
// trusted as given; no authentication logic lives in this service.
func NewIdentity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(r.Header.Get("X-User-Id"))
			if err != nil || id == uuid.Nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"missing or invalid X-User-Id header"}}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey{}, id)))
		})
	}
}

// UserID returns the caller's user ID placed in ctx by NewIdentity.
// The second return is false when the middleware did not run for this request.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}
