package middleware

import (
	"context"
	"net/http"
)

// OwnerHeader carries the caller's identity. The gateway in front of this
// service authenticates the user and forwards the id.
const OwnerHeader = "X-Owner-ID"

// RequireOwner rejects requests without a forwarded identity and injects
// the owner_id into the request context.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerID := r.Header.Get(OwnerHeader)
		if ownerID == "" {
			http.Error(w, `{"error":"missing identity"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), "owner_id", ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
