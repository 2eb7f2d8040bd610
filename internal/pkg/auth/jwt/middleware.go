package jwt

import (
	"context"
	"net/http"
	"strings"

	"bitarena/internal/pkg/errs"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/resp"
)

// Define Context Key for storing the Payload struct, preventing key collisions with other packages.
type contextKey string

const (
	// ContextAuthPayloadKey is the key used to store the parsed jwt.Payload (user identity) in the request Context.
	ContextAuthPayloadKey contextKey = "auth_payload"
)

// RequireAuthMiddleware extracts and validates a Bearer JWT from the Authorization
// header. Requests without a valid token are rejected with HTTP 401; on success
// the Payload is injected into the request Context.
func RequireAuthMiddleware(secretKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			// Expected format: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			payload, err := ParseToken(parts[1], secretKey)
			if err != nil {
				logx.Warn("Rejected request with invalid or expired JWT", "error", err)
				resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
				return
			}

			ctx := context.WithValue(r.Context(), ContextAuthPayloadKey, payload)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPayloadFromContext safely extracts the authenticated Payload from the request Context.
// Handlers behind RequireAuthMiddleware can rely on a non-nil return.
func GetPayloadFromContext(r *http.Request) *Payload {
	payload, ok := r.Context().Value(ContextAuthPayloadKey).(*Payload)

	if !ok {
		return nil
	}

	return payload
}
