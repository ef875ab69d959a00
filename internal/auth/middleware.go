package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (User, error)
}

// Middleware rejects requests without a valid bearer token and stores the user in
// the request context.
func Middleware(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeUnauthenticated(w)
				return
			}
			u, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					logger.Error("authenticate", "err", err)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = w.Write([]byte(`{"success":false,"message":"internal error"}`))
					return
				}
				writeUnauthenticated(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// GuestOnly turns away callers who already hold a valid token. Missing or
// rejected tokens are treated as a guest.
func GuestOnly(a Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			if _, err := a.Authenticate(r.Context(), raw); err != nil {
				if !errors.Is(err, ErrUnauthenticated) {
					logger.Warn("authenticate guest", "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"success":false,"message":"You are already signed in."}`))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
}
