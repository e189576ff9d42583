package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey struct{}

// Operator returns the authenticated operator id, if any.
func Operator(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok
}

// Middleware rejects requests without a valid bearer token.
func Middleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respond(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
				return
			}
			subject, err := svc.Verify(token)
			if err != nil {
				respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, subject)))
		})
	}
}

// RequireForWrites applies Middleware to every method except GET and HEAD.
func RequireForWrites(svc Service) func(http.Handler) http.Handler {
	guard := Middleware(svc)
	return func(next http.Handler) http.Handler {
		guarded := guard(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}
