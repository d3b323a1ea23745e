// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// evaluatorKey is the context key for storing the authenticated evaluator.
const evaluatorKey ContextKey = "evaluator"

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (EvaluatorGetter, error)
}

// EvaluatorGetter is an interface for extracting the evaluator identity from token claims.
type EvaluatorGetter interface {
	GetEvaluator() string
}

// AuthMiddleware creates middleware that validates bearer tokens and adds the evaluator to the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			claims, err := validator.ValidateToken(tokenString)
			if err != nil {
				unauthorized(w)
				return
			}

			subject := claims.GetEvaluator()
			if subject == "" {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), evaluatorKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from a case-insensitive "Bearer" Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="sankalp"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// GetEvaluator extracts the authenticated evaluator from the request context.
func GetEvaluator(r *http.Request) (string, error) {
	subject, ok := r.Context().Value(evaluatorKey).(string)
	if !ok || subject == "" {
		return "", fmt.Errorf("evaluator not found in request context")
	}
	return subject, nil
}

// WithEvaluator returns a copy of ctx carrying subject, for handlers invoked without the middleware.
func WithEvaluator(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, evaluatorKey, subject)
}
