package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator is a test implementation of TokenValidator for unit tests.
type testTokenValidator struct {
	validTokens map[string]string
}

func (v *testTokenValidator) ValidateToken(tokenString string) (EvaluatorGetter, error) {
	subject, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(subject), nil
}

type testClaims string

func (c testClaims) GetEvaluator() string { return string(c) }

func newValidator() *testTokenValidator {
	return &testTokenValidator{validTokens: map[string]string{
		"valid-token": "evaluator@ministry.gov.in",
		"no-subject":  "",
	}}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	var gotSubject string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, err := GetEvaluator(r)
		require.NoError(t, err)
		gotSubject = subject
		w.WriteHeader(http.StatusOK)
	})

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		t.Run(scheme, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/proposals/P-1/text", nil)
			req.Header.Set("Authorization", scheme+" valid-token")
			w := httptest.NewRecorder()

			AuthMiddleware(newValidator())(handler).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "evaluator@ministry.gov.in", gotSubject)
		})
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "token only", header: "valid-token"},
		{name: "extra parts", header: "Bearer valid-token extra"},
		{name: "unknown token", header: "Bearer forged"},
		{name: "empty subject", header: "Bearer no-subject"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

			req := httptest.NewRequest(http.MethodPost, "/similarity", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(newValidator())(handler).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, called)
			assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestGetEvaluator(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetEvaluator(req)
	assert.Error(t, err)

	req = req.WithContext(WithEvaluator(req.Context(), "panel-7"))
	subject, err := GetEvaluator(req)
	require.NoError(t, err)
	assert.Equal(t, "panel-7", subject)
}
