package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sankalp-ai/sankalp/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func setupTestJWTService(_ *testing.T, expirationHours int) *JWTService {
	return NewJWTService(&config.JWTConfig{
		Secret:          testSecret,
		ExpirationHours: expirationHours,
		Issuer:          config.DefaultJWTIssuer,
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	service := setupTestJWTService(t, 24)

	token, err := service.GenerateToken("evaluator@ministry.gov.in", "evaluator")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3, "JWT should have 3 parts separated by dots")

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "evaluator@ministry.gov.in", claims.GetEvaluator())
	assert.Equal(t, "evaluator", claims.Role)
	assert.Equal(t, config.DefaultJWTIssuer, claims.Issuer)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestJWTService_GenerateToken_RequiresSubject(t *testing.T) {
	_, err := setupTestJWTService(t, 1).GenerateToken("", "evaluator")
	assert.Error(t, err)
}

func TestJWTService_ValidateToken_Rejects(t *testing.T) {
	service := setupTestJWTService(t, 1)

	sign := func(claims jwt.Claims, method jwt.SigningMethod, key any) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	past := time.Now().Add(-2 * time.Hour)

	tests := []struct {
		name    string
		token   string
		wantErr string
	}{
		{name: "empty", token: "", wantErr: "token string is empty"},
		{name: "garbage", token: "not.a.jwt", wantErr: "malformed token"},
		{
			name: "wrong secret",
			token: sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: config.DefaultJWTIssuer}},
				jwt.SigningMethodHS256, []byte("another-secret-of-sufficient-length")),
			wantErr: "invalid token signature",
		},
		{
			name: "expired",
			token: sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "x",
				Issuer:    config.DefaultJWTIssuer,
				ExpiresAt: jwt.NewNumericDate(past),
			}}, jwt.SigningMethodHS256, []byte(testSecret)),
			wantErr: "token expired",
		},
		{
			name: "foreign issuer",
			token: sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: "someone-else"}},
				jwt.SigningMethodHS256, []byte(testSecret)),
			wantErr: "failed to parse token",
		},
		{
			name:    "unsigned",
			token:   sign(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "x"}}, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType),
			wantErr: "failed to parse token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestJWTService_AsTokenValidator(t *testing.T) {
	service := setupTestJWTService(t, 1)
	token, err := service.GenerateToken("panel-3", "")
	require.NoError(t, err)

	got, err := service.AsTokenValidator().ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "panel-3", got.GetEvaluator())
}
