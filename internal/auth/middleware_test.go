package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zjoart/go-sms-pay/pkg/config"
	"github.com/zjoart/go-sms-pay/pkg/utils"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		utils.SubjectKey: subject,
		utils.ExpKey:     exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func guarded(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{JWTSecret: testSecret}
	return JWTMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestJWTMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		wantCode int
	}{
		{
			name:     "valid admin token",
			token:    "will-be-signed",
			wantCode: http.StatusOK,
		},
		{
			name:     "missing header",
			token:    "",
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "garbage token",
			token:    "not-a-jwt",
			wantCode: http.StatusUnauthorized,
		},
	}

	handler := guarded(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
			token := tc.token
			if token == "will-be-signed" {
				token = signToken(t, testSecret, "admin", time.Now().Add(time.Hour))
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

func TestJWTMiddlewareRejectsWrongSecret(t *testing.T) {
	handler := guarded(t)

	token := signToken(t, "another-secret", "admin", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareRejectsExpiredToken(t *testing.T) {
	handler := guarded(t)

	token := signToken(t, testSecret, "admin", time.Now().Add(-time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddlewareRejectsWrongSubject(t *testing.T) {
	handler := guarded(t)

	token := signToken(t, testSecret, "merchant", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/admin/payments", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewHandler(config.Config{JWTSecret: testSecret, AdminPasswordHash: string(hash)})

	t.Run("correct password issues usable token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"hunter2"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "token")
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(`{"password":"letmein"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
