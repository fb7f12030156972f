package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tenantx/utils"
)

var testKey = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims, key []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func landlordEcho(t *testing.T, want uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, err := LandlordFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, want, got)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware(t *testing.T) {
	landlordID := uuid.New()
	handler := AuthMiddleware(testKey)(landlordEcho(t, landlordID))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong key", "Bearer " + signToken(t, jwt.MapClaims{"landlord_id": landlordID.String()}, []byte("other")), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, jwt.MapClaims{
			"landlord_id": landlordID.String(),
			"exp":         time.Now().Add(-time.Hour).Unix(),
		}, testKey), http.StatusUnauthorized},
		{"no landlord claim", "Bearer " + signToken(t, jwt.MapClaims{"user_id": 7}, testKey), http.StatusUnauthorized},
		{"valid", "Bearer " + signToken(t, jwt.MapClaims{
			"landlord_id": landlordID.String(),
			"exp":         time.Now().Add(time.Hour).Unix(),
		}, testKey), http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/settings/rent-settings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestLandlordFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := LandlordFromContext(req.Context())
	assert.ErrorIs(t, err, ErrNoLandlord)
}

func TestRateLimit_PerLandlord(t *testing.T) {
	limiter := utils.NewRateLimiter(2, time.Minute)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := RateLimit(limiter, 2, ByLandlord)(ok)

	first, second := uuid.New(), uuid.New()
	call := func(id uuid.UUID) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/check-defaults", nil)
		req = req.WithContext(WithLandlord(req.Context(), id))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr
	}

	rr := call(first)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusOK, call(first).Code)

	rr = call(first)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"error":"Too many requests"}`, rr.Body.String())

	assert.Equal(t, http.StatusOK, call(second).Code)
}

func TestRecovery(t *testing.T) {
	handler := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestLoggingMiddleware_PassesStatus(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "short and stout", rr.Body.String())
}
