package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/security"
)

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "bearer abc.def")
	assert.Equal(t, "abc.def", bearerToken(req))

	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	assert.Empty(t, bearerToken(req))
}

func TestAuthMiddleware_RouteTemplate(t *testing.T) {
	tm := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	router := mux.NewRouter()
	router.Use(NewAuthMiddleware(tm).Middleware)

	var seen domain.User
	router.HandleFunc("/api/v1/properties/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}).Methods("PUT")

	call := func(u domain.User) int {
		token, _, err := tm.GenerateAccessToken(u)
		require.NoError(t, err)
		req := httptest.NewRequest("PUT", "/api/v1/properties/7/status", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusForbidden, call(domain.User{ID: 2, Type: domain.UserTypeOwner}))
	assert.Equal(t, http.StatusOK, call(domain.User{ID: 1, Name: "Admin", Type: domain.UserTypeAdmin}))
	assert.Equal(t, int32(1), seen.ID)
}

func TestAuthMiddleware_UnknownRouteIsAdminOnly(t *testing.T) {
	tm := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	router := mux.NewRouter()
	router.Use(NewAuthMiddleware(tm).Middleware)
	router.HandleFunc("/internal/debug", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	token, _, err := tm.GenerateAccessToken(domain.User{ID: 3, Type: domain.UserTypeVisitor})
	require.NoError(t, err)
	req := httptest.NewRequest("GET", "/internal/debug", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoggingMiddleware_RecoversPanic(t *testing.T) {
	h := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() { h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
