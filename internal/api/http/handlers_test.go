package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/security"
	"chacara-backend/internal/service"
	"chacara-backend/internal/state"
	"chacara-backend/internal/storage"
)

var (
	admin   = domain.User{ID: 1, Name: "Administrador", Email: "admin@chacaras.com", Type: domain.UserTypeAdmin}
	owner   = domain.User{ID: 2, Name: "João Proprietário", Email: "proprietario@chacaras.com", Type: domain.UserTypeOwner}
	visitor = domain.User{ID: 3, Name: "Maria Visitante", Email: "visitante@chacaras.com", Type: domain.UserTypeVisitor}
)

type testAPI struct {
	router *mux.Router
	store  *state.Store
	tm     security.TokenManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	store := state.NewStore(storage.NewMemoryStorage())
	require.NoError(t, store.Load(ctx, state.DemoSeed()))

	now := func() time.Time { return time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC) }
	tm := security.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	auth, err := service.NewAuthService(store, tm, []service.Credential{
		{User: admin, Password: "admin123"},
		{User: owner, Password: "prop123"},
		{User: visitor, Password: "visit123"},
	})
	require.NoError(t, err)

	h := NewHandler(
		service.NewLedgerService(store, nil, service.LedgerOptions{Now: now}),
		service.NewRegistryService(store, now),
		auth,
		service.NewReportService(store, now),
		store.Loaded,
	)
	return &testAPI{router: NewRouter(h, tm), store: store, tm: tm}
}

func (a *testAPI) do(t *testing.T, method, path string, as *domain.User, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		token, _, err := a.tm.GenerateAccessToken(*as)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, "GET", "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	h := NewHandler(nil, nil, nil, nil, func() bool { return false })
	rec = httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "POST", "/api/v1/auth/login", nil, map[string]string{"email": "admin@chacaras.com", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	session := decode[service.Session](t, rec)
	assert.Equal(t, admin, session.User)

	claims, err := api.tm.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, domain.UserTypeAdmin, claims.Role)

	rec = api.do(t, "POST", "/api/v1/auth/login", nil, map[string]string{"email": "admin@chacaras.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, "POST", "/api/v1/auth/login", nil, map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "GET", "/api/v1/auth/me", &visitor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, visitor, decode[domain.User](t, rec))

	rec = api.do(t, "POST", "/api/v1/auth/logout", &admin, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, api.store.View().CurrentUser)
}

func TestAuthGuards(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(t, "GET", "/api/v1/reservations", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, "GET", "/api/v1/reports/dashboard", &owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, "POST", "/api/v1/payments/pay-seed-2/confirm", &visitor, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, "GET", "/api/v1/nowhere", &admin, nil).Code)

	req := httptest.NewRequest("GET", "/api/v1/reservations", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProperties(t *testing.T) {
	api := newTestAPI(t)

	t.Run("anonymous sees approved only", func(t *testing.T) {
		rec := api.do(t, "GET", "/api/v1/properties", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]domain.Property](t, rec), 2)

		rec = api.do(t, "GET", "/api/v1/properties", &admin, nil)
		assert.Len(t, decode[[]domain.Property](t, rec), 3)

		rec = api.do(t, "GET", "/api/v1/properties?status=pendente", &admin, nil)
		assert.Len(t, decode[[]domain.Property](t, rec), 1)

		rec = api.do(t, "GET", "/api/v1/properties?status=bogus", &admin, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("owner registers a property", func(t *testing.T) {
		body := map[string]any{"name": "Sítio do Lago", "location": "Atibaia, SP", "capacity": 25, "price_per_day": 220}
		assert.Equal(t, http.StatusForbidden, api.do(t, "POST", "/api/v1/properties", &visitor, body).Code)

		rec := api.do(t, "POST", "/api/v1/properties", &owner, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		p := decode[domain.Property](t, rec)
		assert.Equal(t, int32(4), p.ID)
		assert.Equal(t, domain.PropertyStatusPending, p.Status)
		assert.Equal(t, "João Proprietário", p.OwnerName)
		require.NotNil(t, p.OwnerID)
		assert.Equal(t, owner.ID, *p.OwnerID)
		assert.Equal(t, "2024-11-01", p.RegisteredAt)
	})

	t.Run("invalid property body", func(t *testing.T) {
		rec := api.do(t, "POST", "/api/v1/properties", &admin, map[string]any{"name": "X", "location": "Y", "capacity": 0, "price_per_day": 10, "owner_name": "Z"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Fields, "capacity")
	})

	t.Run("status changes", func(t *testing.T) {
		before := api.store.View()
		rec := api.do(t, "PUT", "/api/v1/properties/999/status", &admin, map[string]string{"status": "aprovada"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, before, api.store.View())

		rec = api.do(t, "PUT", "/api/v1/properties/3/status", &admin, map[string]string{"status": "aprovada"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.PropertyStatusApproved, decode[domain.Property](t, rec).Status)

		rec = api.do(t, "PUT", "/api/v1/properties/1/status", &admin, map[string]string{"status": "rejeitada"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		rec = api.do(t, "PUT", "/api/v1/properties/1/status", &admin, map[string]string{"status": "approved"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		rec := api.do(t, "PATCH", "/api/v1/properties/1", &owner, map[string]any{"name": "Chácara Vista Verde II", "price_per_day": 320})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		p := decode[domain.Property](t, rec)
		assert.Equal(t, "Chácara Vista Verde II", p.Name)
		assert.Equal(t, 320.0, p.PricePerDay)

		assert.Equal(t, http.StatusForbidden, api.do(t, "PATCH", "/api/v1/properties/3", &owner, map[string]any{"name": "Meu"}).Code)
		assert.Equal(t, http.StatusBadRequest, api.do(t, "PATCH", "/api/v1/properties/1", &owner, map[string]any{}).Code)
		assert.Equal(t, http.StatusBadRequest, api.do(t, "PATCH", "/api/v1/properties/abc", &admin, map[string]any{"name": "x"}).Code)
	})
}

func TestReservationAndPaymentFlow(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "POST", "/api/v1/reservations", &visitor, map[string]any{
		"property_id": 1, "client_name": "Ana", "client_email": "ana@exemplo.com",
		"check_in": "2024-12-01", "check_out": "2024-12-03", "guests": 20,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[domain.Reservation](t, rec)
	assert.Equal(t, 600.0, res.TotalAmount)
	assert.Equal(t, "Chácara Vista Verde", res.PropertyName)
	assert.Equal(t, domain.PaymentStatusPending, res.PaymentStatus)
	require.NotNil(t, res.UserID)
	assert.Equal(t, visitor.ID, *res.UserID)

	snap := api.store.View()
	p := snap.Payments[snap.PaymentIndex(domain.PaymentIDFor(res.ID))]
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, 600.0, p.Amount)
	prop := snap.Properties[snap.PropertyIndex(1)]
	assert.Equal(t, int32(3), prop.ReservationCount)
	assert.Equal(t, 2100.0, prop.Revenue)

	rec = api.do(t, "POST", "/api/v1/payments/"+domain.PaymentIDFor(res.ID)+"/confirm", &owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decode[domain.Payment](t, rec)
	assert.Equal(t, domain.PaymentStatusPaid, paid.Status)
	assert.Equal(t, "pix", paid.Method)

	rec = api.do(t, "GET", "/api/v1/reservations/"+res.ID, &visitor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaymentStatusPaid, decode[domain.Reservation](t, rec).PaymentStatus)

	rec = api.do(t, "POST", "/api/v1/payments/"+domain.PaymentIDFor(res.ID)+"/confirm", &admin, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, api.do(t, "POST", "/api/v1/payments/pay-missing/confirm", &admin, nil).Code)

	rec = api.do(t, "PUT", "/api/v1/reservations/"+res.ID+"/status", &owner, map[string]string{"status": "cancelada"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, "PUT", "/api/v1/reservations/"+res.ID+"/status", &owner, map[string]string{"status": "confirmada"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = api.do(t, "PUT", "/api/v1/reservations/nope/status", &admin, map[string]string{"status": "confirmada"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReservationValidation(t *testing.T) {
	api := newTestAPI(t)
	valid := func() map[string]any {
		return map[string]any{
			"property_id": 1, "client_name": "Ana", "client_email": "ana@exemplo.com",
			"check_in": "2024-12-01", "check_out": "2024-12-03", "guests": 20,
		}
	}

	tests := []struct {
		name   string
		mutate func(map[string]any)
		status int
	}{
		{"check-out before check-in", func(b map[string]any) { b["check_out"] = "2024-11-30" }, http.StatusBadRequest},
		{"same day", func(b map[string]any) { b["check_out"] = "2024-12-01" }, http.StatusBadRequest},
		{"bad date", func(b map[string]any) { b["check_in"] = "01/12/2024" }, http.StatusBadRequest},
		{"bad email", func(b map[string]any) { b["client_email"] = "ana" }, http.StatusBadRequest},
		{"over capacity", func(b map[string]any) { b["guests"] = 500 }, http.StatusBadRequest},
		{"unknown field", func(b map[string]any) { b["total_amount"] = 1 }, http.StatusBadRequest},
		{"pending property", func(b map[string]any) { b["property_id"] = 3 }, http.StatusConflict},
		{"missing property", func(b map[string]any) { b["property_id"] = 99 }, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := valid()
			tt.mutate(body)
			before := api.store.View()
			rec := api.do(t, "POST", "/api/v1/reservations", &visitor, body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, before, api.store.View())
		})
	}
}

func TestQuoteStay(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "GET", "/api/v1/properties/2/quote?check_in=2025-01-01&check_out=2025-01-09", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	quote := decode[map[string]any](t, rec)
	assert.Equal(t, 8.0, quote["nights"])
	assert.Equal(t, 1.0, quote["weeks"])
	assert.Equal(t, 3600.0, quote["total"])

	rec = api.do(t, "GET", "/api/v1/properties/2/quote?check_in=2025-01-09&check_out=2025-01-01", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, "GET", "/api/v1/properties/3/quote?check_in=2025-01-01&check_out=2025-01-02", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReservationVisibility(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "GET", "/api/v1/reservations", &visitor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]domain.Reservation](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, "seed-1", mine[0].ID)

	rec = api.do(t, "GET", "/api/v1/reservations?status=pendente", &visitor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]domain.Reservation](t, rec))

	rec = api.do(t, "GET", "/api/v1/reservations?property_id=2", &visitor, nil)
	assert.Empty(t, decode[[]domain.Reservation](t, rec), "a visitor never sees other users' bookings")

	rec = api.do(t, "GET", "/api/v1/reservations", &owner, nil)
	assert.Len(t, decode[[]domain.Reservation](t, rec), 3)

	rec = api.do(t, "GET", "/api/v1/reservations?property_id=2", &owner, nil)
	assert.Len(t, decode[[]domain.Reservation](t, rec), 1)

	rec = api.do(t, "GET", "/api/v1/reservations?status=cancelada", &admin, nil)
	assert.Empty(t, decode[[]domain.Reservation](t, rec))

	assert.Equal(t, http.StatusForbidden, api.do(t, "GET", "/api/v1/reservations/seed-2", &visitor, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, "GET", "/api/v1/reservations/seed-2", &owner, nil).Code)

	rec = api.do(t, "GET", "/api/v1/payments?status=atrasado", &owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Payment](t, rec), 1)
}

func TestCurrentReservation(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusNoContent, api.do(t, "GET", "/api/v1/reservations/current", &visitor, nil).Code)

	rec := api.do(t, "PUT", "/api/v1/reservations/current", &visitor, map[string]string{"reservation_id": "seed-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, "GET", "/api/v1/reservations/current", &visitor, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "seed-1", decode[domain.Reservation](t, rec).ID)

	assert.Equal(t, http.StatusForbidden, api.do(t, "PUT", "/api/v1/reservations/current", &visitor, map[string]string{"reservation_id": "seed-2"}).Code)

	assert.Equal(t, http.StatusNoContent, api.do(t, "PUT", "/api/v1/reservations/current", &visitor, map[string]string{"reservation_id": ""}).Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, "GET", "/api/v1/reservations/current", &visitor, nil).Code)
}

func TestReports(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, "GET", "/api/v1/reports/dashboard", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode[service.Dashboard](t, rec)
	assert.Equal(t, 600.0, d.RevenueReceived)

	rec = api.do(t, "GET", "/api/v1/reports/owner", &owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	od := decode[service.OwnerDashboard](t, rec)
	assert.Equal(t, owner.ID, od.OwnerID)
	assert.Equal(t, "João Proprietário", od.OwnerName)
	assert.Len(t, od.Properties, 2)

	// Owners cannot look at someone else's dashboard.
	rec = api.do(t, "GET", "/api/v1/reports/owner?owner_id=99", &owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[service.OwnerDashboard](t, rec).Properties, 2)

	rec = api.do(t, "GET", "/api/v1/reports/owner?owner_id=2", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[service.OwnerDashboard](t, rec).Properties, 2)

	rec = api.do(t, "GET", "/api/v1/reports/owner?owner_id=99", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[service.OwnerDashboard](t, rec).Properties)

	assert.Equal(t, http.StatusBadRequest, api.do(t, "GET", "/api/v1/reports/owner?owner_id=abc", &admin, nil).Code)

	rec = api.do(t, "GET", "/api/v1/reports/monthly", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]service.MonthRevenue](t, rec), 3)

	rec = api.do(t, "GET", "/api/v1/reports/payments", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byStatus := decode[map[domain.PaymentStatus][]domain.Payment](t, rec)
	require.Len(t, byStatus[domain.PaymentStatusPaid], 1)
	assert.Equal(t, "pay-seed-1", byStatus[domain.PaymentStatusPaid][0].ID)
	assert.Len(t, byStatus[domain.PaymentStatusPending], 1)
	assert.Len(t, byStatus[domain.PaymentStatusOverdue], 1)

	rec = api.do(t, "GET", "/api/v1/reports/reservations", &admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byProperty := decode[map[string][]domain.Reservation](t, rec)
	assert.Len(t, byProperty["1"], 2)
	assert.Len(t, byProperty["2"], 1)

	assert.Equal(t, http.StatusForbidden, api.do(t, "GET", "/api/v1/reports/payments", &owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, "GET", "/api/v1/reports/reservations", &visitor, nil).Code)
}

func TestMarkOverdueEndpoint(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusForbidden, api.do(t, "POST", "/api/v1/jobs/mark-overdue", &owner, map[string]string{}).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, "POST", "/api/v1/jobs/mark-overdue", nil, map[string]string{}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, "POST", "/api/v1/jobs/mark-overdue", &admin, map[string]string{"as_of": "23/12/2024"}).Code)

	rec := api.do(t, "POST", "/api/v1/jobs/mark-overdue", &admin, map[string]string{"as_of": "2024-12-23"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[map[string]any](t, rec)
	assert.Equal(t, 1.0, result["marked"])
	assert.Equal(t, "2024-12-23", result["as_of"])

	snap := api.store.View()
	assert.Equal(t, domain.PaymentStatusOverdue, snap.Payments[snap.PaymentIndex("pay-seed-2")].Status)
	assert.Equal(t, domain.PaymentStatusOverdue, snap.Reservations[snap.ReservationIndex("seed-2")].PaymentStatus)
}
