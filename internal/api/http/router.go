package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"chacara-backend/internal/security"
)

// NewRouter wires every API route behind logging and auth middleware.
func NewRouter(h *Handler, tm security.TokenManager) *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)
	router.Use(NewAuthMiddleware(tm).Middleware)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	router.HandleFunc("/healthz", h.Health).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/login", h.Login).Methods("POST")
	api.HandleFunc("/auth/logout", h.Logout).Methods("POST")
	api.HandleFunc("/auth/me", h.Me).Methods("GET")

	api.HandleFunc("/properties", h.ListProperties).Methods("GET")
	api.HandleFunc("/properties", h.CreateProperty).Methods("POST")
	api.HandleFunc("/properties/{id}", h.GetProperty).Methods("GET")
	api.HandleFunc("/properties/{id}", h.UpdateProperty).Methods("PATCH")
	api.HandleFunc("/properties/{id}/status", h.UpdatePropertyStatus).Methods("PUT")
	api.HandleFunc("/properties/{id}/quote", h.QuoteStay).Methods("GET")

	api.HandleFunc("/reservations", h.ListReservations).Methods("GET")
	api.HandleFunc("/reservations", h.CreateReservation).Methods("POST")
	api.HandleFunc("/reservations/current", h.CurrentReservation).Methods("GET")
	api.HandleFunc("/reservations/current", h.SetCurrentReservation).Methods("PUT")
	api.HandleFunc("/reservations/{id}", h.GetReservation).Methods("GET")
	api.HandleFunc("/reservations/{id}/status", h.UpdateReservationStatus).Methods("PUT")

	api.HandleFunc("/payments", h.ListPayments).Methods("GET")
	api.HandleFunc("/payments/{id}/confirm", h.ConfirmPayment).Methods("POST")

	api.HandleFunc("/jobs/mark-overdue", h.MarkOverduePayments).Methods("POST")

	api.HandleFunc("/reports/dashboard", h.Dashboard).Methods("GET")
	api.HandleFunc("/reports/owner", h.OwnerDashboard).Methods("GET")
	api.HandleFunc("/reports/monthly", h.MonthlyRevenue).Methods("GET")
	api.HandleFunc("/reports/payments", h.PaymentsByStatus).Methods("GET")
	api.HandleFunc("/reports/reservations", h.ReservationsByProperty).Methods("GET")

	return router
}
