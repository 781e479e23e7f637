package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/service"
	"chacara-backend/internal/utils"
)

// Handler serves the JSON API on top of the services.
type Handler struct {
	ledger   service.LedgerService
	registry service.RegistryService
	auth     service.AuthService
	reports  service.ReportService
	ready    func() bool
}

func NewHandler(ledger service.LedgerService, registry service.RegistryService, auth service.AuthService, reports service.ReportService, ready func() bool) *Handler {
	return &Handler{
		ledger:   ledger,
		registry: registry,
		auth:     auth,
		reports:  reports,
		ready:    ready,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Auth

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, user)
}

// Properties

func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		props []domain.Property
		err   error
	)
	switch {
	case q.Get("owner_id") != "":
		ownerID, perr := strconv.ParseInt(q.Get("owner_id"), 10, 32)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "invalid owner_id")
			return
		}
		props, err = h.registry.ListPropertiesByOwner(ctx, int32(ownerID))
	case q.Get("status") != "":
		props, err = h.registry.ListPropertiesByStatus(ctx, domain.PropertyStatus(q.Get("status")))
	default:
		props, err = h.registry.ListProperties(ctx)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// Anonymous callers and visitors only see approved listings
	user, ok := UserFromContext(ctx)
	if !ok || user.Type == domain.UserTypeVisitor {
		visible := props[:0]
		for _, p := range props {
			if p.Status == domain.PropertyStatusApproved {
				visible = append(visible, p)
			}
		}
		props = visible
	}
	writeJSON(w, http.StatusOK, props)
}

func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	p, err := h.registry.GetProperty(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req createPropertyRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	user, _ := UserFromContext(r.Context())
	in := domain.NewProperty{
		Name:        req.Name,
		OwnerName:   req.OwnerName,
		Location:    req.Location,
		Capacity:    req.Capacity,
		PricePerDay: req.PricePerDay,
		ImageURL:    req.ImageURL,
		Description: req.Description,
		Rating:      req.Rating,
	}
	if user.Type == domain.UserTypeOwner {
		uid := user.ID
		in.OwnerID = &uid
		in.OwnerName = user.Name
	}
	if in.OwnerName == "" {
		writeError(w, http.StatusBadRequest, "owner_name is required")
		return
	}

	p, err := h.registry.AddProperty(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var req updatePropertyRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	cmds := req.commands()
	if len(cmds) == 0 {
		writeError(w, http.StatusBadRequest, "no fields to update")
		return
	}

	ctx := r.Context()
	if !h.canManageProperty(ctx, w, r, id) {
		return
	}
	if err := h.registry.UpdateProperty(ctx, id, cmds...); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.GetProperty(w, r)
}

func (h *Handler) UpdatePropertyStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	var req propertyStatusRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.registry.UpdatePropertyStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.GetProperty(w, r)
}

// canManageProperty lets admins through and owners only for their own
// properties. It writes the error response itself.
func (h *Handler) canManageProperty(ctx context.Context, w http.ResponseWriter, r *http.Request, id int32) bool {
	user, _ := UserFromContext(ctx)
	if user.Type == domain.UserTypeAdmin {
		return true
	}
	p, err := h.registry.GetProperty(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return false
	}
	if !ownsProperty(user, *p) {
		writeError(w, http.StatusForbidden, "not the owner of this property")
		return false
	}
	return true
}

func ownsProperty(user domain.User, p domain.Property) bool {
	return p.OwnerID != nil && *p.OwnerID == user.ID
}

// Reservations

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := UserFromContext(ctx)

	filter := service.ReservationFilter{
		Status: domain.ReservationStatus(r.URL.Query().Get("status")),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if pid := r.URL.Query().Get("property_id"); pid != "" {
		filter.PropertyIDs = []string{pid}
	}

	switch user.Type {
	case domain.UserTypeVisitor:
		mine, err := h.ledger.ListReservationsByUser(ctx, user.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		list := make([]domain.Reservation, 0, len(mine))
		for _, res := range mine {
			if filter.Matches(res) {
				list = append(list, res)
			}
		}
		writeJSON(w, http.StatusOK, list)
		return
	case domain.UserTypeOwner:
		owned, err := h.ownedPropertyIDs(ctx, user.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		filter.PropertyIDs = intersect(filter.PropertyIDs, owned)
	}

	list, err := h.ledger.ListReservations(ctx, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) ownedPropertyIDs(ctx context.Context, ownerID int32) ([]string, error) {
	props, err := h.registry.ListPropertiesByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(props))
	for i, p := range props {
		ids[i] = strconv.Itoa(int(p.ID))
	}
	return ids, nil
}

// intersect narrows owned to requested. A nil request keeps owned.
func intersect(requested, owned []string) []string {
	if requested == nil {
		return owned
	}
	out := []string{}
	for _, id := range requested {
		for _, o := range owned {
			if id == o {
				out = append(out, id)
			}
		}
	}
	return out
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.ledger.GetReservation(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.canSeeReservation(ctx, w, r, *res) {
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// QuoteStay prices a stay at an approved property without booking it.
func (h *Handler) QuoteStay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, ok := propertyID(w, r)
	if !ok {
		return
	}
	p, err := h.registry.GetProperty(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if p.Status != domain.PropertyStatusApproved {
		writeServiceError(w, r, domain.ErrNotFound)
		return
	}

	q := r.URL.Query()
	quote, err := utils.QuoteStay(q.Get("check_in"), q.Get("check_out"), p.PricePerDay)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// CreateReservation books an approved property. The total is computed from
// the property's daily price.
func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createReservationRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}
	if _, err := req.nights(); err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := h.registry.GetProperty(ctx, req.PropertyID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if p.Status != domain.PropertyStatusApproved {
		writeError(w, http.StatusConflict, "property is not available for booking")
		return
	}
	if req.Guests > p.Capacity {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("guests exceed property capacity of %d", p.Capacity))
		return
	}

	quote, err := utils.QuoteStay(req.CheckIn, req.CheckOut, p.PricePerDay)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, _ := UserFromContext(ctx)
	uid := user.ID
	total := quote.Total
	id, err := h.ledger.AddReservation(ctx, domain.NewReservation{
		PropertyID:    strconv.Itoa(int(p.ID)),
		PropertyName:  p.Name,
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		Guests:        req.Guests,
		TotalAmount:   total,
		Status:        domain.ReservationStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		UserID:        &uid,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.registry.RecordBooking(ctx, p.ID, total); err != nil {
		logger.Warn("Failed to record booking on property", "propertyID", p.ID, "reservationID", id, "error", err)
	}

	res, err := h.ledger.GetReservation(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) UpdateReservationStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]
	var req reservationStatusRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	res, err := h.ledger.GetReservation(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.canSeeReservation(ctx, w, r, *res) {
		return
	}

	if err := h.ledger.UpdateReservationStatus(ctx, id, req.Status); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.GetReservation(w, r)
}

func (h *Handler) CurrentReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.ledger.CurrentReservation(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if res == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetCurrentReservation selects a reservation by id. An empty id clears the
// selection.
func (h *Handler) SetCurrentReservation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req currentReservationRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	if req.ReservationID == "" {
		if err := h.ledger.SetCurrentReservation(ctx, nil); err != nil {
			writeServiceError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	res, err := h.ledger.GetReservation(ctx, req.ReservationID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if !h.canSeeReservation(ctx, w, r, *res) {
		return
	}
	if err := h.ledger.SetCurrentReservation(ctx, res); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// canSeeReservation admits admins, the booking user, and the owner of the
// booked property. It writes the error response itself.
func (h *Handler) canSeeReservation(ctx context.Context, w http.ResponseWriter, r *http.Request, res domain.Reservation) bool {
	user, _ := UserFromContext(ctx)
	if user.Type == domain.UserTypeAdmin {
		return true
	}
	if res.UserID != nil && *res.UserID == user.ID && user.Type == domain.UserTypeVisitor {
		return true
	}
	if user.Type == domain.UserTypeOwner {
		if pid, err := strconv.ParseInt(res.PropertyID, 10, 32); err == nil {
			if p, err := h.registry.GetProperty(ctx, int32(pid)); err == nil && ownsProperty(user, *p) {
				return true
			}
		}
	}
	writeError(w, http.StatusForbidden, "reservation belongs to another user")
	return false
}

// Payments

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	payments, err := h.ledger.ListPayments(ctx, domain.PaymentStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, _ := UserFromContext(ctx)
	if user.Type == domain.UserTypeOwner {
		owned, err := h.ownedPropertyIDs(ctx, user.ID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		reservations, err := h.ledger.ListReservations(ctx, service.ReservationFilter{PropertyIDs: owned})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		mine := make(map[string]bool, len(reservations))
		for _, res := range reservations {
			mine[res.ID] = true
		}
		visible := payments[:0]
		for _, p := range payments {
			if mine[p.ReservationID] {
				visible = append(visible, p)
			}
		}
		payments = visible
	}
	writeJSON(w, http.StatusOK, payments)
}

func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	p, err := h.ledger.GetPayment(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	user, _ := UserFromContext(ctx)
	if user.Type != domain.UserTypeAdmin {
		res, err := h.ledger.GetReservation(ctx, p.ReservationID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if !h.canSeeReservation(ctx, w, r, *res) {
			return
		}
	}

	if err := h.ledger.ConfirmPayment(ctx, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err = h.ledger.GetPayment(ctx, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Jobs

type markOverdueResponse struct {
	Marked int    `json:"marked"`
	AsOf   string `json:"as_of"`
}

// MarkOverduePayments runs the overdue sweep against this process's state.
// as_of defaults to today (UTC).
func (h *Handler) MarkOverduePayments(w http.ResponseWriter, r *http.Request) {
	var req markOverdueRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeValidationError(w, err)
		return
	}

	today := time.Now().UTC()
	if req.AsOf != "" {
		asOf, err := time.Parse(domain.DateLayout, req.AsOf)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid as_of")
			return
		}
		today = asOf
	}

	n, err := h.ledger.MarkOverduePayments(r.Context(), today)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	logger.Info("Overdue sweep triggered over HTTP", "marked", n, "asOf", today.Format(domain.DateLayout))
	writeJSON(w, http.StatusOK, markOverdueResponse{Marked: n, AsOf: today.Format(domain.DateLayout)})
}

// Reports

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.reports.Dashboard(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// OwnerDashboard reports on the caller's own properties. Admins may pick an
// owner with ?owner_id=.
func (h *Handler) OwnerDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	owner := user.ID
	if user.Type == domain.UserTypeAdmin {
		if q := r.URL.Query().Get("owner_id"); q != "" {
			id, err := strconv.ParseInt(q, 10, 32)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid owner_id")
				return
			}
			owner = int32(id)
		}
	}
	d, err := h.reports.OwnerDashboard(r.Context(), owner)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// PaymentsByStatus groups every payment under its status.
func (h *Handler) PaymentsByStatus(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reports.PaymentsByStatus(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// ReservationsByProperty groups every reservation under its property id.
func (h *Handler) ReservationsByProperty(w http.ResponseWriter, r *http.Request) {
	groups, err := h.reports.ReservationsByProperty(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (h *Handler) MonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	months, err := h.reports.MonthlyRevenue(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

func propertyID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid property id")
		return 0, false
	}
	return int32(id), true
}
