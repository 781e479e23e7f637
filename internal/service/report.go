package service

import (
	"context"
	"sort"
	"strconv"
	"time"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/state"
)

type Dashboard struct {
	TotalProperties      int                              `json:"total_properties"`
	PropertiesByStatus   map[domain.PropertyStatus]int    `json:"properties_by_status"`
	TotalReservations    int                              `json:"total_reservations"`
	ReservationsByStatus map[domain.ReservationStatus]int `json:"reservations_by_status"`
	PaymentsByStatus     map[domain.PaymentStatus]int     `json:"payments_by_status"`
	RevenueReceived      float64                          `json:"revenue_received"`
	RevenuePending       float64                          `json:"revenue_pending"`
	RevenueOverdue       float64                          `json:"revenue_overdue"`
	ActiveReservations   int                              `json:"active_reservations"`
	UpcomingCheckIns     int                              `json:"upcoming_check_ins"`
}

type OwnerDashboard struct {
	OwnerID            int32                `json:"owner_id"`
	OwnerName          string               `json:"owner_name"`
	Properties         []domain.Property    `json:"properties"`
	Reservations       []domain.Reservation `json:"reservations"`
	TotalBookings      int32                `json:"total_bookings"`
	TotalRevenue       float64              `json:"total_revenue"`
	RevenueReceived    float64              `json:"revenue_received"`
	RevenueOutstanding float64              `json:"revenue_outstanding"`
}

type MonthRevenue struct {
	Month    string  `json:"month"`
	Received float64 `json:"received"`
	Pending  float64 `json:"pending"`
	Overdue  float64 `json:"overdue"`
}

type reportService struct {
	store *state.Store
	now   Clock
}

func NewReportService(store *state.Store, now Clock) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{store: store, now: now}
}

func (s *reportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	d := BuildDashboard(s.store.View(), s.now())
	return &d, nil
}

func (s *reportService) OwnerDashboard(ctx context.Context, ownerID int32) (*OwnerDashboard, error) {
	d := BuildOwnerDashboard(s.store.View(), ownerID)
	return &d, nil
}

func (s *reportService) PaymentsByStatus(ctx context.Context) (map[domain.PaymentStatus][]domain.Payment, error) {
	return GroupPaymentsByStatus(s.store.View().Payments), nil
}

func (s *reportService) ReservationsByProperty(ctx context.Context) (map[string][]domain.Reservation, error) {
	return GroupReservationsByProperty(s.store.View().Reservations), nil
}

func (s *reportService) MonthlyRevenue(ctx context.Context) ([]MonthRevenue, error) {
	return BuildMonthlyRevenue(s.store.View().Payments), nil
}

// BuildDashboard computes the admin totals. A reservation is active when it is
// confirmed and today falls in [check-in, check-out).
func BuildDashboard(snap state.Snapshot, now time.Time) Dashboard {
	today := now.Format(domain.DateLayout)
	d := Dashboard{
		TotalProperties:      len(snap.Properties),
		PropertiesByStatus:   make(map[domain.PropertyStatus]int),
		TotalReservations:    len(snap.Reservations),
		ReservationsByStatus: make(map[domain.ReservationStatus]int),
		PaymentsByStatus:     make(map[domain.PaymentStatus]int),
	}
	for _, p := range snap.Properties {
		d.PropertiesByStatus[p.Status]++
	}
	for _, r := range snap.Reservations {
		d.ReservationsByStatus[r.Status]++
		if r.Status == domain.ReservationStatusCancelled {
			continue
		}
		if r.Status == domain.ReservationStatusConfirmed && r.CheckIn <= today && today < r.CheckOut {
			d.ActiveReservations++
		}
		if r.CheckIn > today {
			d.UpcomingCheckIns++
		}
	}
	for _, p := range snap.Payments {
		d.PaymentsByStatus[p.Status]++
		switch p.Status {
		case domain.PaymentStatusPaid:
			d.RevenueReceived += p.Amount
		case domain.PaymentStatusPending:
			d.RevenuePending += p.Amount
		case domain.PaymentStatusOverdue:
			d.RevenueOverdue += p.Amount
		}
	}
	return d
}

// BuildOwnerDashboard summarizes the properties owned by the user ownerID.
// Properties without an owning user never match.
func BuildOwnerDashboard(snap state.Snapshot, ownerID int32) OwnerDashboard {
	d := OwnerDashboard{
		OwnerID:      ownerID,
		Properties:   []domain.Property{},
		Reservations: []domain.Reservation{},
	}
	owned := make(map[string]bool)
	for _, p := range snap.Properties {
		if p.OwnerID == nil || *p.OwnerID != ownerID {
			continue
		}
		if d.OwnerName == "" {
			d.OwnerName = p.OwnerName
		}
		d.Properties = append(d.Properties, p)
		d.TotalBookings += p.ReservationCount
		d.TotalRevenue += p.Revenue
		owned[strconv.Itoa(int(p.ID))] = true
	}

	reservations := make(map[string]bool)
	for _, r := range snap.Reservations {
		if owned[r.PropertyID] {
			d.Reservations = append(d.Reservations, r)
			reservations[r.ID] = true
		}
	}
	for _, p := range snap.Payments {
		if !reservations[p.ReservationID] {
			continue
		}
		if p.Status == domain.PaymentStatusPaid {
			d.RevenueReceived += p.Amount
		} else {
			d.RevenueOutstanding += p.Amount
		}
	}
	return d
}

func GroupPaymentsByStatus(payments []domain.Payment) map[domain.PaymentStatus][]domain.Payment {
	out := make(map[domain.PaymentStatus][]domain.Payment)
	for _, p := range payments {
		out[p.Status] = append(out[p.Status], p)
	}
	return out
}

func GroupReservationsByProperty(reservations []domain.Reservation) map[string][]domain.Reservation {
	out := make(map[string][]domain.Reservation)
	for _, r := range reservations {
		out[r.PropertyID] = append(out[r.PropertyID], r)
	}
	return out
}

// BuildMonthlyRevenue buckets payment amounts by the month of their due date,
// oldest month first. Payments with a malformed due date are skipped.
func BuildMonthlyRevenue(payments []domain.Payment) []MonthRevenue {
	buckets := make(map[string]*MonthRevenue)
	for _, p := range payments {
		due, err := time.Parse(domain.DateLayout, p.DueDate)
		if err != nil {
			continue
		}
		month := due.Format("2006-01")
		b, ok := buckets[month]
		if !ok {
			b = &MonthRevenue{Month: month}
			buckets[month] = b
		}
		switch p.Status {
		case domain.PaymentStatusPaid:
			b.Received += p.Amount
		case domain.PaymentStatusPending:
			b.Pending += p.Amount
		case domain.PaymentStatusOverdue:
			b.Overdue += p.Amount
		}
	}

	out := make([]MonthRevenue, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
