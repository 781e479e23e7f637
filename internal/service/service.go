package service

import (
	"context"
	"time"

	"chacara-backend/internal/domain"
)

type LedgerService interface {
	AddReservation(ctx context.Context, in domain.NewReservation) (string, error)
	UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) error
	ConfirmPayment(ctx context.Context, paymentID string) error
	MarkOverduePayments(ctx context.Context, today time.Time) (int, error)

	CurrentReservation(ctx context.Context) (*domain.Reservation, error)
	SetCurrentReservation(ctx context.Context, r *domain.Reservation) error

	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error)
	ListReservationsByUser(ctx context.Context, userID int32) ([]domain.Reservation, error)
	GetPayment(ctx context.Context, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error)
}

type RegistryService interface {
	AddProperty(ctx context.Context, in domain.NewProperty) (*domain.Property, error)
	UpdateProperty(ctx context.Context, id int32, cmds ...domain.PropertyUpdate) error
	UpdatePropertyStatus(ctx context.Context, id int32, status domain.PropertyStatus) error
	RecordBooking(ctx context.Context, id int32, amount float64) error

	GetProperty(ctx context.Context, id int32) (*domain.Property, error)
	ListProperties(ctx context.Context) ([]domain.Property, error)
	ListPropertiesByStatus(ctx context.Context, status domain.PropertyStatus) ([]domain.Property, error)
	ListPropertiesByOwner(ctx context.Context, ownerID int32) ([]domain.Property, error)
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*domain.User, bool)
}

type ReportService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	OwnerDashboard(ctx context.Context, ownerID int32) (*OwnerDashboard, error)
	PaymentsByStatus(ctx context.Context) (map[domain.PaymentStatus][]domain.Payment, error)
	ReservationsByProperty(ctx context.Context) (map[string][]domain.Reservation, error)
	MonthlyRevenue(ctx context.Context) ([]MonthRevenue, error)
}

type EmailService interface {
	SendReservationReceived(ctx context.Context, r domain.Reservation) error
	SendPaymentConfirmed(ctx context.Context, p domain.Payment, clientEmail string) error
	SendPaymentOverdue(ctx context.Context, p domain.Payment, clientEmail string) error
}

// ReservationFilter narrows ListReservations. Zero fields match everything.
type ReservationFilter struct {
	UserID      *int32
	PropertyIDs []string
	Status      domain.ReservationStatus
}

func (f ReservationFilter) Matches(r domain.Reservation) bool {
	if f.UserID != nil && (r.UserID == nil || *r.UserID != *f.UserID) {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.PropertyIDs != nil {
		for _, id := range f.PropertyIDs {
			if id == r.PropertyID {
				return true
			}
		}
		return false
	}
	return true
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time
