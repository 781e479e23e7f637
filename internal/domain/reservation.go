package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "confirmada"
	ReservationStatusPending   ReservationStatus = "pendente"
	ReservationStatusCancelled ReservationStatus = "cancelada"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusConfirmed, ReservationStatusPending, ReservationStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes pendente <-> confirmada and any -> cancelada.
// Cancelled reservations are terminal.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s == next {
		return true
	}
	return s != ReservationStatusCancelled
}

type Reservation struct {
	ID            string            `json:"id"`
	PropertyID    string            `json:"property_id"`
	PropertyName  string            `json:"property_name"`
	ClientName    string            `json:"client_name"`
	ClientEmail   string            `json:"client_email"`
	CheckIn       string            `json:"check_in"`
	CheckOut      string            `json:"check_out"`
	Guests        int32             `json:"guests"`
	TotalAmount   float64           `json:"total_amount"`
	Status        ReservationStatus `json:"status"`
	PaymentStatus PaymentStatus     `json:"payment_status"`
	CreatedAt     time.Time         `json:"created_at"`
	UserID        *int32            `json:"user_id,omitempty"`
}

// NewReservation is every reservation field except the ones the ledger assigns.
type NewReservation struct {
	PropertyID    string
	PropertyName  string
	ClientName    string
	ClientEmail   string
	CheckIn       string
	CheckOut      string
	Guests        int32
	TotalAmount   float64
	Status        ReservationStatus
	PaymentStatus PaymentStatus
	UserID        *int32
}

// Nights returns the number of nights between check-in and check-out.
// Unparseable or unordered dates yield zero.
func (r Reservation) Nights() int {
	in, err := time.Parse(DateLayout, r.CheckIn)
	if err != nil {
		return 0
	}
	out, err := time.Parse(DateLayout, r.CheckOut)
	if err != nil {
		return 0
	}
	n := int(out.Sub(in).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}
