package domain

type PaymentStatus string

const (
	PaymentStatusPaid    PaymentStatus = "pago"
	PaymentStatusPending PaymentStatus = "pendente"
	PaymentStatusOverdue PaymentStatus = "atrasado"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusPending, PaymentStatusOverdue:
		return true
	}
	return false
}

const PaymentIDPrefix = "pay-"

// PaymentIDFor derives the payment id of a reservation. One reservation id maps to
// exactly one payment id.
func PaymentIDFor(reservationID string) string {
	return PaymentIDPrefix + reservationID
}

type Payment struct {
	ID            string        `json:"id"`
	ReservationID string        `json:"reservation_id"`
	ClientName    string        `json:"client_name"`
	PropertyName  string        `json:"property_name"`
	Amount        float64       `json:"amount"`
	Status        PaymentStatus `json:"status"`
	DueDate       string        `json:"due_date"`
	PaymentDate   *string       `json:"payment_date,omitempty"`
	Method        string        `json:"method,omitempty"`
}
