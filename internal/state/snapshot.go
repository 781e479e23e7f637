package state

import "chacara-backend/internal/domain"

// Snapshot is the full set of collections at one point in time.
type Snapshot struct {
	Properties         []domain.Property
	Reservations       []domain.Reservation
	Payments           []domain.Payment
	CurrentReservation *domain.Reservation
	CurrentUser        *domain.User
}

// Clone returns a deep copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Properties:         make([]domain.Property, len(s.Properties)),
		Reservations:       make([]domain.Reservation, len(s.Reservations)),
		Payments:           make([]domain.Payment, len(s.Payments)),
		CurrentReservation: cloneReservationPtr(s.CurrentReservation),
	}
	for i, p := range s.Properties {
		out.Properties[i] = cloneProperty(p)
	}
	for i, r := range s.Reservations {
		out.Reservations[i] = cloneReservation(r)
	}
	for i, p := range s.Payments {
		out.Payments[i] = clonePayment(p)
	}
	if s.CurrentUser != nil {
		u := *s.CurrentUser
		out.CurrentUser = &u
	}
	return out
}

// PropertyIndex returns the position of the property with id, or -1.
func (s *Snapshot) PropertyIndex(id int32) int {
	for i := range s.Properties {
		if s.Properties[i].ID == id {
			return i
		}
	}
	return -1
}

// ReservationIndex returns the position of the reservation with id, or -1.
func (s *Snapshot) ReservationIndex(id string) int {
	for i := range s.Reservations {
		if s.Reservations[i].ID == id {
			return i
		}
	}
	return -1
}

// PaymentIndex returns the position of the payment with id, or -1.
func (s *Snapshot) PaymentIndex(id string) int {
	for i := range s.Payments {
		if s.Payments[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneProperty(p domain.Property) domain.Property {
	if p.OwnerID != nil {
		v := *p.OwnerID
		p.OwnerID = &v
	}
	if p.Rating != nil {
		v := *p.Rating
		p.Rating = &v
	}
	return p
}

func cloneReservation(r domain.Reservation) domain.Reservation {
	if r.UserID != nil {
		v := *r.UserID
		r.UserID = &v
	}
	return r
}

func cloneReservationPtr(r *domain.Reservation) *domain.Reservation {
	if r == nil {
		return nil
	}
	c := cloneReservation(*r)
	return &c
}

func clonePayment(p domain.Payment) domain.Payment {
	if p.PaymentDate != nil {
		v := *p.PaymentDate
		p.PaymentDate = &v
	}
	return p
}
