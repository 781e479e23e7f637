package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/logger"
	"chacara-backend/internal/state"
)

// LedgerOptions configures payment policy. Zero values fall back to defaults.
type LedgerOptions struct {
	DefaultPaymentMethod string
	OverdueGraceDays     int
	Now                  Clock
	NewID                func() (string, error)
}

type ledgerService struct {
	store     *state.Store
	emailSvc  EmailService
	method    string
	graceDays int
	now       Clock
	newID     func() (string, error)
}

func NewLedgerService(store *state.Store, emailSvc EmailService, opts LedgerOptions) LedgerService {
	s := &ledgerService{
		store:     store,
		emailSvc:  emailSvc,
		method:    opts.DefaultPaymentMethod,
		graceDays: opts.OverdueGraceDays,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.method == "" {
		s.method = "pix"
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newReservationID
	}
	return s
}

func newReservationID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *ledgerService) AddReservation(ctx context.Context, in domain.NewReservation) (string, error) {
	logger.EnterMethod("ledgerService.AddReservation", "propertyID", in.PropertyID, "client", in.ClientEmail)

	id, err := s.newID()
	if err != nil {
		logger.ExitMethodWithError("ledgerService.AddReservation", err)
		return "", fmt.Errorf("failed to generate reservation id: %w", err)
	}

	res := domain.Reservation{
		ID:            id,
		PropertyID:    in.PropertyID,
		PropertyName:  in.PropertyName,
		ClientName:    in.ClientName,
		ClientEmail:   in.ClientEmail,
		CheckIn:       in.CheckIn,
		CheckOut:      in.CheckOut,
		Guests:        in.Guests,
		TotalAmount:   in.TotalAmount,
		Status:        in.Status,
		PaymentStatus: in.PaymentStatus,
		CreatedAt:     s.now().UTC(),
		UserID:        in.UserID,
	}
	pay := domain.Payment{
		ID:            domain.PaymentIDFor(id),
		ReservationID: id,
		ClientName:    in.ClientName,
		PropertyName:  in.PropertyName,
		Amount:        in.TotalAmount,
		Status:        domain.PaymentStatusPending,
		DueDate:       in.CheckIn,
	}

	err = s.store.Update(ctx, func(snap *state.Snapshot) error {
		snap.Reservations = append(snap.Reservations, res)
		snap.Payments = append(snap.Payments, pay)
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.AddReservation", err, "reservationID", id)
		return "", err
	}

	if s.emailSvc != nil && res.ClientEmail != "" {
		if err := s.emailSvc.SendReservationReceived(ctx, res); err != nil {
			logger.Warn("Failed to send reservation email", "reservationID", id, "error", err)
		}
	}

	logger.ExitMethod("ledgerService.AddReservation", "reservationID", id)
	return id, nil
}

func (s *ledgerService) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	logger.EnterMethod("ledgerService.UpdateReservationStatus", "reservationID", id, "status", status)

	if !status.Valid() {
		err := fmt.Errorf("%w: reservation status %q", domain.ErrInvalidStatus, status)
		logger.ExitMethodWithError("ledgerService.UpdateReservationStatus", err)
		return err
	}

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		i := snap.ReservationIndex(id)
		if i < 0 {
			return fmt.Errorf("reservation %s: %w", id, domain.ErrNotFound)
		}
		r := &snap.Reservations[i]
		if !r.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: reservation %s %s -> %s", domain.ErrInvalidTransition, id, r.Status, status)
		}
		r.Status = status
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.UpdateReservationStatus", err, "reservationID", id)
		return err
	}

	logger.ExitMethod("ledgerService.UpdateReservationStatus", "reservationID", id)
	return nil
}

// ConfirmPayment marks a payment paid and mirrors it onto the reservation in
// one state transaction. Confirming an already paid payment changes nothing.
func (s *ledgerService) ConfirmPayment(ctx context.Context, paymentID string) error {
	logger.EnterMethod("ledgerService.ConfirmPayment", "paymentID", paymentID)

	today := s.now().UTC().Format(domain.DateLayout)
	var confirmed *domain.Payment
	var clientEmail string

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		i := snap.PaymentIndex(paymentID)
		if i < 0 {
			return fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
		}
		p := &snap.Payments[i]
		if p.Status == domain.PaymentStatusPaid {
			return nil
		}

		p.Status = domain.PaymentStatusPaid
		p.PaymentDate = &today
		p.Method = s.method

		if j := snap.ReservationIndex(p.ReservationID); j >= 0 {
			snap.Reservations[j].PaymentStatus = domain.PaymentStatusPaid
			clientEmail = snap.Reservations[j].ClientEmail
		} else {
			logger.Warn("Payment has no reservation", "paymentID", paymentID, "reservationID", p.ReservationID)
		}

		cp := *p
		confirmed = &cp
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.ConfirmPayment", err, "paymentID", paymentID)
		return err
	}

	if confirmed != nil && s.emailSvc != nil && clientEmail != "" {
		if err := s.emailSvc.SendPaymentConfirmed(ctx, *confirmed, clientEmail); err != nil {
			logger.Warn("Failed to send payment confirmation email", "paymentID", paymentID, "error", err)
		}
	}

	logger.ExitMethod("ledgerService.ConfirmPayment", "paymentID", paymentID, "changed", confirmed != nil)
	return nil
}

// MarkOverduePayments moves pending payments whose due date plus the grace
// period is before today to atrasado, mirroring the reservation. Payments of
// cancelled reservations are left alone.
func (s *ledgerService) MarkOverduePayments(ctx context.Context, today time.Time) (int, error) {
	logger.EnterMethod("ledgerService.MarkOverduePayments", "today", today.Format(domain.DateLayout), "graceDays", s.graceDays)

	cutoff := today.UTC().AddDate(0, 0, -s.graceDays).Format(domain.DateLayout)
	type notice struct {
		payment domain.Payment
		email   string
	}
	var notices []notice

	err := s.store.Update(ctx, func(snap *state.Snapshot) error {
		notices = notices[:0]
		for i := range snap.Payments {
			p := &snap.Payments[i]
			if p.Status != domain.PaymentStatusPending {
				continue
			}
			due, err := time.Parse(domain.DateLayout, p.DueDate)
			if err != nil {
				logger.Warn("Skipping payment with unparseable due date", "paymentID", p.ID, "dueDate", p.DueDate)
				continue
			}
			if due.Format(domain.DateLayout) >= cutoff {
				continue
			}

			j := snap.ReservationIndex(p.ReservationID)
			if j >= 0 && snap.Reservations[j].Status == domain.ReservationStatusCancelled {
				continue
			}

			p.Status = domain.PaymentStatusOverdue
			n := notice{payment: *p}
			if j >= 0 {
				snap.Reservations[j].PaymentStatus = domain.PaymentStatusOverdue
				n.email = snap.Reservations[j].ClientEmail
			}
			notices = append(notices, n)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.MarkOverduePayments", err)
		return 0, err
	}

	if s.emailSvc != nil {
		for _, n := range notices {
			if n.email == "" {
				continue
			}
			if err := s.emailSvc.SendPaymentOverdue(ctx, n.payment, n.email); err != nil {
				logger.Warn("Failed to send overdue email", "paymentID", n.payment.ID, "error", err)
			}
		}
	}

	logger.ExitMethod("ledgerService.MarkOverduePayments", "marked", len(notices))
	return len(notices), nil
}

func (s *ledgerService) CurrentReservation(ctx context.Context) (*domain.Reservation, error) {
	return s.store.View().CurrentReservation, nil
}

// SetCurrentReservation stores the selection handed from the booking screen to
// the payment screen. A nil reservation clears it.
func (s *ledgerService) SetCurrentReservation(ctx context.Context, r *domain.Reservation) error {
	return s.store.Update(ctx, func(snap *state.Snapshot) error {
		if r == nil {
			snap.CurrentReservation = nil
			return nil
		}
		cp := *r
		if r.UserID != nil {
			uid := *r.UserID
			cp.UserID = &uid
		}
		snap.CurrentReservation = &cp
		return nil
	})
}

func (s *ledgerService) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	snap := s.store.View()
	i := snap.ReservationIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("reservation %s: %w", id, domain.ErrNotFound)
	}
	return &snap.Reservations[i], nil
}

func (s *ledgerService) ListReservations(ctx context.Context, filter ReservationFilter) ([]domain.Reservation, error) {
	snap := s.store.View()
	out := make([]domain.Reservation, 0, len(snap.Reservations))
	for _, r := range snap.Reservations {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *ledgerService) ListReservationsByUser(ctx context.Context, userID int32) ([]domain.Reservation, error) {
	return s.ListReservations(ctx, ReservationFilter{UserID: &userID})
}

func (s *ledgerService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	snap := s.store.View()
	i := snap.PaymentIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("payment %s: %w", id, domain.ErrNotFound)
	}
	return &snap.Payments[i], nil
}

// ListPayments returns every payment, or only those in status when it is set.
func (s *ledgerService) ListPayments(ctx context.Context, status domain.PaymentStatus) ([]domain.Payment, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: payment status %q", domain.ErrInvalidStatus, status)
	}
	snap := s.store.View()
	out := make([]domain.Payment, 0, len(snap.Payments))
	for _, p := range snap.Payments {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}
