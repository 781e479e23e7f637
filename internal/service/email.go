package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"chacara-backend/internal/domain"
	"chacara-backend/internal/logger"
)

type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client    mailSender
	fromEmail string
	fromName  string
}

// NewEmailService returns a SendGrid-backed notifier. With an empty API key
// messages are logged and dropped.
func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	s := &emailService{fromEmail: fromEmail, fromName: fromName}
	if apiKey != "" {
		s.client = sendgrid.NewSendClient(apiKey)
	}
	return s
}

func (s *emailService) send(ctx context.Context, to, toName, subject, body string) error {
	if s.client == nil {
		logger.Debug("Email delivery disabled, dropping message", "to", to, "subject", subject)
		return nil
	}

	logger.ExternalServiceCall("sendgrid", "Send", "to", to, "subject", subject)
	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.fromEmail), subject, mail.NewEmail(toName, to), body, "")
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "Send", err, "to", to)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *emailService) SendReservationReceived(ctx context.Context, r domain.Reservation) error {
	subject := fmt.Sprintf("Reserva recebida - %s", r.PropertyName)
	body := fmt.Sprintf("Olá %s,\n\nRecebemos sua reserva na %s de %s a %s para %d convidados.\n\nValor total: R$ %.2f\nCódigo da reserva: %s\n\nO pagamento vence em %s.\n\nAtenciosamente,\n%s",
		r.ClientName, r.PropertyName, r.CheckIn, r.CheckOut, r.Guests, r.TotalAmount, r.ID, r.CheckIn, s.fromName)
	return s.send(ctx, r.ClientEmail, r.ClientName, subject, body)
}

func (s *emailService) SendPaymentConfirmed(ctx context.Context, p domain.Payment, clientEmail string) error {
	paidOn := ""
	if p.PaymentDate != nil {
		paidOn = *p.PaymentDate
	}
	subject := fmt.Sprintf("Pagamento confirmado - %s", p.PropertyName)
	body := fmt.Sprintf("Olá %s,\n\nConfirmamos o pagamento de R$ %.2f referente à reserva %s na %s.\n\nData: %s\nForma de pagamento: %s\n\nAtenciosamente,\n%s",
		p.ClientName, p.Amount, p.ReservationID, p.PropertyName, paidOn, p.Method, s.fromName)
	return s.send(ctx, clientEmail, p.ClientName, subject, body)
}

func (s *emailService) SendPaymentOverdue(ctx context.Context, p domain.Payment, clientEmail string) error {
	subject := fmt.Sprintf("Pagamento em atraso - %s", p.PropertyName)
	body := fmt.Sprintf("Olá %s,\n\nO pagamento de R$ %.2f referente à reserva %s na %s venceu em %s e ainda não foi identificado.\n\nAtenciosamente,\n%s",
		p.ClientName, p.Amount, p.ReservationID, p.PropertyName, p.DueDate, s.fromName)
	return s.send(ctx, clientEmail, p.ClientName, subject, body)
}
