package service

import (
	"context"
	"fmt"
	"html"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/utils"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type emailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) SendBookingCreated(ctx context.Context, to, customerName string, event *domain.BookingEvent) error {
	return s.send(ctx, bookingCreatedMessage(s.from(), to, customerName, event))
}

func (s *emailService) SendBookingStatusChanged(ctx context.Context, to, customerName string, event *domain.BookingEvent) error {
	return s.send(ctx, bookingStatusMessage(s.from(), to, customerName, event))
}

func (s *emailService) from() *mail.Email {
	return mail.NewEmail(s.fromName, s.fromEmail)
}

func (s *emailService) send(ctx context.Context, message *mail.SGMailV3) error {
	logger.ExternalServiceCall("sendgrid", "send", "subject", message.Subject)
	response, err := s.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "subject", message.Subject)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func bookingCreatedMessage(from *mail.Email, to, customerName string, event *domain.BookingEvent) *mail.SGMailV3 {
	subject := fmt.Sprintf("Booking #%d received", event.BookingNumber)
	plain := fmt.Sprintf("Hello %s,\n\nWe received your booking #%d for %s to %s.\nTotal: %s\n\nIt is pending confirmation.",
		customerName, event.BookingNumber,
		event.StartDate.Format(utils.DateLayout), event.EndDate.Format(utils.DateLayout),
		event.TotalPrice.StringFixed(2))
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>We received your booking <strong>#%d</strong> for %s to %s.</p>
<p>Total: <strong>%s</strong></p>
<p>It is pending confirmation.</p>`,
		html.EscapeString(customerName), event.BookingNumber,
		event.StartDate.Format(utils.DateLayout), event.EndDate.Format(utils.DateLayout),
		event.TotalPrice.StringFixed(2))
	return mail.NewSingleEmail(from, subject, mail.NewEmail(customerName, to), plain, body)
}

func bookingStatusMessage(from *mail.Email, to, customerName string, event *domain.BookingEvent) *mail.SGMailV3 {
	subject := fmt.Sprintf("Booking #%d is now %s", event.BookingNumber, statusLabel(event.NewStatus))
	plain := fmt.Sprintf("Hello %s,\n\nYour booking #%d for %s to %s changed from %s to %s.",
		customerName, event.BookingNumber,
		event.StartDate.Format(utils.DateLayout), event.EndDate.Format(utils.DateLayout),
		statusLabel(event.PreviousStatus), statusLabel(event.NewStatus))
	body := fmt.Sprintf(`<p>Hello %s,</p>
<p>Your booking <strong>#%d</strong> for %s to %s changed from %s to <strong>%s</strong>.</p>`,
		html.EscapeString(customerName), event.BookingNumber,
		event.StartDate.Format(utils.DateLayout), event.EndDate.Format(utils.DateLayout),
		html.EscapeString(statusLabel(event.PreviousStatus)), html.EscapeString(statusLabel(event.NewStatus)))
	return mail.NewSingleEmail(from, subject, mail.NewEmail(customerName, to), plain, body)
}

func statusLabel(status domain.BookingStatus) string {
	switch status {
	case domain.BookingStatusPending:
		return "pending"
	case domain.BookingStatusConfirmed:
		return "confirmed"
	case domain.BookingStatusCompleted:
		return "completed"
	case domain.BookingStatusCancelled:
		return "cancelled"
	default:
		return string(status)
	}
}
