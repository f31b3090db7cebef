package service

import (
	"context"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
)

type bookingEventHandler struct {
	customers CustomerDirectory
	emailSvc  EmailService
}

// NewBookingEventHandler sends customer email for booking events. The broker
// may deliver an event more than once; deduplication happens before this handler.
func NewBookingEventHandler(customers CustomerDirectory, emailSvc EmailService) BookingEventHandler {
	return &bookingEventHandler{customers: customers, emailSvc: emailSvc}
}

func (h *bookingEventHandler) HandleBookingEvent(ctx context.Context, event *domain.BookingEvent) error {
	logger.EnterMethod("bookingEventHandler.HandleBookingEvent", "eventID", event.ID, "type", event.Type)

	switch event.Type {
	case domain.BookingEventCreated, domain.BookingEventStatusChanged:
	default:
		logger.ExitMethod("bookingEventHandler.HandleBookingEvent", "eventID", event.ID, "skipped", true)
		return nil
	}

	customer, err := h.customers.GetCustomer(ctx, event.TenantID, event.CustomerID)
	if err != nil {
		if domain.IsKind(err, domain.KindCustomerNotFound) {
			logger.Warn("Customer of booking event no longer exists", "eventID", event.ID, "customerID", event.CustomerID)
			return nil
		}
		logger.ExitMethodWithError("bookingEventHandler.HandleBookingEvent", err, "eventID", event.ID)
		return err
	}
	if customer.Email == "" {
		logger.ExitMethod("bookingEventHandler.HandleBookingEvent", "eventID", event.ID, "skipped", true, "reason", "no email")
		return nil
	}

	if event.Type == domain.BookingEventCreated {
		err = h.emailSvc.SendBookingCreated(ctx, customer.Email, customer.Name, event)
	} else {
		err = h.emailSvc.SendBookingStatusChanged(ctx, customer.Email, customer.Name, event)
	}
	if err != nil {
		logger.ExitMethodWithError("bookingEventHandler.HandleBookingEvent", err, "eventID", event.ID)
		return err
	}

	logger.ExitMethod("bookingEventHandler.HandleBookingEvent", "eventID", event.ID)
	return nil
}
