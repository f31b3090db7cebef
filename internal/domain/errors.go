package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindCustomerNotFound  ErrorKind = "CUSTOMER_NOT_FOUND"
	KindCustomerInactive  ErrorKind = "CUSTOMER_INACTIVE"
	KindEquipmentNotFound ErrorKind = "EQUIPMENT_NOT_FOUND"
	KindUnitNotFound      ErrorKind = "UNIT_NOT_FOUND"
	KindBookingNotFound   ErrorKind = "BOOKING_NOT_FOUND"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindCapacityExceeded  ErrorKind = "CAPACITY_EXCEEDED"
	KindStockUnderflow    ErrorKind = "STOCK_UNDERFLOW"
	KindPlanLimitExceeded ErrorKind = "PLAN_LIMIT_EXCEEDED"
	KindInvalidTransition ErrorKind = "INVALID_TRANSITION"
	KindEquipmentInUse    ErrorKind = "EQUIPMENT_IN_USE"
	KindUnitUnavailable   ErrorKind = "UNIT_UNAVAILABLE"
	KindForbidden         ErrorKind = "FORBIDDEN"
)

// Error is the structured failure returned by the reservation core.
// Details carries the numbers a caller needs to retry (shortfall, limits).
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	return e.Message
}

// Expected reports that the error is a business rejection rather than a fault.
func (e *Error) Expected() bool {
	return true
}

// KindOf returns the kind of the first *Error in err's chain, or "" when there is none.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NewCustomerNotFoundError(customerID int32) *Error {
	return &Error{
		Kind:    KindCustomerNotFound,
		Message: fmt.Sprintf("customer %d not found", customerID),
		Details: map[string]any{"customer_id": customerID},
	}
}

func NewCustomerInactiveError(customerID int32, name string) *Error {
	return &Error{
		Kind:    KindCustomerInactive,
		Message: fmt.Sprintf("customer %q is inactive", name),
		Details: map[string]any{"customer_id": customerID},
	}
}

func NewEquipmentNotFoundError(equipmentID int32) *Error {
	return &Error{
		Kind:    KindEquipmentNotFound,
		Message: fmt.Sprintf("equipment %d not found", equipmentID),
		Details: map[string]any{"equipment_id": equipmentID},
	}
}

func NewUnitNotFoundError(unitID int32) *Error {
	return &Error{
		Kind:    KindUnitNotFound,
		Message: fmt.Sprintf("equipment unit %d not found", unitID),
		Details: map[string]any{"unit_id": unitID},
	}
}

func NewBookingNotFoundError(bookingID int32) *Error {
	return &Error{
		Kind:    KindBookingNotFound,
		Message: fmt.Sprintf("booking %d not found", bookingID),
		Details: map[string]any{"booking_id": bookingID},
	}
}

func NewInsufficientStockError(e *Equipment, requested, available int32) *Error {
	return &Error{
		Kind: KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for %q: requested %d, available %d (short by %d)",
			e.Name, requested, available, requested-available),
		Details: map[string]any{
			"equipment_id":   e.ID,
			"equipment_name": e.Name,
			"requested":      requested,
			"available":      available,
			"shortfall":      requested - available,
		},
	}
}

func NewCapacityExceededError(e *Equipment, requested, capacity, demand int32) *Error {
	remaining := capacity - demand
	if remaining < 0 {
		remaining = 0
	}
	return &Error{
		Kind: KindCapacityExceeded,
		Message: fmt.Sprintf("%q is already booked for the requested dates: requested %d, remaining %d of %d (short by %d)",
			e.Name, requested, remaining, capacity, requested-remaining),
		Details: map[string]any{
			"equipment_id":   e.ID,
			"equipment_name": e.Name,
			"requested":      requested,
			"capacity":       capacity,
			"demand":         demand,
			"remaining":      remaining,
			"shortfall":      requested - remaining,
		},
	}
}

func NewStockUnderflowError(e *Equipment, requestedTotal, minimum int32) *Error {
	return &Error{
		Kind: KindStockUnderflow,
		Message: fmt.Sprintf("cannot set stock of %q to %d: minimum required is %d",
			e.Name, requestedTotal, minimum),
		Details: map[string]any{
			"equipment_id":    e.ID,
			"equipment_name":  e.Name,
			"requested_total": requestedTotal,
			"minimum":         minimum,
		},
	}
}

// NewReleaseUnderflowError reports an attempt to release more than is reserved.
func NewReleaseUnderflowError(e *Equipment, quantity int32) *Error {
	return &Error{
		Kind: KindStockUnderflow,
		Message: fmt.Sprintf("cannot release %d of %q: only %d reserved",
			quantity, e.Name, e.ReservedStock),
		Details: map[string]any{
			"equipment_id": e.ID,
			"requested":    quantity,
			"reserved":     e.ReservedStock,
		},
	}
}

func NewPlanLimitExceededError(current, limit int32) *Error {
	return &Error{
		Kind:    KindPlanLimitExceeded,
		Message: fmt.Sprintf("booking limit reached: %d of %d", current, limit),
		Details: map[string]any{"current": current, "max": limit},
	}
}

func NewInvalidTransitionError(from, to BookingStatus) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change booking status from %s to %s", from, to),
		Details: map[string]any{"from": from, "to": to},
	}
}

func NewBookingNotEditableError(b *Booking) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("booking #%d is %s and can no longer be edited", b.BookingNumber, b.Status),
		Details: map[string]any{"booking_id": b.ID, "status": b.Status},
	}
}

func NewInvalidUnitTransitionError(u *EquipmentUnit, to UnitStatus) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot change unit %s from %s to %s", u.Label(), u.Status, to),
		Details: map[string]any{"unit_id": u.ID, "from": u.Status, "to": to},
	}
}

func NewEquipmentInUseError(e *Equipment, activeRefs int32) *Error {
	return &Error{
		Kind:    KindEquipmentInUse,
		Message: fmt.Sprintf("%q is referenced by %d active booking(s)", e.Name, activeRefs),
		Details: map[string]any{"equipment_id": e.ID, "active_references": activeRefs},
	}
}

func NewUnitUnavailableError(u *EquipmentUnit, reason string) *Error {
	return &Error{
		Kind:    KindUnitUnavailable,
		Message: fmt.Sprintf("unit %s is not available: %s", u.Label(), reason),
		Details: map[string]any{"unit_id": u.ID, "status": u.Status},
	}
}

func NewForbiddenError(action string) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf("not allowed to %s", action)}
}
