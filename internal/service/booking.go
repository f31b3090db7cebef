package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/logger"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/metrics"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/utils"

	"github.com/shopspring/decimal"
)

type BookingItemInput struct {
	EquipmentID int32
	Quantity    int32
	// UnitPrice overrides the tier price per unit per day.
	UnitPrice *decimal.Decimal
	UnitIDs   []int32
	Notes     string
}

// BookingRequest is the content of a booking being created or edited.
// When Items is empty the single EquipmentID/Quantity/UnitIDs form is used.
type BookingRequest struct {
	CustomerID  int32
	SiteID      *int32
	StartDate   time.Time
	EndDate     time.Time
	StartTime   *string
	EndTime     *string
	Items       []BookingItemInput
	EquipmentID int32
	Quantity    int32
	UnitIDs     []int32
	// TotalPrice replaces the sum of the item totals.
	TotalPrice *decimal.Decimal
	Notes      string
}

type BookingOptions struct {
	ReleaseUnitsOnComplete bool
	MaxItemsPerBooking     int
}

type BookingDependencies struct {
	Tx           repository.Transactor
	Bookings     repository.BookingRepository
	Equipment    repository.EquipmentRepository
	Movements    repository.StockMovementRepository
	Activity     repository.ActivityLogRepository
	Ledger       StockLedger
	Availability AvailabilityChecker
	Pricing      PricingCalculator
	Units        UnitService
	Notifier     LifecycleNotifier
	Customers    CustomerDirectory
	PlanLimiter  PlanLimiter
}

type bookingService struct {
	tx            repository.Transactor
	bookingRepo   repository.BookingRepository
	equipmentRepo repository.EquipmentRepository
	movementRepo  repository.StockMovementRepository
	activityRepo  repository.ActivityLogRepository
	ledger        StockLedger
	availability  AvailabilityChecker
	pricing       PricingCalculator
	units         UnitService
	notifier      LifecycleNotifier
	customers     CustomerDirectory
	planLimiter   PlanLimiter
	opts          BookingOptions
}

func NewBookingService(deps BookingDependencies, opts BookingOptions) BookingService {
	return &bookingService{
		tx:            deps.Tx,
		bookingRepo:   deps.Bookings,
		equipmentRepo: deps.Equipment,
		movementRepo:  deps.Movements,
		activityRepo:  deps.Activity,
		ledger:        deps.Ledger,
		availability:  deps.Availability,
		pricing:       deps.Pricing,
		units:         deps.Units,
		notifier:      deps.Notifier,
		customers:     deps.Customers,
		planLimiter:   deps.PlanLimiter,
		opts:          opts,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor domain.Actor, req BookingRequest) (*domain.Booking, error) {
	const method = "bookingService.CreateBooking"
	logger.EnterMethod(method, "tenantID", actor.TenantID, "customerID", req.CustomerID)

	items, err := s.normalizeRequest(req)
	if err != nil {
		return nil, s.reject(method, err)
	}
	if err := s.checkCustomer(ctx, actor.TenantID, req.CustomerID); err != nil {
		return nil, s.reject(method, err)
	}

	window := domain.DateRange{Start: req.StartDate, End: req.EndDate}
	days, _ := utils.RentalDays(req.StartDate, req.EndDate)

	var (
		booking   *domain.Booking
		event     *domain.BookingEvent
		movements []*domain.StockMovement
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		equipment, err := s.lockEquipment(ctx, q, actor.TenantID, inputEquipmentIDs(items))
		if err != nil {
			return err
		}
		lines, err := s.priceAndCheck(ctx, q, equipment, window, days, items, 0)
		if err != nil {
			return err
		}

		// The sequence upsert serializes creates per tenant, so the count below is exact.
		number, err := s.bookingRepo.NextBookingNumber(ctx, q, actor.TenantID)
		if err != nil {
			return err
		}
		if err := s.planLimiter.CheckBookingLimit(ctx, q, actor.TenantID); err != nil {
			return err
		}
		b := &domain.Booking{
			TenantID:      actor.TenantID,
			BookingNumber: number,
			Status:        domain.BookingStatusPending,
			CreatedBy:     actor.UserID,
		}
		applyRequest(b, req, lines)

		if err := s.bookingRepo.Create(ctx, q, b); err != nil {
			return err
		}
		if movements, err = s.reserveItems(ctx, q, actor, b); err != nil {
			return err
		}
		if err := s.bookingRepo.CreateItems(ctx, q, b.ID, b.Items); err != nil {
			return err
		}

		event, err = s.notifier.OnTransition(ctx, q, actor, b, "", domain.BookingEventCreated,
			fmt.Sprintf("Booking #%d created with %d item(s)", b.BookingNumber, len(b.Items)),
			map[string]any{"days": days})
		booking = b
		return err
	})
	if err != nil {
		return nil, s.reject(method, err)
	}

	recordMovements(movements)
	metrics.BookingsCreated.Inc()
	s.notifier.Dispatch(ctx, event)

	logger.ExitMethod(method, "bookingID", booking.ID, "bookingNumber", booking.BookingNumber)
	return booking, nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, actor domain.Actor, bookingID int32, req BookingRequest) (*domain.Booking, error) {
	const method = "bookingService.UpdateBooking"
	logger.EnterMethod(method, "tenantID", actor.TenantID, "bookingID", bookingID)

	items, err := s.normalizeRequest(req)
	if err != nil {
		return nil, s.reject(method, err)
	}
	if err := s.checkCustomer(ctx, actor.TenantID, req.CustomerID); err != nil {
		return nil, s.reject(method, err)
	}

	window := domain.DateRange{Start: req.StartDate, End: req.EndDate}
	days, _ := utils.RentalDays(req.StartDate, req.EndDate)

	var (
		booking   *domain.Booking
		event     *domain.BookingEvent
		movements []*domain.StockMovement
	)
	err = s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		b, err := s.bookingRepo.LockByID(ctx, q, actor.TenantID, bookingID)
		if err != nil {
			return err
		}
		if !b.Status.IsActive() {
			return domain.NewBookingNotEditableError(b)
		}

		ids := append(b.EquipmentIDs(), inputEquipmentIDs(items)...)
		if _, err := s.lockEquipment(ctx, q, actor.TenantID, ids); err != nil {
			return err
		}
		released, err := s.releaseItems(ctx, q, actor, b, domain.ReleaseOutcomeRebooked, true)
		if err != nil {
			return err
		}
		// Re-read counters now that the old reservation is back in available.
		equipment, err := s.lockEquipment(ctx, q, actor.TenantID, ids)
		if err != nil {
			return err
		}
		lines, err := s.priceAndCheck(ctx, q, equipment, window, days, items, b.ID)
		if err != nil {
			return err
		}

		if err := s.bookingRepo.DeleteItems(ctx, q, b.ID); err != nil {
			return err
		}
		applyRequest(b, req, lines)
		if err := s.bookingRepo.Update(ctx, q, b); err != nil {
			return err
		}
		reserved, err := s.reserveItems(ctx, q, actor, b)
		if err != nil {
			return err
		}
		if err := s.bookingRepo.CreateItems(ctx, q, b.ID, b.Items); err != nil {
			return err
		}
		movements = append(released, reserved...)

		event, err = s.notifier.OnTransition(ctx, q, actor, b, b.Status, domain.BookingEventUpdated,
			fmt.Sprintf("Booking #%d updated", b.BookingNumber),
			map[string]any{"days": days})
		booking = b
		return err
	})
	if err != nil {
		return nil, s.reject(method, err)
	}

	recordMovements(movements)
	s.notifier.Dispatch(ctx, event)

	logger.ExitMethod(method, "bookingID", booking.ID)
	return booking, nil
}

func (s *bookingService) ChangeStatus(ctx context.Context, actor domain.Actor, bookingID int32, status domain.BookingStatus, note string) (*domain.Booking, error) {
	const method = "bookingService.ChangeStatus"
	logger.EnterMethod(method, "tenantID", actor.TenantID, "bookingID", bookingID, "status", status)

	if _, ok := domain.ParseBookingStatus(string(status)); !ok {
		return nil, s.reject(method, domain.NewValidationError("unknown booking status %q", status))
	}

	var (
		booking   *domain.Booking
		event     *domain.BookingEvent
		movements []*domain.StockMovement
		previous  domain.BookingStatus
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		b, err := s.bookingRepo.LockByID(ctx, q, actor.TenantID, bookingID)
		if err != nil {
			return err
		}
		previous = b.Status
		if !previous.CanTransitionTo(status) {
			return domain.NewInvalidTransitionError(previous, status)
		}

		if movements, err = s.applyTransition(ctx, q, actor, b, status); err != nil {
			return err
		}
		b.Status = status
		if err := s.bookingRepo.Update(ctx, q, b); err != nil {
			return err
		}

		description := fmt.Sprintf("Booking #%d changed from %s to %s", b.BookingNumber, previous, status)
		var meta map[string]any
		if note != "" {
			description += ": " + note
			meta = map[string]any{"note": note}
		}
		event, err = s.notifier.OnTransition(ctx, q, actor, b, previous, domain.BookingEventStatusChanged, description, meta)
		booking = b
		return err
	})
	if err != nil {
		return nil, s.reject(method, err)
	}

	recordMovements(movements)
	metrics.BookingTransitions.WithLabelValues(string(previous), string(status)).Inc()
	s.notifier.Dispatch(ctx, event)

	logger.ExitMethod(method, "bookingID", bookingID, "from", previous, "to", status)
	return booking, nil
}

// applyTransition performs the stock side effects of moving b to next.
// b.Status still holds the current status.
func (s *bookingService) applyTransition(ctx context.Context, q repository.DBTX, actor domain.Actor, b *domain.Booking, next domain.BookingStatus) ([]*domain.StockMovement, error) {
	switch {
	case next == domain.BookingStatusCompleted:
		if _, err := s.lockEquipment(ctx, q, actor.TenantID, b.EquipmentIDs()); err != nil {
			return nil, err
		}
		return s.releaseItems(ctx, q, actor, b, domain.ReleaseOutcomeCompleted, s.opts.ReleaseUnitsOnComplete)

	case next == domain.BookingStatusCancelled:
		if _, err := s.lockEquipment(ctx, q, actor.TenantID, b.EquipmentIDs()); err != nil {
			return nil, err
		}
		return s.releaseItems(ctx, q, actor, b, domain.ReleaseOutcomeCancelled, true)

	case next == domain.BookingStatusPending && b.Status == domain.BookingStatusCancelled:
		equipment, err := s.lockEquipment(ctx, q, actor.TenantID, b.EquipmentIDs())
		if err != nil {
			return nil, err
		}
		pending := make(map[int32]int32)
		for _, item := range b.Items {
			if _, err := s.availability.Evaluate(ctx, q, equipment[item.EquipmentID], b.Window(), item.Quantity, pending[item.EquipmentID], b.ID); err != nil {
				return nil, err
			}
			pending[item.EquipmentID] += item.Quantity
		}
		return s.reserveItems(ctx, q, actor, b)

	case next == domain.BookingStatusPending:
		// Reopened from CONFIRMED: the reservation is still held, only the window is re-checked.
		equipment, err := s.lockEquipment(ctx, q, actor.TenantID, b.EquipmentIDs())
		if err != nil {
			return nil, err
		}
		pending := make(map[int32]int32)
		for _, item := range b.Items {
			if _, err := s.availability.CheckWindow(ctx, q, equipment[item.EquipmentID], b.Window(), item.Quantity, pending[item.EquipmentID], b.ID); err != nil {
				return nil, err
			}
			pending[item.EquipmentID] += item.Quantity
		}
	}
	return nil, nil
}

func (s *bookingService) MarkAsLost(ctx context.Context, actor domain.Actor, bookingID int32, reason string) (*domain.Booking, error) {
	note := "marked as lost"
	if reason != "" {
		note += " (" + reason + ")"
	}
	return s.ChangeStatus(ctx, actor, bookingID, domain.BookingStatusCancelled, note)
}

// DeletePermanently removes the booking, its items and its stock movements.
// Stock still reserved by an active booking is released first; the activity
// log entry and outbox event outlive the booking.
func (s *bookingService) DeletePermanently(ctx context.Context, actor domain.Actor, bookingID int32) error {
	const method = "bookingService.DeletePermanently"
	logger.EnterMethod(method, "tenantID", actor.TenantID, "bookingID", bookingID)

	if !actor.HasRole(domain.RoleAdmin) {
		return s.reject(method, domain.NewForbiddenError("permanently delete bookings"))
	}

	var event *domain.BookingEvent
	err := s.tx.RunInTx(ctx, func(ctx context.Context, q repository.DBTX) error {
		b, err := s.bookingRepo.LockByID(ctx, q, actor.TenantID, bookingID)
		if err != nil {
			return err
		}

		var releasedQuantity int32
		if b.Status.IsActive() {
			if _, err := s.lockEquipment(ctx, q, actor.TenantID, b.EquipmentIDs()); err != nil {
				return err
			}
			if _, err := s.releaseItems(ctx, q, actor, b, domain.ReleaseOutcomeDeleted, true); err != nil {
				return err
			}
			for _, item := range b.Items {
				releasedQuantity += item.Quantity
			}
		}

		removed, err := s.movementRepo.DeleteByBooking(ctx, q, b.ID)
		if err != nil {
			return err
		}
		if err := s.bookingRepo.DeleteItems(ctx, q, b.ID); err != nil {
			return err
		}
		if err := s.bookingRepo.Delete(ctx, q, b.ID); err != nil {
			return err
		}

		event, err = s.notifier.OnTransition(ctx, q, actor, b, b.Status, domain.BookingEventDeleted,
			fmt.Sprintf("Booking #%d permanently deleted", b.BookingNumber),
			map[string]any{
				"released_quantity": releasedQuantity,
				"removed_movements": removed,
			})
		return err
	})
	if err != nil {
		return s.reject(method, err)
	}

	s.notifier.Dispatch(ctx, event)
	logger.ExitMethod(method, "bookingID", bookingID)
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor domain.Actor, bookingID int32) (*domain.Booking, error) {
	var booking *domain.Booking
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		var err error
		booking, err = s.bookingRepo.GetByID(ctx, q, actor.TenantID, bookingID)
		return err
	})
	return booking, err
}

func (s *bookingService) ListBookings(ctx context.Context, actor domain.Actor, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	logger.EnterMethod("bookingService.ListBookings", "tenantID", actor.TenantID, "statuses", filter.Statuses)

	filter.TenantID = actor.TenantID
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)
	for _, status := range filter.Statuses {
		if _, ok := domain.ParseBookingStatus(string(status)); !ok {
			return nil, 0, domain.NewValidationError("unknown booking status %q", status)
		}
	}

	var (
		bookings []domain.Booking
		count    int32
	)
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		var err error
		bookings, count, err = s.bookingRepo.List(ctx, q, filter)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("bookingService.ListBookings", err)
		return nil, 0, err
	}

	logger.ExitMethod("bookingService.ListBookings", "count", count)
	return bookings, count, nil
}

func (s *bookingService) ListBookingMovements(ctx context.Context, actor domain.Actor, bookingID int32) ([]domain.StockMovement, error) {
	var movements []domain.StockMovement
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		if _, err := s.bookingRepo.GetByID(ctx, q, actor.TenantID, bookingID); err != nil {
			return err
		}
		var err error
		movements, err = s.movementRepo.ListByBooking(ctx, q, actor.TenantID, bookingID)
		return err
	})
	return movements, err
}

// ListBookingActivity also works for permanently deleted bookings.
func (s *bookingService) ListBookingActivity(ctx context.Context, actor domain.Actor, bookingID int32) ([]domain.ActivityLog, error) {
	var entries []domain.ActivityLog
	err := s.tx.ReadOnly(ctx, func(ctx context.Context, q repository.DBTX) error {
		var err error
		entries, err = s.activityRepo.ListByEntity(ctx, q, actor.TenantID, domain.EntityTypeBooking, bookingID)
		return err
	})
	return entries, err
}

// normalizeRequest validates req without touching storage and returns its line items.
func (s *bookingService) normalizeRequest(req BookingRequest) ([]BookingItemInput, error) {
	if req.CustomerID <= 0 {
		return nil, domain.NewValidationError("customer id is required")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, domain.NewValidationError("start and end dates are required")
	}
	if _, err := utils.RentalDays(req.StartDate, req.EndDate); err != nil {
		return nil, domain.NewValidationError("%s", err.Error())
	}
	if err := validateClock(req.StartTime, "start time"); err != nil {
		return nil, err
	}
	if err := validateClock(req.EndTime, "end time"); err != nil {
		return nil, err
	}
	if req.TotalPrice != nil && req.TotalPrice.IsNegative() {
		return nil, domain.NewValidationError("total price cannot be negative")
	}

	items := req.Items
	if len(items) > 0 && (req.EquipmentID != 0 || req.Quantity != 0 || len(req.UnitIDs) > 0) {
		return nil, domain.NewValidationError("send either items or a single equipment id, not both")
	}
	if len(items) == 0 && req.EquipmentID != 0 {
		quantity := req.Quantity
		if quantity == 0 && len(req.UnitIDs) > 0 {
			quantity = int32(len(req.UnitIDs))
		}
		items = []BookingItemInput{{EquipmentID: req.EquipmentID, Quantity: quantity, UnitIDs: req.UnitIDs}}
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("at least one item is required")
	}
	if s.opts.MaxItemsPerBooking > 0 && len(items) > s.opts.MaxItemsPerBooking {
		return nil, domain.NewValidationError("a booking can have at most %d items", s.opts.MaxItemsPerBooking)
	}

	seenUnits := make(map[int32]bool)
	for i, item := range items {
		if item.EquipmentID <= 0 {
			return nil, domain.NewValidationError("item %d: equipment id is required", i+1)
		}
		if item.Quantity <= 0 {
			return nil, domain.NewValidationError("item %d: quantity must be positive, got %d", i+1, item.Quantity)
		}
		if len(item.UnitIDs) > 0 && int32(len(item.UnitIDs)) != item.Quantity {
			return nil, domain.NewValidationError("item %d: %d unit(s) selected for quantity %d", i+1, len(item.UnitIDs), item.Quantity)
		}
		for _, id := range item.UnitIDs {
			if seenUnits[id] {
				return nil, domain.NewValidationError("unit %d is selected more than once", id)
			}
			seenUnits[id] = true
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return nil, domain.NewValidationError("item %d: unit price cannot be negative", i+1)
		}
	}
	return items, nil
}

func validateClock(value *string, field string) error {
	if value == nil || *value == "" {
		return nil
	}
	if _, err := time.Parse("15:04", *value); err != nil {
		return domain.NewValidationError("invalid %s %q, expected HH:MM", field, *value)
	}
	return nil
}

func (s *bookingService) checkCustomer(ctx context.Context, tenantID, customerID int32) error {
	customer, err := s.customers.GetCustomer(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	if !customer.IsActive {
		return domain.NewCustomerInactiveError(customer.ID, customer.Name)
	}
	return nil
}

// lockEquipment locks every referenced equipment row in ascending id order so
// concurrent bookings over the same equipment cannot deadlock.
func (s *bookingService) lockEquipment(ctx context.Context, q repository.DBTX, tenantID int32, ids []int32) (map[int32]*domain.Equipment, error) {
	unique := make([]int32, 0, len(ids))
	seen := make(map[int32]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	locked := make(map[int32]*domain.Equipment, len(unique))
	for _, id := range unique {
		e, err := s.equipmentRepo.LockByID(ctx, q, tenantID, id)
		if err != nil {
			return nil, err
		}
		locked[id] = e
	}
	return locked, nil
}

// priceAndCheck checks availability and prices every item. Items naming the
// same equipment share its capacity.
func (s *bookingService) priceAndCheck(ctx context.Context, q repository.DBTX, equipment map[int32]*domain.Equipment, window domain.DateRange, days int32, items []BookingItemInput, excludeBookingID int32) ([]domain.BookingItem, error) {
	pending := make(map[int32]int32)
	lines := make([]domain.BookingItem, 0, len(items))

	for _, in := range items {
		e := equipment[in.EquipmentID]
		if len(in.UnitIDs) > 0 && e.TrackingMode != domain.TrackingModeSerialized {
			return nil, domain.NewValidationError("%q is tracked by quantity, units cannot be selected", e.Name)
		}
		if _, err := s.availability.Evaluate(ctx, q, e, window, in.Quantity, pending[e.ID], excludeBookingID); err != nil {
			return nil, err
		}
		quote, err := s.pricing.Quote(e, days, in.Quantity, in.UnitPrice)
		if err != nil {
			return nil, err
		}
		pending[e.ID] += in.Quantity

		lines = append(lines, domain.BookingItem{
			EquipmentID: e.ID,
			Quantity:    in.Quantity,
			UnitPrice:   quote.UnitPricePerDay,
			TotalPrice:  quote.TotalPrice,
			Notes:       in.Notes,
			UnitIDs:     in.UnitIDs,
		})
	}
	return lines, nil
}

func (s *bookingService) reserveItems(ctx context.Context, q repository.DBTX, actor domain.Actor, b *domain.Booking) ([]*domain.StockMovement, error) {
	bookingID := b.ID
	reason := fmt.Sprintf("Reserved for booking #%d", b.BookingNumber)

	movements := make([]*domain.StockMovement, 0, len(b.Items))
	for _, item := range b.Items {
		m, err := s.ledger.Reserve(ctx, q, actor, item.EquipmentID, item.Quantity, &bookingID, reason)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
		if len(item.UnitIDs) > 0 {
			if err := s.units.Assign(ctx, q, item.EquipmentID, item.UnitIDs); err != nil {
				return nil, err
			}
		}
	}
	return movements, nil
}

func (s *bookingService) releaseItems(ctx context.Context, q repository.DBTX, actor domain.Actor, b *domain.Booking, outcome domain.ReleaseOutcome, releaseUnits bool) ([]*domain.StockMovement, error) {
	bookingID := b.ID
	reason := releaseReason(b, outcome)

	movements := make([]*domain.StockMovement, 0, len(b.Items))
	for _, item := range b.Items {
		m, err := s.ledger.Release(ctx, q, actor, item.EquipmentID, item.Quantity, &bookingID, outcome, reason)
		if err != nil {
			return nil, err
		}
		movements = append(movements, m)
		if releaseUnits && len(item.UnitIDs) > 0 {
			if err := s.units.Release(ctx, q, item.EquipmentID, item.UnitIDs); err != nil {
				return nil, err
			}
		}
	}
	return movements, nil
}

func releaseReason(b *domain.Booking, outcome domain.ReleaseOutcome) string {
	switch outcome {
	case domain.ReleaseOutcomeCompleted:
		return fmt.Sprintf("Returned from booking #%d", b.BookingNumber)
	case domain.ReleaseOutcomeCancelled:
		return fmt.Sprintf("Released by cancelled booking #%d", b.BookingNumber)
	case domain.ReleaseOutcomeDeleted:
		return fmt.Sprintf("Released by deleted booking #%d", b.BookingNumber)
	default:
		return fmt.Sprintf("Released for edit of booking #%d", b.BookingNumber)
	}
}

func applyRequest(b *domain.Booking, req BookingRequest, lines []domain.BookingItem) {
	b.CustomerID = req.CustomerID
	b.SiteID = req.SiteID
	b.StartDate = req.StartDate
	b.EndDate = req.EndDate
	b.StartTime = req.StartTime
	b.EndTime = req.EndTime
	b.Notes = req.Notes
	b.Items = lines
	if req.TotalPrice != nil {
		b.TotalPrice = *req.TotalPrice
		b.PriceOverride = true
	} else {
		b.TotalPrice = b.ItemsTotal()
		b.PriceOverride = false
	}
}

func inputEquipmentIDs(items []BookingItemInput) []int32 {
	ids := make([]int32, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.EquipmentID)
	}
	return ids
}

func (s *bookingService) reject(method string, err error) error {
	logger.ExitMethodWithError(method, err)
	if kind := domain.KindOf(err); kind != "" {
		metrics.BookingRejections.WithLabelValues(string(kind)).Inc()
	}
	return err
}

func recordMovements(movements []*domain.StockMovement) {
	for _, m := range movements {
		if m != nil {
			metrics.StockMovements.WithLabelValues(string(m.Type)).Inc()
		}
	}
}
