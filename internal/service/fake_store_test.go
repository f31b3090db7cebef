package service_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/repository"
)

// fakeStore is an in-memory database. RunInTx holds a single lock for the
// whole unit of work and restores a snapshot when fn fails. Inside a
// read-write transaction it also tracks which equipment rows were taken
// with LockByID, the way SELECT ... FOR UPDATE would.
type fakeStore struct {
	mu sync.Mutex

	readOnly bool
	rowLocks map[int32]bool
	trace    []string

	nextID    int32
	equipment map[int32]*domain.Equipment
	units     map[int32]*domain.EquipmentUnit
	bookings  map[int32]*domain.Booking
	sequences map[int32]int32
	movements []domain.StockMovement
	activity  []domain.ActivityLog
	events    []domain.BookingEvent
	customers map[int32]*domain.Customer
	plans     map[int32]int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		equipment: make(map[int32]*domain.Equipment),
		units:     make(map[int32]*domain.EquipmentUnit),
		bookings:  make(map[int32]*domain.Booking),
		sequences: make(map[int32]int32),
		customers: make(map[int32]*domain.Customer),
		plans:     make(map[int32]int32),
	}
}

func (s *fakeStore) id() int32 {
	s.nextID++
	return s.nextID
}

type fakeSnapshot struct {
	nextID    int32
	equipment map[int32]*domain.Equipment
	units     map[int32]*domain.EquipmentUnit
	bookings  map[int32]*domain.Booking
	sequences map[int32]int32
	movements []domain.StockMovement
	activity  []domain.ActivityLog
	events    []domain.BookingEvent
}

func (s *fakeStore) snapshot() fakeSnapshot {
	snap := fakeSnapshot{
		nextID:    s.nextID,
		equipment: make(map[int32]*domain.Equipment, len(s.equipment)),
		units:     make(map[int32]*domain.EquipmentUnit, len(s.units)),
		bookings:  make(map[int32]*domain.Booking, len(s.bookings)),
		sequences: make(map[int32]int32, len(s.sequences)),
		movements: append([]domain.StockMovement(nil), s.movements...),
		activity:  append([]domain.ActivityLog(nil), s.activity...),
		events:    append([]domain.BookingEvent(nil), s.events...),
	}
	for k, v := range s.equipment {
		snap.equipment[k] = cloneEquipment(v)
	}
	for k, v := range s.units {
		u := *v
		snap.units[k] = &u
	}
	for k, v := range s.bookings {
		snap.bookings[k] = cloneBooking(v)
	}
	for k, v := range s.sequences {
		snap.sequences[k] = v
	}
	return snap
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.nextID = snap.nextID
	s.equipment = snap.equipment
	s.units = snap.units
	s.bookings = snap.bookings
	s.sequences = snap.sequences
	s.movements = snap.movements
	s.activity = snap.activity
	s.events = snap.events
}

func (s *fakeStore) RunInTx(ctx context.Context, fn func(ctx context.Context, q repository.DBTX) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(ctx, false, fn)
}

func (s *fakeStore) ReadOnly(ctx context.Context, fn func(ctx context.Context, q repository.DBTX) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(ctx, true, fn)
}

func (s *fakeStore) run(ctx context.Context, readOnly bool, fn func(ctx context.Context, q repository.DBTX) error) error {
	s.readOnly = readOnly
	s.rowLocks = make(map[int32]bool)
	defer func() {
		s.readOnly = false
		s.rowLocks = nil
	}()

	snap := s.snapshot()
	if err := fn(ctx, nil); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// requireRowLock fails writes and demand reads on equipment the current
// read-write transaction has not locked.
func (s *fakeStore) requireRowLock(op string, equipmentID int32) error {
	if s.readOnly || s.rowLocks[equipmentID] {
		return nil
	}
	return fmt.Errorf("%s on equipment %d without a row lock", op, equipmentID)
}

func (s *fakeStore) record(step string, equipmentID int32) {
	s.trace = append(s.trace, fmt.Sprintf("%s:%d", step, equipmentID))
}

// takeTrace returns the lock/demand/update steps seen since the last call.
func (s *fakeStore) takeTrace() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.trace
	s.trace = nil
	return out
}

func cloneEquipment(e *domain.Equipment) *domain.Equipment {
	c := *e
	c.RentalPeriods = append([]domain.RentalPeriod(nil), e.RentalPeriods...)
	return &c
}

func cloneBooking(b *domain.Booking) *domain.Booking {
	c := *b
	c.Items = make([]domain.BookingItem, len(b.Items))
	for i, item := range b.Items {
		item.UnitIDs = append([]int32(nil), item.UnitIDs...)
		c.Items[i] = item
	}
	return &c
}

func paginate[T any](items []T, page, pageSize int32) []T {
	start := int((page - 1) * pageSize)
	if start >= len(items) {
		return nil
	}
	end := start + int(pageSize)
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Test accessors, called outside transactions.

func (s *fakeStore) equipmentByID(id int32) domain.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *cloneEquipment(s.equipment[id])
}

func (s *fakeStore) unitStatus(id int32) domain.UnitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.units[id].Status
}

func (s *fakeStore) movementsFor(equipmentID int32) []domain.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StockMovement
	for _, m := range s.movements {
		if m.EquipmentID == equipmentID {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeStore) movementsForBooking(bookingID int32) []domain.StockMovement {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.StockMovement
	for _, m := range s.movements {
		if m.BookingID != nil && *m.BookingID == bookingID {
			out = append(out, m)
		}
	}
	return out
}

func (s *fakeStore) activityFor(entityType string, entityID int32) []domain.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ActivityLog
	for _, a := range s.activity {
		if a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out
}

func (s *fakeStore) outbox() []domain.BookingEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.BookingEvent(nil), s.events...)
}

func (s *fakeStore) bookingExists(id int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.bookings[id]
	return ok
}

// activeDemand sums active items of equipmentID overlapping window.
func (s *fakeStore) activeDemand(equipmentID int32, window domain.DateRange, excludeBookingID int32) int32 {
	var total int32
	for _, b := range s.bookings {
		if b.ID == excludeBookingID || !b.Status.IsActive() || !b.Window().Overlaps(window) {
			continue
		}
		for _, item := range b.Items {
			if item.EquipmentID == equipmentID {
				total += item.Quantity
			}
		}
	}
	return total
}

type fakeEquipmentRepo struct{ s *fakeStore }

func (r fakeEquipmentRepo) Create(ctx context.Context, q repository.DBTX, e *domain.Equipment) error {
	e.ID = r.s.id()
	e.CreatedOn = time.Now()
	e.UpdatedOn = e.CreatedOn
	r.s.equipment[e.ID] = cloneEquipment(e)
	return nil
}

func (r fakeEquipmentRepo) GetByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Equipment, error) {
	e, ok := r.s.equipment[id]
	if !ok || e.TenantID != tenantID || e.DeletedOn != nil {
		return nil, domain.NewEquipmentNotFoundError(id)
	}
	return cloneEquipment(e), nil
}

func (r fakeEquipmentRepo) LockByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Equipment, error) {
	e, err := r.GetByID(ctx, q, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r.s.rowLocks != nil {
		r.s.rowLocks[id] = true
	}
	r.s.record("lock", id)
	return e, nil
}

func (r fakeEquipmentRepo) UpdateCounters(ctx context.Context, q repository.DBTX, e *domain.Equipment) error {
	if err := r.s.requireRowLock("UpdateCounters", e.ID); err != nil {
		return err
	}
	r.s.record("update", e.ID)
	stored, ok := r.s.equipment[e.ID]
	if !ok {
		return domain.NewEquipmentNotFoundError(e.ID)
	}
	stored.TotalStock = e.TotalStock
	stored.AvailableStock = e.AvailableStock
	stored.ReservedStock = e.ReservedStock
	stored.MaintenanceStock = e.MaintenanceStock
	stored.DamagedStock = e.DamagedStock
	stored.UpdatedOn = time.Now()
	return nil
}

func (r fakeEquipmentRepo) UpdatePricing(ctx context.Context, q repository.DBTX, e *domain.Equipment) error {
	stored, ok := r.s.equipment[e.ID]
	if !ok {
		return domain.NewEquipmentNotFoundError(e.ID)
	}
	stored.Name = e.Name
	stored.PricePerDay = e.PricePerDay
	stored.RentalPeriods = append([]domain.RentalPeriod(nil), e.RentalPeriods...)
	return nil
}

func (r fakeEquipmentRepo) Delete(ctx context.Context, q repository.DBTX, tenantID, id int32) error {
	e, ok := r.s.equipment[id]
	if !ok || e.TenantID != tenantID {
		return domain.NewEquipmentNotFoundError(id)
	}
	now := time.Now()
	e.DeletedOn = &now
	return nil
}

func (r fakeEquipmentRepo) List(ctx context.Context, q repository.DBTX, tenantID int32, page, pageSize int32) ([]domain.Equipment, int32, error) {
	var all []domain.Equipment
	for _, e := range r.s.equipment {
		if e.TenantID == tenantID && e.DeletedOn == nil {
			all = append(all, *cloneEquipment(e))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r fakeEquipmentRepo) ListAll(ctx context.Context, q repository.DBTX) ([]domain.Equipment, error) {
	var all []domain.Equipment
	for _, e := range r.s.equipment {
		if e.DeletedOn == nil {
			all = append(all, *cloneEquipment(e))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (r fakeEquipmentRepo) CountActiveReferences(ctx context.Context, q repository.DBTX, equipmentID int32) (int32, error) {
	var count int32
	for _, b := range r.s.bookings {
		if !b.Status.IsActive() {
			continue
		}
		for _, item := range b.Items {
			if item.EquipmentID == equipmentID {
				count++
				break
			}
		}
	}
	return count, nil
}

type fakeUnitRepo struct{ s *fakeStore }

func (r fakeUnitRepo) Create(ctx context.Context, q repository.DBTX, u *domain.EquipmentUnit) error {
	u.ID = r.s.id()
	u.CreatedOn = time.Now()
	u.UpdatedOn = u.CreatedOn
	c := *u
	r.s.units[u.ID] = &c
	return nil
}

func (r fakeUnitRepo) LockByIDs(ctx context.Context, q repository.DBTX, equipmentID int32, ids []int32) ([]domain.EquipmentUnit, error) {
	var out []domain.EquipmentUnit
	for _, id := range ids {
		if u, ok := r.s.units[id]; ok && u.EquipmentID == equipmentID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeUnitRepo) ListByEquipment(ctx context.Context, q repository.DBTX, equipmentID int32) ([]domain.EquipmentUnit, error) {
	var out []domain.EquipmentUnit
	for _, u := range r.s.units {
		if u.EquipmentID == equipmentID {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeUnitRepo) UpdateStatus(ctx context.Context, q repository.DBTX, ids []int32, status domain.UnitStatus) error {
	for _, id := range ids {
		if u, ok := r.s.units[id]; ok {
			u.Status = status
		}
	}
	return nil
}

func (r fakeUnitRepo) IsOnActiveBooking(ctx context.Context, q repository.DBTX, unitID int32) (bool, error) {
	for _, b := range r.s.bookings {
		if !b.Status.IsActive() {
			continue
		}
		for _, id := range b.UnitIDs() {
			if id == unitID {
				return true, nil
			}
		}
	}
	return false, nil
}

type fakeBookingRepo struct{ s *fakeStore }

func (r fakeBookingRepo) NextBookingNumber(ctx context.Context, q repository.DBTX, tenantID int32) (int32, error) {
	r.s.sequences[tenantID]++
	return r.s.sequences[tenantID], nil
}

func (r fakeBookingRepo) Create(ctx context.Context, q repository.DBTX, b *domain.Booking) error {
	b.ID = r.s.id()
	b.CreatedOn = time.Now()
	b.UpdatedOn = b.CreatedOn
	c := cloneBooking(b)
	c.Items = nil
	r.s.bookings[b.ID] = c
	return nil
}

func (r fakeBookingRepo) CreateItems(ctx context.Context, q repository.DBTX, bookingID int32, items []domain.BookingItem) error {
	stored := r.s.bookings[bookingID]
	for i := range items {
		items[i].ID = r.s.id()
		items[i].BookingID = bookingID
		item := items[i]
		item.UnitIDs = append([]int32(nil), items[i].UnitIDs...)
		stored.Items = append(stored.Items, item)
	}
	return nil
}

func (r fakeBookingRepo) GetByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Booking, error) {
	b, ok := r.s.bookings[id]
	if !ok || b.TenantID != tenantID {
		return nil, domain.NewBookingNotFoundError(id)
	}
	return cloneBooking(b), nil
}

func (r fakeBookingRepo) LockByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Booking, error) {
	return r.GetByID(ctx, q, tenantID, id)
}

func (r fakeBookingRepo) Update(ctx context.Context, q repository.DBTX, b *domain.Booking) error {
	stored, ok := r.s.bookings[b.ID]
	if !ok {
		return domain.NewBookingNotFoundError(b.ID)
	}
	items := stored.Items
	c := cloneBooking(b)
	c.Items = items
	c.UpdatedOn = time.Now()
	r.s.bookings[b.ID] = c
	return nil
}

func (r fakeBookingRepo) DeleteItems(ctx context.Context, q repository.DBTX, bookingID int32) error {
	if b, ok := r.s.bookings[bookingID]; ok {
		b.Items = nil
	}
	return nil
}

func (r fakeBookingRepo) Delete(ctx context.Context, q repository.DBTX, bookingID int32) error {
	delete(r.s.bookings, bookingID)
	return nil
}

func (r fakeBookingRepo) List(ctx context.Context, q repository.DBTX, filter domain.BookingFilter) ([]domain.Booking, int32, error) {
	var all []domain.Booking
	for _, b := range r.s.bookings {
		if b.TenantID != filter.TenantID {
			continue
		}
		if filter.CustomerID != 0 && b.CustomerID != filter.CustomerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				if b.Status == st {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		all = append(all, *cloneBooking(b))
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].StartDate.Equal(all[j].StartDate) {
			return all[i].StartDate.After(all[j].StartDate)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, filter.Page, filter.PageSize), int32(len(all)), nil
}

func (r fakeBookingRepo) CountCreatedSince(ctx context.Context, q repository.DBTX, tenantID int32, since time.Time) (int32, error) {
	var count int32
	for _, b := range r.s.bookings {
		if b.TenantID == tenantID && !b.CreatedOn.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r fakeBookingRepo) SumActiveDemand(ctx context.Context, q repository.DBTX, equipmentID int32, window domain.DateRange, excludeBookingID int32) (int32, error) {
	if err := r.s.requireRowLock("SumActiveDemand", equipmentID); err != nil {
		return 0, err
	}
	r.s.record("demand", equipmentID)
	return r.s.activeDemand(equipmentID, window, excludeBookingID), nil
}

func (r fakeBookingRepo) SumActiveQuantities(ctx context.Context, q repository.DBTX) (map[int32]int32, error) {
	out := make(map[int32]int32)
	for _, b := range r.s.bookings {
		if !b.Status.IsActive() {
			continue
		}
		for _, item := range b.Items {
			out[item.EquipmentID] += item.Quantity
		}
	}
	return out, nil
}

type fakeMovementRepo struct{ s *fakeStore }

func (r fakeMovementRepo) Create(ctx context.Context, q repository.DBTX, m *domain.StockMovement) error {
	m.ID = r.s.id()
	m.CreatedOn = time.Now()
	c := *m
	if m.BookingID != nil {
		id := *m.BookingID
		c.BookingID = &id
	}
	r.s.movements = append(r.s.movements, c)
	return nil
}

func (r fakeMovementRepo) ListByEquipment(ctx context.Context, q repository.DBTX, tenantID, equipmentID int32, page, pageSize int32) ([]domain.StockMovement, int32, error) {
	var all []domain.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.TenantID == tenantID && m.EquipmentID == equipmentID {
			all = append(all, m)
		}
	}
	return paginate(all, page, pageSize), int32(len(all)), nil
}

func (r fakeMovementRepo) ListByBooking(ctx context.Context, q repository.DBTX, tenantID, bookingID int32) ([]domain.StockMovement, error) {
	var out []domain.StockMovement
	for _, m := range r.s.movements {
		if m.TenantID == tenantID && m.BookingID != nil && *m.BookingID == bookingID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r fakeMovementRepo) DeleteByBooking(ctx context.Context, q repository.DBTX, bookingID int32) (int64, error) {
	kept := r.s.movements[:0:0]
	var removed int64
	for _, m := range r.s.movements {
		if m.BookingID != nil && *m.BookingID == bookingID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.s.movements = kept
	return removed, nil
}

type fakeActivityRepo struct{ s *fakeStore }

func (r fakeActivityRepo) Create(ctx context.Context, q repository.DBTX, a *domain.ActivityLog) error {
	a.ID = r.s.id()
	a.CreatedOn = time.Now()
	r.s.activity = append(r.s.activity, *a)
	return nil
}

func (r fakeActivityRepo) ListByEntity(ctx context.Context, q repository.DBTX, tenantID int32, entityType string, entityID int32) ([]domain.ActivityLog, error) {
	var out []domain.ActivityLog
	for _, a := range r.s.activity {
		if a.TenantID == tenantID && a.EntityType == entityType && a.EntityID == entityID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeEventRepo struct{ s *fakeStore }

func (r fakeEventRepo) Create(ctx context.Context, q repository.DBTX, e *domain.BookingEvent) error {
	r.s.events = append(r.s.events, *e)
	return nil
}

func (r fakeEventRepo) ListUnpublished(ctx context.Context, q repository.DBTX, limit, maxAttempts int32) ([]domain.BookingEvent, error) {
	var out []domain.BookingEvent
	for _, e := range r.s.events {
		if e.PublishedOn == nil && e.Attempts < maxAttempts && int32(len(out)) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r fakeEventRepo) MarkPublished(ctx context.Context, q repository.DBTX, id string) error {
	for i := range r.s.events {
		if r.s.events[i].ID == id {
			now := time.Now()
			r.s.events[i].PublishedOn = &now
			r.s.events[i].Attempts++
		}
	}
	return nil
}

func (r fakeEventRepo) RecordAttempt(ctx context.Context, q repository.DBTX, id string) error {
	for i := range r.s.events {
		if r.s.events[i].ID == id {
			r.s.events[i].Attempts++
		}
	}
	return nil
}

type fakeCustomerRepo struct{ s *fakeStore }

func (r fakeCustomerRepo) GetByID(ctx context.Context, q repository.DBTX, tenantID, id int32) (*domain.Customer, error) {
	c, ok := r.s.customers[id]
	if !ok || c.TenantID != tenantID {
		return nil, domain.NewCustomerNotFoundError(id)
	}
	cc := *c
	return &cc, nil
}

type fakePlanRepo struct{ s *fakeStore }

func (r fakePlanRepo) GetMaxBookingsPerMonth(ctx context.Context, q repository.DBTX, tenantID int32) (int32, error) {
	return r.s.plans[tenantID], nil
}
