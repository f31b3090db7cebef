package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type TrackingMode string

const (
	TrackingModeQuantity   TrackingMode = "QUANTITY"
	TrackingModeSerialized TrackingMode = "SERIALIZED"
)

// RentalPeriod is a pricing tier: Price is the total charged for renting Days days.
type RentalPeriod struct {
	Days  int32           `json:"days"`
	Price decimal.Decimal `json:"price"`
}

// DailyRate returns the per-day rate implied by the tier.
func (p RentalPeriod) DailyRate() decimal.Decimal {
	if p.Days <= 0 {
		return p.Price
	}
	return p.Price.Div(decimal.NewFromInt32(p.Days))
}

type Equipment struct {
	ID               int32           `json:"id"`
	TenantID         int32           `json:"tenant_id"`
	Name             string          `json:"name"`
	TrackingMode     TrackingMode    `json:"tracking_mode"`
	TotalStock       int32           `json:"total_stock"`
	AvailableStock   int32           `json:"available_stock"`
	ReservedStock    int32           `json:"reserved_stock"`
	MaintenanceStock int32           `json:"maintenance_stock"`
	DamagedStock     int32           `json:"damaged_stock"`
	PricePerDay      decimal.Decimal `json:"price_per_day"`
	RentalPeriods    []RentalPeriod  `json:"rental_periods"`
	CreatedOn        time.Time       `json:"created_on"`
	UpdatedOn        time.Time       `json:"updated_on"`
	DeletedOn        *time.Time      `json:"deleted_on,omitempty"`
}

// Capacity is the physical ceiling usable by bookings in any window.
func (e *Equipment) Capacity() int32 {
	return e.TotalStock - e.MaintenanceStock - e.DamagedStock
}

// Committed is the stock that cannot be removed by shrinking the total.
func (e *Equipment) Committed() int32 {
	return e.ReservedStock + e.MaintenanceStock + e.DamagedStock
}

// CountersBalanced reports whether the four buckets add up to the total and none is negative.
func (e *Equipment) CountersBalanced() bool {
	if e.AvailableStock < 0 || e.ReservedStock < 0 || e.MaintenanceStock < 0 || e.DamagedStock < 0 {
		return false
	}
	return e.AvailableStock+e.ReservedStock+e.MaintenanceStock+e.DamagedStock == e.TotalStock
}

// SortRentalPeriods orders tiers ascending by days.
func (e *Equipment) SortRentalPeriods() {
	sort.SliceStable(e.RentalPeriods, func(i, j int) bool {
		return e.RentalPeriods[i].Days < e.RentalPeriods[j].Days
	})
}

// DerivePricePerDay sets PricePerDay to the cheapest daily rate among the tiers.
// Equipment without tiers keeps whatever PricePerDay it already has.
func (e *Equipment) DerivePricePerDay() {
	if len(e.RentalPeriods) == 0 {
		return
	}
	cheapest := e.RentalPeriods[0].DailyRate()
	for _, p := range e.RentalPeriods[1:] {
		if rate := p.DailyRate(); rate.LessThan(cheapest) {
			cheapest = rate
		}
	}
	e.PricePerDay = cheapest.Round(2)
}

type UnitStatus string

const (
	UnitStatusAvailable   UnitStatus = "AVAILABLE"
	UnitStatusRented      UnitStatus = "RENTED"
	UnitStatusMaintenance UnitStatus = "MAINTENANCE"
	UnitStatusDamaged     UnitStatus = "DAMAGED"
)

var unitTransitions = map[UnitStatus][]UnitStatus{
	UnitStatusAvailable:   {UnitStatusRented, UnitStatusMaintenance, UnitStatusDamaged},
	UnitStatusRented:      {UnitStatusAvailable, UnitStatusMaintenance, UnitStatusDamaged},
	UnitStatusMaintenance: {UnitStatusAvailable, UnitStatusDamaged},
	UnitStatusDamaged:     {UnitStatusAvailable, UnitStatusMaintenance},
}

// CanTransitionTo reports whether a unit may move from s to next.
func (s UnitStatus) CanTransitionTo(next UnitStatus) bool {
	for _, allowed := range unitTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Bucket maps a unit status to the equipment counter it is accounted in.
// RENTED units that are not on an active booking sit in the available bucket.
func (s UnitStatus) Bucket() StockBucket {
	switch s {
	case UnitStatusMaintenance:
		return StockBucketMaintenance
	case UnitStatusDamaged:
		return StockBucketDamaged
	default:
		return StockBucketAvailable
	}
}

func (s UnitStatus) Valid() bool {
	_, ok := unitTransitions[s]
	return ok
}

type EquipmentUnit struct {
	ID           int32      `json:"id"`
	EquipmentID  int32      `json:"equipment_id"`
	SerialNumber string     `json:"serial_number"`
	InternalCode string     `json:"internal_code"`
	Status       UnitStatus `json:"status"`
	CreatedOn    time.Time  `json:"created_on"`
	UpdatedOn    time.Time  `json:"updated_on"`
}

// Label is the identifier shown to users in messages.
func (u *EquipmentUnit) Label() string {
	if u.InternalCode != "" {
		return u.InternalCode
	}
	return u.SerialNumber
}
