package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementTypePurchase     MovementType = "PURCHASE"
	MovementTypeAdjustment   MovementType = "ADJUSTMENT"
	MovementTypeRentalOut    MovementType = "RENTAL_OUT"
	MovementTypeRentalReturn MovementType = "RENTAL_RETURN"
)

// ReleaseOutcome says why reserved stock goes back to available.
type ReleaseOutcome string

const (
	ReleaseOutcomeCompleted ReleaseOutcome = "COMPLETED"
	ReleaseOutcomeCancelled ReleaseOutcome = "CANCELLED"
	ReleaseOutcomeDeleted   ReleaseOutcome = "DELETED"
	ReleaseOutcomeRebooked  ReleaseOutcome = "REBOOKED"
)

// MovementType maps the outcome to the movement recorded for it.
func (o ReleaseOutcome) MovementType() MovementType {
	if o == ReleaseOutcomeCompleted {
		return MovementTypeRentalReturn
	}
	return MovementTypeAdjustment
}

// StockBucket names one of the counters that partition totalStock.
type StockBucket string

const (
	StockBucketAvailable   StockBucket = "AVAILABLE"
	StockBucketReserved    StockBucket = "RESERVED"
	StockBucketMaintenance StockBucket = "MAINTENANCE"
	StockBucketDamaged     StockBucket = "DAMAGED"
)

// StockMovement is an append-only audit row. Quantity is the magnitude of the change;
// PreviousStock and NewStock snapshot the counter the movement is about.
type StockMovement struct {
	ID            int32        `json:"id"`
	TenantID      int32        `json:"tenant_id"`
	EquipmentID   int32        `json:"equipment_id"`
	BookingID     *int32       `json:"booking_id,omitempty"`
	Type          MovementType `json:"type"`
	Quantity      int32        `json:"quantity"`
	PreviousStock int32        `json:"previous_stock"`
	NewStock      int32        `json:"new_stock"`
	Reason        string       `json:"reason"`
	ActorID       int32        `json:"actor_id"`
	CreatedOn     time.Time    `json:"created_on"`
}

const RoleAdmin = "admin"

// Actor identifies who performs a mutation and in which tenant.
type Actor struct {
	TenantID int32
	UserID   int32
	Roles    []string
}

func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type PriceQuote struct {
	EquipmentID     int32           `json:"equipment_id"`
	Days            int32           `json:"days"`
	Quantity        int32           `json:"quantity"`
	UnitPricePerDay decimal.Decimal `json:"unit_price_per_day"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	TierDays        int32           `json:"tier_days,omitempty"`
	Overridden      bool            `json:"overridden"`
}

type AvailabilityResult struct {
	EquipmentID    int32     `json:"equipment_id"`
	Available      bool      `json:"available"`
	Requested      int32     `json:"requested"`
	Capacity       int32     `json:"capacity"`
	Demand         int32     `json:"demand"`
	AvailableStock int32     `json:"available_stock"`
	Reason         ErrorKind `json:"reason,omitempty"`
	Message        string    `json:"message,omitempty"`
}
