package domain

import "time"

type ActivityAction string

const (
	ActivityActionCreate       ActivityAction = "CREATE"
	ActivityActionUpdate       ActivityAction = "UPDATE"
	ActivityActionStatusChange ActivityAction = "STATUS_CHANGE"
	ActivityActionDelete       ActivityAction = "DELETE"
	ActivityActionStockAdjust  ActivityAction = "STOCK_ADJUST"
	ActivityActionUnitStatus   ActivityAction = "UNIT_STATUS"
)

const (
	EntityTypeBooking   = "BOOKING"
	EntityTypeEquipment = "EQUIPMENT"
	EntityTypeUnit      = "EQUIPMENT_UNIT"
)

// ActivityLog is the audit trail entry written with every mutation.
type ActivityLog struct {
	ID          int32          `json:"id"`
	TenantID    int32          `json:"tenant_id"`
	ActorID     int32          `json:"actor_id"`
	EntityType  string         `json:"entity_type"`
	EntityID    int32          `json:"entity_id"`
	Action      ActivityAction `json:"action"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedOn   time.Time      `json:"created_on"`
}
