package service_test

import (
	"context"
	"testing"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"
	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tier(days int32, price string) domain.RentalPeriod {
	return domain.RentalPeriod{Days: days, Price: decimal.RequireFromString(price)}
}

func TestEquipmentService_CreateEquipment(t *testing.T) {
	ctx := context.Background()

	t.Run("Opening stock is recorded as a purchase", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		e := h.seedEquipment(t, "Excavator", 5)

		assert.Equal(t, tenantID, e.TenantID)
		stored := h.store.equipmentByID(e.ID)
		assert.Equal(t, int32(5), stored.TotalStock)
		assert.Equal(t, int32(5), stored.AvailableStock)
		requireBalanced(t, stored)

		movements := h.store.movementsFor(e.ID)
		require.Len(t, movements, 1)
		assert.Equal(t, domain.MovementTypePurchase, movements[0].Type)
		assert.Equal(t, int32(5), movements[0].Quantity)
		assert.Equal(t, int32(0), movements[0].PreviousStock)
		assert.Equal(t, int32(5), movements[0].NewStock)
		assert.Nil(t, movements[0].BookingID)

		activity := h.store.activityFor(domain.EntityTypeEquipment, e.ID)
		require.Len(t, activity, 1)
		assert.Equal(t, domain.ActivityActionCreate, activity[0].Action)
	})

	t.Run("Empty equipment has no movement", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		e := h.seedEquipment(t, "Spare", 0)
		assert.Empty(t, h.store.movementsFor(e.ID))
	})

	t.Run("Tiers are sorted and set the daily price", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		e := h.seedEquipment(t, "Crane", 1, tier(7, "600"), tier(1, "100"))

		stored := h.store.equipmentByID(e.ID)
		require.Len(t, stored.RentalPeriods, 2)
		assert.Equal(t, int32(1), stored.RentalPeriods[0].Days)
		assert.Equal(t, "85.71", stored.PricePerDay.StringFixed(2))
	})

	tests := []struct {
		name string
		e    domain.Equipment
	}{
		{"blank name", domain.Equipment{Name: "  ", TotalStock: 1}},
		{"negative stock", domain.Equipment{Name: "X", TotalStock: -1}},
		{"negative price", domain.Equipment{Name: "X", PricePerDay: decimal.NewFromInt(-1)}},
		{"unknown tracking", domain.Equipment{Name: "X", TrackingMode: "BULK"}},
		{"serialized with stock", domain.Equipment{Name: "X", TrackingMode: domain.TrackingModeSerialized, TotalStock: 3}},
		{"zero day tier", domain.Equipment{Name: "X", RentalPeriods: []domain.RentalPeriod{tier(0, "10")}}},
		{"duplicate tier", domain.Equipment{Name: "X", RentalPeriods: []domain.RentalPeriod{tier(2, "10"), tier(2, "12")}}},
	}
	for _, tt := range tests {
		t.Run("Rejects "+tt.name, func(t *testing.T) {
			h := newHarness(t, service.BookingOptions{})
			e := tt.e
			err := h.equipment.CreateEquipment(ctx, admin, &e)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		})
	}
}

func TestEquipmentService_AdjustStock(t *testing.T) {
	ctx := context.Background()

	t.Run("Cannot shrink below reserved stock", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{}).allowAll()
		z := h.seedEquipment(t, "Loader", 10)
		h.book(t, z.ID, 5, "2024-04-01", "2024-04-03")

		_, err := h.equipment.AdjustStock(ctx, admin, z.ID, 2, "")
		require.Error(t, err)
		assert.Equal(t, domain.KindStockUnderflow, domain.KindOf(err))
		assert.Contains(t, err.Error(), "minimum required is 5")

		stored := h.store.equipmentByID(z.ID)
		assert.Equal(t, int32(10), stored.TotalStock)
		assert.Equal(t, int32(5), stored.AvailableStock)
	})

	t.Run("Shrinking to the reserved stock is allowed", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{}).allowAll()
		z := h.seedEquipment(t, "Loader", 10)
		h.book(t, z.ID, 5, "2024-04-01", "2024-04-03")

		e, err := h.equipment.AdjustStock(ctx, admin, z.ID, 5, "")
		require.NoError(t, err)
		assert.Equal(t, int32(5), e.TotalStock)
		assert.Equal(t, int32(0), e.AvailableStock)
		assert.Equal(t, int32(5), e.ReservedStock)

		movements := h.store.movementsFor(z.ID)
		last := movements[len(movements)-1]
		assert.Equal(t, domain.MovementTypeAdjustment, last.Type)
		assert.Equal(t, int32(5), last.Quantity)
		assert.Equal(t, int32(10), last.PreviousStock)
		assert.Equal(t, int32(5), last.NewStock)
		assert.Equal(t, "Manual stock adjustment", last.Reason)
	})

	t.Run("Growing records a purchase", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		z := h.seedEquipment(t, "Loader", 2)

		e, err := h.equipment.AdjustStock(ctx, admin, z.ID, 6, "new delivery")
		require.NoError(t, err)
		assert.Equal(t, int32(6), e.AvailableStock)
		assert.Equal(t, []domain.MovementType{domain.MovementTypePurchase, domain.MovementTypePurchase},
			movementTypes(h.store.movementsFor(z.ID)))

		activity := h.store.activityFor(domain.EntityTypeEquipment, z.ID)
		assert.Equal(t, domain.ActivityActionStockAdjust, activity[len(activity)-1].Action)
	})

	t.Run("Unchanged total writes nothing", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		z := h.seedEquipment(t, "Loader", 2)

		_, err := h.equipment.AdjustStock(ctx, admin, z.ID, 2, "")
		require.NoError(t, err)
		assert.Len(t, h.store.movementsFor(z.ID), 1)
		assert.Len(t, h.store.activityFor(domain.EntityTypeEquipment, z.ID), 1)
	})

	t.Run("Negative total", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		z := h.seedEquipment(t, "Loader", 2)
		_, err := h.equipment.AdjustStock(ctx, admin, z.ID, -1, "")
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("Serialized stock follows units", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		e, _ := h.seedSerialized(t, "Breaker", 2)
		_, err := h.equipment.AdjustStock(ctx, admin, e.ID, 5, "")
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestEquipmentService_MoveCondition(t *testing.T) {
	ctx := context.Background()

	t.Run("Maintenance lowers capacity", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{}).allowAll()
		x := h.seedEquipment(t, "Pump", 4)

		e, err := h.equipment.MoveCondition(ctx, admin, x.ID, domain.StockBucketAvailable, domain.StockBucketMaintenance, 3, "seals")
		require.NoError(t, err)
		assert.Equal(t, int32(1), e.AvailableStock)
		assert.Equal(t, int32(3), e.MaintenanceStock)
		assert.Equal(t, int32(1), e.Capacity())
		requireBalanced(t, *e)

		_, err = h.bookings.CreateBooking(ctx, staff, singleItem(x.ID, 2, "2024-01-01", "2024-01-01"))
		assert.Equal(t, domain.KindInsufficientStock, domain.KindOf(err))

		_, err = h.equipment.MoveCondition(ctx, admin, x.ID, domain.StockBucketMaintenance, domain.StockBucketAvailable, 3, "")
		require.NoError(t, err)
		h.book(t, x.ID, 2, "2024-01-01", "2024-01-01")
	})

	t.Run("Cannot move more than the source holds", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		x := h.seedEquipment(t, "Pump", 2)
		_, err := h.equipment.MoveCondition(ctx, admin, x.ID, domain.StockBucketAvailable, domain.StockBucketDamaged, 3, "")
		assert.Equal(t, domain.KindInsufficientStock, domain.KindOf(err))
	})

	t.Run("Reserved stock is off limits", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		x := h.seedEquipment(t, "Pump", 2)
		_, err := h.equipment.MoveCondition(ctx, admin, x.ID, domain.StockBucketReserved, domain.StockBucketDamaged, 1, "")
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("Same bucket", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		x := h.seedEquipment(t, "Pump", 2)
		_, err := h.equipment.MoveCondition(ctx, admin, x.ID, domain.StockBucketDamaged, domain.StockBucketDamaged, 1, "")
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}

func TestEquipmentService_UpdatePricing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, service.BookingOptions{})
	x := h.seedEquipment(t, "Crane", 1)

	t.Run("Tiers replace the daily price", func(t *testing.T) {
		e, err := h.equipment.UpdatePricing(ctx, admin, x.ID, []domain.RentalPeriod{tier(30, "1500"), tier(1, "80")}, nil)
		require.NoError(t, err)
		assert.Equal(t, "50.00", e.PricePerDay.StringFixed(2))
		assert.Equal(t, int32(1), e.RentalPeriods[0].Days)
	})

	t.Run("Explicit price without tiers", func(t *testing.T) {
		price := decimal.RequireFromString("42.50")
		e, err := h.equipment.UpdatePricing(ctx, admin, x.ID, nil, &price)
		require.NoError(t, err)
		assert.Equal(t, "42.50", e.PricePerDay.StringFixed(2))
		assert.Equal(t, "42.50", h.store.equipmentByID(x.ID).PricePerDay.StringFixed(2))
	})

	t.Run("Invalid tiers", func(t *testing.T) {
		_, err := h.equipment.UpdatePricing(ctx, admin, x.ID, []domain.RentalPeriod{tier(-1, "10")}, nil)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("Explicit price together with tiers", func(t *testing.T) {
		price := decimal.RequireFromString("99")
		_, err := h.equipment.UpdatePricing(ctx, admin, x.ID, []domain.RentalPeriod{tier(1, "80")}, &price)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		assert.Contains(t, err.Error(), "derived from rental periods")

		stored := h.store.equipmentByID(x.ID)
		assert.Equal(t, "42.50", stored.PricePerDay.StringFixed(2))
		assert.Empty(t, stored.RentalPeriods)
	})

	t.Run("Unknown equipment", func(t *testing.T) {
		_, err := h.equipment.UpdatePricing(ctx, admin, 999, nil, nil)
		assert.Equal(t, domain.KindEquipmentNotFound, domain.KindOf(err))
	})
}

func TestEquipmentService_DeleteEquipment(t *testing.T) {
	ctx := context.Background()

	t.Run("In use by an active booking", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{}).allowAll()
		x := h.seedEquipment(t, "Roller", 3)
		b := h.book(t, x.ID, 1, "2024-01-01", "2024-01-02")

		err := h.equipment.DeleteEquipment(ctx, admin, x.ID)
		assert.Equal(t, domain.KindEquipmentInUse, domain.KindOf(err))

		_, err = h.bookings.ChangeStatus(ctx, staff, b.ID, domain.BookingStatusCompleted, "")
		require.NoError(t, err)
		require.NoError(t, h.equipment.DeleteEquipment(ctx, admin, x.ID))

		_, err = h.equipment.GetEquipment(ctx, staff, x.ID)
		assert.Equal(t, domain.KindEquipmentNotFound, domain.KindOf(err))
	})

	t.Run("Deleted equipment is not listed", func(t *testing.T) {
		h := newHarness(t, service.BookingOptions{})
		a := h.seedEquipment(t, "Auger", 1)
		h.seedEquipment(t, "Breaker", 1)
		require.NoError(t, h.equipment.DeleteEquipment(ctx, admin, a.ID))

		list, count, err := h.equipment.ListEquipment(ctx, staff, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int32(1), count)
		assert.Equal(t, "Breaker", list[0].Name)
	})
}

func TestEquipmentService_ListMovements(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, service.BookingOptions{}).allowAll()
	x := h.seedEquipment(t, "Roller", 3)
	h.book(t, x.ID, 1, "2024-01-01", "2024-01-02")

	movements, count, err := h.equipment.ListMovements(ctx, staff, x.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), count)
	require.Len(t, movements, 1)
	assert.Equal(t, domain.MovementTypeRentalOut, movements[0].Type)

	_, _, err = h.equipment.ListMovements(ctx, domain.Actor{TenantID: 2}, x.ID, 1, 10)
	assert.Equal(t, domain.KindEquipmentNotFound, domain.KindOf(err))
}

func TestPricingCalculator(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, service.BookingOptions{}).allowAll()
	y := h.seedEquipment(t, "Generator", 4, tier(1, "100"), tier(7, "600"))

	t.Run("Shorter tier applies below the next threshold", func(t *testing.T) {
		quote, err := h.pricing.Price(ctx, tenantID, y.ID, 3, 2)
		require.NoError(t, err)
		assert.Equal(t, "100.00", quote.UnitPricePerDay.StringFixed(2))
		assert.Equal(t, "600.00", quote.TotalPrice.StringFixed(2))
		assert.Equal(t, int32(1), quote.TierDays)
	})

	t.Run("Weekly tier", func(t *testing.T) {
		quote, err := h.pricing.Price(ctx, tenantID, y.ID, 7, 1)
		require.NoError(t, err)
		assert.Equal(t, "85.71", quote.UnitPricePerDay.StringFixed(2))
		assert.Equal(t, int32(7), quote.TierDays)
	})

	t.Run("Booking uses the same tier", func(t *testing.T) {
		b := h.book(t, y.ID, 2, "2024-01-01", "2024-01-03")
		assert.Equal(t, "600.00", b.TotalPrice.StringFixed(2))
		assert.Equal(t, "100.00", b.Items[0].UnitPrice.StringFixed(2))
	})

	t.Run("Single day booking is one day", func(t *testing.T) {
		b := h.book(t, y.ID, 1, "2024-02-01", "2024-02-01")
		assert.Equal(t, "100.00", b.TotalPrice.StringFixed(2))
	})

	t.Run("Invalid quantity", func(t *testing.T) {
		_, err := h.pricing.Price(ctx, tenantID, y.ID, 3, 0)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}
