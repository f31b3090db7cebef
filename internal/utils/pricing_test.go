package utils

import (
	"testing"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseDate(t *testing.T) {
	t.Run("Valid date", func(t *testing.T) {
		d, err := ParseDate("2024-01-15")
		assert.NoError(t, err)
		assert.Equal(t, 2024, d.Year())
		assert.Equal(t, time.January, d.Month())
		assert.Equal(t, 15, d.Day())
		assert.Equal(t, time.UTC, d.Location())
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date format")
	})

	t.Run("Invalid day", func(t *testing.T) {
		_, err := ParseDate("2024-02-30")
		assert.Error(t, err)
	})
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int32
	}{
		{"same day", date("2024-01-01"), date("2024-01-01"), 1},
		{"two days", date("2024-01-01"), date("2024-01-02"), 2},
		{"five days", date("2024-01-01"), date("2024-01-05"), 5},
		{"across month end", date("2024-01-30"), date("2024-02-02"), 4},
		{"leap day", date("2024-02-28"), date("2024-03-01"), 3},
		{"partial day rounds up", date("2024-01-01"), date("2024-01-02").Add(3 * time.Hour), 3},
		{"partial second rounds up", date("2024-01-01"), date("2024-01-01").Add(time.Nanosecond), 2},
		{"longer than a time.Duration", date("2024-01-01"), date("2400-01-01"), 137332},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := RentalDays(tt.start, tt.end)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, days)
		})
	}

	t.Run("End before start", func(t *testing.T) {
		_, err := RentalDays(date("2024-01-05"), date("2024-01-01"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "end date must be >= start date")
	})

	t.Run("End before start by less than a second", func(t *testing.T) {
		start := date("2024-01-05").Add(500 * time.Millisecond)
		_, err := RentalDays(start, date("2024-01-05"))
		assert.Error(t, err)
	})

	t.Run("Window too long to count", func(t *testing.T) {
		end := time.Date(9999999, 1, 1, 0, 0, 0, 0, time.UTC)
		_, err := RentalDays(date("2024-01-01"), end)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "too long")
	})
}

func tiers() []domain.RentalPeriod {
	return []domain.RentalPeriod{
		{Days: 1, Price: decimal.NewFromInt(100)},
		{Days: 7, Price: decimal.NewFromInt(600)},
		{Days: 30, Price: decimal.NewFromInt(2100)},
	}
}

func TestSelectRentalPeriod(t *testing.T) {
	t.Run("Largest tier not above days", func(t *testing.T) {
		p, matched := SelectRentalPeriod(tiers(), 10)
		assert.True(t, matched)
		assert.Equal(t, int32(7), p.Days)
	})

	t.Run("Exact tier", func(t *testing.T) {
		p, matched := SelectRentalPeriod(tiers(), 30)
		assert.True(t, matched)
		assert.Equal(t, int32(30), p.Days)
	})

	t.Run("Shorter than every tier falls back to smallest", func(t *testing.T) {
		periods := []domain.RentalPeriod{
			{Days: 3, Price: decimal.NewFromInt(240)},
			{Days: 7, Price: decimal.NewFromInt(490)},
		}
		p, matched := SelectRentalPeriod(periods, 2)
		assert.False(t, matched)
		assert.Equal(t, int32(3), p.Days)
	})

	t.Run("No tiers", func(t *testing.T) {
		_, matched := SelectRentalPeriod(nil, 2)
		assert.False(t, matched)
	})
}

func TestCalculateRentalPrice(t *testing.T) {
	equipment := &domain.Equipment{ID: 9, Name: "Scaffold", RentalPeriods: tiers()}

	t.Run("Short rental uses one-day tier", func(t *testing.T) {
		quote, err := CalculateRentalPrice(equipment, 3, 2, nil)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(quote.UnitPricePerDay))
		assert.True(t, decimal.NewFromInt(600).Equal(quote.TotalPrice))
		assert.Equal(t, int32(1), quote.TierDays)
	})

	t.Run("Weekly tier prorates to daily rate", func(t *testing.T) {
		quote, err := CalculateRentalPrice(equipment, 8, 1, nil)
		require.NoError(t, err)
		// 600 / 7 = 85.714... rounded to 85.71
		assert.Equal(t, "85.71", quote.UnitPricePerDay.StringFixed(2))
		assert.Equal(t, "685.68", quote.TotalPrice.StringFixed(2))
		assert.Equal(t, int32(7), quote.TierDays)
	})

	t.Run("Smallest tier prorated when request is shorter", func(t *testing.T) {
		e := &domain.Equipment{RentalPeriods: []domain.RentalPeriod{{Days: 3, Price: decimal.NewFromInt(240)}}}
		quote, err := CalculateRentalPrice(e, 1, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, "80.00", quote.UnitPricePerDay.StringFixed(2))
		assert.Equal(t, "80.00", quote.TotalPrice.StringFixed(2))
	})

	t.Run("Override skips tiers", func(t *testing.T) {
		override := decimal.RequireFromString("42.50")
		quote, err := CalculateRentalPrice(equipment, 4, 3, &override)
		require.NoError(t, err)
		assert.True(t, quote.Overridden)
		assert.Equal(t, "42.50", quote.UnitPricePerDay.StringFixed(2))
		assert.Equal(t, "510.00", quote.TotalPrice.StringFixed(2))
	})

	t.Run("No tiers uses price per day", func(t *testing.T) {
		e := &domain.Equipment{PricePerDay: decimal.RequireFromString("15.00")}
		quote, err := CalculateRentalPrice(e, 2, 2, nil)
		require.NoError(t, err)
		assert.Equal(t, "60.00", quote.TotalPrice.StringFixed(2))
	})

	t.Run("Total equals unit times quantity times days", func(t *testing.T) {
		for days := int32(1); days <= 40; days++ {
			quote, err := CalculateRentalPrice(equipment, days, 3, nil)
			require.NoError(t, err)
			expected := quote.UnitPricePerDay.Mul(decimal.NewFromInt32(3 * days))
			assert.True(t, expected.Equal(quote.TotalPrice), "days=%d", days)
		}
	})

	t.Run("Rejects non-positive quantity", func(t *testing.T) {
		_, err := CalculateRentalPrice(equipment, 1, 0, nil)
		assert.Error(t, err)
	})

	t.Run("Rejects negative override", func(t *testing.T) {
		override := decimal.NewFromInt(-1)
		_, err := CalculateRentalPrice(equipment, 1, 1, &override)
		assert.Error(t, err)
	})
}
