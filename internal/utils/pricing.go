package utils

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ODuo-Tech-Team/ODuo-Loc-V1-sub001/internal/domain"

	"github.com/shopspring/decimal"
)

// DateLayout is the yyyy-mm-dd format used for booking dates on the wire.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// ParseDate converts a yyyy-mm-dd formatted string into a UTC midnight time.
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(dateStr), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}
	return t, nil
}

// RentalDays counts rental days with both ends included: ceil((end - start) / 1 day) + 1.
// A booking that starts and ends on the same day is one day long.
// The difference is taken on Unix seconds so that windows longer than a
// time.Duration can hold are still counted exactly.
func RentalDays(start, end time.Time) (int32, error) {
	secs := end.Unix() - start.Unix()
	nanos := end.Nanosecond() - start.Nanosecond()
	if nanos < 0 {
		secs--
		nanos += int(time.Second)
	}
	if secs < 0 {
		return 0, fmt.Errorf("end date must be >= start date")
	}

	days := secs / secondsPerDay
	if secs%secondsPerDay != 0 || nanos > 0 {
		days++
	}
	if days >= math.MaxInt32 {
		return 0, fmt.Errorf("rental window of %d days is too long", days)
	}
	return int32(days) + 1, nil
}

// SelectRentalPeriod picks the tier with the largest Days not above the requested days.
// When every tier is longer than the request, the shortest tier is returned with matched=false.
// periods must be sorted ascending by Days.
func SelectRentalPeriod(periods []domain.RentalPeriod, days int32) (period domain.RentalPeriod, matched bool) {
	if len(periods) == 0 {
		return domain.RentalPeriod{}, false
	}

	for i := len(periods) - 1; i >= 0; i-- {
		if periods[i].Days <= days {
			return periods[i], true
		}
	}
	return periods[0], false
}

// CalculateRentalPrice resolves the per-day unit price and the line total for renting
// quantity units of e for days days. A non-nil override replaces tier lookup.
// The unit price is rounded to cents before multiplying so that
// total == unit * quantity * days holds for the stored values.
func CalculateRentalPrice(e *domain.Equipment, days, quantity int32, override *decimal.Decimal) (domain.PriceQuote, error) {
	if days <= 0 {
		return domain.PriceQuote{}, fmt.Errorf("days must be positive")
	}
	if quantity <= 0 {
		return domain.PriceQuote{}, fmt.Errorf("quantity must be positive")
	}

	quote := domain.PriceQuote{
		EquipmentID: e.ID,
		Days:        days,
		Quantity:    quantity,
	}

	switch {
	case override != nil:
		if override.IsNegative() {
			return domain.PriceQuote{}, fmt.Errorf("unit price cannot be negative")
		}
		quote.UnitPricePerDay = override.Round(2)
		quote.Overridden = true
	case len(e.RentalPeriods) > 0:
		period, _ := SelectRentalPeriod(e.RentalPeriods, days)
		quote.UnitPricePerDay = period.DailyRate().Round(2)
		quote.TierDays = period.Days
	default:
		quote.UnitPricePerDay = e.PricePerDay.Round(2)
	}

	quote.TotalPrice = quote.UnitPricePerDay.
		Mul(decimal.NewFromInt32(quantity)).
		Mul(decimal.NewFromInt32(days))
	return quote, nil
}
