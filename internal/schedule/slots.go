package schedule

import (
	"fmt"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
)

// SlotInterval is the spacing, in minutes, of candidate start times.
const SlotInterval = 30

// Generate lists the bookable start times on date for plan, in ascending
// order. A start is bookable when the wash ends by the cutoff and enough
// tubs are free for the whole wash. Only the final slot has IsLastSlot set.
func Generate(date string, plan domain.WashPlan, bookings []domain.Booking) ([]domain.Slot, error) {
	hours, err := HoursFor(date)
	if err != nil {
		return nil, err
	}
	return generate(date, hours, plan, bookings), nil
}

func generate(date string, hours domain.StoreHours, plan domain.WashPlan, bookings []domain.Booking) []domain.Slot {
	total := plan.TotalDuration()
	need := plan.TubsNeeded()

	slots := make([]domain.Slot, 0)
	for start := hours.Open; start < hours.Cutoff; start += SlotInterval {
		end := start + total
		if end > hours.Cutoff {
			continue
		}
		free := FreeTubs(date, start, end, bookings)
		if len(free) < need {
			continue
		}
		slots = append(slots, domain.Slot{
			Time:                mustTime(start),
			EndTime:             mustTime(end),
			TotalDuration:       total,
			AvailableTubs:       len(free),
			AvailableTubNumbers: free,
		})
	}
	if n := len(slots); n > 0 {
		slots[n-1].IsLastSlot = true
	}
	return slots
}

// SlotAt returns the slot starting at startTime on date. It fails with a
// validation error when startTime is not a candidate start for that day,
// ErrNoSlotsAvailable when nothing on the day fits the plan, and
// ErrConflict when the day has room but not at startTime.
func SlotAt(date string, plan domain.WashPlan, startTime string, bookings []domain.Booking) (domain.Slot, error) {
	hours, err := HoursFor(date)
	if err != nil {
		return domain.Slot{}, err
	}
	start, err := TimeToMinutes(startTime)
	if err != nil {
		return domain.Slot{}, err
	}
	if start < hours.Open || start >= hours.Cutoff || (start-hours.Open)%SlotInterval != 0 {
		return domain.Slot{}, domain.NewValidationError("time",
			fmt.Sprintf("must be on the half hour between %s and %s", hours.OpenTime, hours.CutoffTime))
	}
	if start+plan.TotalDuration() > hours.Cutoff {
		return domain.Slot{}, domain.NewValidationError("time",
			fmt.Sprintf("wash would run past the %s cutoff", hours.CutoffTime))
	}

	slots := generate(date, hours, plan, bookings)
	if len(slots) == 0 {
		return domain.Slot{}, domain.ErrNoSlotsAvailable
	}
	want := mustTime(start)
	for _, s := range slots {
		if s.Time == want {
			return s, nil
		}
	}
	return domain.Slot{}, domain.ErrConflict
}
