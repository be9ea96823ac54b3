package schedule

import "github.com/mahyar-jbr/dog-wash-booking/internal/domain"

// AssignTubs picks the tubs a new booking takes in slot. Plans that need
// one tub get the first free one; simultaneous washes take both.
func AssignTubs(plan domain.WashPlan, slot domain.Slot) []int {
	if plan.TubsNeeded() >= len(Tubs) {
		return append([]int(nil), Tubs...)
	}
	if len(slot.AvailableTubNumbers) == 0 {
		return nil
	}
	return []int{slot.AvailableTubNumbers[0]}
}
