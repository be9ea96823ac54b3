package schedule

import "github.com/mahyar-jbr/dog-wash-booking/internal/domain"

// Tubs lists the store's tubs in the order they are tried.
var Tubs = []int{1, 2}

// CleanupBuffer is the time, in minutes, a tub stays blocked after a wash.
const CleanupBuffer = 15

// TubAvailable reports whether tub is free over [start, end) on date.
// Bookings on other dates, on other tubs, or cancelled are ignored.
// A booking blocks its tub from its start until CleanupBuffer minutes
// after it ends. Bookings with an unparseable time are treated as blocking
// the whole day.
func TubAvailable(tub int, date string, start, end int, bookings []domain.Booking) bool {
	for i := range bookings {
		b := &bookings[i]
		if b.Date != date || !b.Status.HoldsTubs() || !b.UsesTub(tub) {
			continue
		}
		bookingStart, err := TimeToMinutes(b.Time)
		if err != nil {
			return false
		}
		cleanupEnd := bookingStart + b.Duration + CleanupBuffer
		if start < cleanupEnd && end > bookingStart {
			return false
		}
	}
	return true
}

// FreeTubs returns the tubs free over [start, end) on date, in Tubs order.
func FreeTubs(date string, start, end int, bookings []domain.Booking) []int {
	free := make([]int, 0, len(Tubs))
	for _, tub := range Tubs {
		if TubAvailable(tub, date, start, end, bookings) {
			free = append(free, tub)
		}
	}
	return free
}

// Conflicts reports whether b would share a tub window with any of others.
// others should not contain b itself.
func Conflicts(b *domain.Booking, others []domain.Booking) (bool, error) {
	if !b.Status.HoldsTubs() {
		return false, nil
	}
	start, err := TimeToMinutes(b.Time)
	if err != nil {
		return false, err
	}
	end := start + b.Duration
	for _, tub := range b.TubsUsed {
		if !TubAvailable(tub, b.Date, start, end, others) {
			return true, nil
		}
	}
	return false, nil
}
