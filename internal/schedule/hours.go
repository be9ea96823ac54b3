package schedule

import (
	"time"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
)

// CutoffLead is how long before closing the last wash must be finished.
const CutoffLead = 60

type dayHours struct {
	open, close int
}

var (
	sundayHours   = dayHours{open: 10 * 60, close: 19 * 60}
	saturdayHours = dayHours{open: 9 * 60, close: 19 * 60}
	weekdayHours  = dayHours{open: 9 * 60, close: 21 * 60}
)

// HoursFor returns the store hours for a "YYYY-MM-DD" date.
func HoursFor(date string) (domain.StoreHours, error) {
	d, err := ParseDate(date)
	if err != nil {
		return domain.StoreHours{}, err
	}
	return HoursForWeekday(d.Weekday()), nil
}

// HoursForWeekday returns the opening, closing and cutoff minutes for wd.
func HoursForWeekday(wd time.Weekday) domain.StoreHours {
	h := weekdayHours
	switch wd {
	case time.Sunday:
		h = sundayHours
	case time.Saturday:
		h = saturdayHours
	}
	cutoff := h.close - CutoffLead
	return domain.StoreHours{
		Open:       h.open,
		Close:      h.close,
		Cutoff:     cutoff,
		OpenTime:   mustTime(h.open),
		CloseTime:  mustTime(h.close),
		CutoffTime: mustTime(cutoff),
	}
}
