package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCancelled BookingStatus = "cancelled"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingConfirmed, BookingPending, BookingCancelled:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// HoldsTubs reports whether a booking in this status occupies its tubs.
func (s BookingStatus) HoldsTubs() bool {
	return s != BookingCancelled
}

// ReplicationStatus tracks the best-effort copy of a booking on the remote backend.
type ReplicationStatus string

const (
	ReplicationSynced  ReplicationStatus = "synced"
	ReplicationPending ReplicationStatus = "pending"
	ReplicationSyncing ReplicationStatus = "syncing"
	ReplicationFailed  ReplicationStatus = "failed"
	ReplicationSkipped ReplicationStatus = "skipped"
)

type Booking struct {
	ID              string `json:"id"`
	CustomerName    string `json:"customer_name"`
	CustomerContact string `json:"customer_contact"`

	Date string `json:"date"`
	Time string `json:"time"`

	Duration1     int           `json:"duration1"`
	Duration2     *int          `json:"duration2"`
	Duration      int           `json:"duration"`
	NumberOfDogs  int           `json:"number_of_dogs"`
	WashingMethod WashingMethod `json:"washing_method,omitempty"`
	TubsUsed      []int         `json:"tubs_used"`

	Status            BookingStatus     `json:"status"`
	ReplicationStatus ReplicationStatus `json:"replication_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBookingID returns a 12 character uppercase alphanumeric id.
func NewBookingID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:12])
}

// Plan rebuilds the wash plan from the stored duration fields.
func (b *Booking) Plan() (WashPlan, error) {
	return NewWashPlan(b.NumberOfDogs, b.WashingMethod, b.Duration1, b.Duration2)
}

// ApplyPlan copies the plan's dog count, method and durations onto the record.
func (b *Booking) ApplyPlan(p WashPlan) {
	b.NumberOfDogs = p.Dogs()
	b.WashingMethod = p.Method()
	b.Duration1, b.Duration2 = p.Durations()
	b.Duration = p.TotalDuration()
}

// UsesTub reports whether tub is among the booking's assigned tubs.
func (b *Booking) UsesTub(tub int) bool {
	for _, t := range b.TubsUsed {
		if t == tub {
			return true
		}
	}
	return false
}

// BookingDraft is the customer-submitted booking request.
type BookingDraft struct {
	CustomerName    string        `json:"customer_name" validate:"required,max=120"`
	CustomerContact string        `json:"customer_contact" validate:"required,contact"`
	Date            string        `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string        `json:"time" validate:"required"`
	NumberOfDogs    int           `json:"number_of_dogs" validate:"required,oneof=1 2"`
	WashingMethod   WashingMethod `json:"washing_method,omitempty" validate:"omitempty,oneof=simultaneous sequential"`
	Duration1       int           `json:"duration1" validate:"required,oneof=30 60 90"`
	Duration2       *int          `json:"duration2,omitempty" validate:"omitempty,oneof=30 60 90"`
}

// BookingPatch carries the admin-editable fields; nil means unchanged.
type BookingPatch struct {
	CustomerName    *string        `json:"customer_name,omitempty" validate:"omitempty,min=1,max=120"`
	CustomerContact *string        `json:"customer_contact,omitempty" validate:"omitempty,contact"`
	Date            *string        `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Time            *string        `json:"time,omitempty"`
	Duration        *int           `json:"duration,omitempty" validate:"omitempty,min=1,max=600"`
	Status          *BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=confirmed pending cancelled"`
}

// TouchesSchedule reports whether the patch can move the booking's tub window.
func (p BookingPatch) TouchesSchedule() bool {
	return p.Date != nil || p.Time != nil || p.Duration != nil || p.Status != nil
}

// Changes lists the json names of the fields the patch sets.
func (p BookingPatch) Changes() []string {
	var out []string
	if p.CustomerName != nil {
		out = append(out, "customer_name")
	}
	if p.CustomerContact != nil {
		out = append(out, "customer_contact")
	}
	if p.Date != nil {
		out = append(out, "date")
	}
	if p.Time != nil {
		out = append(out, "time")
	}
	if p.Duration != nil {
		out = append(out, "duration")
	}
	if p.Status != nil {
		out = append(out, "status")
	}
	return out
}

type BookingFilter struct {
	Date   string
	Status *BookingStatus
	Limit  int
	Offset int
}

// Slot is one bookable start time for a given wash plan.
type Slot struct {
	Time                string `json:"time"`
	EndTime             string `json:"end_time"`
	TotalDuration       int    `json:"total_duration"`
	AvailableTubs       int    `json:"available_tubs"`
	AvailableTubNumbers []int  `json:"available_tub_numbers"`
	IsLastSlot          bool   `json:"is_last_slot"`
}

// StoreHours holds minutes since midnight for open, close and the last
// moment a wash may still be running.
type StoreHours struct {
	Open   int `json:"-"`
	Close  int `json:"-"`
	Cutoff int `json:"-"`

	OpenTime   string `json:"open"`
	CloseTime  string `json:"close"`
	CutoffTime string `json:"cutoff"`
}

type Availability struct {
	Date  string     `json:"date"`
	Hours StoreHours `json:"store_hours"`
	Slots []Slot     `json:"slots"`
}

// SlotQuery asks for the bookable slots of one wash configuration on a date.
type SlotQuery struct {
	Date          string        `json:"date" validate:"required,datetime=2006-01-02"`
	NumberOfDogs  int           `json:"number_of_dogs" validate:"required,oneof=1 2"`
	WashingMethod WashingMethod `json:"washing_method,omitempty" validate:"omitempty,oneof=simultaneous sequential"`
	Duration1     int           `json:"duration1" validate:"required,oneof=30 60 90"`
	Duration2     *int          `json:"duration2,omitempty" validate:"omitempty,oneof=30 60 90"`
}
