// Package repo defines the booking store used by the service layer.
package repo

import (
	"context"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
)

// AssignFunc picks the tubs for a new booking given the bookings that
// currently hold tubs on its date. It runs while the date is locked.
type AssignFunc func(day []domain.Booking) ([]int, error)

// ApplyFunc mutates a loaded booking in place.
type ApplyFunc func(b *domain.Booking) error

// CheckFunc validates an updated booking against the other bookings that
// hold tubs on its (possibly new) date. It runs while that date is locked.
type CheckFunc func(b *domain.Booking, day []domain.Booking) error

type BookingRepository interface {
	// Create assigns tubs via assign and inserts b atomically with respect
	// to other writers on the same date.
	Create(ctx context.Context, b *domain.Booking, assign AssignFunc) (*domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// List returns bookings ordered by date then time.
	List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	// ListActiveByDate returns the bookings holding tubs on date.
	ListActiveByDate(ctx context.Context, date string) ([]domain.Booking, error)
	Update(ctx context.Context, id string, apply ApplyFunc, check CheckFunc) (*domain.Booking, error)
	Delete(ctx context.Context, id string) error

	SetReplicationStatus(ctx context.Context, id string, status domain.ReplicationStatus) error
	ListByReplicationStatus(ctx context.Context, statuses []domain.ReplicationStatus, limit int) ([]domain.Booking, error)
}

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// NormalizePage clamps limit and offset to the supported range.
func NormalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
