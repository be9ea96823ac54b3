package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
	"github.com/mahyar-jbr/dog-wash-booking/internal/platform/replication"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo"
	"github.com/mahyar-jbr/dog-wash-booking/internal/schedule"
	"github.com/mahyar-jbr/dog-wash-booking/internal/utils"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/events"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/logger"
)

type BookingService interface {
	StoreHours(ctx context.Context, date string) (domain.StoreHours, error)
	AvailableSlots(ctx context.Context, q *domain.SlotQuery) (*domain.Availability, error)
	CreateBooking(ctx context.Context, draft *domain.BookingDraft) (*domain.Booking, error)
	GetBooking(ctx context.Context, id string) (*domain.Booking, error)
	ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error)
	UpdateBooking(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

// Replicator pushes bookings to the remote backend.
type Replicator interface {
	Push(ctx context.Context, b *domain.Booking) error
	List(ctx context.Context, opts replication.ListOptions) ([]replication.RemoteBooking, error)
}

type Options struct {
	Location    *time.Location
	HorizonDays int
	Now         func() time.Time
}

type bookingService struct {
	bookingRepo repo.BookingRepository
	replicator  Replicator
	publisher   events.Publisher
	loc         *time.Location
	horizonDays int
	now         func() time.Time
}

// NewBookingService wires the service. replicator may be nil, in which case
// new bookings are marked as not replicated.
func NewBookingService(bookingRepo repo.BookingRepository, replicator Replicator, publisher events.Publisher, opts Options) BookingService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 30
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		bookingRepo: bookingRepo,
		replicator:  replicator,
		publisher:   publisher,
		loc:         opts.Location,
		horizonDays: opts.HorizonDays,
		now:         opts.Now,
	}
}

func (s *bookingService) StoreHours(_ context.Context, date string) (domain.StoreHours, error) {
	return schedule.HoursFor(date)
}

func (s *bookingService) AvailableSlots(ctx context.Context, q *domain.SlotQuery) (*domain.Availability, error) {
	if err := utils.ValidateStruct(q); err != nil {
		return nil, err
	}
	plan, err := domain.NewWashPlan(q.NumberOfDogs, q.WashingMethod, q.Duration1, q.Duration2)
	if err != nil {
		return nil, err
	}
	if err := s.checkHorizon(q.Date); err != nil {
		return nil, err
	}
	hours, err := schedule.HoursFor(q.Date)
	if err != nil {
		return nil, err
	}

	day, err := s.bookingRepo.ListActiveByDate(ctx, q.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load bookings: %w", err)
	}
	slots, err := schedule.Generate(q.Date, plan, day)
	if err != nil {
		return nil, err
	}
	return &domain.Availability{Date: q.Date, Hours: hours, Slots: slots}, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, draft *domain.BookingDraft) (*domain.Booking, error) {
	draft.CustomerName = utils.NormalizeString(draft.CustomerName)
	draft.CustomerContact = utils.NormalizeContact(draft.CustomerContact)
	draft.Date = utils.NormalizeString(draft.Date)
	draft.Time = utils.NormalizeString(draft.Time)

	if err := utils.ValidateStruct(draft); err != nil {
		return nil, err
	}
	plan, err := domain.NewWashPlan(draft.NumberOfDogs, draft.WashingMethod, draft.Duration1, draft.Duration2)
	if err != nil {
		return nil, err
	}
	if err := s.checkHorizon(draft.Date); err != nil {
		return nil, err
	}
	start, err := normalizeTime(draft.Time)
	if err != nil {
		return nil, err
	}

	// syncing keeps the retry worker off this booking while the request
	// path pushes it.
	b := &domain.Booking{
		CustomerName:      draft.CustomerName,
		CustomerContact:   draft.CustomerContact,
		Date:              draft.Date,
		Time:              start,
		Status:            domain.BookingConfirmed,
		ReplicationStatus: domain.ReplicationSyncing,
	}
	b.ApplyPlan(plan)
	if s.replicator == nil {
		b.ReplicationStatus = domain.ReplicationSkipped
	}

	created, err := s.bookingRepo.Create(ctx, b, func(day []domain.Booking) ([]int, error) {
		slot, err := schedule.SlotAt(b.Date, plan, b.Time, day)
		if err != nil {
			return nil, err
		}
		return schedule.AssignTubs(plan, slot), nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNoSlotsAvailable) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	logger.InfoContext(ctx, "Booking created",
		"booking_id", created.ID,
		"date", created.Date,
		"time", created.Time,
		"tubs_used", created.TubsUsed,
	)

	if s.replicator != nil {
		created.ReplicationStatus = s.replicate(ctx, created)
	}

	event := events.BookingCreatedEvent{
		BookingID:    created.ID,
		CustomerName: created.CustomerName,
		Date:         created.Date,
		Time:         created.Time,
		Duration:     created.Duration,
		NumberOfDogs: created.NumberOfDogs,
		TubsUsed:     created.TubsUsed,
		CreatedAt:    created.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, events.BookingCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking created event", "error", err, "booking_id", created.ID)
	}

	return created, nil
}

// replicate pushes b once and records the outcome. Failures are left for
// the retry worker.
func (s *bookingService) replicate(ctx context.Context, b *domain.Booking) domain.ReplicationStatus {
	status := domain.ReplicationSynced
	if err := s.replicator.Push(ctx, b); err != nil {
		status = domain.ReplicationFailed
		logger.WarnContext(ctx, "Remote replication failed; booking kept locally", "error", err, "booking_id", b.ID)
	}
	if err := s.bookingRepo.SetReplicationStatus(ctx, b.ID, status); err != nil {
		logger.ErrorContext(ctx, "Failed to record replication status", "error", err, "booking_id", b.ID)
	}
	return status
}

func (s *bookingService) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

func (s *bookingService) ListBookings(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	if f.Date != "" {
		if _, err := schedule.ParseDate(f.Date); err != nil {
			return nil, err
		}
	}
	return s.bookingRepo.List(ctx, f)
}

func (s *bookingService) UpdateBooking(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	if err := utils.ValidateStruct(&patch); err != nil {
		return nil, err
	}
	if patch.CustomerName != nil {
		v := utils.NormalizeString(*patch.CustomerName)
		if v == "" {
			return nil, domain.NewValidationError("customer_name", "is required")
		}
		patch.CustomerName = &v
	}
	if patch.CustomerContact != nil {
		v := utils.NormalizeContact(*patch.CustomerContact)
		patch.CustomerContact = &v
	}
	if patch.Time != nil {
		v, err := normalizeTime(*patch.Time)
		if err != nil {
			return nil, err
		}
		patch.Time = &v
	}

	apply := func(b *domain.Booking) error {
		if patch.CustomerName != nil {
			b.CustomerName = *patch.CustomerName
		}
		if patch.CustomerContact != nil {
			b.CustomerContact = *patch.CustomerContact
		}
		if patch.Date != nil {
			b.Date = *patch.Date
		}
		if patch.Time != nil {
			b.Time = *patch.Time
		}
		if patch.Duration != nil {
			if err := setTotalDuration(b, *patch.Duration); err != nil {
				return err
			}
		}
		if patch.Status != nil {
			b.Status = *patch.Status
		}
		start, err := schedule.TimeToMinutes(b.Time)
		if err != nil {
			return err
		}
		if start+b.Duration > 24*60 {
			return domain.NewValidationError("duration", "wash must end on the same day")
		}
		return nil
	}

	var check repo.CheckFunc
	if patch.TouchesSchedule() {
		check = func(b *domain.Booking, day []domain.Booking) error {
			clash, err := schedule.Conflicts(b, day)
			if err != nil {
				return err
			}
			if clash {
				return domain.ErrConflict
			}
			return nil
		}
	}

	updated, err := s.bookingRepo.Update(ctx, id, apply, check)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	event := events.BookingUpdatedEvent{
		BookingID: updated.ID,
		Changes:   patch.Changes(),
		Status:    string(updated.Status),
		UpdatedAt: updated.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, events.BookingUpdated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking updated event", "error", err, "booking_id", updated.ID)
	}

	return updated, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, id string) error {
	if err := s.bookingRepo.Delete(ctx, id); err != nil {
		return err
	}

	event := events.BookingDeletedEvent{BookingID: id, DeletedAt: s.now().UTC()}
	if err := s.publisher.Publish(ctx, events.BookingDeleted, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking deleted event", "error", err, "booking_id", id)
	}
	return nil
}

// checkHorizon rejects dates before today or more than horizonDays ahead,
// both measured in the store's timezone.
func (s *bookingService) checkHorizon(date string) error {
	d, err := time.ParseInLocation("2006-01-02", date, s.loc)
	if err != nil {
		return domain.NewValidationError("date", "must be formatted as YYYY-MM-DD")
	}
	now := s.now().In(s.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	if d.Before(today) {
		return domain.NewValidationError("date", "cannot be in the past")
	}
	if d.After(today.AddDate(0, 0, s.horizonDays)) {
		return domain.NewValidationError("date", fmt.Sprintf("must be within %d days", s.horizonDays))
	}
	return nil
}

func normalizeTime(s string) (string, error) {
	m, err := schedule.TimeToMinutes(s)
	if err != nil {
		return "", err
	}
	return schedule.MinutesToTime(m)
}

// setTotalDuration changes the wash length. For sequential washes the
// second dog absorbs the difference.
func setTotalDuration(b *domain.Booking, total int) error {
	if b.WashingMethod == domain.WashSequential {
		if total <= b.Duration1 {
			return domain.NewValidationError("duration", "must exceed the first dog's wash for sequential washing")
		}
		d2 := total - b.Duration1
		b.Duration2 = &d2
	} else {
		b.Duration1 = total
	}
	b.Duration = total
	return nil
}
