package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
	"github.com/mahyar-jbr/dog-wash-booking/internal/platform/replication"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo/memory"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/events"
)

// ---------- Fakes ----------

type fakeReplicator struct {
	mu      sync.Mutex
	pushErr error
	listErr error
	pushed  []string
	remote  []replication.RemoteBooking
}

func (f *fakeReplicator) Push(_ context.Context, b *domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, b.ID)
	f.remote = append(f.remote, replication.FromBooking(b))
	return nil
}

func (f *fakeReplicator) List(_ context.Context, opts replication.ListOptions) ([]replication.RemoteBooking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []replication.RemoteBooking
	for _, r := range f.remote {
		if opts.Date == "" || r.Date == opts.Date {
			out = append(out, r)
		}
	}
	return out, nil
}

type published struct {
	subject string
	data    interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{subject, data})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.subject
	}
	return out
}

// ---------- Setup ----------

// Sunday 2025-06-01, noon in the store's zone.
var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const monday = "2025-06-02"

type fixture struct {
	svc  BookingService
	repo *memory.BookingRepository
	repl *fakeReplicator
	pub  *recordingPublisher
}

func newFixture(t *testing.T, withReplicator bool) *fixture {
	t.Helper()
	r, err := memory.New("")
	require.NoError(t, err)
	f := &fixture{repo: r, pub: &recordingPublisher{}}
	var replicator Replicator
	if withReplicator {
		f.repl = &fakeReplicator{}
		replicator = f.repl
	}
	f.svc = NewBookingService(r, replicator, f.pub, Options{
		Location:    time.UTC,
		HorizonDays: 30,
		Now:         func() time.Time { return fixedNow },
	})
	return f
}

func intPtr(v int) *int { return &v }

func singleDraft(date, at string) *domain.BookingDraft {
	return &domain.BookingDraft{
		CustomerName:    "  Ann Smith ",
		CustomerContact: "Ann@Example.com",
		Date:            date,
		Time:            at,
		NumberOfDogs:    1,
		Duration1:       60,
	}
}

// ---------- Tests ----------

func TestCreateBooking_Success(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, singleDraft(monday, "9:00"))
	require.NoError(t, err)

	assert.Len(t, b.ID, 12)
	assert.Equal(t, "Ann Smith", b.CustomerName)
	assert.Equal(t, "ann@example.com", b.CustomerContact)
	assert.Equal(t, "09:00", b.Time)
	assert.Equal(t, 60, b.Duration)
	assert.Equal(t, []int{1}, b.TubsUsed)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, domain.ReplicationSynced, b.ReplicationStatus)
	assert.Equal(t, []string{b.ID}, f.repl.pushed)
	assert.Equal(t, []string{events.BookingCreated}, f.pub.subjects())

	stored, err := f.svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReplicationSynced, stored.ReplicationStatus)
}

func TestCreateBooking_ReplicationFailureKeepsBooking(t *testing.T) {
	f := newFixture(t, true)
	f.repl.pushErr = errors.New("connection refused")

	b, err := f.svc.CreateBooking(context.Background(), singleDraft(monday, "10:00"))
	require.NoError(t, err)
	assert.Equal(t, domain.ReplicationFailed, b.ReplicationStatus)

	stored, err := f.repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReplicationFailed, stored.ReplicationStatus)
}

func TestCreateBooking_WithoutReplicatorIsSkipped(t *testing.T) {
	f := newFixture(t, false)
	b, err := f.svc.CreateBooking(context.Background(), singleDraft(monday, "10:00"))
	require.NoError(t, err)
	assert.Equal(t, domain.ReplicationSkipped, b.ReplicationStatus)
}

func TestCreateBooking_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, false)
	f.pub.err = errors.New("nats down")
	_, err := f.svc.CreateBooking(context.Background(), singleDraft(monday, "10:00"))
	assert.NoError(t, err)
}

func TestCreateBooking_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *domain.BookingDraft)
		field  string
	}{
		{"missing name", func(d *domain.BookingDraft) { d.CustomerName = "   " }, "customer_name"},
		{"bad contact", func(d *domain.BookingDraft) { d.CustomerContact = "call me maybe" }, "customer_contact"},
		{"past date", func(d *domain.BookingDraft) { d.Date = "2025-05-31" }, "date"},
		{"beyond horizon", func(d *domain.BookingDraft) { d.Date = "2025-07-02" }, "date"},
		{"odd duration", func(d *domain.BookingDraft) { d.Duration1 = 45 }, "duration1"},
		{"method with one dog", func(d *domain.BookingDraft) { d.WashingMethod = domain.WashSimultaneous }, "washing_method"},
		{"off grid", func(d *domain.BookingDraft) { d.Time = "10:15" }, "time"},
		{"past cutoff", func(d *domain.BookingDraft) { d.Time = "19:30" }, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, false)
			d := singleDraft(monday, "10:00")
			tt.mutate(d)
			_, err := f.svc.CreateBooking(context.Background(), d)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	f := newFixture(t, false)
	_, err := f.svc.CreateBooking(context.Background(), singleDraft(monday, "1O:00"))
	var fe *domain.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestCreateBooking_HorizonEdges(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.svc.CreateBooking(context.Background(), singleDraft("2025-06-01", "17:00"))
	assert.NoError(t, err)
	_, err = f.svc.CreateBooking(context.Background(), singleDraft("2025-07-01", "10:00"))
	assert.NoError(t, err)
}

func TestCreateBooking_ConflictAfterTubsExhausted(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.svc.CreateBooking(ctx, singleDraft(monday, "10:00"))
	require.NoError(t, err)
	second, err := f.svc.CreateBooking(ctx, singleDraft(monday, "10:00"))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, first.TubsUsed)
	assert.Equal(t, []int{2}, second.TubsUsed)

	_, err = f.svc.CreateBooking(ctx, singleDraft(monday, "10:30"))
	assert.ErrorIs(t, err, domain.ErrConflict)

	avail, err := f.svc.AvailableSlots(ctx, &domain.SlotQuery{Date: monday, NumberOfDogs: 1, Duration1: 60})
	require.NoError(t, err)
	for _, s := range avail.Slots {
		assert.NotContains(t, []string{"09:30", "10:00", "10:30", "11:00"}, s.Time)
	}
	assert.Equal(t, "09:00", avail.Slots[0].Time)
	assert.Equal(t, "11:30", avail.Slots[1].Time)
}

func TestCreateBooking_NoSlotsOnFullDay(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	seq := &domain.BookingDraft{
		CustomerName: "Ann", CustomerContact: "555 1234", Date: "2025-06-07", Time: "09:00",
		NumberOfDogs: 2, WashingMethod: domain.WashSimultaneous, Duration1: 90,
	}
	// four simultaneous 90 minute washes leave nothing before the 18:00 cutoff
	for _, at := range []string{"09:00", "11:00", "13:00", "15:00"} {
		d := *seq
		d.Time = at
		_, err := f.svc.CreateBooking(ctx, &d)
		require.NoError(t, err, at)
	}

	avail, err := f.svc.AvailableSlots(ctx, &domain.SlotQuery{
		Date: "2025-06-07", NumberOfDogs: 2, WashingMethod: domain.WashSimultaneous, Duration1: 90,
	})
	require.NoError(t, err)
	assert.Empty(t, avail.Slots)
	assert.Equal(t, "18:00", avail.Hours.CutoffTime)

	d := *seq
	d.Time = "16:30"
	_, err = f.svc.CreateBooking(ctx, &d)
	assert.ErrorIs(t, err, domain.ErrNoSlotsAvailable)
}

func TestAvailableSlots_SequentialPlan(t *testing.T) {
	f := newFixture(t, false)
	avail, err := f.svc.AvailableSlots(context.Background(), &domain.SlotQuery{
		Date: monday, NumberOfDogs: 2, WashingMethod: domain.WashSequential, Duration1: 30, Duration2: intPtr(60),
	})
	require.NoError(t, err)
	assert.Equal(t, "09:00", avail.Slots[0].Time)
	assert.Equal(t, "18:30", avail.Slots[len(avail.Slots)-1].Time)
	assert.True(t, avail.Slots[len(avail.Slots)-1].IsLastSlot)

	_, err = f.svc.AvailableSlots(context.Background(), &domain.SlotQuery{
		Date: monday, NumberOfDogs: 2, WashingMethod: domain.WashSequential, Duration1: 30,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateBooking(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	a, err := f.svc.CreateBooking(ctx, singleDraft(monday, "10:00"))
	require.NoError(t, err)
	b, err := f.svc.CreateBooking(ctx, singleDraft(monday, "12:00"))
	require.NoError(t, err)
	require.Equal(t, []int{1}, b.TubsUsed)

	// moving b onto a's tub window clashes
	at := "10:30"
	_, err = f.svc.UpdateBooking(ctx, b.ID, domain.BookingPatch{Time: &at})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// re-saving a's own window does not clash with itself
	same := "10:00"
	updated, err := f.svc.UpdateBooking(ctx, a.ID, domain.BookingPatch{Time: &same})
	require.NoError(t, err)
	assert.Equal(t, "10:00", updated.Time)

	name := "Ann Jones"
	dur := 90
	updated, err = f.svc.UpdateBooking(ctx, a.ID, domain.BookingPatch{CustomerName: &name, Duration: &dur})
	require.NoError(t, err)
	assert.Equal(t, "Ann Jones", updated.CustomerName)
	assert.Equal(t, 90, updated.Duration)
	assert.Equal(t, 90, updated.Duration1)

	// cancelling a frees the window for b
	cancelled := domain.BookingCancelled
	_, err = f.svc.UpdateBooking(ctx, a.ID, domain.BookingPatch{Status: &cancelled})
	require.NoError(t, err)
	moved, err := f.svc.UpdateBooking(ctx, b.ID, domain.BookingPatch{Time: &at})
	require.NoError(t, err)
	assert.Equal(t, "10:30", moved.Time)

	// reviving a now clashes with b
	confirmed := domain.BookingConfirmed
	_, err = f.svc.UpdateBooking(ctx, a.ID, domain.BookingPatch{Status: &confirmed})
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Contains(t, f.pub.subjects(), events.BookingUpdated)
}

func TestUpdateBooking_Errors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	at := "11:00"
	_, err := f.svc.UpdateBooking(ctx, "MISSING", domain.BookingPatch{Time: &at})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	b, err := f.svc.CreateBooking(ctx, singleDraft(monday, "10:00"))
	require.NoError(t, err)

	bad := "25:00"
	_, err = f.svc.UpdateBooking(ctx, b.ID, domain.BookingPatch{Time: &bad})
	var fe *domain.FormatError
	assert.ErrorAs(t, err, &fe)

	contact := "nope"
	_, err = f.svc.UpdateBooking(ctx, b.ID, domain.BookingPatch{CustomerContact: &contact})
	assert.ErrorIs(t, err, domain.ErrValidation)

	status := domain.BookingStatus("completed")
	_, err = f.svc.UpdateBooking(ctx, b.ID, domain.BookingPatch{Status: &status})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateBooking_SequentialDuration(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	b, err := f.svc.CreateBooking(ctx, &domain.BookingDraft{
		CustomerName: "Ann", CustomerContact: "555 1234", Date: monday, Time: "09:00",
		NumberOfDogs: 2, WashingMethod: domain.WashSequential, Duration1: 30, Duration2: intPtr(30),
	})
	require.NoError(t, err)

	dur := 120
	updated, err := f.svc.UpdateBooking(ctx, b.ID, domain.BookingPatch{Duration: &dur})
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Duration1)
	require.NotNil(t, updated.Duration2)
	assert.Equal(t, 90, *updated.Duration2)

	short := 30
	_, err = f.svc.UpdateBooking(ctx, b.ID, domain.BookingPatch{Duration: &short})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	b, err := f.svc.CreateBooking(ctx, singleDraft(monday, "10:00"))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteBooking(ctx, b.ID))
	assert.ErrorIs(t, f.svc.DeleteBooking(ctx, b.ID), domain.ErrNotFound)

	_, err = f.svc.GetBooking(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []string{events.BookingCreated, events.BookingDeleted}, f.pub.subjects())
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	for _, d := range []*domain.BookingDraft{singleDraft("2025-06-03", "09:00"), singleDraft(monday, "15:00"), singleDraft(monday, "09:30")} {
		_, err := f.svc.CreateBooking(ctx, d)
		require.NoError(t, err)
	}

	all, err := f.svc.ListBookings(ctx, domain.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "09:30", all[0].Time)
	assert.Equal(t, "15:00", all[1].Time)

	day, err := f.svc.ListBookings(ctx, domain.BookingFilter{Date: monday})
	require.NoError(t, err)
	assert.Len(t, day, 2)

	_, err = f.svc.ListBookings(ctx, domain.BookingFilter{Date: "June 2"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
