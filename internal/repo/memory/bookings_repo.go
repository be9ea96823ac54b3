// Package memory keeps bookings in process, optionally persisted to a JSON file.
package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo"
)

type BookingRepository struct {
	mu       sync.Mutex
	bookings map[string]domain.Booking
	path     string
	now      func() time.Time
}

var _ repo.BookingRepository = (*BookingRepository)(nil)

// New returns an empty store. When path is non-empty the store loads it on
// start and rewrites it after every change.
func New(path string) (*BookingRepository, error) {
	r := &BookingRepository{
		bookings: make(map[string]domain.Booking),
		path:     path,
		now:      time.Now,
	}
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var list []domain.Booking
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for _, b := range list {
		r.bookings[b.ID] = b
	}
	return r, nil
}

func (r *BookingRepository) Create(_ context.Context, b *domain.Booking, assign repo.AssignFunc) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tubs, err := assign(r.activeOn(b.Date, ""))
	if err != nil {
		return nil, err
	}

	nb := clone(*b)
	if nb.ID == "" {
		nb.ID = domain.NewBookingID()
	}
	if _, exists := r.bookings[nb.ID]; exists {
		return nil, fmt.Errorf("booking %s already exists", nb.ID)
	}
	if nb.Status == "" {
		nb.Status = domain.BookingConfirmed
	}
	if nb.ReplicationStatus == "" {
		nb.ReplicationStatus = domain.ReplicationPending
	}
	nb.TubsUsed = append([]int(nil), tubs...)
	now := r.now().UTC()
	nb.CreatedAt, nb.UpdatedAt = now, now

	r.bookings[nb.ID] = nb
	if err := r.persist(); err != nil {
		delete(r.bookings, nb.ID)
		return nil, err
	}
	out := clone(nb)
	return &out, nil
}

func (r *BookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := clone(b)
	return &out, nil
}

func (r *BookingRepository) List(_ context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	limit, offset := repo.NormalizePage(f.Limit, f.Offset)
	var out []domain.Booking
	for _, b := range r.sorted() {
		if f.Date != "" && b.Date != f.Date {
			continue
		}
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		out = append(out, b)
	}
	if offset >= len(out) {
		return []domain.Booking{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *BookingRepository) ListActiveByDate(_ context.Context, date string) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeOn(date, ""), nil
}

func (r *BookingRepository) Update(_ context.Context, id string, apply repo.ApplyFunc, check repo.CheckFunc) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	b := clone(prev)
	if err := apply(&b); err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(&b, r.activeOn(b.Date, id)); err != nil {
			return nil, err
		}
	}
	b.ID, b.CreatedAt = prev.ID, prev.CreatedAt
	b.UpdatedAt = r.now().UTC()

	r.bookings[id] = b
	if err := r.persist(); err != nil {
		r.bookings[id] = prev
		return nil, err
	}
	out := clone(b)
	return &out, nil
}

func (r *BookingRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev, ok := r.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.bookings, id)
	if err := r.persist(); err != nil {
		r.bookings[id] = prev
		return err
	}
	return nil
}

func (r *BookingRepository) SetReplicationStatus(_ context.Context, id string, status domain.ReplicationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.ReplicationStatus = status
	r.bookings[id] = b
	return r.persist()
}

func (r *BookingRepository) ListByReplicationStatus(_ context.Context, statuses []domain.ReplicationStatus, limit int) ([]domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[domain.ReplicationStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []domain.Booking
	for _, b := range r.sorted() {
		if want[b.ReplicationStatus] {
			out = append(out, b)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// activeOn returns copies of the bookings holding tubs on date, skipping exclude.
func (r *BookingRepository) activeOn(date, exclude string) []domain.Booking {
	var out []domain.Booking
	for id, b := range r.bookings {
		if id == exclude || b.Date != date || !b.Status.HoldsTubs() {
			continue
		}
		out = append(out, clone(b))
	}
	return out
}

func (r *BookingRepository) sorted() []domain.Booking {
	out := make([]domain.Booking, 0, len(r.bookings))
	for _, b := range r.bookings {
		out = append(out, clone(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// persist replaces the snapshot file via rename. Callers hold r.mu.
func (r *BookingRepository) persist() error {
	if r.path == "" {
		return nil
	}
	data, err := json.Marshal(r.sorted())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".bookings-*.json")
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func clone(b domain.Booking) domain.Booking {
	b.TubsUsed = append([]int(nil), b.TubsUsed...)
	if b.Duration2 != nil {
		d := *b.Duration2
		b.Duration2 = &d
	}
	return b
}
