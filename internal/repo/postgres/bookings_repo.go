package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo"
)

type BookingRepoImpl struct{ pool *pgxpool.Pool }

var _ repo.BookingRepository = (*BookingRepoImpl)(nil)

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepoImpl { return &BookingRepoImpl{pool: pool} }

const bookingCols = `id, customer_name, customer_contact,
booking_date::text, start_time,
duration1, duration2, duration, number_of_dogs, COALESCE(washing_method, ''),
tubs_used, status, replication_status, created_at, updated_at`

const (
	queryTimeout = 3 * time.Second
	txTimeout    = 5 * time.Second
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.CustomerName, &b.CustomerContact,
		&b.Date, &b.Time,
		&b.Duration1, &b.Duration2, &b.Duration, &b.NumberOfDogs, &b.WashingMethod,
		&b.TubsUsed, &b.Status, &b.ReplicationStatus, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collect(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()
	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// lockDate serializes writers for one calendar date until the transaction ends.
func lockDate(ctx context.Context, tx pgx.Tx, date string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "bookings:"+date)
	return err
}

func activeOn(ctx context.Context, tx pgx.Tx, date, exclude string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
	WHERE booking_date=$1::date AND status <> 'cancelled' AND id <> $2`
	rows, err := tx.Query(ctx, q, date, exclude)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *BookingRepoImpl) Create(ctx context.Context, b *domain.Booking, assign repo.AssignFunc) (*domain.Booking, error) {
	const q = `INSERT INTO bookings (
    id, customer_name, customer_contact, booking_date, start_time,
    duration1, duration2, duration, number_of_dogs, washing_method,
    tubs_used, status, replication_status
  ) VALUES ($1,$2,$3,$4::date,$5,$6,$7,$8,$9,NULLIF($10,''),$11,$12,$13)
  RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := lockDate(ctx, tx, b.Date); err != nil {
		return nil, fmt.Errorf("lock date: %w", err)
	}
	day, err := activeOn(ctx, tx, b.Date, "")
	if err != nil {
		return nil, err
	}
	tubs, err := assign(day)
	if err != nil {
		return nil, err
	}

	id := b.ID
	if id == "" {
		id = domain.NewBookingID()
	}
	status := b.Status
	if status == "" {
		status = domain.BookingConfirmed
	}
	repl := b.ReplicationStatus
	if repl == "" {
		repl = domain.ReplicationPending
	}

	created, err := scanBooking(tx.QueryRow(ctx, q,
		id, b.CustomerName, b.CustomerContact, b.Date, b.Time,
		b.Duration1, b.Duration2, b.Duration, b.NumberOfDogs, string(b.WashingMethod),
		tubs, status, repl,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BookingRepoImpl) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	b, err := scanBooking(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return b, err
}

func (r *BookingRepoImpl) List(ctx context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	limit, offset := repo.NormalizePage(f.Limit, f.Offset)

	q := `SELECT ` + bookingCols + ` FROM bookings WHERE TRUE`
	args := []any{}
	if f.Date != "" {
		args = append(args, f.Date)
		q += fmt.Sprintf(` AND booking_date=$%d::date`, len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		q += fmt.Sprintf(` AND status=$%d`, len(args))
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(` ORDER BY booking_date, start_time, created_at LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *BookingRepoImpl) ListActiveByDate(ctx context.Context, date string) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
	WHERE booking_date=$1::date AND status <> 'cancelled'
	ORDER BY start_time`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, date)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func (r *BookingRepoImpl) Update(ctx context.Context, id string, apply repo.ApplyFunc, check repo.CheckFunc) (*domain.Booking, error) {
	const sel = `SELECT ` + bookingCols + ` FROM bookings WHERE id=$1 FOR UPDATE`
	const upd = `UPDATE bookings SET
    customer_name=$2, customer_contact=$3, booking_date=$4::date, start_time=$5,
    duration1=$6, duration2=$7, duration=$8, number_of_dogs=$9, washing_method=NULLIF($10,''),
    tubs_used=$11, status=$12, updated_at=now()
  WHERE id=$1
  RETURNING ` + bookingCols

	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	b, err := scanBooking(tx.QueryRow(ctx, sel, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := apply(b); err != nil {
		return nil, err
	}
	if check != nil {
		if err := lockDate(ctx, tx, b.Date); err != nil {
			return nil, fmt.Errorf("lock date: %w", err)
		}
		day, err := activeOn(ctx, tx, b.Date, id)
		if err != nil {
			return nil, err
		}
		if err := check(b, day); err != nil {
			return nil, err
		}
	}

	updated, err := scanBooking(tx.QueryRow(ctx, upd, id,
		b.CustomerName, b.CustomerContact, b.Date, b.Time,
		b.Duration1, b.Duration2, b.Duration, b.NumberOfDogs, string(b.WashingMethod),
		b.TubsUsed, b.Status,
	))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *BookingRepoImpl) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookingRepoImpl) SetReplicationStatus(ctx context.Context, id string, status domain.ReplicationStatus) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := r.pool.Exec(ctx, `UPDATE bookings SET replication_status=$2 WHERE id=$1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookingRepoImpl) ListByReplicationStatus(ctx context.Context, statuses []domain.ReplicationStatus, limit int) ([]domain.Booking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings
	WHERE replication_status = ANY($1::text[])
	ORDER BY created_at
	LIMIT $2`
	if limit <= 0 {
		limit = repo.DefaultLimit
	}
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.pool.Query(ctx, q, names, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}
