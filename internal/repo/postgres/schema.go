package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
  id                 TEXT PRIMARY KEY,
  customer_name      TEXT NOT NULL,
  customer_contact   TEXT NOT NULL,
  booking_date       DATE NOT NULL,
  start_time         TEXT NOT NULL,
  duration1          INTEGER NOT NULL,
  duration2          INTEGER,
  duration           INTEGER NOT NULL CHECK (duration > 0),
  number_of_dogs     INTEGER NOT NULL CHECK (number_of_dogs IN (1, 2)),
  washing_method     TEXT CHECK (washing_method IN ('simultaneous', 'sequential')),
  tubs_used          INTEGER[] NOT NULL,
  status             TEXT NOT NULL DEFAULT 'confirmed' CHECK (status IN ('confirmed', 'pending', 'cancelled')),
  replication_status TEXT NOT NULL DEFAULT 'pending',
  created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS bookings_date_time_idx ON bookings (booking_date, start_time);
CREATE INDEX IF NOT EXISTS bookings_replication_idx ON bookings (replication_status) WHERE replication_status <> 'synced';

CREATE TABLE IF NOT EXISTS idempotency_keys (
  key_hash   TEXT PRIMARY KEY,
  response   TEXT NOT NULL,
  expires_at TIMESTAMPTZ NOT NULL
);
`

// Migrate creates the bookings and idempotency tables when missing.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err := pool.Exec(ctx, schema)
	return err
}
