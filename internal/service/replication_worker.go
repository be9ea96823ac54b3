package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mahyar-jbr/dog-wash-booking/internal/domain"
	"github.com/mahyar-jbr/dog-wash-booking/internal/platform/replication"
	"github.com/mahyar-jbr/dog-wash-booking/internal/repo"
	"github.com/mahyar-jbr/dog-wash-booking/pkg/logger"
)

const (
	// leaderLockKey keeps a single instance retrying at a time.
	leaderLockKey = "replication:leader"
	leaderLockTTL = 2 * time.Minute

	// syncingStaleAfter is how long a booking may sit in syncing before the
	// worker treats the request-path push as lost.
	syncingStaleAfter = 10 * time.Minute
)

type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	Unlock(ctx context.Context, key, token string) error
	Refresh(ctx context.Context, key, token string, ttl time.Duration) error
}

// ReplicationWorker re-pushes bookings whose first replication attempt
// failed or never happened.
type ReplicationWorker struct {
	bookingRepo repo.BookingRepository
	replicator  Replicator
	locker      Locker
	spec        string
	batchSize   int
	lockTTL     time.Duration
	now         func() time.Time

	cron   *cron.Cron
	runCtx context.Context
	cancel context.CancelFunc
}

// NewReplicationWorker builds a worker; locker may be nil for a single instance.
func NewReplicationWorker(bookingRepo repo.BookingRepository, replicator Replicator, locker Locker, spec string, batchSize int) *ReplicationWorker {
	if batchSize <= 0 {
		batchSize = repo.DefaultLimit
	}
	return &ReplicationWorker{
		bookingRepo: bookingRepo,
		replicator:  replicator,
		locker:      locker,
		spec:        spec,
		batchSize:   batchSize,
		lockTTL:     leaderLockTTL,
		now:         time.Now,
	}
}

func (w *ReplicationWorker) Start(ctx context.Context) error {
	w.runCtx, w.cancel = context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(w.spec, func() { w.RunOnce(w.runCtx) }); err != nil {
		w.cancel()
		return fmt.Errorf("schedule replication worker %q: %w", w.spec, err)
	}
	c.Start()
	w.cron = c
	logger.Info("Replication worker started", "spec", w.spec)
	return nil
}

// Stop cancels in-flight work and waits for a running pass to return.
func (w *ReplicationWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// RunOnce retries one batch and reports how many bookings were synced and
// how many still failed.
func (w *ReplicationWorker) RunOnce(ctx context.Context) (synced, failed int) {
	if w.locker != nil {
		acquired, token, err := w.locker.TryLock(ctx, leaderLockKey, w.lockTTL)
		if err != nil {
			logger.Warn("Replication worker lock attempt failed", "error", err)
			return 0, 0
		}
		if !acquired {
			logger.Debug("Replication worker lock held elsewhere")
			return 0, 0
		}

		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		refreshed := make(chan struct{})
		go w.holdLock(ctx, cancel, token, refreshed)
		defer func() {
			cancel()
			<-refreshed
			if err := w.locker.Unlock(context.WithoutCancel(ctx), leaderLockKey, token); err != nil {
				logger.Warn("Replication worker unlock failed", "error", err)
			}
		}()
	}

	backlog, err := w.backlog(ctx)
	if err != nil {
		logger.Error("Replication worker failed to load backlog", "error", err)
		return 0, 0
	}

	remoteByDate := map[string][]replication.RemoteBooking{}
	for i := range backlog {
		if ctx.Err() != nil {
			break
		}
		b := &backlog[i]

		remote, seen := remoteByDate[b.Date]
		if !seen {
			remote, err = w.replicator.List(ctx, replication.ListOptions{Date: b.Date})
			if err != nil {
				logger.Warn("Replication worker could not list remote bookings", "error", err, "date", b.Date)
				remote = nil
			}
			remoteByDate[b.Date] = remote
		}

		status := domain.ReplicationSynced
		if !alreadyReplicated(remote, b) {
			if err := w.replicator.Push(ctx, b); err != nil {
				status = domain.ReplicationFailed
				logger.Warn("Replication retry failed", "error", err, "booking_id", b.ID)
			}
		}
		if err := w.bookingRepo.SetReplicationStatus(context.WithoutCancel(ctx), b.ID, status); err != nil {
			logger.Error("Failed to record replication status", "error", err, "booking_id", b.ID)
		}
		if status == domain.ReplicationSynced {
			synced++
		} else {
			failed++
		}
	}

	if synced+failed > 0 {
		logger.Info("Replication pass finished", "synced", synced, "failed", failed)
	}
	return synced, failed
}

// holdLock refreshes the leader lock every half TTL until ctx ends. A failed
// refresh means another instance may take over, so the pass is cancelled.
func (w *ReplicationWorker) holdLock(ctx context.Context, cancel context.CancelFunc, token string, done chan<- struct{}) {
	defer close(done)
	tick := time.NewTicker(w.lockTTL / 2)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			if err := w.locker.Refresh(ctx, leaderLockKey, token, w.lockTTL); err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("Replication worker lost leader lock; stopping pass", "error", err)
				cancel()
				return
			}
		}
	}
}

// backlog loads pending and failed bookings first. Bookings still marked
// syncing belong to an in-flight create and are only picked up once they
// are older than syncingStaleAfter.
func (w *ReplicationWorker) backlog(ctx context.Context) ([]domain.Booking, error) {
	out, err := w.bookingRepo.ListByReplicationStatus(ctx,
		[]domain.ReplicationStatus{domain.ReplicationPending, domain.ReplicationFailed}, w.batchSize)
	if err != nil {
		return nil, err
	}
	if len(out) >= w.batchSize {
		return out, nil
	}

	inFlight, err := w.bookingRepo.ListByReplicationStatus(ctx,
		[]domain.ReplicationStatus{domain.ReplicationSyncing}, w.batchSize)
	if err != nil {
		return nil, err
	}
	cutoff := w.now().Add(-syncingStaleAfter)
	for _, b := range inFlight {
		if len(out) == w.batchSize {
			break
		}
		if b.CreatedAt.Before(cutoff) {
			out = append(out, b)
		}
	}
	return out, nil
}

func alreadyReplicated(remote []replication.RemoteBooking, b *domain.Booking) bool {
	for _, r := range remote {
		if r.Same(b) {
			return true
		}
	}
	return false
}
