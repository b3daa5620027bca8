package worker

// scheduler.go finalizes opening and closing snapshots at each organization's
// configured opening_time / closing_time. A Redis lock per (org, day, kind)
// keeps a fleet of instances from finalizing the same boundary twice.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"stockbook/internal/model"
	"stockbook/internal/repository"
	"stockbook/internal/service"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultSchedulerInterval = time.Minute

// boundaryLockTTL outlives the day, so an un-released lock also marks the
// boundary as done for every instance.
const boundaryLockTTL = 26 * time.Hour

// Locker is satisfied by *redislock.Client.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

// SchedulerConfig holds all dependencies for the day-boundary goroutine.
type SchedulerConfig struct {
	Orgs      repository.OrganizationRepository
	Snapshots service.SnapshotService
	// Locker may be nil on single-instance deployments
	Locker   Locker
	Interval time.Duration
	Location *time.Location
	Now      func() time.Time
}

// Scheduler tracks which boundaries this instance already handled.
type Scheduler struct {
	cfg  SchedulerConfig
	mu   sync.Mutex
	done map[string]bool
}

func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultSchedulerInterval
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scheduler{cfg: cfg, done: make(map[string]bool)}
}

// Start ticks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", s.cfg.Interval).Msg("scheduler: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("scheduler: shutting down")
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Tick finalizes every boundary that has passed today and is not yet handled.
// It returns how many boundaries were finalized by this call.
func (s *Scheduler) Tick(ctx context.Context) int {
	orgs, err := s.cfg.Orgs.ListScheduled(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: failed to list organizations")
		return 0
	}

	now := s.cfg.Now().In(s.cfg.Location)
	today := model.Day(now.Format("2006-01-02"))
	clock := now.Format("15:04:05")

	s.forget(today)

	ran := 0
	for i := range orgs {
		org := &orgs[i]
		for _, b := range []struct {
			kind model.SnapshotKind
			at   *string
		}{
			{model.SnapshotOpening, org.OpeningTime},
			{model.SnapshotClosing, org.ClosingTime},
		} {
			if b.at == nil || clock < *b.at {
				continue
			}
			if s.finalize(ctx, org.ID, today, b.kind) {
				ran++
			}
		}
	}
	return ran
}

func boundaryKey(org uuid.UUID, day model.Day, kind model.SnapshotKind) string {
	return fmt.Sprintf("%s:%s:%s", org, day, kind)
}

func (s *Scheduler) finalize(ctx context.Context, org uuid.UUID, day model.Day, kind model.SnapshotKind) bool {
	key := boundaryKey(org, day, kind)
	s.mu.Lock()
	seen := s.done[key]
	s.mu.Unlock()
	if seen {
		return false
	}

	var lock *redislock.Lock
	if s.cfg.Locker != nil {
		var err error
		lock, err = s.cfg.Locker.Obtain(ctx, "lock:finalize:"+key, boundaryLockTTL, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			// another instance owns this boundary
			s.markDone(key)
			return false
		}
		if err != nil {
			log.Warn().Err(err).Str("boundary", key).Msg("scheduler: lock unavailable, retrying next tick")
			return false
		}
	}

	orgID := org
	n, err := s.cfg.Snapshots.FinalizeDay(ctx, kind, &orgID, day, uuid.Nil)
	if err != nil {
		log.Error().Err(err).Str("boundary", key).Msg("scheduler: finalize failed")
		if lock != nil {
			_ = lock.Release(ctx)
		}
		return false
	}
	s.markDone(key)
	log.Info().Str("organization_id", org.String()).Str("kind", string(kind)).Str("date", day.String()).Int("items", n).Msg("scheduler: snapshots finalized")
	return true
}

func (s *Scheduler) markDone(key string) {
	s.mu.Lock()
	s.done[key] = true
	s.mu.Unlock()
}

// forget drops entries from previous days.
func (s *Scheduler) forget(today model.Day) {
	s.mu.Lock()
	defer s.mu.Unlock()
	suffix := fmt.Sprintf(":%s:", today)
	for k := range s.done {
		if !strings.Contains(k, suffix) {
			delete(s.done, k)
		}
	}
}
