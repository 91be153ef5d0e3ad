package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sweepLockKey = "bonus:sweep:lock"

	// sweepLockTTL bounds how long a crashed sweep can block the next one.
	sweepLockTTL = time.Hour
)

// Sweeper runs one expiration pass over all accounts.
type Sweeper interface {
	SweepExpirations(ctx context.Context) error
}

// SweepScheduler triggers the bonus expiration sweep on a fixed interval. A
// Redis lock keeps concurrent deployments, and a still-running previous
// sweep, from overlapping.
type SweepScheduler struct {
	sweeper  Sweeper
	rdb      *redis.Client
	interval time.Duration
}

// New constructs a sweep scheduler.
func New(sweeper Sweeper, rdb *redis.Client, interval time.Duration) *SweepScheduler {
	return &SweepScheduler{sweeper: sweeper, rdb: rdb, interval: interval}
}

// Run blocks, triggering a sweep every interval until the context is
// cancelled.
func (s *SweepScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.Printf("[sweep] run failed: %v", err)
			}
		}
	}
}

// RunOnce performs a single guarded sweep. When the lock is already held the
// run is skipped without error.
func (s *SweepScheduler) RunOnce(ctx context.Context) error {
	acquired, err := s.rdb.SetNX(ctx, sweepLockKey, "1", sweepLockTTL).Result()
	if err != nil {
		return fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !acquired {
		log.Println("[sweep] previous sweep still running, skipping")
		return nil
	}
	defer s.rdb.Del(ctx, sweepLockKey)

	return s.sweeper.SweepExpirations(ctx)
}
