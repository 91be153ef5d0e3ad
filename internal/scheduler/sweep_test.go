package scheduler

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type countingSweeper struct {
	runs int
}

func (s *countingSweeper) SweepExpirations(context.Context) error {
	s.runs++
	return nil
}

func setup(t *testing.T) (*SweepScheduler, *countingSweeper, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	sweeper := &countingSweeper{}
	return New(sweeper, rdb, time.Hour), sweeper, mr
}

func TestRunOnceSweeps(t *testing.T) {
	sched, sweeper, mr := setup(t)
	ctx := context.Background()

	if err := sched.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if sweeper.runs != 1 {
		t.Fatalf("expected 1 sweep, got %d", sweeper.runs)
	}

	// The lock is released after a completed run, so the next run proceeds.
	if mr.Exists(sweepLockKey) {
		t.Fatal("lock must be released after the sweep completes")
	}
	if err := sched.RunOnce(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sweeper.runs != 2 {
		t.Fatalf("expected 2 sweeps, got %d", sweeper.runs)
	}
}

func TestRunOnceSkipsWhileLockHeld(t *testing.T) {
	sched, sweeper, mr := setup(t)
	ctx := context.Background()

	// Simulate a still-running sweep holding the lock.
	if err := mr.Set(sweepLockKey, "1"); err != nil {
		t.Fatalf("seed lock: %v", err)
	}

	if err := sched.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if sweeper.runs != 0 {
		t.Fatalf("expected skipped sweep, got %d runs", sweeper.runs)
	}
}
