package world

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedulerRunsStepsAtPeriod(t *testing.T) {
	var steps atomic.Int32
	s := &Scheduler{
		Period: 5 * time.Millisecond,
		Step:   func() { steps.Add(1) },
	}
	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if got := steps.Load(); got < 5 {
		t.Fatalf("expected at least 5 steps in 55ms at a 5ms period, got %d", got)
	}
}

func TestSchedulerRecoversFromPanickingStep(t *testing.T) {
	var steps atomic.Int32
	s := &Scheduler{
		Period: 2 * time.Millisecond,
		Step: func() {
			steps.Add(1)
			panic("boom")
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if got := steps.Load(); got < 2 {
		t.Fatalf("expected the scheduler to keep stepping after a panic, got %d steps", got)
	}
}

func TestSchedulerReportsProfile(t *testing.T) {
	var reports atomic.Int32
	s := &Scheduler{
		Period:       2 * time.Millisecond,
		ProfileEvery: 10 * time.Millisecond,
		Step:         func() {},
		Profiler: func(p Profile) {
			reports.Add(1)
			if p.Ticks <= 0 {
				t.Errorf("expected a positive tick count in the profile, got %d", p.Ticks)
			}
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Millisecond)
	defer cancel()
	s.Run(ctx)

	if reports.Load() < 2 {
		t.Fatalf("expected at least 2 profile reports in 45ms at a 10ms cadence, got %d", reports.Load())
	}
}
