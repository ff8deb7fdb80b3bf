package world

import (
	"context"
	"log/slog"
	"time"
)

// Profile is delivered to an optional profiler callback on a fixed
// cadence, per spec.md §4.8: how many ticks ran since the last report,
// their average duration, and the derived ticks-per-second.
type Profile struct {
	Ticks       int
	AvgDuration time.Duration
	TPS         float64
}

// Scheduler runs a caller-supplied step at a fixed minimum period, per
// spec.md §4.8. If a step overruns the period, the next step begins
// immediately; the scheduler never bursts to catch up beyond that one
// step.
type Scheduler struct {
	Log          *slog.Logger
	Period       time.Duration
	ProfileEvery time.Duration
	Step         func()
	Profiler     func(Profile)
}

func (s *Scheduler) applyDefaults() {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	if s.Period <= 0 {
		s.Period = 50 * time.Millisecond
	}
	if s.ProfileEvery <= 0 {
		s.ProfileEvery = 3 * time.Second
	}
}

// Run drives the scheduler until ctx is cancelled. It must be called on
// its own goroutine; Step is invoked synchronously, never concurrently
// with itself.
func (s *Scheduler) Run(ctx context.Context) {
	s.applyDefaults()

	var ticks int
	var totalDur time.Duration
	lastReport := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		start := time.Now()
		s.runStepSafely()
		elapsed := time.Since(start)

		ticks++
		totalDur += elapsed

		if s.Profiler != nil {
			if since := time.Since(lastReport); since >= s.ProfileEvery {
				avg := time.Duration(0)
				if ticks > 0 {
					avg = totalDur / time.Duration(ticks)
				}
				tps := 0.0
				if avg > 0 {
					tps = float64(time.Second) / float64(avg)
					if tps > float64(time.Second/s.Period) {
						tps = float64(time.Second / s.Period)
					}
				}
				s.Profiler(Profile{Ticks: ticks, AvgDuration: avg, TPS: tps})
				ticks, totalDur, lastReport = 0, 0, time.Now()
			}
		}

		if remaining := s.Period - elapsed; remaining > 0 {
			t := time.NewTimer(remaining)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
		// An overrun step falls straight through to the next iteration
		// with no extra catch-up steps, per spec.md §4.8.
	}
}

// runStepSafely invokes Step, recovering a panic so one failing tick
// cannot crash the scheduler, per spec.md §7 "Tick-loop failures must
// not crash the scheduler".
func (s *Scheduler) runStepSafely() {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("tick step panicked", "recover", r)
		}
	}()
	s.Step()
}
