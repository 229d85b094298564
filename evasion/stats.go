package evasion

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/montanaflynn/stats"
	"go.uber.org/atomic"

	"github.com/viam-labs/evasion/logging"
)

// PublishGapWarning is the silence between two publishes worth a warning.
const PublishGapWarning = 500 * time.Millisecond

// maxCycleSamples bounds the cycle durations kept for one summary window. Once full, the oldest
// samples are overwritten.
const maxCycleSamples = 4096

// Stats keeps cycle and publishing diagnostics and logs a summary every interval.
type Stats struct {
	clock    clock.Clock
	logger   logging.Logger
	interval time.Duration
	period   time.Duration

	cycles    atomic.Int64
	published atomic.Int64
	overruns  atomic.Int64

	mu              sync.Mutex
	durations       []float64
	nextSample      int
	emptyCycles     int
	lastPublish     time.Time
	windowStart     time.Time
	windowPublishes int
}

// NewStats returns diagnostics for a cycle of the given period.
func NewStats(clk clock.Clock, period, interval time.Duration, logger logging.Logger) *Stats {
	now := clk.Now()
	return &Stats{
		clock:       clk,
		logger:      logger,
		interval:    interval,
		period:      period,
		lastPublish: now,
		windowStart: now,
	}
}

// ObserveCycle records one cycle's duration and whether it published.
func (s *Stats) ObserveCycle(elapsed time.Duration, published bool) {
	s.cycles.Inc()
	if s.period > 0 && elapsed > s.period {
		s.overruns.Inc()
		s.logger.Debugw("slow cycle", "elapsed", elapsed, "period", s.period)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSample(float64(elapsed) / float64(time.Millisecond))
	now := s.clock.Now()
	if published {
		s.published.Inc()
		if gap := now.Sub(s.lastPublish); gap > PublishGapWarning {
			s.logger.Warnw("forces published after a gap",
				"gap", gap.Round(time.Millisecond), "empty_cycles", s.emptyCycles, "cycle_time", elapsed)
		}
		s.lastPublish = now
		s.emptyCycles = 0
		s.windowPublishes++
	} else {
		s.emptyCycles++
	}

	window := now.Sub(s.windowStart)
	switch {
	case s.interval <= 0 || window <= s.interval:
	case s.windowPublishes == 0:
		// nothing published, nothing to summarize
		s.resetWindow(now)
	default:
		s.report(window)
	}
}

func (s *Stats) report(window time.Duration) {
	//nolint:errcheck
	mean, _ := stats.Mean(s.durations)
	//nolint:errcheck
	p95, _ := stats.Percentile(s.durations, 95)
	//nolint:errcheck
	rate, _ := stats.Round(float64(s.windowPublishes)/window.Seconds(), 3)
	s.logger.Infow("forces published",
		"rate_hz", rate,
		"cycle_mean_ms", mean,
		"cycle_p95_ms", p95,
		"overruns", s.overruns.Load())
	s.resetWindow(s.clock.Now())
}

func (s *Stats) addSample(ms float64) {
	if len(s.durations) < maxCycleSamples {
		s.durations = append(s.durations, ms)
		return
	}
	s.durations[s.nextSample] = ms
	s.nextSample = (s.nextSample + 1) % maxCycleSamples
}

func (s *Stats) resetWindow(now time.Time) {
	s.durations = s.durations[:0]
	s.nextSample = 0
	s.windowPublishes = 0
	s.windowStart = now
}

// Cycles returns the number of cycles run.
func (s *Stats) Cycles() int64 {
	return s.cycles.Load()
}

// Published returns the number of force messages published.
func (s *Stats) Published() int64 {
	return s.published.Load()
}

// Overruns returns the number of cycles that took longer than the period.
func (s *Stats) Overruns() int64 {
	return s.overruns.Load()
}
