package evasion

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"

	"github.com/viam-labs/evasion/logging"
)

func TestStats(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mock := clock.NewMock()
	s := NewStats(mock, 5*time.Millisecond, time.Second, logger)

	s.ObserveCycle(time.Millisecond, true)
	test.That(t, logs.FilterMessage("forces published after a gap").Len(), test.ShouldEqual, 0)

	mock.Add(600 * time.Millisecond)
	s.ObserveCycle(time.Millisecond, false)
	s.ObserveCycle(2*time.Millisecond, true)
	gaps := logs.FilterMessage("forces published after a gap").All()
	test.That(t, gaps, test.ShouldHaveLength, 1)
	test.That(t, gaps[0].ContextMap()["empty_cycles"], test.ShouldEqual, int64(1))
	test.That(t, gaps[0].ContextMap()["gap"], test.ShouldEqual, 600*time.Millisecond)
	test.That(t, logs.FilterMessage("forces published").Len(), test.ShouldEqual, 0)

	mock.Add(600 * time.Millisecond)
	s.ObserveCycle(10*time.Millisecond, true)
	test.That(t, logs.FilterMessage("slow cycle").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("forces published after a gap").Len(), test.ShouldEqual, 2)

	summaries := logs.FilterMessage("forces published").All()
	test.That(t, summaries, test.ShouldHaveLength, 1)
	fields := summaries[0].ContextMap()
	test.That(t, fields["rate_hz"], test.ShouldEqual, 2.5)
	test.That(t, fields["cycle_mean_ms"], test.ShouldEqual, 3.5)
	test.That(t, fields["overruns"], test.ShouldEqual, int64(1))

	test.That(t, s.Cycles(), test.ShouldEqual, 4)
	test.That(t, s.Published(), test.ShouldEqual, 3)
	test.That(t, s.Overruns(), test.ShouldEqual, 1)

	// The window restarts after a summary.
	mock.Add(100 * time.Millisecond)
	s.ObserveCycle(time.Millisecond, true)
	test.That(t, logs.FilterMessage("forces published").Len(), test.ShouldEqual, 1)
}

func TestStatsIdleWindows(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	mock := clock.NewMock()
	s := NewStats(mock, 5*time.Millisecond, 10*time.Second, logger)

	for i := 0; i < 3*maxCycleSamples; i++ {
		s.ObserveCycle(time.Millisecond, false)
	}
	test.That(t, s.durations, test.ShouldHaveLength, maxCycleSamples)

	// An idle window closes on the interval without a summary.
	mock.Add(11 * time.Second)
	s.ObserveCycle(time.Millisecond, false)
	test.That(t, s.durations, test.ShouldBeEmpty)
	test.That(t, logs.FilterMessage("forces published").Len(), test.ShouldEqual, 0)

	for i := 0; i < 10; i++ {
		s.ObserveCycle(2*time.Millisecond, false)
	}
	mock.Add(time.Second)
	s.ObserveCycle(2*time.Millisecond, true)
	gaps := logs.FilterMessage("forces published after a gap").All()
	test.That(t, gaps, test.ShouldHaveLength, 1)
	test.That(t, gaps[0].ContextMap()["gap"], test.ShouldEqual, 12*time.Second)
	test.That(t, gaps[0].ContextMap()["empty_cycles"], test.ShouldEqual, int64(3*maxCycleSamples+11))

	// A window with a publish is summarized even when it ends idle.
	mock.Add(10 * time.Second)
	s.ObserveCycle(2*time.Millisecond, false)
	summaries := logs.FilterMessage("forces published").All()
	test.That(t, summaries, test.ShouldHaveLength, 1)
	test.That(t, summaries[0].ContextMap()["cycle_mean_ms"], test.ShouldEqual, 2.0)
	test.That(t, s.durations, test.ShouldBeEmpty)
	test.That(t, s.Cycles(), test.ShouldEqual, 3*maxCycleSamples+13)
	test.That(t, s.Published(), test.ShouldEqual, 1)
}
