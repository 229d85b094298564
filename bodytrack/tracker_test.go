package bodytrack

import (
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/viam-labs/evasion/logging"
)

func newTestTracker(t *testing.T, cfg Config) (*Tracker, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	cfg.Clock = mock
	return NewTracker(cfg, logging.NewTestLogger(t)), mock
}

func TestIngestDropsNonFinite(t *testing.T) {
	tracker, _ := newTestTracker(t, Config{Offset: r3.Vector{Z: 1}})
	err := tracker.Ingest(3, LeftArm, []r3.Vector{
		{X: 1},
		{X: math.NaN()},
		{Y: math.Inf(1)},
		{X: 2},
	})
	test.That(t, err, test.ShouldBeNil)

	track, ok := tracker.SelectActive()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, track.ID, test.ShouldEqual, 3)
	test.That(t, track.Limb(LeftArm), test.ShouldResemble, []r3.Vector{{X: 1, Z: 1}, {X: 2, Z: 1}})
	test.That(t, track.Limb(Trunk), test.ShouldBeEmpty)

	err = tracker.Ingest(3, LimbID(7), nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown limb")
}

func TestIngestBatch(t *testing.T) {
	tracker, _ := newTestTracker(t, Config{})
	err := tracker.IngestBatch([][]float64{
		{2, 0, 0, 0, 0},
		{2, 0, 0, 0, 1},
		{2, 2, 1, 1, 1},
		{1, 0, 5, 5, 5},
		{2, 0, 0, 0, 2},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tracker.IDs(), test.ShouldResemble, []int{1, 2})

	track, ok := tracker.SelectActive()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, track.ID, test.ShouldEqual, 1)

	tracker.EvictStale()
	err = tracker.IngestBatch([][]float64{
		{1, 0, 0, 0},
		{math.NaN(), 0, 0, 0, 0},
		{1.5, 0, 0, 0, 0},
		{1e300, 0, 0, 0, 0},
		{1, 9, 0, 0, 0},
		{4, 1, 0, 0, 0},
	})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected 5 columns")
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown limb")
	test.That(t, err.Error(), test.ShouldContainSubstring, "row 3: body and limb ids must be integers")
	// The well-formed row still lands.
	test.That(t, tracker.IDs(), test.ShouldResemble, []int{1, 2, 4})
}

func TestIngestBatchGroupsPerLimb(t *testing.T) {
	tracker, _ := newTestTracker(t, Config{})
	test.That(t, tracker.IngestBatch([][]float64{
		{0, 0, 0, 0, 0},
		{0, 1, 1, 0, 0},
		{0, 0, 0, 0, 1},
	}), test.ShouldBeNil)
	track, ok := tracker.SelectActive()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, track.Limb(LeftArm), test.ShouldResemble, []r3.Vector{{}, {Z: 1}})
	test.That(t, track.Limb(RightArm), test.ShouldResemble, []r3.Vector{{X: 1}})

	// A later batch replaces only the limbs it carries.
	test.That(t, tracker.IngestBatch([][]float64{{0, 1, 2, 0, 0}}), test.ShouldBeNil)
	track, _ = tracker.SelectActive()
	test.That(t, track.Limb(LeftArm), test.ShouldHaveLength, 2)
	test.That(t, track.Limb(RightArm), test.ShouldResemble, []r3.Vector{{X: 2}})
}

func TestFreshnessWindow(t *testing.T) {
	tracker, mock := newTestTracker(t, Config{})
	test.That(t, tracker.Ingest(1, LeftArm, []r3.Vector{{}}), test.ShouldBeNil)
	mock.Add(15 * time.Millisecond)
	test.That(t, tracker.Ingest(2, LeftArm, []r3.Vector{{}}), test.ShouldBeNil)

	track, ok := tracker.SelectActive()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, track.ID, test.ShouldEqual, 1)

	mock.Add(10 * time.Millisecond)
	track, ok = tracker.SelectActive()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, track.ID, test.ShouldEqual, 2)
	test.That(t, tracker.EvictStale(), test.ShouldResemble, []int{1})
	test.That(t, tracker.Len(), test.ShouldEqual, 1)

	mock.Add(DefaultFreshnessWindow)
	_, ok = tracker.SelectActive()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, tracker.EvictStale(), test.ShouldResemble, []int{2})
	test.That(t, tracker.EvictStale(), test.ShouldBeEmpty)
}

func TestEvictWithoutLeftArm(t *testing.T) {
	tracker, _ := newTestTracker(t, Config{})
	test.That(t, tracker.Ingest(1, Trunk, []r3.Vector{{}, {Z: 1}}), test.ShouldBeNil)
	test.That(t, tracker.Ingest(2, LeftArm, []r3.Vector{{X: math.NaN()}}), test.ShouldBeNil)
	test.That(t, tracker.Ingest(3, LeftArm, []r3.Vector{{}}), test.ShouldBeNil)
	test.That(t, tracker.EvictStale(), test.ShouldResemble, []int{1, 2})
	test.That(t, tracker.IDs(), test.ShouldResemble, []int{3})
}

func TestMostRecentPolicy(t *testing.T) {
	policy, err := ParseSelectionPolicy("most_recent")
	test.That(t, err, test.ShouldBeNil)
	tracker, mock := newTestTracker(t, Config{Policy: policy})
	test.That(t, tracker.Ingest(1, LeftArm, []r3.Vector{{}}), test.ShouldBeNil)
	mock.Add(time.Millisecond)
	test.That(t, tracker.Ingest(5, LeftArm, []r3.Vector{{}}), test.ShouldBeNil)
	test.That(t, tracker.Ingest(4, LeftArm, []r3.Vector{{}}), test.ShouldBeNil)

	track, ok := tracker.SelectActive()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, track.ID, test.ShouldEqual, 4)

	_, err = ParseSelectionPolicy("oldest")
	test.That(t, err, test.ShouldNotBeNil)
	policy, err = ParseSelectionPolicy("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, policy, test.ShouldEqual, LowestID)
}

func TestTrackChains(t *testing.T) {
	track := Track{ID: 1}
	track.Limbs[LeftArm] = []r3.Vector{{X: -1}, {X: -2}, {X: -3}}
	track.Limbs[RightArm] = []r3.Vector{{X: 1}, {X: 2}}
	track.Limbs[Trunk] = []r3.Vector{{Z: 1}, {}}

	chains := track.Chains()
	test.That(t, chains, test.ShouldHaveLength, 2)
	test.That(t, chains[0].Name, test.ShouldEqual, ArmsChain)
	test.That(t, chains[0].Points, test.ShouldResemble, []r3.Vector{{X: -3}, {X: -2}, {X: -1}, {X: 1}, {X: 2}})
	test.That(t, chains[1].Name, test.ShouldEqual, TrunkChain)
	test.That(t, chains[1].Points, test.ShouldResemble, track.Limbs[Trunk])
	// The track itself is untouched.
	test.That(t, track.Limbs[LeftArm][0], test.ShouldResemble, r3.Vector{X: -1})
	test.That(t, LimbID(9).String(), test.ShouldEqual, "limb(9)")
}

func TestIntegral(t *testing.T) {
	for _, tc := range []struct {
		in   float64
		want int
		ok   bool
	}{
		{3, 3, true},
		{-2, -2, true},
		{0.5, 0, false},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
		{1e300, 0, false},
		{-1e300, 0, false},
		{-float64(math.MinInt), 0, false},
		{float64(math.MinInt), math.MinInt, true},
	} {
		got, ok := integral(tc.in)
		test.That(t, ok, test.ShouldEqual, tc.ok)
		test.That(t, got, test.ShouldEqual, tc.want)
	}
}
