package bodytrack

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/viam-labs/evasion/logging"
	"github.com/viam-labs/evasion/spatialmath"
)

// DefaultFreshnessWindow is how long a subject stays selectable without an update. Keypoints
// arrive at about 50 Hz.
const DefaultFreshnessWindow = 20 * time.Millisecond

// KeypointRowWidth is the width of a keypoint row: body id, limb id, x, y, z.
const KeypointRowWidth = 5

// SelectionPolicy decides which fresh subject is active when several are tracked.
type SelectionPolicy string

// The available selection policies.
const (
	// LowestID picks the smallest subject id, which is the longest-tracked subject for trackers that
	// hand out increasing ids.
	LowestID SelectionPolicy = "lowest_id"
	// MostRecent picks the most recently updated subject, lowest id first on ties.
	MostRecent SelectionPolicy = "most_recent"
)

// ParseSelectionPolicy parses a policy name; the empty string is LowestID.
func ParseSelectionPolicy(s string) (SelectionPolicy, error) {
	switch SelectionPolicy(s) {
	case "", LowestID:
		return LowestID, nil
	case MostRecent:
		return MostRecent, nil
	default:
		return "", errors.Errorf("unknown subject selection policy %q", s)
	}
}

// Config configures a Tracker. Zero values take defaults.
type Config struct {
	FreshnessWindow time.Duration
	// Offset is added to every ingested keypoint.
	Offset r3.Vector
	Policy SelectionPolicy
	Clock  clock.Clock
}

// Tracker holds the body tracks. It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	tracks    map[int]*Track
	freshness time.Duration
	offset    r3.Vector
	policy    SelectionPolicy
	clock     clock.Clock
	logger    logging.Logger
}

// NewTracker returns an empty tracker.
func NewTracker(cfg Config, logger logging.Logger) *Tracker {
	t := &Tracker{
		tracks:    map[int]*Track{},
		freshness: cfg.FreshnessWindow,
		offset:    cfg.Offset,
		policy:    cfg.Policy,
		clock:     cfg.Clock,
		logger:    logger,
	}
	if t.freshness <= 0 {
		t.freshness = DefaultFreshnessWindow
	}
	if t.policy == "" {
		t.policy = LowestID
	}
	if t.clock == nil {
		t.clock = clock.New()
	}
	return t
}

// Ingest replaces one limb polyline of a subject, creating the subject on first sighting. Points
// are shifted by the configured offset and points with non-finite coordinates are dropped.
func (t *Tracker) Ingest(bodyID int, limb LimbID, points []r3.Vector) error {
	if !limb.valid() {
		return errors.Errorf("body %d: unknown limb id %d", bodyID, int(limb))
	}
	kept := make([]r3.Vector, 0, len(points))
	for _, pt := range points {
		pt = pt.Add(t.offset)
		if spatialmath.VectorIsFinite(pt) {
			kept = append(kept, pt)
		}
	}
	if dropped := len(points) - len(kept); dropped > 0 {
		t.logger.Debugw("dropped non-finite keypoints", "body", bodyID, "limb", limb, "dropped", dropped)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	track, ok := t.tracks[bodyID]
	if !ok {
		track = &Track{ID: bodyID}
		t.tracks[bodyID] = track
		t.logger.Debugw("new body", "body", bodyID)
	}
	track.Limbs[limb] = kept
	track.Updated = t.clock.Now()
	return nil
}

type groupKey struct {
	body int
	limb LimbID
}

// IngestBatch ingests keypoint rows of [bodyId, limbId, x, y, z]. Rows are grouped per body and
// limb in order of first appearance, so each group replaces that limb's polyline. Rows with a
// malformed shape or id are skipped and reported in the returned error.
func (t *Tracker) IngestBatch(rows [][]float64) error {
	var errs error
	var order []groupKey
	groups := map[groupKey][]r3.Vector{}
	for i, row := range rows {
		if len(row) != KeypointRowWidth {
			errs = multierr.Append(errs, errors.Errorf("row %d: expected %d columns, got %d", i, KeypointRowWidth, len(row)))
			continue
		}
		body, okBody := integral(row[0])
		limb, okLimb := integral(row[1])
		if !okBody || !okLimb {
			errs = multierr.Append(errs, errors.Errorf("row %d: body and limb ids must be integers, got %v, %v", i, row[0], row[1]))
			continue
		}
		key := groupKey{body: body, limb: LimbID(limb)}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r3.Vector{X: row[2], Y: row[3], Z: row[4]})
	}
	for _, key := range order {
		errs = multierr.Append(errs, t.Ingest(key.body, key.limb, groups[key]))
	}
	return errs
}

// integral converts f to an int when it is a whole number the int type can hold.
func integral(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	// -math.MinInt is the first whole float past math.MaxInt.
	if f < math.MinInt || f >= -math.MinInt {
		return 0, false
	}
	return int(f), true
}

// EvictStale removes subjects older than the freshness window or without a left-arm polyline and
// returns their ids in ascending order.
func (t *Tracker) EvictStale() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	var evicted []int
	for id, track := range t.tracks {
		if now.Sub(track.Updated) > t.freshness || len(track.Limbs[LeftArm]) == 0 {
			evicted = append(evicted, id)
			delete(t.tracks, id)
		}
	}
	sort.Ints(evicted)
	if len(evicted) > 0 {
		t.logger.Debugw("evicted bodies", "bodies", evicted)
	}
	return evicted
}

// SelectActive returns a copy of the subject to react to among those updated within the freshness
// window, or false if there is none.
func (t *Tracker) SelectActive() (Track, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock.Now()
	fresh := lo.Filter(lo.Values(t.tracks), func(track *Track, _ int) bool {
		return now.Sub(track.Updated) <= t.freshness
	})
	if len(fresh) == 0 {
		return Track{}, false
	}

	var best *Track
	switch t.policy {
	case MostRecent:
		best = lo.MaxBy(fresh, func(a, b *Track) bool {
			if a.Updated.Equal(b.Updated) {
				return a.ID < b.ID
			}
			return a.Updated.After(b.Updated)
		})
	default:
		best = lo.MinBy(fresh, func(a, b *Track) bool { return a.ID < b.ID })
	}
	return best.clone(), true
}

// Len returns the number of tracked subjects.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.tracks)
}

// IDs returns the tracked subject ids in ascending order.
func (t *Tracker) IDs() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := lo.Keys(t.tracks)
	sort.Ints(ids)
	return ids
}
