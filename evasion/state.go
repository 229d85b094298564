// Package evasion ties body tracking, robot kinematics, distance measurement and force
// propagation into the control cycle of a human-aware robot arm.
package evasion

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/viam-labs/evasion/bodytrack"
	"github.com/viam-labs/evasion/collision"
	"github.com/viam-labs/evasion/config"
	"github.com/viam-labs/evasion/kinematics"
	"github.com/viam-labs/evasion/logging"
	"github.com/viam-labs/evasion/referenceframe"
	"github.com/viam-labs/evasion/repulsion"
)

// CycleResult describes one run of the distance and force pipeline.
type CycleResult struct {
	Evicted   []int
	Subject   int
	Active    bool
	Records   []collision.Record
	Message   repulsion.ForceMessage
	Published bool
}

// State is the application state shared by the keypoint, transform and cycle handlers. It is not
// safe for concurrent use; Service serializes every call.
type State struct {
	cfg        *config.Config
	logger     logging.Logger
	clock      clock.Clock
	tracker    *bodytrack.Tracker
	propagator *repulsion.Propagator
	selection  collision.Selection
	stats      *Stats
	visualizer Visualizer

	// resolver is nil until the robot description has been loaded.
	resolver *kinematics.Resolver
	pose     *kinematics.RobotPose
}

// StateOption configures a State.
type StateOption func(*State)

// WithVisualizer hands every cycle's geometry to v.
func WithVisualizer(v Visualizer) StateOption {
	return func(s *State) {
		s.visualizer = v
	}
}

// NewState builds the application state from a validated config.
func NewState(
	cfg *config.Config,
	publisher repulsion.Publisher,
	clk clock.Clock,
	logger logging.Logger,
	opts ...StateOption,
) (*State, error) {
	if err := cfg.Validate("evasion"); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	trackerCfg := cfg.Tracker()
	trackerCfg.Clock = clk

	s := &State{
		cfg:        cfg,
		logger:     logger,
		clock:      clk,
		tracker:    bodytrack.NewTracker(trackerCfg, logger.Sublogger("tracker")),
		propagator: repulsion.NewPropagator(policy, publisher, logger.Sublogger("forces")),
		selection:  cfg.RecordSelection(),
		stats:      NewStats(clk, cfg.CyclePeriod(), cfg.StatsInterval(), logger.Sublogger("stats")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoadTree parses a URDF robot description and readies the pose resolver.
func (s *State) LoadTree(description []byte) error {
	tree, err := referenceframe.ParseURDF(description)
	if err != nil {
		return errors.Wrap(err, "loading robot description")
	}
	return s.SetTree(tree)
}

// SetTree readies the pose resolver for an already parsed tree.
func (s *State) SetTree(tree *referenceframe.KinematicTree) error {
	opts := []kinematics.ResolverOption{kinematics.WithLogger(s.logger.Sublogger("kinematics"))}
	if s.cfg.ComposeStaticOffsets {
		opts = append(opts, kinematics.WithStaticOffsets())
	}
	resolver, err := kinematics.NewResolver(tree, s.cfg.Layout(), opts...)
	if err != nil {
		return err
	}
	s.resolver = resolver
	s.pose = nil
	s.logger.Infow("robot model loaded", "links", tree.Len(), "root", tree.Root())
	return nil
}

// TreeLoaded reports whether the robot description has been loaded.
func (s *State) TreeLoaded() bool {
	return s.resolver != nil
}

// HandleKeypoints ingests one keypoint batch.
func (s *State) HandleKeypoints(rows [][]float64) error {
	return s.tracker.IngestBatch(rows)
}

// HandleTransforms resolves one transform batch into the current robot pose.
func (s *State) HandleTransforms(batch []kinematics.TransformSample) error {
	if s.resolver == nil {
		return kinematics.ErrTreeNotLoaded
	}
	pose := s.resolver.Resolve(batch)
	if len(pose.Ignored) > 0 {
		s.logger.Debugw("ignored transforms outside the chain", "children", pose.Ignored)
	}
	s.pose = pose
	return nil
}

// Pose returns the last resolved robot pose, or nil.
func (s *State) Pose() *kinematics.RobotPose {
	return s.pose
}

// Tracker returns the body tracker.
func (s *State) Tracker() *bodytrack.Tracker {
	return s.tracker
}

// Stats returns the cycle diagnostics.
func (s *State) Stats() *Stats {
	return s.stats
}

// RunCycle runs the distance and force pipeline once.
func (s *State) RunCycle(ctx context.Context) error {
	_, err := s.Cycle(ctx)
	return err
}

// Cycle evicts stale bodies, measures the active body against the robot and publishes the
// resulting forces when any is nonzero.
func (s *State) Cycle(ctx context.Context) (CycleResult, error) {
	start := s.clock.Now()
	res := CycleResult{Evicted: s.tracker.EvictStale()}
	defer func() {
		s.stats.ObserveCycle(s.clock.Since(start), res.Published)
	}()

	track, ok := s.tracker.SelectActive()
	if !ok || s.pose == nil {
		return res, nil
	}
	res.Subject, res.Active = track.ID, true

	robot := s.pose.Positions
	var records []collision.Record
	for _, chain := range track.Chains() {
		for _, rec := range collision.DistancePairs(chain.Points, robot, s.cfg.MaxDist) {
			rec.Chain = chain.Name
			records = append(records, rec)
		}
	}
	collision.SortRecords(records)
	res.Records = s.selection.Apply(records)
	if s.visualizer != nil {
		s.visualizer(newSnapshot(track, robot, res.Records))
	}

	msg, published, err := s.propagator.Propagate(ctx, res.Records, robot)
	res.Message, res.Published = msg, published
	return res, err
}
