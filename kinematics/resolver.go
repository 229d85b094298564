// Package kinematics resolves absolute robot link poses from a stream of relative joint
// transforms by forward kinematics over a static kinematic tree.
package kinematics

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/viam-labs/evasion/logging"
	"github.com/viam-labs/evasion/referenceframe"
	"github.com/viam-labs/evasion/spatialmath"
)

// ErrTreeNotLoaded is returned when forward kinematics is attempted before the robot
// description has been received.
var ErrTreeNotLoaded = errors.New("kinematic tree not loaded")

// RobotPose is the resolved pose of every link of the tree for one transform batch.
type RobotPose struct {
	// Links and Positions are in tree order, root..tip.
	Links     []string
	Positions []r3.Vector
	// Axes are the +Z axes of the numeric chain joints, joint 1 first.
	Axes  []r3.Vector
	Poses map[string]spatialmath.Pose
	// Ignored lists child ids of the batch that matched no chain slot.
	Ignored []string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStaticOffsets makes links without an observation compose their fixed offset onto their
// parent's pose instead of inheriting the nearest resolved ancestor's pose unchanged.
func WithStaticOffsets() ResolverOption {
	return func(r *Resolver) {
		r.composeStaticOffsets = true
	}
}

// WithLogger sets the logger the resolver reports mismatched broadcasts to. Without it the global
// logger is used.
func WithLogger(logger logging.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// Resolver composes relative joint transforms root→tip.
type Resolver struct {
	tree                 *referenceframe.KinematicTree
	layout               ChainLayout
	composeStaticOffsets bool
	logger               logging.Logger
}

// NewResolver returns a resolver over tree. The tree is a precondition: callers must wait for the
// robot description before constructing one.
func NewResolver(tree *referenceframe.KinematicTree, layout ChainLayout, opts ...ResolverOption) (*Resolver, error) {
	if tree == nil {
		return nil, ErrTreeNotLoaded
	}
	if layout.Joints < 1 {
		return nil, errors.Errorf("chain layout needs at least one joint, got %d", layout.Joints)
	}
	r := &Resolver{tree: tree, layout: layout}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logging.Global()
	}
	return r, nil
}

// Tree returns the static tree the resolver overlays onto.
func (r *Resolver) Tree() *referenceframe.KinematicTree {
	return r.tree
}

// Resolve composes one batch of relative transforms into absolute poses. Slots without a sample
// in the batch compose as identity.
func (r *Resolver) Resolve(batch []TransformSample) *RobotPose {
	slots := r.layout.Slots()
	rel := make([]spatialmath.Pose, slots)
	names := make([]string, slots)
	for i := range rel {
		rel[i] = spatialmath.NewZeroPose()
	}

	pose := &RobotPose{Poses: make(map[string]spatialmath.Pose, r.tree.Len())}
	for _, sample := range batch {
		slot, ok := r.layout.Slot(sample.ChildID)
		if !ok {
			pose.Ignored = append(pose.Ignored, sample.ChildID)
			continue
		}
		rel[slot] = sample.Pose()
		names[slot] = sample.ChildID
	}

	abs := make([]spatialmath.Pose, slots)
	abs[0] = rel[0]
	last := r.layout.Joints
	if cont := r.layout.continuingSlot(); cont > 0 {
		last = cont
	}
	for i := 1; i <= last; i++ {
		abs[i] = spatialmath.Compose(abs[i-1], rel[i])
	}
	if branch := r.layout.branchSlot(); branch > 0 {
		hand := abs[r.layout.Joints]
		abs[branch] = spatialmath.Pose{
			Point:       hand.Point.Add(spatialmath.RotateVector(hand.Orientation, rel[branch].Point)),
			Orientation: hand.Orientation,
		}
	}

	pose.Axes = make([]r3.Vector, r.layout.Joints)
	for i := range pose.Axes {
		pose.Axes[i] = abs[i+1].ZAxis()
	}

	resolved := make(map[string]spatialmath.Pose, slots)
	matched := 0
	for i, name := range names {
		if name == "" {
			continue
		}
		resolved[name] = abs[i]
		if r.tree.Has(name) {
			matched++
		}
	}
	if len(resolved) > 0 && matched == 0 {
		r.logger.Warnw("no broadcast frame matches a link of the robot model",
			"frames", len(resolved), "root", r.tree.Root())
	}
	r.overlay(resolved, pose)
	return pose
}

// overlay places resolved poses onto the tree. An unobserved link takes its nearest resolved
// ancestor's pose, or composes its fixed offset onto its parent when static offsets are enabled.
func (r *Resolver) overlay(resolved map[string]spatialmath.Pose, pose *RobotPose) {
	var poseOf func(name string) spatialmath.Pose
	poseOf = func(name string) spatialmath.Pose {
		if p, ok := pose.Poses[name]; ok {
			return p
		}
		if p, ok := resolved[name]; ok {
			pose.Poses[name] = p
			return p
		}
		//nolint:errcheck
		parent, _ := r.tree.Parent(name)
		p := spatialmath.NewZeroPose()
		if parent != "" {
			p = poseOf(parent)
			if r.composeStaticOffsets {
				//nolint:errcheck
				offset, _ := r.tree.Offset(name)
				p = spatialmath.Compose(p, offset)
			}
		}
		pose.Poses[name] = p
		return p
	}

	pose.Links = r.tree.Links()
	pose.Positions = make([]r3.Vector, len(pose.Links))
	for i, name := range pose.Links {
		pose.Positions[i] = poseOf(name).Point
	}
}
