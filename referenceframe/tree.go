// Package referenceframe holds the static kinematic tree of the robot: which link hangs off
// which, and the fixed offset between them.
package referenceframe

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/evasion/spatialmath"
)

// World is the reserved name of the world frame, which is never a link of the tree.
const World = "world"

// LinkConfig describes one link and the joint attaching it to its parent.
type LinkConfig struct {
	ID          string
	Parent      string
	JointType   string
	Translation r3.Vector
	Orientation quat.Number
}

type treeLink struct {
	parent    string
	jointType string
	offset    spatialmath.Pose
}

// KinematicTree is a read-only link -> (parent, fixed offset) map with a stable root..tip ordering.
type KinematicTree struct {
	order []string
	links map[string]treeLink
	root  string
}

// NewKinematicTree validates the link configs and builds a tree. Exactly one link must have no
// parent; link order is kept as given.
func NewKinematicTree(configs []LinkConfig) (*KinematicTree, error) {
	if len(configs) == 0 {
		return nil, ErrNoModelInformation
	}

	kt := &KinematicTree{
		order: make([]string, 0, len(configs)),
		links: make(map[string]treeLink, len(configs)),
	}
	for _, cfg := range configs {
		if cfg.ID == "" {
			return nil, errors.New("link with empty name")
		}
		if _, ok := kt.links[cfg.ID]; ok {
			return nil, NewDuplicateLinkError(cfg.ID)
		}
		if cfg.Parent == "" {
			if kt.root != "" {
				return nil, errors.Errorf("links %q and %q both have no parent", kt.root, cfg.ID)
			}
			kt.root = cfg.ID
		}
		kt.order = append(kt.order, cfg.ID)
		kt.links[cfg.ID] = treeLink{
			parent:    cfg.Parent,
			jointType: cfg.JointType,
			offset:    spatialmath.NewPose(cfg.Translation, cfg.Orientation),
		}
	}
	if kt.root == "" {
		return nil, errors.New("kinematic tree has no root link")
	}

	for _, name := range kt.order {
		parent := kt.links[name].parent
		if parent != "" {
			if _, ok := kt.links[parent]; !ok {
				return nil, NewParentLinkNotFoundError(name, parent)
			}
		}
	}
	for _, name := range kt.order {
		// Every walk up the tree must reach the root within len(links) steps.
		steps := 0
		for cur := name; cur != kt.root; cur = kt.links[cur].parent {
			if steps > len(kt.order) {
				return nil, errors.Errorf("link %q is part of a cycle", name)
			}
			steps++
		}
	}
	return kt, nil
}

// Links returns the link names in root..tip order.
func (kt *KinematicTree) Links() []string {
	out := make([]string, len(kt.order))
	copy(out, kt.order)
	return out
}

// Len returns the number of links.
func (kt *KinematicTree) Len() int {
	return len(kt.order)
}

// Root returns the name of the root link.
func (kt *KinematicTree) Root() string {
	return kt.root
}

// Has reports whether name is a link of the tree.
func (kt *KinematicTree) Has(name string) bool {
	_, ok := kt.links[name]
	return ok
}

// Parent returns the parent of a link; the root has an empty parent.
func (kt *KinematicTree) Parent(name string) (string, error) {
	link, ok := kt.links[name]
	if !ok {
		return "", NewLinkNotFoundError(name)
	}
	return link.parent, nil
}

// Offset returns the fixed offset of a link relative to its parent.
func (kt *KinematicTree) Offset(name string) (spatialmath.Pose, error) {
	link, ok := kt.links[name]
	if !ok {
		return spatialmath.Pose{}, NewLinkNotFoundError(name)
	}
	return link.offset, nil
}

// JointType returns the URDF joint type attaching the link to its parent.
func (kt *KinematicTree) JointType(name string) (string, error) {
	link, ok := kt.links[name]
	if !ok {
		return "", NewLinkNotFoundError(name)
	}
	return link.jointType, nil
}

// Ancestors returns the ancestors of a link, nearest first, ending with the root.
func (kt *KinematicTree) Ancestors(name string) ([]string, error) {
	link, ok := kt.links[name]
	if !ok {
		return nil, NewLinkNotFoundError(name)
	}
	var out []string
	for parent := link.parent; parent != ""; parent = kt.links[parent].parent {
		out = append(out, parent)
	}
	return out, nil
}
