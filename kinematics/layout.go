package kinematics

import (
	"strconv"
	"strings"
	"unicode"
)

// ChainLayout is the naming convention that places broadcast joints on the chain. Joints whose
// name ends in a number k (0 <= k <= Joints) take slot k; slot 0 is the root. The continuing finger
// takes the slot after the last numeric joint; the branch finger hangs off the last numeric joint
// (the hand) instead of the preceding finger.
type ChainLayout struct {
	// JointPrefix, when set, restricts numeric joints to names with this prefix.
	JointPrefix      string
	Joints           int
	ContinuingFinger string
	BranchFinger     string
}

// PandaLayout is the layout of a Franka Panda driver's /tf broadcast.
var PandaLayout = ChainLayout{
	JointPrefix:      "panda_link",
	Joints:           7,
	ContinuingFinger: "panda_leftfinger",
	BranchFinger:     "panda_rightfinger",
}

// Slots returns the number of chain slots including the root.
func (l ChainLayout) Slots() int {
	n := l.Joints + 1
	if l.ContinuingFinger != "" {
		n++
	}
	if l.BranchFinger != "" {
		n++
	}
	return n
}

func (l ChainLayout) continuingSlot() int {
	if l.ContinuingFinger == "" {
		return -1
	}
	return l.Joints + 1
}

func (l ChainLayout) branchSlot() int {
	if l.BranchFinger == "" {
		return -1
	}
	return l.Slots() - 1
}

// Slot returns the chain slot of a broadcast child frame id.
func (l ChainLayout) Slot(childID string) (int, bool) {
	switch {
	case childID == "":
		return 0, false
	case l.ContinuingFinger != "" && childID == l.ContinuingFinger:
		return l.continuingSlot(), true
	case l.BranchFinger != "" && childID == l.BranchFinger:
		return l.branchSlot(), true
	case l.JointPrefix != "" && !strings.HasPrefix(childID, l.JointPrefix):
		return 0, false
	}

	digits := strings.LastIndexFunc(childID, func(r rune) bool { return !unicode.IsDigit(r) }) + 1
	if digits == len(childID) {
		return 0, false
	}
	k, err := strconv.Atoi(childID[digits:])
	if err != nil || k > l.Joints {
		return 0, false
	}
	return k, true
}
