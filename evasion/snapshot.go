package evasion

import (
	"github.com/golang/geo/r3"

	"github.com/viam-labs/evasion/bodytrack"
	"github.com/viam-labs/evasion/collision"
)

// SkeletonSnapshot is the geometry of one cycle, for drawing.
type SkeletonSnapshot struct {
	Subject int
	Arms    []r3.Vector
	Trunk   []r3.Vector
	Robot   []r3.Vector
	// Contacts are the records that produced force this cycle.
	Contacts []collision.Record
}

// Visualizer receives a snapshot after every cycle with an active subject. It runs on the cycle
// goroutine and must not block.
type Visualizer func(SkeletonSnapshot)

func newSnapshot(track bodytrack.Track, robot []r3.Vector, records []collision.Record) SkeletonSnapshot {
	snap := SkeletonSnapshot{
		Subject:  track.ID,
		Robot:    append([]r3.Vector(nil), robot...),
		Contacts: append([]collision.Record(nil), records...),
	}
	for _, chain := range track.Chains() {
		switch chain.Name {
		case bodytrack.ArmsChain:
			snap.Arms = chain.Points
		case bodytrack.TrunkChain:
			snap.Trunk = chain.Points
		}
	}
	return snap
}
