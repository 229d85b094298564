package collision

import (
	"github.com/golang/geo/r3"

	"github.com/viam-labs/evasion/spatialmath"
)

// WrapSentinel is the distance given to the grid cell whose rolled segment joins the two ends of
// the longer chain. It is large enough never to be a real minimum.
const WrapSentinel = 10.0

type gridCell struct {
	spatialmath.SegmentClosest
	robotSegment int
	bodySegment  int
	wrap         bool
}

// distanceGrid holds every alignment of the longer chain against the shorter one. Row i pairs
// segment (i+j) mod P of the rolled chain with segment j of the static chain, so each of the P
// rows has Q-1 cells.
type distanceGrid struct {
	rows, cols  int
	robotRolled bool
	cells       [][]gridCell
}

// padChain turns a lone point into a zero-length segment so it is still measured.
func padChain(chain []r3.Vector) []r3.Vector {
	if len(chain) == 1 {
		return []r3.Vector{chain[0], chain[0]}
	}
	return chain
}

func newDistanceGrid(body, robot []r3.Vector) *distanceGrid {
	body = padChain(body)
	robot = padChain(robot)
	if len(body) < 2 || len(robot) < 2 {
		return &distanceGrid{}
	}

	rolled, static := robot, body
	robotRolled := true
	if len(body) > len(robot) {
		rolled, static = body, robot
		robotRolled = false
	}
	p := len(rolled)
	g := &distanceGrid{
		rows:        p,
		cols:        len(static) - 1,
		robotRolled: robotRolled,
		cells:       make([][]gridCell, p),
	}

	for i := 0; i < p; i++ {
		g.cells[i] = make([]gridCell, g.cols)
		for j := 0; j < g.cols; j++ {
			a := (i + j) % p
			cell := &g.cells[i][j]
			if robotRolled {
				cell.robotSegment, cell.bodySegment = a, j
			} else {
				cell.robotSegment, cell.bodySegment = j, a
			}
			if a == p-1 {
				cell.wrap = true
				cell.Distance = WrapSentinel
				continue
			}

			rolledStart, rolledEnd := rolled[a], rolled[a+1]
			if robotRolled {
				cell.SegmentClosest = spatialmath.ClosestPointsSegmentSegment(rolledStart, rolledEnd, static[j], static[j+1])
			} else {
				cell.SegmentClosest = spatialmath.ClosestPointsSegmentSegment(static[j], static[j+1], rolledStart, rolledEnd)
			}
		}
	}
	return g
}
