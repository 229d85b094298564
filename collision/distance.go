// Package collision measures how close the robot's link chain comes to a tracked body chain.
package collision

import (
	"sort"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Record is one segment pair closer than the safety radius.
type Record struct {
	Distance float64
	// Direction is the unit vector from the body towards the robot; zero on intersection.
	Direction r3.Vector
	// T and U are the fractions along the robot and body segments, always below 1.
	T, U         float64
	RobotSegment int
	BodySegment  int
	// Chain names the body chain the record was measured against.
	Chain string
}

// DistancePairs returns every robot/body segment pair closer than maxDist, sorted by distance
// then robot segment then body segment. A contact at the far end of a segment is reported at the
// near end of the next one, and duplicate records are removed.
func DistancePairs(body, robot []r3.Vector, maxDist float64) []Record {
	g := newDistanceGrid(body, robot)
	var records []Record
	for _, row := range g.cells {
		for _, cell := range row {
			if cell.wrap || !(cell.Distance < maxDist) {
				continue
			}
			rec := Record{
				Distance:     cell.Distance,
				Direction:    cell.Direction,
				T:            cell.T,
				U:            cell.U,
				RobotSegment: cell.robotSegment,
				BodySegment:  cell.bodySegment,
			}
			if rec.T == 1 {
				rec.RobotSegment++
				rec.T = 0
			}
			if rec.U == 1 {
				rec.BodySegment++
				rec.U = 0
			}
			records = append(records, rec)
		}
	}
	records = lo.Uniq(records)
	SortRecords(records)
	return records
}

// SortRecords orders records by distance, robot segment, body segment then fractions.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		switch {
		case a.Distance != b.Distance:
			return a.Distance < b.Distance
		case a.RobotSegment != b.RobotSegment:
			return a.RobotSegment < b.RobotSegment
		case a.BodySegment != b.BodySegment:
			return a.BodySegment < b.BodySegment
		case a.T != b.T:
			return a.T < b.T
		default:
			return a.U < b.U
		}
	})
}

// Selection decides which records of a cycle produce force.
type Selection string

// The available selections.
const (
	// SelectAll keeps every record under the safety radius.
	SelectAll Selection = "all"
	// SelectNearest keeps only the records at the smallest distance.
	SelectNearest Selection = "nearest"
)

// ParseSelection parses a selection name; the empty string is SelectAll.
func ParseSelection(s string) (Selection, error) {
	switch Selection(s) {
	case "", SelectAll:
		return SelectAll, nil
	case SelectNearest:
		return SelectNearest, nil
	default:
		return "", errors.Errorf("unknown record selection %q", s)
	}
}

// Apply filters records according to the selection. The input is not modified.
func (s Selection) Apply(records []Record) []Record {
	if s != SelectNearest || len(records) == 0 {
		return records
	}
	nearest := lo.MinBy(records, func(a, b Record) bool { return a.Distance < b.Distance }).Distance
	return lo.Filter(records, func(r Record, _ int) bool { return r.Distance == nearest })
}

// Segments returns the robot segments of the records in ascending order.
func Segments(records []Record) []int {
	segs := lo.Uniq(lo.Map(records, func(r Record, _ int) int { return r.RobotSegment }))
	sort.Ints(segs)
	return segs
}
