package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

const (
	// DegenerateSegmentEpsilon stands in for the squared length of a zero-length segment.
	DegenerateSegmentEpsilon = 1e-4
	// ParallelThreshold is the magnitude below which D1*D2 - R^2 marks two segments as parallel.
	ParallelThreshold = 1e-3
	// ContactDecimals is the rounding applied to distances and fractions.
	ContactDecimals = 6
)

// SegmentClosest describes the closest approach between a robot segment and a body segment.
type SegmentClosest struct {
	// Distance between the two closest points, rounded to ContactDecimals.
	Distance float64
	// Direction is the unit vector from the body point to the robot point; zero when the
	// segments intersect.
	Direction r3.Vector
	// T is the fraction along the robot segment, U the fraction along the body segment.
	T, U float64
}

// ClosestPointsSegmentSegment returns the closest approach between the robot segment
// [robotStart, robotEnd] and the body segment [bodyStart, bodyEnd]. Zero-length segments get an
// epsilon squared length and a zero fraction; near-parallel segments start the iteration at t = 0.
func ClosestPointsSegmentSegment(robotStart, robotEnd, bodyStart, bodyEnd r3.Vector) SegmentClosest {
	robotSeg := robotEnd.Sub(robotStart)
	bodySeg := bodyEnd.Sub(bodyStart)
	origins := bodyStart.Sub(robotStart)

	d1 := robotSeg.Norm2()
	d2 := bodySeg.Norm2()
	robotDegenerate := d1 == 0
	bodyDegenerate := d2 == 0
	if robotDegenerate {
		d1 = DegenerateSegmentEpsilon
	}
	if bodyDegenerate {
		d2 = DegenerateSegmentEpsilon
	}

	r := robotSeg.Dot(bodySeg)
	s1 := robotSeg.Dot(origins)
	s2 := bodySeg.Dot(origins)

	var t float64
	if denom := d1*d2 - r*r; math.Abs(denom) >= ParallelThreshold {
		t = clamp01((s1*d2 - s2*r) / denom)
	}
	if robotDegenerate {
		t = 0
	}

	u := clamp01((t*r - s2) / d2)
	if bodyDegenerate {
		u = 0
	}

	t = clamp01((u*r + s1) / d1)
	if robotDegenerate {
		t = 0
	}

	diff := robotStart.Add(robotSeg.Mul(t)).Sub(bodyStart.Add(bodySeg.Mul(u)))
	rawDist := diff.Norm()
	dist := Round(rawDist, ContactDecimals)

	closest := SegmentClosest{
		Distance: dist,
		T:        Round(t, ContactDecimals),
		U:        Round(u, ContactDecimals),
	}
	if dist != 0 {
		closest.Direction = diff.Mul(1 / rawDist)
	}
	return closest
}

// DistToLineSegment returns the distance from pt to the segment [segStart, segEnd].
func DistToLineSegment(segStart, segEnd, pt r3.Vector) float64 {
	return ClosestPointsSegmentSegment(segStart, segEnd, pt, pt).Distance
}
