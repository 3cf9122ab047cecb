package event

import "math"

// PointerSampler throttles pointer move events by distance. A move sample is
// reported only when its Euclidean distance from the last *reported*
// position reaches the threshold; samples below the threshold are dropped
// and do not shift the reported position.
//
// Click and scroll events are stamped with the last reported position, not
// the true pointer position. The resulting imprecision is bounded by the
// threshold and is part of the recorded contract: replaying a recording made
// with threshold N may land clicks up to N pixels from where the physical
// pointer was.
type PointerSampler struct {
	threshold float64
	x, y      float64
}

// NewPointerSampler creates a sampler with the given pixel threshold.
// The reported position starts at the origin, so the first move is reported
// once the pointer is at least threshold pixels from (0,0).
func NewPointerSampler(threshold float64) *PointerSampler {
	return &PointerSampler{threshold: threshold}
}

// Sample offers a raw pointer position. It returns true when the position
// should be recorded as a move; in that case the reported position advances.
func (s *PointerSampler) Sample(x, y float64) bool {
	dx := x - s.x
	dy := y - s.y
	if math.Hypot(dx, dy) < s.threshold {
		return false
	}
	s.x, s.y = x, y
	return true
}

// Position returns the last reported pointer position.
func (s *PointerSampler) Position() (int, int) {
	return int(s.x), int(s.y)
}
