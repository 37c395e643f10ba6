// Package tablediff provides functions to compare numeric tables within
// configurable tolerances and report partial correctness.
//
// The package blends two separately scored criteria: agreement of the
// missing-cell (NaN) patterns, and agreement of the overlapping numeric
// values. A comparison never panics past the package boundary.
package tablediff

import (
	"math"

	"github.com/criyle/go-grader/frame"
)

// Comparator holds the tolerance parameters for a comparison.
// Two values a (student) and b (reference) are close iff
// |a-b| <= ATol + RTol*|b|.
type Comparator struct {
	RTol float64
	ATol float64
}

// Compare compares the student table against the reference table.
//
// allClose is true only if the tables share a shape, the NaN patterns are
// identical and every overlapping value is within tolerance. fracClose is
// a partial credit score in [0, 1]: half for the fraction of cells whose
// NaN state agrees, half for the fraction of overlapping values within
// tolerance. A shape mismatch scores (false, 0) with no partial credit.
func (c Comparator) Compare(student, ref *frame.Frame) (allClose bool, fracClose float64) {
	// a malformed frame (ragged rows, nil data) must report as wrong,
	// not take down the caller
	defer func() {
		if recover() != nil {
			allClose, fracClose = false, 0
		}
	}()

	if student == nil || ref == nil {
		return false, 0
	}
	sr, sc := student.Shape()
	rr, rc := ref.Shape()
	if sr != rr || sc != rc {
		return false, 0
	}

	total := rr * rc
	nanAgree := 0
	nanMatch := true
	overlap := 0
	closeCount := 0
	for i := 0; i < rr; i++ {
		for j := 0; j < rc; j++ {
			sv, rv := student.Data[i][j], ref.Data[i][j]
			sNaN, rNaN := math.IsNaN(sv), math.IsNaN(rv)
			if sNaN == rNaN {
				nanAgree++
			} else {
				nanMatch = false
			}
			if !sNaN && !rNaN {
				overlap++
				if Close(sv, rv, c.RTol, c.ATol) {
					closeCount++
				}
			}
		}
	}

	// exactly 1.0 when the masks agree, avoiding round off from the mean
	nanFrac := 1.0
	if !nanMatch {
		nanFrac = float64(nanAgree) / float64(total)
	}

	// no numeric overlap: judged purely on the missing pattern
	if overlap == 0 {
		return nanMatch, nanFrac
	}

	valFrac := float64(closeCount) / float64(overlap)
	return nanMatch && valFrac == 1.0, 0.5*nanFrac + 0.5*valFrac
}

// CompareSeries compares two 1D series with the same semantics as
// Compare, by reducing each to a single column table.
func (c Comparator) CompareSeries(student, ref *frame.Series) (bool, float64) {
	if student == nil || ref == nil {
		return false, 0
	}
	return c.Compare(student.Frame(), ref.Frame())
}

// Close reports whether a is within tolerance of the reference value b.
// NaN is never close to anything; equal infinities are close.
func Close(a, b, rtol, atol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a == b
	}
	return math.Abs(a-b) <= atol+rtol*math.Abs(b)
}
