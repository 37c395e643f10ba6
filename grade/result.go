// Package grade accumulates points and diagnostic messages for a single
// graded function.
package grade

import (
	"fmt"
	"math"
	"strings"
)

// Result accumulates points for one graded function. It is created at
// the start of the function's evaluation, mutated by Award / Deduct /
// Fail while the checks run, and read once the evaluation returns.
type Result struct {
	Name      string
	MaxPoints float64
	Points    float64
	Messages  []string
}

// NewResult creates an empty result worth up to maxPoints.
func NewResult(name string, maxPoints float64) *Result {
	return &Result{Name: name, MaxPoints: maxPoints}
}

// Award adds points, clamped at MaxPoints, and appends an awarded
// message when msg is non empty.
func (r *Result) Award(pts float64, msg string) {
	r.Points = math.Min(r.Points+pts, r.MaxPoints)
	if msg != "" {
		r.Messages = append(r.Messages, fmt.Sprintf("  [+%.1f] %s", pts, msg))
	}
}

// Deduct appends a not-awarded message without changing points.
func (r *Result) Deduct(msg string) {
	r.Messages = append(r.Messages, "  [  ] "+msg)
}

// Fail zeroes the points and replaces all prior messages with a single
// failure message.
func (r *Result) Fail(msg string) {
	r.Points = 0
	r.Messages = []string{"  [FAIL] " + msg}
}

// Status classifies the result: PASS at full points, PARTIAL above zero,
// FAIL otherwise.
func (r *Result) Status() string {
	switch {
	case r.Points == r.MaxPoints:
		return "PASS"
	case r.Points > 0:
		return "PARTIAL"
	default:
		return "FAIL"
	}
}

func (r *Result) String() string {
	header := fmt.Sprintf("[%s] %s: %.1f/%.1f", r.Status(), r.Name, r.Points, r.MaxPoints)
	if len(r.Messages) == 0 {
		return header
	}
	return header + "\n" + strings.Join(r.Messages, "\n")
}

// Record is the machine readable form of a result.
type Record struct {
	Name      string   `json:"name"`
	Points    float64  `json:"points"`
	MaxPoints float64  `json:"max_points"`
	Messages  []string `json:"messages,omitempty"`
}

// Record returns the result with points rounded to two decimals.
func (r *Result) Record() Record {
	return Record{
		Name:      r.Name,
		Points:    round2(r.Points),
		MaxPoints: round2(r.MaxPoints),
		Messages:  r.Messages,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
