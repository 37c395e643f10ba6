package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/criyle/go-grader/grade"
)

// Summary is the machine readable grading outcome written after all
// functions are evaluated.
type Summary struct {
	Total        float64        `json:"total"`
	MaxTotal     float64        `json:"max_total"`
	LookbackDays int            `json:"lookback_days"`
	Tests        []grade.Record `json:"tests"`
}

// Summarize folds per function results into a summary.
func Summarize(results []*grade.Result, lookback int) *Summary {
	s := &Summary{LookbackDays: lookback, Tests: make([]grade.Record, 0, len(results))}
	for _, r := range results {
		s.Total += r.Points
		s.MaxTotal += r.MaxPoints
		s.Tests = append(s.Tests, r.Record())
	}
	s.Total = math.Round(s.Total*100) / 100
	s.MaxTotal = math.Round(s.MaxTotal*100) / 100
	return s
}

// Perfect reports whether every point was earned. The process exit
// status is derived from it.
func (s *Summary) Perfect() bool {
	return s.Total >= s.MaxTotal
}

// WriteFile serializes the summary as an indented JSON document.
func (s *Summary) WriteFile(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// PrintReport writes the human readable grading report.
func PrintReport(w io.Writer, results []*grade.Result, lookback int) {
	line := strings.Repeat("=", 60)
	thin := strings.Repeat("-", 60)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "  Autograder - Time Series Momentum Strategy")
	fmt.Fprintf(w, "  Student look-back period: %d trading days\n", lookback)
	fmt.Fprintln(w, line)
	fmt.Fprintln(w)

	fmt.Fprintln(w, thin)
	total, maxTotal := 0.0, 0.0
	for _, r := range results {
		fmt.Fprintln(w, r)
		fmt.Fprintln(w)
		total += r.Points
		maxTotal += r.MaxPoints
	}
	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "  TOTAL SCORE: %.1f / %.1f\n", total, maxTotal)
	fmt.Fprintln(w, thin)
}
