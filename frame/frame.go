// Package frame provides the tabular data model shared by the grader and
// the reference strategy pipeline: a two dimensional float64 grid with a
// time ordered row index and named columns. A missing cell is NaN.
package frame

import (
	"fmt"
	"math"
	"time"
)

// Frame is an ordered 2D grid of float64 cells. Rows are time ordered
// observations, columns are named series. len(Data) == len(Index) and
// every row has len(Cols) cells.
type Frame struct {
	Index []time.Time
	Cols  []string
	Data  [][]float64
}

// New creates a frame with the given index and columns, every cell NaN.
func New(index []time.Time, cols []string) *Frame {
	data := make([][]float64, len(index))
	for i := range data {
		row := make([]float64, len(cols))
		for j := range row {
			row[j] = math.NaN()
		}
		data[i] = row
	}
	return &Frame{Index: index, Cols: cols, Data: data}
}

// FromData creates a frame over existing row major data.
func FromData(index []time.Time, cols []string, data [][]float64) (*Frame, error) {
	if len(data) != len(index) {
		return nil, fmt.Errorf("frame: %d rows for %d index entries", len(data), len(index))
	}
	for i, row := range data {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("frame: row %d has %d cells for %d columns", i, len(row), len(cols))
		}
	}
	return &Frame{Index: index, Cols: cols, Data: data}, nil
}

// Shape returns (rows, columns).
func (f *Frame) Shape() (int, int) {
	return len(f.Data), len(f.Cols)
}

// Rows returns the number of rows.
func (f *Frame) Rows() int { return len(f.Data) }

// At returns the cell at (row, col).
func (f *Frame) At(i, j int) float64 { return f.Data[i][j] }

// Set assigns the cell at (row, col).
func (f *Frame) Set(i, j int, v float64) { f.Data[i][j] = v }

// ColIndex returns the position of the named column, or -1.
func (f *Frame) ColIndex(name string) int {
	for j, c := range f.Cols {
		if c == name {
			return j
		}
	}
	return -1
}

// HasCol reports whether the named column exists.
func (f *Frame) HasCol(name string) bool { return f.ColIndex(name) >= 0 }

// Col extracts the named column as a series, or nil if absent.
func (f *Frame) Col(name string) *Series {
	j := f.ColIndex(name)
	if j < 0 {
		return nil
	}
	data := make([]float64, len(f.Data))
	for i, row := range f.Data {
		data[i] = row[j]
	}
	return &Series{Name: name, Index: f.Index, Data: data}
}

// Select returns a new frame restricted to the named columns, in the
// given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	idx := make([]int, len(names))
	for k, name := range names {
		j := f.ColIndex(name)
		if j < 0 {
			return nil, fmt.Errorf("frame: no column %q", name)
		}
		idx[k] = j
	}
	data := make([][]float64, len(f.Data))
	for i, row := range f.Data {
		sub := make([]float64, len(idx))
		for k, j := range idx {
			sub[k] = row[j]
		}
		data[i] = sub
	}
	return &Frame{Index: f.Index, Cols: names, Data: data}, nil
}

// Empty reports whether the frame holds no cells.
func (f *Frame) Empty() bool {
	return len(f.Data) == 0 || len(f.Cols) == 0
}

// Series is a 1D labelled float vector.
type Series struct {
	Name  string
	Index []time.Time
	Data  []float64
}

// Frame converts the series into a single column frame.
func (s *Series) Frame() *Frame {
	data := make([][]float64, len(s.Data))
	for i, v := range s.Data {
		data[i] = []float64{v}
	}
	name := s.Name
	if name == "" {
		name = "value"
	}
	return &Frame{Index: s.Index, Cols: []string{name}, Data: data}
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.Data) }
