package tablediff

import (
	"math"
	"testing"
	"time"

	"github.com/criyle/go-grader/frame"
)

var nan = math.NaN()

func mkFrame(t *testing.T, data [][]float64) *frame.Frame {
	t.Helper()
	cols := make([]string, len(data[0]))
	for j := range cols {
		cols[j] = string(rune('A' + j))
	}
	index := make([]time.Time, len(data))
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range index {
		index[i] = day.AddDate(0, 0, i)
	}
	f, err := frame.FromData(index, cols, data)
	if err != nil {
		t.Fatalf("FromData error: %v", err)
	}
	return f
}

func TestCompare_SelfIsExact(t *testing.T) {
	a := mkFrame(t, [][]float64{{1, 2}, {nan, 3}, {4, nan}, {5, 6}})
	c := Comparator{RTol: 0, ATol: 0}
	ok, frac := c.Compare(a, a)
	if !ok || frac != 1.0 {
		t.Errorf("self comparison: got (%v, %v), want (true, 1.0)", ok, frac)
	}
}

func TestCompare_ShapeMismatch(t *testing.T) {
	a := mkFrame(t, [][]float64{{1, 2}})
	b := mkFrame(t, [][]float64{{1, 2}, {3, 4}})
	c := Comparator{RTol: 1, ATol: 1}
	ok, frac := c.Compare(a, b)
	if ok || frac != 0 {
		t.Errorf("shape mismatch: got (%v, %v), want (false, 0)", ok, frac)
	}
}

func TestCompare_NilFrame(t *testing.T) {
	a := mkFrame(t, [][]float64{{1}})
	c := Comparator{}
	if ok, frac := c.Compare(nil, a); ok || frac != 0 {
		t.Errorf("nil student: got (%v, %v), want (false, 0)", ok, frac)
	}
	if ok, frac := c.Compare(a, nil); ok || frac != 0 {
		t.Errorf("nil reference: got (%v, %v), want (false, 0)", ok, frac)
	}
}

// One wrong cell in a 4x2 grid with two missing cells: missing pattern
// still agrees (half credit intact), five of six overlap cells match.
func TestCompare_PartialCredit(t *testing.T) {
	a := mkFrame(t, [][]float64{{1, 2}, {nan, 3}, {4, nan}, {5, 6}})
	b := mkFrame(t, [][]float64{{1, 2}, {nan, 3}, {4, nan}, {5, 6}})
	a.Data[0][0] = 999

	c := Comparator{RTol: 1e-2, ATol: 1e-4}
	ok, frac := c.Compare(a, b)
	if ok {
		t.Error("expected allClose == false with one far off cell")
	}
	want := 0.5 + 0.5*(5.0/6.0)
	if math.Abs(frac-want) > 1e-12 {
		t.Errorf("fraction: got %v, want %v", frac, want)
	}
}

func TestCompare_NaNPatternMismatch(t *testing.T) {
	a := mkFrame(t, [][]float64{{nan}, {1}})
	b := mkFrame(t, [][]float64{{1}, {1}})
	c := Comparator{RTol: 1e-2, ATol: 1e-4}
	ok, frac := c.Compare(a, b)
	if ok {
		t.Error("expected allClose == false when masks differ")
	}
	// masks agree on one of two cells, the single overlap cell matches
	want := 0.5*0.5 + 0.5*1.0
	if math.Abs(frac-want) > 1e-12 {
		t.Errorf("fraction: got %v, want %v", frac, want)
	}
}

// Increasing the number of out of tolerance cells must not increase the
// fraction.
func TestCompare_Monotonicity(t *testing.T) {
	b := mkFrame(t, [][]float64{{1, 2}, {3, 4}, {5, 6}})
	c := Comparator{RTol: 1e-2, ATol: 1e-4}

	prev := 1.1
	for wrong := 0; wrong <= 6; wrong++ {
		a := mkFrame(t, [][]float64{{1, 2}, {3, 4}, {5, 6}})
		for k := 0; k < wrong; k++ {
			a.Data[k/2][k%2] = 1e9
		}
		_, frac := c.Compare(a, b)
		if frac > prev {
			t.Errorf("fraction increased from %v to %v at %d wrong cells", prev, frac, wrong)
		}
		prev = frac
	}
}

func TestCompare_NoOverlap(t *testing.T) {
	a := mkFrame(t, [][]float64{{nan, nan}})
	b := mkFrame(t, [][]float64{{nan, nan}})
	c := Comparator{}
	if ok, frac := c.Compare(a, b); !ok || frac != 1.0 {
		t.Errorf("all missing on both sides: got (%v, %v), want (true, 1.0)", ok, frac)
	}

	v := mkFrame(t, [][]float64{{1, 2}})
	if ok, frac := c.Compare(a, v); ok || frac != 0 {
		t.Errorf("fully disagreeing masks: got (%v, %v), want (false, 0)", ok, frac)
	}
}

func TestCompare_Tolerance(t *testing.T) {
	a := mkFrame(t, [][]float64{{100.005}})
	b := mkFrame(t, [][]float64{{100}})
	loose := Comparator{RTol: 1e-4, ATol: 1e-6}
	if ok, _ := loose.Compare(a, b); !ok {
		t.Error("0.005 off 100 should pass rtol 1e-4")
	}
	tight := Comparator{RTol: 1e-6, ATol: 1e-6}
	if ok, _ := tight.Compare(a, b); ok {
		t.Error("0.005 off 100 should fail rtol 1e-6")
	}
}

// A malformed frame must report as wrong, never panic past Compare.
func TestCompare_RaggedDataRecovered(t *testing.T) {
	idx := []time.Time{time.Now(), time.Now()}
	a := &frame.Frame{Index: idx, Cols: []string{"A", "B"}, Data: [][]float64{{1, 2}, {3}}}
	b := &frame.Frame{Index: idx, Cols: []string{"A", "B"}, Data: [][]float64{{1, 2}, {3, 4}}}
	c := Comparator{}
	if ok, frac := c.Compare(a, b); ok || frac != 0 {
		t.Errorf("ragged data: got (%v, %v), want (false, 0)", ok, frac)
	}
}

func TestCompareSeries(t *testing.T) {
	idx := []time.Time{time.Now(), time.Now(), time.Now()}
	a := &frame.Series{Name: "x", Index: idx, Data: []float64{1, nan, 3}}
	b := &frame.Series{Name: "x", Index: idx, Data: []float64{1, nan, 3}}
	c := Comparator{}
	if ok, frac := c.CompareSeries(a, b); !ok || frac != 1.0 {
		t.Errorf("equal series: got (%v, %v), want (true, 1.0)", ok, frac)
	}
	b.Data[2] = 4
	if ok, _ := c.CompareSeries(a, b); ok {
		t.Error("expected allClose == false after value change")
	}
	if ok, frac := c.CompareSeries(nil, b); ok || frac != 0 {
		t.Errorf("nil series: got (%v, %v), want (false, 0)", ok, frac)
	}
}

func TestClose(t *testing.T) {
	if Close(nan, 1, 1, 1) || Close(1, nan, 1, 1) {
		t.Error("NaN must never be close")
	}
	if !Close(math.Inf(1), math.Inf(1), 0, 0) {
		t.Error("equal infinities are close")
	}
	if Close(math.Inf(1), 1e300, 1, 1) {
		t.Error("infinity is not close to a finite value")
	}
	if !Close(1.0, 1.0, 0, 0) {
		t.Error("identical values are close at zero tolerance")
	}
}
