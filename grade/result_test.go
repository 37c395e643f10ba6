package grade

import (
	"strings"
	"testing"
)

func TestAwardClampsAtMax(t *testing.T) {
	r := NewResult("Returns", 10)
	r.Award(6, "shape correct")
	r.Award(6, "values correct")
	if r.Points != 10 {
		t.Errorf("points: got %v, want 10", r.Points)
	}
	if len(r.Messages) != 2 {
		t.Fatalf("messages: got %d, want 2", len(r.Messages))
	}
	if !strings.HasPrefix(r.Messages[0], "  [+6.0] ") {
		t.Errorf("message prefix: got %q", r.Messages[0])
	}
}

func TestAwardEmptyMessage(t *testing.T) {
	r := NewResult("Returns", 10)
	r.Award(2, "")
	if r.Points != 2 || len(r.Messages) != 0 {
		t.Errorf("got points %v with %d messages", r.Points, len(r.Messages))
	}
}

func TestDeductKeepsPoints(t *testing.T) {
	r := NewResult("Signals", 6)
	r.Award(4, "shape correct")
	r.Deduct("values do not match reference")
	if r.Points != 4 {
		t.Errorf("points: got %v, want 4", r.Points)
	}
	if r.Messages[1] != "  [  ] values do not match reference" {
		t.Errorf("deduct message: got %q", r.Messages[1])
	}
}

func TestFailIsAbsorbing(t *testing.T) {
	r := NewResult("Momentum", 20)
	r.Award(5, "shape correct")
	r.Deduct("values off")
	r.Fail("panic: index out of range")
	if r.Points != 0 {
		t.Errorf("points after fail: got %v, want 0", r.Points)
	}
	if len(r.Messages) != 1 || r.Messages[0] != "  [FAIL] panic: index out of range" {
		t.Errorf("messages after fail: got %v", r.Messages)
	}
	if r.Status() != "FAIL" {
		t.Errorf("status: got %q, want FAIL", r.Status())
	}
}

func TestStatus(t *testing.T) {
	r := NewResult("ReadData", 10)
	if r.Status() != "FAIL" {
		t.Errorf("zero points: got %q, want FAIL", r.Status())
	}
	r.Award(4, "")
	if r.Status() != "PARTIAL" {
		t.Errorf("partial points: got %q, want PARTIAL", r.Status())
	}
	r.Award(6, "")
	if r.Status() != "PASS" {
		t.Errorf("full points: got %q, want PASS", r.Status())
	}
}

func TestString(t *testing.T) {
	r := NewResult("ReadData", 10)
	r.Award(10, "table loaded")
	s := r.String()
	if !strings.HasPrefix(s, "[PASS] ReadData: 10.0/10.0") {
		t.Errorf("header: got %q", s)
	}
	if !strings.Contains(s, "\n  [+10.0] table loaded") {
		t.Errorf("body: got %q", s)
	}
}

func TestRecordRounding(t *testing.T) {
	r := NewResult("Performance", 10)
	r.Award(1.4, "")
	r.Award(1.4, "")
	r.Award(1.4, "")
	rec := r.Record()
	if rec.Points != 4.2 {
		t.Errorf("rounded points: got %v, want 4.2", rec.Points)
	}
	if rec.Name != "Performance" || rec.MaxPoints != 10 {
		t.Errorf("record: got %+v", rec)
	}
}
