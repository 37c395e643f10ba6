package runner

import (
	"fmt"
	"math"
	"time"

	"github.com/criyle/go-grader/assignment"
	"github.com/criyle/go-grader/frame"
	"github.com/criyle/go-grader/grade"
	"github.com/criyle/go-grader/pkg/tablediff"
	"github.com/criyle/go-grader/reference"
)

// probeTargetVol deliberately differs from the default target so a
// hardcoded volatility target is caught.
const probeTargetVol = 0.40

// tier awards points when fracClose exceeds above.
type tier struct {
	above  float64
	points float64
	msg    string
}

// awardByFraction converts a comparison outcome into tiered partial
// credit: full points when strictly close, otherwise the first tier the
// fraction clears, otherwise a deduction.
func awardByFraction(gr *grade.Result, allClose bool, frac float64, full float64, tiers []tier, what string) {
	if allClose {
		gr.Award(full, "All "+what+" correct")
		return
	}
	for _, t := range tiers {
		if frac > t.above {
			gr.Award(t.points, fmt.Sprintf("%s (%.1f%%)", t.msg, frac*100))
			return
		}
	}
	gr.Deduct(cap1(what) + " do not match reference")
}

func cap1(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

func (r *Runner) evalReadData(ref *refData) *grade.Result {
	name := assignment.FuncReadData
	gr := grade.NewResult(name, r.conf.Weights[name])
	if r.checkLoops(gr, name) {
		return gr
	}
	if r.funcs.ReadData == nil {
		gr.Fail("function not provided")
		return gr
	}
	student, elapsed, ok := callFrame(gr, func() (*frame.Frame, error) {
		return r.funcs.ReadData(r.dataPath)
	})
	if !ok {
		return gr
	}
	if r.checkSpeed(gr, ref, name, elapsed) {
		return gr
	}
	gr.Award(2, "Returns a table")

	expected := ref.prices
	switch {
	case len(student.Index) > 0 && timeOrdered(student.Index):
		gr.Award(3, "Date index parsed and ordered")
	case len(student.Index) > 0:
		gr.Award(1.5, "Date index present but not ordered")
	default:
		gr.Deduct("Date index is empty")
	}

	if sameColumnSet(student.Cols, expected.Cols) {
		gr.Award(2, "Correct columns")
	} else {
		gr.Deduct(fmt.Sprintf("Expected columns %v, got %v", expected.Cols, student.Cols))
	}

	if sameShape(student, expected) {
		gr.Award(2, "Correct shape")
	} else {
		gr.Deduct(shapeMismatch(student, expected))
	}

	if ok, _ := r.strict.Compare(student, expected); ok {
		gr.Award(1, "Values match the dataset")
	} else {
		gr.Deduct("Values do not match the dataset")
	}
	return gr
}

func (r *Runner) evalReturns(ref *refData) *grade.Result {
	name := assignment.FuncReturns
	gr := grade.NewResult(name, r.conf.Weights[name])
	if r.checkLoops(gr, name) {
		return gr
	}
	if r.funcs.Returns == nil {
		gr.Fail("function not provided")
		return gr
	}
	student, elapsed, ok := callFrame(gr, func() (*frame.Frame, error) {
		return r.funcs.Returns(ref.prices)
	})
	if !ok {
		return gr
	}
	if r.checkSpeed(gr, ref, name, elapsed) {
		return gr
	}
	gr.Award(2, "Returns a table")

	expected := ref.returns
	if !sameShape(student, expected) {
		gr.Deduct(shapeMismatch(student, expected))
		return gr
	}
	gr.Award(3, "Correct shape")

	if student.Rows() > 0 && allNaNRow(student, 0) {
		gr.Award(2, "First row is missing")
	} else {
		gr.Deduct("First row should be missing")
	}

	allClose, frac := r.loose.Compare(student, expected)
	awardByFraction(gr, allClose, frac, 8, []tier{
		{0.9, 6, "Most values correct"},
		{0.5, 4, "Some values correct"},
		{0, 2, "Few values correct"},
	}, "values")
	return gr
}

func (r *Runner) evalMomentum(ref *refData) *grade.Result {
	name := assignment.FuncMomentum
	gr := grade.NewResult(name, r.conf.Weights[name])
	if r.checkLoops(gr, name) {
		return gr
	}
	if r.funcs.Momentum == nil {
		gr.Fail("function not provided")
		return gr
	}
	student, elapsed, ok := callFrame(gr, func() (*frame.Frame, error) {
		return r.funcs.Momentum(ref.returns, ref.lookback)
	})
	if !ok {
		return gr
	}
	if r.checkSpeed(gr, ref, name, elapsed) {
		return gr
	}
	gr.Award(2, "Returns a table")

	expected := ref.momentum
	if sameShape(student, expected) {
		gr.Award(3, "Correct shape")
	} else {
		gr.Deduct(shapeMismatch(student, expected))
	}

	refFirst, refAny := firstValidRow(expected)
	stuFirst, stuAny := firstValidRow(student)
	switch {
	case stuAny && refAny && refFirst == stuFirst:
		gr.Award(2, "Missing-value pattern correct")
	case stuAny:
		gr.Award(1, "Some missing-value handling (warm-up start differs)")
	default:
		gr.Deduct("All values are missing")
	}

	allClose, frac := r.loose.Compare(student, expected)
	awardByFraction(gr, allClose, frac, 13, []tier{
		{0.9, 10, "Most values correct"},
		{0.7, 7, "Many values correct"},
		{0.3, 4, "Some values correct"},
		{0, 2, "Few values correct"},
	}, "values")
	return gr
}

func (r *Runner) evalSignals(ref *refData) *grade.Result {
	name := assignment.FuncSignals
	gr := grade.NewResult(name, r.conf.Weights[name])
	if r.checkLoops(gr, name) {
		return gr
	}
	if r.funcs.Signals == nil {
		gr.Fail("function not provided")
		return gr
	}
	student, elapsed, ok := callFrame(gr, func() (*frame.Frame, error) {
		return r.funcs.Signals(ref.momentum)
	})
	if !ok {
		return gr
	}
	if r.checkSpeed(gr, ref, name, elapsed) {
		return gr
	}
	gr.Award(2, "Returns a table")

	if bad := invalidSignals(student); len(bad) == 0 {
		gr.Award(2, "Signal values are in {-1, 0, +1}")
	} else {
		gr.Deduct(fmt.Sprintf("Unexpected signal values: %v", bad))
	}

	allClose, frac := r.loose.Compare(student, ref.signals)
	awardByFraction(gr, allClose, frac, 6, []tier{
		{0.9, 4.5, "Most signals correct"},
		{0.5, 3, "Some signals correct"},
	}, "signals")
	return gr
}

func (r *Runner) evalVolatility(ref *refData) *grade.Result {
	name := assignment.FuncVolatility
	gr := grade.NewResult(name, r.conf.Weights[name])
	if r.checkLoops(gr, name) {
		return gr
	}
	if r.funcs.Volatility == nil {
		gr.Fail("function not provided")
		return gr
	}
	student, elapsed, ok := callFrame(gr, func() (*frame.Frame, error) {
		return r.funcs.Volatility(ref.returns, r.conf.VolWindow)
	})
	if !ok {
		return gr
	}
	if r.checkSpeed(gr, ref, name, elapsed) {
		return gr
	}
	gr.Award(2, "Returns a table")

	expected := ref.volatility
	if sameShape(student, expected) {
		gr.Award(2, "Correct shape")
	} else {
		gr.Deduct(shapeMismatch(student, expected))
	}

	allClose, frac := r.loose.Compare(student, expected)
	awardByFraction(gr, allClose, frac, 6, []tier{
		{0.9, 4.5, "Most values correct"},
		{0.5, 3, "Some values correct"},
		{0, 1.5, "Few values correct"},
	}, "values")
	return gr
}

func (r *Runner) evalStrategyReturns(ref *refData) *grade.Result {
	name := assignment.FuncStrategyReturns
	gr := grade.NewResult(name, r.conf.Weights[name])
	if r.checkLoops(gr, name) {
		return gr
	}
	if r.funcs.StrategyReturns == nil {
		gr.Fail("function not provided")
		return gr
	}
	expected, err := reference.StrategyReturns(ref.signals, ref.returns, ref.volatility, probeTargetVol)
	if err != nil {
		gr.Fail(fmt.Sprintf("reference pipeline failed: %v", err))
		return gr
	}
	student, elapsed, ok := callFrame(gr, func() (*frame.Frame, error) {
		return r.funcs.StrategyReturns(ref.signals, ref.returns, ref.volatility, probeTargetVol)
	})
	if !ok {
		return gr
	}
	if r.checkSpeed(gr, ref, name, elapsed) {
		return gr
	}
	gr.Award(2, "Returns a table")

	if student.HasCol(reference.PortfolioCol) {
		gr.Award(3, fmt.Sprintf("%q column present", reference.PortfolioCol))
	} else {
		gr.Deduct(fmt.Sprintf("Missing %q column", reference.PortfolioCol))
	}

	assets := ref.signals.Cols
	if missing := missingColumns(student, assets); len(missing) == 0 {
		gr.Award(2, "Asset columns present")
	} else {
		gr.Deduct(fmt.Sprintf("Missing asset columns: %v", missing))
	}

	common := commonAssetColumns(student, expected)
	if len(common) > 0 {
		stuSub, err1 := student.Select(common...)
		expSub, err2 := expected.Select(common...)
		if err1 == nil && err2 == nil {
			allClose, frac := r.loose.Compare(stuSub, expSub)
			awardByFraction(gr, allClose, frac, 10, []tier{
				{0.8, 7.5, "Asset returns mostly correct"},
				{0.5, 5, "Asset returns partially correct"},
				{0, 2.5, "Some asset returns correct"},
			}, "asset strategy returns")
		}
	}

	if student.HasCol(reference.PortfolioCol) {
		allClose, frac := r.loose.CompareSeries(
			student.Col(reference.PortfolioCol), expected.Col(reference.PortfolioCol))
		awardByFraction(gr, allClose, frac, 8, []tier{
			{0.8, 6, "Portfolio returns mostly correct"},
			{0.5, 3, "Portfolio returns partially correct"},
		}, "portfolio returns")
	}
	return gr
}

func (r *Runner) evalPerformance(ref *refData) *grade.Result {
	name := assignment.FuncPerformance
	gr := grade.NewResult(name, r.conf.Weights[name])
	if r.checkLoops(gr, name) {
		return gr
	}
	if r.funcs.Performance == nil {
		gr.Fail("function not provided")
		return gr
	}
	student, ok := callMetrics(gr, func() (map[string]float64, error) {
		return r.funcs.Performance(ref.tsmom)
	})
	if !ok {
		return gr
	}
	gr.Award(1, "Returns metrics")

	metrics := []string{
		"annualized_return",
		"annualized_volatility",
		"sharpe_ratio",
		"max_drawdown",
		"cumulative_return",
	}
	var missing []string
	for _, key := range metrics {
		if _, ok := student[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		gr.Award(2, "All expected keys present")
	} else {
		gr.Deduct(fmt.Sprintf("Missing keys: %v", missing))
	}

	const perMetric = 1.4
	for _, key := range metrics {
		sVal, ok := student[key]
		if !ok {
			continue
		}
		rVal := ref.perf[key]
		switch {
		case tablediff.Close(sVal, rVal, 1e-3, 1e-6):
			gr.Award(perMetric, key+" correct")
		case tablediff.Close(sVal, rVal, 5e-2, 1e-4):
			gr.Award(perMetric/2, key+" approximately correct")
		default:
			gr.Deduct(fmt.Sprintf("%s: expected %.6f, got %.6f", key, rVal, sVal))
		}
	}
	return gr
}

func sameShape(a, b *frame.Frame) bool {
	ar, ac := a.Shape()
	br, bc := b.Shape()
	return ar == br && ac == bc
}

func shapeMismatch(student, expected *frame.Frame) string {
	er, ec := expected.Shape()
	sr, sc := student.Shape()
	return fmt.Sprintf("Shape mismatch: expected %dx%d, got %dx%d", er, ec, sr, sc)
}

func sameColumnSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(b))
	for _, c := range b {
		set[c] = struct{}{}
	}
	for _, c := range a {
		if _, ok := set[c]; !ok {
			return false
		}
	}
	return true
}

func missingColumns(f *frame.Frame, names []string) []string {
	var missing []string
	for _, name := range names {
		if !f.HasCol(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// commonAssetColumns lists the expected columns present in both frames,
// excluding the portfolio column, in expected order.
func commonAssetColumns(student, expected *frame.Frame) []string {
	var common []string
	for _, c := range expected.Cols {
		if c != reference.PortfolioCol && student.HasCol(c) {
			common = append(common, c)
		}
	}
	return common
}

func timeOrdered(index []time.Time) bool {
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return false
		}
	}
	return true
}

func allNaNRow(f *frame.Frame, i int) bool {
	for _, v := range f.Data[i] {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}

// firstValidRow returns the first row holding any non missing cell.
func firstValidRow(f *frame.Frame) (int, bool) {
	for i := range f.Data {
		if !allNaNRow(f, i) {
			return i, true
		}
	}
	return 0, false
}

// invalidSignals lists distinct non missing values outside {-1, 0, +1}.
func invalidSignals(f *frame.Frame) []float64 {
	seen := make(map[float64]struct{})
	var bad []float64
	for _, row := range f.Data {
		for _, v := range row {
			if math.IsNaN(v) || v == -1 || v == 0 || v == 1 {
				continue
			}
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				bad = append(bad, v)
			}
		}
	}
	return bad
}
