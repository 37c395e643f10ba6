// Package runner evaluates a submission against the reference pipeline
// and accumulates per function grade results.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/criyle/go-grader/assignment"
	"github.com/criyle/go-grader/frame"
	"github.com/criyle/go-grader/grade"
	"github.com/criyle/go-grader/pkg/loopcheck"
	"github.com/criyle/go-grader/pkg/tablediff"
	"github.com/criyle/go-grader/reference"
)

// speedGrace pads the speed limit so tiny reference timings do not make
// the wall clock check flaky.
const speedGrace = 100 * time.Millisecond

// Event reports the outcome of one graded function as it completes.
type Event struct {
	Name      string  `json:"name"`
	Points    float64 `json:"points"`
	MaxPoints float64 `json:"max_points"`
	Status    string  `json:"status"`
}

// Config assembles a runner.
type Config struct {
	Assignment *assignment.Config
	Funcs      Funcs
	DataPath   string
	Logger     *zap.Logger
	Observer   func(Event)
}

// Runner grades one submission. It holds no mutable state across runs,
// so a single runner may serve concurrent gradings.
type Runner struct {
	conf     *assignment.Config
	funcs    Funcs
	dataPath string
	logger   *zap.Logger
	observer func(Event)

	strict tablediff.Comparator
	loose  tablediff.Comparator
}

// New creates a runner.
func New(conf Config) *Runner {
	a := conf.Assignment
	if a == nil {
		a = assignment.Default()
	}
	logger := conf.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		conf:     a,
		funcs:    conf.Funcs,
		dataPath: conf.DataPath,
		logger:   logger,
		observer: conf.Observer,
		strict:   tablediff.Comparator{RTol: a.RTolStrict, ATol: a.ATolStrict},
		loose:    tablediff.Comparator{RTol: a.RTolLoose, ATol: a.ATolLoose},
	}
}

// WithObserver returns a copy of the runner reporting per function
// events to obs.
func (r *Runner) WithObserver(obs func(Event)) *Runner {
	cp := *r
	cp.observer = obs
	return &cp
}

// RunAll evaluates every graded function in order with the given
// look-back period. Evaluations are independent: each one feeds the
// submitted function reference inputs. A cancelled context stops the
// run before the next function.
func (r *Runner) RunAll(ctx context.Context, lookback int) []*grade.Result {
	start := time.Now()
	ref, err := r.buildReference(lookback)
	if err != nil {
		r.logger.Error("reference pipeline failed", zap.Error(err))
		results := make([]*grade.Result, 0, len(assignment.Order))
		for _, name := range assignment.Order {
			gr := grade.NewResult(name, r.conf.Weights[name])
			gr.Fail(fmt.Sprintf("reference pipeline failed: %v", err))
			results = append(results, gr)
		}
		return results
	}

	evals := []struct {
		name string
		run  func(*refData) *grade.Result
	}{
		{assignment.FuncReadData, r.evalReadData},
		{assignment.FuncReturns, r.evalReturns},
		{assignment.FuncMomentum, r.evalMomentum},
		{assignment.FuncSignals, r.evalSignals},
		{assignment.FuncVolatility, r.evalVolatility},
		{assignment.FuncStrategyReturns, r.evalStrategyReturns},
		{assignment.FuncPerformance, r.evalPerformance},
	}

	results := make([]*grade.Result, 0, len(evals))
	for _, e := range evals {
		if ctx.Err() != nil {
			r.logger.Warn("grading cancelled", zap.String("next", e.name))
			break
		}
		gr := e.run(ref)
		results = append(results, gr)
		r.logger.Info("graded",
			zap.String("name", gr.Name),
			zap.Float64("points", gr.Points),
			zap.Float64("max", gr.MaxPoints),
			zap.String("status", gr.Status()))
		if r.observer != nil {
			r.observer(Event{
				Name:      gr.Name,
				Points:    gr.Points,
				MaxPoints: gr.MaxPoints,
				Status:    gr.Status(),
			})
		}
	}
	r.logger.Info("grading finished",
		zap.Int("lookback", lookback),
		zap.Duration("elapsed", time.Since(start)))
	return results
}

// refData carries the reference pipeline outputs shared by the
// evaluations, plus per step wall times for the speed check.
type refData struct {
	lookback   int
	prices     *frame.Frame
	returns    *frame.Frame
	momentum   *frame.Frame
	signals    *frame.Frame
	volatility *frame.Frame
	strategy   *frame.Frame
	tsmom      *frame.Series
	perf       map[string]float64
	elapsed    map[string]time.Duration
}

func (r *Runner) buildReference(lookback int) (*refData, error) {
	d := &refData{lookback: lookback, elapsed: make(map[string]time.Duration)}
	var err error

	if d.prices, err = timed(d, assignment.FuncReadData, func() (*frame.Frame, error) {
		return reference.ReadData(r.dataPath)
	}); err != nil {
		return nil, err
	}
	if d.returns, err = timed(d, assignment.FuncReturns, func() (*frame.Frame, error) {
		return reference.Returns(d.prices)
	}); err != nil {
		return nil, err
	}
	if d.momentum, err = timed(d, assignment.FuncMomentum, func() (*frame.Frame, error) {
		return reference.Momentum(d.returns, lookback)
	}); err != nil {
		return nil, err
	}
	if d.signals, err = timed(d, assignment.FuncSignals, func() (*frame.Frame, error) {
		return reference.Signals(d.momentum)
	}); err != nil {
		return nil, err
	}
	if d.volatility, err = timed(d, assignment.FuncVolatility, func() (*frame.Frame, error) {
		return reference.Volatility(d.returns, r.conf.VolWindow)
	}); err != nil {
		return nil, err
	}
	if d.strategy, err = timed(d, assignment.FuncStrategyReturns, func() (*frame.Frame, error) {
		return reference.StrategyReturns(d.signals, d.returns, d.volatility, r.conf.TargetVol)
	}); err != nil {
		return nil, err
	}
	d.tsmom = d.strategy.Col(reference.PortfolioCol)

	perfStart := time.Now()
	if d.perf, err = reference.Performance(d.tsmom); err != nil {
		return nil, err
	}
	d.elapsed[assignment.FuncPerformance] = time.Since(perfStart)
	return d, nil
}

func timed(d *refData, name string, fn func() (*frame.Frame, error)) (*frame.Frame, error) {
	start := time.Now()
	f, err := fn()
	d.elapsed[name] = time.Since(start)
	return f, err
}

// checkLoops applies the loop penalty. It reports true when the result
// was zeroed and the evaluation should stop.
func (r *Runner) checkLoops(gr *grade.Result, name string) bool {
	if !r.conf.PenalizeLoops {
		return false
	}
	occ := loopcheck.FindFunc(r.funcs.SrcDir, name)
	if len(occ) == 0 {
		return false
	}
	parts := make([]string, len(occ))
	for i, o := range occ {
		parts[i] = fmt.Sprintf("%s at line %d", o.Kind, o.Line)
	}
	gr.Fail("explicit loops are not allowed: " + strings.Join(parts, ", "))
	return true
}

// checkSpeed fails the result when the submitted function is slower
// than the reference by more than the configured factor. It reports
// true when the result was failed.
func (r *Runner) checkSpeed(gr *grade.Result, ref *refData, name string, elapsed time.Duration) bool {
	if r.conf.SpeedFactor <= 0 {
		return false
	}
	limit := time.Duration(float64(ref.elapsed[name])*r.conf.SpeedFactor) + speedGrace
	if elapsed <= limit {
		return false
	}
	gr.Fail(fmt.Sprintf("too slow: took %v, limit %v",
		elapsed.Round(time.Millisecond), limit.Round(time.Millisecond)))
	return true
}

// callFrame invokes a table producing submission function, converting a
// panic or error into an absorbing failure.
func callFrame(gr *grade.Result, fn func() (*frame.Frame, error)) (f *frame.Frame, elapsed time.Duration, ok bool) {
	start := time.Now()
	defer func() {
		elapsed = time.Since(start)
		if p := recover(); p != nil {
			gr.Fail(fmt.Sprintf("panic: %v", p))
			f, ok = nil, false
		}
	}()
	f, err := fn()
	if err != nil {
		gr.Fail(fmt.Sprintf("error: %v", err))
		return nil, elapsed, false
	}
	if f == nil {
		gr.Fail("returned a nil table")
		return nil, elapsed, false
	}
	return f, elapsed, true
}

// callMetrics invokes the performance submission function with the same
// failure handling as callFrame.
func callMetrics(gr *grade.Result, fn func() (map[string]float64, error)) (m map[string]float64, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			gr.Fail(fmt.Sprintf("panic: %v", p))
			m, ok = nil, false
		}
	}()
	m, err := fn()
	if err != nil {
		gr.Fail(fmt.Sprintf("error: %v", err))
		return nil, false
	}
	if m == nil {
		gr.Fail("returned nil metrics")
		return nil, false
	}
	return m, true
}
