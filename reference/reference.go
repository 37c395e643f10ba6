// Package reference holds the ground truth implementations of every
// graded function in the momentum strategy pipeline. Their outputs are
// the expected values the submitted functions are compared against, so
// this package must never be visible to students.
package reference

import (
	"math"

	"github.com/criyle/go-grader/dataset"
	"github.com/criyle/go-grader/frame"
)

const (
	// TradingDaysPerYear is the annualization factor.
	TradingDaysPerYear = 252
	// DefaultTargetVol is the default volatility target of the strategy.
	DefaultTargetVol = 0.10
	// DefaultVolWindow is the default rolling volatility window.
	DefaultVolWindow = 252
	// PortfolioCol names the equal weighted portfolio column.
	PortfolioCol = "TSMOM"
)

// ReadData loads the price dataset.
func ReadData(path string) (*frame.Frame, error) {
	return dataset.Load(path)
}

// Returns computes one period percent changes. The first row is NaN, as
// is any cell whose current or previous price is missing.
func Returns(prices *frame.Frame) (*frame.Frame, error) {
	rows, cols := prices.Shape()
	out := frame.New(prices.Index, prices.Cols)
	for i := 1; i < rows; i++ {
		for j := 0; j < cols; j++ {
			prev := prices.Data[i-1][j]
			out.Data[i][j] = prices.Data[i][j]/prev - 1
		}
	}
	return out, nil
}

// Momentum computes the trailing momentum over lookback periods,
// excluding the most recent observation: cumulative wealth shifted by
// one, divided by cumulative wealth shifted by lookback+1, minus one.
func Momentum(returns *frame.Frame, lookback int) (*frame.Frame, error) {
	cum := cumWealth(returns)
	shifted := shift(cum, 1)
	lagged := shift(cum, lookback+1)
	rows, cols := returns.Shape()
	out := frame.New(returns.Index, returns.Cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Data[i][j] = shifted.Data[i][j]/lagged.Data[i][j] - 1
		}
	}
	return out, nil
}

// Signals maps momentum to position signs in {-1, 0, +1}, with missing
// momentum treated as flat.
func Signals(momentum *frame.Frame) (*frame.Frame, error) {
	rows, cols := momentum.Shape()
	out := frame.New(momentum.Index, momentum.Cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := momentum.Data[i][j]
			switch {
			case math.IsNaN(v):
				out.Data[i][j] = 0
			case v > 0:
				out.Data[i][j] = 1
			case v < 0:
				out.Data[i][j] = -1
			default:
				out.Data[i][j] = 0
			}
		}
	}
	return out, nil
}

// Volatility computes the annualized rolling sample standard deviation
// of returns. A cell is defined only once its window holds a full
// complement of non missing observations.
func Volatility(returns *frame.Frame, window int) (*frame.Frame, error) {
	rows, cols := returns.Shape()
	out := frame.New(returns.Index, returns.Cols)
	ann := math.Sqrt(TradingDaysPerYear)
	for j := 0; j < cols; j++ {
		for i := window - 1; i < rows; i++ {
			sd, ok := windowStd(returns, i, j, window)
			if ok {
				out.Data[i][j] = sd * ann
			}
		}
	}
	return out, nil
}

// StrategyReturns computes volatility targeted strategy returns per
// asset, sized against the previous day's volatility, plus an equal
// weighted portfolio column named TSMOM.
func StrategyReturns(signals, returns, volatility *frame.Frame, targetVol float64) (*frame.Frame, error) {
	laggedVol := shift(volatility, 1)
	assets := signals.Cols
	rows := signals.Rows()

	outCols := make([]string, 0, len(assets)+1)
	outCols = append(outCols, assets...)
	outCols = append(outCols, PortfolioCol)
	out := frame.New(signals.Index, outCols)

	for i := 0; i < rows; i++ {
		sum, n := 0.0, 0
		for j, name := range assets {
			v := math.NaN()
			rj := returns.ColIndex(name)
			vj := laggedVol.ColIndex(name)
			if rj >= 0 && vj >= 0 {
				v = signals.Data[i][j] * (targetVol / laggedVol.Data[i][vj]) * returns.Data[i][rj]
			}
			out.Data[i][j] = v
			if !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n > 0 {
			out.Data[i][len(assets)] = sum / float64(n)
		}
	}
	return out, nil
}

// Performance computes summary statistics of a daily return series,
// ignoring missing observations.
func Performance(returns *frame.Series) (map[string]float64, error) {
	r := make([]float64, 0, len(returns.Data))
	for _, v := range returns.Data {
		if !math.IsNaN(v) {
			r = append(r, v)
		}
	}

	annRet := mean(r) * TradingDaysPerYear
	annVol := sampleStd(r) * math.Sqrt(TradingDaysPerYear)
	sharpe := 0.0
	if annVol != 0 && !math.IsNaN(annVol) {
		sharpe = annRet / annVol
	}

	wealth := 1.0
	peak := math.Inf(-1)
	maxDD := math.NaN()
	for _, v := range r {
		wealth *= 1 + v
		if wealth > peak {
			peak = wealth
		}
		dd := (wealth - peak) / peak
		if math.IsNaN(maxDD) || dd < maxDD {
			maxDD = dd
		}
	}
	cumRet := math.NaN()
	if len(r) > 0 {
		cumRet = wealth - 1
	}

	return map[string]float64{
		"annualized_return":     annRet,
		"annualized_volatility": annVol,
		"sharpe_ratio":          sharpe,
		"max_drawdown":          maxDD,
		"cumulative_return":     cumRet,
	}, nil
}

// cumWealth is the running product of (1 + r) per column, skipping
// missing cells: a missing return stays missing in the output but does
// not reset the product.
func cumWealth(returns *frame.Frame) *frame.Frame {
	rows, cols := returns.Shape()
	out := frame.New(returns.Index, returns.Cols)
	for j := 0; j < cols; j++ {
		acc := 1.0
		for i := 0; i < rows; i++ {
			v := returns.Data[i][j]
			if math.IsNaN(v) {
				continue
			}
			acc *= 1 + v
			out.Data[i][j] = acc
		}
	}
	return out
}

// shift moves every column down by n rows, filling the head with NaN.
func shift(f *frame.Frame, n int) *frame.Frame {
	rows, cols := f.Shape()
	out := frame.New(f.Index, f.Cols)
	for i := n; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Data[i][j] = f.Data[i-n][j]
		}
	}
	return out
}

// windowStd computes the sample standard deviation of the window ending
// at row i. ok is false unless the window is fully populated.
func windowStd(f *frame.Frame, i, j, window int) (float64, bool) {
	vals := make([]float64, 0, window)
	for k := i - window + 1; k <= i; k++ {
		v := f.Data[k][j]
		if math.IsNaN(v) {
			return 0, false
		}
		vals = append(vals, v)
	}
	return sampleStd(vals), true
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

func sampleStd(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	m := mean(vals)
	ss := 0.0
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}
