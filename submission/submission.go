// Package submission is the student entry point for the momentum
// strategy homework. Replace the body of every function below with your
// implementation, keeping the signatures unchanged.
//
// Explicit for loops (including range loops) are not allowed in these
// functions: express each computation over whole columns instead. The
// grader statically rejects submissions that iterate.
package submission

import (
	"errors"

	"github.com/criyle/go-grader/frame"
	"github.com/criyle/go-grader/runner"
)

// ErrNotImplemented marks a function that has not been attempted yet.
var ErrNotImplemented = errors.New("not implemented")

// ReadData loads the price dataset at path into a Date indexed table of
// float columns.
func ReadData(path string) (*frame.Frame, error) {
	return nil, ErrNotImplemented
}

// CalculateReturns computes one period percent changes of prices. The
// first row must be missing.
func CalculateReturns(prices *frame.Frame) (*frame.Frame, error) {
	return nil, ErrNotImplemented
}

// CalculateMomentum computes trailing momentum over lookback periods,
// excluding the most recent observation.
func CalculateMomentum(returns *frame.Frame, lookback int) (*frame.Frame, error) {
	return nil, ErrNotImplemented
}

// GenerateSignals maps momentum to position signs in {-1, 0, +1};
// missing momentum means flat.
func GenerateSignals(momentum *frame.Frame) (*frame.Frame, error) {
	return nil, ErrNotImplemented
}

// CalculateVolatility computes the annualized rolling sample standard
// deviation of returns over the given window.
func CalculateVolatility(returns *frame.Frame, window int) (*frame.Frame, error) {
	return nil, ErrNotImplemented
}

// CalculateStrategyReturns computes volatility targeted strategy
// returns per asset plus an equal weighted "TSMOM" portfolio column.
func CalculateStrategyReturns(signals, returns, volatility *frame.Frame, targetVol float64) (*frame.Frame, error) {
	return nil, ErrNotImplemented
}

// CalculatePerformance summarizes a daily return series: annualized
// return and volatility, Sharpe ratio, maximum drawdown and cumulative
// return.
func CalculatePerformance(returns *frame.Series) (map[string]float64, error) {
	return nil, ErrNotImplemented
}

// Funcs wires the functions above into the grading harness. Do not
// edit.
func Funcs(srcDir string) runner.Funcs {
	return runner.Funcs{
		SrcDir:          srcDir,
		ReadData:        ReadData,
		Returns:         CalculateReturns,
		Momentum:        CalculateMomentum,
		Signals:         GenerateSignals,
		Volatility:      CalculateVolatility,
		StrategyReturns: CalculateStrategyReturns,
		Performance:     CalculatePerformance,
	}
}
