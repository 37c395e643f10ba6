package runner

import (
	"github.com/criyle/go-grader/frame"
	"github.com/criyle/go-grader/reference"
)

// Funcs holds the graded entry points of one submission. The functions
// are compiled into the harness; SrcDir names the directory holding
// their source text for the static loop check.
type Funcs struct {
	SrcDir string

	ReadData        func(path string) (*frame.Frame, error)
	Returns         func(prices *frame.Frame) (*frame.Frame, error)
	Momentum        func(returns *frame.Frame, lookback int) (*frame.Frame, error)
	Signals         func(momentum *frame.Frame) (*frame.Frame, error)
	Volatility      func(returns *frame.Frame, window int) (*frame.Frame, error)
	StrategyReturns func(signals, returns, volatility *frame.Frame, targetVol float64) (*frame.Frame, error)
	Performance     func(returns *frame.Series) (map[string]float64, error)
}

// Reference returns the graded entry points backed by the reference
// implementations. The harness's own tests grade it to validate that a
// correct submission earns full marks.
func Reference() Funcs {
	return Funcs{
		ReadData:        reference.ReadData,
		Returns:         reference.Returns,
		Momentum:        reference.Momentum,
		Signals:         reference.Signals,
		Volatility:      reference.Volatility,
		StrategyReturns: reference.StrategyReturns,
		Performance:     reference.Performance,
	}
}
