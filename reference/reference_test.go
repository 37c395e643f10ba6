package reference

import (
	"math"
	"testing"
	"time"

	"github.com/criyle/go-grader/frame"
)

var nan = math.NaN()

func mkFrame(t *testing.T, cols []string, data [][]float64) *frame.Frame {
	t.Helper()
	index := make([]time.Time, len(data))
	day := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range index {
		index[i] = day.AddDate(0, 0, i)
	}
	f, err := frame.FromData(index, cols, data)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.IsNaN(want) {
		if !math.IsNaN(got) {
			t.Errorf("%s: got %v, want NaN", name, got)
		}
		return
	}
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %v, want %v", name, got, want)
	}
}

func TestReturns(t *testing.T) {
	prices := mkFrame(t, []string{"A"}, [][]float64{{100}, {110}, {121}})
	r, err := Returns(prices)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "row 0", r.At(0, 0), nan)
	approx(t, "row 1", r.At(1, 0), 0.1)
	approx(t, "row 2", r.At(2, 0), 0.1)
}

func TestReturns_MissingPrice(t *testing.T) {
	prices := mkFrame(t, []string{"A"}, [][]float64{{100}, {nan}, {121}})
	r, err := Returns(prices)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "row 1", r.At(1, 0), nan)
	approx(t, "row 2", r.At(2, 0), nan)
}

func TestMomentum(t *testing.T) {
	returns := mkFrame(t, []string{"A"}, [][]float64{{nan}, {0.1}, {0.2}, {-0.1}})
	m, err := Momentum(returns, 1)
	if err != nil {
		t.Fatal(err)
	}
	// wealth runs 1.1, 1.32, 1.188 over the defined rows; with a one
	// period lookback only the last row has both shifted values
	approx(t, "row 0", m.At(0, 0), nan)
	approx(t, "row 1", m.At(1, 0), nan)
	approx(t, "row 2", m.At(2, 0), nan)
	approx(t, "row 3", m.At(3, 0), 0.2)
}

func TestMomentum_SkipsMissingReturns(t *testing.T) {
	// the missing middle return must not reset the wealth product
	returns := mkFrame(t, []string{"A"}, [][]float64{{0.1}, {nan}, {0.1}, {0.1}, {0.1}})
	m, err := Momentum(returns, 2)
	if err != nil {
		t.Fatal(err)
	}
	// shifted wealth at row 3 is 1.21 despite the gap, lagged is 1.1;
	// row 4 lags onto the missing cell and stays undefined
	approx(t, "row 3", m.At(3, 0), 1.21/1.1-1)
	approx(t, "row 4", m.At(4, 0), nan)
}

func TestSignals(t *testing.T) {
	momentum := mkFrame(t, []string{"A"}, [][]float64{{nan}, {0.5}, {-0.2}, {0}})
	s, err := Signals(momentum)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, -1, 0}
	for i, w := range want {
		approx(t, "row", s.At(i, 0), w)
	}
}

func TestVolatility(t *testing.T) {
	returns := mkFrame(t, []string{"A"}, [][]float64{{nan}, {0.1}, {0.2}})
	v, err := Volatility(returns, 2)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "row 0", v.At(0, 0), nan)
	approx(t, "row 1", v.At(1, 0), nan)
	approx(t, "row 2", v.At(2, 0), math.Sqrt(0.005)*math.Sqrt(TradingDaysPerYear))
}

func TestStrategyReturns(t *testing.T) {
	cols := []string{"A", "B"}
	signals := mkFrame(t, cols, [][]float64{{1, -1}, {1, -1}})
	returns := mkFrame(t, cols, [][]float64{{0.05, 0.05}, {0.1, 0.02}})
	vol := mkFrame(t, cols, [][]float64{{0.5, 0.4}, {0.6, 0.5}})

	out, err := StrategyReturns(signals, returns, vol, 0.10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Cols) != 3 || out.Cols[2] != PortfolioCol {
		t.Fatalf("columns: got %v", out.Cols)
	}
	// row 0 has no lagged volatility
	approx(t, "row 0 A", out.At(0, 0), nan)
	approx(t, "row 0 TSMOM", out.At(0, 2), nan)
	// row 1 sizes against row 0 volatility
	approx(t, "row 1 A", out.At(1, 0), 1*(0.10/0.5)*0.1)
	approx(t, "row 1 B", out.At(1, 1), -1*(0.10/0.4)*0.02)
	approx(t, "row 1 TSMOM", out.At(1, 2), (0.02-0.005)/2)
}

func TestStrategyReturns_PortfolioSkipsMissingAssets(t *testing.T) {
	cols := []string{"A", "B"}
	signals := mkFrame(t, cols, [][]float64{{1, 1}, {1, 1}})
	returns := mkFrame(t, cols, [][]float64{{0.05, 0.05}, {0.1, 0.02}})
	vol := mkFrame(t, cols, [][]float64{{0.5, nan}, {0.6, 0.5}})

	out, err := StrategyReturns(signals, returns, vol, 0.10)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "row 1 B", out.At(1, 1), nan)
	// the portfolio averages only the defined asset
	approx(t, "row 1 TSMOM", out.At(1, 2), 1*(0.10/0.5)*0.1)
}

func TestPerformance(t *testing.T) {
	idx := []time.Time{time.Now(), time.Now(), time.Now()}
	s := &frame.Series{Name: PortfolioCol, Index: idx, Data: []float64{nan, 0.1, -0.05}}
	p, err := Performance(s)
	if err != nil {
		t.Fatal(err)
	}

	annRet := 0.025 * TradingDaysPerYear
	annVol := math.Sqrt(0.01125) * math.Sqrt(TradingDaysPerYear)
	approx(t, "annualized_return", p["annualized_return"], annRet)
	approx(t, "annualized_volatility", p["annualized_volatility"], annVol)
	approx(t, "sharpe_ratio", p["sharpe_ratio"], annRet/annVol)
	// wealth peaks at 1.1 then drops to 1.045
	approx(t, "max_drawdown", p["max_drawdown"], (1.1*0.95-1.1)/1.1)
	approx(t, "cumulative_return", p["cumulative_return"], 1.1*0.95-1)
}

func TestPerformance_AllMissing(t *testing.T) {
	s := &frame.Series{Data: []float64{nan, nan}}
	p, err := Performance(s)
	if err != nil {
		t.Fatal(err)
	}
	approx(t, "annualized_return", p["annualized_return"], nan)
	approx(t, "annualized_volatility", p["annualized_volatility"], nan)
	approx(t, "sharpe_ratio", p["sharpe_ratio"], 0)
	approx(t, "max_drawdown", p["max_drawdown"], nan)
	approx(t, "cumulative_return", p["cumulative_return"], nan)
}

func TestReadData(t *testing.T) {
	if _, err := ReadData("no/such/file.csv"); err == nil {
		t.Error("expected error for missing dataset")
	}
}
