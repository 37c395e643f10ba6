// Package assignment defines the grading configuration for the momentum
// strategy homework: per function weights, numerical tolerances, the
// loop penalty switch and the per student look-back derivation.
package assignment

import (
	"crypto/sha256"
	"fmt"
	"math"
	"math/big"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Graded function names. These are the exported identifiers the
// submission package must define and the keys of the weight table.
const (
	FuncReadData        = "ReadData"
	FuncReturns         = "CalculateReturns"
	FuncMomentum        = "CalculateMomentum"
	FuncSignals         = "GenerateSignals"
	FuncVolatility      = "CalculateVolatility"
	FuncStrategyReturns = "CalculateStrategyReturns"
	FuncPerformance     = "CalculatePerformance"
)

// Order lists the graded functions in evaluation order.
var Order = []string{
	FuncReadData,
	FuncReturns,
	FuncMomentum,
	FuncSignals,
	FuncVolatility,
	FuncStrategyReturns,
	FuncPerformance,
}

// Config is the grading configuration. It is immutable once loaded so
// multiple configurations can run side by side.
type Config struct {
	// Weights per graded function, must sum to 100.
	Weights map[string]float64 `yaml:"weights"`

	// Numerical tolerances for table comparison.
	RTolStrict float64 `yaml:"rtol_strict"`
	ATolStrict float64 `yaml:"atol_strict"`
	RTolLoose  float64 `yaml:"rtol_loose"`
	ATolLoose  float64 `yaml:"atol_loose"`

	// Strategy parameters fed to the reference pipeline.
	TargetVol float64 `yaml:"target_vol"`
	VolWindow int     `yaml:"vol_window"`

	// PenalizeLoops zeroes any function containing a loop statement.
	PenalizeLoops bool `yaml:"penalize_loops"`

	// SpeedFactor fails a function slower than the reference by this
	// multiple of wall time. Zero disables the check.
	SpeedFactor float64 `yaml:"speed_factor"`

	// Look-back derivation range, in trading days.
	LookbackMin int `yaml:"lookback_min"`
	LookbackMax int `yaml:"lookback_max"`
}

// Default returns the configuration the course has used.
func Default() *Config {
	return &Config{
		Weights: map[string]float64{
			FuncReadData:        10,
			FuncReturns:         15,
			FuncMomentum:        20,
			FuncSignals:         10,
			FuncVolatility:      10,
			FuncStrategyReturns: 25,
			FuncPerformance:     10,
		},
		RTolStrict:    1e-4,
		ATolStrict:    1e-6,
		RTolLoose:     1e-2,
		ATolLoose:     1e-4,
		TargetVol:     0.10,
		VolWindow:     252,
		PenalizeLoops: true,
		SpeedFactor:   0,
		LookbackMin:   21,
		LookbackMax:   252,
	}
}

// Load reads a YAML configuration over the defaults and validates it.
func Load(path string) (*Config, error) {
	c := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("assignment: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("assignment: %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the weight table and the look-back range.
func (c *Config) Validate() error {
	sum := 0.0
	for _, name := range Order {
		w, ok := c.Weights[name]
		if !ok {
			return fmt.Errorf("missing weight for %s", name)
		}
		if w < 0 {
			return fmt.Errorf("negative weight for %s", name)
		}
		sum += w
	}
	if math.Abs(sum-100) > 1e-9 {
		return fmt.Errorf("weights sum to %v, want 100", sum)
	}
	if c.LookbackMin <= 0 || c.LookbackMax < c.LookbackMin {
		return fmt.Errorf("invalid look-back range [%d, %d]", c.LookbackMin, c.LookbackMax)
	}
	return nil
}

// MaxTotal returns the maximum achievable score.
func (c *Config) MaxTotal() float64 {
	sum := 0.0
	for _, w := range c.Weights {
		sum += w
	}
	return sum
}

// Lookback derives the deterministic per student look-back period (in
// trading days) from a repository slug: the SHA-256 digest of the slug,
// reduced modulo the configured range.
func (c *Config) Lookback(slug string) int {
	h := sha256.Sum256([]byte(slug))
	span := big.NewInt(int64(c.LookbackMax - c.LookbackMin + 1))
	n := new(big.Int).SetBytes(h[:])
	return int(new(big.Int).Mod(n, span).Int64()) + c.LookbackMin
}

// SlugFromRepo extracts the repository slug from a GitHub Classroom
// style "org/hw0-username" repository name.
func SlugFromRepo(repo string) string {
	if i := strings.LastIndexByte(repo, '/'); i >= 0 {
		return repo[i+1:]
	}
	return repo
}
