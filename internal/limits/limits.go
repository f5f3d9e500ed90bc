package limits

import (
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/ctrlchart-cli/internal/sample"
	"github.com/montanaflynn/stats"
)

// Sigma is the number of standard deviations between the mean and each limit.
const Sigma = 3.0

var (
	// ErrEmptySample indicates there were no observations at all.
	ErrEmptySample = errors.New("sample has no observations")
	// ErrNoNumericValues indicates every observation had a missing value.
	ErrNoNumericValues = errors.New("sample has no numeric values")
	// ErrUndefinedDeviation indicates fewer than two numeric values, so the
	// sample standard deviation is undefined.
	ErrUndefinedDeviation = errors.New("standard deviation undefined for fewer than 2 numeric values")
	// ErrNonFiniteLimits indicates the values overflow float64 arithmetic.
	ErrNonFiniteLimits = errors.New("control limits are not finite")
)

// ControlLimits holds the center line and the ±3σ control limits.
type ControlLimits struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Upper  float64 `json:"upper"`
	Lower  float64 `json:"lower"`
	N      int     `json:"n"`
}

// Zone places a value relative to the control limits.
type Zone int

const (
	Within Zone = iota
	Above
	Below
)

func (z Zone) String() string {
	switch z {
	case Above:
		return "above"
	case Below:
		return "below"
	default:
		return "within"
	}
}

// Compute derives control limits from the numeric values of s. Missing values
// are excluded.
func Compute(s *sample.Sample) (ControlLimits, error) {
	if s.Len() == 0 {
		return ControlLimits{}, ErrEmptySample
	}
	return FromValues(s.Values(), s.Len())
}

// FromValues derives control limits from raw values. total is the number of
// observations the values came from and is only used in error messages.
func FromValues(vals []float64, total int) (ControlLimits, error) {
	switch {
	case total == 0 && len(vals) == 0:
		return ControlLimits{}, ErrEmptySample
	case len(vals) == 0:
		return ControlLimits{}, fmt.Errorf("all %d values missing: %w", total, ErrNoNumericValues)
	case len(vals) < 2:
		return ControlLimits{}, fmt.Errorf("%d numeric value(s) of %d rows: %w", len(vals), total, ErrUndefinedDeviation)
	}
	mean, err := stats.Mean(vals)
	if err != nil {
		return ControlLimits{}, fmt.Errorf("mean: %w", err)
	}
	sd, err := stats.StandardDeviationSample(vals)
	if err != nil {
		return ControlLimits{}, fmt.Errorf("standard deviation: %w", err)
	}
	l := ControlLimits{
		Mean:   mean,
		StdDev: sd,
		Upper:  mean + Sigma*sd,
		Lower:  mean - Sigma*sd,
		N:      len(vals),
	}
	for _, v := range []float64{l.Mean, l.StdDev, l.Upper, l.Lower} {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return ControlLimits{}, fmt.Errorf("%d numeric values: %w", len(vals), ErrNonFiniteLimits)
		}
	}
	return l, nil
}

// Classify reports where v falls relative to the limits. Values exactly on a
// limit are within.
func (l ControlLimits) Classify(v float64) Zone {
	switch {
	case v > l.Upper:
		return Above
	case v < l.Lower:
		return Below
	default:
		return Within
	}
}
