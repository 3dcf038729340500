// Package stats reduces raw timing samples to summary statistics and
// ranks variants by mean time. All functions are pure.
package stats

import (
	"fmt"
	"math"
	"time"
)

// Stats summarizes a non-empty sample sequence. All fields are seconds.
// Invariant: Min <= Mean <= Max. Stdev is the sample standard deviation
// (n-1 denominator), defined as 0 for a single sample rather than NaN.
type Stats struct {
	Mean  float64
	Stdev float64
	Min   float64
	Max   float64
}

// Summarize computes Stats for the given samples. It fails on an empty
// sequence; callers must not feed it measurements with no usable trials.
func Summarize(samples []time.Duration) (Stats, error) {
	if len(samples) == 0 {
		return Stats{}, fmt.Errorf("summarize: no samples")
	}

	s := Stats{
		Min: math.Inf(1),
		Max: math.Inf(-1),
	}

	var sum float64

	for _, d := range samples {
		sec := d.Seconds()
		sum += sec
		s.Min = math.Min(s.Min, sec)
		s.Max = math.Max(s.Max, sec)
	}

	s.Mean = sum / float64(len(samples))

	if len(samples) > 1 {
		var sq float64
		for _, d := range samples {
			dev := d.Seconds() - s.Mean
			sq += dev * dev
		}

		s.Stdev = math.Sqrt(sq / float64(len(samples)-1))
	}

	return s, nil
}

// Seconds converts raw samples to float seconds, the unit used in
// persisted records.
func Seconds(samples []time.Duration) []float64 {
	out := make([]float64, len(samples))
	for i, d := range samples {
		out[i] = d.Seconds()
	}

	return out
}
