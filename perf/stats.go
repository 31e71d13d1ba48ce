package perf

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

// Stats summarizes a set of latencies. Durations are in milliseconds so that they can be compared
// directly with thresholds and serialized as plain numbers.
type Stats struct {
	Count         int     `json:"count"`
	MeanMs        float64 `json:"meanMs"`
	MedianMs      float64 `json:"medianMs"`
	MinMs         float64 `json:"minMs"`
	MaxMs         float64 `json:"maxMs"`
	P95Ms         float64 `json:"p95Ms"`
	P99Ms         float64 `json:"p99Ms"`
	ThroughputRPS float64 `json:"throughputRps"`
}

// Summarize computes Stats. elapsed is the wall-clock time the requests took altogether; if it is
// zero, the throughput is computed from the sum of the latencies as if they ran one at a time.
func Summarize(latencies []time.Duration, elapsed time.Duration) Stats {
	if len(latencies) == 0 {
		return Stats{}
	}
	ms := make([]float64, 0, len(latencies))
	var total float64
	for _, d := range latencies {
		v := toMs(d)
		ms = append(ms, v)
		total += v
	}
	slices.Sort(ms)

	s := Stats{
		Count:    len(ms),
		MeanMs:   total / float64(len(ms)),
		MedianMs: median(ms),
		MinMs:    ms[0],
		MaxMs:    ms[len(ms)-1],
		P95Ms:    percentile(ms, 95),
		P99Ms:    percentile(ms, 99),
	}
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		seconds = total / 1000
	}
	if seconds > 0 {
		s.ThroughputRPS = float64(len(ms)) / seconds
	}
	return s
}

func (s Stats) String() string {
	return fmt.Sprintf("n=%d mean=%.2fms median=%.2fms min=%.2fms max=%.2fms p95=%.2fms p99=%.2fms rps=%.2f",
		s.Count, s.MeanMs, s.MedianMs, s.MinMs, s.MaxMs, s.P95Ms, s.P99Ms, s.ThroughputRPS)
}

func toMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile uses the nearest-rank method on sorted values.
func percentile(sorted []float64, p int) float64 {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
