package perf

import (
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Timings accumulates latencies by endpoint name over a whole test run. It is safe for concurrent
// use.
type Timings struct {
	samples map[string][]time.Duration
	lock    sync.Mutex
}

// NewTimings creates an empty Timings.
func NewTimings() *Timings {
	return &Timings{samples: make(map[string][]time.Duration)}
}

// Record adds one latency for an endpoint.
func (t *Timings) Record(endpoint string, latency time.Duration) {
	t.lock.Lock()
	t.samples[endpoint] = append(t.samples[endpoint], latency)
	t.lock.Unlock()
}

// Endpoints returns the endpoint names that have samples, in alphabetical order.
func (t *Timings) Endpoints() []string {
	t.lock.Lock()
	names := maps.Keys(t.samples)
	t.lock.Unlock()
	slices.Sort(names)
	return names
}

// Summaries computes Stats for every endpoint. Throughput is computed as if the requests to each
// endpoint had been made one at a time.
func (t *Timings) Summaries() map[string]Stats {
	t.lock.Lock()
	defer t.lock.Unlock()
	ret := make(map[string]Stats, len(t.samples))
	for name, latencies := range t.samples {
		ret[name] = Summarize(latencies, 0)
	}
	return ret
}
