package perf

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

const maxRecordedErrors = 20

// Outcome is what a RequestFunc reports about one request. Operation groups requests of the same
// kind in LoadReport.ByOperation; it may be empty.
type Outcome struct {
	Operation string
	Success   bool
	Err       error
}

// RequestFunc performs the i'th request of a load test.
type RequestFunc func(ctx context.Context, i int) Outcome

// OperationReport describes the requests of one kind.
type OperationReport struct {
	Stats       Stats   `json:"stats"`
	Successes   int     `json:"successes"`
	Failures    int     `json:"failures"`
	SuccessRate float64 `json:"successRate"`
}

// LoadReport is the result of a load test. Failures include requests that returned an error.
type LoadReport struct {
	Stats       Stats                      `json:"stats"`
	Successes   int                        `json:"successes"`
	Failures    int                        `json:"failures"`
	SuccessRate float64                    `json:"successRate"`
	ErrorRate   float64                    `json:"errorRate"`
	Elapsed     time.Duration              `json:"elapsed"`
	ByOperation map[string]OperationReport `json:"byOperation,omitempty"`
	Errors      []string                   `json:"errors,omitempty"`
}

// SuccessThroughput is successful requests per second of wall-clock time.
func (r LoadReport) SuccessThroughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Successes) / r.Elapsed.Seconds()
}

// Operations returns the operation names in the report in alphabetical order.
func (r LoadReport) Operations() []string {
	names := maps.Keys(r.ByOperation)
	slices.Sort(names)
	return names
}

// LoadRunner issues requests from a fixed number of concurrent workers.
type LoadRunner struct {
	Workers int
}

// Run performs n requests, at most Workers of them at once, and waits for all of them. If ctx is
// cancelled, requests that have not started are skipped.
func (r LoadRunner) Run(ctx context.Context, n int, fn RequestFunc) LoadReport {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	c := newCollector()
	var g errgroup.Group
	g.SetLimit(workers)
	started := time.Now()
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			c.measure(ctx, i, fn)
			return nil
		})
	}
	_ = g.Wait()
	return c.report(time.Since(started))
}

// Sustained performs requests one at a time at roughly rps requests per second until duration has
// passed or ctx is cancelled. A request that takes longer than the interval delays the next one
// rather than overlapping it. A non-positive rps means no pacing at all.
func Sustained(ctx context.Context, rps float64, duration time.Duration, fn RequestFunc) LoadReport {
	var interval time.Duration
	if rps > 0 {
		interval = time.Duration(float64(time.Second) / rps)
	}
	c := newCollector()
	started := time.Now()
	deadline := started.Add(duration)
	for i := 0; time.Now().Before(deadline) && ctx.Err() == nil; i++ {
		latency := c.measure(ctx, i, fn)
		if wait := interval - latency; wait > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(wait):
			}
		}
	}
	return c.report(time.Since(started))
}

type sample struct {
	latency time.Duration
	outcome Outcome
}

type collector struct {
	lock    sync.Mutex
	samples []sample
}

func newCollector() *collector {
	return &collector{}
}

func (c *collector) measure(ctx context.Context, i int, fn RequestFunc) time.Duration {
	start := time.Now()
	outcome := fn(ctx, i)
	latency := time.Since(start)
	c.lock.Lock()
	c.samples = append(c.samples, sample{latency: latency, outcome: outcome})
	c.lock.Unlock()
	return latency
}

func (c *collector) report(elapsed time.Duration) LoadReport {
	c.lock.Lock()
	defer c.lock.Unlock()

	ret := LoadReport{Elapsed: elapsed}
	all := make([]time.Duration, 0, len(c.samples))
	byOp := make(map[string][]sample)
	for _, s := range c.samples {
		all = append(all, s.latency)
		if s.outcome.Success && s.outcome.Err == nil {
			ret.Successes++
		} else {
			ret.Failures++
			if s.outcome.Err != nil && len(ret.Errors) < maxRecordedErrors {
				ret.Errors = append(ret.Errors, s.outcome.Err.Error())
			}
		}
		if s.outcome.Operation != "" {
			byOp[s.outcome.Operation] = append(byOp[s.outcome.Operation], s)
		}
	}
	ret.Stats = Summarize(all, elapsed)
	if total := len(c.samples); total > 0 {
		ret.SuccessRate = float64(ret.Successes) / float64(total)
		ret.ErrorRate = float64(ret.Failures) / float64(total)
	}
	if len(byOp) != 0 {
		ret.ByOperation = make(map[string]OperationReport, len(byOp))
		for op, samples := range byOp {
			var o OperationReport
			latencies := make([]time.Duration, 0, len(samples))
			for _, s := range samples {
				latencies = append(latencies, s.latency)
				if s.outcome.Success && s.outcome.Err == nil {
					o.Successes++
				} else {
					o.Failures++
				}
			}
			o.Stats = Summarize(latencies, 0)
			o.SuccessRate = float64(o.Successes) / float64(len(samples))
			ret.ByOperation[op] = o
		}
	}
	return ret
}
