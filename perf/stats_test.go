package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func msList(values ...int) []time.Duration {
	ret := make([]time.Duration, 0, len(values))
	for _, v := range values {
		ret = append(ret, time.Duration(v)*time.Millisecond)
	}
	return ret
}

func TestSummarize(t *testing.T) {
	// 1..100 ms in reverse order
	var values []int
	for i := 100; i >= 1; i-- {
		values = append(values, i)
	}
	s := Summarize(msList(values...), 2*time.Second)

	assert.Equal(t, 100, s.Count)
	assert.Equal(t, 50.5, s.MeanMs)
	assert.Equal(t, 50.5, s.MedianMs)
	assert.Equal(t, 1.0, s.MinMs)
	assert.Equal(t, 100.0, s.MaxMs)
	assert.Equal(t, 95.0, s.P95Ms)
	assert.Equal(t, 99.0, s.P99Ms)
	assert.Equal(t, 50.0, s.ThroughputRPS)
}

func TestSummarizeSmallSets(t *testing.T) {
	s := Summarize(msList(30, 10, 20), 0)
	assert.Equal(t, 20.0, s.MedianMs)
	assert.Equal(t, 30.0, s.P95Ms)
	assert.Equal(t, 30.0, s.P99Ms)
	// no elapsed time given: 3 requests in 60ms of sequential work
	assert.Equal(t, 50.0, s.ThroughputRPS)

	assert.Equal(t, Stats{}, Summarize(nil, time.Second))
}

func TestStatsString(t *testing.T) {
	s := Summarize(msList(10), time.Second)
	assert.Equal(t, "n=1 mean=10.00ms median=10.00ms min=10.00ms max=10.00ms p95=10.00ms p99=10.00ms rps=1.00", s.String())
}
