// Package results archives the outcome of a harness run so that runs can be compared over time.
//
// A run is reduced to a Summary, which any Store can save: a local JSON file, Redis, Consul or
// DynamoDB. Open picks the store from a DSN given on the command line.
package results

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"golang.org/x/exp/maps"

	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/framework/helpers"
	"github.com/agroweb/integration-harness/perf"
)

// Summary is the archived form of one run.
type Summary struct {
	RunID     string
	TestEnv   string
	StartTime time.Time
	EndTime   time.Time

	Total             int
	Passed            int
	Failed            int
	NonCriticalFailed int
	Skipped           int

	Tests   []TestRecord
	Latency map[string]perf.Stats
}

// TestRecord is one test scope, skipped tests included.
type TestRecord struct {
	ID          string
	Status      string
	Errors      []string
	DurationMs  float64
	NonCritical bool
	Explanation string
	SkipReason  string
}

// NewSummary converts the results of agtest.Run. If runID is empty a random one is assigned.
func NewSummary(runID string, r agtest.Results, latency map[string]perf.Stats, testEnv string) Summary {
	if runID == "" {
		runID = uuid.NewString()
	}
	s := Summary{
		RunID:             runID,
		TestEnv:           testEnv,
		StartTime:         r.StartTime,
		EndTime:           r.EndTime,
		Total:             len(r.Tests) + len(r.Skipped),
		Passed:            r.Passed(),
		Failed:            len(r.Failures),
		NonCriticalFailed: len(r.NonCriticalFailures),
		Skipped:           len(r.Skipped),
		Latency:           latency,
	}
	for _, group := range [][]agtest.TestResult{r.Tests, r.Skipped} {
		for _, t := range group {
			rec := TestRecord{
				ID:          t.TestID.String(),
				Status:      t.Status(),
				DurationMs:  float64(t.Duration) / float64(time.Millisecond),
				NonCritical: t.NonCritical,
				Explanation: t.Explanation,
				SkipReason:  t.SkipReason,
			}
			for _, err := range t.Errors {
				rec.Errors = append(rec.Errors, err.Error())
			}
			s.Tests = append(s.Tests, rec)
		}
	}
	return s
}

// OK is true if no test failed critically.
func (s Summary) OK() bool { return s.Failed == 0 }

// Duration is the wall-clock length of the run.
func (s Summary) Duration() time.Duration { return s.EndTime.Sub(s.StartTime) }

func (s Summary) String() string {
	return fmt.Sprintf("run %s (%s): %d passed, %d failed, %d non-critical, %d skipped",
		s.RunID, s.TestEnv, s.Passed, s.Failed, s.NonCriticalFailed, s.Skipped)
}

// MarshalJSON encodes the summary with camelCase keys. Timestamps are RFC 3339 with milliseconds.
func (s Summary) MarshalJSON() ([]byte, error) {
	w := jwriter.NewWriter()
	s.WriteJSON(&w)
	return w.Bytes(), w.Error()
}

// WriteJSON writes the summary as one JSON object.
func (s Summary) WriteJSON(w *jwriter.Writer) {
	obj := w.Object()
	obj.Name("runId").String(s.RunID)
	obj.Name("testEnv").String(s.TestEnv)
	obj.Name("startTime").String(formatTime(s.StartTime))
	obj.Name("endTime").String(formatTime(s.EndTime))
	obj.Name("durationMs").Float64(float64(s.Duration()) / float64(time.Millisecond))

	counts := obj.Name("counts").Object()
	counts.Name("total").Int(s.Total)
	counts.Name("passed").Int(s.Passed)
	counts.Name("failed").Int(s.Failed)
	counts.Name("nonCriticalFailed").Int(s.NonCriticalFailed)
	counts.Name("skipped").Int(s.Skipped)
	counts.End()

	tests := obj.Name("tests").Array()
	for _, t := range s.Tests {
		t.writeTo(tests.Object())
	}
	tests.End()

	latency := obj.Name("latency").Object()
	for _, endpoint := range helpers.Sorted(maps.Keys(s.Latency)) {
		writeStats(latency.Name(endpoint), s.Latency[endpoint])
	}
	latency.End()

	obj.End()
}

func (t TestRecord) writeTo(obj jwriter.ObjectState) {
	obj.Name("id").String(t.ID)
	obj.Name("status").String(t.Status)
	obj.Name("durationMs").Float64(t.DurationMs)
	if len(t.Errors) != 0 {
		errs := obj.Name("errors").Array()
		for _, e := range t.Errors {
			errs.String(e)
		}
		errs.End()
	}
	obj.Maybe("nonCritical", t.NonCritical).Bool(true)
	obj.Maybe("explanation", t.Explanation != "").String(t.Explanation)
	obj.Maybe("skipReason", t.SkipReason != "").String(t.SkipReason)
	obj.End()
}

func writeStats(w *jwriter.Writer, s perf.Stats) {
	obj := w.Object()
	obj.Name("count").Int(s.Count)
	obj.Name("meanMs").Float64(s.MeanMs)
	obj.Name("medianMs").Float64(s.MedianMs)
	obj.Name("minMs").Float64(s.MinMs)
	obj.Name("maxMs").Float64(s.MaxMs)
	obj.Name("p95Ms").Float64(s.P95Ms)
	obj.Name("p99Ms").Float64(s.P99Ms)
	obj.Name("throughputRps").Float64(s.ThroughputRPS)
	obj.End()
}

func statsJSON(s perf.Stats) []byte {
	w := jwriter.NewWriter()
	writeStats(&w, s)
	return w.Bytes()
}

// UnmarshalJSON decodes what MarshalJSON produces. Unknown properties are ignored.
func (s *Summary) UnmarshalJSON(data []byte) error {
	r := jreader.NewReader(data)
	s.ReadJSON(&r)
	return r.Error()
}

// ReadJSON reads a summary object; errors are left on the reader.
func (s *Summary) ReadJSON(r *jreader.Reader) {
	var out Summary
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "runId":
			out.RunID = r.String()
		case "testEnv":
			out.TestEnv = r.String()
		case "startTime":
			out.StartTime = parseTime(r)
		case "endTime":
			out.EndTime = parseTime(r)
		case "counts":
			for counts := r.Object(); counts.Next(); {
				switch string(counts.Name()) {
				case "total":
					out.Total = r.Int()
				case "passed":
					out.Passed = r.Int()
				case "failed":
					out.Failed = r.Int()
				case "nonCriticalFailed":
					out.NonCriticalFailed = r.Int()
				case "skipped":
					out.Skipped = r.Int()
				default:
					_ = r.SkipValue()
				}
			}
		case "tests":
			for arr := r.Array(); arr.Next(); {
				out.Tests = append(out.Tests, readTestRecord(r))
			}
		case "latency":
			out.Latency = make(map[string]perf.Stats)
			for latency := r.Object(); latency.Next(); {
				endpoint := string(latency.Name())
				out.Latency[endpoint] = readStats(r)
			}
		default:
			_ = r.SkipValue()
		}
	}
	if r.Error() == nil {
		*s = out
	}
}

func readTestRecord(r *jreader.Reader) TestRecord {
	var t TestRecord
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "id":
			t.ID = r.String()
		case "status":
			t.Status = r.String()
		case "durationMs":
			t.DurationMs = r.Float64()
		case "errors":
			for arr := r.Array(); arr.Next(); {
				t.Errors = append(t.Errors, r.String())
			}
		case "nonCritical":
			t.NonCritical = r.Bool()
		case "explanation":
			t.Explanation = r.String()
		case "skipReason":
			t.SkipReason = r.String()
		default:
			_ = r.SkipValue()
		}
	}
	return t
}

func readStats(r *jreader.Reader) perf.Stats {
	var s perf.Stats
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "count":
			s.Count = r.Int()
		case "meanMs":
			s.MeanMs = r.Float64()
		case "medianMs":
			s.MedianMs = r.Float64()
		case "minMs":
			s.MinMs = r.Float64()
		case "maxMs":
			s.MaxMs = r.Float64()
		case "p95Ms":
			s.P95Ms = r.Float64()
		case "p99Ms":
			s.P99Ms = r.Float64()
		case "throughputRps":
			s.ThroughputRPS = r.Float64()
		default:
			_ = r.SkipValue()
		}
	}
	return s
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeFormat)
}

func parseTime(r *jreader.Reader) time.Time {
	s := r.String()
	if s == "" || r.Error() != nil {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		r.AddError(fmt.Errorf("invalid timestamp %q: %w", s, err))
	}
	return t
}
