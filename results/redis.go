package results

import (
	"context"
	"fmt"
	"net/url"

	"github.com/redis/go-redis/v9"

	"github.com/agroweb/integration-harness/framework"
)

const (
	defaultRedisPrefix = "agroweb"
	defaultRedisKeep   = 100
)

// RedisStore keeps each run in a hash, <prefix>:run:<id>, and pushes the run ID onto the list
// <prefix>:runs, which is trimmed to the newest keep entries. Trimmed runs' hashes are not deleted.
type RedisStore struct {
	client *redis.Client
	prefix string
	keep   int
	logger framework.Logger
}

func openRedis(dsn string, logger framework.Logger) (*RedisStore, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid results DSN: %w", err)
	}
	q := u.Query()
	prefix := q.Get("prefix")
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	keep, err := queryInt(q, "keep", defaultRedisKeep)
	if err != nil {
		return nil, err
	}
	// go-redis rejects query parameters it does not know
	q.Del("prefix")
	q.Del("keep")
	u.RawQuery = q.Encode()

	opts, err := redis.ParseURL(u.String())
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), prefix, keep, logger), nil
}

func NewRedisStore(client *redis.Client, prefix string, keep int, logger framework.Logger) *RedisStore {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &RedisStore{client: client, prefix: prefix, keep: keep, logger: logger}
}

func (r *RedisStore) runKey(runID string) string { return r.prefix + ":run:" + runID }

func (r *RedisStore) indexKey() string { return r.prefix + ":runs" }

// fields holds the counts and latencies alongside the full JSON document, so that runs can be
// compared with HGET alone.
func (r *RedisStore) fields(s Summary, doc []byte) map[string]interface{} {
	fields := map[string]interface{}{
		"summary":           string(doc),
		"testEnv":           s.TestEnv,
		"startTime":         formatTime(s.StartTime),
		"endTime":           formatTime(s.EndTime),
		"total":             s.Total,
		"passed":            s.Passed,
		"failed":            s.Failed,
		"nonCriticalFailed": s.NonCriticalFailed,
		"skipped":           s.Skipped,
	}
	for endpoint, stats := range s.Latency {
		fields["latency:"+endpoint+":meanMs"] = stats.MeanMs
		fields["latency:"+endpoint+":p95Ms"] = stats.P95Ms
	}
	return fields
}

func (r *RedisStore) Save(ctx context.Context, s Summary) error {
	doc, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot encode results: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.runKey(s.RunID), r.fields(s, doc))
		pipe.LPush(ctx, r.indexKey(), s.RunID)
		pipe.LTrim(ctx, r.indexKey(), 0, int64(r.keep-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("cannot save results to Redis: %w", err)
	}
	r.logger.Printf("Saved results of run %s to Redis key %s", s.RunID, r.runKey(s.RunID))
	return nil
}

// RecentRuns returns the IDs of the newest runs, newest first.
func (r *RedisStore) RecentRuns(ctx context.Context, count int) ([]string, error) {
	return r.client.LRange(ctx, r.indexKey(), 0, int64(count-1)).Result()
}

// Load reads back a saved run.
func (r *RedisStore) Load(ctx context.Context, runID string) (Summary, error) {
	doc, err := r.client.HGet(ctx, r.runKey(runID), "summary").Result()
	if err != nil {
		return Summary{}, fmt.Errorf("cannot load run %s: %w", runID, err)
	}
	var s Summary
	if err := s.UnmarshalJSON([]byte(doc)); err != nil {
		return Summary{}, err
	}
	return s, nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
