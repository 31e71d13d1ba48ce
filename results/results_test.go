package results

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	consul "github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/perf"
)

func makeResults() agtest.Results {
	return agtest.Run(agtest.TestConfiguration{}, func(t *agtest.T) {
		t.Run("passes", func(t *agtest.T) {})
		t.Run("fails", func(t *agtest.T) { t.Errorf("status was %d", 500) })
		t.Run("skipped", func(t *agtest.T) { t.SkipWithReason("service unavailable") })
		t.Run("slow", func(t *agtest.T) {
			t.NonCritical("shared environment")
			t.Errorf("too slow")
		})
	})
}

func makeSummary() Summary {
	latency := map[string]perf.Stats{
		"get_products": perf.Summarize([]time.Duration{10 * time.Millisecond, 30 * time.Millisecond}, 0),
	}
	return NewSummary("run-1", makeResults(), latency, "staging")
}

func findRecord(t *testing.T, s Summary, id string) TestRecord {
	for _, r := range s.Tests {
		if r.ID == id {
			return r
		}
	}
	require.Fail(t, "no record", "test %q not in summary", id)
	return TestRecord{}
}

func TestNewSummaryCounts(t *testing.T) {
	s := makeSummary()

	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, "staging", s.TestEnv)
	assert.Equal(t, 5, s.Total) // includes the root scope
	assert.Equal(t, 2, s.Passed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.NonCriticalFailed)
	assert.Equal(t, 1, s.Skipped)
	assert.False(t, s.OK())
	assert.Len(t, s.Tests, 5)
	assert.False(t, s.StartTime.IsZero())
	assert.False(t, s.EndTime.Before(s.StartTime))
}

func TestNewSummaryRecords(t *testing.T) {
	s := makeSummary()

	assert.Equal(t, "passed", findRecord(t, s, "passes").Status)

	failed := findRecord(t, s, "fails")
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, []string{"status was 500"}, failed.Errors)

	skipped := findRecord(t, s, "skipped")
	assert.Equal(t, "skipped", skipped.Status)
	assert.Equal(t, "service unavailable", skipped.SkipReason)

	slow := findRecord(t, s, "slow")
	assert.Equal(t, "failed (non-critical)", slow.Status)
	assert.True(t, slow.NonCritical)
	assert.Equal(t, "shared environment", slow.Explanation)
}

func TestNewSummaryAssignsRunID(t *testing.T) {
	a := NewSummary("", agtest.Results{}, nil, "local")
	b := NewSummary("", agtest.Results{}, nil, "local")
	assert.Len(t, a.RunID, 36)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.True(t, a.OK())
}

func TestSummaryJSONShape(t *testing.T) {
	s := Summary{
		RunID:     "run-2",
		TestEnv:   "local",
		StartTime: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 3, 1, 10, 0, 1, 500*int(time.Millisecond), time.UTC),
		Total:     1,
		Passed:    1,
		Tests:     []TestRecord{{ID: "productos/api/health", Status: "passed", DurationMs: 12.5}},
		Latency:   map[string]perf.Stats{"health_check": {Count: 1, MeanMs: 12.5}},
	}
	data, err := s.MarshalJSON()
	require.NoError(t, err)

	expected := `{
		"runId": "run-2", "testEnv": "local",
		"startTime": "2024-03-01T10:00:00.000Z", "endTime": "2024-03-01T10:00:01.500Z", "durationMs": 1500,
		"counts": {"total": 1, "passed": 1, "failed": 0, "nonCriticalFailed": 0, "skipped": 0},
		"tests": [{"id": "productos/api/health", "status": "passed", "durationMs": 12.5}],
		"latency": {"health_check": {"count": 1, "meanMs": 12.5, "medianMs": 0, "minMs": 0, "maxMs": 0,
			"p95Ms": 0, "p99Ms": 0, "throughputRps": 0}}
	}`
	assert.JSONEq(t, expected, string(data))
}

func TestFileStoreWritesSummary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "results.json")
	store := NewFileStore(path, nil)
	s := makeSummary()

	require.NoError(t, store.Save(context.Background(), s))
	require.NoError(t, store.Close())

	read, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, s.RunID, read.RunID)
	assert.Equal(t, s.Failed, read.Failed)
	assert.Equal(t, s.StartTime.UnixMilli(), read.StartTime.UnixMilli())
	assert.Equal(t, findRecord(t, s, "fails").Errors, findRecord(t, read, "fails").Errors)
	assert.InDelta(t, s.Latency["get_products"].MeanMs, read.Latency["get_products"].MeanMs, 0.0001)
}

func TestFileStoreDirectoryGetsOneFilePerRun(t *testing.T) {
	dir := t.TempDir() + "/"
	store := NewFileStore(dir, nil)
	for _, id := range []string{"first", "second"} {
		require.NoError(t, store.Save(context.Background(), NewSummary(id, agtest.Results{}, nil, "local")))
	}
	for _, id := range []string{"first", "second"} {
		_, err := os.Stat(filepath.Join(dir, id+".json"))
		assert.NoError(t, err)
	}
}

func TestReadFileRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"runId": 3}`), 0o600))
	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		store, err := Open(ctx, "file://out/results.json", nil)
		require.NoError(t, err)
		require.IsType(t, &FileStore{}, store)
		assert.Equal(t, "out/results.json", store.(*FileStore).PathFor("x"))
	})

	t.Run("redis", func(t *testing.T) {
		store, err := Open(ctx, "redis://localhost:6379/2?prefix=ci&keep=10", nil)
		require.NoError(t, err)
		defer store.Close() //nolint:errcheck
		require.IsType(t, &RedisStore{}, store)
		r := store.(*RedisStore)
		assert.Equal(t, "ci:run:abc", r.runKey("abc"))
		assert.Equal(t, "ci:runs", r.indexKey())
		assert.Equal(t, 10, r.keep)
		assert.Equal(t, 2, r.client.Options().DB)
	})

	t.Run("redis defaults", func(t *testing.T) {
		store, err := Open(ctx, "redis://localhost:6379", nil)
		require.NoError(t, err)
		defer store.Close() //nolint:errcheck
		r := store.(*RedisStore)
		assert.Equal(t, "agroweb:runs", r.indexKey())
		assert.Equal(t, defaultRedisKeep, r.keep)
	})

	t.Run("consul", func(t *testing.T) {
		store, err := Open(ctx, "consul://localhost:8500?prefix=ci/runs/", nil)
		require.NoError(t, err)
		require.IsType(t, &ConsulStore{}, store)
		assert.Equal(t, "ci/runs", store.(*ConsulStore).prefix)
	})

	t.Run("dynamodb", func(t *testing.T) {
		store, err := Open(ctx, "dynamodb://harness-runs?region=us-east-1&endpoint=http://localhost:8000", nil)
		require.NoError(t, err)
		require.IsType(t, &DynamoDBStore{}, store)
		assert.Equal(t, "harness-runs", store.(*DynamoDBStore).table)
	})

	for _, dsn := range []string{
		"results.json",
		"file://",
		"ftp://host/path",
		"redis://localhost:6379?keep=none",
		"dynamodb://?region=us-east-1",
	} {
		t.Run("invalid "+dsn, func(t *testing.T) {
			_, err := Open(ctx, dsn, nil)
			assert.Error(t, err)
		})
	}
}

type fakeTxn struct {
	batches []consul.KVTxnOps
	reject  bool
}

func (f *fakeTxn) Txn(ops consul.KVTxnOps, _ *consul.QueryOptions) (bool, *consul.KVTxnResponse, *consul.QueryMeta, error) {
	f.batches = append(f.batches, ops)
	if f.reject {
		return false, &consul.KVTxnResponse{Errors: consul.TxnErrors{{OpIndex: 1, What: "permission denied"}}}, nil, nil
	}
	return true, &consul.KVTxnResponse{}, nil, nil
}

func manyTests(n int) Summary {
	s := NewSummary("big", agtest.Results{}, nil, "local")
	for i := 0; i < n; i++ {
		s.Tests = append(s.Tests, TestRecord{ID: fmt.Sprintf("productos/lifecycle/case %d", i), Status: "passed"})
	}
	return s
}

func TestConsulStoreWritesKeysInBatches(t *testing.T) {
	txn := &fakeTxn{}
	store := NewConsulStore(txn, "", nil)
	s := manyTests(100)
	s.Latency = map[string]perf.Stats{"get_products": {Count: 3}}

	require.NoError(t, store.Save(context.Background(), s))

	var keys []string
	for _, batch := range txn.batches {
		assert.LessOrEqual(t, len(batch), consulMaxTxnOps)
		for _, op := range batch {
			assert.Equal(t, consul.KVSet, op.Verb)
			keys = append(keys, op.Key)
		}
	}
	assert.Len(t, txn.batches, 2)
	assert.Len(t, keys, 4+5+100+1)
	assert.Contains(t, keys, "agroweb/runs/big/summary")
	assert.Contains(t, keys, "agroweb/runs/big/counts/passed")
	assert.Contains(t, keys, "agroweb/runs/big/tests/productos/lifecycle/case 99")
	assert.Contains(t, keys, "agroweb/runs/big/latency/get_products")
}

func TestConsulStoreReportsRejectedTransaction(t *testing.T) {
	store := NewConsulStore(&fakeTxn{reject: true}, "", nil)
	err := store.Save(context.Background(), manyTests(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op 1: permission denied")
}

type fakeDynamoDB struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakeDynamoDB) PutItem(
	_ context.Context,
	params *dynamodb.PutItemInput,
	_ ...func(*dynamodb.Options),
) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, params)
	return &dynamodb.PutItemOutput{}, f.err
}

func stringAttr(t *testing.T, item map[string]types.AttributeValue, name string) string {
	v, ok := item[name].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %s is not a string", name)
	return v.Value
}

func TestDynamoDBStorePutsOneItemPerRun(t *testing.T) {
	client := &fakeDynamoDB{}
	store := NewDynamoDBStore(client, "harness-runs", nil)
	s := makeSummary()

	require.NoError(t, store.Save(context.Background(), s))
	require.Len(t, client.inputs, 1)

	input := client.inputs[0]
	assert.Equal(t, "harness-runs", *input.TableName)
	assert.Equal(t, "run-1", stringAttr(t, input.Item, runIDAttribute))
	assert.Equal(t, "failed", stringAttr(t, input.Item, "status"))
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1"}, input.Item["failed"])

	var stored Summary
	require.NoError(t, stored.UnmarshalJSON([]byte(stringAttr(t, input.Item, summaryAttribute))))
	assert.Len(t, stored.Tests, len(s.Tests))
}

func TestDynamoDBStoreDropsTestRecordsFromOversizedItems(t *testing.T) {
	client := &fakeDynamoDB{}
	store := NewDynamoDBStore(client, "harness-runs", nil)
	s := manyTests(1)
	s.Tests[0].Errors = []string{strings.Repeat("x", dynamoDBMaxItemSize)}

	require.NoError(t, store.Save(context.Background(), s))

	var stored Summary
	require.NoError(t, stored.UnmarshalJSON([]byte(stringAttr(t, client.inputs[0].Item, summaryAttribute))))
	assert.Empty(t, stored.Tests)
	assert.Equal(t, "big", stored.RunID)
}

func TestDynamoDBStoreWrapsErrors(t *testing.T) {
	cause := errors.New("ResourceNotFoundException")
	store := NewDynamoDBStore(&fakeDynamoDB{err: cause}, "missing", nil)
	err := store.Save(context.Background(), makeSummary())
	assert.ErrorIs(t, err, cause)
}
