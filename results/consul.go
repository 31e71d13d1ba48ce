package results

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	consul "github.com/hashicorp/consul/api"

	"github.com/agroweb/integration-harness/framework"
)

const (
	defaultConsulPrefix = "agroweb/runs"

	// Consul rejects transactions with more than 64 operations.
	consulMaxTxnOps = 64
)

type consulTxn interface {
	Txn(txn consul.KVTxnOps, q *consul.QueryOptions) (bool, *consul.KVTxnResponse, *consul.QueryMeta, error)
}

// ConsulStore writes a run as a tree of keys under <prefix>/<runId>/: the full summary, the
// counts, one key per test holding its status and one per endpoint holding its latency stats.
type ConsulStore struct {
	kv     consulTxn
	prefix string
	logger framework.Logger
}

func openConsul(u *url.URL, logger framework.Logger) (*ConsulStore, error) {
	cfg := consul.DefaultConfig()
	if u.Host != "" {
		cfg.Address = u.Host
	}
	q := u.Query()
	if token := q.Get("token"); token != "" {
		cfg.Token = token
	}
	client, err := consul.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("cannot create Consul client: %w", err)
	}
	return NewConsulStore(client.KV(), q.Get("prefix"), logger), nil
}

// NewConsulStore accepts a *consul.KV or anything else with the same Txn method.
func NewConsulStore(kv consulTxn, prefix string, logger framework.Logger) *ConsulStore {
	if prefix == "" {
		prefix = defaultConsulPrefix
	}
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &ConsulStore{kv: kv, prefix: strings.TrimSuffix(prefix, "/"), logger: logger}
}

// Keys returns the write operations for a run, before they are split into transactions.
func (c *ConsulStore) Keys(s Summary) (consul.KVTxnOps, error) {
	base := c.prefix + "/" + s.RunID + "/"
	doc, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	ops := consul.KVTxnOps{
		{Verb: consul.KVSet, Key: base + "summary", Value: doc},
		{Verb: consul.KVSet, Key: base + "testEnv", Value: []byte(s.TestEnv)},
		{Verb: consul.KVSet, Key: base + "startTime", Value: []byte(formatTime(s.StartTime))},
		{Verb: consul.KVSet, Key: base + "status", Value: []byte(runStatus(s))},
	}
	for name, n := range map[string]int{
		"total":             s.Total,
		"passed":            s.Passed,
		"failed":            s.Failed,
		"nonCriticalFailed": s.NonCriticalFailed,
		"skipped":           s.Skipped,
	} {
		ops = append(ops, &consul.KVTxnOp{Verb: consul.KVSet, Key: base + "counts/" + name, Value: []byte(strconv.Itoa(n))})
	}
	for _, t := range s.Tests {
		ops = append(ops, &consul.KVTxnOp{Verb: consul.KVSet, Key: base + "tests/" + t.ID, Value: []byte(t.Status)})
	}
	for endpoint, stats := range s.Latency {
		ops = append(ops, &consul.KVTxnOp{Verb: consul.KVSet, Key: base + "latency/" + endpoint, Value: statsJSON(stats)})
	}
	return ops, nil
}

func (c *ConsulStore) Save(ctx context.Context, s Summary) error {
	ops, err := c.Keys(s)
	if err != nil {
		return fmt.Errorf("cannot encode results: %w", err)
	}
	for start := 0; start < len(ops); start += consulMaxTxnOps {
		end := start + consulMaxTxnOps
		if end > len(ops) {
			end = len(ops)
		}
		ok, resp, _, err := c.kv.Txn(ops[start:end], (&consul.QueryOptions{}).WithContext(ctx))
		if err != nil {
			return fmt.Errorf("cannot save results to Consul: %w", err)
		}
		if !ok {
			var problems []string
			if resp != nil {
				for _, e := range resp.Errors {
					problems = append(problems, fmt.Sprintf("op %d: %s", start+e.OpIndex, e.What))
				}
			}
			return fmt.Errorf("transaction rejected by Consul: %s", strings.Join(problems, "; "))
		}
	}
	c.logger.Printf("Saved results of run %s to Consul under %s/%s/ (%d keys)", s.RunID, c.prefix, s.RunID, len(ops))
	return nil
}

func (c *ConsulStore) Close() error { return nil }

func runStatus(s Summary) string {
	if s.OK() {
		return "passed"
	}
	return "failed"
}
