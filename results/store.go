package results

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/agroweb/integration-harness/framework"
)

// Store archives run summaries.
type Store interface {
	Save(ctx context.Context, s Summary) error
	Close() error
}

// Open returns the store described by dsn:
//
//	file://path/to/results.json    (a path ending in "/" gets one file per run)
//	redis://[:password@]host:port[/db][?prefix=agroweb&keep=100]
//	consul://host:port[?prefix=agroweb/runs&token=...]
//	dynamodb://table[?region=us-east-1&endpoint=http://localhost:8000]
func Open(ctx context.Context, dsn string, logger framework.Logger) (Store, error) {
	if logger == nil {
		logger = framework.NullLogger()
	}
	scheme, rest, found := strings.Cut(dsn, "://")
	if !found {
		return nil, fmt.Errorf("results DSN %q has no scheme", dsn)
	}
	switch scheme {
	case "file":
		if rest == "" {
			return nil, fmt.Errorf("results DSN %q has no path", dsn)
		}
		return NewFileStore(rest, logger), nil
	case "redis", "rediss":
		return openRedis(dsn, logger)
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid results DSN: %w", err)
	}
	switch scheme {
	case "consul":
		return openConsul(u, logger)
	case "dynamodb":
		return openDynamoDB(ctx, u, logger)
	default:
		return nil, fmt.Errorf("unsupported results store %q", scheme)
	}
}

func queryInt(q url.Values, name string, defaultValue int) (int, error) {
	s := q.Get(name)
	if s == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s parameter %q", name, s)
	}
	return n, nil
}
