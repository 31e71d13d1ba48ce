package suites

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/clients"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/generator"
	"github.com/agroweb/integration-harness/perf"
)

const (
	loadTestRequests     = 50
	loadTestUsers        = 5
	loadTestMinRPS       = 5
	repeatedQueries      = 10
	sustainedRPS         = 5
	maxSustainedDuration = 30 * time.Second
	mixedWorkloadSize    = 60
	mixedMinSuccessRate  = 0.95
)

func doProductosPerformanceTests(t *agtest.T) {
	t.Run("response time under load", productsResponseTimeUnderLoad)
	t.Run("individual query", productsIndividualQueryTime)
	t.Run("metrics endpoint", productsMetricsTime)
	t.Run("sustained load", productsSustainedLoad)
	t.Run("mixed workload", productsMixedWorkload)
}

func perfValidator(t *agtest.T) perf.Validator {
	return perf.NewValidator(environment(t).Config.Products.Thresholds)
}

// timedRequest adapts a client call to a perf.RequestFunc that records timings and counts only
// the expected status as a success.
func timedRequest(
	t *agtest.T,
	endpoint string,
	expectStatus int,
	fn func(ctx context.Context) (*clients.Response, error),
) perf.RequestFunc {
	timings := environment(t).Timings
	return func(ctx context.Context, _ int) perf.Outcome {
		resp, err := fn(ctx)
		if err != nil {
			return perf.Outcome{Operation: endpoint, Err: err}
		}
		timings.Record(endpoint, resp.Elapsed)
		if resp.StatusCode != expectStatus {
			return perf.Outcome{Operation: endpoint, Err: fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)}
		}
		return perf.Outcome{Operation: endpoint, Success: true}
	}
}

func productsResponseTimeUnderLoad(t *agtest.T) {
	env := environment(t)
	v := perfValidator(t)
	c := productsClient(t)

	report := perf.LoadRunner{Workers: loadTestUsers}.Run(context.Background(), loadTestRequests,
		timedRequest(t, "get_products", 200, c.AllProducts))
	t.Debug("load test: %s, success rate %.2f", report.Stats, report.SuccessRate)

	threshold := v.Threshold("get_products")
	assert.True(t, v.ValidateResponseTime("get_products", report.Stats.MeanMs),
		"average %.2fms exceeds %.0fms", report.Stats.MeanMs, threshold)
	assert.LessOrEqual(t, report.Stats.P95Ms, 2*threshold, "p95 latency")
	assert.GreaterOrEqual(t, report.SuccessRate, env.Config.Load.MinSuccessRate, "errors: %v", report.Errors)
	assert.True(t, v.ValidateErrorRate(report.ErrorRate, env.Config.Load.MaxErrorRate),
		"error rate %.2f", report.ErrorRate)
	assert.True(t, v.ValidateThroughput(report.Stats.ThroughputRPS, loadTestMinRPS),
		"throughput %.2f rps", report.Stats.ThroughputRPS)
}

func productsIndividualQueryTime(t *agtest.T) {
	v := perfValidator(t)
	c := productsClient(t)
	created := createProduct(t, c, productGenerator(t).ValidProduct(generator.ProductOptions{}))
	id := created.GetByKey("productId").StringValue()

	for i := 0; i < repeatedQueries; i++ {
		resp := call(t, "get_product_by_id", func(ctx context.Context) (*clients.Response, error) {
			return c.ProductByID(ctx, id)
		})
		requireStatus(t, resp, 200)
		assert.True(t, v.ValidateResponseTime("get_product_by_id", resp.ElapsedMs()),
			"query %d took %.2fms", i+1, resp.ElapsedMs())
	}
}

func productsMetricsTime(t *agtest.T) {
	v := perfValidator(t)
	c := productsClient(t)
	report := perf.LoadRunner{Workers: 1}.Run(context.Background(), repeatedQueries,
		timedRequest(t, "metrics", 200, c.Metrics))
	require.Equal(t, repeatedQueries, report.Successes, "errors: %v", report.Errors)
	assert.True(t, v.ValidateResponseTime("metrics", report.Stats.MeanMs),
		"average %.2fms exceeds %.0fms", report.Stats.MeanMs, v.Threshold("metrics"))
}

func productsSustainedLoad(t *agtest.T) {
	env := environment(t)
	v := perfValidator(t)
	c := productsClient(t)

	duration := env.Config.Load.Duration
	if duration > maxSustainedDuration {
		duration = maxSustainedDuration
	}
	report := perf.Sustained(context.Background(), sustainedRPS, duration,
		timedRequest(t, "get_products", 200, c.AllProducts))
	t.Debug("sustained load over %s: %s", duration, report.Stats)

	assert.LessOrEqual(t, report.Stats.MeanMs, 1.5*v.Threshold("get_products"), "average latency")
	assert.GreaterOrEqual(t, report.Stats.ThroughputRPS, 0.8*sustainedRPS, "achieved rate")
	assert.GreaterOrEqual(t, report.SuccessRate, env.Config.Load.MinSuccessRate, "errors: %v", report.Errors)
}

func productsMixedWorkload(t *agtest.T) {
	t.NonCritical("mixed workloads depend on shared-environment load")
	env := environment(t)
	c := productsClient(t)
	payloads := scenarios(t).PerformanceData(mixedWorkloadSize/3 + 1)

	health := timedRequest(t, "health_check", 200, c.Health)
	list := timedRequest(t, "get_products", 200, c.AllProducts)
	creates := make([]perf.RequestFunc, len(payloads))
	for i, payload := range payloads {
		creates[i] = timedRequest(t, "create_product", 201, func(ctx context.Context) (*clients.Response, error) {
			return c.CreateProduct(ctx, payload)
		})
	}
	report := perf.LoadRunner{Workers: env.Config.Load.ConcurrentUsers}.Run(context.Background(), mixedWorkloadSize,
		func(ctx context.Context, i int) perf.Outcome {
			switch i % 3 {
			case 0:
				return health(ctx, i)
			case 1:
				return list(ctx, i)
			default:
				return creates[i/3](ctx, i)
			}
		})
	for _, op := range report.Operations() {
		t.Debug("%s: %s, success rate %.2f", op, report.ByOperation[op].Stats, report.ByOperation[op].SuccessRate)
	}
	assert.GreaterOrEqual(t, report.SuccessRate, mixedMinSuccessRate, "errors: %v", report.Errors)
}
