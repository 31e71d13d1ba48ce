package suites

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/clients"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/framework/opt"
	"github.com/agroweb/integration-harness/generator"
	"github.com/agroweb/integration-harness/perf"
	"github.com/agroweb/integration-harness/validator"
)

const concurrentCreations = 10

func doProductosAPITests(t *agtest.T) {
	t.Run("health", productsHealth)
	t.Run("list products", productsList)
	t.Run("create valid product", productsCreateValid)
	t.Run("get product by id", productsGetByID)
	t.Run("multiple categories", productsMultipleCategories)
	t.Run("metrics", productsMetrics)
	t.Run("test endpoint", productsTestEndpoint)
	t.Run("lifecycle", productsCreateRetrieveList)
	t.Run("concurrent creation", productsConcurrentCreation)
}

func productsHealth(t *agtest.T) {
	products := environment(t).Config.Products
	c := productsClient(t)

	resp := call(t, "health_check", c.Health)
	requireStatus(t, resp, 200)
	assertValid(t, validator.ContentType(resp, "application/json"))
	requireValid(t, validator.HealthResponse(requireJSON(t, resp)))
	assertResponseTime(t, resp, products.Threshold("health_check"))
}

func productsList(t *agtest.T) {
	env := environment(t)
	c := productsClient(t)

	// make sure there is at least one product to look at
	created := createProduct(t, c, productGenerator(t).ValidProduct(generator.ProductOptions{}))

	resp := call(t, "get_products", c.AllProducts)
	requireStatus(t, resp, 200)
	list := requireJSON(t, resp)
	requireValid(t, validator.ProductsList(list))
	assert.Contains(t, clients.ExtractProductIDs(list), created.GetByKey("productId").StringValue())
	assertResponseTime(t, resp, env.Config.Products.Threshold("get_products"))

	t.Debug("%d products, total stock %d", list.Count(), clients.TotalStock(list))
	logWarnings(t, validator.CategoryMismatch(validator.DefaultCategories(), env.Config.Products.CatalogCategories))
}

// createProduct posts a product that must be accepted, checks the echoed product, and returns it.
func createProduct(t *agtest.T, c *clients.ProductsClient, payload ldvalue.Value) ldvalue.Value {
	t.Helper()
	resp := call(t, "create_product", func(ctx context.Context) (*clients.Response, error) {
		return c.CreateProduct(ctx, payload)
	})
	requireStatus(t, resp, 201)
	created := requireJSON(t, resp)
	requireValid(t, validator.ProductStructure(created))
	for _, field := range []string{"name", "category", "price", "stock", "unit", "origin"} {
		m.In(t).Assert(created.GetByKey(field), m.JSONEqual(payload.GetByKey(field)))
	}
	return created
}

func productsCreateValid(t *agtest.T) {
	c := productsClient(t)
	payload := productGenerator(t).ValidProduct(generator.ProductOptions{})
	created := createProduct(t, c, payload)

	assert.Equal(t, created.GetByKey("stock").IntValue() > 0, created.GetByKey("inStock").BoolValue())
	t.Debug("created %s", created.GetByKey("productId").StringValue())
}

func productsGetByID(t *agtest.T) {
	env := environment(t)
	c := productsClient(t)
	created := createProduct(t, c, productGenerator(t).ValidProduct(generator.ProductOptions{}))
	id := created.GetByKey("productId").StringValue()

	resp := call(t, "get_product_by_id", func(ctx context.Context) (*clients.Response, error) {
		return c.ProductByID(ctx, id)
	})
	requireStatus(t, resp, 200)
	fetched := requireJSON(t, resp)
	requireValid(t, validator.ProductStructure(fetched))
	m.In(t).Assert(fetched, m.JSONEqual(created))
	assertResponseTime(t, resp, env.Config.Products.Threshold("get_product_by_id"))
}

func productsMultipleCategories(t *agtest.T) {
	c := productsClient(t)
	g := productGenerator(t)
	for _, category := range environment(t).Catalog.Categories {
		t.Run(category, func(t *agtest.T) {
			created := createProduct(t, c, g.ValidProduct(generator.ProductOptions{Category: opt.Some(category)}))
			assert.Equal(t, category, created.GetByKey("category").StringValue())
		})
	}
}

func productsMetrics(t *agtest.T) {
	env := environment(t)
	c := productsClient(t)

	// generate some traffic for the counters
	call(t, "health_check", c.Health)

	resp := call(t, "metrics", c.Metrics)
	requireStatus(t, resp, 200)
	assertValid(t, validator.ContentType(resp, "text/plain"))
	result := validator.PrometheusMetrics(resp.Text(), env.Config.Products.ExpectedMetrics...)
	requireValid(t, result)
	logWarnings(t, result)
	for _, name := range []string{"flask_http_requests_total", "agroweb_productos_info", "flask_http_request_duration_seconds"} {
		assert.Contains(t, resp.Text(), name)
	}
	assertResponseTime(t, resp, env.Config.Products.Threshold("metrics"))
}

func productsTestEndpoint(t *agtest.T) {
	c := productsClient(t)
	resp := call(t, "test_endpoint", c.TestEndpoint)
	requireStatus(t, resp, 200)
	body := requireJSON(t, resp)
	assert.Contains(t, strings.ToLower(body.StringValue()), "working")
	assertResponseTime(t, resp, environment(t).Config.Products.Threshold("test_endpoint"))
}

// productsCreateRetrieveList follows one product through creation, retrieval and listing.
func productsCreateRetrieveList(t *agtest.T) {
	c := productsClient(t)
	payload := productGenerator(t).ValidProduct(generator.ProductOptions{Name: opt.Some(
		fmt.Sprintf("Lifecycle Test %s", productGenerator(t).NewProductID()))})
	created := createProduct(t, c, payload)
	id := created.GetByKey("productId").StringValue()

	resp := call(t, "get_product_by_id", func(ctx context.Context) (*clients.Response, error) {
		return c.ProductByID(ctx, id)
	})
	requireStatus(t, resp, 200)
	m.In(t).Assert(requireJSON(t, resp).GetByKey("name"), m.JSONEqual(payload.GetByKey("name")))

	resp = call(t, "get_products", c.AllProducts)
	requireStatus(t, resp, 200)
	found, ok := clients.FindProductByName(requireJSON(t, resp), payload.GetByKey("name").StringValue())
	require.True(t, ok, "created product is not in the list")
	assert.Equal(t, id, found.GetByKey("productId").StringValue())
}

func productsConcurrentCreation(t *agtest.T) {
	env := environment(t)
	c := productsClient(t)
	products := productGenerator(t).BulkProducts(concurrentCreations, opt.None[string]())

	var lock sync.Mutex
	ids := make(map[string]struct{})
	runner := perf.LoadRunner{Workers: env.Config.Load.ConcurrentUsers}
	report := runner.Run(context.Background(), len(products), func(ctx context.Context, i int) perf.Outcome {
		resp, err := c.CreateProduct(ctx, products[i])
		if err != nil {
			return perf.Outcome{Err: err}
		}
		env.Timings.Record("create_product", resp.Elapsed)
		if resp.StatusCode != 201 {
			return perf.Outcome{Err: fmt.Errorf("status %d: %s", resp.StatusCode, resp.Text())}
		}
		lock.Lock()
		ids[resp.JSON().GetByKey("productId").StringValue()] = struct{}{}
		lock.Unlock()
		return perf.Outcome{Success: true}
	})
	t.Debug("concurrent creation: %s", report.Stats)

	require.Equal(t, len(products), report.Successes, "errors: %v", report.Errors)
	assert.Len(t, ids, len(products), "product IDs should all be different")
}
