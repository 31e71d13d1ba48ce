package suites

import (
	"context"
	"net/http"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/clients"
	"github.com/agroweb/integration-harness/data"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/generator"
	"github.com/agroweb/integration-harness/validator"
)

type errorResponseScenario struct {
	Name             string `json:"name"`
	Payload          string `json:"payload"`
	ExpectStatus     int    `json:"expectStatus"`
	MinMessageLength int    `json:"minMessageLength"`
}

type rejectedRequestScenario struct {
	Name         string `json:"name"`
	Method       string `json:"method"`
	Path         string `json:"path"`
	ExpectStatus []int  `json:"expectStatus"`
}

func doProductosErrorTests(t *agtest.T) {
	t.Run("missing fields", func(t *agtest.T) {
		message := rejectProduct(t, productGenerator(t).InvalidProductMissingFields())
		assertMessageMentions(t, message, "campo", "field")
	})
	t.Run("wrong types", func(t *agtest.T) {
		message := rejectProduct(t, productGenerator(t).InvalidProductWrongTypes())
		assertMessageMentions(t, message, "type", "tipo", "invalid")
	})
	t.Run("negative values", func(t *agtest.T) {
		message := rejectProduct(t, productGenerator(t).InvalidProductNegativeValues())
		assertMessageMentions(t, message, "negativ", "invalid", "positive")
	})
	t.Run("invalid category", func(t *agtest.T) {
		message := rejectProduct(t, productGenerator(t).InvalidProductInvalidCategory())
		assertMessageMentions(t, message, "categor")
	})
	t.Run("empty body", func(t *agtest.T) {
		rejectProduct(t, productGenerator(t).EmptyProduct())
	})
	t.Run("invalid content type", productsInvalidContentType)
	t.Run("nonexistent product", productsNonexistent)
	t.Run("invalid id format", productsInvalidIDFormat)
	t.Run("rejected requests", productsRejectedRequests)
	t.Run("very long strings", productsVeryLongStrings)
	t.Run("error response consistency", productsErrorConsistency)
	t.Run("stability after errors", productsStabilityAfterErrors)
}

func postProduct(t *agtest.T, payload ldvalue.Value) *clients.Response {
	t.Helper()
	c := productsClient(t)
	return call(t, "create_product", func(ctx context.Context) (*clients.Response, error) {
		return c.CreateProduct(ctx, payload)
	})
}

// rejectProduct posts a product that must be refused with status 400 and a proper error body,
// and returns the lowercased error message.
func rejectProduct(t *agtest.T, payload ldvalue.Value) string {
	t.Helper()
	resp := postProduct(t, payload)
	requireStatus(t, resp, 400)
	body := requireJSON(t, resp)
	requireValid(t, validator.ErrorResponse(body, 400))
	t.Debug("rejected with: %s", errorMessage(body))
	return errorMessage(body)
}

func productsInvalidContentType(t *agtest.T) {
	c := productsClient(t)
	payload := productGenerator(t).ValidProduct(generator.ProductOptions{})
	resp := call(t, "create_product", func(ctx context.Context) (*clients.Response, error) {
		return c.CreateProductRaw(ctx, []byte(payload.JSONString()), "text/plain")
	})
	requireStatus(t, resp, http.StatusUnsupportedMediaType)
	body := requireJSON(t, resp)
	assertValid(t, validator.ErrorResponse(body, http.StatusUnsupportedMediaType))
	assertMessageMentions(t, errorMessage(body), "content-type", "application/json")
}

func productsNonexistent(t *agtest.T) {
	c := productsClient(t)
	id := productGenerator(t).NewProductID()
	resp := call(t, "get_product_by_id", func(ctx context.Context) (*clients.Response, error) {
		return c.ProductByID(ctx, id)
	})
	requireStatus(t, resp, 404)
	body := requireJSON(t, resp)
	assertValid(t, validator.ErrorResponse(body, 404))
	assertMessageMentions(t, errorMessage(body), "encontrado", "not found")
}

func productsInvalidIDFormat(t *agtest.T) {
	c := productsClient(t)
	resp := call(t, "get_product_by_id", func(ctx context.Context) (*clients.Response, error) {
		return c.ProductByID(ctx, "invalid-id-format")
	})
	requireStatusIn(t, resp, 400, 404)
	if resp.StatusCode == 400 {
		assertMessageMentions(t, errorMessage(requireJSON(t, resp)), "invalid", "formato")
	}
}

func productsRejectedRequests(t *agtest.T) {
	sources, err := data.LoadDataFile("scenarios/productos-invalid-requests.yaml")
	require.NoError(t, err)
	c := productsClient(t)
	for _, source := range sources {
		var scenario rejectedRequestScenario
		require.NoError(t, source.ParseInto(&scenario))
		t.Run(scenario.Name, func(t *agtest.T) {
			resp := call(t, "rejected_request", func(ctx context.Context) (*clients.Response, error) {
				return c.Do(ctx, scenario.Method, scenario.Path, nil, nil)
			})
			requireStatusIn(t, resp, scenario.ExpectStatus...)
		})
	}
}

func productsVeryLongStrings(t *agtest.T) {
	resp := postProduct(t, productGenerator(t).ProductWithVeryLongStrings())
	if resp.StatusCode == 201 {
		t.Debug("service accepts 1000-character strings")
		return
	}
	requireStatus(t, resp, 400)
	assertMessageMentions(t, errorMessage(requireJSON(t, resp)), "long", "largo", "length")
}

func productsErrorConsistency(t *agtest.T) {
	sources, err := data.LoadDataFile("scenarios/productos-error-responses.yaml")
	require.NoError(t, err)
	g := productGenerator(t)
	for _, source := range sources {
		var scenario errorResponseScenario
		require.NoError(t, source.ParseInto(&scenario))
		t.Run(scenario.Name, func(t *agtest.T) {
			payload, err := g.InvalidPayload(scenario.Payload)
			require.NoError(t, err)
			resp := postProduct(t, payload)
			requireStatus(t, resp, scenario.ExpectStatus)
			assertValid(t, validator.ContentType(resp, "application/json"))
			body := requireJSON(t, resp)
			requireValid(t, validator.ErrorResponse(body, scenario.ExpectStatus))
			assert.Greater(t, len(strings.TrimSpace(errorMessage(body))), scenario.MinMessageLength,
				"error message should be descriptive")
		})
	}
}

func productsStabilityAfterErrors(t *agtest.T) {
	c := productsClient(t)
	g := productGenerator(t)
	for _, payload := range scenarios(t).ErrorCases() {
		postProduct(t, payload)
	}
	call(t, "rejected_request", func(ctx context.Context) (*clients.Response, error) {
		return c.CreateProductRaw(ctx, []byte("{not json"), "application/json")
	})

	resp := call(t, "health_check", c.Health)
	requireStatus(t, resp, 200)
	requireValid(t, validator.HealthResponse(requireJSON(t, resp)))

	createProduct(t, c, g.ValidProduct(generator.ProductOptions{}))
}
