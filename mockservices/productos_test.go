package mockservices

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/launchdarkly/go-test-helpers/v2/httphelpers"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/framework/helpers"
	"github.com/agroweb/integration-harness/generator"
	"github.com/agroweb/integration-harness/validator"
)

type testResponse struct {
	status int
	header http.Header
	body   string
}

func (r testResponse) json() ldvalue.Value {
	return ldvalue.Parse([]byte(r.body))
}

func send(t *testing.T, method, url, contentType, body string) testResponse {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return testResponse{status: resp.StatusCode, header: resp.Header, body: string(data)}
}

func sendJSON(t *testing.T, method, url string, body ldvalue.Value) testResponse {
	t.Helper()
	return send(t, method, url, "application/json", body.JSONString())
}

func withProductsService(t *testing.T, action func(p *ProductsService, url string)) {
	testLog := ldlogtest.NewMockLog()
	testLog.Loggers.SetMinLevel(ldlog.Debug)
	defer testLog.DumpIfTestFailed(t)

	service := NewProductsService(nil, testLog.Loggers.ForLevel(ldlog.Debug))
	httphelpers.WithServer(service, func(server *httptest.Server) {
		action(service, server.URL)
	})
}

func TestProductsHealthAndTestRoute(t *testing.T) {
	withProductsService(t, func(_ *ProductsService, url string) {
		resp := send(t, "GET", url+"/health", "", "")
		require.Equal(t, 200, resp.status)
		assert.True(t, validator.HealthResponse(resp.json()).OK)

		resp = send(t, "GET", url+"/test", "", "")
		assert.Equal(t, 200, resp.status)
		assert.Equal(t, `"Test route is working!"`, resp.body)
	})
}

func TestProductsCreateAndRetrieve(t *testing.T) {
	g := generator.NewProductGenerator(generator.DefaultCatalog())
	withProductsService(t, func(service *ProductsService, url string) {
		payload := g.ValidProduct(generator.ProductOptions{})
		resp := sendJSON(t, "POST", url+"/products", payload)
		require.Equal(t, 201, resp.status, resp.body)

		created := resp.json()
		id := created.GetByKey("productId").StringValue()
		assert.NotEqual(t, payload.GetByKey("productId").StringValue(), id)
		assert.True(t, validator.ProductStructure(created).OK, resp.body)
		for _, field := range []string{"name", "category", "price", "stock", "unit", "origin", "description"} {
			assert.Equal(t, payload.GetByKey(field), created.GetByKey(field), field)
		}
		assert.Equal(t, ldvalue.Bool(payload.GetByKey("stock").IntValue() > 0), created.GetByKey("inStock"))

		resp = send(t, "GET", url+"/products/"+id, "", "")
		require.Equal(t, 200, resp.status)
		m.In(t).Assert(resp.body, m.JSONStrEqual(created.JSONString()))

		resp = send(t, "GET", url+"/products", "", "")
		require.Equal(t, 200, resp.status)
		list := resp.json()
		assert.Equal(t, 1, list.Count())
		assert.True(t, validator.ProductsList(list).OK)
		assert.Len(t, service.Products(), 1)
	})
}

func TestProductsEdgeCasesAreAccepted(t *testing.T) {
	g := generator.NewProductGenerator(generator.DefaultCatalog())
	withProductsService(t, func(_ *ProductsService, url string) {
		for _, p := range g.EdgeCaseProducts() {
			resp := sendJSON(t, "POST", url+"/products", p)
			assert.Equal(t, 201, resp.status, resp.body)
		}
	})
}

func TestProductsRejectsInvalidProducts(t *testing.T) {
	g := generator.NewProductGenerator(generator.DefaultCatalog())
	for _, tc := range []struct {
		name     string
		payload  ldvalue.Value
		contains string
	}{
		{"missing fields", g.InvalidProductMissingFields(), "campo"},
		{"wrong types", g.InvalidProductWrongTypes(), "invalid type"},
		{"negative values", g.InvalidProductNegativeValues(), "negativ"},
		{"invalid category", g.InvalidProductInvalidCategory(), "categor"},
		{"empty", g.EmptyProduct(), "producto"},
		{"long strings", g.ProductWithVeryLongStrings(), "long"},
		{"relative image", helpers.ObjectWith(g.ValidProduct(generator.ProductOptions{}), "imageUrl",
			ldvalue.String("/x.jpg")), "imageurl"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			withProductsService(t, func(service *ProductsService, url string) {
				resp := sendJSON(t, "POST", url+"/products", tc.payload)
				require.Equal(t, 400, resp.status)
				assert.Contains(t, resp.header.Get("Content-Type"), "application/json")
				body := resp.json()
				assert.True(t, validator.ErrorResponse(body, 400).OK)
				assert.Contains(t, strings.ToLower(body.GetByKey("error").StringValue()), tc.contains)
				assert.Len(t, service.Products(), 0)
			})
		})
	}
}

func TestProductsRequiresJSONContentType(t *testing.T) {
	withProductsService(t, func(_ *ProductsService, url string) {
		resp := send(t, "POST", url+"/products", "text/plain", `{"name":"x"}`)
		assert.Equal(t, 415, resp.status)
		assert.Contains(t, strings.ToLower(resp.json().GetByKey("error").StringValue()), "application/json")

		resp = send(t, "POST", url+"/products", "application/json", `not json`)
		assert.Equal(t, 400, resp.status)
	})
}

func TestProductsNotFound(t *testing.T) {
	withProductsService(t, func(_ *ProductsService, url string) {
		resp := send(t, "GET", url+"/products/PROD-NONEXISTENT123", "", "")
		assert.Equal(t, 404, resp.status)
		assert.Contains(t, resp.json().GetByKey("error").StringValue(), "not found")

		resp = send(t, "GET", url+"/products/invalid-id-format", "", "")
		assert.Equal(t, 400, resp.status)
		assert.Contains(t, resp.json().GetByKey("error").StringValue(), "invalid")

		resp = send(t, "GET", url+"/nonexistent/endpoint/123", "", "")
		assert.Equal(t, 404, resp.status)
		assert.True(t, validator.ErrorResponse(resp.json(), 404).OK)

		resp = send(t, "DELETE", url+"/products", "", "")
		assert.Equal(t, 405, resp.status)
	})
}

func TestProductsMetrics(t *testing.T) {
	withProductsService(t, func(_ *ProductsService, url string) {
		send(t, "GET", url+"/health", "", "")
		send(t, "GET", url+"/products/PROD-00000000", "", "")

		resp := send(t, "GET", url+"/metrics", "", "")
		require.Equal(t, 200, resp.status)
		assert.Contains(t, resp.header.Get("Content-Type"), "text/plain")

		r := validator.PrometheusMetrics(resp.body)
		assert.True(t, r.OK, r.String())
		assert.Empty(t, r.Warnings)
		assert.Contains(t, resp.body, `productos_requests_total{method="GET",endpoint="/health",status="200"} 1`)
		assert.Contains(t, resp.body, `productos_errors_total{endpoint="/products/{id}"} 1`)
		assert.Contains(t, resp.body, "flask_http_requests_total")
		assert.Contains(t, resp.body, "flask_http_request_duration_seconds")
		assert.Contains(t, resp.body, "agroweb_productos_info")
	})
}
