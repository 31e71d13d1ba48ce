package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/config"
)

const productsUserAgent = "AgroWeb-ProductsIntegrationTest/1.0"

// ProductsClient talks to the productos service.
type ProductsClient struct {
	*BaseClient
}

// NewProductsClient creates a client using the base URL and timeout from cfg. Options are applied
// after those settings.
func NewProductsClient(cfg config.ProductsConfig, options ...ClientOption) *ProductsClient {
	options = append([]ClientOption{WithTimeout(cfg.Timeout)}, options...)
	return &ProductsClient{BaseClient: NewBaseClient(cfg.BaseURL, productsUserAgent, options...)}
}

// Health is GET /health.
func (c *ProductsClient) Health(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/health")
}

// AllProducts is GET /products.
func (c *ProductsClient) AllProducts(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/products")
}

// ProductByID is GET /products/{id}.
func (c *ProductsClient) ProductByID(ctx context.Context, productID string) (*Response, error) {
	return c.Get(ctx, "/products/"+url.PathEscape(productID))
}

// CreateProduct is POST /products.
func (c *ProductsClient) CreateProduct(ctx context.Context, product ldvalue.Value) (*Response, error) {
	return c.DoJSON(ctx, http.MethodPost, "/products", product)
}

// CreateProductRaw posts an arbitrary body with the given Content-Type, to see how the service
// handles requests that are not JSON.
func (c *ProductsClient) CreateProductRaw(ctx context.Context, body []byte, contentType string) (*Response, error) {
	return c.Do(ctx, http.MethodPost, "/products", body, http.Header{"Content-Type": {contentType}})
}

// CreateProducts creates each product in turn. It stops at the first transport error.
func (c *ProductsClient) CreateProducts(ctx context.Context, products []ldvalue.Value) ([]*Response, error) {
	ret := make([]*Response, 0, len(products))
	for _, p := range products {
		resp, err := c.CreateProduct(ctx, p)
		if err != nil {
			return ret, err
		}
		ret = append(ret, resp)
	}
	return ret, nil
}

// Metrics is GET /metrics, which returns Prometheus text.
func (c *ProductsClient) Metrics(ctx context.Context) (*Response, error) {
	return c.Do(ctx, http.MethodGet, "/metrics", nil, http.Header{"Accept": {"text/plain"}})
}

// TestEndpoint is GET /test.
func (c *ProductsClient) TestEndpoint(ctx context.Context) (*Response, error) {
	return c.Get(ctx, "/test")
}
