package clients

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/config"
	"github.com/agroweb/integration-harness/framework/helpers"
)

const cartUserAgent = "AgroWeb-CarritoIntegrationTest/1.0"

// CartClient talks to the carrito service.
type CartClient struct {
	*BaseClient
	maxAttempts int
	retryDelay  time.Duration
}

// NewCartClient creates a client using the base URL, timeout and retry settings from cfg.
func NewCartClient(cfg config.CartConfig, options ...ClientOption) *CartClient {
	options = append([]ClientOption{WithTimeout(cfg.Timeout)}, options...)
	return &CartClient{
		BaseClient:  NewBaseClient(cfg.BaseURL, cartUserAgent, options...),
		maxAttempts: cfg.MaxRetryAttempts,
		retryDelay:  cfg.RetryDelay,
	}
}

// CreateCart is POST /carrito/create. The service fails intermittently with status 500 when its
// connection pool is exhausted, so the request is retried on 500 or on a transport error.
func (c *CartClient) CreateCart(ctx context.Context, user ldvalue.Value) (*Response, error) {
	attempt := 0
	return helpers.Retry(ctx, c.maxAttempts, c.retryDelay,
		func() (*Response, error) {
			attempt++
			if attempt > 1 {
				c.logger.Printf("Retrying cart creation (attempt %d of %d)", attempt, c.maxAttempts)
			}
			return c.DoJSON(ctx, http.MethodPost, "/carrito/create", user)
		},
		func(resp *Response, err error) bool {
			return err != nil || resp.StatusCode == http.StatusInternalServerError
		},
	)
}

// AddProduct is POST /carrito/addProduct.
func (c *CartClient) AddProduct(ctx context.Context, line ldvalue.Value) (*Response, error) {
	return c.DoJSON(ctx, http.MethodPost, "/carrito/addProduct", line)
}

// ChangeQuantity is PUT /carrito/changeQuantity.
func (c *CartClient) ChangeQuantity(ctx context.Context, line ldvalue.Value) (*Response, error) {
	return c.DoJSON(ctx, http.MethodPut, "/carrito/changeQuantity", line)
}

// DeleteProduct is DELETE /carrito/deleteProduct.
func (c *CartClient) DeleteProduct(ctx context.Context, body ldvalue.Value) (*Response, error) {
	return c.DoJSON(ctx, http.MethodDelete, "/carrito/deleteProduct", body)
}

// EmptyCart is DELETE /carrito/vaciar.
func (c *CartClient) EmptyCart(ctx context.Context, body ldvalue.Value) (*Response, error) {
	return c.DoJSON(ctx, http.MethodDelete, "/carrito/vaciar", body)
}

// GetCart is GET /carrito/getCarrito/{id}.
func (c *CartClient) GetCart(ctx context.Context, cartID string) (*Response, error) {
	return c.Get(ctx, "/carrito/getCarrito/"+url.PathEscape(cartID))
}
