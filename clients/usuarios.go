package clients

import (
	"context"
	"net/http"
	"net/url"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/config"
)

const usersUserAgent = "AgroWeb-UsuariosIntegrationTest/1.0"

// UsersClient talks to the usuarios service.
type UsersClient struct {
	*BaseClient
}

// NewUsersClient creates a client using the base URL and timeout from cfg.
func NewUsersClient(cfg config.UsersConfig, options ...ClientOption) *UsersClient {
	options = append([]ClientOption{WithTimeout(cfg.Timeout)}, options...)
	return &UsersClient{BaseClient: NewBaseClient(cfg.BaseURL, usersUserAgent, options...)}
}

// Register is POST /users/register.
func (c *UsersClient) Register(ctx context.Context, user ldvalue.Value) (*Response, error) {
	return c.DoJSON(ctx, http.MethodPost, "/users/register", user)
}

// ByID is GET /users/getById/{id}.
func (c *UsersClient) ByID(ctx context.Context, userID string) (*Response, error) {
	return c.Get(ctx, "/users/getById/"+url.PathEscape(userID))
}

// ByEmail is GET /users/getByEmail/{email}.
func (c *UsersClient) ByEmail(ctx context.Context, email string) (*Response, error) {
	return c.Get(ctx, "/users/getByEmail/"+url.PathEscape(email))
}

// Authenticate is POST /users/autenticate/; the path is spelled that way by the service.
func (c *UsersClient) Authenticate(ctx context.Context, credentials ldvalue.Value) (*Response, error) {
	return c.DoJSON(ctx, http.MethodPost, "/users/autenticate/", credentials)
}
