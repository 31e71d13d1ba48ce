package suites

import (
	"context"
	"net/http"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/clients"
	"github.com/agroweb/integration-harness/data"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/framework/helpers"
	"github.com/agroweb/integration-harness/validator"
)

type missingFieldScenario struct {
	Name         string `json:"name"`
	Omit         string `json:"omit"`
	ExpectStatus []int  `json:"expectStatus"`
}

func doUsuariosTests(t *agtest.T) {
	t.RequireCapability(CapabilityUsuarios)

	t.Run("register", func(t *agtest.T) {
		registerUser(t, usersClient(t), userGenerator(t).Registration())
	})
	t.Run("get by id", usersGetByID)
	t.Run("get by email", usersGetByEmail)
	t.Run("authenticate", usersAuthenticate)
	t.Run("wrong password", usersWrongPassword)
	t.Run("duplicate registration", usersDuplicate)
	t.Run("missing required field", usersMissingField)
	t.Run("invalid email", func(t *agtest.T) {
		rejectRegistration(t, userGenerator(t).WithInvalidEmail(), 400, 422)
	})
	t.Run("empty fields", func(t *agtest.T) {
		rejectRegistration(t, userGenerator(t).WithEmptyFields(), 400, 422)
	})
	t.Run("extra fields", usersExtraField)
	t.Run("authenticate missing fields", usersAuthenticateMissingFields)
	t.Run("invalid http methods", usersInvalidMethods)
}

// registerUser registers a user that must be accepted and returns the new user's ID.
func registerUser(t *agtest.T, c *clients.UsersClient, user ldvalue.Value) string {
	t.Helper()
	requireValid(t, validator.UserRegistration(user))
	resp := call(t, "register_user", func(ctx context.Context) (*clients.Response, error) {
		return c.Register(ctx, user)
	})
	requireStatusIn(t, resp, 200, 201)
	id := requireJSON(t, resp).GetByKey("_id")
	require.True(t, id.IsString() && id.StringValue() != "", "registration response has no _id: %s", resp.Text())
	t.Debug("registered %s as %s", user.GetByKey("email").StringValue(), id.StringValue())
	return id.StringValue()
}

func rejectRegistration(t *agtest.T, user ldvalue.Value, statuses ...int) {
	t.Helper()
	c := usersClient(t)
	resp := call(t, "register_user", func(ctx context.Context) (*clients.Response, error) {
		return c.Register(ctx, user)
	})
	requireStatusIn(t, resp, statuses...)
}

func assertSameUser(t *agtest.T, expected, actual ldvalue.Value) {
	t.Helper()
	for _, field := range []string{"email", "username", "numberDocument"} {
		assert.Equal(t, expected.GetByKey(field).StringValue(), actual.GetByKey(field).StringValue(), field)
	}
	_, hasPassword := actual.TryGetByKey("hashPassword")
	assert.False(t, hasPassword, "user lookups should not return the password")
}

func usersGetByID(t *agtest.T) {
	c := usersClient(t)
	user := userGenerator(t).Registration()
	id := registerUser(t, c, user)

	resp := call(t, "get_user_by_id", func(ctx context.Context) (*clients.Response, error) {
		return c.ByID(ctx, id)
	})
	requireStatus(t, resp, 200)
	assertSameUser(t, user, requireJSON(t, resp))
}

func usersGetByEmail(t *agtest.T) {
	c := usersClient(t)
	user := userGenerator(t).Registration()
	id := registerUser(t, c, user)

	resp := call(t, "get_user_by_email", func(ctx context.Context) (*clients.Response, error) {
		return c.ByEmail(ctx, user.GetByKey("email").StringValue())
	})
	requireStatus(t, resp, 200)
	found := requireJSON(t, resp)
	assertSameUser(t, user, found)
	assert.Equal(t, id, found.GetByKey("_id").StringValue())
}

func usersAuthenticate(t *agtest.T) {
	c := usersClient(t)
	g := userGenerator(t)
	user := g.Registration()
	registerUser(t, c, user)

	resp := call(t, "authenticate", func(ctx context.Context) (*clients.Response, error) {
		return c.Authenticate(ctx, g.Authentication(user))
	})
	requireStatus(t, resp, 200)
	assertSameUser(t, user, requireJSON(t, resp))
}

func usersWrongPassword(t *agtest.T) {
	c := usersClient(t)
	g := userGenerator(t)
	user := g.Registration()
	registerUser(t, c, user)

	resp := call(t, "authenticate", func(ctx context.Context) (*clients.Response, error) {
		return c.Authenticate(ctx, g.WrongPassword(user))
	})
	requireStatusIn(t, resp, 401, 400)
}

func usersDuplicate(t *agtest.T) {
	c := usersClient(t)
	user := userGenerator(t).DuplicateCandidate()
	registerUser(t, c, user)

	resp := call(t, "register_user", func(ctx context.Context) (*clients.Response, error) {
		return c.Register(ctx, user)
	})
	requireStatusIn(t, resp, 400, 409)
}

func usersMissingField(t *agtest.T) {
	sources, err := data.LoadDataFile("scenarios/usuarios-missing-fields.yaml")
	require.NoError(t, err)
	g := userGenerator(t)
	for _, source := range sources {
		var scenario missingFieldScenario
		require.NoError(t, source.ParseInto(&scenario))
		t.Run(scenario.Name, func(t *agtest.T) {
			require.Contains(t, g.RequiredFields(), scenario.Omit)
			user := g.WithoutField(scenario.Omit)
			assert.False(t, validator.UserRegistration(user).OK, "payload without %s should be invalid", scenario.Omit)
			rejectRegistration(t, user, scenario.ExpectStatus...)
		})
	}
}

func usersExtraField(t *agtest.T) {
	c := usersClient(t)
	user := userGenerator(t).WithExtraField()
	resp := call(t, "register_user", func(ctx context.Context) (*clients.Response, error) {
		return c.Register(ctx, user)
	})
	requireStatusIn(t, resp, 200, 201, 400, 422)
	if isStatus(resp, 400, 422) {
		t.Debug("service rejects unknown registration fields")
	}
}

func usersAuthenticateMissingFields(t *agtest.T) {
	c := usersClient(t)
	g := userGenerator(t)
	credentials := g.Authentication(g.Registration())
	for _, field := range []string{"email", "hashPassword"} {
		t.Run("without "+field, func(t *agtest.T) {
			resp := call(t, "authenticate", func(ctx context.Context) (*clients.Response, error) {
				return c.Authenticate(ctx, helpers.ObjectWithout(credentials, field))
			})
			requireStatusIn(t, resp, 400, 422)
		})
	}
}

func usersInvalidMethods(t *agtest.T) {
	c := usersClient(t)
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/users/register"},
		{http.MethodPut, "/users/register"},
		{http.MethodDelete, "/users/getById/000000000000000000000000"},
		{http.MethodGet, "/users/autenticate/"},
	} {
		t.Run(r.method+" "+r.path, func(t *agtest.T) {
			resp := call(t, "rejected_request", func(ctx context.Context) (*clients.Response, error) {
				return c.Do(ctx, r.method, r.path, nil, nil)
			})
			requireStatusIn(t, resp, 404, 405)
		})
	}
}
