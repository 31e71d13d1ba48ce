// Package suites contains the AgroWeb integration tests: one top-level suite per service, each
// skipped when its service did not answer the startup probe.
package suites

import (
	"fmt"
	"io"
	"net/http"

	"github.com/agroweb/integration-harness/clients"
	"github.com/agroweb/integration-harness/config"
	"github.com/agroweb/integration-harness/framework"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/framework/harness"
	"github.com/agroweb/integration-harness/generator"
	"github.com/agroweb/integration-harness/perf"
)

// Capability names. The first three are the probe target names; CapabilityCarritoCleanup is
// present when test carts should be emptied afterward.
const (
	CapabilityProductos      = "productos"
	CapabilityCarrito        = "carrito"
	CapabilityUsuarios       = "usuarios"
	CapabilityCarritoCleanup = "carrito.cleanup"
)

// Environment is everything the suites need besides the test scope. It is passed to every test
// through agtest.TestConfiguration.Context.
type Environment struct {
	Config       config.Config
	Catalog      generator.Catalog
	CartFixtures generator.CartFixtures
	UserFixtures generator.UserFixtures

	// Timings receives the latency of every request the suites make, by endpoint name.
	Timings *perf.Timings

	// GeneratorOptions are passed to every generator, for instance to seed them.
	GeneratorOptions []generator.GeneratorOption

	// HTTPClient, if set, is used by all service clients.
	HTTPClient *http.Client
}

// NewEnvironment loads the embedded catalog and fixtures.
func NewEnvironment(cfg config.Config) (Environment, error) {
	catalog, err := generator.LoadCatalog()
	if err != nil {
		return Environment{}, err
	}
	cartFixtures, err := generator.LoadCartFixtures()
	if err != nil {
		return Environment{}, err
	}
	userFixtures, err := generator.LoadUserFixtures()
	if err != nil {
		return Environment{}, err
	}
	return Environment{
		Config:       cfg,
		Catalog:      catalog,
		CartFixtures: cartFixtures,
		UserFixtures: userFixtures,
		Timings:      perf.NewTimings(),
	}, nil
}

// ServiceTargets are the probes that decide which suites can run.
func (e Environment) ServiceTargets() []harness.ServiceTarget {
	return []harness.ServiceTarget{
		{Name: CapabilityProductos, BaseURL: e.Config.Products.BaseURL, ProbePath: "/health"},
		{
			Name:         CapabilityCarrito,
			BaseURL:      e.Config.Cart.BaseURL,
			ProbePath:    e.CartFixtures.ProbePath,
			AcceptStatus: e.CartFixtures.ProbeStatuses,
		},
		{
			Name:         CapabilityUsuarios,
			BaseURL:      e.Config.Users.BaseURL,
			ProbePath:    "/users/getById/probe",
			AcceptStatus: []int{200, 400, 404},
		},
	}
}

// Capabilities adds the configuration-driven capabilities to the ones the probe found.
func (e Environment) Capabilities(probed framework.Capabilities) framework.Capabilities {
	ret := probed
	if e.Config.CleanupTestData && probed.Has(CapabilityCarrito) {
		ret = ret.With(CapabilityCarritoCleanup)
	}
	return ret
}

// Run runs every suite.
func Run(
	env Environment,
	capabilities framework.Capabilities,
	expected framework.Capabilities,
	filter agtest.Filter,
	testLogger agtest.TestLogger,
	out io.Writer,
) agtest.Results {
	if env.Timings == nil {
		env.Timings = perf.NewTimings()
	}
	if sdf, ok := filter.(interface {
		Describe(io.Writer, framework.Capabilities, framework.Capabilities)
	}); ok && out != nil {
		sdf.Describe(out, capabilities, expected)
	}

	testConfig := agtest.TestConfiguration{
		Filter:       filter,
		TestLogger:   testLogger,
		Context:      env,
		Capabilities: capabilities,
	}
	return agtest.Run(testConfig, func(t *agtest.T) {
		t.Run("productos", doProductosTests)
		t.Run("carrito", doCarritoTests)
		t.Run("usuarios", doUsuariosTests)
	})
}

func doProductosTests(t *agtest.T) {
	t.RequireCapability(CapabilityProductos)
	t.Run("api", doProductosAPITests)
	t.Run("errors", doProductosErrorTests)
	t.Run("lifecycle", doProductosLifecycleTests)
	t.Run("performance", doProductosPerformanceTests)
}

func environment(t *agtest.T) Environment {
	env, ok := t.Context().(Environment)
	if !ok {
		panic(fmt.Sprintf("test context is %T, not suites.Environment", t.Context()))
	}
	return env
}

func clientOptions(t *agtest.T) []clients.ClientOption {
	options := []clients.ClientOption{clients.WithLogger(t.DebugLogger())}
	if hc := environment(t).HTTPClient; hc != nil {
		options = append(options, clients.WithHTTPClient(hc))
	}
	return options
}

func productsClient(t *agtest.T) *clients.ProductsClient {
	return clients.NewProductsClient(environment(t).Config.Products, clientOptions(t)...)
}

func cartClient(t *agtest.T) *clients.CartClient {
	return clients.NewCartClient(environment(t).Config.Cart, clientOptions(t)...)
}

func usersClient(t *agtest.T) *clients.UsersClient {
	return clients.NewUsersClient(environment(t).Config.Users, clientOptions(t)...)
}

func productGenerator(t *agtest.T) *generator.ProductGenerator {
	env := environment(t)
	return generator.NewProductGenerator(env.Catalog, env.GeneratorOptions...)
}

func scenarios(t *agtest.T) generator.Scenarios {
	env := environment(t)
	return generator.Scenarios{Catalog: env.Catalog, Options: env.GeneratorOptions}
}

func cartGenerator(t *agtest.T) *generator.CartGenerator {
	env := environment(t)
	return generator.NewCartGenerator(env.Config.Cart, env.CartFixtures, env.GeneratorOptions...)
}

func userGenerator(t *agtest.T) *generator.UserGenerator {
	env := environment(t)
	return generator.NewUserGenerator(env.UserFixtures, env.GeneratorOptions...)
}
