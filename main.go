package main

import (
	"bufio"
	"context"
	_ "embed" // this is required in order for go:embed to work
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agroweb/integration-harness/config"
	"github.com/agroweb/integration-harness/framework"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/framework/harness"
	"github.com/agroweb/integration-harness/mockservices"
	"github.com/agroweb/integration-harness/results"
	"github.com/agroweb/integration-harness/suites"
)

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

func main() {
	fmt.Printf("agroweb-harness v%s\n", strings.TrimSpace(versionString))

	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	res, err := run(params)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !res.OK() {
		os.Exit(1)
	}
}

func run(params commandParams) (*agtest.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(config.LoadOptions{EnvFile: params.envFile})
	if err != nil {
		return nil, err
	}

	for _, issue := range cfg.ValidateEnvironment() {
		log.Printf("Warning: %s", issue)
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll || cfg.LogLevel == "DEBUG" {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	if params.mockServices {
		servers, err := startMockServices(&cfg, mainDebugLogger)
		if err != nil {
			return nil, err
		}
		defer func() {
			for _, s := range servers {
				_ = s.Close()
			}
		}()
	}

	env, err := suites.NewEnvironment(cfg)
	if err != nil {
		return nil, err
	}

	h := harness.Probe(
		context.Background(),
		env.ServiceTargets(),
		cfg.StatusQueryTimeout,
		mainDebugLogger,
		os.Stdout,
	)

	var testLogger agtest.TestLogger
	consoleLogger := agtest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		testLogger = consoleLogger
	} else {
		testLogger = &agtest.MultiTestLogger{Loggers: []agtest.TestLogger{
			consoleLogger,
			agtest.NewJUnitTestLogger(reportPath(cfg, params.jUnitFile), jUnitProperties(cfg, h)),
		}}
	}

	res := suites.Run(env, env.Capabilities(h.Capabilities()), h.ExpectedCapabilities(), params.filters,
		testLogger, os.Stdout)

	fmt.Println()
	logErr := testLogger.EndLog(res)
	printLatency(env)

	if logErr != nil {
		return nil, fmt.Errorf("error writing log: %v", logErr)
	}

	if params.recordFailures != "" {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return nil, fmt.Errorf("cannot create suppression file: %v", err)
		}
		for _, test := range res.Failures {
			fmt.Fprintln(f, test.TestID)
		}
		_ = f.Close()
	}

	if params.resultsDSN != "" {
		if err := saveResults(params.resultsDSN, res, env, mainDebugLogger); err != nil {
			return nil, err
		}
	}

	return &res, nil
}

func startMockServices(cfg *config.Config, logger framework.Logger) ([]*http.Server, error) {
	handlers := []struct {
		name    string
		handler http.Handler
		baseURL *string
	}{
		{suites.CapabilityProductos, mockservices.NewProductsService(nil,
			framework.LoggerWithPrefix(logger, "[productos] ")), &cfg.Products.BaseURL},
		{suites.CapabilityCarrito, mockservices.NewCartService(mockservices.CartProductsFor(cfg.Cart.ValidProductIDs),
			framework.LoggerWithPrefix(logger, "[carrito] ")), &cfg.Cart.BaseURL},
		{suites.CapabilityUsuarios, mockservices.NewUsersService(
			framework.LoggerWithPrefix(logger, "[usuarios] ")), &cfg.Users.BaseURL},
	}
	var servers []*http.Server
	for _, h := range handlers {
		server, url, err := harness.StartServer(0, h.handler)
		if err != nil {
			for _, s := range servers {
				_ = s.Close()
			}
			return nil, fmt.Errorf("cannot start mock %s service: %w", h.name, err)
		}
		fmt.Printf("Mock %s service listening at %s\n", h.name, url)
		*h.baseURL = url
		servers = append(servers, server)
	}
	return servers, nil
}

// reportPath puts a bare file name in the configured report directory.
func reportPath(cfg config.Config, path string) string {
	if filepath.Base(path) == path && cfg.ReportOutputDir != "" {
		return filepath.Join(cfg.ReportOutputDir, path)
	}
	return path
}

func jUnitProperties(cfg config.Config, h *harness.Harness) map[string]string {
	props := map[string]string{
		"testEnv": cfg.TestEnv,
		"version": strings.TrimSpace(versionString),
	}
	for _, name := range h.ExpectedCapabilities() {
		if info, ok := h.ServiceInfo(name); ok {
			props[name+".url"] = info.URL
			props[name+".available"] = fmt.Sprint(info.Available)
		}
	}
	return props
}

func printLatency(env suites.Environment) {
	summaries := env.Timings.Summaries()
	if len(summaries) == 0 {
		return
	}
	fmt.Println("Latency by endpoint:")
	for _, endpoint := range env.Timings.Endpoints() {
		fmt.Printf("  %-20s %s\n", endpoint, summaries[endpoint])
	}
}

func saveResults(dsn string, res agtest.Results, env suites.Environment, logger framework.Logger) error {
	ctx := context.Background()
	store, err := results.Open(ctx, dsn, logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	summary := results.NewSummary("", res, env.Timings.Summaries(), env.Config.TestEnv)
	if err := store.Save(ctx, summary); err != nil {
		return err
	}
	fmt.Printf("Saved %s\n", summary)
	return nil
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		escaped := regexp.QuoteMeta(line)
		if err := params.filters.MustNotMatch.Set(escaped); err != nil {
			return fmt.Errorf("cannot parse suppression: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
