package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// LoadOptions controls where Load looks for settings besides the process environment.
type LoadOptions struct {
	// EnvFile, if set, is loaded with godotenv before reading the environment. It is an error if
	// the file cannot be read.
	EnvFile string

	// Logger receives notes about which files were loaded. Defaults to the standard logger.
	Logger *log.Logger
}

var productThresholdDefaults = map[string]float64{
	"health_check":      3000,
	"get_products":      5000,
	"create_product":    5000,
	"get_product_by_id": 3000,
	"metrics":           3000,
	"test_endpoint":     3000,
}

// Cart thresholds can each be overridden by their own environment variable.
var cartThresholdEnv = map[string]string{
	"create_carrito":  "CREATE_CART_THRESHOLD",
	"add_product":     "ADD_PRODUCT_THRESHOLD",
	"change_quantity": "CHANGE_QUANTITY_THRESHOLD",
	"delete_product":  "DELETE_PRODUCT_THRESHOLD",
	"get_carrito":     "GET_CART_THRESHOLD",
	"vaciar_carrito":  "VACIAR_CART_THRESHOLD",
}

var cartThresholdDefaults = map[string]float64{
	"create_carrito":  300,
	"add_product":     400,
	"change_quantity": 350,
	"delete_product":  300,
	"get_carrito":     200,
	"vaciar_carrito":  500,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("TEST_ENV", "integration")
	v.SetDefault("API_BASE_URL", "http://localhost:5000")
	v.SetDefault("API_TIMEOUT", 30)
	v.SetDefault("MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("RETRY_DELAY_SECONDS", 5)
	v.SetDefault("CART_API_BASE_URL", "http://localhost:5003")
	v.SetDefault("CART_API_TIMEOUT", 30)
	v.SetDefault("CART_MAX_RETRY_ATTEMPTS", 3)
	v.SetDefault("USERS_API_BASE_URL", "http://127.0.0.1:5001")
	v.SetDefault("USERS_API_TIMEOUT", 30)
	v.SetDefault("CONCURRENT_USERS", 10)
	v.SetDefault("LOAD_TEST_REQUESTS", 100)
	v.SetDefault("TEST_DURATION_SECONDS", 60)
	v.SetDefault("MAX_ERROR_RATE", 0.05)
	v.SetDefault("MIN_SUCCESS_RATE", 0.95)
	v.SetDefault("REPORT_OUTPUT_DIR", "reports")
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("CLEANUP_TEST_DATA", true)
	v.SetDefault("STATUS_QUERY_TIMEOUT", 10)
	for endpoint, envName := range cartThresholdEnv {
		v.SetDefault(envName, cartThresholdDefaults[endpoint])
	}
}

// Load reads the configuration and validates it.
//
// When APP_ENV is "local", a .env.local file in the working directory is loaded if present.
// Variables that are already set in the process environment take precedence over files.
func Load(opts LoadOptions) (Config, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return Config{}, fmt.Errorf("cannot load env file %s: %w", opts.EnvFile, err)
		}
		logger.Printf("Loaded environment from %s", opts.EnvFile)
	} else if os.Getenv("APP_ENV") == "local" {
		if err := godotenv.Load(".env.local"); err != nil {
			logger.Printf("Warning: .env.local not loaded (%v); relying on the process environment", err)
		} else {
			logger.Println("Loaded .env.local for local development")
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	c := FromViper(v)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// FromViper builds a Config from an already populated viper instance, without validating it.
func FromViper(v *viper.Viper) Config {
	cartThresholds := make(map[string]float64, len(cartThresholdEnv))
	for endpoint, envName := range cartThresholdEnv {
		cartThresholds[endpoint] = v.GetFloat64(envName)
	}
	productThresholds := maps.Clone(productThresholdDefaults)

	return Config{
		Products: ProductsConfig{
			BaseURL:           v.GetString("API_BASE_URL"),
			Timeout:           seconds(v.GetInt("API_TIMEOUT")),
			MaxRetryAttempts:  v.GetInt("MAX_RETRY_ATTEMPTS"),
			RetryDelay:        seconds(v.GetInt("RETRY_DELAY_SECONDS")),
			Thresholds:        productThresholds,
			CatalogCategories: DefaultCatalogCategories(),
			ExpectedMetrics:   DefaultExpectedMetrics(),
		},
		Cart: CartConfig{
			BaseURL:          v.GetString("CART_API_BASE_URL"),
			Timeout:          seconds(v.GetInt("CART_API_TIMEOUT")),
			MaxRetryAttempts: v.GetInt("CART_MAX_RETRY_ATTEMPTS"),
			RetryDelay:       seconds(v.GetInt("RETRY_DELAY_SECONDS")),
			Thresholds:       cartThresholds,
			ValidUsers: []CartUser{
				{UserDocument: "12345678", DocType: "CC"},
				{UserDocument: "87654321", DocType: "CC"},
				{UserDocument: "11223344", DocType: "CC"},
			},
			ValidProductIDs:   []string{"PROD-577D6765", "PROD-661AA7F9", "PROD-E0B41C01"},
			ValidQuantities:   []int{1, 2, 5, 10},
			InvalidQuantities: []int{0, -1, -5, 1000000},
			InvalidDoctypes:   []string{"TI", "CE", "INVALID", ""},
		},
		Users: UsersConfig{
			BaseURL: v.GetString("USERS_API_BASE_URL"),
			Timeout: seconds(v.GetInt("USERS_API_TIMEOUT")),
		},
		Load: LoadConfig{
			ConcurrentUsers: v.GetInt("CONCURRENT_USERS"),
			Requests:        v.GetInt("LOAD_TEST_REQUESTS"),
			Duration:        seconds(v.GetInt("TEST_DURATION_SECONDS")),
			MaxErrorRate:    v.GetFloat64("MAX_ERROR_RATE"),
			MinSuccessRate:  v.GetFloat64("MIN_SUCCESS_RATE"),
		},
		TestEnv:            v.GetString("TEST_ENV"),
		LogLevel:           strings.ToUpper(v.GetString("LOG_LEVEL")),
		ReportOutputDir:    v.GetString("REPORT_OUTPUT_DIR"),
		CleanupTestData:    v.GetBool("CLEANUP_TEST_DATA"),
		StatusQueryTimeout: seconds(v.GetInt("STATUS_QUERY_TIMEOUT")),
		DatasetSizes: map[string]int{
			"smoke":       3,
			"integration": 10,
			"performance": 100,
			"load":        1000,
		},
	}
}

// Default is the configuration that Load produces with an empty environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	return FromViper(v)
}

// DefaultCatalogCategories are the storefront catalog categories.
func DefaultCatalogCategories() []string {
	return []string{"Frutas", "Verduras", "Lácteos", "Carnes", "Bebidas", "Tubérculos",
		"Cereales", "Especias", "Huevos", "Hierbas", "Otros"}
}

// DefaultExpectedMetrics are the Prometheus series the productos service must expose.
func DefaultExpectedMetrics() []string {
	return []string{"productos_requests_total", "productos_request_duration_seconds", "productos_errors_total"}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
