// Package config builds the harness configuration from defaults, an optional .env file and the
// process environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is built once at startup and passed to everything that needs it.
type Config struct {
	Products ProductsConfig
	Cart     CartConfig
	Users    UsersConfig
	Load     LoadConfig

	TestEnv            string        `validate:"required"`
	LogLevel           string        `validate:"oneof=DEBUG INFO WARN WARNING ERROR"`
	ReportOutputDir    string        `validate:"required"`
	CleanupTestData    bool
	StatusQueryTimeout time.Duration `validate:"gt=0"`
	DatasetSizes       map[string]int
}

// ProductsConfig is for the productos service.
type ProductsConfig struct {
	BaseURL          string             `validate:"required,url"`
	Timeout          time.Duration      `validate:"gt=0"`
	MaxRetryAttempts int                `validate:"gte=0,lte=10"`
	RetryDelay       time.Duration      `validate:"gte=0"`
	Thresholds       map[string]float64 `validate:"dive,gt=0"`

	// CatalogCategories are the Spanish category names shown by the storefront catalog. The API
	// itself validates against the English set used by the generator.
	CatalogCategories []string `validate:"min=1,dive,required"`
	ExpectedMetrics   []string `validate:"dive,required"`
}

// CartConfig is for the carrito service.
type CartConfig struct {
	BaseURL           string             `validate:"required,url"`
	Timeout           time.Duration      `validate:"gt=0"`
	MaxRetryAttempts  int                `validate:"gte=0,lte=10"`
	RetryDelay        time.Duration      `validate:"gte=0"`
	Thresholds        map[string]float64 `validate:"dive,gt=0"`
	ValidUsers        []CartUser         `validate:"min=1,dive"`
	ValidProductIDs   []string           `validate:"min=1,dive,startswith=PROD-"`
	ValidQuantities   []int              `validate:"dive,gt=0"`
	InvalidQuantities []int
	InvalidDoctypes   []string
}

// CartUser identifies the owner of a cart.
type CartUser struct {
	UserDocument string `json:"userdocument" validate:"required,numeric"`
	DocType      string `json:"doctype" validate:"required"`
}

// UsersConfig is for the usuarios service.
type UsersConfig struct {
	BaseURL string        `validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

// LoadConfig controls the performance suites.
type LoadConfig struct {
	ConcurrentUsers int           `validate:"gt=0"`
	Requests        int           `validate:"gt=0"`
	Duration        time.Duration `validate:"gt=0"`
	MaxErrorRate    float64       `validate:"gte=0,lte=1"`
	MinSuccessRate  float64       `validate:"gte=0,lte=1"`
}

const (
	defaultProductThreshold = 5000
	defaultCartThreshold    = 1000
	defaultDatasetSize      = 10
)

// Threshold is the configured response-time limit for an endpoint in milliseconds, or 5000 if
// the endpoint has none.
func (p ProductsConfig) Threshold(endpoint string) float64 {
	if v, ok := p.Thresholds[endpoint]; ok {
		return v
	}
	return defaultProductThreshold
}

// URL joins the base URL and an endpoint path.
func (p ProductsConfig) URL(endpoint string) string {
	return strings.TrimSuffix(p.BaseURL, "/") + endpoint
}

// Threshold is the configured response-time limit for a cart endpoint in milliseconds, or 1000
// if the endpoint has none.
func (c CartConfig) Threshold(endpoint string) float64 {
	if v, ok := c.Thresholds[endpoint]; ok {
		return v
	}
	return defaultCartThreshold
}

// TestUser is the cart owner used by default in tests.
func (c CartConfig) TestUser() CartUser {
	if len(c.ValidUsers) == 0 {
		return CartUser{}
	}
	return c.ValidUsers[0]
}

// TestProductID is the product added to carts by default in tests.
func (c CartConfig) TestProductID() string {
	if len(c.ValidProductIDs) == 0 {
		return ""
	}
	return c.ValidProductIDs[0]
}

// DatasetSize returns how many generated items a kind of test uses ("smoke", "integration",
// "performance", "load"), defaulting to 10.
func (c Config) DatasetSize(testType string) int {
	if n, ok := c.DatasetSizes[testType]; ok {
		return n
	}
	return defaultDatasetSize
}

// ReportFilename is the base name used for archived results, such as
// "productos_integration_report_20250601_153000".
func ReportFilename(service, testType string, now time.Time) string {
	if testType == "" {
		testType = "integration"
	}
	return fmt.Sprintf("%s_%s_report_%s", service, testType, now.Format("20060102_150405"))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct constraints and returns an error describing every violation.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fmt.Sprintf("%s failed %q (value: %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

// ValidateEnvironment returns human-readable problems with the environment, in the wording the
// AgroWeb team uses in their runbooks. An empty result means the environment looks usable.
func (c Config) ValidateEnvironment() []string {
	var issues []string
	if !strings.HasPrefix(c.Products.BaseURL, "http://") && !strings.HasPrefix(c.Products.BaseURL, "https://") {
		issues = append(issues, "API_BASE_URL debe ser una URL válida")
	}
	if !strings.HasPrefix(c.Cart.BaseURL, "http://") && !strings.HasPrefix(c.Cart.BaseURL, "https://") {
		issues = append(issues, "CART_API_BASE_URL debe ser una URL válida")
	}
	if c.Products.Timeout <= 0 {
		issues = append(issues, "API_TIMEOUT debe ser positivo")
	}
	if c.Products.MaxRetryAttempts <= 0 {
		issues = append(issues, "MAX_RETRY_ATTEMPTS debe ser positivo")
	}
	for _, endpoint := range sortedKeys(c.Products.Thresholds) {
		if c.Products.Thresholds[endpoint] <= 0 {
			issues = append(issues, fmt.Sprintf("Performance threshold para '%s' debe ser positivo", endpoint))
		}
	}
	for _, endpoint := range sortedKeys(c.Cart.Thresholds) {
		if c.Cart.Thresholds[endpoint] <= 0 {
			issues = append(issues, fmt.Sprintf("Performance threshold para '%s' debe ser positivo", endpoint))
		}
	}
	return issues
}
