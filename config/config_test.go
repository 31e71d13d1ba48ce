package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = log.New(io.Discard, "", 0)

func TestDefaults(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, "http://localhost:5000", c.Products.BaseURL)
	assert.Equal(t, 30*time.Second, c.Products.Timeout)
	assert.Equal(t, 3, c.Products.MaxRetryAttempts)
	assert.Equal(t, 5*time.Second, c.Products.RetryDelay)
	assert.Equal(t, "http://localhost:5003", c.Cart.BaseURL)
	assert.Equal(t, "http://127.0.0.1:5001", c.Users.BaseURL)
	assert.Equal(t, 10, c.Load.ConcurrentUsers)
	assert.Equal(t, 100, c.Load.Requests)
	assert.Equal(t, 0.05, c.Load.MaxErrorRate)
	assert.Equal(t, 0.95, c.Load.MinSuccessRate)
	assert.True(t, c.CleanupTestData)
	assert.Equal(t, 10*time.Second, c.StatusQueryTimeout)
	assert.Equal(t, "INFO", c.LogLevel)
}

func TestThresholds(t *testing.T) {
	c := Default()
	assert.Equal(t, 3000.0, c.Products.Threshold("health_check"))
	assert.Equal(t, 5000.0, c.Products.Threshold("get_products"))
	assert.Equal(t, 5000.0, c.Products.Threshold("unknown"))

	assert.Equal(t, 300.0, c.Cart.Threshold("create_carrito"))
	assert.Equal(t, 200.0, c.Cart.Threshold("get_carrito"))
	assert.Equal(t, 1000.0, c.Cart.Threshold("unknown"))
}

func TestCartTestData(t *testing.T) {
	c := Default()
	assert.Equal(t, CartUser{UserDocument: "12345678", DocType: "CC"}, c.Cart.TestUser())
	assert.Equal(t, "PROD-577D6765", c.Cart.TestProductID())

	assert.Equal(t, CartUser{}, CartConfig{}.TestUser())
	assert.Equal(t, "", CartConfig{}.TestProductID())
}

func TestDatasetSize(t *testing.T) {
	c := Default()
	assert.Equal(t, 3, c.DatasetSize("smoke"))
	assert.Equal(t, 1000, c.DatasetSize("load"))
	assert.Equal(t, 10, c.DatasetSize("regression"))
}

func TestProductsURL(t *testing.T) {
	p := ProductsConfig{BaseURL: "http://localhost:5000/"}
	assert.Equal(t, "http://localhost:5000/products", p.URL("/products"))
}

func TestReportFilename(t *testing.T) {
	now := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, "productos_integration_report_20250601_153000", ReportFilename("productos", "", now))
	assert.Equal(t, "carrito_smoke_report_20250601_153000", ReportFilename("carrito", "smoke", now))
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://productos.internal:8080")
	t.Setenv("MAX_RETRY_ATTEMPTS", "5")
	t.Setenv("MAX_ERROR_RATE", "0.1")
	t.Setenv("CLEANUP_TEST_DATA", "false")
	t.Setenv("GET_CART_THRESHOLD", "250")

	c, err := Load(LoadOptions{Logger: quietLogger})
	require.NoError(t, err)
	assert.Equal(t, "http://productos.internal:8080", c.Products.BaseURL)
	assert.Equal(t, 5, c.Products.MaxRetryAttempts)
	assert.Equal(t, 0.1, c.Load.MaxErrorRate)
	assert.False(t, c.CleanupTestData)
	assert.Equal(t, 250.0, c.Cart.Threshold("get_carrito"))
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("API_BASE_URL", "not a url")
	t.Setenv("MAX_ERROR_RATE", "2")

	_, err := Load(LoadOptions{Logger: quietLogger})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Products.BaseURL")
	assert.Contains(t, err.Error(), "Config.Load.MaxErrorRate")
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "harness.env")
	require.NoError(t, os.WriteFile(path, []byte("USERS_API_BASE_URL=http://usuarios.test:5001\n"), 0o600))
	t.Setenv("USERS_API_BASE_URL", "")
	require.NoError(t, os.Unsetenv("USERS_API_BASE_URL"))

	c, err := Load(LoadOptions{EnvFile: path, Logger: quietLogger})
	require.NoError(t, err)
	assert.Equal(t, "http://usuarios.test:5001", c.Users.BaseURL)
}

func TestLoadMissingEnvFile(t *testing.T) {
	_, err := Load(LoadOptions{EnvFile: filepath.Join(t.TempDir(), "nope.env"), Logger: quietLogger})
	assert.Error(t, err)
}

func TestValidateEnvironment(t *testing.T) {
	assert.Len(t, Default().ValidateEnvironment(), 0)

	c := Default()
	c.Products.BaseURL = "localhost:5000"
	c.Products.Timeout = 0
	c.Products.MaxRetryAttempts = 0
	c.Products.Thresholds["metrics"] = 0
	assert.Equal(t, []string{
		"API_BASE_URL debe ser una URL válida",
		"API_TIMEOUT debe ser positivo",
		"MAX_RETRY_ATTEMPTS debe ser positivo",
		"Performance threshold para 'metrics' debe ser positivo",
	}, c.ValidateEnvironment())
}
