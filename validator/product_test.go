package validator

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/framework/helpers"
	"github.com/agroweb/integration-harness/framework/opt"
	"github.com/agroweb/integration-harness/generator"
)

const papaJSON = `{"productId":"PROD-ABCD1234","name":"Papa","category":"vegetables","price":2500.0,
	"unit":"1kg","imageUrl":"http://x/y.jpg","stock":10,"origin":"Boyacá","description":"fresh","isActive":true}`

func papa() ldvalue.Value {
	return ldvalue.Parse([]byte(papaJSON))
}

func newGenerator(seed int64) *generator.ProductGenerator {
	return generator.NewProductGenerator(generator.DefaultCatalog(), generator.WithRandSource(rand.NewSource(seed)))
}

func TestPapaScenario(t *testing.T) {
	r := ProductStructure(papa())
	assert.True(t, r.OK)
	assert.Empty(t, r.Findings)
	assert.NoError(t, r.Err())

	r = ProductStructure(helpers.ObjectWith(papa(), "category", ldvalue.String("Vegetales")))
	assert.False(t, r.OK)
	require.Len(t, r.Findings, 1)
	assert.Equal(t,
		"Field 'category' has invalid value: 'Vegetales'. Valid categories: ['vegetables', 'fruits', 'dairy', 'herbs']",
		r.Findings[0])
	assert.Error(t, r.Err())
}

func TestValidationIsRepeatable(t *testing.T) {
	p := papa()
	assert.Equal(t, ProductStructure(p), ProductStructure(p))

	bad := helpers.ObjectWith(p, "price", ldvalue.Float64(-1))
	first, second := ProductStructure(bad), ProductStructure(bad)
	assert.Equal(t, first, second)
	assert.Len(t, second.Findings, 1)
}

func TestGeneratedValidProductsPass(t *testing.T) {
	g := newGenerator(1)
	for i := 0; i < 200; i++ {
		p := g.ValidProduct(generator.ProductOptions{})
		r := ProductStructure(p)
		require.True(t, r.OK, "%s: %v", p.JSONString(), r.Findings)
	}
	for _, products := range g.ProductsByCategory() {
		for _, p := range products {
			assert.True(t, ProductStructure(p).OK)
		}
	}
}

func TestGeneratedEdgeCaseProductsPass(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		edgeCases := newGenerator(seed).EdgeCaseProducts()
		// the last edge case has no productId; the service assigns one
		for _, p := range edgeCases[:len(edgeCases)-1] {
			r := ProductStructure(p)
			require.True(t, r.OK, "seed %d: %s: %v", seed, p.JSONString(), r.Findings)
		}

		scenarios := generator.Scenarios{
			Catalog: generator.DefaultCatalog(),
			Options: []generator.GeneratorOption{generator.WithRandSource(rand.NewSource(seed))},
		}
		data := scenarios.IntegrationData()
		for _, p := range data[:len(data)-1] {
			r := ProductStructure(p)
			require.True(t, r.OK, "seed %d: %s: %v", seed, p.JSONString(), r.Findings)
		}
	}
}

func TestGeneratedInvalidProductsFail(t *testing.T) {
	for _, p := range (generator.Scenarios{Catalog: generator.DefaultCatalog()}).ErrorCases() {
		r := ProductStructure(p)
		assert.False(t, r.OK, p.JSONString())
		assert.NotEmpty(t, r.Findings)
	}
}

func TestInvalidCategoryAlwaysFails(t *testing.T) {
	g := newGenerator(2)
	for i := 0; i < 20; i++ {
		p := helpers.ObjectWith(g.InvalidProductInvalidCategory(), "productId", ldvalue.String(g.NewProductID()))
		r := ProductStructure(p)
		require.False(t, r.OK, p.JSONString())
		found := false
		for _, finding := range r.Findings {
			found = found || strings.HasPrefix(finding, "Field 'category'")
		}
		assert.True(t, found, "%v", r.Findings)
	}
}

func TestStrictModeStopsAtMissingFields(t *testing.T) {
	p := helpers.ObjectWithout(papa(), "productId", "stock")
	p = helpers.ObjectWith(p, "price", ldvalue.String("cheap"))

	r := ProductStructure(p)
	assert.Equal(t, []string{"Missing required field: 'productId'", "Missing required field: 'stock'"}, r.Findings)

	r = ProductStructure(p, Strict(false))
	assert.Equal(t, []string{
		"Missing required field: 'productId'",
		"Missing required field: 'stock'",
		"Field 'productId' must be a string",
		"Field 'price' must be a number",
		"Field 'stock' must be an integer",
	}, r.Findings)
}

func TestFieldRules(t *testing.T) {
	for _, tc := range []struct {
		name    string
		field   string
		value   ldvalue.Value
		finding string
	}{
		{"bad product ID", "productId", ldvalue.String("PROD-abc"),
			"Field 'productId' has invalid format: 'PROD-abc'. Expected: PROD-XXXXXXXX"},
		{"numeric product ID", "productId", ldvalue.Int(1), "Field 'productId' must be a string"},
		{"blank name", "name", ldvalue.String("   "), "Field 'name' cannot be empty"},
		{"long name", "name", ldvalue.String(strings.Repeat("ñ", 201)), "Field 'name' is too long (max 200 characters)"},
		{"null category", "category", ldvalue.Null(), "Field 'category' must be a string"},
		{"string price", "price", ldvalue.String("1"), "Field 'price' must be a number"},
		{"negative price", "price", ldvalue.Float64(-0.01), "Field 'price' cannot be negative"},
		{"high price", "price", ldvalue.Int(1000000), "Field 'price' is too high (max 999999.99)"},
		{"fractional stock", "stock", ldvalue.Float64(1.5), "Field 'stock' must be an integer"},
		{"negative stock", "stock", ldvalue.Int(-1), "Field 'stock' cannot be negative"},
		{"high stock", "stock", ldvalue.Int(1000000), "Field 'stock' is too high (max 999999)"},
		{"relative image", "imageUrl", ldvalue.String("/static/a.jpg"), "Field 'imageUrl' is not a valid URL: '/static/a.jpg'"},
		{"long description", "description", ldvalue.String(strings.Repeat("a", 1001)),
			"Field 'description' is too long (max 1000 characters)"},
		{"empty origin", "origin", ldvalue.String(""), "Field 'origin' cannot be empty"},
		{"numeric unit", "unit", ldvalue.Int(1), "Field 'unit' must be a string"},
		{"string isActive", "isActive", ldvalue.String("true"), "Field 'isActive' must be a boolean"},
		{"negative originalPrice", "originalPrice", ldvalue.Float64(-3), "Field 'originalPrice' cannot be negative"},
		{"string isOrganic", "isOrganic", ldvalue.String("no"), "Field 'isOrganic' must be a boolean"},
		{"null freeShipping", "freeShipping", ldvalue.Null(), "Field 'freeShipping' must be a boolean"},
		{"wrong inStock", "inStock", ldvalue.Bool(false), "Field 'inStock' should be true based on stock=10"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r := ProductStructure(helpers.ObjectWith(papa(), tc.field, tc.value))
			assert.Equal(t, []string{tc.finding}, r.Findings)
		})
	}
}

func TestBoundaries(t *testing.T) {
	assert.True(t, ProductStructure(helpers.ObjectWith(papa(), "price", ldvalue.Float64(999999.99))).OK)
	assert.True(t, ProductStructure(helpers.ObjectWith(papa(), "stock", ldvalue.Int(999999))).OK)
	assert.True(t, ProductStructure(helpers.ObjectWith(papa(), "price", ldvalue.Int(0))).OK)
	assert.False(t, ProductStructure(helpers.ObjectWith(papa(), "price", ldvalue.Int(1000000))).OK)
	assert.False(t, ProductStructure(helpers.ObjectWith(papa(), "price", ldvalue.Float64(-0.01))).OK)
	assert.False(t, ProductStructure(helpers.ObjectWith(papa(), "stock", ldvalue.Int(1000000))).OK)
	assert.True(t, ProductStructure(helpers.ObjectWith(papa(), "originalPrice", ldvalue.Null())).OK)
}

func TestInStock(t *testing.T) {
	g := newGenerator(3)
	p := g.ValidProduct(generator.ProductOptions{Stock: opt.Some(0)})
	assert.True(t, ProductStructure(helpers.ObjectWith(p, "inStock", ldvalue.Bool(false))).OK)

	r := ProductStructure(helpers.ObjectWith(p, "inStock", ldvalue.Bool(true)))
	assert.Equal(t, []string{"Field 'inStock' should be false based on stock=0"}, r.Findings)

	withStock := helpers.ObjectWith(papa(), "inStock", ldvalue.Bool(true))
	assert.True(t, ProductStructure(withStock).OK)
}

func TestCustomCategories(t *testing.T) {
	p := helpers.ObjectWith(papa(), "category", ldvalue.String("Verduras"))
	assert.False(t, ProductStructure(p).OK)
	assert.True(t, ProductStructure(p, Categories([]string{"Frutas", "Verduras"})).OK)
}

func TestProductsList(t *testing.T) {
	bad := helpers.ObjectWith(papa(), "stock", ldvalue.Int(-1))
	list := ldvalue.ArrayOf(papa(), bad, ldvalue.String("x"))

	r := ProductsList(list)
	assert.Equal(t, []string{
		"Product 1: Field 'stock' cannot be negative",
		"Product at index 2 must be a dictionary",
	}, r.Findings)

	assert.True(t, ProductsList(ldvalue.ArrayOf()).OK)
	assert.Equal(t, []string{"Response must be a list"}, ProductsList(papa()).Findings)
}

func TestCategoryMismatch(t *testing.T) {
	r := CategoryMismatch(DefaultCategories(), []string{"Frutas", "Verduras", "herbs"})
	assert.True(t, r.OK)
	assert.Len(t, r.Warnings, 3)
	assert.Equal(t, "API category 'vegetables' is not a catalog category ['Frutas', 'Verduras', 'herbs']", r.Warnings[0])

	assert.Empty(t, CategoryMismatch([]string{"herbs"}, []string{"herbs"}).Warnings)
}
