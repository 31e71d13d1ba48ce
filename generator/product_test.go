package generator

import (
	"math/rand"
	"regexp"
	"strings"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/framework/helpers"
	"github.com/agroweb/integration-harness/framework/opt"
)

var productIDPattern = regexp.MustCompile(`^PROD-[A-Z0-9]{8}$`)

func newSeededGenerator(t *testing.T, seed int64) *ProductGenerator {
	t.Helper()
	catalog, err := LoadCatalog()
	require.NoError(t, err)
	return NewProductGenerator(catalog, WithRandSource(rand.NewSource(seed)))
}

func TestLoadCatalog(t *testing.T) {
	c, err := LoadCatalog()
	require.NoError(t, err)

	assert.Equal(t, []string{"vegetables", "fruits", "dairy", "herbs"}, c.Categories)
	assert.Len(t, c.Origins, 12)
	assert.Len(t, c.Units, 11)
	assert.Len(t, c.Descriptions, 5)
	assert.Equal(t, PriceRange{Min: 800, Max: 4000}, c.priceRange("vegetables"))
	assert.Equal(t, PriceRange{Min: 1000, Max: 5000}, c.priceRange("bebidas"))
	assert.Equal(t, []string{"Producto Genérico"}, c.baseNames("bebidas"))

	require.Len(t, c.InvalidCategories, 5)
	assert.True(t, c.InvalidCategories[4].IsNull())
	assert.Equal(t, ldvalue.String(""), c.InvalidCategories[3])
}

func TestValidProductFields(t *testing.T) {
	g := newSeededGenerator(t, 1)
	c := g.Catalog()

	for i := 0; i < 50; i++ {
		p := g.ValidProduct(ProductOptions{})
		category := p.GetByKey("category").StringValue()
		require.True(t, helpers.SliceContains(category, c.Categories), category)

		assert.Regexp(t, productIDPattern, p.GetByKey("productId").StringValue())

		price := p.GetByKey("price").Float64Value()
		pr := c.priceRange(category)
		assert.GreaterOrEqual(t, price, pr.Min)
		assert.LessOrEqual(t, price, pr.Max)
		assert.Equal(t, roundPrice(price), price)

		stock := p.GetByKey("stock")
		assert.True(t, stock.IsInt())
		assert.GreaterOrEqual(t, stock.IntValue(), 0)
		assert.LessOrEqual(t, stock.IntValue(), maxGeneratedStock)

		name := p.GetByKey("name").StringValue()
		assert.True(t, strings.HasSuffix(p.GetByKey("description").StringValue(), ". "+name+" de excelente calidad."))
		assert.True(t, helpers.SliceContains(p.GetByKey("unit").StringValue(), c.Units))
		assert.True(t, helpers.SliceContains(p.GetByKey("origin").StringValue(), c.Origins))
		assert.Equal(t, ldvalue.Bool(true), p.GetByKey("isActive"))

		if original := p.GetByKey("originalPrice"); !original.IsNull() {
			assert.Equal(t, roundPrice(price*1.2), original.Float64Value())
		}
		for _, flag := range []string{"isOrganic", "isBestSeller", "freeShipping"} {
			assert.True(t, p.GetByKey(flag).IsBool(), flag)
		}
	}
}

func TestValidProductOverrides(t *testing.T) {
	g := newSeededGenerator(t, 2)
	p := g.ValidProduct(ProductOptions{
		Category: opt.Some("herbs"),
		Name:     opt.Some("Ñame Limón"),
		Price:    opt.Some(0.01),
		Stock:    opt.Some(0),
	})
	assert.Equal(t, "herbs", p.GetByKey("category").StringValue())
	assert.Equal(t, "Ñame Limón", p.GetByKey("name").StringValue())
	assert.Equal(t, 0.01, p.GetByKey("price").Float64Value())
	assert.Equal(t, 0, p.GetByKey("stock").IntValue())
	assert.Equal(t, "http://localhost:5000/static/catalog/name_limon.jpg", p.GetByKey("imageUrl").StringValue())
}

func TestValidProductIsReproducibleWithSeed(t *testing.T) {
	a := newSeededGenerator(t, 42)
	b := newSeededGenerator(t, 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.ValidProduct(ProductOptions{}), b.ValidProduct(ProductOptions{}))
	}
}

func TestWithSeedGivesEachGeneratorItsOwnSource(t *testing.T) {
	options := []GeneratorOption{WithSeed(9)}
	a := NewProductGenerator(DefaultCatalog(), options...)
	b := NewProductGenerator(DefaultCatalog(), options...)
	assert.Equal(t, a.ValidProduct(ProductOptions{}), b.ValidProduct(ProductOptions{}))
}

func TestProductIDSource(t *testing.T) {
	g := NewProductGenerator(DefaultCatalog(), WithUniqueIDSource(func() string { return "ABCD1234" }))
	assert.Equal(t, "PROD-ABCD1234", g.ValidProduct(ProductOptions{}).GetByKey("productId").StringValue())
}

func TestProductIDSourceSurvivesLaterRandSource(t *testing.T) {
	g := NewProductGenerator(DefaultCatalog(),
		WithUniqueIDSource(func() string { return "ABCD1234" }),
		WithRandSource(rand.NewSource(7)))
	assert.Equal(t, "PROD-ABCD1234", g.ValidProduct(ProductOptions{}).GetByKey("productId").StringValue())
}

func TestOriginalPriceNeverExceedsMaximum(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		g := newSeededGenerator(t, seed)
		p := g.ValidProduct(ProductOptions{Price: opt.Some(maxProductPrice)})
		assert.Equal(t, maxProductPrice, p.GetByKey("price").Float64Value())
		original := p.GetByKey("originalPrice")
		if !original.IsNull() {
			assert.LessOrEqual(t, original.Float64Value(), maxProductPrice, "seed %d", seed)
		}
	}
	for seed := int64(0); seed < 50; seed++ {
		p := newSeededGenerator(t, seed).ValidProduct(ProductOptions{Price: opt.Some(900000.0)})
		assert.True(t, p.GetByKey("originalPrice").IsNull(), "seed %d: %s", seed, p.JSONString())
	}
}

func TestGeneratedNamesAreUnique(t *testing.T) {
	g := newSeededGenerator(t, 3)
	seen := make(map[string]bool)
	// a single category has only 9 base names and 5 variations, so collisions are certain
	for i := 0; i < 200; i++ {
		name := g.ValidProduct(ProductOptions{Category: opt.Some("herbs")}).GetByKey("name").StringValue()
		require.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true
	}
}

func TestExplicitNamesAreNotTracked(t *testing.T) {
	g := newSeededGenerator(t, 4)
	a := g.ValidProduct(ProductOptions{Name: opt.Some("Lulo")})
	b := g.ValidProduct(ProductOptions{Name: opt.Some("Lulo")})
	assert.Equal(t, a.GetByKey("name"), b.GetByKey("name"))
}

func TestBulkProducts(t *testing.T) {
	g := newSeededGenerator(t, 5)
	products := g.BulkProducts(25, opt.None[string]())
	require.Len(t, products, 25)
	names := make(map[string]bool)
	for i, p := range products {
		name := p.GetByKey("name").StringValue()
		assert.Equal(t, "Bulk Test Product "+ldvalue.Int(i+1).JSONString(), name)
		names[name] = true
	}
	assert.Len(t, names, 25)

	for _, p := range g.BulkProducts(3, opt.Some("dairy")) {
		assert.Equal(t, "dairy", p.GetByKey("category").StringValue())
	}
}

func TestProductsByCategory(t *testing.T) {
	g := newSeededGenerator(t, 6)
	byCategory := g.ProductsByCategory()
	assert.Len(t, byCategory, 4)
	for category, products := range byCategory {
		require.Len(t, products, 3)
		for _, p := range products {
			assert.Equal(t, category, p.GetByKey("category").StringValue())
		}
	}
}

func TestEdgeCaseProducts(t *testing.T) {
	g := newSeededGenerator(t, 7)
	edge := g.EdgeCaseProducts()
	require.Len(t, edge, 6)
	assert.Equal(t, 0, edge[0].GetByKey("stock").IntValue())
	assert.Equal(t, 0.01, edge[1].GetByKey("price").Float64Value())
	assert.Equal(t, 999999.99, edge[2].GetByKey("price").Float64Value())
	assert.Equal(t, 999999, edge[3].GetByKey("stock").IntValue())
	assert.Equal(t, "A", edge[4].GetByKey("name").StringValue())

	minimal := edge[5]
	assert.Equal(t, "Producto Minimalista Test", minimal.GetByKey("name").StringValue())
	assert.True(t, minimal.GetByKey("originalPrice").IsNull())
	for _, flag := range []string{"isOrganic", "isBestSeller", "freeShipping"} {
		assert.Equal(t, ldvalue.Bool(false), minimal.GetByKey(flag))
	}
}

func TestInvalidProducts(t *testing.T) {
	g := newSeededGenerator(t, 8)

	assert.Equal(t, 2, g.InvalidProductMissingFields().Count())

	wrong := g.InvalidProductWrongTypes()
	assert.True(t, wrong.GetByKey("price").IsString())
	assert.True(t, wrong.GetByKey("stock").IsString())
	assert.Equal(t, ldvalue.String("true"), wrong.GetByKey("isActive"))

	negative := g.InvalidProductNegativeValues()
	assert.Equal(t, -1500.0, negative.GetByKey("price").Float64Value())
	assert.Equal(t, -10, negative.GetByKey("stock").IntValue())
	assert.Equal(t, "Bogotá", negative.GetByKey("origin").StringValue())

	assert.Equal(t, 0, g.EmptyProduct().Count())
	assert.Equal(t, "{}", g.EmptyProduct().JSONString())

	long := g.ProductWithVeryLongStrings()
	for _, field := range []string{"name", "origin", "description"} {
		assert.Len(t, long.GetByKey(field).StringValue(), 1000, field)
	}
}

func TestInvalidCategoryIsNeverValid(t *testing.T) {
	g := newSeededGenerator(t, 9)
	for i := 0; i < 20; i++ {
		category := g.InvalidProductInvalidCategory().GetByKey("category")
		if category.IsString() {
			assert.NotContains(t, []string{"vegetables", "fruits", "herbs", "dairy"}, category.StringValue())
		} else {
			assert.True(t, category.IsNull())
		}
	}
}

func TestInvalidPayload(t *testing.T) {
	g := newSeededGenerator(t, 10)
	for _, scenario := range []string{"missing_fields", "wrong_types", "negative_values", "invalid_category",
		"empty", "long_strings"} {
		t.Run(scenario, func(t *testing.T) {
			v, err := g.InvalidPayload(scenario)
			require.NoError(t, err)
			assert.Equal(t, ldvalue.ObjectType, v.Type())
		})
	}
	_, err := g.InvalidPayload("bogus")
	assert.Error(t, err)
}
