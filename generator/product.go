package generator

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/shopspring/decimal"

	"github.com/agroweb/integration-harness/framework/opt"
)

const (
	maxGeneratedStock = 500
	testImageURL      = "http://localhost:5000/static/test.jpg"
	longStringLength  = 1000

	// The productos service rejects any price above this, including originalPrice.
	maxProductPrice = 999999.99
)

var imageSlugReplacer = strings.NewReplacer(" ", "_", "ó", "o", "ñ", "n")

// ProductOptions overrides parts of a generated product. Anything left undefined is chosen at
// random.
type ProductOptions struct {
	Category opt.Maybe[string]
	Name     opt.Maybe[string]
	Price    opt.Maybe[float64]
	Stock    opt.Maybe[int]
}

// ProductGenerator produces product payloads for the productos service.
type ProductGenerator struct {
	catalog   Catalog
	config    generatorConfig
	usedNames map[string]struct{}
	counter   int
}

// NewProductGenerator creates a generator drawing from catalog.
func NewProductGenerator(catalog Catalog, options ...GeneratorOption) *ProductGenerator {
	return &ProductGenerator{
		catalog:   catalog,
		config:    makeGeneratorConfig(options),
		usedNames: make(map[string]struct{}),
	}
}

// Catalog returns the catalog the generator draws from.
func (g *ProductGenerator) Catalog() Catalog { return g.catalog }

// NewProductID returns an ID of the form PROD-XXXXXXXX.
func (g *ProductGenerator) NewProductID() string {
	return "PROD-" + g.config.newUniqueID()
}

// ValidProduct returns a complete product that the productos service should accept.
func (g *ProductGenerator) ValidProduct(options ProductOptions) ldvalue.Value {
	g.counter++
	r := g.config.rand

	category := options.Category.OrElse(pick(r, g.catalog.Categories))

	var name string
	if options.Name.IsDefined() {
		name = options.Name.Value()
	} else {
		name = g.uniqueName(category)
	}

	var price float64
	if options.Price.IsDefined() {
		price = options.Price.Value()
	} else {
		pr := g.catalog.priceRange(category)
		price = roundPrice(pr.Min + r.Float64()*(pr.Max-pr.Min))
	}

	stock := options.Stock.OrElse(r.Intn(maxGeneratedStock + 1))
	unit := pick(r, g.catalog.Units)
	origin := pick(r, g.catalog.Origins)
	description := pick(r, g.catalog.Descriptions)

	originalPrice := ldvalue.Null()
	if r.Intn(2) == 0 {
		if markup := roundPrice(price * 1.2); markup <= maxProductPrice {
			originalPrice = ldvalue.Float64(markup)
		}
	}

	return ldvalue.ObjectBuild().
		Set("productId", ldvalue.String(g.NewProductID())).
		Set("name", ldvalue.String(name)).
		Set("category", ldvalue.String(category)).
		Set("price", ldvalue.Float64(price)).
		Set("unit", ldvalue.String(unit)).
		Set("imageUrl", ldvalue.String(g.imageURL(name))).
		Set("stock", ldvalue.Int(stock)).
		Set("origin", ldvalue.String(origin)).
		Set("description", ldvalue.String(fmt.Sprintf("%s. %s de excelente calidad.", description, name))).
		Set("isActive", ldvalue.Bool(true)).
		Set("originalPrice", originalPrice).
		Set("isOrganic", ldvalue.Bool(r.Intn(2) == 0)).
		Set("isBestSeller", ldvalue.Bool(r.Intn(2) == 0)).
		Set("freeShipping", ldvalue.Bool(r.Intn(2) == 0)).
		Build()
}

// uniqueName picks a variation of one of the category's base names that this generator has not
// returned before. Names given explicitly through ProductOptions are not tracked.
func (g *ProductGenerator) uniqueName(category string) string {
	r := g.config.rand
	base := pick(r, g.catalog.baseNames(category))
	variations := []string{
		fmt.Sprintf("%s Test %d", base, g.counter),
		base + " Premium Test",
		base + " Orgánico Test",
		base + " de Exportación Test",
		base + " Fresco Test",
	}
	name := pick(r, variations)
	for {
		if _, used := g.usedNames[name]; !used {
			break
		}
		name = fmt.Sprintf("%s Test %d_%d", base, g.counter, 1000+r.Intn(9000))
	}
	g.usedNames[name] = struct{}{}
	return name
}

func (g *ProductGenerator) imageURL(name string) string {
	return g.catalog.ImageBaseURL + imageSlugReplacer.Replace(strings.ToLower(name)) + ".jpg"
}

func roundPrice(price float64) float64 {
	return decimal.NewFromFloat(price).Round(2).InexactFloat64()
}

// InvalidProductMissingFields has only a name and a category.
func (g *ProductGenerator) InvalidProductMissingFields() ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("name", ldvalue.String("Producto Incompleto Test")).
		Set("category", ldvalue.String("vegetables")).
		Build()
}

// InvalidProductWrongTypes has strings where price, stock and isActive should be a number,
// an integer and a boolean.
func (g *ProductGenerator) InvalidProductWrongTypes() ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("name", ldvalue.String("Producto Tipos Incorrectos")).
		Set("category", ldvalue.String("vegetables")).
		Set("price", ldvalue.String("precio_no_numerico")).
		Set("unit", ldvalue.String("1kg")).
		Set("imageUrl", ldvalue.String(testImageURL)).
		Set("stock", ldvalue.String("stock_no_numerico")).
		Set("origin", ldvalue.String("Bogotá")).
		Set("description", ldvalue.String("Producto con tipos incorrectos")).
		Set("isActive", ldvalue.String("true")).
		Build()
}

// InvalidProductNegativeValues has a negative price and stock.
func (g *ProductGenerator) InvalidProductNegativeValues() ldvalue.Value {
	return invalidProduct("Producto Valores Negativos", "Producto con valores negativos para testing",
		map[string]ldvalue.Value{
			"category": ldvalue.String("vegetables"),
			"price":    ldvalue.Float64(-1500.0),
			"stock":    ldvalue.Int(-10),
		})
}

// InvalidProductInvalidCategory uses one of the catalog's invalid categories, which may be null.
func (g *ProductGenerator) InvalidProductInvalidCategory() ldvalue.Value {
	return invalidProduct("Producto Categoría Inválida", "Producto con categoría inválida",
		map[string]ldvalue.Value{
			"category": pick(g.config.rand, g.catalog.InvalidCategories),
			"price":    ldvalue.Float64(2500.0),
			"stock":    ldvalue.Int(50),
		})
}

// EmptyProduct is {}.
func (g *ProductGenerator) EmptyProduct() ldvalue.Value {
	return ldvalue.ObjectBuild().Build()
}

// ProductWithVeryLongStrings has a 1000-character name, origin and description.
func (g *ProductGenerator) ProductWithVeryLongStrings() ldvalue.Value {
	long := ldvalue.String(strings.Repeat("A", longStringLength))
	return ldvalue.ObjectBuild().
		Set("name", long).
		Set("category", ldvalue.String("vegetables")).
		Set("price", ldvalue.Float64(2500.0)).
		Set("unit", ldvalue.String("1kg")).
		Set("imageUrl", ldvalue.String(testImageURL)).
		Set("stock", ldvalue.Int(50)).
		Set("origin", long).
		Set("description", long).
		Set("isActive", ldvalue.Bool(true)).
		Build()
}

func invalidProduct(name, description string, fields map[string]ldvalue.Value) ldvalue.Value {
	b := ldvalue.ObjectBuild().
		Set("name", ldvalue.String(name)).
		Set("unit", ldvalue.String("1kg")).
		Set("imageUrl", ldvalue.String(testImageURL)).
		Set("origin", ldvalue.String("Bogotá")).
		Set("description", ldvalue.String(description)).
		Set("isActive", ldvalue.Bool(true))
	for k, v := range fields {
		b.Set(k, v)
	}
	return b.Build()
}

// InvalidPayload returns one of the broken products by scenario name: "missing_fields",
// "wrong_types", "negative_values", "invalid_category", "empty" or "long_strings". It is how
// scenario data files refer to them.
func (g *ProductGenerator) InvalidPayload(scenario string) (ldvalue.Value, error) {
	switch scenario {
	case "missing_fields":
		return g.InvalidProductMissingFields(), nil
	case "wrong_types":
		return g.InvalidProductWrongTypes(), nil
	case "negative_values":
		return g.InvalidProductNegativeValues(), nil
	case "invalid_category":
		return g.InvalidProductInvalidCategory(), nil
	case "empty":
		return g.EmptyProduct(), nil
	case "long_strings":
		return g.ProductWithVeryLongStrings(), nil
	default:
		return ldvalue.Null(), fmt.Errorf("unknown invalid-product scenario %q", scenario)
	}
}

// BulkProducts returns count valid products named "Bulk Test Product 1" onward.
func (g *ProductGenerator) BulkProducts(count int, category opt.Maybe[string]) []ldvalue.Value {
	ret := make([]ldvalue.Value, 0, count)
	for i := 1; i <= count; i++ {
		ret = append(ret, g.ValidProduct(ProductOptions{
			Category: category,
			Name:     opt.Some(fmt.Sprintf("Bulk Test Product %d", i)),
		}))
	}
	return ret
}

// ProductsByCategory returns three valid products for every catalog category.
func (g *ProductGenerator) ProductsByCategory() map[string][]ldvalue.Value {
	ret := make(map[string][]ldvalue.Value, len(g.catalog.Categories))
	for _, category := range g.catalog.Categories {
		for i := 0; i < 3; i++ {
			ret[category] = append(ret[category], g.ValidProduct(ProductOptions{Category: opt.Some(category)}))
		}
	}
	return ret
}

// EdgeCaseProducts covers the boundaries: zero stock, the smallest and largest prices, the
// largest stock, a one-letter name, and a product whose optional fields are all null or false.
func (g *ProductGenerator) EdgeCaseProducts() []ldvalue.Value {
	return []ldvalue.Value{
		g.ValidProduct(ProductOptions{Stock: opt.Some(0)}),
		g.ValidProduct(ProductOptions{Price: opt.Some(0.01)}),
		g.ValidProduct(ProductOptions{Price: opt.Some(999999.99)}),
		g.ValidProduct(ProductOptions{Stock: opt.Some(999999)}),
		g.ValidProduct(ProductOptions{Name: opt.Some("A")}),
		ldvalue.ObjectBuild().
			Set("name", ldvalue.String("Producto Minimalista Test")).
			Set("category", ldvalue.String("vegetables")).
			Set("price", ldvalue.Float64(1000.0)).
			Set("unit", ldvalue.String("1kg")).
			Set("imageUrl", ldvalue.String("http://localhost:5000/static/minimal.jpg")).
			Set("stock", ldvalue.Int(10)).
			Set("origin", ldvalue.String("Bogotá")).
			Set("description", ldvalue.String("Producto con campos opcionales mínimos")).
			Set("isActive", ldvalue.Bool(true)).
			Set("originalPrice", ldvalue.Null()).
			Set("isOrganic", ldvalue.Bool(false)).
			Set("isBestSeller", ldvalue.Bool(false)).
			Set("freeShipping", ldvalue.Bool(false)).
			Build(),
	}
}
