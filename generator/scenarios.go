package generator

import (
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/framework/opt"
)

// Scenarios builds the standard product data sets. Each method uses a fresh generator, so names
// are only unique within one data set.
type Scenarios struct {
	Catalog Catalog
	Options []GeneratorOption
}

func (s Scenarios) generator() *ProductGenerator {
	return NewProductGenerator(s.Catalog, s.Options...)
}

// PerformanceData is n bulk products.
func (s Scenarios) PerformanceData(n int) []ldvalue.Value {
	return s.generator().BulkProducts(n, opt.None[string]())
}

// ErrorCases is every invalid product, in a fixed order.
func (s Scenarios) ErrorCases() []ldvalue.Value {
	g := s.generator()
	return []ldvalue.Value{
		g.InvalidProductMissingFields(),
		g.InvalidProductWrongTypes(),
		g.InvalidProductNegativeValues(),
		g.InvalidProductInvalidCategory(),
		g.EmptyProduct(),
		g.ProductWithVeryLongStrings(),
	}
}

// IntegrationData is one product per category, named "Integration Test <Category>", followed by
// the edge cases.
func (s Scenarios) IntegrationData() []ldvalue.Value {
	g := s.generator()
	var ret []ldvalue.Value
	for _, category := range s.Catalog.Categories {
		ret = append(ret, g.ValidProduct(ProductOptions{
			Category: opt.Some(category),
			Name:     opt.Some("Integration Test " + titleCase(category)),
		}))
	}
	return append(ret, g.EdgeCaseProducts()...)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
