package validator

import (
	"regexp"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/framework/helpers"
)

const (
	maxPrice             = 999999.99
	maxStock             = 999999
	maxNameLength        = 200
	maxDescriptionLength = 1000
)

var (
	productIDPattern = regexp.MustCompile(`^PROD-[A-Z0-9]{8}$`)
	urlPattern       = regexp.MustCompile(`^https?://.*`)

	requiredProductFields = []string{
		"productId", "name", "category", "price", "unit",
		"imageUrl", "stock", "origin", "description", "isActive",
	}
)

// DefaultCategories is the category set the productos API accepts.
func DefaultCategories() []string {
	return []string{"vegetables", "fruits", "dairy", "herbs"}
}

type productRules struct {
	strict     bool
	categories []string
}

// ProductOption changes how ProductStructure checks a product.
type ProductOption = helpers.ConfigOptionFunc[productRules]

// Strict controls whether a product with missing required fields is rejected without checking
// the fields that are present. It is on by default.
func Strict(strict bool) ProductOption {
	return func(r *productRules) error {
		r.strict = strict
		return nil
	}
}

// Categories replaces DefaultCategories as the set of acceptable categories.
func Categories(categories []string) ProductOption {
	return func(r *productRules) error {
		r.categories = categories
		return nil
	}
}

// ProductStructure checks a product object field by field and reports every violation.
func ProductStructure(product ldvalue.Value, options ...ProductOption) Result {
	rules := productRules{strict: true, categories: DefaultCategories()}
	_ = helpers.ApplyOptions(&rules, options...)

	var f findings
	for _, field := range requiredProductFields {
		if _, ok := product.TryGetByKey(field); !ok {
			f.add("Missing required field: '%s'", field)
		}
	}
	if len(f) != 0 && rules.strict {
		return f.result()
	}

	checkProductID(&f, product.GetByKey("productId"))
	checkString(&f, product.GetByKey("name"), "name", maxNameLength)
	checkCategory(&f, product.GetByKey("category"), rules.categories)
	checkPrice(&f, product.GetByKey("price"), "price")
	checkStock(&f, product.GetByKey("stock"))
	checkImageURL(&f, product.GetByKey("imageUrl"))
	checkString(&f, product.GetByKey("description"), "description", maxDescriptionLength)
	checkString(&f, product.GetByKey("origin"), "origin", 0)
	checkString(&f, product.GetByKey("unit"), "unit", 0)
	checkBoolean(&f, product.GetByKey("isActive"), "isActive")

	if originalPrice, ok := product.TryGetByKey("originalPrice"); ok && !originalPrice.IsNull() {
		checkPrice(&f, originalPrice, "originalPrice")
	}
	for _, field := range []string{"isOrganic", "isBestSeller", "freeShipping"} {
		if v, ok := product.TryGetByKey(field); ok {
			checkBoolean(&f, v, field)
		}
	}

	if inStock, ok := product.TryGetByKey("inStock"); ok {
		stock := product.GetByKey("stock")
		expected := stock.IsNumber() && stock.Float64Value() > 0
		if !inStock.Equal(ldvalue.Bool(expected)) {
			f.add("Field 'inStock' should be %t based on stock=%s", expected, stock.JSONString())
		}
	}

	return f.result()
}

func checkProductID(f *findings, v ldvalue.Value) {
	if !v.IsString() {
		f.add("Field 'productId' must be a string")
		return
	}
	if !productIDPattern.MatchString(v.StringValue()) {
		f.add("Field 'productId' has invalid format: '%s'. Expected: PROD-XXXXXXXX", v.StringValue())
	}
}

// checkString requires a non-blank string, no longer than maxLength characters if maxLength > 0.
func checkString(f *findings, v ldvalue.Value, field string, maxLength int) {
	if !v.IsString() {
		f.add("Field '%s' must be a string", field)
		return
	}
	s := v.StringValue()
	if strings.TrimSpace(s) == "" {
		f.add("Field '%s' cannot be empty", field)
		return
	}
	if maxLength > 0 && len([]rune(s)) > maxLength {
		f.add("Field '%s' is too long (max %d characters)", field, maxLength)
	}
}

func checkCategory(f *findings, v ldvalue.Value, categories []string) {
	if !v.IsString() {
		f.add("Field 'category' must be a string")
		return
	}
	if !helpers.SliceContains(v.StringValue(), categories) {
		f.add("Field 'category' has invalid value: '%s'. Valid categories: %s", v.StringValue(), quotedList(categories))
	}
}

func checkPrice(f *findings, v ldvalue.Value, field string) {
	if !v.IsNumber() {
		f.add("Field '%s' must be a number", field)
		return
	}
	switch price := v.Float64Value(); {
	case price < 0:
		f.add("Field '%s' cannot be negative", field)
	case price > maxPrice:
		f.add("Field '%s' is too high (max 999999.99)", field)
	}
}

func checkStock(f *findings, v ldvalue.Value) {
	if !v.IsInt() {
		f.add("Field 'stock' must be an integer")
		return
	}
	switch stock := v.Float64Value(); {
	case stock < 0:
		f.add("Field 'stock' cannot be negative")
	case stock > maxStock:
		f.add("Field 'stock' is too high (max 999999)")
	}
}

func checkImageURL(f *findings, v ldvalue.Value) {
	if !v.IsString() {
		f.add("Field 'imageUrl' must be a string")
		return
	}
	if !urlPattern.MatchString(v.StringValue()) {
		f.add("Field 'imageUrl' is not a valid URL: '%s'", v.StringValue())
	}
}

func checkBoolean(f *findings, v ldvalue.Value, field string) {
	if !v.IsBool() {
		f.add("Field '%s' must be a boolean", field)
	}
}

// quotedList renders ['a', 'b'], the form the productos team's runbooks quote.
func quotedList(items []string) string {
	quoted := helpers.Transform(items, func(s string) string { return "'" + s + "'" })
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ProductsList checks that v is an array and that every element is a valid product. Findings for
// an element are prefixed with "Product <index>: ".
func ProductsList(v ldvalue.Value, options ...ProductOption) Result {
	var f findings
	if v.Type() != ldvalue.ArrayType {
		f.add("Response must be a list")
		return f.result()
	}
	for i := 0; i < v.Count(); i++ {
		item := v.GetByIndex(i)
		if item.Type() != ldvalue.ObjectType {
			f.add("Product at index %d must be a dictionary", i)
			continue
		}
		for _, finding := range ProductStructure(item, options...).Findings {
			f.add("Product %d: %s", i, finding)
		}
	}
	return f.result()
}

// CategoryMismatch compares the categories the API accepts with the categories the storefront
// catalog shows. Differences are returned as warnings; the result is always OK.
func CategoryMismatch(apiCategories, catalogCategories []string) Result {
	var warnings []string
	for _, c := range apiCategories {
		if !helpers.SliceContains(c, catalogCategories) {
			warnings = append(warnings, "API category '"+c+"' is not a catalog category "+quotedList(catalogCategories))
		}
	}
	return Result{OK: true, Warnings: warnings}
}
