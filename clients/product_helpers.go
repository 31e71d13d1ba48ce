package clients

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

func eachProduct(products ldvalue.Value, fn func(ldvalue.Value)) {
	for i := 0; i < products.Count(); i++ {
		fn(products.GetByIndex(i))
	}
}

// ExtractProductIDs returns the productId of every product in a list, skipping products that have
// none.
func ExtractProductIDs(products ldvalue.Value) []string {
	var ret []string
	eachProduct(products, func(p ldvalue.Value) {
		if id := p.GetByKey("productId"); id.IsString() {
			ret = append(ret, id.StringValue())
		}
	})
	return ret
}

// FindProductByName returns the first product with the given name.
func FindProductByName(products ldvalue.Value, name string) (ldvalue.Value, bool) {
	for i := 0; i < products.Count(); i++ {
		if p := products.GetByIndex(i); p.GetByKey("name").StringValue() == name {
			return p, true
		}
	}
	return ldvalue.Null(), false
}

// TotalStock adds up the stock of every product.
func TotalStock(products ldvalue.Value) int {
	total := 0
	eachProduct(products, func(p ldvalue.Value) {
		total += p.GetByKey("stock").IntValue()
	})
	return total
}

// FilterByCategory returns the products in one category.
func FilterByCategory(products ldvalue.Value, category string) []ldvalue.Value {
	var ret []ldvalue.Value
	eachProduct(products, func(p ldvalue.Value) {
		if p.GetByKey("category").StringValue() == category {
			ret = append(ret, p)
		}
	})
	return ret
}
