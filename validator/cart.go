package validator

import (
	"strconv"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

var cartItemFields = []string{"product_id", "cantidad", "total_prod"}

// CartEnvelope checks the {"Success": bool, "message": string} wrapper of carrito responses.
func CartEnvelope(v ldvalue.Value, expectSuccess bool) Result {
	var f findings
	if v.Type() != ldvalue.ObjectType {
		f.add("Cart response must be an object")
		return f.result()
	}
	success, ok := v.TryGetByKey("Success")
	switch {
	case !ok:
		f.add("Cart response missing field: 'Success'")
	case !success.IsBool():
		f.add("Field 'Success' must be a boolean")
	case success.BoolValue() != expectSuccess:
		f.add("Field 'Success' should be %t", expectSuccess)
	}
	if message, ok := v.TryGetByKey("message"); ok && !message.IsString() {
		f.add("Field 'message' must be a string")
	}
	return f.result()
}

// CartContents checks the body of GET /carrito/getCarrito/{id}: a successful envelope whose
// "resul" holds "items" and "total". If minItems is positive, the cart must hold at least that
// many items.
func CartContents(v ldvalue.Value, minItems int) Result {
	f := findings(CartEnvelope(v, true).Findings)
	result, ok := v.TryGetByKey("resul")
	if !ok {
		f.add("Cart response missing field: 'resul'")
		return f.result()
	}
	items, hasItems := result.TryGetByKey("items")
	if !hasItems {
		f.add("Cart must contain 'items'")
	} else if items.Type() != ldvalue.ArrayType {
		f.add("Cart 'items' must be a list")
	}
	if total, ok := result.TryGetByKey("total"); !ok {
		f.add("Cart must contain 'total'")
	} else if !total.IsNumber() {
		f.add("Cart 'total' must be a number")
	}
	if items.Type() != ldvalue.ArrayType {
		return f.result()
	}
	if items.Count() < minItems {
		f.add("Cart should contain at least %d item(s), found %d", minItems, items.Count())
	}
	for i := 0; i < items.Count(); i++ {
		item := items.GetByIndex(i)
		for _, field := range cartItemFields {
			if _, ok := item.TryGetByKey(field); !ok {
				f.add("Item %d missing field: '%s'", i, field)
			}
		}
		if q, ok := item.TryGetByKey("cantidad"); ok && (!q.IsInt() || q.IntValue() <= 0) {
			f.add("Item %d field 'cantidad' must be a positive integer", i)
		}
	}
	return f.result()
}

// ExtractCartID finds the cart ID in a create-cart response, whether the service sent it as a
// string, a number, or an array whose first element is the ID.
func ExtractCartID(v ldvalue.Value) (string, bool) {
	raw := v.GetByKey("id_carrito")
	if raw.Type() == ldvalue.ArrayType {
		if raw.Count() == 0 {
			return "", false
		}
		raw = raw.GetByIndex(0)
	}
	switch {
	case raw.IsString() && raw.StringValue() != "":
		return raw.StringValue(), true
	case raw.IsInt():
		return strconv.Itoa(raw.IntValue()), true
	default:
		return "", false
	}
}
