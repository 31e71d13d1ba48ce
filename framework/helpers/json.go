package helpers

import (
	"encoding/json"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// AsJSON is json.Marshal without the error.
func AsJSON(value interface{}) []byte {
	ret, _ := json.Marshal(value)
	return ret
}

func AsJSONString(value interface{}) string { return string(AsJSON(value)) }

// AsJSONValue marshals a value and parses it back as an ldvalue.Value, which is how payloads
// and response bodies are handled in validators and tests.
func AsJSONValue(value interface{}) ldvalue.Value { return ldvalue.Parse(AsJSON(value)) }

// CanonicalizedJSONString renders a value with object keys in alphabetical order so that
// failure messages are easier to read.
func CanonicalizedJSONString(value ldvalue.Value) string {
	switch value.Type() {
	case ldvalue.ArrayType:
		items := make([]string, 0, value.Count())
		for i := 0; i < value.Count(); i++ {
			items = append(items, CanonicalizedJSONString(value.GetByIndex(i)))
		}
		return "[" + strings.Join(items, ",") + "]"
	case ldvalue.ObjectType:
		props := value.AsValueMap().AsMap()
		keys := maps.Keys(props)
		slices.Sort(keys)
		items := make([]string, 0, len(keys))
		for _, k := range keys {
			items = append(items, ldvalue.String(k).JSONString()+":"+CanonicalizedJSONString(props[k]))
		}
		return "{" + strings.Join(items, ",") + "}"
	default:
		return value.JSONString()
	}
}

// ObjectWith returns a copy of a JSON object with one property set. A non-object is treated
// as an empty object.
func ObjectWith(obj ldvalue.Value, key string, value ldvalue.Value) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for k, v := range obj.AsValueMap().AsMap() {
		b.Set(k, v)
	}
	b.Set(key, value)
	return b.Build()
}

// ObjectWithout returns a copy of a JSON object without the named properties.
func ObjectWithout(obj ldvalue.Value, keys ...string) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for k, v := range obj.AsValueMap().AsMap() {
		if !slices.Contains(keys, k) {
			b.Set(k, v)
		}
	}
	return b.Build()
}
