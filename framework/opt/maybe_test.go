package opt

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pricing struct {
	OriginalPrice Maybe[float64] `json:"originalPrice"`
}

func TestNoneAndSome(t *testing.T) {
	assert.False(t, None[string]().IsDefined())
	assert.Equal(t, "", None[string]().Value())
	assert.Nil(t, None[int]().AsPtr())

	assert.True(t, Some("").IsDefined())
	assert.Equal(t, 3200.5, Some(3200.5).Value())
	assert.Equal(t, 7, *Some(7).AsPtr())
}

func TestOrElse(t *testing.T) {
	assert.Equal(t, "herbs", None[string]().OrElse("herbs"))
	assert.Equal(t, "dairy", Some("dairy").OrElse("herbs"))
}

func TestFromPtrAndFromOK(t *testing.T) {
	assert.Equal(t, None[string](), FromPtr((*string)(nil)))
	s := "Boyacá"
	assert.Equal(t, Some("Boyacá"), FromPtr(&s))

	m := map[string]int{"stock": 10}
	assert.Equal(t, Some(10), FromOK(m["stock"], true))
	v, ok := m["missing"]
	assert.Equal(t, None[int](), FromOK(v, ok))
}

func TestString(t *testing.T) {
	assert.Equal(t, "[none]", None[int]().String())
	assert.Equal(t, "42", Some(42).String())
}

func TestJSON(t *testing.T) {
	data, err := json.Marshal(pricing{OriginalPrice: Some(4500.0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"originalPrice":4500}`, string(data))

	data, err = json.Marshal(pricing{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"originalPrice":null}`, string(data))

	var p pricing
	require.NoError(t, json.Unmarshal([]byte(`{"originalPrice":null}`), &p))
	assert.False(t, p.OriginalPrice.IsDefined())

	require.NoError(t, json.Unmarshal([]byte(`{"originalPrice":1200.25}`), &p))
	assert.Equal(t, Some(1200.25), p.OriginalPrice)

	assert.Error(t, json.Unmarshal([]byte(`{"originalPrice":"cara"}`), &p))
}
