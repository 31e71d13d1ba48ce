package validator

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
)

func TestCartEnvelope(t *testing.T) {
	created := ldvalue.Parse([]byte(`{"Success":true,"message":"carrito creado con exito","id_carrito":["12"]}`))
	assert.True(t, CartEnvelope(created, true).OK)
	assert.Equal(t, []string{"Field 'Success' should be false"}, CartEnvelope(created, false).Findings)

	assert.Equal(t, []string{"Cart response missing field: 'Success'"},
		CartEnvelope(ldvalue.Parse([]byte(`{"message":"x"}`)), true).Findings)
	assert.Equal(t, []string{"Field 'Success' must be a boolean", "Field 'message' must be a string"},
		CartEnvelope(ldvalue.Parse([]byte(`{"Success":"true","message":1}`)), true).Findings)
	assert.Equal(t, []string{"Cart response must be an object"}, CartEnvelope(ldvalue.String("ok"), true).Findings)
}

func TestCartContents(t *testing.T) {
	full := ldvalue.Parse([]byte(`{"Success":true,"resul":{"id_carrito":"12","total":9000,
		"items":[{"product_id":"PROD-577D6765","product_name":"Lulo","cantidad":3,"total_prod":9000,"medida":"1kg"}]}}`))
	assert.True(t, CartContents(full, 1).OK)
	assert.True(t, CartContents(full, 0).OK)
	assert.Equal(t, []string{"Cart should contain at least 2 item(s), found 1"}, CartContents(full, 2).Findings)

	broken := ldvalue.Parse([]byte(`{"Success":true,"resul":{"items":[{"product_id":"P","cantidad":0}]}}`))
	assert.Equal(t, []string{
		"Cart must contain 'total'",
		"Item 0 missing field: 'total_prod'",
		"Item 0 field 'cantidad' must be a positive integer",
	}, CartContents(broken, 0).Findings)

	assert.Equal(t, []string{"Cart response missing field: 'resul'"},
		CartContents(ldvalue.Parse([]byte(`{"Success":true}`)), 0).Findings)
}

func TestExtractCartID(t *testing.T) {
	for _, tc := range []struct {
		body string
		id   string
		ok   bool
	}{
		{`{"id_carrito":"12"}`, "12", true},
		{`{"id_carrito":["34","35"]}`, "34", true},
		{`{"id_carrito":[56]}`, "56", true},
		{`{"id_carrito":78}`, "78", true},
		{`{"id_carrito":[]}`, "", false},
		{`{"id_carrito":""}`, "", false},
		{`{"Success":false}`, "", false},
	} {
		t.Run(tc.body, func(t *testing.T) {
			id, ok := ExtractCartID(ldvalue.Parse([]byte(tc.body)))
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.id, id)
		})
	}
}
