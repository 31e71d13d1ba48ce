package suites

import (
	"context"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroweb/integration-harness/clients"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/framework/helpers"
	"github.com/agroweb/integration-harness/generator"
	"github.com/agroweb/integration-harness/validator"
)

const changedQuantity = 3

// carritoTests remembers every cart the tests touched, so that they can be emptied at the end.
type carritoTests struct {
	cartIDs []string
}

func doCarritoTests(t *agtest.T) {
	t.RequireCapability(CapabilityCarrito)

	var ct carritoTests
	if t.Capabilities().Has(CapabilityCarritoCleanup) {
		c := cartClient(t)
		g := cartGenerator(t)
		t.Defer(func() { ct.cleanup(c, g, t) })
	}

	t.Run("create", ct.create)
	t.Run("add product", ct.addProduct)
	t.Run("get", ct.get)
	t.Run("change quantity", ct.changeQuantity)
	t.Run("empty", ct.empty)
	t.Run("full flow", ct.fullFlow)
	t.Run("errors", func(t *agtest.T) {
		t.Run("nonexistent cart", ct.nonexistentCart)
		t.Run("add to nonexistent cart", ct.addToNonexistentCart)
		t.Run("invalid user", ct.invalidUser)
		t.Run("missing fields", ct.missingFields)
	})
}

func (ct *carritoTests) track(cartID string) {
	if !helpers.SliceContains(cartID, ct.cartIDs) {
		ct.cartIDs = append(ct.cartIDs, cartID)
	}
}

func (ct *carritoTests) cleanup(c *clients.CartClient, g *generator.CartGenerator, t *agtest.T) {
	for _, id := range ct.cartIDs {
		resp, err := c.EmptyCart(context.Background(), g.EmptyCart(id))
		switch {
		case err != nil:
			t.Debug("could not empty cart %s: %s", id, err)
		case resp.StatusCode != 200:
			t.Debug("could not empty cart %s: status %d", id, resp.StatusCode)
		}
	}
}

// openCart creates the cart for user, or finds the one that already exists, and returns its ID.
func (ct *carritoTests) openCart(t *agtest.T, c *clients.CartClient, user ldvalue.Value) (string, *clients.Response) {
	t.Helper()
	resp := call(t, "create_carrito", func(ctx context.Context) (*clients.Response, error) {
		return c.CreateCart(ctx, user)
	})
	requireStatusIn(t, resp, 200, 409)
	body := requireJSON(t, resp)
	id, ok := validator.ExtractCartID(body)
	require.True(t, ok, "no cart ID in response: %s", resp.Text())
	ct.track(id)
	return id, resp
}

func (ct *carritoTests) create(t *agtest.T) {
	env := environment(t)
	messages := env.CartFixtures.Messages
	c := cartClient(t)

	_, resp := ct.openCart(t, c, cartGenerator(t).TestUser())
	body := requireJSON(t, resp)
	message := strings.ToLower(body.GetByKey("message").StringValue())
	if resp.StatusCode == 200 {
		assertValid(t, validator.CartEnvelope(body, true))
		assert.Equal(t, messages.Created, message)
	} else {
		assertValid(t, validator.CartEnvelope(body, false))
		assert.Contains(t, message, messages.AlreadyExists)
	}
	assertResponseTime(t, resp, env.Config.Cart.Threshold("create_carrito"))
}

// addLine adds a product line, accepting the "already in cart" answer as well.
func (ct *carritoTests) addLine(t *agtest.T, c *clients.CartClient, line ldvalue.Value) *clients.Response {
	t.Helper()
	resp := call(t, "add_product", func(ctx context.Context) (*clients.Response, error) {
		return c.AddProduct(ctx, line)
	})
	requireStatusIn(t, resp, 200, 201, 409, 500)
	if !isStatus(resp, 200, 201) {
		duplicate := environment(t).CartFixtures.Messages.DuplicateProduct
		assert.Contains(t, strings.ToLower(requireJSON(t, resp).GetByKey("message").StringValue()), duplicate)
	}
	return resp
}

func (ct *carritoTests) addProduct(t *agtest.T) {
	c := cartClient(t)
	g := cartGenerator(t)
	id, _ := ct.openCart(t, c, g.TestUser())

	resp := ct.addLine(t, c, g.AddProduct(id))
	if isStatus(resp, 200, 201) {
		assertValid(t, validator.CartEnvelope(requireJSON(t, resp), true))
	}
	assertResponseTime(t, resp, environment(t).Config.Cart.Threshold("add_product"))
}

func (ct *carritoTests) fetch(t *agtest.T, c *clients.CartClient, cartID string, minItems int) ldvalue.Value {
	t.Helper()
	resp := call(t, "get_carrito", func(ctx context.Context) (*clients.Response, error) {
		return c.GetCart(ctx, cartID)
	})
	requireStatus(t, resp, 200)
	body := requireJSON(t, resp)
	requireValid(t, validator.CartContents(body, minItems))
	return body.GetByKey("resul")
}

func (ct *carritoTests) get(t *agtest.T) {
	c := cartClient(t)
	g := cartGenerator(t)
	id, _ := ct.openCart(t, c, g.TestUser())
	ct.addLine(t, c, g.AddProduct(id))

	cart := ct.fetch(t, c, id, 1)
	assertTotalMatchesItems(t, cart)
}

// assertTotalMatchesItems checks that the cart total is the sum of the line totals, to the cent.
func assertTotalMatchesItems(t *agtest.T, cart ldvalue.Value) {
	t.Helper()
	sum := decimal.Zero
	items := cart.GetByKey("items")
	for i := 0; i < items.Count(); i++ {
		sum = sum.Add(decimal.NewFromFloat(items.GetByIndex(i).GetByKey("total_prod").Float64Value()))
	}
	total := decimal.NewFromFloat(cart.GetByKey("total").Float64Value())
	assert.True(t, total.Round(2).Equal(sum.Round(2)), "cart total %s should be the sum of the items, %s", total, sum)
}

func quantityOf(cart ldvalue.Value, productID string) (int, bool) {
	items := cart.GetByKey("items")
	for i := 0; i < items.Count(); i++ {
		item := items.GetByIndex(i)
		if item.GetByKey("product_id").StringValue() == productID {
			return item.GetByKey("cantidad").IntValue(), true
		}
	}
	return 0, false
}

func (ct *carritoTests) changeQuantity(t *agtest.T) {
	c := cartClient(t)
	g := cartGenerator(t)
	id, _ := ct.openCart(t, c, g.TestUser())
	line := g.AddProduct(id)
	ct.addLine(t, c, line)

	resp := call(t, "change_quantity", func(ctx context.Context) (*clients.Response, error) {
		return c.ChangeQuantity(ctx, g.ChangeQuantity(id, changedQuantity))
	})
	requireStatus(t, resp, 200)
	assertResponseTime(t, resp, environment(t).Config.Cart.Threshold("change_quantity"))

	quantity, found := quantityOf(ct.fetch(t, c, id, 1), line.GetByKey("product_id").StringValue())
	require.True(t, found, "product should still be in the cart")
	assert.Equal(t, changedQuantity, quantity)
}

func (ct *carritoTests) empty(t *agtest.T) {
	c := cartClient(t)
	g := cartGenerator(t)
	id, _ := ct.openCart(t, c, g.TestUser())
	ct.addLine(t, c, g.AddProduct(id))

	resp := call(t, "vaciar_carrito", func(ctx context.Context) (*clients.Response, error) {
		return c.EmptyCart(ctx, g.EmptyCart(id))
	})
	requireStatus(t, resp, 200)
	assertResponseTime(t, resp, environment(t).Config.Cart.Threshold("vaciar_carrito"))

	cart := ct.fetch(t, c, id, 0)
	assert.Equal(t, 0, cart.GetByKey("items").Count())
}

// fullFlow uses a second configured user so that it does not depend on the state left by the
// other tests.
func (ct *carritoTests) fullFlow(t *agtest.T) {
	cfg := environment(t).Config.Cart
	if len(cfg.ValidUsers) < 2 || len(cfg.ValidProductIDs) < 2 {
		t.SkipWithReason("needs two configured users and products")
	}
	c := cartClient(t)
	g := cartGenerator(t)
	user := ldvalue.ObjectBuild().
		Set("userdocument", ldvalue.String(cfg.ValidUsers[1].UserDocument)).
		Set("doctype", ldvalue.String(cfg.ValidUsers[1].DocType)).
		Build()
	productID := cfg.ValidProductIDs[1]

	id, _ := ct.openCart(t, c, user)
	call(t, "vaciar_carrito", func(ctx context.Context) (*clients.Response, error) {
		return c.EmptyCart(ctx, g.EmptyCart(id))
	})

	ct.addLine(t, c, g.ProductLine(id, productID, 2))
	cart := ct.fetch(t, c, id, 1)
	quantity, _ := quantityOf(cart, productID)
	assert.Equal(t, 2, quantity)
	assertTotalMatchesItems(t, cart)

	resp := call(t, "change_quantity", func(ctx context.Context) (*clients.Response, error) {
		return c.ChangeQuantity(ctx, g.ProductLine(id, productID, 4))
	})
	requireStatus(t, resp, 200)
	quantity, _ = quantityOf(ct.fetch(t, c, id, 1), productID)
	assert.Equal(t, 4, quantity)

	resp = call(t, "delete_product", func(ctx context.Context) (*clients.Response, error) {
		return c.DeleteProduct(ctx, g.DeleteProduct(id, productID))
	})
	requireStatus(t, resp, 200)
	assertResponseTime(t, resp, cfg.Threshold("delete_product"))
	_, found := quantityOf(ct.fetch(t, c, id, 0), productID)
	assert.False(t, found, "deleted product should be gone")
}

func (ct *carritoTests) nonexistentCart(t *agtest.T) {
	c := cartClient(t)
	id := environment(t).CartFixtures.InvalidCarritoID
	resp := call(t, "get_carrito", func(ctx context.Context) (*clients.Response, error) {
		return c.GetCart(ctx, id)
	})
	requireStatusIn(t, resp, 404, 400, 500)
}

func (ct *carritoTests) addToNonexistentCart(t *agtest.T) {
	c := cartClient(t)
	g := cartGenerator(t)
	line := g.AddProduct(environment(t).CartFixtures.InvalidCarritoID)
	resp := call(t, "add_product", func(ctx context.Context) (*clients.Response, error) {
		return c.AddProduct(ctx, line)
	})
	requireStatusIn(t, resp, 400, 404, 500)
}

func (ct *carritoTests) invalidUser(t *agtest.T) {
	c := cartClient(t)
	resp := call(t, "create_carrito", func(ctx context.Context) (*clients.Response, error) {
		return c.CreateCart(ctx, cartGenerator(t).InvalidUser())
	})
	requireStatusIn(t, resp, 200, 400, 422, 500)
	if resp.StatusCode == 200 {
		t.Debug("service accepts carts for document type TI")
		if id, ok := validator.ExtractCartID(resp.JSON()); ok {
			ct.track(id)
		}
	}
}

func (ct *carritoTests) missingFields(t *agtest.T) {
	c := cartClient(t)
	resp := call(t, "create_carrito", func(ctx context.Context) (*clients.Response, error) {
		return c.CreateCart(ctx, cartGenerator(t).IncompleteUser())
	})
	requireStatusIn(t, resp, 400, 409, 422, 500)
}
