package generator

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/config"
	"github.com/agroweb/integration-harness/data"
)

// CartMessages are the messages the carrito service puts in its envelopes.
type CartMessages struct {
	Created          string `json:"created"`
	AlreadyExists    string `json:"alreadyExists"`
	DuplicateProduct string `json:"duplicateProduct"`
}

// CartFixtures is the content of data/data-files/carrito.yaml.
type CartFixtures struct {
	ValidProduct struct {
		ProductID string `json:"product_id"`
		Cantidad  int    `json:"cantidad"`
	} `json:"validProduct"`
	InvalidCarritoID string          `json:"invalidCarritoID"`
	InvalidProductID string          `json:"invalidProductID"`
	InvalidUser      config.CartUser `json:"invalidUser"`
	IncompleteUser   ldvalue.Value   `json:"incompleteUser"`
	Messages         CartMessages    `json:"messages"`
	ProbePath        string          `json:"probePath"`
	ProbeStatuses    []int           `json:"probeStatuses"`
}

// LoadCartFixtures reads the embedded cart fixtures.
func LoadCartFixtures() (CartFixtures, error) {
	var f CartFixtures
	err := data.LoadSingle("carrito.yaml", &f)
	return f, err
}

// CartGenerator produces request bodies for the carrito service.
type CartGenerator struct {
	cart     config.CartConfig
	fixtures CartFixtures
	config   generatorConfig
}

// NewCartGenerator creates a generator using the users and product IDs from cart configuration.
func NewCartGenerator(cart config.CartConfig, fixtures CartFixtures, options ...GeneratorOption) *CartGenerator {
	return &CartGenerator{cart: cart, fixtures: fixtures, config: makeGeneratorConfig(options)}
}

// Fixtures returns the fixtures the generator was built with.
func (g *CartGenerator) Fixtures() CartFixtures { return g.fixtures }

func cartUser(u config.CartUser) ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("userdocument", ldvalue.String(u.UserDocument)).
		Set("doctype", ldvalue.String(u.DocType)).
		Build()
}

// TestUser is the body for creating the default test user's cart.
func (g *CartGenerator) TestUser() ldvalue.Value {
	return cartUser(g.cart.TestUser())
}

// RandomUser picks one of the configured users.
func (g *CartGenerator) RandomUser() ldvalue.Value {
	return cartUser(pick(g.config.rand, g.cart.ValidUsers))
}

// InvalidUser has a document type that carts do not accept.
func (g *CartGenerator) InvalidUser() ldvalue.Value {
	return cartUser(g.fixtures.InvalidUser)
}

// IncompleteUser has no doctype.
func (g *CartGenerator) IncompleteUser() ldvalue.Value {
	return g.fixtures.IncompleteUser
}

// AddProduct adds the configured test product in the fixture quantity.
func (g *CartGenerator) AddProduct(cartID string) ldvalue.Value {
	productID := g.fixtures.ValidProduct.ProductID
	if productID == "" {
		productID = g.cart.TestProductID()
	}
	return g.ProductLine(cartID, productID, g.fixtures.ValidProduct.Cantidad)
}

// RandomProductLine picks a configured product and a valid quantity.
func (g *CartGenerator) RandomProductLine(cartID string) ldvalue.Value {
	quantity := 1
	if len(g.cart.ValidQuantities) != 0 {
		quantity = pick(g.config.rand, g.cart.ValidQuantities)
	}
	return g.ProductLine(cartID, pick(g.config.rand, g.cart.ValidProductIDs), quantity)
}

// ProductLine is the body used both to add a product and to change its quantity.
func (g *CartGenerator) ProductLine(cartID, productID string, quantity int) ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("id_carrito", ldvalue.String(cartID)).
		Set("product_id", ldvalue.String(productID)).
		Set("cantidad", ldvalue.Int(quantity)).
		Build()
}

// ChangeQuantity sets the test product's quantity.
func (g *CartGenerator) ChangeQuantity(cartID string, quantity int) ldvalue.Value {
	return g.ProductLine(cartID, g.AddProduct(cartID).GetByKey("product_id").StringValue(), quantity)
}

// DeleteProduct removes a product from a cart. The carrito service names the cart field
// "carrito_id" for this one operation.
func (g *CartGenerator) DeleteProduct(cartID, productID string) ldvalue.Value {
	return ldvalue.ObjectBuild().
		Set("carrito_id", ldvalue.String(cartID)).
		Set("product_id", ldvalue.String(productID)).
		Build()
}

// EmptyCart is the body for emptying a cart.
func (g *CartGenerator) EmptyCart(cartID string) ldvalue.Value {
	return ldvalue.ObjectBuild().Set("id_carrito", ldvalue.String(cartID)).Build()
}
