package mockservices

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/shopspring/decimal"

	"github.com/agroweb/integration-harness/framework"
)

// Messages sent by the carrito service. Clients match on them, so they are part of the API.
const (
	CartCreatedMessage          = "carrito creado con exito"
	CartAlreadyExistsMessage    = "carrito ya existe"
	CartDuplicateProductMessage = "El producto ya esta en el carrito"
	cartNotFoundMessage         = "carrito no encontrado"
	cartProductNotFoundMessage  = "producto no encontrado"
	cartPoolExhaustedMessage    = "Error interno: connection pool exhausted"
)

// CartProduct is what the carrito service knows about a product it can put in a cart.
type CartProduct struct {
	Name  string
	Price decimal.Decimal
	Unit  string
}

type cartLine struct {
	productID string
	quantity  int
}

type cart struct {
	id    string
	owner string
	lines []cartLine
}

// CartService is an in-memory carrito service. A user has at most one cart; creating a second
// one fails with 409 and reports the existing cart's ID.
type CartService struct {
	products     map[string]CartProduct
	carts        map[string]*cart
	cartsByOwner map[string]string
	lastID       int
	failCreates  int
	handler      http.Handler
	debugLogger  framework.Logger
	lock         sync.RWMutex
}

// NewCartService creates the service with the products it is able to sell.
func NewCartService(products map[string]CartProduct, debugLogger framework.Logger) *CartService {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	c := &CartService{
		products:     products,
		carts:        make(map[string]*cart),
		cartsByOwner: make(map[string]string),
		debugLogger:  debugLogger,
	}

	router := newRouter(
		func(w http.ResponseWriter, r *http.Request) { c.reply(w, http.StatusNotFound, false, "ruta no encontrada") },
		func(w http.ResponseWriter, r *http.Request) { c.reply(w, http.StatusMethodNotAllowed, false, "metodo no permitido") },
	)
	router.HandleFunc("/carrito/create", c.serveCreate).Methods("POST")
	router.HandleFunc("/carrito/addProduct", c.serveAddProduct).Methods("POST")
	router.HandleFunc("/carrito/changeQuantity", c.serveChangeQuantity).Methods("PUT")
	router.HandleFunc("/carrito/deleteProduct", c.serveDeleteProduct).Methods("DELETE")
	router.HandleFunc("/carrito/vaciar", c.serveEmpty).Methods("DELETE")
	router.HandleFunc("/carrito/getCarrito/{id}", c.serveGet).Methods("GET")
	c.handler = router

	return c
}

// CartProductsFor makes up catalog entries for product IDs, so that the mock can sell whatever
// products the configuration names.
func CartProductsFor(productIDs []string) map[string]CartProduct {
	units := []string{"1kg", "500g", "1 unidad", "1 litro"}
	ret := make(map[string]CartProduct, len(productIDs))
	for i, id := range productIDs {
		ret[id] = CartProduct{
			Name:  fmt.Sprintf("Producto %d", i+1),
			Price: decimal.NewFromInt(int64(1500 + 500*i)),
			Unit:  units[i%len(units)],
		}
	}
	return ret
}

func (c *CartService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}

// FailNextCreates makes the next n create requests fail with status 500, the way the real service
// does when its database pool is exhausted.
func (c *CartService) FailNextCreates(n int) {
	c.lock.Lock()
	c.failCreates = n
	c.lock.Unlock()
}

// CartCount returns the number of carts that exist.
func (c *CartService) CartCount() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return len(c.carts)
}

func (c *CartService) reply(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, envelope(success, message, nil))
}

// envelope is {"Success": success, "message": message} plus any extra fields.
func envelope(success bool, message string, extra map[string]ldvalue.Value) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	b.Set("Success", ldvalue.Bool(success))
	b.Set("message", ldvalue.String(message))
	for k, v := range extra {
		b.Set(k, v)
	}
	return b.Build()
}

func (c *CartService) readBody(w http.ResponseWriter, r *http.Request) (ldvalue.Value, bool) {
	body, err := readObject(r)
	if err != nil {
		c.reply(w, http.StatusBadRequest, false, "datos invalidos: "+err.Error())
		return ldvalue.Null(), false
	}
	return body, true
}

func (c *CartService) serveCreate(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}
	document, doctype := body.GetByKey("userdocument"), body.GetByKey("doctype")
	if !document.IsString() || document.StringValue() == "" || !doctype.IsString() {
		c.reply(w, http.StatusBadRequest, false, "faltan campos requeridos: userdocument, doctype")
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	if c.failCreates > 0 {
		c.failCreates--
		c.debugLogger.Printf("Simulating failure of cart creation (%d more to go)", c.failCreates)
		c.reply(w, http.StatusInternalServerError, false, cartPoolExhaustedMessage)
		return
	}
	if doctype.StringValue() != "CC" {
		c.reply(w, http.StatusBadRequest, false, fmt.Sprintf("tipo de documento no valido: '%s'", doctype.StringValue()))
		return
	}
	if existing, ok := c.cartsByOwner[document.StringValue()]; ok {
		writeJSON(w, http.StatusConflict, envelope(false, CartAlreadyExistsMessage,
			map[string]ldvalue.Value{"id_carrito": ldvalue.ArrayOf(ldvalue.String(existing))}))
		return
	}
	c.lastID++
	id := strconv.Itoa(c.lastID)
	c.carts[id] = &cart{id: id, owner: document.StringValue()}
	c.cartsByOwner[document.StringValue()] = id
	c.debugLogger.Printf("Created cart %s for %s", id, document.StringValue())
	writeJSON(w, http.StatusOK, envelope(true, CartCreatedMessage,
		map[string]ldvalue.Value{"id_carrito": ldvalue.ArrayOf(ldvalue.String(id))}))
}

// productLine reads {id_carrito, product_id, cantidad}. If it returns false, a response has been
// sent.
func (c *CartService) productLine(w http.ResponseWriter, body ldvalue.Value) (cartID, productID string, quantity int, ok bool) {
	cartID = stringOrNumber(body.GetByKey("id_carrito"))
	productID = body.GetByKey("product_id").StringValue()
	q := body.GetByKey("cantidad")
	if cartID == "" || productID == "" {
		c.reply(w, http.StatusBadRequest, false, "faltan campos requeridos: id_carrito, product_id")
		return "", "", 0, false
	}
	if !q.IsInt() || q.IntValue() <= 0 {
		c.reply(w, http.StatusBadRequest, false, "la cantidad debe ser un entero positivo")
		return "", "", 0, false
	}
	return cartID, productID, q.IntValue(), true
}

func stringOrNumber(v ldvalue.Value) string {
	if v.IsInt() {
		return strconv.Itoa(v.IntValue())
	}
	return v.StringValue()
}

func (c *CartService) serveAddProduct(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}
	cartID, productID, quantity, ok := c.productLine(w, body)
	if !ok {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	ct, exists := c.carts[cartID]
	if !exists {
		c.reply(w, http.StatusNotFound, false, cartNotFoundMessage)
		return
	}
	if _, known := c.products[productID]; !known {
		c.reply(w, http.StatusNotFound, false, cartProductNotFoundMessage)
		return
	}
	if ct.find(productID) >= 0 {
		c.reply(w, http.StatusConflict, false, CartDuplicateProductMessage)
		return
	}
	ct.lines = append(ct.lines, cartLine{productID: productID, quantity: quantity})
	c.debugLogger.Printf("Added %d x %s to cart %s", quantity, productID, cartID)
	c.reply(w, http.StatusOK, true, "producto agregado al carrito")
}

func (c *CartService) serveChangeQuantity(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}
	cartID, productID, quantity, ok := c.productLine(w, body)
	if !ok {
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	ct, exists := c.carts[cartID]
	if !exists {
		c.reply(w, http.StatusNotFound, false, cartNotFoundMessage)
		return
	}
	i := ct.find(productID)
	if i < 0 {
		c.reply(w, http.StatusNotFound, false, "el producto no esta en el carrito")
		return
	}
	ct.lines[i].quantity = quantity
	c.reply(w, http.StatusOK, true, "cantidad actualizada")
}

func (c *CartService) serveDeleteProduct(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}
	// clients have used both names for the cart field
	cartID := stringOrNumber(body.GetByKey("carrito_id"))
	if cartID == "" {
		cartID = stringOrNumber(body.GetByKey("id_carrito"))
	}
	productID := body.GetByKey("product_id").StringValue()

	c.lock.Lock()
	defer c.lock.Unlock()
	ct, exists := c.carts[cartID]
	if !exists {
		c.reply(w, http.StatusNotFound, false, cartNotFoundMessage)
		return
	}
	i := ct.find(productID)
	if i < 0 {
		c.reply(w, http.StatusNotFound, false, "el producto no esta en el carrito")
		return
	}
	ct.lines = append(ct.lines[:i], ct.lines[i+1:]...)
	c.reply(w, http.StatusOK, true, "producto eliminado del carrito")
}

func (c *CartService) serveEmpty(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}
	cartID := stringOrNumber(body.GetByKey("id_carrito"))

	c.lock.Lock()
	defer c.lock.Unlock()
	ct, exists := c.carts[cartID]
	if !exists {
		c.reply(w, http.StatusNotFound, false, cartNotFoundMessage)
		return
	}
	ct.lines = nil
	c.debugLogger.Printf("Emptied cart %s", cartID)
	c.reply(w, http.StatusOK, true, "carrito vaciado")
}

func (c *CartService) serveGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	c.lock.RLock()
	defer c.lock.RUnlock()
	ct, exists := c.carts[id]
	if !exists {
		c.reply(w, http.StatusNotFound, false, cartNotFoundMessage)
		return
	}

	total := decimal.Zero
	items := ldvalue.ArrayBuild()
	for _, line := range ct.lines {
		product := c.products[line.productID]
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.quantity)))
		total = total.Add(lineTotal)
		items.Add(ldvalue.ObjectBuild().
			Set("product_id", ldvalue.String(line.productID)).
			Set("product_name", ldvalue.String(product.Name)).
			Set("cantidad", ldvalue.Int(line.quantity)).
			Set("total_prod", ldvalue.Float64(lineTotal.InexactFloat64())).
			Set("medida", ldvalue.String(product.Unit)).
			Build())
	}
	result := ldvalue.ObjectBuild().
		Set("id_carrito", ldvalue.String(ct.id)).
		Set("items", items.Build()).
		Set("total", ldvalue.Float64(total.InexactFloat64())).
		Build()
	writeJSON(w, http.StatusOK, envelope(true, "carrito encontrado", map[string]ldvalue.Value{"resul": result}))
}

func (ct *cart) find(productID string) int {
	for i, line := range ct.lines {
		if line.productID == productID {
			return i
		}
	}
	return -1
}
