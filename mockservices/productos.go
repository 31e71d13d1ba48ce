package mockservices

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/agroweb/integration-harness/framework"
	"github.com/agroweb/integration-harness/framework/helpers"
	"github.com/agroweb/integration-harness/validator"
)

// ProductsServiceVersion is reported by the mock's /health endpoint.
const ProductsServiceVersion = "1.0.0"

const (
	productsMaxPrice      = 999999.99
	productsMaxStock      = 999999
	productsMaxName       = 200
	productsMaxDesc       = 1000
	testRouteMessage      = "Test route is working!"
	prometheusContentType = "text/plain; version=0.0.4; charset=utf-8"
)

type fieldKind int

const (
	stringField fieldKind = iota
	numberField
	intField
	boolField
)

func (k fieldKind) String() string {
	switch k {
	case numberField:
		return "number"
	case intField:
		return "integer"
	case boolField:
		return "boolean"
	default:
		return "string"
	}
}

func (k fieldKind) matches(v ldvalue.Value) bool {
	switch k {
	case numberField:
		return v.IsNumber()
	case intField:
		return v.IsInt()
	case boolField:
		return v.IsBool()
	default:
		return v.IsString()
	}
}

type productField struct {
	name string
	kind fieldKind
}

var requiredProductFields = []productField{
	{"name", stringField},
	{"category", stringField},
	{"price", numberField},
	{"unit", stringField},
	{"imageUrl", stringField},
	{"stock", intField},
	{"origin", stringField},
	{"description", stringField},
	{"isActive", boolField},
}

var allProductFields = append(helpers.CopyOf(requiredProductFields),
	productField{"isOrganic", boolField},
	productField{"isBestSeller", boolField},
	productField{"freeShipping", boolField},
)

type requestKey struct {
	method   string
	endpoint string
	status   int
}

// ProductsService is an in-memory productos service. Created products are kept until the service
// is discarded.
type ProductsService struct {
	categories  []string
	products    map[string]ldvalue.Value
	order       []string
	requests    map[requestKey]int
	durations   map[string]time.Duration
	handler     http.Handler
	router      *mux.Router
	debugLogger framework.Logger
	lock        sync.RWMutex
}

// NewProductsService creates the service. If categories is empty, the service accepts the
// categories in validator.DefaultCategories.
func NewProductsService(categories []string, debugLogger framework.Logger) *ProductsService {
	if len(categories) == 0 {
		categories = validator.DefaultCategories()
	}
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	p := &ProductsService{
		categories:  categories,
		products:    make(map[string]ldvalue.Value),
		requests:    make(map[requestKey]int),
		durations:   make(map[string]time.Duration),
		debugLogger: debugLogger,
	}

	router := newRouter(
		func(w http.ResponseWriter, r *http.Request) { writeError(w, http.StatusNotFound, "Recurso no encontrado (not found)") },
		func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, "Método no permitido (method not allowed)")
		},
	)
	router.HandleFunc("/health", p.serveHealth).Methods("GET")
	router.HandleFunc("/test", p.serveTest).Methods("GET")
	router.HandleFunc("/metrics", p.serveMetrics).Methods("GET")
	router.HandleFunc("/products", p.serveList).Methods("GET")
	router.HandleFunc("/products", p.serveCreate).Methods("POST")
	router.HandleFunc("/products/{id}", p.serveGet).Methods("GET")
	p.router = router
	p.handler = http.HandlerFunc(p.serveAndCount)

	return p
}

func (p *ProductsService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

func (p *ProductsService) serveAndCount(w http.ResponseWriter, r *http.Request) {
	endpoint := "unmatched"
	var match mux.RouteMatch
	if p.router.Match(r, &match) && match.Route != nil {
		if tpl, err := match.Route.GetPathTemplate(); err == nil {
			endpoint = tpl
		}
	}
	started := time.Now()
	rec := &statusRecorder{ResponseWriter: w}
	p.router.ServeHTTP(rec, r)

	p.lock.Lock()
	p.requests[requestKey{method: r.Method, endpoint: endpoint, status: rec.status}]++
	p.durations[endpoint] += time.Since(started)
	p.lock.Unlock()
}

// Products returns the created products in creation order.
func (p *ProductsService) Products() []ldvalue.Value {
	p.lock.RLock()
	defer p.lock.RUnlock()
	ret := make([]ldvalue.Value, 0, len(p.order))
	for _, id := range p.order {
		ret = append(ret, p.products[id])
	}
	return ret
}

func (p *ProductsService) serveHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ldvalue.ObjectBuild().
		Set("status", ldvalue.String("healthy")).
		Set("service", ldvalue.String("productos")).
		Set("version", ldvalue.String(ProductsServiceVersion)).
		Set("metrics_endpoint", ldvalue.String("/metrics")).
		Build())
}

func (p *ProductsService) serveTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ldvalue.String(testRouteMessage))
}

func (p *ProductsService) serveList(w http.ResponseWriter, r *http.Request) {
	products := p.Products()
	p.debugLogger.Printf("Listing %d products", len(products))
	writeJSON(w, http.StatusOK, ldvalue.ArrayOf(products...))
}

func (p *ProductsService) serveGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !strings.HasPrefix(id, "PROD-") {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("ID de producto con formato inválido (invalid format): '%s'", id))
		return
	}
	p.lock.RLock()
	product, ok := p.products[id]
	p.lock.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Producto no encontrado (not found): '%s'", id))
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (p *ProductsService) serveCreate(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	body, err := readObject(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Cuerpo JSON inválido (invalid JSON): %s", err))
		return
	}
	if message := p.checkNewProduct(body); message != "" {
		p.debugLogger.Printf("Rejecting product: %s", message)
		writeError(w, http.StatusBadRequest, message)
		return
	}

	id := newProductID()
	b := ldvalue.ObjectBuild()
	for key, value := range body.AsValueMap().AsMap() {
		b.Set(key, value)
	}
	b.Set("productId", ldvalue.String(id))
	b.Set("inStock", ldvalue.Bool(body.GetByKey("stock").IntValue() > 0))
	product := b.Build()

	p.lock.Lock()
	p.products[id] = product
	p.order = append(p.order, id)
	p.lock.Unlock()

	p.debugLogger.Printf("Created product %s", id)
	writeJSON(w, http.StatusCreated, product)
}

// checkNewProduct returns the first problem with a creation request, or "" if there is none.
func (p *ProductsService) checkNewProduct(body ldvalue.Value) string {
	if body.Count() == 0 {
		return "No se recibieron datos del producto (empty product data)"
	}
	var missing []string
	for _, f := range requiredProductFields {
		if _, ok := body.TryGetByKey(f.name); !ok {
			missing = append(missing, f.name)
		}
	}
	if len(missing) != 0 {
		return "Campos requeridos faltantes (missing required fields): " + strings.Join(missing, ", ")
	}
	for _, f := range allProductFields {
		if v, ok := body.TryGetByKey(f.name); ok && !f.kind.matches(v) {
			return fmt.Sprintf("Invalid type for field '%s': expected %s", f.name, f.kind)
		}
	}
	if v := body.GetByKey("originalPrice"); !v.IsNull() && !v.IsNumber() {
		return "Invalid type for field 'originalPrice': expected number or null"
	}

	price, stock := body.GetByKey("price").Float64Value(), body.GetByKey("stock").IntValue()
	switch {
	case price < 0:
		return "Field 'price' must not be negative"
	case stock < 0:
		return "Field 'stock' must not be negative"
	case price > productsMaxPrice:
		return "Field 'price' is too large (max 999999.99)"
	case stock > productsMaxStock:
		return "Field 'stock' is too large (max 999999)"
	}

	if category := body.GetByKey("category").StringValue(); !helpers.SliceContains(category, p.categories) {
		return fmt.Sprintf("Invalid category '%s'. Valid categories: %s", category, strings.Join(p.categories, ", "))
	}
	for _, limit := range []struct {
		field string
		max   int
	}{{"name", productsMaxName}, {"origin", productsMaxName}, {"description", productsMaxDesc}} {
		s := body.GetByKey(limit.field).StringValue()
		if strings.TrimSpace(s) == "" {
			return fmt.Sprintf("Field '%s' cannot be empty", limit.field)
		}
		if len([]rune(s)) > limit.max {
			return fmt.Sprintf("Field '%s' is too long (max length %d)", limit.field, limit.max)
		}
	}
	imageURL := body.GetByKey("imageUrl").StringValue()
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return fmt.Sprintf("Invalid imageUrl '%s': must be an http(s) URL", imageURL)
	}
	return ""
}

func newProductID() string {
	return "PROD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (p *ProductsService) serveMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", prometheusContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(p.renderMetrics()))
}

func (p *ProductsService) renderMetrics() string {
	p.lock.RLock()
	defer p.lock.RUnlock()

	keys := maps.Keys(p.requests)
	slices.SortFunc(keys, func(a, b requestKey) int {
		if c := strings.Compare(a.endpoint, b.endpoint); c != 0 {
			return c
		}
		if c := strings.Compare(a.method, b.method); c != 0 {
			return c
		}
		return a.status - b.status
	})

	var sb strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&sb, format+"\n", args...)
	}

	line("# HELP productos_requests_total Total HTTP requests handled by productos")
	line("# TYPE productos_requests_total counter")
	for _, k := range keys {
		line(`productos_requests_total{method="%s",endpoint="%s",status="%d"} %d`, k.method, k.endpoint, k.status, p.requests[k])
	}

	line("# HELP productos_errors_total Requests answered with an error status")
	line("# TYPE productos_errors_total counter")
	errorCounts := make(map[string]int)
	for k, n := range p.requests {
		if k.status >= 400 {
			errorCounts[k.endpoint] += n
		}
	}
	endpoints := maps.Keys(errorCounts)
	slices.Sort(endpoints)
	if len(endpoints) == 0 {
		line("productos_errors_total 0")
	}
	for _, e := range endpoints {
		line(`productos_errors_total{endpoint="%s"} %d`, e, errorCounts[e])
	}

	line("# HELP productos_request_duration_seconds Time spent handling requests")
	line("# TYPE productos_request_duration_seconds summary")
	counts := make(map[string]int)
	for k, n := range p.requests {
		counts[k.endpoint] += n
	}
	endpoints = maps.Keys(counts)
	slices.Sort(endpoints)
	for _, e := range endpoints {
		line(`productos_request_duration_seconds_sum{endpoint="%s"} %f`, e, p.durations[e].Seconds())
		line(`productos_request_duration_seconds_count{endpoint="%s"} %d`, e, counts[e])
	}

	line("# TYPE flask_http_requests_total counter")
	total := 0
	for _, k := range keys {
		line(`flask_http_requests_total{method="%s",status="%d"} %d`, k.method, k.status, p.requests[k])
		total += p.requests[k]
	}
	if len(keys) == 0 {
		line("flask_http_requests_total 0")
	}
	var totalDuration time.Duration
	for _, d := range p.durations {
		totalDuration += d
	}
	line("# TYPE flask_http_request_duration_seconds summary")
	line("flask_http_request_duration_seconds_sum %f", totalDuration.Seconds())
	line("flask_http_request_duration_seconds_count %d", total)

	line("# TYPE agroweb_productos_info gauge")
	line(`agroweb_productos_info{version="%s"} 1`, ProductsServiceVersion)
	return sb.String()
}
