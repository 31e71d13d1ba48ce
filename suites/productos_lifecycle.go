package suites

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/maps"

	"github.com/agroweb/integration-harness/clients"
	"github.com/agroweb/integration-harness/framework/agtest"
	"github.com/agroweb/integration-harness/framework/helpers"
	"github.com/agroweb/integration-harness/framework/opt"
	"github.com/agroweb/integration-harness/generator"
)

func doProductosLifecycleTests(t *agtest.T) {
	t.Run("stock consistency", productsStockConsistency)
	t.Run("bulk creation", productsBulkCreation)
	t.Run("edge cases", productsEdgeCases)
	t.Run("category management", productsCategoryManagement)
	t.Run("integration data", productsIntegrationData)
}

func productsStockConsistency(t *agtest.T) {
	c := productsClient(t)
	g := productGenerator(t)
	for _, stock := range []int{0, 1, 250} {
		t.Run(fmt.Sprintf("stock %d", stock), func(t *agtest.T) {
			created := createProduct(t, c, g.ValidProduct(generator.ProductOptions{Stock: opt.Some(stock)}))
			assert.Equal(t, stock, created.GetByKey("stock").IntValue())
			if inStock, ok := created.TryGetByKey("inStock"); ok {
				assert.Equal(t, stock > 0, inStock.BoolValue())
			}
		})
	}
}

func productsBulkCreation(t *agtest.T) {
	c := productsClient(t)
	count := environment(t).Config.DatasetSize("smoke")
	var ids []string
	for _, payload := range productGenerator(t).BulkProducts(count, opt.None[string]()) {
		created := createProduct(t, c, payload)
		ids = append(ids, created.GetByKey("productId").StringValue())
	}
	require.Len(t, ids, count)
	unique := make(map[string]struct{})
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	assert.Len(t, unique, count, "bulk-created products should have distinct IDs")

	resp := call(t, "get_products", c.AllProducts)
	requireStatus(t, resp, 200)
	listed := clients.ExtractProductIDs(requireJSON(t, resp))
	for _, id := range ids {
		assert.Contains(t, listed, id)
	}
}

func productsEdgeCases(t *agtest.T) {
	c := productsClient(t)
	for i, payload := range productGenerator(t).EdgeCaseProducts() {
		t.Run(fmt.Sprintf("case %d (%s)", i+1, payload.GetByKey("name").StringValue()), func(t *agtest.T) {
			createProduct(t, c, payload)
		})
	}
}

func productsCategoryManagement(t *agtest.T) {
	c := productsClient(t)
	byCategory := productGenerator(t).ProductsByCategory()
	createdIDs := make(map[string][]string)
	for _, category := range helpers.Sorted(maps.Keys(byCategory)) {
		for _, payload := range byCategory[category] {
			created := createProduct(t, c, payload)
			createdIDs[category] = append(createdIDs[category], created.GetByKey("productId").StringValue())
		}
	}

	resp := call(t, "get_products", c.AllProducts)
	requireStatus(t, resp, 200)
	list := requireJSON(t, resp)
	for category, ids := range createdIDs {
		inCategory := clients.ExtractProductIDs(ldvalue.ArrayOf(clients.FilterByCategory(list, category)...))
		for _, id := range ids {
			require.Contains(t, inCategory, id, "product %s should be listed under %s", id, category)
		}
	}
}

// productsIntegrationData creates the named integration products and checks that each can be found
// by name in the listing afterwards.
func productsIntegrationData(t *agtest.T) {
	c := productsClient(t)
	var names []string
	for _, payload := range scenarios(t).IntegrationData() {
		created := createProduct(t, c, payload)
		names = append(names, created.GetByKey("name").StringValue())
	}

	resp := call(t, "get_products", c.AllProducts)
	requireStatus(t, resp, 200)
	list := requireJSON(t, resp)
	for _, name := range names {
		_, found := clients.FindProductByName(list, name)
		assert.True(t, found, "product %q should be listed", name)
	}
	assert.GreaterOrEqual(t, clients.TotalStock(list), 0)
}
