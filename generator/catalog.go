package generator

import (
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/agroweb/integration-harness/data"
)

// PriceRange is an inclusive range of unit prices in pesos.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Catalog is the vocabulary the product generator draws from.
type Catalog struct {
	Categories []string `json:"categories"`
	// InvalidCategories may contain null, which is sent as a JSON null category.
	InvalidCategories []ldvalue.Value       `json:"invalidCategories"`
	ProductNames      map[string][]string   `json:"productNames"`
	FallbackName      string                `json:"fallbackName"`
	Origins           []string              `json:"origins"`
	Units             []string              `json:"units"`
	Descriptions      []string              `json:"descriptions"`
	PriceRanges       map[string]PriceRange `json:"priceRanges"`
	DefaultPriceRange PriceRange            `json:"defaultPriceRange"`
	ImageBaseURL      string                `json:"imageBaseURL"`
}

// LoadCatalog reads the catalog embedded in data/data-files/catalog.yaml.
func LoadCatalog() (Catalog, error) {
	var c Catalog
	if err := data.LoadSingle("catalog.yaml", &c); err != nil {
		return Catalog{}, err
	}
	if len(c.Categories) == 0 || len(c.Origins) == 0 || len(c.Units) == 0 || len(c.Descriptions) == 0 {
		return Catalog{}, fmt.Errorf("catalog.yaml is incomplete")
	}
	return c, nil
}

// DefaultCatalog is LoadCatalog for callers that cannot do anything useful if the embedded file
// is broken. It panics on error.
func DefaultCatalog() Catalog {
	c, err := LoadCatalog()
	if err != nil {
		panic(err)
	}
	return c
}

func (c Catalog) priceRange(category string) PriceRange {
	if r, ok := c.PriceRanges[category]; ok {
		return r
	}
	return c.DefaultPriceRange
}

func (c Catalog) baseNames(category string) []string {
	if names := c.ProductNames[category]; len(names) != 0 {
		return names
	}
	return []string{c.FallbackName}
}
