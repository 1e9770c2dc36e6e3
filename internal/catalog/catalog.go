package catalog

import (
	"fmt"
	"strings"

	"github.com/Iloudia/planner-shop/backend/internal/config"
)

// Product is one sellable digital good. The catalog is built once at
// startup and never mutated, so lookups are safe from any goroutine.
type Product struct {
	ID         string
	Name       string
	PriceMinor int64
	FileName   string
}

type Catalog struct {
	products map[string]Product
	order    []string
}

func New(entries []config.ProductConfig) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	products := make(map[string]Product, len(entries))
	order := make([]string, 0, len(entries))
	for _, entry := range entries {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog entry has empty id")
		}
		if _, exists := products[id]; exists {
			return nil, fmt.Errorf("duplicate catalog entry %q", id)
		}
		if strings.TrimSpace(entry.FileName) == "" {
			return nil, fmt.Errorf("catalog entry %q has empty file name", id)
		}
		if entry.PriceMinor <= 0 {
			return nil, fmt.Errorf("catalog entry %q has non-positive price", id)
		}
		products[id] = Product{
			ID:         id,
			Name:       strings.TrimSpace(entry.Name),
			PriceMinor: entry.PriceMinor,
			FileName:   strings.TrimSpace(entry.FileName),
		}
		order = append(order, id)
	}

	return &Catalog{products: products, order: order}, nil
}

func (c *Catalog) Get(id string) (Product, bool) {
	product, ok := c.products[strings.TrimSpace(id)]
	return product, ok
}

func (c *Catalog) Len() int {
	return len(c.products)
}

// List returns products in config order, for admin/debug output.
func (c *Catalog) List() []Product {
	out := make([]Product, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.products[id])
	}
	return out
}
