// Package catalog holds the read-only product catalog the assistant draws from.
// A Catalog value is an immutable snapshot and may be shared freely between
// goroutines; Store swaps whole snapshots on reload.
package catalog

import (
	"errors"
	"fmt"
	"slices"

	"github.com/benjamincozon/shopassist/internal/models"
)

// ErrProductNotFound is returned by lookups for unknown product ids
var ErrProductNotFound = errors.New("product not found")

// Catalog is an immutable, insertion-ordered product snapshot
type Catalog struct {
	products []models.Product
	featured []models.Product
	byID     map[string]int
}

// New validates and normalizes products into a snapshot.
// Soft issues are returned alongside the catalog; hard issues fail the build.
func New(products []models.Product) (*Catalog, []Issue, error) {
	normalized, issues, err := Validate(products)
	if err != nil {
		return nil, issues, err
	}

	c := &Catalog{
		products: normalized,
		byID:     make(map[string]int, len(normalized)),
	}
	for i, p := range normalized {
		c.byID[p.ID] = i
		if p.IsFeatured {
			c.featured = append(c.featured, p)
		}
	}
	return c, issues, nil
}

// Products returns the full catalog in insertion order
func (c *Catalog) Products() []models.Product {
	return slices.Clone(c.products)
}

// Featured returns the featured subset in insertion order
func (c *Catalog) Featured() []models.Product {
	return slices.Clone(c.featured)
}

// Len is the number of products in the snapshot
func (c *Catalog) Len() int {
	return len(c.products)
}

// Get looks a product up by id
func (c *Catalog) Get(id string) (models.Product, error) {
	idx, ok := c.byID[id]
	if !ok {
		return models.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return c.products[idx], nil
}

var categoryIcons = map[string]string{
	"Telefon":     "📱",
	"Bilgisayar":  "💻",
	"Tablet":      "📲",
	"Kulaklık":    "🎧",
	"Akıllı Saat": "⌚",
	"Ayakkabı":    "👟",
	"Ev":          "🏠",
	"Oyun":        "🎮",
	"Oyuncak":     "🧸",
}

const defaultCategoryIcon = "🛍️"

// Categories derives category metadata in first-appearance order
func (c *Catalog) Categories() []models.Category {
	var out []models.Category
	index := make(map[string]int)
	for _, p := range c.products {
		if i, ok := index[p.Category]; ok {
			out[i].Count++
			continue
		}
		icon, ok := categoryIcons[p.Category]
		if !ok {
			icon = defaultCategoryIcon
		}
		index[p.Category] = len(out)
		out = append(out, models.Category{Name: p.Category, Icon: icon, Count: 1})
	}
	return out
}
