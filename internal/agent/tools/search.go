package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/benjamincozon/shopassist/internal/models"
)

// fillers carry no product meaning and are dropped from search queries
var fillers = map[string]bool{
	"bir": true, "bi": true, "için": true, "ile": true, "ve": true, "veya": true,
	"bana": true, "ben": true, "var": true, "mı": true, "mi": true, "mu": true, "mü": true,
	"arıyorum": true, "istiyorum": true, "lazım": true, "göster": true, "bul": true,
	"ne": true, "kadar": true, "fiyat": true, "fiyatı": true, "fiyatları": true,
	"the": true, "a": true, "for": true,
}

// queryTerms splits a query into meaningful lowercase terms
func queryTerms(query string) []string {
	var terms []string
	for _, f := range strings.FieldsFunc(Normalize(query), func(r rune) bool {
		return strings.ContainsRune(" \t\n,.;:!?'\"()", r)
	}) {
		if utf8.RuneCountInString(f) < 2 || fillers[f] {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}

func haystack(p models.Product) string {
	parts := []string{p.Name, p.Category, p.Description}
	parts = append(parts, p.Tags...)
	parts = append(parts, p.Features...)
	return Normalize(strings.Join(parts, " "))
}

// Search ranks products by how many query terms they contain.
// Products matching no term are dropped; ties keep catalog order.
func Search(products []models.Product, query string) []models.Product {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []models.Product{}
	}

	type hit struct {
		product models.Product
		matches int
	}
	var hits []hit
	for _, p := range products {
		hay := haystack(p)
		n := 0
		for _, term := range terms {
			if strings.Contains(hay, term) {
				n++
			}
		}
		if n > 0 {
			hits = append(hits, hit{product: p, matches: n})
		}
	}
	slices.SortStableFunc(hits, func(a, b hit) int { return b.matches - a.matches })

	out := make([]models.Product, 0, min(len(hits), MaxRecommendations))
	for _, h := range hits {
		if len(out) == MaxRecommendations {
			break
		}
		out = append(out, h.product)
	}
	return out
}

// PriceList answers price questions: featured products matching the query,
// or the cheapest featured products when nothing matches
func PriceList(featured []models.Product, query string) []models.Product {
	if matched := Search(featured, query); len(matched) > 0 {
		return matched
	}
	sorted := slices.Clone(featured)
	slices.SortStableFunc(sorted, func(a, b models.Product) int {
		switch {
		case a.Price < b.Price:
			return -1
		case a.Price > b.Price:
			return 1
		}
		return 0
	})
	if len(sorted) > MaxRecommendations {
		sorted = sorted[:MaxRecommendations]
	}
	return sorted
}

// SearchProductsTool runs a free-text search over the full catalog
type SearchProductsTool struct{}

func (t *SearchProductsTool) Name() string { return "search_products" }

func (t *SearchProductsTool) Description() string {
	return "Search the catalog by name, category, description, tags and features"
}

func (t *SearchProductsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query",
			},
		},
		"required": []string{"query"},
	}
}

type SearchProductsInput struct {
	Query string `json:"query"`
}

type SearchProductsOutput struct {
	Products []models.Product `json:"products"`
}

func (t *SearchProductsTool) Execute(ctx context.Context, input json.RawMessage, view CatalogView) (any, error) {
	var params SearchProductsInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return SearchProductsOutput{Products: Search(view.Products(), params.Query)}, nil
}
