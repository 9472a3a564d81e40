package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/benjamincozon/shopassist/internal/models"
)

// MaxRecommendations caps every recommendation list
const MaxRecommendations = 4

// Thresholds used by the economy and premium stages
const (
	EconomyPriceCeiling = 20000
	PremiumMinRating    = 4.7
	PremiumPriceFloor   = 30000
)

// filterStage narrows candidates when the preference text mentions one of its keywords
type filterStage struct {
	name     string
	keywords []string
	apply    func([]models.Product) []models.Product
}

var (
	appleTerms      = []string{"iphone", "apple", "macbook", "airpods", "ipad", "watch"}
	samsungTerms    = []string{"samsung", "galaxy"}
	sportswearTerms = []string{"nike", "adidas"}
)

// recommendStages run in this exact order; each one works on the output of the previous
var recommendStages = []filterStage{
	{name: "apple", keywords: appleTerms, apply: nameContainsAny(appleTerms)},
	{name: "samsung", keywords: samsungTerms, apply: nameContainsAny(samsungTerms)},
	{name: "sportswear", keywords: sportswearTerms, apply: nameContainsAny(sportswearTerms)},
	{
		name:     "economy",
		keywords: []string{"ucuz", "ekonomik", "bütçe"},
		apply: keep(func(p models.Product) bool {
			return p.IsDiscounted() || p.Price < EconomyPriceCeiling
		}),
	},
	{
		name:     "premium",
		keywords: []string{"yüksek", "premium", "kaliteli"},
		apply: keep(func(p models.Product) bool {
			return p.Rating >= PremiumMinRating && p.Price > PremiumPriceFloor
		}),
	},
	{name: "discount", keywords: []string{"indirim", "fırsat"}, apply: byDiscount},
}

// Recommend narrows the featured pool by budget and preference keywords and
// returns at most MaxRecommendations products. An empty result is valid.
func Recommend(featured []models.Product, preference string, budget *float64) []models.Product {
	text := Normalize(preference)
	candidates := append(make([]models.Product, 0, len(featured)), featured...)

	if budget != nil {
		ceiling := *budget
		candidates = keep(func(p models.Product) bool { return p.Price <= ceiling })(candidates)
	}

	for _, stage := range recommendStages {
		if ContainsAny(text, stage.keywords...) {
			candidates = stage.apply(candidates)
		}
	}

	if len(candidates) > MaxRecommendations {
		candidates = candidates[:MaxRecommendations]
	}
	return candidates
}

func keep(pred func(models.Product) bool) func([]models.Product) []models.Product {
	return func(in []models.Product) []models.Product {
		out := make([]models.Product, 0, len(in))
		for _, p := range in {
			if pred(p) {
				out = append(out, p)
			}
		}
		return out
	}
}

func nameContainsAny(terms []string) func([]models.Product) []models.Product {
	return keep(func(p models.Product) bool {
		return ContainsAny(Normalize(p.Name), terms...)
	})
}

// byDiscount keeps discounted products, highest rate first; ties keep catalog order
func byDiscount(in []models.Product) []models.Product {
	out := keep(models.Product.IsDiscounted)(in)
	slices.SortStableFunc(out, func(a, b models.Product) int {
		return b.EffectiveDiscount() - a.EffectiveDiscount()
	})
	return out
}

// RecommendProductsTool exposes Recommend through the toolbox
type RecommendProductsTool struct{}

func (t *RecommendProductsTool) Name() string { return "recommend_products" }

func (t *RecommendProductsTool) Description() string {
	return "Recommend up to 4 featured products matching a free-text preference and an optional budget ceiling"
}

func (t *RecommendProductsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"preference": map[string]any{
				"type":        "string",
				"description": "Free-text preference, e.g. 'indirimli apple ürünleri'",
			},
			"budget": map[string]any{
				"type":        "number",
				"description": "Optional price ceiling in TL",
			},
		},
		"required": []string{"preference"},
	}
}

type RecommendProductsInput struct {
	Preference string   `json:"preference"`
	Budget     *float64 `json:"budget,omitempty"`
}

type RecommendProductsOutput struct {
	Products []models.Product `json:"products"`
}

func (t *RecommendProductsTool) Execute(ctx context.Context, input json.RawMessage, view CatalogView) (any, error) {
	var params RecommendProductsInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return RecommendProductsOutput{Products: Recommend(view.Featured(), params.Preference, params.Budget)}, nil
}
