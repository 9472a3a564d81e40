package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/benjamincozon/shopassist/internal/models"
)

// Score rubric
const (
	scoreRatingHigh    = 30
	scoreRatingQuality = 20
	scoreRatingLow     = 10
	scoreCheaperPeers  = 40
	scorePricierPeers  = 15
	scoreDiscount      = 20
	scoreFeatures      = 10

	highRatingFloor    = 4.5
	qualityRatingFloor = 4.0
	featureRichMin     = 3
)

const defaultVerdict = "👌 İhtiyaçlarınıza uyuyorsa değerlendirilebilir bir ürün."

// outcome is what one scoring rule contributes
type outcome struct {
	rule        string
	delta       int
	fragment    string
	verdict     string // overrides earlier verdicts when set
	peerAverage *float64
}

// scoreRule returns false when it does not apply to the product
type scoreRule func(p models.Product, peers []models.Product) (outcome, bool)

// scoreRules run in narrative order; later verdicts win, so the discount
// verdict replaces the price-comparison verdict
var scoreRules = []scoreRule{
	ratingTier,
	priceComparison,
	discountBonus,
	featureRichness,
}

// Score rates a product against its featured peers of the same category.
// The score is the plain sum of the rules that fired and is not clamped.
func Score(product models.Product, featured []models.Product) models.ScoreResult {
	peers := peersOf(product, featured)

	result := models.ScoreResult{
		ProductID:             product.ID,
		RecommendationVerdict: defaultVerdict,
		RulesApplied:          []string{},
	}

	var fragments []string
	for _, rule := range scoreRules {
		out, ok := rule(product, peers)
		if !ok {
			continue
		}
		result.Score += out.delta
		result.RulesApplied = append(result.RulesApplied, out.rule)
		fragments = append(fragments, out.fragment)
		if out.verdict != "" {
			result.RecommendationVerdict = out.verdict
		}
		if out.peerAverage != nil {
			result.PeerAveragePrice = out.peerAverage
		}
	}

	fragments = append(fragments, fmt.Sprintf("📊 **Genel Puan: %d/100**", result.Score))
	result.NarrativeAnalysis = strings.Join(fragments, "\n\n")
	return result
}

func peersOf(product models.Product, featured []models.Product) []models.Product {
	var peers []models.Product
	for _, p := range featured {
		if p.ID != product.ID && p.Category == product.Category {
			peers = append(peers, p)
		}
	}
	return peers
}

func ratingTier(p models.Product, _ []models.Product) (outcome, bool) {
	rating := FormatRating(p.Rating)
	switch {
	case p.Rating >= highRatingFloor:
		return outcome{
			rule:     "rating_high",
			delta:    scoreRatingHigh,
			fragment: fmt.Sprintf("🏆 **Yüksek puanlı ürün!** %s puan ve %d değerlendirme ile kullanıcılar tarafından çok beğeniliyor.", rating, p.ReviewCount),
		}, true
	case p.Rating >= qualityRatingFloor:
		return outcome{
			rule:     "rating_quality",
			delta:    scoreRatingQuality,
			fragment: fmt.Sprintf("👍 **Kaliteli ürün.** %s puan ve %d değerlendirme ile memnuniyet yüksek.", rating, p.ReviewCount),
		}, true
	default:
		return outcome{
			rule:     "rating_low",
			delta:    scoreRatingLow,
			fragment: fmt.Sprintf("🤔 **Orta seviye puan.** %s puan aldı, alternatiflere de göz atmanızı öneririm.", rating),
		}, true
	}
}

func priceComparison(p models.Product, peers []models.Product) (outcome, bool) {
	if len(peers) == 0 {
		return outcome{}, false
	}

	var total float64
	for _, peer := range peers {
		total += peer.Price
	}
	average := total / float64(len(peers))
	savings := average - p.Price

	if savings > 0 {
		return outcome{
			rule:        "price_below_peers",
			delta:       scoreCheaperPeers,
			fragment:    fmt.Sprintf("💰 **Fiyat avantajı:** Benzer ürünlerin ortalamasından %s daha uygun.", FormatPrice(math.Round(savings))),
			verdict:     "✅ Fiyat/performans açısından mantıklı bir seçim!",
			peerAverage: &average,
		}, true
	}
	return outcome{
		rule:        "price_above_peers",
		delta:       scorePricierPeers,
		fragment:    fmt.Sprintf("💸 **Fiyat:** Benzer ürünlerin ortalamasından %s daha pahalı.", FormatPrice(math.Round(math.Abs(savings)))),
		verdict:     "⚖️ Özellikleri sizin için önemliyse fiyatına değebilir.",
		peerAverage: &average,
	}, true
}

func discountBonus(p models.Product, _ []models.Product) (outcome, bool) {
	rate := p.EffectiveDiscount()
	if rate <= 0 {
		return outcome{}, false
	}
	return outcome{
		rule:     "discount",
		delta:    scoreDiscount,
		fragment: fmt.Sprintf("🔥 **İndirim:** Şu anda %%%d indirimli!", rate),
		verdict:  "🎯 İndirimli fiyatıyla kaçırılmayacak bir fırsat!",
	}, true
}

func featureRichness(p models.Product, _ []models.Product) (outcome, bool) {
	if len(p.Features) < featureRichMin {
		return outcome{}, false
	}
	return outcome{
		rule:     "feature_rich",
		delta:    scoreFeatures,
		fragment: "⭐ **Öne çıkan özellikler:** " + strings.Join(p.Features[:featureRichMin], ", "),
	}, true
}

// FindByName returns the first product whose name contains hint
func FindByName(products []models.Product, hint string) (models.Product, bool) {
	hint = Normalize(strings.TrimSpace(hint))
	if hint == "" {
		return models.Product{}, false
	}
	for _, p := range products {
		if strings.Contains(Normalize(p.Name), hint) {
			return p, true
		}
	}
	return models.Product{}, false
}

// AnalyzeProductTool scores a featured product against its peers
type AnalyzeProductTool struct{}

func (t *AnalyzeProductTool) Name() string { return "analyze_product" }

func (t *AnalyzeProductTool) Description() string {
	return "Score a product from 0 to 100 against featured products of the same category and explain the verdict"
}

func (t *AnalyzeProductTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"product_id": map[string]any{
				"type":        "string",
				"description": "Catalog id of the product",
			},
			"name": map[string]any{
				"type":        "string",
				"description": "Part of the product name, used when product_id is empty",
			},
		},
		"required": []string{},
	}
}

type AnalyzeProductInput struct {
	ProductID string `json:"product_id,omitempty"`
	Name      string `json:"name,omitempty"`
}

type AnalyzeProductOutput struct {
	Product models.Product     `json:"product"`
	Score   models.ScoreResult `json:"score"`
}

// ErrNoProductHint is returned when neither id nor name is given
var ErrNoProductHint = errors.New("product_id or name is required")

func (t *AnalyzeProductTool) Execute(ctx context.Context, input json.RawMessage, view CatalogView) (any, error) {
	var params AnalyzeProductInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}

	featured := view.Featured()
	var product models.Product
	switch {
	case params.ProductID != "":
		p, err := view.Get(params.ProductID)
		if err != nil {
			return nil, err
		}
		product = p
	case params.Name != "":
		p, ok := FindByName(featured, params.Name)
		if !ok {
			return nil, fmt.Errorf("no featured product matches %q", params.Name)
		}
		product = p
	default:
		return nil, ErrNoProductHint
	}

	return AnalyzeProductOutput{Product: product, Score: Score(product, featured)}, nil
}
