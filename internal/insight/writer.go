// Package insight writes short shopper-facing summaries of scored products
// with a chat completion model.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/benjamincozon/shopassist/internal/agent/tools"
	"github.com/benjamincozon/shopassist/internal/config"
	"github.com/benjamincozon/shopassist/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// ErrDisabled is returned when no API key is configured
var ErrDisabled = errors.New("insight writer disabled")

// Writer turns a product and its score into a summary.
// It may only restate facts it is given.
type Writer struct {
	client *openai.Client
	model  string
}

// Insight is the generated summary
type Insight struct {
	ProductID  string   `json:"product_id"`
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights"`
	Caveat     string   `json:"caveat,omitempty"`
	Model      string   `json:"model"`
	TokensUsed int      `json:"tokens_used"`
}

// New returns a Writer, or nil when the writer is disabled
func New(cfg *config.Config) *Writer {
	if !cfg.InsightEnabled() {
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.OpenAI.APIKey)
	if cfg.OpenAI.BaseURL != "" {
		clientCfg.BaseURL = cfg.OpenAI.BaseURL
	}
	return &Writer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.OpenAI.Model,
	}
}

type facts struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Price       string   `json:"price"`
	Discount    int      `json:"discount_percent,omitempty"`
	Rating      string   `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Features    []string `json:"features,omitempty"`
	Score       int      `json:"score"`
	Verdict     string   `json:"verdict"`
	Rules       []string `json:"rules_applied"`
}

// Summarize asks the model for a summary of product. A nil Writer returns ErrDisabled.
func (w *Writer) Summarize(ctx context.Context, product models.Product, score models.ScoreResult) (*Insight, error) {
	if w == nil {
		return nil, ErrDisabled
	}

	factsJSON, _ := json.MarshalIndent(facts{
		Name:        product.Name,
		Category:    product.Category,
		Price:       tools.FormatPrice(product.Price),
		Discount:    product.EffectiveDiscount(),
		Rating:      tools.FormatRating(product.Rating),
		ReviewCount: product.ReviewCount,
		Features:    product.Features,
		Score:       score.Score,
		Verdict:     score.RecommendationVerdict,
		Rules:       score.RulesApplied,
	}, "", "  ")

	prompt := fmt.Sprintf(`Sen bir alışveriş asistanısın. Aşağıdaki ürün için Türkçe, kısa bir değerlendirme yaz.

KURALLAR:
- YALNIZCA verilen bilgileri kullan, yeni özellik uydurma
- Fiyatları olduğu gibi yaz
- En fazla 3 öne çıkan nokta

ÜRÜN BİLGİLERİ:
%s

ÇIKTI (yalnızca JSON):
{
  "summary": "2-3 cümlelik değerlendirme",
  "highlights": ["öne çıkan nokta"],
  "caveat": "varsa dikkat edilmesi gereken nokta"
}`, string(factsJSON))

	resp, err := w.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: w.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("insight call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("insight call returned no choices")
	}

	var out Insight
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("parse insight output: %w", err)
	}
	if len(out.Highlights) > 3 {
		out.Highlights = out.Highlights[:3]
	}
	out.ProductID = product.ID
	out.Model = resp.Model
	out.TokensUsed = resp.Usage.TotalTokens
	return &out, nil
}
