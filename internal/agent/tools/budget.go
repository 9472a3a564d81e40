package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/benjamincozon/shopassist/internal/models"
)

// NoAffordableSuggestions are offered when nothing fits the budget
var NoAffordableSuggestions = []string{
	"Bütçenizi biraz artırmayı düşünebilirsiniz",
	"İkinci el veya yenilenmiş ürünlere göz atabilirsiniz",
	"Daha küçük veya temel modelleri tercih edebilirsiniz",
}

// PlanBudget picks affordable featured products for a budget and totals them.
// RemainingBudget is signed: a negative value means the picks overrun the budget.
func PlanBudget(featured []models.Product, budget float64, preference string) models.BudgetPlanResult {
	candidates := Recommend(featured, preference, &budget)

	if len(candidates) == 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "😔 **%s bütçeyle uygun bir ürün bulamadım.**\n\nŞunları deneyebilirsiniz:\n", FormatPrice(budget))
		for _, s := range NoAffordableSuggestions {
			sb.WriteString("• " + s + "\n")
		}
		return models.BudgetPlanResult{
			Message:          strings.TrimRight(sb.String(), "\n"),
			Budget:           budget,
			SelectedProducts: []models.Product{},
			Suggestions:      NoAffordableSuggestions,
		}
	}

	var total float64
	for _, p := range candidates {
		total += p.Price
	}
	remaining := budget - total

	var sb strings.Builder
	fmt.Fprintf(&sb, "💳 **%s bütçeniz için önerilerim:**\n\n", FormatPrice(budget))
	for i, p := range candidates {
		fmt.Fprintf(&sb, "%d. **%s** - %s\n", i+1, p.Name, FormatPrice(p.Price))
	}
	fmt.Fprintf(&sb, "\n**Toplam:** %s\n**Kalan bütçe:** %s\n\n", FormatPrice(total), FormatPrice(remaining))
	if remaining >= 0 {
		sb.WriteString("✅ Bütçeniz yeterli! Kalan tutarla aksesuar da alabilirsiniz.")
	} else {
		sb.WriteString("⚠️ Seçimler bütçenizi aşıyor. Bazı ürünleri listeden çıkarmayı düşünebilirsiniz.")
	}

	return models.BudgetPlanResult{
		Message:          sb.String(),
		Budget:           budget,
		SelectedProducts: candidates,
		TotalCost:        total,
		RemainingBudget:  remaining,
	}
}

// PlanBudgetTool exposes PlanBudget through the toolbox
type PlanBudgetTool struct{}

func (t *PlanBudgetTool) Name() string { return "plan_budget" }

func (t *PlanBudgetTool) Description() string {
	return "Select up to 4 affordable featured products for a budget and report total cost and remaining budget"
}

func (t *PlanBudgetTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"budget": map[string]any{
				"type":        "number",
				"description": "Budget in TL",
			},
			"preference": map[string]any{
				"type":        "string",
				"description": "Optional free-text preference",
			},
		},
		"required": []string{"budget"},
	}
}

type PlanBudgetInput struct {
	Budget     *float64 `json:"budget"`
	Preference string   `json:"preference,omitempty"`
}

// ErrInvalidBudget is returned for missing or negative budgets
var ErrInvalidBudget = errors.New("budget must be a non-negative number")

func (t *PlanBudgetTool) Execute(ctx context.Context, input json.RawMessage, view CatalogView) (any, error) {
	var params PlanBudgetInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	if params.Budget == nil || *params.Budget < 0 {
		return nil, ErrInvalidBudget
	}
	return PlanBudget(view.Featured(), *params.Budget, params.Preference), nil
}
