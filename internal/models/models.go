package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Product represents a single catalog entry
type Product struct {
	ID             string   `json:"id" db:"id"`
	Name           string   `json:"name" db:"name"`
	Category       string   `json:"category" db:"category"`
	Description    string   `json:"description" db:"description"`
	Price          float64  `json:"price" db:"price"`
	OriginalPrice  *float64 `json:"original_price,omitempty" db:"original_price"` // set only when discounted
	DiscountRate   *int     `json:"discount_rate,omitempty" db:"discount_rate"`   // percent, authoritative when set
	Rating         float64  `json:"rating" db:"rating"`
	ReviewCount    int      `json:"review_count" db:"review_count"`
	InStock        bool     `json:"in_stock" db:"in_stock"`
	IsFeatured     bool     `json:"is_featured" db:"is_featured"`
	IsFastDelivery bool     `json:"is_fast_delivery" db:"is_fast_delivery"`
	Tags           []string `json:"tags" db:"tags"`
	Features       []string `json:"features" db:"features"`
}

// EffectiveDiscount returns the stored discount rate, or the rate derived
// from the original price when none is stored.
func (p Product) EffectiveDiscount() int {
	if p.DiscountRate != nil {
		return *p.DiscountRate
	}
	if p.OriginalPrice != nil && *p.OriginalPrice > p.Price && *p.OriginalPrice > 0 {
		return int(math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100))
	}
	return 0
}

// IsDiscounted reports whether the product carries any discount
func (p Product) IsDiscounted() bool {
	return p.EffectiveDiscount() > 0
}

// Brand is the first tag by convention
func (p Product) Brand() string {
	if len(p.Tags) == 0 {
		return ""
	}
	return p.Tags[0]
}

// Category is derived display metadata for a product category
type Category struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Count int    `json:"count"`
}

// Role of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message in a session history
type ConversationTurn struct {
	ID         uuid.UUID `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	ProductIDs []string  `json:"product_ids,omitempty"` // attachments on assistant turns
	CreatedAt  time.Time `json:"created_at"`
}

// ScoreResult is the outcome of scoring one product against its peers
type ScoreResult struct {
	ProductID             string   `json:"product_id"`
	NarrativeAnalysis     string   `json:"narrative_analysis"`
	RecommendationVerdict string   `json:"recommendation_verdict"`
	Score                 int      `json:"score"`
	RulesApplied          []string `json:"rules_applied"`
	PeerAveragePrice      *float64 `json:"peer_average_price,omitempty"`
}

// BudgetPlanResult is the outcome of planning purchases within a budget
type BudgetPlanResult struct {
	Message          string    `json:"message"`
	Budget           float64   `json:"budget"`
	SelectedProducts []Product `json:"selected_products"`
	TotalCost        float64   `json:"total_cost"`
	RemainingBudget  float64   `json:"remaining_budget"`
	Suggestions      []string  `json:"suggestions,omitempty"` // only when nothing is affordable
}
