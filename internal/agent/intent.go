package agent

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/benjamincozon/shopassist/internal/agent/tools"
)

// IntentKind classifies a user message
type IntentKind string

const (
	IntentGreeting        IntentKind = "greeting"
	IntentBudget          IntentKind = "budget_statement"
	IntentRecommendation  IntentKind = "recommendation_request"
	IntentPriceInquiry    IntentKind = "price_inquiry"
	IntentProductAnalysis IntentKind = "product_analysis"
	IntentGratitude       IntentKind = "gratitude"
	IntentFreeTextSearch  IntentKind = "free_text_search"
)

// Intent is the structured reading of one user message
type Intent struct {
	Kind    IntentKind `json:"kind"`
	RawText string     `json:"raw_text"`
	// Budget is set when the text holds an amount followed by a currency token
	Budget                *float64 `json:"budget,omitempty"`
	TargetProductNameHint string   `json:"target_product_name_hint,omitempty"`
}

// budgetPattern takes an amount with optional thousands groups and an
// optional 1-2 digit fraction; the fraction is dropped. A match never
// starts in the middle of a number.
var budgetPattern = regexp.MustCompile(`(?i)(?:^|[^\d.,])(\d+(?:[.,]\d{3})*)(?:[.,]\d{1,2})?\s*(tl|try|₺|lira)`)

// analysisNames are scanned in order for a product name hint
var analysisNames = []string{
	"iphone", "samsung", "galaxy", "macbook", "airpods", "ipad", "watch",
	"nike", "adidas", "sony", "dyson", "xiaomi", "playstation", "lego",
}

// intentRule matches a normalized message; rules are evaluated in order and the first match wins
type intentRule struct {
	kind  IntentKind
	match func(text string, budget *float64) bool
}

func anyOf(keywords ...string) func(string, *float64) bool {
	return func(text string, _ *float64) bool {
		return tools.ContainsAny(text, keywords...)
	}
}

var intentRules = []intentRule{
	{IntentGreeting, func(text string, budget *float64) bool {
		return anyOf("merhaba", "selam", "günaydın", "iyi akşamlar", "hello")(text, budget) || hasWord(text, "hey")
	}},
	{IntentBudget, func(text string, budget *float64) bool {
		return budget != nil || strings.Contains(text, "bütçe")
	}},
	{IntentRecommendation, anyOf("öner", "tavsiye", "en iyi", "ne alsam", "ne alayım")},
	{IntentPriceInquiry, anyOf("fiyat", "kaç para", "ne kadar", "kaça")},
	{IntentProductAnalysis, anyOf("analiz", "incele", "değerlendir", "mantıklı mı")},
	{IntentGratitude, anyOf("teşekkür", "sağol", "sağ ol", "eyvallah", "thanks")},
}

// ExtractIntent reads a raw message. It never fails; unmatched text is a free-text search.
func ExtractIntent(text string) Intent {
	normalized := tools.Normalize(text)
	intent := Intent{
		Kind:    IntentFreeTextSearch,
		RawText: text,
		Budget:  extractBudget(normalized),
	}

	for _, rule := range intentRules {
		if rule.match(normalized, intent.Budget) {
			intent.Kind = rule.kind
			break
		}
	}

	if intent.Kind == IntentProductAnalysis {
		intent.TargetProductNameHint = nameHint(normalized)
	}
	return intent
}

// hasWord reports whether word appears as a whole token, so "hey" does not match "heyecanlı"
func hasWord(text, word string) bool {
	return slices.Contains(strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), word)
}

func extractBudget(text string) *float64 {
	m := budgetPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	digits := strings.NewReplacer(".", "", ",", "").Replace(m[1])
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return nil
	}
	v := float64(n)
	return &v
}

func nameHint(text string) string {
	for _, name := range analysisNames {
		if strings.Contains(text, name) {
			return name
		}
	}
	fields := strings.Fields(text)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}
