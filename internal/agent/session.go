package agent

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benjamincozon/shopassist/internal/agent/tools"
	"github.com/benjamincozon/shopassist/internal/catalog"
	"github.com/benjamincozon/shopassist/internal/models"
	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// Canned assistant texts
const (
	GreetingText = "Merhaba! 👋 Ben alışveriş asistanınızım. Bütçenizi söyleyin, ürün önereyim, " +
		"fiyatları sorun ya da bir ürünü analiz edeyim."
	FallbackText = "😔 Üzgünüm, isteğinizi işlerken bir sorun oluştu. Lütfen tekrar dener misiniz?"

	welcomeBackText = "Merhaba! 😊 Size nasıl yardımcı olabilirim? Bütçenizi, aradığınız markayı " +
		"ya da incelemek istediğiniz ürünü yazabilirsiniz."
	gratitudeText   = "Rica ederim! 😊 Başka bir konuda yardımcı olabilirsem buradayım."
	askBudgetText   = "💳 Bütçenizi tutar olarak yazar mısınız? Örneğin: \"15000 TL bütçem var\""
	noMatchText     = "🔍 Kriterlerinize uyan bir ürün bulamadım. Farklı bir marka ya da daha yüksek bir bütçe deneyebilirsiniz."
	noProductText   = "🤔 Analiz etmek istediğiniz ürünü bulamadım. Ürün adını biraz daha açık yazar mısınız?"
	noSearchHitText = "😕 \"%s\" için bir ürün bulamadım. Daha kısa ya da farklı kelimelerle aramayı deneyin."
)

var errNoCatalog = errors.New("no catalog snapshot")

// CatalogProvider hands out the catalog snapshot in effect
type CatalogProvider interface {
	Current() *catalog.Catalog
}

// State of a session
type State int32

const (
	StateIdle State = iota
	StateProcessing
)

func (s State) String() string {
	if s == StateProcessing {
		return "processing"
	}
	return "idle"
}

// Reply is the assistant answer to one submitted message
type Reply struct {
	Text     string           `json:"reply"`
	Products []models.Product `json:"products"`
	Intent   IntentKind       `json:"intent"`
}

// Session is one conversation. Submit calls are serialized; history
// always reflects submission order.
type Session struct {
	ID uuid.UUID

	catalog    CatalogProvider
	state      atomic.Int32
	lastActive atomic.Int64

	mu      sync.Mutex
	history []models.ConversationTurn
}

// NewSession creates an idle session seeded with the greeting turn
func NewSession(provider CatalogProvider) *Session {
	s := &Session{
		ID:      uuid.New(),
		catalog: provider,
		history: []models.ConversationTurn{greetingTurn()},
	}
	s.touch()
	return s
}

// State reports whether a message is being processed
func (s *Session) State() State {
	return State(s.state.Load())
}

// LastActive is the time of the last Submit or Reset
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Submit records the user message, composes a reply and records it.
// Composition failures become one apology turn; history grows by two either way.
func (s *Session) Submit(ctx context.Context, text string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Store(int32(StateProcessing))
	defer s.state.Store(int32(StateIdle))
	s.touch()

	s.history = append(s.history, newTurn(models.RoleUser, text, nil))

	reply, err := s.compose(text)
	if err != nil {
		logx.WithContext(ctx).Errorf("session %s: compose reply: %v", s.ID, err)
		reply = Reply{Text: FallbackText, Products: []models.Product{}, Intent: reply.Intent}
	}

	s.history = append(s.history, newTurn(models.RoleAssistant, reply.Text, reply.Products))
	return reply
}

// Reset drops the conversation and starts over with the greeting
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []models.ConversationTurn{greetingTurn()}
	s.touch()
}

// History returns a copy of the conversation so far
func (s *Session) History() []models.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

func (s *Session) compose(text string) (reply Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	intent := ExtractIntent(text)
	reply.Intent = intent.Kind

	view := s.catalog.Current()
	if view == nil {
		return reply, errNoCatalog
	}

	handle, ok := handlers[intent.Kind]
	if !ok {
		return reply, fmt.Errorf("no handler for intent %q", intent.Kind)
	}
	text, products := handle(view, intent)
	if products == nil {
		products = []models.Product{}
	}
	reply.Text = text
	reply.Products = products
	return reply, nil
}

type intentHandler func(view tools.CatalogView, intent Intent) (string, []models.Product)

var handlers = map[IntentKind]intentHandler{
	IntentGreeting:        func(tools.CatalogView, Intent) (string, []models.Product) { return welcomeBackText, nil },
	IntentGratitude:       func(tools.CatalogView, Intent) (string, []models.Product) { return gratitudeText, nil },
	IntentBudget:          replyBudget,
	IntentRecommendation:  replyRecommendation,
	IntentPriceInquiry:    replyPrices,
	IntentProductAnalysis: replyAnalysis,
	IntentFreeTextSearch:  replySearch,
}

func replyBudget(view tools.CatalogView, intent Intent) (string, []models.Product) {
	if intent.Budget == nil {
		return askBudgetText, nil
	}
	plan := tools.PlanBudget(view.Featured(), *intent.Budget, intent.RawText)
	return plan.Message, plan.SelectedProducts
}

func replyRecommendation(view tools.CatalogView, intent Intent) (string, []models.Product) {
	products := tools.Recommend(view.Featured(), intent.RawText, intent.Budget)
	if len(products) == 0 {
		return noMatchText, nil
	}
	return "✨ **Sizin için seçtiklerim:**\n\n" + productLines(products), products
}

func replyPrices(view tools.CatalogView, intent Intent) (string, []models.Product) {
	products := tools.PriceList(view.Featured(), intent.RawText)
	if len(products) == 0 {
		return noMatchText, nil
	}
	return "🏷️ **Güncel fiyatlar:**\n\n" + productLines(products), products
}

func replyAnalysis(view tools.CatalogView, intent Intent) (string, []models.Product) {
	featured := view.Featured()
	product, ok := tools.FindByName(featured, intent.TargetProductNameHint)
	if !ok {
		return noProductText, nil
	}
	res := tools.Score(product, featured)
	text := fmt.Sprintf("🔍 **%s Analizi**\n\n%s\n\n%s", product.Name, res.NarrativeAnalysis, res.RecommendationVerdict)
	return text, []models.Product{product}
}

func replySearch(view tools.CatalogView, intent Intent) (string, []models.Product) {
	products := tools.Search(view.Products(), intent.RawText)
	if len(products) == 0 {
		return fmt.Sprintf(noSearchHitText, strings.TrimSpace(intent.RawText)), nil
	}
	return "🔍 **Bulduğum ürünler:**\n\n" + productLines(products), products
}

func productLines(products []models.Product) string {
	var sb strings.Builder
	for i, p := range products {
		fmt.Fprintf(&sb, "%d. **%s** - %s", i+1, p.Name, tools.FormatPrice(p.Price))
		if d := p.EffectiveDiscount(); d > 0 {
			fmt.Fprintf(&sb, " (%%%d indirim)", d)
		}
		fmt.Fprintf(&sb, " ⭐ %s\n", tools.FormatRating(p.Rating))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func greetingTurn() models.ConversationTurn {
	return newTurn(models.RoleAssistant, GreetingText, nil)
}

func newTurn(role models.Role, content string, products []models.Product) models.ConversationTurn {
	turn := models.ConversationTurn{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	for _, p := range products {
		turn.ProductIDs = append(turn.ProductIDs, p.ID)
	}
	return turn
}
