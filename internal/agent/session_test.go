package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benjamincozon/shopassist/internal/catalog"
	"github.com/benjamincozon/shopassist/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	c *catalog.Catalog
}

func (s staticCatalog) Current() *catalog.Catalog { return s.c }

type panickingCatalog struct{}

func (panickingCatalog) Current() *catalog.Catalog { panic("catalog exploded") }

func embedded(t *testing.T) CatalogProvider {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return staticCatalog{c: c}
}

func TestNewSession_SeededWithGreeting(t *testing.T) {
	s := NewSession(embedded(t))

	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, models.RoleAssistant, h[0].Role)
	assert.Equal(t, GreetingText, h[0].Content)
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_SubmitAppendsTwoTurns(t *testing.T) {
	s := NewSession(embedded(t))
	ctx := context.Background()

	for i, text := range []string{"merhaba", "ne alsam", "kırmızı buzdolabı", "teşekkürler"} {
		s.Submit(ctx, text)
		h := s.History()
		require.Len(t, h, 1+2*(i+1))
		assert.Equal(t, models.RoleUser, h[len(h)-2].Role)
		assert.Equal(t, text, h[len(h)-2].Content)
		assert.Equal(t, models.RoleAssistant, h[len(h)-1].Role)
	}
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_ResetIsIdempotent(t *testing.T) {
	s := NewSession(embedded(t))
	s.Submit(context.Background(), "merhaba")
	s.Submit(context.Background(), "apple öner")

	for range 3 {
		s.Reset()
		h := s.History()
		require.Len(t, h, 1)
		assert.Equal(t, GreetingText, h[0].Content)
	}
}

func TestSession_HistoryIsACopy(t *testing.T) {
	s := NewSession(embedded(t))
	h := s.History()
	h[0].Content = "mutated"
	assert.Equal(t, GreetingText, s.History()[0].Content)
}

func TestSession_AnalysisScenario(t *testing.T) {
	s := NewSession(embedded(t))

	reply := s.Submit(context.Background(), "iPhone 15 analizi")

	assert.Equal(t, IntentProductAnalysis, reply.Intent)
	require.Len(t, reply.Products, 1)
	assert.Equal(t, "p-iphone-15-pro-max", reply.Products[0].ID)
	assert.Contains(t, reply.Text, "iPhone 15 Pro Max")
	assert.Contains(t, reply.Text, "Genel Puan")

	last := s.History()[2]
	assert.Equal(t, []string{"p-iphone-15-pro-max"}, last.ProductIDs)
}

func TestSession_AnalysisUnknownProduct(t *testing.T) {
	s := NewSession(embedded(t))
	reply := s.Submit(context.Background(), "Bu kahve makinesi mantıklı mı")

	assert.Equal(t, IntentProductAnalysis, reply.Intent)
	assert.Equal(t, noProductText, reply.Text)
	assert.NotNil(t, reply.Products)
	assert.Empty(t, reply.Products)
}

func TestSession_NoAffordableProduct(t *testing.T) {
	c, _, err := catalog.New([]models.Product{
		{ID: "tv", Name: "Televizyon", Category: "Ev", Price: 25000, Rating: 4.5, IsFeatured: true},
		{ID: "pc", Name: "Laptop", Category: "Bilgisayar", Price: 40000, Rating: 4.6, IsFeatured: true},
	})
	require.NoError(t, err)
	s := NewSession(staticCatalog{c: c})

	reply := s.Submit(context.Background(), "5000 TL bütçem var")

	assert.Equal(t, IntentBudget, reply.Intent)
	assert.Contains(t, reply.Text, "uygun bir ürün bulamadım")
	assert.NotNil(t, reply.Products)
	assert.Empty(t, reply.Products)
}

func TestSession_BudgetWithoutAmountAsksForOne(t *testing.T) {
	s := NewSession(embedded(t))
	reply := s.Submit(context.Background(), "bütçem kısıtlı")

	assert.Equal(t, IntentBudget, reply.Intent)
	assert.Equal(t, askBudgetText, reply.Text)
	assert.Empty(t, reply.Products)
}

func TestSession_BudgetPlan(t *testing.T) {
	s := NewSession(embedded(t))
	reply := s.Submit(context.Background(), "10.000 TL bütçem var")

	require.NotEmpty(t, reply.Products)
	for _, p := range reply.Products {
		assert.LessOrEqual(t, p.Price, 10000.0)
	}
	assert.Contains(t, reply.Text, "Toplam")
}

func TestSession_BestDiscounts(t *testing.T) {
	s := NewSession(embedded(t))
	reply := s.Submit(context.Background(), "en iyi indirimler")

	assert.Equal(t, IntentRecommendation, reply.Intent)
	var got []string
	for _, p := range reply.Products {
		got = append(got, p.ID)
	}
	assert.Equal(t, []string{"p-nike-air-max-270", "p-airpods-pro-2", "p-galaxy-watch-6", "p-sony-wh1000xm5"}, got)
	assert.Contains(t, reply.Text, "%22 indirim")
}

func TestSession_PriceInquiry(t *testing.T) {
	s := NewSession(embedded(t))

	reply := s.Submit(context.Background(), "dyson fiyatı ne kadar")
	require.Len(t, reply.Products, 1)
	assert.Equal(t, "p-dyson-v15", reply.Products[0].ID)
	assert.Contains(t, reply.Text, "27.999 TL")

	reply = s.Submit(context.Background(), "fiyatlar nasıl")
	require.Len(t, reply.Products, 4)
	assert.Equal(t, "p-nike-air-max-270", reply.Products[0].ID)
}

func TestSession_FreeTextSearch(t *testing.T) {
	s := NewSession(embedded(t))

	reply := s.Submit(context.Background(), "lego")
	require.NotEmpty(t, reply.Products)
	assert.Equal(t, "p-lego-technic-porsche", reply.Products[0].ID)

	reply = s.Submit(context.Background(), "buzdolabı")
	assert.Empty(t, reply.Products)
	assert.Contains(t, reply.Text, "buzdolabı")
}

func TestSession_PanicBecomesApology(t *testing.T) {
	s := NewSession(panickingCatalog{})

	reply := s.Submit(context.Background(), "apple öner")

	assert.Equal(t, FallbackText, reply.Text)
	assert.Equal(t, IntentRecommendation, reply.Intent)
	assert.Empty(t, reply.Products)

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, FallbackText, h[2].Content)
	assert.Equal(t, StateIdle, s.State())

	// still usable afterwards
	s.Submit(context.Background(), "merhaba")
	assert.Len(t, s.History(), 5)
}

func TestSession_MissingSnapshotBecomesApology(t *testing.T) {
	s := NewSession(staticCatalog{})
	reply := s.Submit(context.Background(), "merhaba")
	assert.Equal(t, FallbackText, reply.Text)
	assert.Len(t, s.History(), 3)
}

func TestSession_ConcurrentSubmitsAreSerialized(t *testing.T) {
	s := NewSession(embedded(t))

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Submit(context.Background(), "apple öner")
		}()
	}
	wg.Wait()

	h := s.History()
	require.Len(t, h, 41)
	for i := 1; i < len(h); i += 2 {
		assert.Equal(t, models.RoleUser, h[i].Role)
		assert.Equal(t, models.RoleAssistant, h[i+1].Role)
	}
}

func TestRegistry_Lifecycle(t *testing.T) {
	r := NewRegistry(embedded(t), time.Minute)

	s := r.Create()
	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Delete(s.ID))
	_, err = r.Get(s.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, r.Delete(s.ID), ErrSessionNotFound)
}

func TestRegistry_SweepEvictsIdleSessions(t *testing.T) {
	r := NewRegistry(embedded(t), time.Minute)
	stale := r.Create()
	fresh := r.Create()

	assert.Zero(t, r.Sweep(time.Now()))

	n := r.Sweep(fresh.LastActive().Add(2 * time.Minute))
	assert.Equal(t, 2, n)
	_, err := r.Get(stale.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRegistry_GetKeepsSessionAlive(t *testing.T) {
	r := NewRegistry(embedded(t), time.Minute)
	s := r.Create()
	s.lastActive.Store(time.Now().Add(-time.Hour).UnixNano())

	_, err := r.Get(s.ID)
	require.NoError(t, err)

	assert.Zero(t, r.Sweep(time.Now()))
	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
}

func TestRegistry_ZeroTTLNeverEvicts(t *testing.T) {
	r := NewRegistry(embedded(t), 0)
	r.Create()
	assert.Zero(t, r.Sweep(time.Now().Add(24*time.Hour)))
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	r := NewRegistry(embedded(t), time.Nanosecond)
	r.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
