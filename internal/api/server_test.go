package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benjamincozon/shopassist/internal/agent"
	"github.com/benjamincozon/shopassist/internal/catalog"
	"github.com/benjamincozon/shopassist/internal/config"
	"github.com/benjamincozon/shopassist/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	c *catalog.Catalog
}

func (s staticCatalog) Current() *catalog.Catalog { return s.c }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	provider := staticCatalog{c: c}
	return NewServer(&config.Config{}, provider, agent.NewRegistry(provider, time.Hour), nil)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type sessionBody struct {
	ID      string                    `json:"id"`
	History []models.ConversationTurn `json:"history"`
}

type replyBody struct {
	Reply    string           `json:"reply"`
	Products []models.Product `json:"products"`
	Intent   string           `json:"intent"`
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[sessionBody](t, rec)
	require.Len(t, created.History, 1)
	assert.Equal(t, agent.GreetingText, created.History[0].Content)
	base := "/api/sessions/" + created.ID

	rec = do(t, s, http.MethodPost, base+"/messages", `{"text":"iPhone 15 analizi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	reply := decode[replyBody](t, rec)
	assert.Equal(t, "product_analysis", reply.Intent)
	require.Len(t, reply.Products, 1)
	assert.Equal(t, "p-iphone-15-pro-max", reply.Products[0].ID)

	rec = do(t, s, http.MethodPost, base+"/messages", `{"text":"kırmızı buzdolabı"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(mustField(t, rec, "products")))

	rec = do(t, s, http.MethodGet, base+"/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[sessionBody](t, rec).History, 5)

	rec = do(t, s, http.MethodPost, base+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[sessionBody](t, rec).History, 1)

	rec = do(t, s, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, base+"/history", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func mustField(t *testing.T, rec *httptest.ResponseRecorder, key string) json.RawMessage {
	t.Helper()
	m := decode[map[string]json.RawMessage](t, rec)
	v, ok := m[key]
	require.True(t, ok, "missing %q in %s", key, rec.Body.String())
	return v
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/sessions/not-a-uuid/history", "").Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, s, http.MethodPost, "/api/sessions/6f1c1f9e-8d3a-4e61-9a51-0c5b0f6f1a11/messages", `{"text":"x"}`).Code)

	id := decode[sessionBody](t, do(t, s, http.MethodPost, "/api/sessions", "")).ID
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/sessions/"+id+"/messages", `{"text":`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/sessions/"+id+"/messages", `{}`).Code)
}

func TestProducts(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[struct{ Data []models.Product }](t, rec).Data

	rec = do(t, s, http.MethodGet, "/api/products?featured=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	featured := decode[struct{ Data []models.Product }](t, rec).Data
	assert.Less(t, len(featured), len(all))
	for _, p := range featured {
		assert.True(t, p.IsFeatured)
	}

	rec = do(t, s, http.MethodGet, "/api/products/p-dyson-v15", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dyson V15 Detect", decode[models.Product](t, rec).Name)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/products/nope", "").Code)
}

func TestScoreAndInsight(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/products/p-airpods-pro-2/score", "")
	require.Equal(t, http.StatusOK, rec.Code)
	score := decode[models.ScoreResult](t, rec)
	assert.Equal(t, "p-airpods-pro-2", score.ProductID)
	assert.Contains(t, score.RulesApplied, "discount")

	rec = do(t, s, http.MethodPost, "/api/products/p-airpods-pro-2/insight", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCategories(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[struct{ Data []models.Category }](t, rec).Data
	require.NotEmpty(t, cats)
	assert.Equal(t, "Telefon", cats[0].Name)
}

func TestRecommendationsAndBudgetPlans(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/recommendations", `{"preference":"samsung","budget":20000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[struct{ Data []models.Product }](t, rec).Data
	require.NotEmpty(t, products)
	for _, p := range products {
		assert.LessOrEqual(t, p.Price, 20000.0)
		assert.Contains(t, p.Name, "Samsung")
	}

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/recommendations", `{"budget":-1}`).Code)

	rec = do(t, s, http.MethodPost, "/api/budget-plans", `{"budget":1000,"preference":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	plan := decode[models.BudgetPlanResult](t, rec)
	assert.Empty(t, plan.SelectedProducts)
	assert.Len(t, plan.Suggestions, 3)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/budget-plans", `{"preference":"apple"}`).Code)
}

func TestTools(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []struct {
			Type     string `json:"type"`
			Function struct {
				Name string `json:"name"`
			} `json:"function"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 4)
	assert.Equal(t, "function", listed.Data[0].Type)
	assert.Equal(t, "analyze_product", listed.Data[0].Function.Name)

	rec = do(t, s, http.MethodPost, "/api/tools/plan_budget", `{"budget":9000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	plan := decode[models.BudgetPlanResult](t, rec)
	assert.NotEmpty(t, plan.SelectedProducts)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/api/tools/nope", `{}`).Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, s, http.MethodPost, "/api/tools/analyze_product", `{"product_id":"nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/tools/plan_budget", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/api/tools/plan_budget", `{"budget":`).Code)
}
