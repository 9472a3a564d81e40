package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/benjamincozon/shopassist/internal/agent"
	"github.com/benjamincozon/shopassist/internal/agent/tools"
	"github.com/benjamincozon/shopassist/internal/catalog"
	"github.com/benjamincozon/shopassist/internal/insight"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/zeromicro/go-zero/core/logx"
)

type Handlers struct {
	catalogs agent.CatalogProvider
	sessions *agent.Registry
	toolbox  *tools.Toolbox
	insight  *insight.Writer
}

// NewHandlers wires the HTTP handlers. writer may be nil when insights are disabled.
func NewHandlers(catalogs agent.CatalogProvider, sessions *agent.Registry, toolbox *tools.Toolbox, writer *insight.Writer) *Handlers {
	return &Handlers{
		catalogs: catalogs,
		sessions: sessions,
		toolbox:  toolbox,
		insight:  writer,
	}
}

func (h *Handlers) snapshot() (*catalog.Catalog, error) {
	c := h.catalogs.Current()
	if c == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "Catalog not loaded")
	}
	return c, nil
}

func (h *Handlers) session(c echo.Context) (*agent.Session, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid session ID")
	}
	s, err := h.sessions.Get(id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}
	return s, nil
}

// CreateSession starts a conversation
func (h *Handlers) CreateSession(c echo.Context) error {
	s := h.sessions.Create()
	return c.JSON(http.StatusCreated, map[string]any{
		"id":      s.ID,
		"history": s.History(),
	})
}

// GetHistory returns the conversation so far
func (h *Handlers) GetHistory(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"history": s.History()})
}

// SubmitMessage sends one user message and returns the assistant reply
func (h *Handlers) SubmitMessage(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	var req struct {
		Text *string `json:"text"`
	}
	if err := c.Bind(&req); err != nil || req.Text == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}

	reply := s.Submit(c.Request().Context(), *req.Text)
	return c.JSON(http.StatusOK, reply)
}

// ResetSession clears a conversation back to the greeting
func (h *Handlers) ResetSession(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.Reset()
	return c.JSON(http.StatusOK, map[string]any{
		"id":      s.ID,
		"history": s.History(),
	})
}

// DeleteSession drops a conversation
func (h *Handlers) DeleteSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid session ID")
	}
	if err := h.sessions.Delete(id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Session not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListProducts returns the catalog, or only featured products with ?featured=true
func (h *Handlers) ListProducts(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	products := snap.Products()
	if c.QueryParam("featured") == "true" {
		products = snap.Featured()
	}
	return c.JSON(http.StatusOK, map[string]any{"data": products})
}

// GetProduct returns a single product
func (h *Handlers) GetProduct(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	product, err := snap.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	return c.JSON(http.StatusOK, product)
}

// ScoreProduct scores a product against its featured peers
func (h *Handlers) ScoreProduct(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	product, err := snap.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}
	return c.JSON(http.StatusOK, tools.Score(product, snap.Featured()))
}

// ProductInsight writes a model summary for a product
func (h *Handlers) ProductInsight(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	product, err := snap.Get(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	}

	ctx := c.Request().Context()
	out, err := h.insight.Summarize(ctx, product, tools.Score(product, snap.Featured()))
	if errors.Is(err, insight.ErrDisabled) {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Insights are disabled")
	}
	if err != nil {
		logx.WithContext(ctx).Errorf("insight for %s: %v", product.ID, err)
		return echo.NewHTTPError(http.StatusBadGateway, "Failed to generate insight")
	}
	return c.JSON(http.StatusOK, out)
}

// ListCategories returns category metadata
func (h *Handlers) ListCategories(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"data": snap.Categories()})
}

// Recommend runs the filter and ranker over the featured products
func (h *Handlers) Recommend(c echo.Context) error {
	var req struct {
		Preference string   `json:"preference"`
		Budget     *float64 `json:"budget,omitempty"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if req.Budget != nil && *req.Budget < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Budget must not be negative")
	}

	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	products := tools.Recommend(snap.Featured(), req.Preference, req.Budget)
	return c.JSON(http.StatusOK, map[string]any{"data": products})
}

// PlanBudget selects affordable products for a budget
func (h *Handlers) PlanBudget(c echo.Context) error {
	var req struct {
		Budget     *float64 `json:"budget"`
		Preference string   `json:"preference"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if req.Budget == nil || *req.Budget < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Budget must be a non-negative number")
	}

	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tools.PlanBudget(snap.Featured(), *req.Budget, req.Preference))
}

// ListTools returns the tool definitions in OpenAI function format
func (h *Handlers) ListTools(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"data": h.toolbox.OpenAITools()})
}

// ExecuteTool runs a named tool with the request body as input
func (h *Handlers) ExecuteTool(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request")
	}
	if len(body) > 0 && !json.Valid(body) {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON")
	}

	snap, err := h.snapshot()
	if err != nil {
		return err
	}

	out, err := h.toolbox.Execute(c.Request().Context(), c.Param("name"), body, snap)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		return echo.NewHTTPError(http.StatusNotFound, "Tool not found")
	case errors.Is(err, catalog.ErrProductNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Product not found")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, out)
}
