package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/benjamincozon/shopassist/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// CatalogView is the read-only catalog surface tools draw from
type CatalogView interface {
	Products() []models.Product
	Featured() []models.Product
	Get(id string) (models.Product, error)
}

// ErrUnknownTool is returned by Execute for unregistered names
var ErrUnknownTool = errors.New("unknown tool")

// Toolbox holds all available tools
type Toolbox struct {
	tools map[string]Tool
}

// Tool is an executable tool
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, input json.RawMessage, view CatalogView) (any, error)
}

// New creates a Toolbox with every catalog tool registered
func New() *Toolbox {
	tb := &Toolbox{
		tools: make(map[string]Tool),
	}

	tb.Register(&RecommendProductsTool{})
	tb.Register(&AnalyzeProductTool{})
	tb.Register(&PlanBudgetTool{})
	tb.Register(&SearchProductsTool{})

	return tb
}

// Register adds a tool to the toolbox
func (tb *Toolbox) Register(tool Tool) {
	tb.tools[tool.Name()] = tool
}

// Execute runs a tool by name against a catalog snapshot
func (tb *Toolbox) Execute(ctx context.Context, name string, input json.RawMessage, view CatalogView) (any, error) {
	tool, ok := tb.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if len(input) == 0 {
		input = json.RawMessage("{}")
	}
	return tool.Execute(ctx, input, view)
}

// OpenAITools returns the tools in OpenAI format, sorted by name
func (tb *Toolbox) OpenAITools() []openai.Tool {
	names := make([]string, 0, len(tb.tools))
	for name := range tb.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]openai.Tool, 0, len(names))
	for _, name := range names {
		tool := tb.tools[name]
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  tool.Parameters(),
			},
		})
	}
	return result
}
