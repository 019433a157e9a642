package chat

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mirrorhq/infrascene/internal/action"
)

const (
	// DefaultModel is used when the config names none.
	DefaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024

	defaultSystemPrompt = `You are an assistant helping a user explore Los Angeles infrastructure
on an interactive 3D map showing airports, ports and warehouses.

Answer questions about the infrastructure and control the map with the
provided tools. When the user asks to see, find or go somewhere, call
the matching tool. Keep answers short.`
)

// Agent is the built-in chat transport backed by the Anthropic API.
// It defines one tool per map action; tool_use blocks in the model's
// reply become the ordered action list.
type Agent struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	system    string
}

// NewAgent returns an agent transport. Empty model, maxTokens or
// system fall back to package defaults.
func NewAgent(apiKey, model string, maxTokens int, system string) *Agent {
	if model == "" {
		model = DefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if system == "" {
		system = defaultSystemPrompt
	}

	return &Agent{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     anthropic.Model(model),
		maxTokens: int64(maxTokens),
		system:    system,
	}
}

// Send runs one conversation turn against the model.
func (a *Agent) Send(ctx context.Context, message string, history []Message) (*Reply, error) {
	msgs := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		if m.Role == "assistant" {
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(message)))

	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: a.system}},
		Messages:  msgs,
		Tools:     agentTools(),
	})
	if err != nil {
		return nil, err
	}

	reply := &Reply{}
	var text strings.Builder
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		case anthropic.ToolUseBlock:
			reply.Actions = append(reply.Actions, action.Action{
				Tool:  v.Name,
				Input: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	reply.Text = text.String()

	return reply, nil
}

func agentTools() []anthropic.ToolUnionParam {
	number := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "number", "description": desc}
	}
	str := func(desc string) map[string]interface{} {
		return map[string]interface{}{"type": "string", "description": desc}
	}
	location := func(desc string) map[string]interface{} {
		return map[string]interface{}{
			"type":        "object",
			"description": desc,
			"properties": map[string]interface{}{
				"longitude": number("Longitude in degrees"),
				"latitude":  number("Latitude in degrees"),
			},
			"required": []string{"longitude", "latitude"},
		}
	}

	params := []anthropic.ToolParam{
		{
			Name:        "fly_to_location",
			Description: anthropic.String("Move the map camera to a location with a smooth animated transition."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"longitude":  number("Longitude in degrees"),
					"latitude":   number("Latitude in degrees"),
					"zoom":       number("Zoom level 0-22, default 14"),
					"pitch":      number("Camera pitch 0-85 degrees, default 50"),
					"bearing":    number("Camera bearing in degrees, default 0"),
					"durationMs": number("Transition duration in milliseconds, default 2000"),
				},
				Required: []string{"longitude", "latitude"},
			},
		},
		{
			Name:        "filter_infrastructure",
			Description: anthropic.String("Show only the listed infrastructure categories. Categories not listed are hidden."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"types": map[string]interface{}{
						"type":        "array",
						"description": "Categories to show: airports, ports, warehouses",
						"items":       map[string]interface{}{"type": "string"},
					},
				},
				Required: []string{"types"},
			},
		},
		{
			Name:        "highlight_feature",
			Description: anthropic.String("Highlight a named feature and fly the camera to it."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"name": str("Feature name, partial match is fine"),
					"type": str("Category: airport, port or warehouse"),
				},
				Required: []string{"name", "type"},
			},
		},
		{
			Name:        "calculate_route",
			Description: anthropic.String("Compute a driving route between two locations and show it on the map."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"start": location("Route start"),
					"end":   location("Route end"),
				},
				Required: []string{"start", "end"},
			},
		},
		{
			Name:        "find_nearest",
			Description: anthropic.String("Find the closest infrastructure of a category to a location and highlight it."),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: map[string]interface{}{
					"location":            location("Search origin"),
					"infrastructure_type": str("Category: airport, port or warehouse"),
				},
				Required: []string{"location", "infrastructure_type"},
			},
		},
	}

	tools := make([]anthropic.ToolUnionParam, len(params))
	for i := range params {
		tools[i] = anthropic.ToolUnionParam{OfTool: &params[i]}
	}
	return tools
}
