package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/easeaico/memsearch/internal/memory"
)

// Handler provides implementations for all knowledge-base tools. Each method
// takes plain arguments so it can run outside an agent.
type Handler struct {
	kb *memory.KnowledgeBase
}

// NewHandler creates a new tool handler over kb.
func NewHandler(kb *memory.KnowledgeBase) *Handler {
	return &Handler{kb: kb}
}

// ToolResult represents the result of a tool execution.
type ToolResult struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleToolCall dispatches and executes a tool call based on its name.
// args are the raw JSON-decoded arguments of the call.
func (h *Handler) HandleToolCall(ctx context.Context, name string, args map[string]any) (string, error) {
	var result ToolResult

	switch name {
	case QueryToolName:
		var in QueryArgs
		result = decodeArgs(args, &in, func() ToolResult { return h.Query(ctx, in) })
	case memory.AddToolName:
		var in AddArgs
		result = decodeArgs(args, &in, func() ToolResult { return h.Add(ctx, in) })
	case SuggestToolName:
		var in SuggestArgs
		result = decodeArgs(args, &in, func() ToolResult { return h.Suggest(in) })
	case ListTagsToolName:
		var in ListTagsArgs
		result = decodeArgs(args, &in, func() ToolResult { return h.ListTags(in) })
	default:
		result = ToolResult{
			Success: false,
			Error:   fmt.Sprintf("unknown tool: %s", name),
		}
	}

	jsonResult, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}

	return string(jsonResult), nil
}

func decodeArgs(args map[string]any, dst any, run func() ToolResult) ToolResult {
	raw, err := json.Marshal(args)
	if err != nil {
		return ToolResult{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return ToolResult{Success: false, Error: fmt.Sprintf("invalid arguments: %v", err)}
	}
	return run()
}

// Query runs a knowledge-base query. Matching entries count as accessed.
func (h *Handler) Query(ctx context.Context, args QueryArgs) ToolResult {
	if args.Query == "" {
		return ToolResult{Success: false, Error: "query is required"}
	}

	results, err := h.kb.Query(ctx, args.Query)
	if err != nil {
		return ToolResult{Success: false, Error: fmt.Sprintf("failed to query knowledge base: %v", err)}
	}
	if len(results) == 0 {
		return ToolResult{Success: true, Data: "No matching entries."}
	}
	return ToolResult{Success: true, Data: results}
}

// Add stores a new entry behind the tag gate.
func (h *Handler) Add(ctx context.Context, args AddArgs) ToolResult {
	if args.Category == "" {
		return ToolResult{Success: false, Error: "category is required"}
	}

	entry := &memory.Entry{
		ID:       args.ID,
		Tags:     args.Tags,
		Context:  args.Context,
		Examples: args.Examples,
		Solution: args.Solution,
	}

	added, suggestions, err := h.kb.AddChecked(ctx, args.Category, entry, args.Force)
	switch {
	case errors.Is(err, memory.ErrTagSuggestions):
		return ToolResult{
			Success: false,
			Data:    suggestions,
			Error:   "similar tags already exist; reuse them or retry with force",
		}
	case err != nil:
		return ToolResult{Success: false, Error: fmt.Sprintf("failed to add entry: %v", err)}
	}

	return ToolResult{Success: true, Data: map[string]any{
		"id":       added.ID,
		"category": args.Category,
	}}
}

// Suggest compares proposed tags against the existing vocabulary.
func (h *Handler) Suggest(args SuggestArgs) ToolResult {
	if len(args.Tags) == 0 {
		return ToolResult{Success: false, Error: "tags is required"}
	}

	suggestions := h.kb.SuggestTags(args.Tags)
	if len(suggestions) == 0 {
		return ToolResult{Success: true, Data: "No similar tags found. Tags look unique."}
	}
	return ToolResult{Success: true, Data: suggestions}
}

// ListTags reports tag usage in one of the tags command views.
func (h *Handler) ListTags(args ListTagsArgs) ToolResult {
	idx := h.kb.Tags()

	switch args.Format {
	case "all":
		return ToolResult{Success: true, Data: idx.All}
	case "counts":
		return ToolResult{Success: true, Data: idx.CountsInOrder()}
	case "category":
		return ToolResult{Success: true, Data: idx.ByCategory}
	default:
		return ToolResult{Success: true, Data: map[string]any{
			"total_unique": idx.TotalUnique,
			"most_used":    idx.MostUsed,
			"by_category":  idx.ByCategory,
		}}
	}
}
