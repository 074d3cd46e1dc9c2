// Package tools defines ADK tool declarations that let an agent read and
// grow the knowledge base.
package tools

import (
	"fmt"

	"github.com/easeaico/memsearch/internal/memory"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// Tool names. add_knowledge lives in the memory package because the memory
// service checks sessions for it.
const (
	QueryToolName    = "query_knowledge"
	SuggestToolName  = "suggest_tags"
	ListTagsToolName = "list_tags"
)

// ToolsConfig holds dependencies for creating tools.
type ToolsConfig struct {
	KB *memory.KnowledgeBase
}

// --- Tool Input Structs ---

// QueryArgs is the input for query_knowledge tool.
type QueryArgs struct {
	Query string `json:"query" jsonschema:"description=Query such as 'tags:auth AND category:patterns' or free text"`
}

// AddArgs is the input for add_knowledge tool.
type AddArgs struct {
	Category string   `json:"category" jsonschema:"description=Category to store the entry under"`
	ID       string   `json:"id,omitempty" jsonschema:"description=Optional entry id; generated when empty"`
	Tags     []string `json:"tags,omitempty" jsonschema:"description=Keywords for later lookup"`
	Context  string   `json:"context,omitempty" jsonschema:"description=The situation or problem"`
	Examples []string `json:"examples,omitempty" jsonschema:"description=Code snippets or commands"`
	Solution string   `json:"solution,omitempty" jsonschema:"description=What solved it"`
	Force    bool     `json:"force,omitempty" jsonschema:"description=Store even when similar tags exist"`
}

// SuggestArgs is the input for suggest_tags tool.
type SuggestArgs struct {
	Tags []string `json:"tags" jsonschema:"description=Proposed tags to compare with existing ones"`
}

// ListTagsArgs is the input for list_tags tool.
type ListTagsArgs struct {
	Format string `json:"format,omitempty" jsonschema:"description=summary, all, counts or category"`
}

// Declaration describes one tool for listings.
type Declaration struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Declarations lists every tool BuildTools creates, in order.
var Declarations = []Declaration{
	{
		Name:        QueryToolName,
		Description: "Search the knowledge base before solving a problem. Supports field:value conditions joined by AND or OR, or plain text.",
	},
	{
		Name:        memory.AddToolName,
		Description: "Store a solved problem in the knowledge base. Fails with tag suggestions when similar tags exist unless force is set.",
	},
	{
		Name:        SuggestToolName,
		Description: "Check proposed tags against existing ones to avoid near-duplicates.",
	},
	{
		Name:        ListTagsToolName,
		Description: "List tags used in the knowledge base with usage counts.",
	},
}

func description(name string) string {
	for _, d := range Declarations {
		if d.Name == name {
			return d.Description
		}
	}
	return ""
}

// --- Tool Constructors ---

func createQueryTool(h *Handler) (tool.Tool, error) {
	handler := func(ctx tool.Context, args QueryArgs) (ToolResult, error) {
		return h.Query(ctx, args), nil
	}

	return functiontool.New(functiontool.Config{
		Name:        QueryToolName,
		Description: description(QueryToolName),
	}, handler)
}

func createAddTool(h *Handler) (tool.Tool, error) {
	handler := func(ctx tool.Context, args AddArgs) (ToolResult, error) {
		return h.Add(ctx, args), nil
	}

	return functiontool.New(functiontool.Config{
		Name:        memory.AddToolName,
		Description: description(memory.AddToolName),
	}, handler)
}

func createSuggestTool(h *Handler) (tool.Tool, error) {
	handler := func(ctx tool.Context, args SuggestArgs) (ToolResult, error) {
		return h.Suggest(args), nil
	}

	return functiontool.New(functiontool.Config{
		Name:        SuggestToolName,
		Description: description(SuggestToolName),
	}, handler)
}

func createListTagsTool(h *Handler) (tool.Tool, error) {
	handler := func(ctx tool.Context, args ListTagsArgs) (ToolResult, error) {
		return h.ListTags(args), nil
	}

	return functiontool.New(functiontool.Config{
		Name:        ListTagsToolName,
		Description: description(ListTagsToolName),
	}, handler)
}

// BuildTools creates all agent tools with the given configuration.
func BuildTools(cfg ToolsConfig) ([]tool.Tool, error) {
	if cfg.KB == nil {
		return nil, fmt.Errorf("knowledge base is required")
	}
	h := NewHandler(cfg.KB)

	constructors := []struct {
		name string
		fn   func(*Handler) (tool.Tool, error)
	}{
		{QueryToolName, createQueryTool},
		{memory.AddToolName, createAddTool},
		{SuggestToolName, createSuggestTool},
		{ListTagsToolName, createListTagsTool},
	}

	var tools []tool.Tool
	for _, c := range constructors {
		t, err := c.fn(h)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s tool: %w", c.name, err)
		}
		tools = append(tools, t)
	}

	return tools, nil
}
