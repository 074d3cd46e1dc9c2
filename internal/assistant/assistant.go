// Package assistant wires the knowledge base into an ADK LLM agent.
package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/easeaico/memsearch/internal/memory"
	"github.com/easeaico/memsearch/internal/tools"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/cmd/launcher"
	"google.golang.org/adk/cmd/launcher/console"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// ErrConsoleOnly is returned by Run for arguments naming anything other than
// the console launcher.
var ErrConsoleOnly = errors.New("only the console launcher is supported")

// Config holds what the agent needs.
type Config struct {
	APIKey string
	Model  string
	KB     *memory.KnowledgeBase
}

// New creates the LLM agent with the knowledge-base tools attached.
func New(ctx context.Context, cfg Config) (agent.Agent, error) {
	agentTools, err := tools.BuildTools(tools.ToolsConfig{KB: cfg.KB})
	if err != nil {
		return nil, fmt.Errorf("failed to build tools: %w", err)
	}

	// Create LLM model using ADK's gemini wrapper
	llmModel, err := gemini.NewModel(ctx, cfg.Model, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM model: %w", err)
	}

	llmAgent, err := llmagent.New(llmagent.Config{
		Name:        "memsearch",
		Description: "Looks up and records development knowledge in the local knowledge base",
		Model:       llmModel,
		Instruction: BuildInstruction(cfg.KB.Tags()),
		Tools:       agentTools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}
	return llmAgent, nil
}

// Run chats with the agent in the terminal. args are console launcher flags,
// optionally preceded by the "console" keyword; any other launcher (web, api)
// is refused since the knowledge base file has a single writer. The
// knowledge base doubles as the agent's memory service.
func Run(ctx context.Context, a agent.Agent, kb *memory.KnowledgeBase, args []string) error {
	l := console.NewLauncher()
	if len(args) > 0 && args[0] == l.Keyword() {
		args = args[1:]
	}

	rest, err := l.Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse agent arguments: %w\n\n%s", err, l.CommandLineSyntax())
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: %s", ErrConsoleOnly, strings.Join(rest, " "))
	}

	config := &launcher.Config{
		AgentLoader:   agent.NewSingleLoader(a),
		MemoryService: memory.NewService(kb),
	}
	if err := l.Run(ctx, config); err != nil {
		return fmt.Errorf("failed to run agent: %w", err)
	}
	return nil
}

var instructionTmpl = template.Must(template.New("instruction").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`
You are a senior engineer's assistant with a long-term knowledge base of
patterns, solutions and context notes, each filed under a category and
tagged with keywords.

You can:
1. Search the knowledge base with query_knowledge, e.g. "tags:auth AND category:patterns" or plain text
2. Check proposed tags with suggest_tags and list existing ones with list_tags
3. Record a solved problem with add_knowledge

{{- if .HasTags }}

The most used tags are:
{{- range $idx, $tc := .Tags }}
{{ inc $idx }}. {{ $tc.Tag }} ({{ $tc.Count }} entries)
{{- end }}
Prefer these over new near-duplicates.
{{- end }}

When answering:
- Search the knowledge base before proposing a solution
- After solving something new, store it with add_knowledge
- If add_knowledge reports similar tags, reuse the existing ones unless they really mean something else
`))

// BuildInstruction renders the system instruction with the most used tags.
func BuildInstruction(idx *memory.TagIndex) string {
	data := struct {
		Tags    []memory.TagCount
		HasTags bool
	}{
		Tags:    idx.MostUsed,
		HasTags: len(idx.MostUsed) > 0,
	}

	var buf bytes.Buffer
	_ = instructionTmpl.Execute(&buf, data)
	return buf.String()
}
