package memory

import (
	"context"
	"fmt"
	"strings"

	adkmemory "google.golang.org/adk/memory"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	// SessionCategory holds entries distilled from agent sessions.
	SessionCategory = "sessions"

	// AddToolName is the agent tool that stores entries explicitly; sessions
	// that called it are not ingested a second time.
	AddToolName = "add_knowledge"

	minResponseLen = 20
	searchLimit    = 10
)

// Service exposes the knowledge base as an ADK memory service.
type Service struct {
	kb *KnowledgeBase
}

// NewService creates a memory service over kb.
func NewService(kb *KnowledgeBase) *Service {
	return &Service{kb: kb}
}

// AddSession implements memory.Service interface.
// The last user question and agent answer become a context/solution entry.
func (s *Service) AddSession(ctx context.Context, sess session.Session) error {
	var userQuery string
	var agentResponse string
	hasExplicitSave := false

	for event := range sess.Events().All() {
		if event.Content == nil {
			continue
		}

		text := strings.Join(extractTextFromContent([]*genai.Content{event.Content}), " ")
		if text != "" {
			if event.Author == "user" {
				userQuery = text
			} else {
				agentResponse = text
			}
		}

		for _, part := range event.Content.Parts {
			if part.FunctionCall != nil && part.FunctionCall.Name == AddToolName {
				hasExplicitSave = true
				break
			}
		}
	}

	if hasExplicitSave {
		return nil
	}

	if userQuery == "" || len(agentResponse) <= minResponseLen {
		return nil
	}

	entry := &Entry{
		Context:  userQuery,
		Solution: agentResponse,
	}
	if _, err := s.kb.Add(ctx, SessionCategory, entry); err != nil {
		return fmt.Errorf("failed to save session to memory: %w", err)
	}
	return nil
}

// Search implements memory.Service interface.
// The request query uses the same syntax as the query command.
func (s *Service) Search(ctx context.Context, req *adkmemory.SearchRequest) (*adkmemory.SearchResponse, error) {
	results, err := s.kb.Query(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge base: %w", err)
	}

	memories := make([]adkmemory.Entry, 0, min(len(results), searchLimit))
	for _, r := range results {
		if len(memories) == searchLimit {
			break
		}

		content := describeEntry(r)
		if content == "" {
			continue
		}

		// genai.Text returns []*Content, we need the first one
		contentParts := genai.Text(content)
		if len(contentParts) == 0 {
			continue
		}

		memories = append(memories, adkmemory.Entry{
			Content:   contentParts[0],
			Author:    "system",
			Timestamp: r.Entry.Created,
		})
	}

	return &adkmemory.SearchResponse{Memories: memories}, nil
}

func describeEntry(r QueryResult) string {
	var parts []string
	if r.Entry.Context != "" {
		parts = append(parts, "Context: "+r.Entry.Context)
	}
	if r.Entry.Solution != "" {
		parts = append(parts, "Solution: "+r.Entry.Solution)
	}
	if len(r.Entry.Examples) > 0 {
		parts = append(parts, "Examples: "+strings.Join(r.Entry.Examples, "; "))
	}
	if len(parts) == 0 {
		return ""
	}
	header := fmt.Sprintf("[%s/%s]", r.Category, r.Entry.ID)
	if len(r.Entry.Tags) > 0 {
		header += " tags: " + strings.Join(r.Entry.Tags, ", ")
	}
	return header + "\n" + strings.Join(parts, "\n")
}

// extractTextFromContent extracts text from genai.Content parts
func extractTextFromContent(content []*genai.Content) []string {
	var texts []string
	for _, c := range content {
		for _, part := range c.Parts {
			if text := part.Text; text != "" {
				texts = append(texts, text)
			}
		}
	}
	return texts
}

var _ adkmemory.Service = (*Service)(nil)
