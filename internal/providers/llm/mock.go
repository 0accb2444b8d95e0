package llm

import (
	"context"
	"strings"

	"github.com/example/desktop-assistant/internal/models"
)

// MockClient is used when no real provider is configured. It answers each
// node's prompt with the safest recognizable output so the engine stays
// runnable offline.
type MockClient struct{}

func (m *MockClient) Complete(ctx context.Context, system string, window []models.Turn) (string, error) {
	s := strings.ToLower(system)
	switch {
	case strings.Contains(s, "classifier"):
		return "chat", nil
	case strings.Contains(s, "workflow planner"):
		return `{"subtask": "done"}`, nil
	case strings.Contains(s, "verifier"):
		return "user: no real model is configured to judge this", nil
	default:
		return "Hi! How can I assist you today?", nil
	}
}
