package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/example/desktop-assistant/internal/models"
)

type GeminiClient struct {
	model   *genai.GenerativeModel
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiClient, error) {
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &GeminiClient{model: c.GenerativeModel(model), timeout: timeout}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, system string, window []models.Turn) (string, error) {
	ctx, cancel := withDeadline(ctx, g.timeout)
	defer cancel()
	// Gemini takes a flat prompt here; the system instruction and the
	// rendered window are concatenated the same way for every node.
	var b strings.Builder
	b.WriteString(system)
	for _, t := range window {
		b.WriteString("\n\n")
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(renderTurn(t))
	}
	resp, err := g.model.GenerateContent(ctx, genai.Text(b.String()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return firstText(resp), nil
}

func firstText(r *genai.GenerateContentResponse) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Candidates {
		if c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}
