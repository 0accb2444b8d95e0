package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/example/desktop-assistant/internal/models"
)

type OpenAIClient struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

func (c *OpenAIClient) Complete(ctx context.Context, system string, window []models.Turn) (string, error) {
	msgs := []map[string]string{{"role": "system", "content": system}}
	for _, t := range window {
		msgs = append(msgs, map[string]string{"role": chatRole(t.Role), "content": renderTurn(t)})
	}
	body := map[string]any{
		"model":       c.Model,
		"messages":    msgs,
		"temperature": 0.2,
	}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.postJSON(ctx, c.endpoint("/v1/chat/completions"), body, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) postJSON(ctx context.Context, url string, body any, out any) error {
	ctx, cancel := withDeadline(ctx, c.Timeout)
	defer cancel()
	b, _ := json.Marshal(body)
	httpClient := &http.Client{}
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		// fresh request per attempt; a clone would share the consumed body
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
		req.Header.Set("Content-Type", "application/json")
		res, err := httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			if isTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
				return lastErr
			}
			time.Sleep(backoff(attempt))
			continue
		}
		if res.StatusCode >= 200 && res.StatusCode < 300 {
			err := json.NewDecoder(res.Body).Decode(out)
			res.Body.Close()
			return err
		}
		var eresp map[string]any
		_ = json.NewDecoder(res.Body).Decode(&eresp)
		res.Body.Close()
		lastErr = fmt.Errorf("%w: openai status %d: %v", ErrUnavailable, res.StatusCode, eresp)
		if res.StatusCode == 408 || res.StatusCode == 429 || (res.StatusCode >= 500 && res.StatusCode <= 599) {
			time.Sleep(backoff(attempt))
			continue
		}
		return lastErr
	}
	return lastErr
}

func (c *OpenAIClient) endpoint(path string) string {
	base := c.BaseURL
	if base == "" {
		base = os.Getenv("OPENAI_API_BASE")
	}
	if base == "" {
		base = "https://api.openai.com"
	}
	return base + path
}

func chatRole(r models.Role) string {
	switch r {
	case models.RoleAssistant:
		return "assistant"
	case models.RoleSystem:
		return "system"
	default:
		// Tool turns ride as user content; the engine renders the result
		// text itself rather than relying on provider tool-call plumbing.
		return "user"
	}
}

// renderTurn flattens a turn to plain text, labeling tool traffic so the
// model can tell results from requests.
func renderTurn(t models.Turn) string {
	switch t.Role {
	case models.RoleTool:
		return "[tool result] " + t.Content
	case models.RoleAssistant:
		if len(t.ToolCalls) > 0 {
			b, _ := json.Marshal(t.ToolCalls)
			if t.Content == "" {
				return "[tool calls] " + string(b)
			}
			return t.Content + "\n[tool calls] " + string(b)
		}
	}
	return t.Content
}

func withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 45 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	var te timeout
	if errors.As(err, &te) {
		return te.Timeout()
	}
	return false
}

func backoff(i int) time.Duration {
	return time.Duration(500*(1<<i)) * time.Millisecond
}
