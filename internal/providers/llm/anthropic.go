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

type AnthropicClient struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

func (c *AnthropicClient) Complete(ctx context.Context, system string, window []models.Turn) (string, error) {
	msgs := make([]map[string]any, 0, len(window))
	for _, t := range window {
		role := "user"
		if t.Role == models.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, map[string]any{
			"role":    role,
			"content": []map[string]string{{"type": "text", "text": renderTurn(t)}},
		})
	}
	if len(msgs) == 0 {
		msgs = append(msgs, map[string]any{
			"role":    "user",
			"content": []map[string]string{{"type": "text", "text": "(empty)"}},
		})
	}
	body := map[string]any{
		"model":      c.Model,
		"max_tokens": 1024,
		"system":     system,
		"messages":   msgs,
	}
	var resp struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := c.postJSON(ctx, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", errors.New("anthropic: no content")
	}
	return resp.Content[0].Text, nil
}

func (c *AnthropicClient) postJSON(ctx context.Context, body any, out any) error {
	ctx, cancel := withDeadline(ctx, c.Timeout)
	defer cancel()
	b, _ := json.Marshal(body)
	url := os.Getenv("ANTHROPIC_API_URL")
	if url == "" {
		url = "https://api.anthropic.com/v1/messages"
	}
	httpClient := &http.Client{}
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		// fresh request per attempt; a clone would share the consumed body
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
		if err != nil {
			return err
		}
		req.Header.Set("x-api-key", c.APIKey)
		req.Header.Set("anthropic-version", "2023-06-01")
		req.Header.Set("content-type", "application/json")
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
		lastErr = fmt.Errorf("%w: anthropic status %d: %v", ErrUnavailable, res.StatusCode, eresp)
		if res.StatusCode == 408 || res.StatusCode == 429 || (res.StatusCode >= 500 && res.StatusCode <= 599) {
			time.Sleep(backoff(attempt))
			continue
		}
		return lastErr
	}
	return lastErr
}
