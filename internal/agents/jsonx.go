package agents

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/example/desktop-assistant/internal/models"
)

// Small models fence, wrap and mislabel their JSON in creative ways; these
// helpers repair the common shapes before giving up.

func stripCodeFences(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		t = strings.TrimPrefix(t, "```")
		if idx := strings.IndexByte(t, '\n'); idx != -1 {
			// drop a language hint like "json" or "go"
			t = t[idx+1:]
		}
		if j := strings.LastIndex(t, "```"); j != -1 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	return t
}

// extractJSONObject returns the first balanced top-level {...} in s.
func extractJSONObject(s string) string {
	return extractBalanced(s, '{', '}')
}

// extractJSONArray returns the first balanced top-level [...] in s.
func extractJSONArray(s string) string {
	return extractBalanced(s, '[', ']')
}

func extractBalanced(s string, open, close byte) string {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}
	depth := 0
	inStr := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inStr {
			if c == '\\' {
				i++
			} else if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

type rawToolCall struct {
	Name      string         `json:"name"`
	Args      map[string]any `json:"args"`
	Arguments map[string]any `json:"arguments"`
}

func (r rawToolCall) toCall() models.ToolCall {
	args := r.Args
	if args == nil {
		args = r.Arguments
	}
	if args == nil {
		args = map[string]any{}
	}
	return models.ToolCall{ID: uuid.NewString(), Name: r.Name, Args: args}
}

// parseToolCalls normalizes free-text completion output into tool calls.
// Accepted shapes: {"name":..,"args":..}, a list of those, or a
// {"functools":[...]} wrapper, each optionally inside code fences.
func parseToolCalls(content string) []models.ToolCall {
	text := stripCodeFences(content)
	var raws []rawToolCall

	switch {
	case strings.HasPrefix(text, "["):
		if err := json.Unmarshal([]byte(text), &raws); err != nil {
			raws = nil
		}
	case strings.HasPrefix(text, "{"):
		var wrapper struct {
			Functools []rawToolCall `json:"functools"`
		}
		if err := json.Unmarshal([]byte(text), &wrapper); err == nil && len(wrapper.Functools) > 0 {
			raws = wrapper.Functools
			break
		}
		var one rawToolCall
		if err := json.Unmarshal([]byte(text), &one); err == nil && one.Name != "" {
			raws = []rawToolCall{one}
		}
	default:
		// prose around the JSON; dig out the first object or array
		if arr := extractJSONArray(text); arr != "" {
			if err := json.Unmarshal([]byte(arr), &raws); err != nil {
				raws = nil
			}
		}
		if len(raws) == 0 {
			if obj := extractJSONObject(text); obj != "" {
				var one rawToolCall
				if err := json.Unmarshal([]byte(obj), &one); err == nil && one.Name != "" {
					raws = []rawToolCall{one}
				}
			}
		}
	}

	out := make([]models.ToolCall, 0, len(raws))
	for _, r := range raws {
		if r.Name == "" {
			continue
		}
		out = append(out, r.toCall())
	}
	return out
}
