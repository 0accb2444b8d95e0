package tools

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// ClipboardTool reads or writes the system clipboard.
type ClipboardTool struct{}

func (c *ClipboardTool) Name() string { return "clipboard" }

func (c *ClipboardTool) Description() string {
	return "Read or write the system clipboard. Args: {\"action\": \"read\"|\"write\", \"text\": string (write only)}."
}

func (c *ClipboardTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	action, _ := args["action"].(string)
	switch action {
	case "read", "":
		text, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("clipboard read: %w", err)
		}
		return "Success - clipboard contents: " + text, nil
	case "write":
		text, _ := args["text"].(string)
		if err := clipboard.WriteAll(text); err != nil {
			return "", fmt.Errorf("clipboard write: %w", err)
		}
		return "Success - text copied to clipboard.", nil
	default:
		return "", fmt.Errorf("clipboard: unknown action %q", action)
	}
}
