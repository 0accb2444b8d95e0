package tools

import "context"

// NoOpTool is the tooler's fallback action: it does nothing but keeps the
// loop moving when no registered tool fits a subtask.
type NoOpTool struct{}

func (n *NoOpTool) Name() string { return "no_op" }

func (n *NoOpTool) Description() string {
	return "Does nothing. Use when no other tool can help with the subtask."
}

func (n *NoOpTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return "Failure - no registered tool could handle this subtask.", nil
}
