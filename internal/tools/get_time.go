package tools

import (
	"context"
	"time"
)

type GetTimeTool struct{}

func (g *GetTimeTool) Name() string { return "get_time" }

func (g *GetTimeTool) Description() string {
	return "Returns the current system time as a string. No input. Never fails."
}

func (g *GetTimeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return "Success - The current system time is " + time.Now().Format("2006-01-02 15:04:05"), nil
}
