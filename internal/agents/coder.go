package agents

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/providers/llm"
	"github.com/example/desktop-assistant/internal/tools"
)

const coderSystemPrompt = `You are a coding assistant. Write a small, safe Go program for the subtask.
The program must print its result to stdout. Only safe stdlib imports are available
(fmt, strings, strconv, math, sort, regexp, time, encoding/json and similar).
Respond with: {"name": "run_code", "args": {"source": "<the program>"}}
or just the Go source in a code fence.
Do not declare success or failure. The result goes to the verifier.`

// Coder is the code-generating executor. It is restricted to exactly the
// code-execution tool and always emits exactly one call carrying source
// text; free-text output is normalized into a run_code call locally.
type Coder struct {
	Client llm.Client
}

func (c *Coder) Act(ctx context.Context, sub *models.Subtask, userContext, verifierReason string) (models.Turn, error) {
	window := []models.Turn{models.UserTurn("Subtask: " + sub.Description)}
	if userContext != "" {
		window = append(window, models.UserTurn("User context from a previous attempt: "+userContext))
	}
	if verifierReason != "" {
		window = append(window, models.UserTurn("The previous attempt was judged insufficient: "+verifierReason))
	}
	resp, err := c.Client.Complete(ctx, coderSystemPrompt, window)
	if err != nil {
		return models.Turn{}, err
	}

	for _, call := range parseToolCalls(resp) {
		if call.Name != tools.RunCodeName {
			continue
		}
		if src, _ := call.Args["source"].(string); strings.TrimSpace(src) != "" {
			return models.AssistantTurn("", call), nil
		}
	}
	// free text: treat the whole reply as source
	source := stripCodeFences(resp)
	call := models.ToolCall{
		ID:   uuid.NewString(),
		Name: tools.RunCodeName,
		Args: map[string]any{"source": source},
	}
	return models.AssistantTurn("", call), nil
}
