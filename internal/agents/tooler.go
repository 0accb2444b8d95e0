package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/providers/llm"
	"github.com/example/desktop-assistant/internal/retrieval"
	"github.com/example/desktop-assistant/internal/tools"
)

const toolerPromptTemplate = `You are a desktop tool executor. You are given one subtask to complete.
Relevant tools:
%s

CRITICAL:
- Select the ONE most appropriate tool for the subtask
- Call it exactly ONCE
- Do not explain, do not add extra text
- Output ONLY the call in JSON: {"name": "<tool>", "args": {...}}
- Use EXACT tool names and correct argument keys
- Do NOT attempt to write code and do NOT use "run_code"
- If no tool can help, respond with {"name": "no_op", "args": {}}

You will be judged on whether the tool executed successfully for the subtask.
Do NOT declare success or failure yourself - that is the verifier's job.

Example:
Subtask: "Launch the calculator"
Response: {"name": "open_app", "args": {"app_name": "calculator"}}`

// Tooler is the tool-selecting executor. It shortlists the most relevant
// registered tools for the subtask text and must emit at least one tool
// call; when nothing parses it falls back to a no_op call so an empty
// action never stalls the loop.
type Tooler struct {
	Client    llm.Client
	Retrieval retrieval.Service
	TopK      int
	Log       *zap.Logger
}

func (t *Tooler) Act(ctx context.Context, sub *models.Subtask, userContext, verifierReason string) (models.Turn, error) {
	k := t.TopK
	if k <= 0 {
		k = 5
	}
	shortlist, err := t.Retrieval.TopK(ctx, sub.Description, k)
	if err != nil {
		t.log().Warn("tool retrieval failed, prompting without shortlist", zap.Error(err))
	}
	system := fmt.Sprintf(toolerPromptTemplate, strings.Join(shortlist, "\n"))

	window := []models.Turn{models.UserTurn("Subtask: " + sub.Description)}
	if userContext != "" {
		window = append(window, models.UserTurn("User context from a previous attempt: "+userContext))
	}
	if verifierReason != "" {
		window = append(window, models.UserTurn("The previous attempt was judged insufficient: "+verifierReason))
	}

	resp, err := t.Client.Complete(ctx, system, window)
	if err != nil {
		return models.Turn{}, err
	}
	calls := parseToolCalls(resp)
	// the code path is the coder's; drop any attempt to sneak into it
	filtered := calls[:0]
	for _, c := range calls {
		if c.Name != tools.RunCodeName {
			filtered = append(filtered, c)
		}
	}
	calls = filtered
	if len(calls) == 0 {
		t.log().Info("tooler produced no parsable call, defaulting to no_op", zap.String("raw", truncate(resp, 200)))
		calls = parseToolCalls(`{"name": "no_op", "args": {}}`)
	}
	return models.AssistantTurn("", calls...), nil
}

func (t *Tooler) log() *zap.Logger {
	if t.Log != nil {
		return t.Log
	}
	return zap.NewNop()
}
