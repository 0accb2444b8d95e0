package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/providers/llm"
)

const plannerSystemPrompt = `You are a workflow planner. Break the user's request into sequential subtasks
and output ONLY ONE subtask at a time, the next one not yet completed, in this JSON format:

{"subtask": "<description of the subtask>", "executor": "tool"}

Rules:
- "executor" MUST be exactly "tool", "code" or "chat".
- Use "tool" for desktop actions (opening apps, browsers, files, clipboard, system operations).
- Use "code" for calculations, data processing, or programming tasks.
- Use "chat" only when the subtask is to reply to the user in plain language.
- Do NOT name specific tools; the executor selects them.
- The conversation shows which subtasks already completed; plan the next one.
- If the whole request is fulfilled, output exactly: {"subtask": "done"}

DO NOT write explanations. ONLY output valid JSON.`

// doneSentinel is what the planner's "done" output becomes.
const doneSentinel = "done"

// Planner asks the completion service for the next subtask, re-derived from
// the transcript each call. Unparsable output maps to the completion
// sentinel so a malformed plan ends the loop gracefully instead of spinning
// it.
type Planner struct {
	Client llm.Client
	Log    *zap.Logger
}

type plannedSubtask struct {
	Subtask  string `json:"subtask"`
	Executor string `json:"executor"`
	// some prompt dialects use "agent"
	Agent string `json:"agent"`
}

// Next returns the next subtask, or nil when planning is complete. A non-nil
// error means the completion service itself failed.
func (p *Planner) Next(ctx context.Context, transcript []models.Turn, index int) (*models.Subtask, error) {
	raw, err := p.Client.Complete(ctx, plannerSystemPrompt, transcript)
	if err != nil {
		return nil, fmt.Errorf("planner completion: %w", err)
	}
	parsed, ok := parsePlanned(raw)
	if !ok {
		p.log().Warn("planner output unparsable, treating as completion", zap.String("raw", truncate(raw, 200)))
		return nil, nil
	}
	desc := strings.TrimSpace(parsed.Subtask)
	if desc == "" || strings.EqualFold(desc, doneSentinel) {
		return nil, nil
	}
	return &models.Subtask{
		Description: desc,
		Executor:    executorKind(parsed),
		Index:       index,
	}, nil
}

func parsePlanned(raw string) (plannedSubtask, bool) {
	text := stripCodeFences(raw)
	if !strings.HasPrefix(text, "{") {
		text = extractJSONObject(text)
	}
	var out plannedSubtask
	if text == "" || json.Unmarshal([]byte(text), &out) != nil {
		return plannedSubtask{}, false
	}
	return out, true
}

// executorKind maps the planner's executor tag onto a kind; anything
// unrecognized defaults to tool selection, preferring a tool attempt over
// assuming code generation.
func executorKind(p plannedSubtask) models.ExecutorKind {
	tag := p.Executor
	if tag == "" {
		tag = p.Agent
	}
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "code", "coder", "coder_agent":
		return models.KindCodeGenerating
	case "chat", "chatter", "chatter_agent":
		return models.KindConversational
	default:
		return models.KindToolSelecting
	}
}

func (p *Planner) log() *zap.Logger {
	if p.Log != nil {
		return p.Log
	}
	return zap.NewNop()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
