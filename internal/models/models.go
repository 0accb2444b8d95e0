package models

import (
	"time"
)

// Role identifies who produced a transcript turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// ExecutorKind selects which executor handles a subtask.
type ExecutorKind string

const (
	KindConversational ExecutorKind = "conversational"
	KindToolSelecting  ExecutorKind = "tool_selecting"
	KindCodeGenerating ExecutorKind = "code_generating"
)

// Verdict is the verifier's classification of the last action. It drives
// exactly one policy transition and is not persisted beyond it.
type Verdict string

const (
	VerdictSuccess      Verdict = "success"
	VerdictRetry        Verdict = "retry"
	VerdictEscalate     Verdict = "escalate"
	VerdictUserVerifier Verdict = "user"
	VerdictFailure      Verdict = "failure"
)

type Status string

const (
	StatusPending      Status = "PENDING"
	StatusRunning      Status = "RUNNING"
	StatusAwaitingUser Status = "AWAITING_USER"
	StatusSuccess      Status = "SUCCESS"
	StatusFailed       Status = "FAILED"
)

// ToolCall is one pending tool invocation attached to an assistant turn.
// ID is unique within the turn.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Turn is one entry in a task's append-only transcript.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Subtask is one planner-issued unit of work. The planner produces them
// incrementally, one per call, re-derived from the transcript.
type Subtask struct {
	Description string       `json:"description"`
	Executor    ExecutorKind `json:"executor"`
	Index       int          `json:"index"`
}

// Task is the root of exactly one workflow execution.
type Task struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Status       Status    `json:"status"`
	FinalMessage string    `json:"final_message,omitempty"`
	Transcript   []Turn    `json:"transcript,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserTurn builds a user turn from raw input.
func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

// AssistantTurn builds an assistant turn with optional tool calls.
func AssistantTurn(content string, calls ...ToolCall) Turn {
	return Turn{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// ToolTurn builds a tool-result turn bound to the originating call.
func ToolTurn(callID, content string) Turn {
	return Turn{Role: RoleTool, Content: content, ToolCallID: callID}
}

// LastUserContent returns the content of the most recent user turn.
func LastUserContent(transcript []Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == RoleUser {
			return transcript[i].Content
		}
	}
	return ""
}

// LastAssistantTurn returns the most recent assistant turn, or nil.
func LastAssistantTurn(transcript []Turn) *Turn {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == RoleAssistant {
			return &transcript[i]
		}
	}
	return nil
}

// Window returns up to n most recent turns. The verifier reads a bounded
// window instead of the whole transcript to bound prompt cost.
func Window(transcript []Turn, n int) []Turn {
	if n <= 0 || len(transcript) <= n {
		return transcript
	}
	return transcript[len(transcript)-n:]
}
