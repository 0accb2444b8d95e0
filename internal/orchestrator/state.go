package orchestrator

import (
	"github.com/example/desktop-assistant/internal/models"
)

// ExecutionState is the shared mutable state of one task's workflow,
// threaded by ownership transfer through the driver loop. Exactly one node
// mutates it per step; it is never shared across tasks.
type ExecutionState struct {
	Transcript     []models.Turn
	SubtaskIndex   int
	Subtask        *models.Subtask
	ExecutorKind   models.ExecutorKind
	UserContext    string
	Retries        map[models.ExecutorKind]int
	Verdict        models.Verdict
	VerdictReason  string
	CompletedTools map[string]struct{}

	// humanDecision is a pending gate answer consumed by the next verifier
	// step; it short-circuits the completion service.
	humanDecision string
}

func newExecutionState(query string) *ExecutionState {
	return &ExecutionState{
		Transcript:     []models.Turn{models.UserTurn(query)},
		Retries:        map[models.ExecutorKind]int{},
		CompletedTools: map[string]struct{}{},
	}
}

func (s *ExecutionState) append(t models.Turn) {
	s.Transcript = append(s.Transcript, t)
}

// advance moves to the next subtask: the index grows, every retry counter
// resets, and the completed-tool set clears (it is scoped per subtask).
func (s *ExecutionState) advance() {
	s.SubtaskIndex++
	s.Subtask = nil
	s.Retries = map[models.ExecutorKind]int{}
	s.CompletedTools = map[string]struct{}{}
	s.Verdict = ""
	s.VerdictReason = ""
}

// beginAttempt records the entry of an executor of the given kind.
func (s *ExecutionState) beginAttempt(kind models.ExecutorKind) {
	s.ExecutorKind = kind
	s.Retries[kind]++
}

// pendingCalls returns the latest assistant turn's tool calls whose names
// have not completed within the current subtask.
func (s *ExecutionState) pendingCalls() []models.ToolCall {
	last := models.LastAssistantTurn(s.Transcript)
	if last == nil {
		return nil
	}
	var out []models.ToolCall
	for _, c := range last.ToolCalls {
		if _, done := s.CompletedTools[c.Name]; !done {
			out = append(out, c)
		}
	}
	return out
}
