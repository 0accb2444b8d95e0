package orchestrator

import "errors"

var (
	// ErrTaskNotFound is returned for lookups and resumes of unknown tasks.
	ErrTaskNotFound = errors.New("task not found")
	// ErrNotAwaitingUser is returned when resuming a task that is not
	// suspended at the human confirmation gate.
	ErrNotAwaitingUser = errors.New("task is not awaiting user confirmation")
	// ErrConflictingResume is returned when a task already resumed with one
	// decision is resumed again with a different one.
	ErrConflictingResume = errors.New("task was already resumed with a different decision")
	// ErrLLMUnavailable marks a terminal failure caused by the completion
	// service being unreachable across all retries.
	ErrLLMUnavailable = errors.New("completion service unavailable")
)
