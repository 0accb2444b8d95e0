package llm

import (
	"context"
	"errors"

	"github.com/example/desktop-assistant/internal/models"
)

// Client is the abstract text-completion service every node talks to.
// system is the node's instruction prompt; window is the bounded slice of
// transcript turns the node chose to expose. Implementations must honor a
// bounded per-call timeout and make no cross-call ordering guarantees.
type Client interface {
	Complete(ctx context.Context, system string, window []models.Turn) (string, error)
}

// ErrUnavailable marks a completion call that failed against the provider
// itself (network, auth, quota) rather than producing unusable text.
var ErrUnavailable = errors.New("completion service unavailable")
