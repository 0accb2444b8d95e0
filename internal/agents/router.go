package agents

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/providers/llm"
)

// Route is the router's binary classification of an incoming request.
type Route string

const (
	RouteChat Route = "chat"
	RouteTask Route = "task"
)

const routerSystemPrompt = `You are a strict classifier (router).
Your ONLY task: classify the user request into exactly one of:
  - "chat"
  - "task"

Rules:
- If the request involves opening, running, starting, or using applications, files, or tools -> "task"
- If it involves programming, debugging, calculations, or code execution -> "task"
- Greetings, general questions, casual conversation, vague requests -> "chat"

Critical:
- Reply with EXACTLY one word: "chat" or "task".
- Do not explain, do not format JSON, do not add punctuation.`

var greetingWords = []string{
	"hi", "hello", "hey", "yo", "good morning", "good afternoon", "good evening",
	"how are you", "thanks", "thank you", "bye", "goodbye",
}

var taskWords = []string{
	"open", "launch", "start", "run", "execute", "close", "create", "delete",
	"move", "copy", "paste", "write", "read the file", "calculate", "compute",
	"download", "play", "search", "install",
}

// Router classifies the latest user turn as conversation or task. Cheap
// rule checks fire first; the completion service is only consulted when no
// rule matches, and unrecognized output defaults to chat so ambiguous input
// never enters the task loop.
type Router struct {
	Client    llm.Client
	ToolNames []string
	Log       *zap.Logger
}

func (r *Router) Route(ctx context.Context, input string) Route {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return RouteChat
	}
	for _, g := range greetingWords {
		if trimmed == g || strings.HasPrefix(trimmed, g+" ") || strings.HasPrefix(trimmed, g+",") || strings.HasPrefix(trimmed, g+"!") {
			return RouteChat
		}
	}
	for _, name := range r.ToolNames {
		if trimmed == strings.ToLower(name) {
			return RouteTask
		}
	}
	for _, w := range taskWords {
		if strings.HasPrefix(trimmed, w+" ") {
			return RouteTask
		}
	}

	resp, err := r.Client.Complete(ctx, routerSystemPrompt, []models.Turn{models.UserTurn(input)})
	if err != nil {
		r.log().Warn("router completion failed, defaulting to chat", zap.Error(err))
		return RouteChat
	}
	decision := strings.ToLower(strings.TrimSpace(resp))
	switch {
	case decision == "task" || decision == "planner":
		return RouteTask
	case decision == "chat":
		return RouteChat
	case strings.Contains(decision, "tool"):
		// failsafe for hallucinated tool calls in the classifier output
		return RouteTask
	default:
		r.log().Info("router output unrecognized, defaulting to chat", zap.String("decision", decision))
		return RouteChat
	}
}

func (r *Router) log() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.NewNop()
}
