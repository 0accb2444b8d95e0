package agents

import (
	"context"
	"strings"

	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/providers/llm"
)

const chatterSystemPrompt = `You are a friendly desktop assistant chatting with the user.
Respond only in plain English messages. Never produce JSON or function calls.
Only respond to the last user message; the rest of the conversation is context.
Keep your response concise and end immediately after answering.
If asked to perform an action, explain politely that this reply is conversation only.`

const defaultGreeting = "Hi! How can I assist you today?"

// Chatter is the conversational executor. It never emits tool calls and the
// loop ends right after it, bypassing the verifier and policy.
type Chatter struct {
	Client llm.Client
}

func (c *Chatter) Reply(ctx context.Context, transcript []models.Turn) (models.Turn, error) {
	if strings.TrimSpace(models.LastUserContent(transcript)) == "" {
		return models.AssistantTurn(defaultGreeting), nil
	}
	resp, err := c.Client.Complete(ctx, chatterSystemPrompt, transcript)
	if err != nil {
		return models.Turn{}, err
	}
	// keep the first paragraph; small models tend to ramble after answering
	clean := strings.TrimSpace(resp)
	if idx := strings.Index(clean, "\n\n"); idx > 0 {
		clean = clean[:idx]
	}
	if clean == "" {
		clean = defaultGreeting
	}
	return models.AssistantTurn(clean), nil
}
