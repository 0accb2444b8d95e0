package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/desktop-assistant/internal/models"
)

func clearProviderKeys(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
}

func TestFactoryFallsBackToMock(t *testing.T) {
	clearProviderKeys(t)
	_, ok := New("", "", time.Second).(*MockClient)
	assert.True(t, ok, "no configured key must yield the mock client")

	_, ok = New("openai", "", time.Second).(*MockClient)
	assert.True(t, ok, "a provider without its key must yield the mock client")

	_, ok = New("mock", "", time.Second).(*MockClient)
	assert.True(t, ok)
}

func TestFactoryPicksConfiguredProvider(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	c, ok := New("openai", "gpt-4o", 10*time.Second).(*OpenAIClient)
	require.True(t, ok)
	assert.Equal(t, "gpt-4o", c.Model)

	// autodetect by key presence
	_, ok = New("", "", time.Second).(*OpenAIClient)
	assert.True(t, ok)
}

func TestFactoryDefaultModels(t *testing.T) {
	clearProviderKeys(t)
	t.Setenv("ANTHROPIC_API_KEY", "key")
	c, ok := New("anthropic", "", time.Second).(*AnthropicClient)
	require.True(t, ok)
	assert.NotEmpty(t, c.Model)
}

func TestMockClientAnswersEveryNode(t *testing.T) {
	m := &MockClient{}
	ctx := context.Background()

	out, err := m.Complete(ctx, "You are a strict classifier (router).", nil)
	require.NoError(t, err)
	assert.Equal(t, "chat", out)

	out, err = m.Complete(ctx, "You are a workflow planner.", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "done")

	out, err = m.Complete(ctx, "You are a verifier.", nil)
	require.NoError(t, err)
	assert.Contains(t, out, "user")

	out, err = m.Complete(ctx, "You are a friendly desktop assistant.", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestRenderTurn(t *testing.T) {
	assert.Equal(t, "hello", renderTurn(models.UserTurn("hello")))
	assert.Equal(t, "[tool result] Success - done", renderTurn(models.ToolTurn("id", "Success - done")))

	call := models.ToolCall{ID: "1", Name: "open_app", Args: map[string]any{"app_name": "calculator"}}
	out := renderTurn(models.AssistantTurn("", call))
	assert.Contains(t, out, "[tool calls]")
	assert.Contains(t, out, "open_app")
}

func TestChatRole(t *testing.T) {
	assert.Equal(t, "assistant", chatRole(models.RoleAssistant))
	assert.Equal(t, "system", chatRole(models.RoleSystem))
	assert.Equal(t, "user", chatRole(models.RoleUser))
	assert.Equal(t, "user", chatRole(models.RoleTool))
}

// retryRecorder fails the first n requests and records every body it saw.
type retryRecorder struct {
	mu     sync.Mutex
	fail   int
	bodies []string
	answer string
}

func (r *retryRecorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	b, _ := io.ReadAll(req.Body)
	r.mu.Lock()
	r.bodies = append(r.bodies, string(b))
	n := len(r.bodies)
	r.mu.Unlock()
	if n <= r.fail {
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(r.answer))
}

func TestOpenAIRetriesResendFullBody(t *testing.T) {
	rec := &retryRecorder{fail: 2, answer: `{"choices": [{"message": {"content": "ok"}}]}`}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	c := &OpenAIClient{APIKey: "test", Model: "m", BaseURL: srv.URL, Timeout: 30 * time.Second}
	out, err := c.Complete(context.Background(), "system", []models.Turn{models.UserTurn("hello")})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	require.Len(t, rec.bodies, 3)
	for i, body := range rec.bodies {
		assert.Contains(t, body, "hello", "attempt %d must carry the full request body", i+1)
		assert.Equal(t, rec.bodies[0], body)
	}
}

func TestAnthropicRetriesResendFullBody(t *testing.T) {
	rec := &retryRecorder{fail: 1, answer: `{"content": [{"text": "ok"}]}`}
	srv := httptest.NewServer(rec)
	defer srv.Close()
	t.Setenv("ANTHROPIC_API_URL", srv.URL)

	c := &AnthropicClient{APIKey: "test", Model: "m", Timeout: 30 * time.Second}
	out, err := c.Complete(context.Background(), "system", []models.Turn{models.UserTurn("hello")})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)

	require.Len(t, rec.bodies, 2)
	assert.Contains(t, rec.bodies[1], "hello", "the retried request must carry the full body")
}

func TestBackoffGrows(t *testing.T) {
	assert.Less(t, backoff(0), backoff(1))
	assert.Less(t, backoff(1), backoff(2))
}
