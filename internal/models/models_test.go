package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastUserContent(t *testing.T) {
	transcript := []Turn{
		UserTurn("first"),
		AssistantTurn("reply"),
		UserTurn("second"),
		ToolTurn("id", "Success - done"),
	}
	assert.Equal(t, "second", LastUserContent(transcript))
	assert.Equal(t, "", LastUserContent(nil))
}

func TestLastAssistantTurn(t *testing.T) {
	call := ToolCall{ID: "1", Name: "open_app"}
	transcript := []Turn{
		UserTurn("q"),
		AssistantTurn("old"),
		AssistantTurn("", call),
		ToolTurn("1", "Success - opened"),
	}
	got := LastAssistantTurn(transcript)
	if assert.NotNil(t, got) {
		assert.Len(t, got.ToolCalls, 1)
	}
	assert.Nil(t, LastAssistantTurn([]Turn{UserTurn("q")}))
}

func TestWindow(t *testing.T) {
	transcript := []Turn{UserTurn("a"), UserTurn("b"), UserTurn("c")}
	assert.Len(t, Window(transcript, 2), 2)
	assert.Equal(t, "b", Window(transcript, 2)[0].Content)
	assert.Len(t, Window(transcript, 10), 3)
	assert.Len(t, Window(transcript, 0), 3)
}
