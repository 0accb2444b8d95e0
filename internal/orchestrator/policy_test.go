package orchestrator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/desktop-assistant/internal/models"
)

func TestDecideTable(t *testing.T) {
	const limit = 2
	cases := []struct {
		name  string
		v     models.Verdict
		kind  models.ExecutorKind
		tries int
		want  NodeID
	}{
		{"success always replans", models.VerdictSuccess, models.KindToolSelecting, 2, NodePlanner},
		{"retry tool under limit", models.VerdictRetry, models.KindToolSelecting, 1, NodeTooler},
		{"retry tool at limit escalates", models.VerdictRetry, models.KindToolSelecting, 2, NodeCoder},
		{"retry code under limit", models.VerdictRetry, models.KindCodeGenerating, 1, NodeCoder},
		{"retry code at limit fails", models.VerdictRetry, models.KindCodeGenerating, 2, NodeFail},
		{"escalate from tool", models.VerdictEscalate, models.KindToolSelecting, 1, NodeCoder},
		{"escalate from tool at limit still moves to coder", models.VerdictEscalate, models.KindToolSelecting, 2, NodeCoder},
		{"escalate from coder degrades to retry", models.VerdictEscalate, models.KindCodeGenerating, 1, NodeCoder},
		{"escalate from coder at limit fails", models.VerdictEscalate, models.KindCodeGenerating, 2, NodeFail},
		{"user verdict gates", models.VerdictUserVerifier, models.KindToolSelecting, 1, NodeGate},
		{"failure is terminal", models.VerdictFailure, models.KindToolSelecting, 0, NodeFail},
		{"unknown verdict is terminal", models.Verdict("gibberish"), models.KindToolSelecting, 0, NodeFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.v, tc.kind, tc.tries, limit))
		})
	}
}

// No sequence of retry/escalate verdicts may visit an executor more than
// limit times per kind: simulate the attempt counting the loop performs and
// check every path bottoms out.
func TestDecideRetryBound(t *testing.T) {
	const limit = 2
	for _, v := range []models.Verdict{models.VerdictRetry, models.VerdictEscalate} {
		t.Run(string(v), func(t *testing.T) {
			tries := map[models.ExecutorKind]int{}
			kind := models.KindToolSelecting
			tries[kind]++ // first executor entry
			var node NodeID
			for i := 0; i < 10; i++ {
				node = Decide(v, kind, tries[kind], limit)
				if node == NodeFail {
					break
				}
				switch node {
				case NodeTooler:
					kind = models.KindToolSelecting
				case NodeCoder:
					kind = models.KindCodeGenerating
				default:
					t.Fatalf("unexpected node %s", node)
				}
				tries[kind]++
			}
			assert.Equal(t, NodeFail, node, "verdict %s never terminated", v)
			assert.LessOrEqual(t, tries[models.KindToolSelecting], limit)
			assert.LessOrEqual(t, tries[models.KindCodeGenerating], limit)
		})
	}
}

func TestExecutorNode(t *testing.T) {
	assert.Equal(t, NodeChatter, executorNode(models.KindConversational))
	assert.Equal(t, NodeTooler, executorNode(models.KindToolSelecting))
	assert.Equal(t, NodeCoder, executorNode(models.KindCodeGenerating))
}

func TestAdvanceResetsSubtaskScope(t *testing.T) {
	st := newExecutionState("do things")
	st.beginAttempt(models.KindToolSelecting)
	st.beginAttempt(models.KindCodeGenerating)
	st.CompletedTools["open_app"] = struct{}{}
	st.Verdict = models.VerdictRetry
	st.VerdictReason = "tool reported failure"

	st.advance()

	assert.Equal(t, 1, st.SubtaskIndex)
	assert.Empty(t, st.Retries)
	assert.Empty(t, st.CompletedTools)
	assert.Empty(t, string(st.Verdict))
	assert.Empty(t, st.VerdictReason)
	assert.Nil(t, st.Subtask)
}

func TestBeginAttemptCountsPerKind(t *testing.T) {
	st := newExecutionState("q")
	st.beginAttempt(models.KindToolSelecting)
	st.beginAttempt(models.KindToolSelecting)
	st.beginAttempt(models.KindCodeGenerating)
	assert.Equal(t, 2, st.Retries[models.KindToolSelecting])
	assert.Equal(t, 1, st.Retries[models.KindCodeGenerating])
	assert.Equal(t, models.KindCodeGenerating, st.ExecutorKind)
}

func TestPendingCallsSkipsCompleted(t *testing.T) {
	st := newExecutionState("q")
	st.append(models.AssistantTurn("", models.ToolCall{ID: "1", Name: "open_app"},
		models.ToolCall{ID: "2", Name: "get_time"}))
	st.CompletedTools["open_app"] = struct{}{}

	pending := st.pendingCalls()
	if assert.Len(t, pending, 1) {
		assert.Equal(t, "get_time", pending[0].Name)
	}
}

func ExampleDecide() {
	fmt.Println(Decide(models.VerdictRetry, models.KindToolSelecting, 2, 2))
	// Output: coder
}
