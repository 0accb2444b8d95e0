package orchestrator

import (
	"github.com/example/desktop-assistant/internal/models"
)

// NodeID names the engine's workflow nodes.
type NodeID string

const (
	NodeRouter  NodeID = "router"
	NodeChatter NodeID = "chatter"
	NodePlanner NodeID = "planner"
	NodeTooler  NodeID = "tooler"
	NodeCoder   NodeID = "coder"
	NodeInvoke  NodeID = "invoke"
	NodeVerify  NodeID = "verify"
	NodeGate    NodeID = "gate"
	NodeDone    NodeID = "done"
	NodeFail    NodeID = "fail"
)

// executorNode maps a subtask's executor kind to its node.
func executorNode(kind models.ExecutorKind) NodeID {
	switch kind {
	case models.KindConversational:
		return NodeChatter
	case models.KindCodeGenerating:
		return NodeCoder
	default:
		return NodeTooler
	}
}

// Decide is the retry/escalation policy: a pure function from the verdict,
// the executor kind that produced the last action, and that kind's attempt
// count (incremented on executor entry) to the next node.
//
//	Success                    -> planner (caller advances the subtask)
//	Retry, tool,  tries<limit  -> tooler again
//	Retry, tool,  tries>=limit -> coder (forced escalation)
//	Retry, code,  tries<limit  -> coder again
//	Retry, code,  tries>=limit -> terminal failure
//	Escalate                   -> coder; from coder it degrades to the
//	                              retry row, since escalation only ever
//	                              moves tool-selecting -> code-generating
//	UserVerifier               -> human confirmation gate
//	Failure                    -> terminal failure
//
// The limit bounds attempts per executor kind per subtask, so no verdict
// sequence can spin the loop.
func Decide(v models.Verdict, kind models.ExecutorKind, tries, limit int) NodeID {
	switch v {
	case models.VerdictSuccess:
		return NodePlanner
	case models.VerdictRetry:
		if tries < limit {
			return executorNode(kind)
		}
		if kind == models.KindToolSelecting {
			return NodeCoder
		}
		return NodeFail
	case models.VerdictEscalate:
		if kind == models.KindCodeGenerating {
			return Decide(models.VerdictRetry, kind, tries, limit)
		}
		return NodeCoder
	case models.VerdictUserVerifier:
		return NodeGate
	default:
		return NodeFail
	}
}
