// Package orchestrator drives a task through the workflow nodes until a
// terminal state: Router -> {Chatter end} | {Planner <-> Executor <->
// Invocation <-> Verifier <-> Policy}.
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/desktop-assistant/internal/agents"
	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/tools"
)

// maxSteps caps node transitions per task as a backstop against a planner
// that never emits the completion sentinel (the original ran with a
// recursion limit of 200).
const maxSteps = 200

// HumanChannel is an optional blocking channel for embedded callers. When
// unset, the gate suspends the task and Resume supplies the decision.
type HumanChannel interface {
	Ask(ctx context.Context, prompt string) (decision, userContext string, err error)
}

// Options are the engine knobs.
type Options struct {
	// RetryLimit bounds attempts per executor kind per subtask.
	RetryLimit int
	// VerifierWindow is how many recent turns the verifier sees.
	VerifierWindow int
	// ToolTimeout bounds each tool dispatch.
	ToolTimeout time.Duration
	// Human, when set, answers confirmation prompts inline.
	Human HumanChannel
}

func (o *Options) applyDefaults() {
	if o.RetryLimit <= 0 {
		o.RetryLimit = 2
	}
	if o.VerifierWindow <= 0 {
		o.VerifierWindow = 6
	}
	if o.ToolTimeout <= 0 {
		o.ToolTimeout = 30 * time.Second
	}
}

// Engine owns the task map and drives one sequential loop per task. The
// task map and hub are the only cross-task shared structures; every
// ExecutionState belongs to exactly one loop.
type Engine struct {
	router   *agents.Router
	planner  *agents.Planner
	chatter  *agents.Chatter
	tooler   *agents.Tooler
	coder    *agents.Coder
	verifier *agents.Verifier
	registry *tools.Registry
	opts     Options
	hub      *Hub
	log      *zap.Logger

	mu   sync.RWMutex
	runs map[string]*taskRun
}

type taskRun struct {
	mu    sync.Mutex
	task  *models.Task
	state *ExecutionState
	node  NodeID
	// resumedWith remembers the decision that resumed the last suspension,
	// making a repeated identical resume a no-op.
	resumedWith string
	// llmErrStreak counts consecutive completion-service failures so a
	// terminal failure caused by total unavailability is distinguishable.
	llmErrStreak int
}

func New(router *agents.Router, planner *agents.Planner, chatter *agents.Chatter,
	tooler *agents.Tooler, coder *agents.Coder, verifier *agents.Verifier,
	registry *tools.Registry, opts Options, log *zap.Logger) *Engine {
	opts.applyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		router:   router,
		planner:  planner,
		chatter:  chatter,
		tooler:   tooler,
		coder:    coder,
		verifier: verifier,
		registry: registry,
		opts:     opts,
		hub:      NewHub(),
		log:      log,
		runs:     map[string]*taskRun{},
	}
}

// CreateTask registers a task without starting it, so callers can subscribe
// to its events before any are published.
func (e *Engine) CreateTask(query string) *models.Task {
	now := time.Now()
	t := &models.Task{
		ID:        uuid.NewString(),
		Query:     query,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	run := &taskRun{task: t, state: newExecutionState(query), node: NodeRouter}
	e.mu.Lock()
	e.runs[t.ID] = run
	e.mu.Unlock()
	return t
}

// Start drives a created task to a terminal state or to the human gate.
func (e *Engine) Start(ctx context.Context, id string) (*models.Task, error) {
	run, ok := e.lookup(id)
	if !ok {
		return nil, ErrTaskNotFound
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	if run.task.Status != models.StatusPending {
		// already started; terminal and suspended tasks are never re-driven
		return run.task, nil
	}
	run.task.Status = models.StatusRunning
	e.publishStatus(run)
	e.drive(ctx, run)
	return run.task, nil
}

// Run executes one task end to end and returns it with the final
// transcript. If the task suspended at the gate, its status is
// AWAITING_USER and Resume continues it.
func (e *Engine) Run(ctx context.Context, query string) (*models.Task, error) {
	t := e.CreateTask(query)
	return e.Start(ctx, t.ID)
}

// Resume continues a task suspended at the human confirmation gate.
// Resuming twice with the same decision is idempotent; a conflicting second
// decision is rejected.
func (e *Engine) Resume(ctx context.Context, id, decision, userContext string) (*models.Task, error) {
	run, ok := e.lookup(id)
	if !ok {
		return nil, ErrTaskNotFound
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	if run.task.Status != models.StatusAwaitingUser {
		if run.resumedWith != "" && strings.EqualFold(run.resumedWith, strings.TrimSpace(decision)) {
			return run.task, nil
		}
		if run.resumedWith != "" {
			return nil, ErrConflictingResume
		}
		return nil, ErrNotAwaitingUser
	}

	decision = strings.ToLower(strings.TrimSpace(decision))
	if _, _, ok := agents.HumanVerdict(decision); !ok {
		// invalid input defaults to abort for safety
		decision = "abort"
	}
	run.resumedWith = decision
	if userContext != "" {
		run.state.UserContext = userContext
	}
	run.state.humanDecision = decision
	run.state.append(models.UserTurn("User decision: " + decision))
	run.task.Status = models.StatusRunning
	run.node = NodeVerify
	e.publishStatus(run)
	e.drive(ctx, run)
	return run.task, nil
}

func (e *Engine) GetTask(id string) (*models.Task, bool) {
	run, ok := e.lookup(id)
	if !ok {
		return nil, false
	}
	return run.task, true
}

func (e *Engine) ListTasks() []*models.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*models.Task, 0, len(e.runs))
	for _, run := range e.runs {
		out = append(out, run.task)
	}
	return out
}

// Subscribe returns a channel of JSON-encoded events for one task. The
// caller must call the returned unsubscribe func when done.
func (e *Engine) Subscribe(taskID string) (<-chan []byte, func()) {
	return e.hub.Subscribe(taskID)
}

func (e *Engine) lookup(id string) (*taskRun, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	run, ok := e.runs[id]
	return run, ok
}

// drive runs nodes against the state until a terminal node or a gate
// suspension. The caller holds run.mu, so exactly one node executes
// against the state at a time.
func (e *Engine) drive(ctx context.Context, run *taskRun) {
	st := run.state
	for steps := 0; ; steps++ {
		if ctx.Err() != nil {
			e.finish(run, models.StatusFailed, "The task was canceled before it finished.")
			return
		}
		if steps >= maxSteps {
			e.finish(run, models.StatusFailed, "The task exceeded the step limit and was stopped.")
			return
		}
		e.log.Debug("node transition",
			zap.String("task_id", run.task.ID),
			zap.String("node", string(run.node)),
			zap.Int("subtask_index", st.SubtaskIndex))
		e.hub.Publish(run.task.ID, Event{Event: "node", TaskID: run.task.ID, Payload: string(run.node)})

		switch run.node {
		case NodeRouter:
			if e.router.Route(ctx, models.LastUserContent(st.Transcript)) == agents.RouteChat {
				run.node = NodeChatter
			} else {
				run.node = NodePlanner
			}

		case NodeChatter:
			turn, err := e.chatter.Reply(ctx, st.Transcript)
			if err != nil {
				run.llmErrStreak++
				e.finish(run, models.StatusFailed, unavailableMessage)
				return
			}
			st.append(turn)
			e.publishTurn(run, turn)
			e.finish(run, models.StatusSuccess, turn.Content)
			return

		case NodePlanner:
			sub, err := e.planner.Next(ctx, st.Transcript, st.SubtaskIndex)
			if err != nil {
				run.llmErrStreak++
				e.finish(run, models.StatusFailed, unavailableMessage)
				return
			}
			run.llmErrStreak = 0
			if sub == nil {
				run.node = NodeDone
				continue
			}
			st.Subtask = sub
			e.hub.Publish(run.task.ID, Event{Event: "subtask", TaskID: run.task.ID, Payload: sub})
			run.node = executorNode(sub.Executor)

		case NodeTooler:
			st.beginAttempt(models.KindToolSelecting)
			turn, err := e.tooler.Act(ctx, st.Subtask, st.UserContext, st.VerdictReason)
			if err != nil {
				run.llmErrStreak++
				e.applyVerdict(run, models.VerdictRetry, "tool executor unavailable: "+err.Error())
				continue
			}
			run.llmErrStreak = 0
			st.append(turn)
			e.publishTurn(run, turn)
			run.node = NodeInvoke

		case NodeCoder:
			st.beginAttempt(models.KindCodeGenerating)
			turn, err := e.coder.Act(ctx, st.Subtask, st.UserContext, st.VerdictReason)
			if err != nil {
				run.llmErrStreak++
				e.applyVerdict(run, models.VerdictRetry, "code executor unavailable: "+err.Error())
				continue
			}
			run.llmErrStreak = 0
			st.append(turn)
			e.publishTurn(run, turn)
			run.node = NodeInvoke

		case NodeInvoke:
			before := len(st.Transcript)
			unavailable := invokePending(ctx, st, e.registry, e.opts.ToolTimeout, e.log)
			for _, turn := range st.Transcript[before:] {
				e.publishTurn(run, turn)
			}
			if unavailable {
				// no such tool registered: hand the subtask to the coder
				e.applyVerdict(run, models.VerdictEscalate, "a requested tool is not registered")
				continue
			}
			run.node = NodeVerify

		case NodeVerify:
			if v, reason, ok := agents.HumanVerdict(st.humanDecision); ok {
				st.humanDecision = ""
				if v == models.VerdictFailure {
					e.finish(run, models.StatusFailed, "Stopped at user's request.")
					return
				}
				e.applyVerdict(run, v, reason)
				continue
			}
			window := models.Window(st.Transcript, e.opts.VerifierWindow)
			v, reason, err := e.verifier.Verify(ctx, st.Subtask, st.ExecutorKind, window, st.UserContext)
			if err != nil {
				run.llmErrStreak++
			} else {
				run.llmErrStreak = 0
			}
			e.applyVerdict(run, v, reason)

		case NodeGate:
			if e.opts.Human != nil {
				decision, userCtx, err := e.opts.Human.Ask(ctx, gatePrompt(st))
				if err != nil {
					decision = "abort"
				}
				if _, _, ok := agents.HumanVerdict(decision); !ok {
					decision = "abort"
				}
				if userCtx != "" {
					st.UserContext = userCtx
				}
				st.humanDecision = decision
				st.append(models.UserTurn("User decision: " + decision))
				run.node = NodeVerify
				continue
			}
			run.task.Status = models.StatusAwaitingUser
			run.task.Transcript = st.Transcript
			run.task.UpdatedAt = time.Now()
			run.resumedWith = ""
			e.hub.Publish(run.task.ID, Event{Event: "awaiting_user", TaskID: run.task.ID,
				Payload: map[string]any{"prompt": gatePrompt(st)}})
			e.publishStatus(run)
			return

		case NodeFail:
			e.finish(run, models.StatusFailed, e.failureMessage(run))
			return

		case NodeDone:
			e.finish(run, models.StatusSuccess, e.finalSummary(st))
			return
		}
	}
}

// applyVerdict records the verdict and applies the policy transition:
// Success advances the subtask (resetting counters and the completed-tool
// set), everything else routes through Decide.
func (e *Engine) applyVerdict(run *taskRun, v models.Verdict, reason string) {
	st := run.state
	st.Verdict, st.VerdictReason = v, reason
	e.log.Info("verdict",
		zap.String("task_id", run.task.ID),
		zap.String("verdict", string(v)),
		zap.String("reason", reason),
		zap.Int("tries", st.Retries[st.ExecutorKind]))
	e.hub.Publish(run.task.ID, Event{Event: "verdict", TaskID: run.task.ID,
		Payload: map[string]any{"verdict": v, "reason": reason}})

	if v == models.VerdictSuccess {
		st.advance()
		run.node = NodePlanner
		return
	}
	run.node = Decide(v, st.ExecutorKind, st.Retries[st.ExecutorKind], e.opts.RetryLimit)
}

var unavailableMessage = "The assistant's language model is unavailable right now. Please try again later. (" + ErrLLMUnavailable.Error() + ")"

func (e *Engine) failureMessage(run *taskRun) string {
	if run.llmErrStreak >= e.opts.RetryLimit {
		return unavailableMessage
	}
	st := run.state
	if st.VerdictReason != "" {
		return "I couldn't complete the request: " + st.VerdictReason
	}
	return "I couldn't complete the request."
}

func (e *Engine) finalSummary(st *ExecutionState) string {
	if last := models.LastAssistantTurn(st.Transcript); last != nil && last.Content != "" {
		return last.Content
	}
	if last := lastToolContent(st.Transcript); last != "" {
		return last
	}
	return "All steps completed."
}

func lastToolContent(transcript []models.Turn) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role == models.RoleTool {
			return transcript[i].Content
		}
	}
	return ""
}

func gatePrompt(st *ExecutionState) string {
	prompt := "Does the last step result look correct? (yes / no / abort)"
	if last := lastToolContent(st.Transcript); last != "" {
		prompt = "Last result: " + firstLine(last) + "\n" + prompt
	}
	return prompt
}

func (e *Engine) publishTurn(run *taskRun, turn models.Turn) {
	run.task.Transcript = run.state.Transcript
	run.task.UpdatedAt = time.Now()
	e.hub.Publish(run.task.ID, Event{Event: "turn", TaskID: run.task.ID, Payload: turn})
}

func (e *Engine) publishStatus(run *taskRun) {
	e.hub.Publish(run.task.ID, Event{Event: "task_status", TaskID: run.task.ID,
		Payload: map[string]any{"status": run.task.Status, "final_message": run.task.FinalMessage}})
}

func (e *Engine) finish(run *taskRun, status models.Status, message string) {
	run.task.Status = status
	run.task.FinalMessage = message
	run.task.Transcript = run.state.Transcript
	run.task.UpdatedAt = time.Now()
	e.log.Info("task finished",
		zap.String("task_id", run.task.ID),
		zap.String("status", string(status)))
	e.publishStatus(run)
}
