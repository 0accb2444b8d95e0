package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/desktop-assistant/internal/models"
	"github.com/example/desktop-assistant/internal/tools"
)

// invokePending dispatches the latest turn's not-yet-completed tool calls.
// Independent calls run in parallel but all are joined before returning;
// tool turns are appended in call order so the transcript stays
// deterministic. The stage is purely mechanical: it records what each tool
// said and never judges success. It reports whether any referenced tool was
// missing from the registry, which the caller maps to a forced escalation.
func invokePending(ctx context.Context, st *ExecutionState, reg *tools.Registry, timeout time.Duration, log *zap.Logger) (unavailable bool) {
	pending := st.pendingCalls()
	if len(pending) == 0 {
		return false
	}

	results := make([]string, len(pending))
	var wg sync.WaitGroup
	for i, call := range pending {
		tool, ok := reg.Get(call.Name)
		if !ok {
			results[i] = fmt.Sprintf("tool %q is not available", call.Name)
			unavailable = true
			continue
		}
		wg.Add(1)
		go func(i int, call models.ToolCall, tool tools.Tool) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			out, err := tool.Execute(callCtx, call.Args)
			switch {
			case callCtx.Err() != nil && err != nil:
				results[i] = fmt.Sprintf("tool %s timed out: %v", call.Name, err)
			case err != nil:
				results[i] = fmt.Sprintf("tool %s failed: %v", call.Name, err)
			default:
				results[i] = out
			}
		}(i, call, tool)
	}
	wg.Wait()

	for i, call := range pending {
		st.append(models.ToolTurn(call.ID, results[i]))
		st.CompletedTools[call.Name] = struct{}{}
		log.Debug("tool call completed",
			zap.String("tool", call.Name),
			zap.String("result", firstLine(results[i])))
	}
	return unavailable
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
