package tools

import (
	"bytes"
	"context"
	"fmt"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// RunCodeTool executes generated Go source in a yaegi interpreter. It is the
// single code-execution tool the code-generating executor is restricted to.
//
// Safety restrictions: only whitelisted stdlib imports are allowed, so the
// generated code gets no filesystem, network or process access. A fresh
// interpreter is created per call; nothing leaks between executions.
type RunCodeTool struct{}

// RunCodeName is referenced by the executors: the tool-selecting executor
// must never call it, the code-generating executor may call nothing else.
const RunCodeName = "run_code"

var allowedImports = map[string]bool{
	"bytes":           true,
	"encoding/base64": true,
	"encoding/json":   true,
	"errors":          true,
	"fmt":             true,
	"math":            true,
	"math/rand":       true,
	"regexp":          true,
	"sort":            true,
	"strconv":         true,
	"strings":         true,
	"time":            true,
	"unicode":         true,
}

func (r *RunCodeTool) Name() string { return RunCodeName }

func (r *RunCodeTool) Description() string {
	return "Execute a small Go program and return its output. Args: {\"source\": string}. Only safe stdlib imports are allowed; the program must print its result."
}

func (r *RunCodeTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	source, _ := args["source"].(string)
	source = strings.TrimSpace(source)
	if source == "" {
		return "", fmt.Errorf("run_code: missing source")
	}
	source = wrapProgram(source)
	if err := validateImports(source); err != nil {
		return "", fmt.Errorf("run_code: %w", err)
	}

	var out bytes.Buffer
	i := interp.New(interp.Options{Stdout: &out, Stderr: &out})
	if err := i.Use(stdlib.Symbols); err != nil {
		return "", fmt.Errorf("run_code: loading stdlib: %w", err)
	}

	// yaegi cannot be preempted mid-eval; the watchdog abandons a stuck
	// interpreter instead of hanging the loop.
	done := make(chan error, 1)
	go func() {
		// Eval runs main() itself when given a complete main package.
		_, err := i.Eval(source)
		done <- err
	}()
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("run_code: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return "", fmt.Errorf("run_code: %w", err)
		}
	}
	result := strings.TrimSpace(out.String())
	if result == "" {
		result = "(no output)"
	}
	return "Success - program output:\n" + result, nil
}

// wrapProgram turns a bare snippet into a runnable main package. Complete
// programs pass through untouched.
func wrapProgram(src string) string {
	if strings.Contains(src, "package main") {
		return src
	}
	var imports []string
	for path := range allowedImports {
		base := path
		if idx := strings.LastIndexByte(path, '/'); idx != -1 {
			base = path[idx+1:]
		}
		if strings.Contains(src, base+".") {
			imports = append(imports, strconv.Quote(path))
		}
	}
	sort.Strings(imports)
	var b strings.Builder
	b.WriteString("package main\n")
	if len(imports) > 0 {
		b.WriteString("import (\n")
		for _, imp := range imports {
			b.WriteString("\t" + imp + "\n")
		}
		b.WriteString(")\n")
	}
	if strings.Contains(src, "func main") {
		b.WriteString(src)
	} else {
		b.WriteString("func main() {\n")
		b.WriteString(src)
		b.WriteString("\n}\n")
	}
	return b.String()
}

func validateImports(src string) error {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "generated.go", src, parser.ImportsOnly)
	if err != nil {
		return fmt.Errorf("parsing source: %w", err)
	}
	for _, imp := range file.Imports {
		path, _ := strconv.Unquote(imp.Path.Value)
		if !allowedImports[path] {
			return fmt.Errorf("import %q is not allowed", path)
		}
	}
	return nil
}
