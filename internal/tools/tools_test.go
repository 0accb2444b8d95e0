package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(&GetTimeTool{})
	r.Register(&NoOpTool{})
	r.Register(&GetTimeTool{}) // re-register must not duplicate

	assert.Equal(t, []string{"get_time", "no_op"}, r.Names())

	infos := r.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "get_time", infos[0].Name)
	assert.NotEmpty(t, infos[0].Description)

	_, ok := r.Get("get_time")
	assert.True(t, ok)
	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestFileManagerRoundTrip(t *testing.T) {
	fm := &FileManagerTool{Root: t.TempDir()}
	ctx := context.Background()

	out, err := fm.Execute(ctx, map[string]any{
		"action": "write", "path": "notes/todo.txt", "content": "buy milk",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Success")

	out, err = fm.Execute(ctx, map[string]any{"action": "read", "path": "notes/todo.txt"})
	require.NoError(t, err)
	assert.Contains(t, out, "buy milk")

	out, err = fm.Execute(ctx, map[string]any{"action": "list", "path": "notes"})
	require.NoError(t, err)
	assert.Contains(t, out, "todo.txt")
}

func TestFileManagerJailsPaths(t *testing.T) {
	fm := &FileManagerTool{Root: t.TempDir()}
	for _, rel := range []string{"../outside.txt", "../../etc/passwd", "a/../../b"} {
		_, err := fm.Execute(context.Background(), map[string]any{"action": "read", "path": rel})
		assert.Error(t, err, "path %q must not escape the workspace", rel)
		assert.Contains(t, err.Error(), "escapes the workspace")
	}
}

func TestFileManagerUnknownAction(t *testing.T) {
	fm := &FileManagerTool{Root: t.TempDir()}
	_, err := fm.Execute(context.Background(), map[string]any{"action": "delete", "path": "x"})
	assert.Error(t, err)
}

func TestRunCodeExecutesCompleteProgram(t *testing.T) {
	rc := &RunCodeTool{}
	out, err := rc.Execute(context.Background(), map[string]any{
		"source": "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println(6 * 7) }",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "Success")
	assert.Contains(t, out, "42")
}

func TestRunCodeWrapsBareSnippet(t *testing.T) {
	rc := &RunCodeTool{}
	out, err := rc.Execute(context.Background(), map[string]any{
		"source": `fmt.Println(strings.ToUpper("done"))`,
	})
	require.NoError(t, err)
	assert.Contains(t, out, "DONE")
}

func TestRunCodeRejectsForbiddenImports(t *testing.T) {
	rc := &RunCodeTool{}
	for _, src := range []string{
		"package main\nimport \"os\"\nfunc main() { os.Exit(1) }",
		"package main\nimport \"net/http\"\nfunc main() { http.Get(\"http://example.com\") }",
		"package main\nimport \"os/exec\"\nfunc main() {}",
	} {
		_, err := rc.Execute(context.Background(), map[string]any{"source": src})
		assert.Error(t, err, "source %q must be rejected", src)
		assert.Contains(t, err.Error(), "not allowed")
	}
}

func TestRunCodeRequiresSource(t *testing.T) {
	rc := &RunCodeTool{}
	_, err := rc.Execute(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestRunCodeHonorsDeadline(t *testing.T) {
	rc := &RunCodeTool{}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := rc.Execute(ctx, map[string]any{
		"source": "package main\nfunc main() { for {} }",
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWrapProgram(t *testing.T) {
	full := "package main\nfunc main() {}"
	assert.Equal(t, full, wrapProgram(full))

	wrapped := wrapProgram(`fmt.Println("hi")`)
	assert.Contains(t, wrapped, "package main")
	assert.Contains(t, wrapped, `"fmt"`)
	assert.Contains(t, wrapped, "func main() {")

	// the synthesized import block is sorted, so generated sources are
	// reproducible
	multi := wrapProgram(`fmt.Println(strings.ToUpper(strconv.Itoa(7)))`)
	assert.Contains(t, multi, "\t\"fmt\"\n\t\"strconv\"\n\t\"strings\"\n")
	assert.Equal(t, multi, wrapProgram(`fmt.Println(strings.ToUpper(strconv.Itoa(7)))`))

	withMain := wrapProgram("func main() {\n\tprintln(1)\n}")
	assert.Contains(t, withMain, "package main")
	assert.Equal(t, 1, countOccurrences(withMain, "func main"))
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}

func TestNoOpAlwaysReportsFailure(t *testing.T) {
	n := &NoOpTool{}
	out, err := n.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Failure")
}

func TestGetTime(t *testing.T) {
	g := &GetTimeTool{}
	out, err := g.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Success")
}

func TestOpenAppRejectsUnknownApp(t *testing.T) {
	o := &OpenAppTool{Allowed: map[string][]string{"calculator": {"true"}}}
	out, err := o.Execute(context.Background(), map[string]any{"app_name": "rm -rf"})
	require.NoError(t, err)
	assert.Contains(t, out, "Failure", "an unlisted app is a tool failure, not a crash")

	_, err = o.Execute(context.Background(), map[string]any{})
	assert.Error(t, err)
}

func TestOpenAppLaunchesWhitelisted(t *testing.T) {
	// "true" exits immediately, standing in for a desktop app
	o := &OpenAppTool{Allowed: map[string][]string{"calculator": {"true"}}}
	out, err := o.Execute(context.Background(), map[string]any{"app_name": "calculator"})
	require.NoError(t, err)
	assert.Contains(t, out, "Success")
}

func TestReadPDFRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	rp := &ReadPDFTool{Files: &FileManagerTool{Root: dir}}
	_, err := rp.Execute(context.Background(), map[string]any{"path": "missing.pdf"})
	assert.Error(t, err)

	// non-PDF content must fail parsing, not crash
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fake.pdf"), []byte("not a pdf"), 0o644))
	_, err = rp.Execute(context.Background(), map[string]any{"path": "fake.pdf"})
	assert.Error(t, err)
}

func TestCompactWhitespace(t *testing.T) {
	assert.Equal(t, "a\nb c", compactWhitespace("  a \n\n b\t\tc  "))
	assert.Equal(t, "", compactWhitespace(" \n\t "))
}
