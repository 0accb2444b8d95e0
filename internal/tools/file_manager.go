package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileManagerTool lists, reads and writes files under a workspace root.
// Paths are resolved against Root and may not escape it.
type FileManagerTool struct {
	Root string
}

func (f *FileManagerTool) Name() string { return "file_manager" }

func (f *FileManagerTool) Description() string {
	return "List, read or write files in the workspace. Args: {\"action\": \"list\"|\"read\"|\"write\", \"path\": string, \"content\": string (write only)}."
}

func (f *FileManagerTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	action, _ := args["action"].(string)
	rel, _ := args["path"].(string)
	path, err := f.resolve(rel)
	if err != nil {
		return "", err
	}
	switch action {
	case "list", "":
		entries, err := os.ReadDir(path)
		if err != nil {
			return "", fmt.Errorf("file_manager list: %w", err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		return fmt.Sprintf("Success - %d entries: %s", len(names), strings.Join(names, ", ")), nil
	case "read":
		const maxRead = 64 * 1024
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("file_manager read: %w", err)
		}
		if len(b) > maxRead {
			b = b[:maxRead]
		}
		return "Success - file contents:\n" + string(b), nil
	case "write":
		content, _ := args["content"].(string)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", fmt.Errorf("file_manager write: %w", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("file_manager write: %w", err)
		}
		return fmt.Sprintf("Success - wrote %d bytes to %s.", len(content), rel), nil
	default:
		return "", fmt.Errorf("file_manager: unknown action %q", action)
	}
}

func (f *FileManagerTool) resolve(rel string) (string, error) {
	root := f.Root
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(filepath.Join(root, rel))
	if err != nil {
		return "", fmt.Errorf("file_manager: bad path %q", rel)
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("file_manager: bad root %q", root)
	}
	if abs != rootAbs && !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("file_manager: path %q escapes the workspace", rel)
	}
	return abs, nil
}
