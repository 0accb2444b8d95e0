package tools

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// OpenAppTool launches a whitelisted desktop application. The whitelist maps
// a friendly name to the per-OS launch command.
type OpenAppTool struct {
	// Allowed maps app name -> argv. When nil, defaultApps() for the
	// current OS is used.
	Allowed map[string][]string
}

func (o *OpenAppTool) Name() string { return "open_app" }

func (o *OpenAppTool) Description() string {
	return "Safely open a whitelisted desktop application. Args: {\"app_name\": string}. Supports: calculator, notepad, files."
}

func (o *OpenAppTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	name, _ := args["app_name"].(string)
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", fmt.Errorf("open_app: missing app_name")
	}
	allowed := o.Allowed
	if allowed == nil {
		allowed = defaultApps()
	}
	argv, ok := allowed[name]
	if !ok {
		return fmt.Sprintf("Failure - launching %q is not allowed.", name), nil
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("open_app: could not open %s: %w", name, err)
	}
	// Detach: the assistant launches, it does not babysit the process.
	go func() { _ = cmd.Wait() }()
	return fmt.Sprintf("Success - %s opened successfully.", name), nil
}

func defaultApps() map[string][]string {
	switch runtime.GOOS {
	case "windows":
		return map[string][]string{
			"calculator": {"calc.exe"},
			"notepad":    {"notepad.exe"},
			"files":      {"explorer.exe"},
		}
	case "darwin":
		return map[string][]string{
			"calculator": {"open", "-a", "Calculator"},
			"notepad":    {"open", "-a", "TextEdit"},
			"files":      {"open", "-a", "Finder"},
		}
	default:
		return map[string][]string{
			"calculator": {"gnome-calculator"},
			"notepad":    {"gedit"},
			"files":      {"nautilus"},
		}
	}
}
