package tools

import (
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

// OpenBrowserTool opens a URL in the system default browser.
type OpenBrowserTool struct{}

func (o *OpenBrowserTool) Name() string { return "open_browser" }

func (o *OpenBrowserTool) Description() string {
	return "Open a URL in the default web browser. Args: {\"url\": string}."
}

func (o *OpenBrowserTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	raw, _ := args["url"].(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("open_browser: missing url")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("open_browser: invalid url %q", raw)
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", u.String())
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", u.String())
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", u.String())
	}
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("open_browser: %w", err)
	}
	go func() { _ = cmd.Wait() }()
	return fmt.Sprintf("Success - opened %s in the browser.", u.String()), nil
}
