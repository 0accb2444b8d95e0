package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// WebPageTextTool fetches a URL and returns its visible text, so the
// assistant can read a page without opening a browser window.
type WebPageTextTool struct {
	MaxBytes int
}

func (t *WebPageTextTool) Name() string { return "web_page_text" }

func (t *WebPageTextTool) Description() string {
	return "Fetch a web page and return its readable text. Args: {\"url\": string}."
}

func (t *WebPageTextTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	raw, _ := args["url"].(string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("web_page_text: missing url")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", fmt.Errorf("web_page_text: %w", err)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("web_page_text: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", fmt.Errorf("web_page_text: status %d for %s", res.StatusCode, raw)
	}
	maxBytes := t.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 512 * 1024
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, int64(maxBytes)))
	if err != nil {
		return "", fmt.Errorf("web_page_text: %w", err)
	}
	node, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", fmt.Errorf("web_page_text: %w", err)
	}
	var b strings.Builder
	extractText(node, &b, false)
	text := strings.TrimSpace(compactWhitespace(b.String()))
	return "Success - page text:\n" + text, nil
}

func extractText(n *html.Node, b *strings.Builder, inHidden bool) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case "script", "style", "noscript":
			inHidden = true
		case "br", "p", "div", "li", "tr":
			b.WriteString("\n")
		}
	}
	if !inHidden && n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, b, inHidden)
	}
}

func compactWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	lines := strings.Split(s, "\n")
	var out []string
	for _, ln := range lines {
		ln = strings.Join(strings.Fields(ln), " ")
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}
