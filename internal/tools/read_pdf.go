package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	pdfx "github.com/ledongthuc/pdf"
)

// ReadPDFTool extracts plain text from a PDF in the workspace.
type ReadPDFTool struct {
	Files *FileManagerTool
}

func (t *ReadPDFTool) Name() string { return "read_pdf" }

func (t *ReadPDFTool) Description() string {
	return "Extract text from a PDF file in the workspace. Args: {\"path\": string, \"max_pages\": int (optional, default 20)}."
}

func (t *ReadPDFTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	rel, _ := args["path"].(string)
	if rel == "" {
		return "", fmt.Errorf("read_pdf: missing path")
	}
	path, err := t.Files.resolve(rel)
	if err != nil {
		return "", err
	}
	maxPages := getInt(args, "max_pages", 20)

	f, r, err := pdfx.Open(path)
	if err != nil {
		return "", fmt.Errorf("read_pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := total
	if pages > maxPages {
		pages = maxPages
	}
	var out strings.Builder
	for i := 1; i <= pages; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		txt, _ := r.Page(i).GetPlainText(nil)
		if s := strings.TrimSpace(txt); s != "" {
			out.WriteString(s)
			out.WriteString("\n\n")
		}
	}
	return fmt.Sprintf("Success - extracted %d/%d pages:\n%s", pages, total, strings.TrimSpace(out.String())), nil
}

func getInt(m map[string]any, key string, def int) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		case string:
			if n, err := strconv.Atoi(t); err == nil {
				return n
			}
		}
	}
	return def
}
