// Package extract turns submitted documents into markdown-like text
// for prompt assembly. PDF parsing itself is an external collaborator
// behind the PageSource seam; the markdown conversion of extracted
// page text and tables lives here and is pure.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Page is the raw content of one document page as produced by a PDF
// text extractor: free text plus zero or more tables (rows of cells).
type Page struct {
	Text   string
	Tables [][][]string
}

// PageSource provides page-level content for a document. Implemented
// by whatever PDF library the deployment uses; tests use fixtures.
type PageSource interface {
	Pages(ctx context.Context, path string) ([]Page, error)
}

// Extractor turns a document file into markdown-like text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// DocumentExtractor extracts PDFs through a PageSource and reads
// plain-text and markdown files verbatim.
type DocumentExtractor struct {
	Source PageSource
}

// Extract returns the document rendered as markdown.
func (e *DocumentExtractor) Extract(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		if e.Source == nil {
			return "", fmt.Errorf("no page source configured for PDF extraction: %s", path)
		}
		pages, err := e.Source.Pages(ctx, path)
		if err != nil {
			return "", fmt.Errorf("failed to extract pages from %s: %w", path, err)
		}
		return PagesToMarkdown(pages), nil
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(data), nil
	}
}

// bulletMarkers are the list markers normalized to "- ".
var bulletMarkers = []string{"*", "•", "·", "-"}

// CleanTextFormatting trims each line and normalizes bullet markers to
// a uniform "- " prefix. Blank lines are preserved as paragraph breaks.
func CleanTextFormatting(text string) string {
	lines := strings.Split(text, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		s := strings.TrimSpace(line)
		switch {
		case s == "":
			cleaned = append(cleaned, "")
		case hasBulletMarker(s):
			body := strings.TrimSpace(strings.TrimLeft(s, "*•·-"))
			cleaned = append(cleaned, "- "+body)
		default:
			cleaned = append(cleaned, s)
		}
	}
	return strings.Join(cleaned, "\n") + "\n"
}

func hasBulletMarker(s string) bool {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(s, marker) {
			return true
		}
	}
	return false
}

// TableToMarkdown renders an extracted table as a pipe-table: header
// row, a "--" separator row, then data rows with empty cells rendered
// as empty strings. An empty table renders as nothing.
func TableToMarkdown(table [][]string) string {
	if len(table) == 0 {
		return ""
	}

	var sb strings.Builder
	header := table[0]

	sb.WriteString("| " + strings.Join(header, " | ") + " |\n")

	separators := make([]string, len(header))
	for i := range separators {
		separators[i] = "--"
	}
	sb.WriteString("| " + strings.Join(separators, " | ") + " |\n")

	for _, row := range table[1:] {
		sb.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return sb.String()
}

// PagesToMarkdown renders a whole document: each page gets a
// "## Page N" heading, its cleaned text, then its tables.
func PagesToMarkdown(pages []Page) string {
	var sb strings.Builder
	for i, page := range pages {
		sb.WriteString(fmt.Sprintf("\n\n## Page %d\n", i+1))
		sb.WriteString(CleanTextFormatting(page.Text))
		for _, table := range page.Tables {
			sb.WriteString("\n")
			sb.WriteString(TableToMarkdown(table))
		}
	}
	return sb.String()
}
