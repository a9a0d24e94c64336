package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

const maxDocumentBytes = 20 << 20

var (
	reTOC          = regexp.MustCompile(`(?im)^.*table of contents.*$`)
	rePageNumber   = regexp.MustCompile(`(?im)^\s*page[^\d\n]*\d+\s*$`)
	reSpecialLines = regexp.MustCompile(`(?m)^[\s\W\d]*$`)
	reMultiNewLine = regexp.MustCompile(`\n{2,}`)
)

// PDFReader downloads lesson documents and extracts their text.
type PDFReader struct {
	client *http.Client
}

func NewPDFReader(timeout time.Duration) *PDFReader {
	return &PDFReader{client: &http.Client{Timeout: timeout}}
}

func (r *PDFReader) ReadText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build document request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download document: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	text, err := ExtractTextFromPDF(data)
	if err != nil {
		return "", err
	}
	return CleanDocumentText(text), nil
}

// ExtractTextFromPDF concatenates the plain text of every page. Pages that
// fail to decode are skipped.
func ExtractTextFromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// CleanDocumentText drops tables of contents, page numbers and blank or
// symbol-only lines.
func CleanDocumentText(text string) string {
	cleaned := reTOC.ReplaceAllString(text, "")
	cleaned = rePageNumber.ReplaceAllString(cleaned, "")
	cleaned = reSpecialLines.ReplaceAllString(cleaned, "")
	cleaned = reMultiNewLine.ReplaceAllString(cleaned, "\n")
	return strings.TrimSpace(cleaned)
}
