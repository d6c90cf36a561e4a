package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
)

// PDFExtractor pulls text out of native (non-scanned) PDF documents and runs
// the line parsers over it.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract decodes the PDF, concatenates the text of every page and parses
// transaction candidates from it. Scanned PDFs with no text layer yield an
// empty document error; callers should route those through OCR instead.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte, docCtx model.Context) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := pdfText(data)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("pdf has no text layer: %w", common.ErrEmptyDocument)
	}

	return candidatesFromText(text, docCtx, model.SourcePDF), nil
}

// pdfText extracts text page by page. GetTextByRow preserves statement table
// layout best; GetPlainText is the fallback for pages it cannot handle. The
// library panics on some malformed files, so the whole walk runs under a
// recover.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText := pageTextByRow(page)
		if pageText == "" {
			pageText = pagePlainText(page)
		}
		if pageText == "" {
			continue
		}

		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		// One more attempt through the whole-document path.
		plain, plainErr := reader.GetPlainText()
		if plainErr != nil {
			return "", nil
		}
		raw, readErr := io.ReadAll(plain)
		if readErr != nil {
			return "", nil
		}
		return string(raw), nil
	}

	return sb.String(), nil
}

func pageTextByRow(page pdf.Page) string {
	rows, err := page.GetTextByRow()
	if err != nil {
		return ""
	}

	var lines []string
	for _, row := range rows {
		var parts []string
		for _, word := range row.Content {
			parts = append(parts, word.S)
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func pagePlainText(page pdf.Page) string {
	fonts := make(map[string]*pdf.Font)
	for _, name := range page.Fonts() {
		f := page.Font(name)
		fonts[name] = &f
	}

	text, err := page.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
