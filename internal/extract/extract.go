// Package extract turns source files into raw transaction candidates. Each
// supported format (PDF text, OCR image, spreadsheet, OFX) has its own
// extractor behind a common contract; a registry routes by file extension.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
)

// Result is the outcome of one extraction: the candidates produced plus
// bookkeeping the caller surfaces in its processing summary. Individual
// line/row failures are counted, not escalated.
type Result struct {
	DocumentType model.DocumentType
	Candidates   []model.RawCandidate
	SkippedLines int
}

// Extractor is the per-format extraction contract.
type Extractor interface {
	// Extract parses a whole document into raw candidates. It fails only
	// when the document itself is unusable; unparseable lines are skipped
	// and counted in the result.
	Extract(ctx context.Context, data []byte, docCtx model.Context) (*Result, error)
}

// Registry routes file extensions to extractors.
type Registry struct {
	byExtension map[string]Extractor
}

// NewRegistry builds the default registry covering every supported format.
func NewRegistry() *Registry {
	pdf := NewPDFExtractor()
	ocr := NewOCRExtractor()
	sheet := NewSpreadsheetExtractor()
	ofx := NewOFXExtractor()

	return &Registry{
		byExtension: map[string]Extractor{
			"pdf":  pdf,
			"jpg":  ocr,
			"jpeg": ocr,
			"png":  ocr,
			"csv":  sheet,
			"xlsx": sheet,
			"ofx":  ofx,
			"qfx":  ofx,
		},
	}
}

// Lookup returns the extractor for a file extension (with or without the
// leading dot).
func (r *Registry) Lookup(extension string) (Extractor, error) {
	ext := strings.ToLower(strings.TrimPrefix(extension, "."))
	extractor, ok := r.byExtension[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, extension)
	}
	return extractor, nil
}

// Extract routes a document to the extractor for its extension.
func (r *Registry) Extract(ctx context.Context, data []byte, extension string, docCtx model.Context) (*Result, error) {
	extractor, err := r.Lookup(extension)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, common.ErrEmptyDocument
	}
	return extractor.Extract(ctx, data, docCtx)
}
