package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rafaelqm/concilia/internal/common"
	"github.com/rafaelqm/concilia/internal/model"
)

// OCRExtractor recognizes text in photographed or scanned receipts using the
// tesseract binary, then runs the same line parsers as the PDF path. Requires
// tesseract-ocr with the Portuguese language pack installed.
type OCRExtractor struct {
	// Language passed to tesseract via -l. Defaults to Portuguese.
	Language string
	// PageSegMode passed via --psm. 6 assumes a uniform block of text,
	// which fits receipt screenshots well.
	PageSegMode string
}

// NewOCRExtractor creates an image extractor with Portuguese defaults.
func NewOCRExtractor() *OCRExtractor {
	return &OCRExtractor{Language: "por", PageSegMode: "6"}
}

// Extract writes the image to a temp file, OCRs it and parses transaction
// candidates from the recognized text.
func (e *OCRExtractor) Extract(ctx context.Context, data []byte, docCtx model.Context) (*Result, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return nil, fmt.Errorf("tesseract not available (install tesseract-ocr): %w", err)
	}

	text, err := e.recognize(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("running ocr: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("ocr produced no text: %w", common.ErrEmptyDocument)
	}

	return candidatesFromText(text, docCtx, model.SourceOCR), nil
}

// recognize shells out to tesseract. The binary only reads files, so the
// image bytes go through a temp directory that is removed afterwards.
func (e *OCRExtractor) recognize(ctx context.Context, data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "concilia-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imgPath := filepath.Join(tmpDir, "input.png")
	if err := os.WriteFile(imgPath, data, 0o600); err != nil {
		return "", fmt.Errorf("writing image: %w", err)
	}

	// tesseract appends .txt to the output base itself.
	outBase := filepath.Join(tmpDir, "output")
	cmd := exec.CommandContext(ctx, "tesseract", imgPath, outBase,
		"-l", e.Language, "--psm", e.PageSegMode)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (output: %s)", err, strings.TrimSpace(string(out)))
	}

	recognized, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("reading ocr output: %w", err)
	}

	return string(recognized), nil
}
