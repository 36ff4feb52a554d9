// Package ocr provides the scanned-page fallback engine invoked when a
// PDF's embedded text layer is too small to trust.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/jasonaskew/docugraph/pkg/errs"
)

// DPI is the rasterization density OCR fallback pages are rendered at.
const DPI = 300

// Engine recognizes text in a single rendered page image. Swapping in a
// real vision model means implementing this interface; nothing upstream
// of it needs to change.
type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// TesseractEngine shells out to the tesseract CLI binary, the same way
// page text extraction shells out to pdftotext/pdftoppm rather than
// linking a PDF or OCR library directly.
type TesseractEngine struct {
	Lang string
}

// NewTesseractEngine returns a TesseractEngine using lang (e.g. "eng"). An
// empty lang defaults to "eng".
func NewTesseractEngine(lang string) *TesseractEngine {
	if lang == "" {
		lang = "eng"
	}
	return &TesseractEngine{Lang: lang}
}

func (t *TesseractEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return "", errs.New("ocr", errs.Unreadable, fmt.Errorf("tesseract not found in PATH: %w", err))
	}

	tmp, err := os.CreateTemp("", "docugraph-ocr-*.png")
	if err != nil {
		return "", errs.New("ocr", errs.Unreadable, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", errs.New("ocr", errs.Unreadable, err)
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, "tesseract", tmp.Name(), "stdout", "-l", t.Lang)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", errs.New("ocr", errs.TimeoutExceeded, ctx.Err())
		}
		return "", errs.New("ocr", errs.Unreadable, fmt.Errorf("tesseract: %w: %s", err, bytes.TrimSpace(stderr.Bytes())))
	}

	return stdout.String(), nil
}

// NullEngine always reports no recognizable text; it lets ingestion pin
// down the "no OCR configured" failure path without requiring tesseract to
// be installed.
type NullEngine struct{}

func (NullEngine) Recognize(context.Context, []byte) (string, error) {
	return "", nil
}
