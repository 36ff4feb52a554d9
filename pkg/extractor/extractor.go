// Package extractor performs page-structured text extraction from a
// PDF byte stream, with an OCR fallback for scanned documents.
package extractor

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jasonaskew/docugraph/pkg/errs"
	"github.com/jasonaskew/docugraph/pkg/extractor/ocr"
	"github.com/jasonaskew/docugraph/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// minDocumentChars is the total-text-length floor below which the OCR
// fallback engages.
const minDocumentChars = 100

// Page is a single page of extracted text.
type Page struct {
	PageNum int
	Text    string
}

// Extractor pulls page-structured text out of a PDF, falling back to OCR
// when the embedded text layer is empty or near-empty.
type Extractor struct {
	ocr     ocr.Engine
	timeout time.Duration

	group singleflight.Group
}

// New creates an Extractor. ocrEngine may be nil to disable the OCR
// fallback entirely (extraction then fails EmptyDocument on scanned PDFs).
func New(ocrEngine ocr.Engine, perDocumentTimeout time.Duration) *Extractor {
	if perDocumentTimeout <= 0 {
		perDocumentTimeout = 600 * time.Second
	}
	return &Extractor{ocr: ocrEngine, timeout: perDocumentTimeout}
}

// Extract returns the ordered, 1-indexed, contiguous page sequence for a
// PDF. filename is used only for the singleflight cache key and diagnostics.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) ([]Page, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	key := cacheKey(filename, data)
	result, err, _ := e.group.Do(key, func() (any, error) {
		return e.extractLocked(ctx, filename, data)
	})
	if err != nil {
		return nil, err
	}
	return result.([]Page), nil
}

func (e *Extractor) extractLocked(ctx context.Context, filename string, data []byte) ([]Page, error) {
	tmpDir, err := os.MkdirTemp("", "docugraph-extract-")
	if err != nil {
		return nil, errs.New("extract", errs.Unreadable, err)
	}
	defer os.RemoveAll(tmpDir)

	pdfPath := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, errs.New("extract", errs.Unreadable, err)
	}

	totalPages, err := pageCount(ctx, pdfPath)
	if err != nil {
		return nil, errs.New("extract", errs.Unreadable, err)
	}
	if totalPages <= 0 {
		return nil, errs.New("extract", errs.EmptyDocument, fmt.Errorf("%s: zero pages", filename))
	}

	pages := make([]Page, 0, totalPages)
	totalChars := 0
	for n := 1; n <= totalPages; n++ {
		text, err := extractPageText(ctx, pdfPath, n)
		if err != nil {
			return nil, errs.New("extract", errs.Unreadable, err)
		}
		pages = append(pages, Page{PageNum: n, Text: text})
		totalChars += len(strings.TrimSpace(text))
	}

	if totalChars >= minDocumentChars {
		return pages, nil
	}

	if e.ocr == nil {
		return nil, errs.New("extract", errs.EmptyDocument, fmt.Errorf("%s: %d chars across %d pages, below threshold, no OCR configured", filename, totalChars, totalPages))
	}

	logger.Info("[Extractor] Text layer too small, falling back to OCR", "file", filename, "chars", totalChars, "pages", totalPages)

	ocrPages, ocrChars, err := e.ocrFallback(ctx, pdfPath, totalPages)
	if err != nil {
		return nil, errs.New("extract", errs.Unreadable, err)
	}
	if ocrChars < minDocumentChars {
		return nil, errs.New("extract", errs.EmptyDocument, fmt.Errorf("%s: OCR yielded only %d chars", filename, ocrChars))
	}

	return ocrPages, nil
}

func (e *Extractor) ocrFallback(ctx context.Context, pdfPath string, totalPages int) ([]Page, int, error) {
	pages := make([]Page, 0, totalPages)
	total := 0
	for n := 1; n <= totalPages; n++ {
		img, err := renderPageImage(ctx, pdfPath, n, ocr.DPI)
		if err != nil {
			return nil, 0, err
		}
		text, err := e.ocr.Recognize(ctx, img)
		if err != nil {
			return nil, 0, err
		}
		pages = append(pages, Page{PageNum: n, Text: text})
		total += len(strings.TrimSpace(text))
	}
	return pages, total, nil
}

func cacheKey(filename string, data []byte) string {
	return fmt.Sprintf("%s:%d", filename, len(data))
}

var pagesRe = regexp.MustCompile(`(?m)^Pages:\s+(\d+)`)

func pageCount(ctx context.Context, pdfPath string) (int, error) {
	if _, err := exec.LookPath("pdfinfo"); err != nil {
		return 0, fmt.Errorf("pdfinfo not found in PATH: %w", err)
	}
	cmd := exec.CommandContext(ctx, "pdfinfo", pdfPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("pdfinfo failed: %w: %s", err, bytes.TrimSpace(out))
	}
	m := pagesRe.FindSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("pdfinfo output missing page count")
	}
	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, err
	}
	return n, nil
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

func extractPageText(ctx context.Context, pdfPath string, page int) (string, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return "", fmt.Errorf("pdftotext not found in PATH: %w", err)
	}
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(
		ctx,
		"pdftotext",
		"-enc", "UTF-8",
		"-eol", "unix",
		"-nopgbrk",
		"-q",
		"-f", pageStr,
		"-l", pageStr,
		pdfPath,
		"-",
	)
	cmd.Env = append(os.Environ(), "LANG=C.UTF-8", "LC_ALL=C.UTF-8")

	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return "", errs.New("extract", errs.TimeoutExceeded, ctx.Err())
	}
	if err != nil {
		return "", fmt.Errorf("pdftotext failed on page %d: %w: %s", page, err, bytes.TrimSpace(out))
	}

	text := strings.TrimSpace(string(out))
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return text, nil
}

func renderPageImage(ctx context.Context, pdfPath string, page int, dpi int) ([]byte, error) {
	if _, err := exec.LookPath("pdftoppm"); err != nil {
		return nil, fmt.Errorf("pdftoppm not found in PATH: %w", err)
	}
	tmpDir, err := os.MkdirTemp("", "docugraph-ocr-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	outPrefix := filepath.Join(tmpDir, "page")
	pageStr := strconv.Itoa(page)
	cmd := exec.CommandContext(
		ctx,
		"pdftoppm",
		"-r", strconv.Itoa(dpi),
		"-f", pageStr,
		"-l", pageStr,
		"-png",
		"-singlefile",
		pdfPath,
		outPrefix,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("pdftoppm failed on page %d: %w: %s", page, err, bytes.TrimSpace(out))
	}

	data, err := os.ReadFile(outPrefix + ".png")
	if err != nil {
		return nil, err
	}
	return data, nil
}
