package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/jasonaskew/docugraph/pkg/errs"
)

func TestExtractUnparsablePDFFailsWithTypedError(t *testing.T) {
	e := New(nil, 0)
	_, err := e.Extract(context.Background(), "nope.pdf", []byte("not a real pdf"))
	if err == nil {
		t.Fatal("expected an error for unparsable input")
	}
	var typed *errs.Error
	if !errors.As(err, &typed) {
		t.Fatalf("expected *errs.Error, got %T: %v", err, err)
	}
}

func TestCacheKeyStableForSameInput(t *testing.T) {
	a := cacheKey("doc.pdf", []byte("hello"))
	b := cacheKey("doc.pdf", []byte("hello"))
	if a != b {
		t.Fatalf("expected stable cache key, got %q vs %q", a, b)
	}
	c := cacheKey("doc.pdf", []byte("hello!"))
	if a == c {
		t.Fatal("expected cache key to change with content length")
	}
}
