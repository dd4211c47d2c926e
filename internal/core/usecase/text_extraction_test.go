package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

func newExtractorUnderTest(native, vision, plain *strategyFake, metrics *metricsFake) *TextExtractor {
	return NewTextExtractor(native, vision, plain, 50, metrics, discardLogger())
}

func TestPDFNativeTextAcceptedAboveThreshold(t *testing.T) {
	native := &strategyFake{name: "pdftext", text: strings.Repeat("a", 51)}
	vision := &strategyFake{name: "vision", text: "ocr"}
	plain := &strategyFake{name: "plaintext"}
	metrics := &metricsFake{}

	got, err := newExtractorUnderTest(native, vision, plain, metrics).Extract(context.Background(), []byte("%PDF"), "application/pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != strings.Repeat("a", 51) || vision.calls != 0 {
		t.Fatalf("expected native text without vision call, got %q (vision calls %d)", got, vision.calls)
	}
	if len(metrics.attempts) != 1 || metrics.attempts[0] != (extractionAttempt{strategy: "pdftext", outcome: "accepted"}) {
		t.Fatalf("unexpected metrics: %+v", metrics.attempts)
	}
}

func TestPDFFallsBackToVisionAtThreshold(t *testing.T) {
	// Exactly 50 characters once trimmed is not enough.
	native := &strategyFake{name: "pdftext", text: "  " + strings.Repeat("é", 50) + "  "}
	vision := &strategyFake{name: "vision", text: "scanned text"}
	plain := &strategyFake{name: "plaintext"}
	metrics := &metricsFake{}

	got, err := newExtractorUnderTest(native, vision, plain, metrics).Extract(context.Background(), []byte("%PDF"), "application/pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if got != "scanned text" {
		t.Fatalf("expected vision text, got %q", got)
	}
	want := []extractionAttempt{
		{strategy: "pdftext", outcome: "rejected"},
		{strategy: "vision", outcome: "accepted"},
	}
	if len(metrics.attempts) != 2 || metrics.attempts[0] != want[0] || metrics.attempts[1] != want[1] {
		t.Fatalf("unexpected metrics: %+v", metrics.attempts)
	}
}

func TestPDFParseErrorFallsBackToVision(t *testing.T) {
	native := &strategyFake{name: "pdftext", err: errors.New("malformed xref")}
	vision := &strategyFake{name: "vision", text: "from vision"}
	plain := &strategyFake{name: "plaintext"}

	got, err := newExtractorUnderTest(native, vision, plain, &metricsFake{}).Extract(context.Background(), []byte("%PDF"), "application/pdf")
	if err != nil || got != "from vision" {
		t.Fatalf("expected vision fallback, got %q err=%v", got, err)
	}
}

func TestVisionErrorsPropagate(t *testing.T) {
	native := &strategyFake{name: "pdftext"}
	vision := &strategyFake{name: "vision", err: domain.ErrConfiguration}
	plain := &strategyFake{name: "plaintext"}

	_, err := newExtractorUnderTest(native, vision, plain, &metricsFake{}).Extract(context.Background(), []byte("%PDF"), "application/pdf")
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestImagesSkipNativeParsing(t *testing.T) {
	native := &strategyFake{name: "pdftext", text: strings.Repeat("x", 100)}
	vision := &strategyFake{name: "vision", text: " receipt "}
	plain := &strategyFake{name: "plaintext"}

	got, err := newExtractorUnderTest(native, vision, plain, &metricsFake{}).Extract(context.Background(), []byte{0x89}, "image/png")
	if err != nil || got != "receipt" {
		t.Fatalf("expected trimmed vision text, got %q err=%v", got, err)
	}
	if native.calls != 0 || plain.calls != 0 {
		t.Fatalf("expected only vision to run, native=%d plain=%d", native.calls, plain.calls)
	}
}

func TestOtherTypesUsePlainDecode(t *testing.T) {
	native := &strategyFake{name: "pdftext"}
	vision := &strategyFake{name: "vision"}
	plain := &strategyFake{name: "plaintext", text: "hello"}

	got, err := newExtractorUnderTest(native, vision, plain, &metricsFake{}).Extract(context.Background(), []byte("hello"), "text/plain; charset=utf-8")
	if err != nil || got != "hello" {
		t.Fatalf("expected plain text, got %q err=%v", got, err)
	}
	if vision.calls != 0 {
		t.Fatalf("plain text must not reach the model")
	}
}
