package usecase

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
)

// ExtractionStep is one strategy in a chain together with the predicate that
// decides whether its output is good enough to stop.
type ExtractionStep struct {
	Strategy ports.TextExtractionStrategy
	Accept   func(text string) bool
	// TolerateErrors turns a strategy failure into "try the next step".
	TolerateErrors bool
}

func acceptAny(string) bool { return true }

// MinRunes accepts text whose trimmed length is strictly above n characters.
func MinRunes(n int) func(string) bool {
	return func(text string) bool {
		return utf8.RuneCountInString(strings.TrimSpace(text)) > n
	}
}

type TextExtractor struct {
	chains  map[domain.MediaKind][]ExtractionStep
	metrics ports.PipelineMetrics
	log     *slog.Logger
}

// NewTextExtractor wires the default chains: PDFs try the text layer first
// and fall back to the vision model, images go straight to the vision model,
// everything else is decoded as UTF-8.
func NewTextExtractor(
	native ports.TextExtractionStrategy,
	vision ports.TextExtractionStrategy,
	plain ports.TextExtractionStrategy,
	pdfMinChars int,
	metrics ports.PipelineMetrics,
	logger *slog.Logger,
) *TextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	plainChain := []ExtractionStep{{Strategy: plain, Accept: acceptAny}}
	return &TextExtractor{
		chains: map[domain.MediaKind][]ExtractionStep{
			domain.MediaPDF: {
				{Strategy: native, Accept: MinRunes(pdfMinChars), TolerateErrors: true},
				{Strategy: vision, Accept: acceptAny},
			},
			domain.MediaImage: {{Strategy: vision, Accept: acceptAny}},
			domain.MediaText:  plainChain,
			domain.MediaOther: plainChain,
		},
		metrics: metrics,
		log:     logger,
	}
}

// Extract walks the chain for the declared media type and returns the first
// accepted text. An exhausted chain yields an empty string.
func (e *TextExtractor) Extract(ctx context.Context, content []byte, mediaType string) (string, error) {
	kind := domain.ClassifyMediaType(mediaType)
	for _, step := range e.chains[kind] {
		name := step.Strategy.Name()
		text, err := step.Strategy.Extract(ctx, content, mediaType)
		if err != nil {
			if !step.TolerateErrors {
				e.record(name, "error")
				return "", err
			}
			e.record(name, "failed")
			e.log.Info("extraction_attempt",
				"strategy", name,
				"media_type", mediaType,
				"outcome", "failed",
				"error", err,
			)
			continue
		}

		text = strings.TrimSpace(text)
		if step.Accept(text) {
			e.record(name, "accepted")
			e.log.Info("extraction_attempt",
				"strategy", name,
				"media_type", mediaType,
				"outcome", "accepted",
				"text_len", len(text),
			)
			return text, nil
		}
		e.record(name, "rejected")
		e.log.Info("extraction_attempt",
			"strategy", name,
			"media_type", mediaType,
			"outcome", "rejected",
			"text_len", len(text),
		)
	}
	return "", nil
}

func (e *TextExtractor) record(strategy, outcome string) {
	if e.metrics != nil {
		e.metrics.RecordExtractionAttempt(strategy, outcome)
	}
}
