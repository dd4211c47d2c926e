package vision

import (
	"context"
	"strings"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
)

const (
	PDFPrompt = "Extract all legible text from this PDF document in natural reading order, across all pages. " +
		"Return only the extracted text without commentary."
	ImagePrompt = "Perform OCR on this image. Transcribe all legible text exactly as it appears, in reading order. " +
		"Return only the transcribed text without commentary."
)

// Extractor reads text out of scanned documents and images with a
// vision-capable model.
type Extractor struct {
	model ports.LanguageModel
}

func NewExtractor(model ports.LanguageModel) *Extractor {
	return &Extractor{model: model}
}

func (e *Extractor) Name() string {
	return "vision"
}

func (e *Extractor) Extract(ctx context.Context, content []byte, mediaType string) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	prompt := ImagePrompt
	if domain.ClassifyMediaType(mediaType) == domain.MediaPDF {
		prompt = PDFPrompt
	}
	text, err := e.model.GenerateTextFromMedia(ctx, prompt, content, mediaType)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
