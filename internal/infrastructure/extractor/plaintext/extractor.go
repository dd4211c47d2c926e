package plaintext

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extractor decodes raw bytes as UTF-8 text.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Name() string {
	return "plaintext"
}

// Extract never fails: undecodable input yields an empty string and the
// caller decides whether empty text is acceptable.
func (e *Extractor) Extract(_ context.Context, content []byte, _ string) (string, error) {
	raw := bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(raw) {
		return "", nil
	}
	return strings.TrimSpace(string(raw)), nil
}
