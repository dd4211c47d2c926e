package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
	"github.com/riyazashik07/ai-document-analyser/internal/core/ports"
)

type SchemaMode string

const (
	SchemaOff    SchemaMode = "off"
	SchemaCoerce SchemaMode = "coerce"
	SchemaStrict SchemaMode = "strict"
)

func ParseSchemaMode(raw string) (SchemaMode, error) {
	switch mode := SchemaMode(strings.ToLower(strings.TrimSpace(raw))); mode {
	case "", SchemaOff:
		return SchemaOff, nil
	case SchemaCoerce, SchemaStrict:
		return mode, nil
	default:
		return "", domain.WrapError(domain.ErrConfiguration, "parse schema mode", fmt.Errorf("unknown FIELDS_SCHEMA_MODE %q", raw))
	}
}

var fencedBlockPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

type FieldExtractor struct {
	model     ports.LanguageModel
	mode      SchemaMode
	validator ports.FieldsValidator
	metrics   ports.PipelineMetrics
	log       *slog.Logger
}

// Strict mode without a validator falls back to coerce.
func NewFieldExtractor(
	model ports.LanguageModel,
	mode SchemaMode,
	validator ports.FieldsValidator,
	metrics ports.PipelineMetrics,
	logger *slog.Logger,
) *FieldExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	if mode == SchemaStrict && validator == nil {
		mode = SchemaCoerce
	}
	if mode == "" {
		mode = SchemaOff
	}
	return &FieldExtractor{
		model:     model,
		mode:      mode,
		validator: validator,
		metrics:   metrics,
		log:       logger,
	}
}

func (fe *FieldExtractor) Extract(ctx context.Context, documentText string) (domain.FieldsResult, error) {
	reply, err := fe.model.GenerateText(ctx, BuildFieldsPrompt(documentText))
	if err != nil {
		return domain.FieldsResult{}, err
	}

	result := ParseFieldsReply(reply)
	if result.Kind == domain.FieldsObject {
		switch fe.mode {
		case SchemaCoerce:
			result = domain.ObjectFields(CoerceFields(result.Object))
		case SchemaStrict:
			if err := fe.validator.Validate(result.Object); err != nil {
				fe.log.Warn("fields_schema_mismatch", "error", err)
				result = domain.RawFields(reply)
			}
		}
	}

	if fe.metrics != nil {
		fe.metrics.RecordFieldsParse(string(result.Kind))
	}
	fe.log.Info("fields_parsed", "kind", string(result.Kind), "schema_mode", string(fe.mode), "reply_len", len(reply))
	return result, nil
}

func BuildFieldsPrompt(documentText string) string {
	keys := make([]string, 0, len(domain.ExtractionFieldNames()))
	for _, name := range domain.ExtractionFieldNames() {
		keys = append(keys, strconv.Quote(name))
	}

	var b strings.Builder
	b.WriteString("Extract the following fields from the document below and return ONLY a JSON object with exactly these keys: ")
	b.WriteString(strings.Join(keys, ", "))
	b.WriteString(".\n")
	b.WriteString("Use an empty string for any field that is not present in the document. Do not add any other keys or commentary.\n\n")
	b.WriteString("Document:\n")
	b.WriteString(documentText)
	return b.String()
}

// ParseFieldsReply reads a model reply as a JSON object, then as the first
// fenced code block, and otherwise keeps the trimmed reply verbatim.
func ParseFieldsReply(reply string) domain.FieldsResult {
	trimmed := strings.TrimSpace(reply)
	if obj, ok := decodeObject(trimmed); ok {
		return domain.ObjectFields(obj)
	}
	if m := fencedBlockPattern.FindStringSubmatch(trimmed); m != nil {
		if obj, ok := decodeObject(m[1]); ok {
			return domain.ObjectFields(obj)
		}
	}
	return domain.RawFields(reply)
}

func decodeObject(raw string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// CoerceFields projects obj onto the fixed field names. Missing or null
// values become "", other non-string values are rendered as text.
func CoerceFields(obj map[string]any) map[string]any {
	out := make(map[string]any, len(domain.ExtractionFieldNames()))
	for _, name := range domain.ExtractionFieldNames() {
		out[name] = stringify(obj[name])
	}
	return out
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
