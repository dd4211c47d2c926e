package xlsx

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

const sheet = "Extracted Fields"

// Exporter renders a document's extracted fields as an XLSX workbook.
type Exporter struct {
	logger *slog.Logger
}

func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

func (e *Exporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e *Exporter) FileExtension() string {
	return ".xlsx"
}

func (e *Exporter) ExportFields(doc *domain.DocumentRecord) ([]byte, error) {
	if doc == nil {
		return nil, domain.WrapError(domain.ErrNoDocument, "export fields", fmt.Errorf("document is nil"))
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][2]any{
		{"Document", doc.Filename},
		{"Media Type", doc.MediaType},
		{"Uploaded At", doc.UploadedAt.UTC().Format(time.RFC3339)},
		{"", ""},
		{"Field", "Value"},
	}
	rows = append(rows, fieldRows(doc.Fields)...)

	for i, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+1)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "B", "B", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.Info("fields_exported",
		"document_id", doc.ID,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// fieldRows lists the fixed fields first in prompt order, then any extra
// keys the model returned in alphabetical order.
func fieldRows(fields domain.FieldsResult) [][2]any {
	if fields.Kind == domain.FieldsRaw {
		return [][2]any{{domain.RawFieldsKey, fields.Raw}}
	}

	obj := fields.AsMap()
	out := make([][2]any, 0, len(obj))
	seen := make(map[string]bool, len(obj))
	for _, name := range domain.ExtractionFieldNames() {
		if v, ok := obj[name]; ok {
			out = append(out, [2]any{name, cellValue(v)})
			seen[name] = true
		}
	}

	extra := make([]string, 0)
	for k := range obj {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		out = append(out, [2]any{k, cellValue(obj[k])})
	}
	return out
}

func cellValue(v any) any {
	switch val := v.(type) {
	case nil:
		return ""
	case string, float64, bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
