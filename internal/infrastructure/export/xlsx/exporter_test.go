package xlsx

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/riyazashik07/ai-document-analyser/internal/core/domain"
)

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	return rows
}

func TestExportFieldsWritesFixedFieldsInOrder(t *testing.T) {
	doc := &domain.DocumentRecord{
		ID:        "d1",
		Filename:  "loan.pdf",
		MediaType: "application/pdf",
		Fields: domain.ObjectFields(map[string]any{
			"Collateral Type": "Gold",
			"Customer Name":   "Jane Doe",
			"Loan Amount":     "5000",
			"Branch":          "Pune",
		}),
		UploadedAt: time.Date(2026, 4, 5, 6, 7, 8, 0, time.UTC),
	}

	data, err := NewExporter(nil).ExportFields(doc)
	if err != nil {
		t.Fatalf("ExportFields() error = %v", err)
	}
	rows := readRows(t, data)

	if rows[0][1] != "loan.pdf" || rows[2][1] != "2026-04-05T06:07:08Z" {
		t.Fatalf("unexpected header rows: %+v", rows[:3])
	}
	want := [][]string{
		{"Field", "Value"},
		{"Customer Name", "Jane Doe"},
		{"Loan Amount", "5000"},
		{"Collateral Type", "Gold"},
		{"Branch", "Pune"},
	}
	got := rows[4:]
	if len(got) != len(want) {
		t.Fatalf("expected %d field rows, got %+v", len(want), got)
	}
	for i := range want {
		if got[i][0] != want[i][0] || got[i][1] != want[i][1] {
			t.Fatalf("row %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestExportRawFields(t *testing.T) {
	doc := &domain.DocumentRecord{ID: "d1", Filename: "scan.png", Fields: domain.RawFields("model said no")}
	data, err := NewExporter(nil).ExportFields(doc)
	if err != nil {
		t.Fatalf("ExportFields() error = %v", err)
	}
	rows := readRows(t, data)
	last := rows[len(rows)-1]
	if last[0] != "raw" || last[1] != "model said no" {
		t.Fatalf("unexpected raw row: %v", last)
	}
}

func TestExportWithoutDocument(t *testing.T) {
	if _, err := NewExporter(nil).ExportFields(nil); !domain.IsKind(err, domain.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}
