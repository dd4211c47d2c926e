package plaintext

import (
	"context"
	"testing"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name    string
		content []byte
		want    string
	}{
		{name: "plain", content: []byte("Name: Jane Doe, Loan: 5000\n"), want: "Name: Jane Doe, Loan: 5000"},
		{name: "bom", content: append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello")...), want: "hello"},
		{name: "whitespace", content: []byte(" \n\t "), want: ""},
		{name: "empty", content: nil, want: ""},
		{name: "invalid utf8", content: []byte{0xff, 0xfe, 0xfd}, want: ""},
	}

	extractor := NewExtractor()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractor.Extract(context.Background(), tc.content, "text/plain")
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
