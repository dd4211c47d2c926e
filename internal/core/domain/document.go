package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// Field names the extractor asks the model for, in prompt order.
const (
	FieldCustomerName   = "Customer Name"
	FieldLoanAmount     = "Loan Amount"
	FieldPANAadhaar     = "PAN/Aadhaar"
	FieldLoanTenure     = "Loan Tenure"
	FieldCollateralType = "Collateral Type"
)

// RawFieldsKey holds the verbatim model reply when it could not be parsed.
const RawFieldsKey = "raw"

func ExtractionFieldNames() []string {
	return []string{
		FieldCustomerName,
		FieldLoanAmount,
		FieldPANAadhaar,
		FieldLoanTenure,
		FieldCollateralType,
	}
}

type MediaKind string

const (
	MediaText  MediaKind = "text"
	MediaPDF   MediaKind = "pdf"
	MediaImage MediaKind = "image"
	MediaOther MediaKind = "other"
)

// ClassifyMediaType maps a declared MIME type onto the extraction chain it selects.
func ClassifyMediaType(mediaType string) MediaKind {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	switch {
	case mt == "application/pdf":
		return MediaPDF
	case strings.HasPrefix(mt, "image/"):
		return MediaImage
	case mt == "text/plain":
		return MediaText
	default:
		return MediaOther
	}
}

// UploadAllowed reports whether the upload boundary accepts the declared type.
func UploadAllowed(mediaType string) bool {
	return ClassifyMediaType(mediaType) != MediaOther
}

type FieldsKind string

const (
	FieldsObject FieldsKind = "object"
	FieldsRaw    FieldsKind = "raw"
)

// FieldsResult is the outcome of field extraction: either a parsed JSON object
// or the trimmed model reply kept verbatim.
type FieldsResult struct {
	Kind   FieldsKind
	Object map[string]any
	Raw    string
}

func ObjectFields(obj map[string]any) FieldsResult {
	if obj == nil {
		obj = map[string]any{}
	}
	return FieldsResult{Kind: FieldsObject, Object: obj}
}

func RawFields(text string) FieldsResult {
	return FieldsResult{Kind: FieldsRaw, Raw: strings.TrimSpace(text)}
}

// AsMap renders the result the way it is exposed over the API.
func (r FieldsResult) AsMap() map[string]any {
	if r.Kind == FieldsRaw {
		return map[string]any{RawFieldsKey: r.Raw}
	}
	if r.Object == nil {
		return map[string]any{}
	}
	return r.Object
}

func (r FieldsResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.AsMap())
}

// UnmarshalJSON restores a result persisted by MarshalJSON. A lone string
// "raw" key is read back as the raw fallback.
func (r *FieldsResult) UnmarshalJSON(data []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if raw, ok := obj[RawFieldsKey].(string); ok && len(obj) == 1 {
		*r = FieldsResult{Kind: FieldsRaw, Raw: raw}
		return nil
	}
	*r = ObjectFields(obj)
	return nil
}

// DocumentRecord is the document currently attached to a session.
type DocumentRecord struct {
	ID         string       `json:"id"`
	Filename   string       `json:"filename"`
	MediaType  string       `json:"media_type"`
	Text       string       `json:"text"`
	Fields     FieldsResult `json:"fields"`
	UploadedAt time.Time    `json:"uploaded_at"`
}

type UploadRequest struct {
	Filename  string
	MediaType string
	Content   []byte
}
