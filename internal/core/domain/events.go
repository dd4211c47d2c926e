package domain

import "time"

type DocumentExtractedEvent struct {
	DocumentID  string       `json:"document_id"`
	SessionID   string       `json:"session_id"`
	Filename    string       `json:"filename"`
	MediaType   string       `json:"media_type"`
	TextLength  int          `json:"text_length"`
	Fields      FieldsResult `json:"fields"`
	ExtractedAt time.Time    `json:"extracted_at"`
}

func NewDocumentExtractedEvent(sessionID string, doc DocumentRecord) DocumentExtractedEvent {
	return DocumentExtractedEvent{
		DocumentID:  doc.ID,
		SessionID:   sessionID,
		Filename:    doc.Filename,
		MediaType:   doc.MediaType,
		TextLength:  len(doc.Text),
		Fields:      doc.Fields,
		ExtractedAt: doc.UploadedAt,
	}
}
