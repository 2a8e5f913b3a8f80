package documents

import "time"

// DocumentResponse is the API shape for a document.
type DocumentResponse struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	TextExtracted bool      `json:"textExtracted"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toResponse(doc Document) DocumentResponse {
	return DocumentResponse{
		ID:            doc.ID,
		FileName:      doc.FileName,
		MimeType:      doc.MimeType,
		SizeBytes:     doc.SizeBytes,
		TextExtracted: doc.ExtractedTextKey != "",
		CreatedAt:     doc.CreatedAt,
	}
}
