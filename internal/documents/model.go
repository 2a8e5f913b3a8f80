package documents

import "time"

// Document represents an uploaded file attached to a submission.
type Document struct {
	ID               string
	SubmissionID     string
	FileName         string
	MimeType         string
	SizeBytes        int64
	StorageKey       string
	ExtractedTextKey string
	ExtractedAt      *time.Time
	CreatedAt        time.Time
}
