package documents

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")
)

// DocumentsRepo defines persistence operations for documents.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, submissionID, documentID string) (Document, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]Document, error)
	UpdateExtraction(ctx context.Context, submissionID, documentID, extractedKey string, extractedAt time.Time) error
}
