package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"dealrisk-backend/internal/extract"
	"dealrisk-backend/internal/shared/storage/object"
)

// MaxUploadBytes caps individual uploads at 5 MB, matching the wizard's limit.
const MaxUploadBytes = 5 << 20

// ErrFileTooLarge is returned when an upload exceeds MaxUploadBytes.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// Service contains business logic for submission documents.
type Service struct {
	Store object.ObjectStore
	Repo  DocumentsRepo
}

// Upload stores the file, records the document, and extracts its text when the
// format carries a text layer. The extracted text (possibly empty for images)
// is returned alongside the document record.
func (s *Service) Upload(ctx context.Context, submissionID, fileName string, r io.Reader) (Document, string, error) {
	if strings.TrimSpace(fileName) == "" {
		return Document{}, "", ErrInvalidInput
	}

	limited := io.LimitReader(r, MaxUploadBytes+1)
	storageKey, size, mimeType, err := s.Store.Save(ctx, submissionID, fileName, limited)
	if err != nil {
		return Document{}, "", err
	}
	if size > MaxUploadBytes {
		return Document{}, "", ErrFileTooLarge
	}
	if !extract.Allowed(mimeType) {
		return Document{}, "", fmt.Errorf("%w: %s", extract.ErrUnsupportedType, mimeType)
	}

	doc := Document{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		FileName:     fileName,
		MimeType:     mimeType,
		SizeBytes:    size,
		StorageKey:   storageKey,
		CreatedAt:    time.Now().UTC(),
	}

	text, err := extract.ExtractText(ctx, s.Store, storageKey, mimeType, fileName)
	switch {
	case err == nil:
		doc.ExtractedTextKey = storageKey + ".extracted.txt"
		now := time.Now().UTC()
		doc.ExtractedAt = &now
	case errors.Is(err, extract.ErrNoTextLayer):
		// Images are kept for the record; their text arrives via OCR later.
		text = ""
	default:
		return Document{}, "", err
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, "", err
	}

	return doc, text, nil
}

// List returns all documents attached to a submission.
func (s *Service) List(ctx context.Context, submissionID string) ([]Document, error) {
	if submissionID == "" {
		return nil, errors.New("submission id required")
	}
	return s.Repo.ListBySubmission(ctx, submissionID)
}
