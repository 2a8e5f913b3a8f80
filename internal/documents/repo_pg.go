package documents

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements DocumentsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document row.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, submission_id, file_name, mime_type, size_bytes, storage_key, extracted_text_key, extracted_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.SubmissionID,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.StorageKey,
		doc.ExtractedTextKey,
		doc.ExtractedAt,
		doc.CreatedAt,
	)
	return err
}

// GetByID returns a document scoped to its submission.
func (r *PGRepo) GetByID(ctx context.Context, submissionID, documentID string) (Document, error) {
	const query = `
SELECT id, submission_id, file_name, mime_type, size_bytes, storage_key, extracted_text_key, extracted_at, created_at
FROM documents
WHERE id = $1 AND submission_id = $2
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, documentID, submissionID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

// ListBySubmission returns a submission's documents in upload order.
func (r *PGRepo) ListBySubmission(ctx context.Context, submissionID string) ([]Document, error) {
	const query = `
SELECT id, submission_id, file_name, mime_type, size_bytes, storage_key, extracted_text_key, extracted_at, created_at
FROM documents
WHERE submission_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// UpdateExtraction records the derived extracted-text key for a document.
func (r *PGRepo) UpdateExtraction(ctx context.Context, submissionID, documentID, extractedKey string, extractedAt time.Time) error {
	const query = `
UPDATE documents SET extracted_text_key = $1, extracted_at = $2
WHERE id = $3 AND submission_id = $4`
	res, err := r.DB.ExecContext(ctx, query, extractedKey, extractedAt, documentID, submissionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var extractedKey sql.NullString
	var extractedAt sql.NullTime
	if err := row.Scan(
		&doc.ID,
		&doc.SubmissionID,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StorageKey,
		&extractedKey,
		&extractedAt,
		&doc.CreatedAt,
	); err != nil {
		return Document{}, err
	}
	doc.ExtractedTextKey = extractedKey.String
	if extractedAt.Valid {
		t := extractedAt.Time
		doc.ExtractedAt = &t
	}
	return doc, nil
}

var _ DocumentsRepo = (*PGRepo)(nil)
