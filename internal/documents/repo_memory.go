package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores documents in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu           sync.RWMutex
	byID         map[string]Document
	bySubmission map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:         make(map[string]Document),
		bySubmission: make(map[string][]string),
	}
}

// Create stores the document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[doc.ID] = doc
	r.bySubmission[doc.SubmissionID] = append(r.bySubmission[doc.SubmissionID], doc.ID)
	return nil
}

// GetByID returns a document scoped to its submission.
func (r *MemoryRepo) GetByID(ctx context.Context, submissionID, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.byID[documentID]
	if !ok || doc.SubmissionID != submissionID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListBySubmission returns a submission's documents in upload order.
func (r *MemoryRepo) ListBySubmission(ctx context.Context, submissionID string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.bySubmission[submissionID]
	out := make([]Document, 0, len(ids))
	for _, id := range ids {
		if doc, ok := r.byID[id]; ok {
			out = append(out, doc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateExtraction records the derived extracted-text key for a document.
func (r *MemoryRepo) UpdateExtraction(ctx context.Context, submissionID, documentID, extractedKey string, extractedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.byID[documentID]
	if !ok || doc.SubmissionID != submissionID {
		return ErrNotFound
	}
	doc.ExtractedTextKey = extractedKey
	doc.ExtractedAt = &extractedAt
	r.byID[documentID] = doc
	return nil
}

var _ DocumentsRepo = (*MemoryRepo)(nil)
