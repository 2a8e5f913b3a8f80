package assessment

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryRepo stores submissions in memory and is safe for concurrent use.
// Values are deep-copied through JSON so callers never share slices or
// pointers with the store.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Submission
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Submission)}
}

func cloneSubmission(sub Submission) Submission {
	data, err := json.Marshal(sub)
	if err != nil {
		return sub
	}
	var out Submission
	if err := json.Unmarshal(data, &out); err != nil {
		return sub
	}
	return out
}

// Create stores the submission.
func (r *MemoryRepo) Create(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[sub.ID] = cloneSubmission(sub)
	return nil
}

// GetByID returns the submission with the given id.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.byID[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return cloneSubmission(sub), nil
}

// Update replaces the stored submission if its current state matches the one
// the caller last observed.
func (r *MemoryRepo) Update(ctx context.Context, sub Submission, expected State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[sub.ID]
	if !ok {
		return ErrNotFound
	}
	if current.State != expected {
		return ErrStateConflict
	}
	r.byID[sub.ID] = cloneSubmission(sub)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
