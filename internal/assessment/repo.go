package assessment

import "context"

// Repo defines persistence operations for submissions. Update takes the state
// the caller last observed; a mismatch at write time returns ErrStateConflict
// so concurrent step execution cannot silently overwrite progress.
type Repo interface {
	Create(ctx context.Context, sub Submission) error
	GetByID(ctx context.Context, id string) (Submission, error)
	Update(ctx context.Context, sub Submission, expected State) error
}
