package assessment

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("submission not found")
	ErrStateConflict     = errors.New("submission state changed concurrently")
	ErrInvalidTransition = errors.New("operation not allowed in current state")
)

const (
	ErrorCodeValidation  = "VALIDATION_ERROR"
	ErrorCodeAnalysis    = "ANALYSIS_ERROR"
	ErrorCodeGeneration  = "GENERATION_ERROR"
	ErrorCodePersistence = "PERSISTENCE_ERROR"
	ErrorCodeInternal    = "INTERNAL_ERROR"
)

// ValidationError signals caller-supplied data that is incomplete or
// malformed. Surfaced immediately, never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// AnalysisError signals a reasoning-service failure during chunk analysis
// after bounded retries were exhausted.
type AnalysisError struct {
	Step     string
	Attempts int
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed at %s after %d attempts: %v", e.Step, e.Attempts, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// GenerationError signals that question generation did not yield the required
// number of parseable questions, or failed outright.
type GenerationError struct {
	Round int
	Got   int
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("round %d generation failed: %v", e.Round, e.Err)
	}
	return fmt.Sprintf("round %d generation returned %d parseable questions, need %d", e.Round, e.Got, QuestionsPerRound)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PersistenceError signals a session-store failure. Retryable by the caller;
// in-progress answers must never be silently lost.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// CodeFor maps a step failure to its stable error code.
func CodeFor(err error) string {
	var vErr *ValidationError
	var aErr *AnalysisError
	var gErr *GenerationError
	var pErr *PersistenceError
	switch {
	case errors.As(err, &vErr):
		return ErrorCodeValidation
	case errors.As(err, &gErr):
		return ErrorCodeGeneration
	case errors.As(err, &aErr):
		return ErrorCodeAnalysis
	case errors.As(err, &pErr):
		return ErrorCodePersistence
	default:
		return ErrorCodeInternal
	}
}
