package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dealrisk-backend/internal/assessment/report"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const submissionColumns = `id, state, company, deal_context, deal_notes, chunks, assessments, round1, round2, report, error_code, error_message, error_step, error_attempts, created_at, updated_at, completed_at`

// Create inserts a new submission row.
func (r *PGRepo) Create(ctx context.Context, sub Submission) error {
	row, err := encodeSubmission(sub)
	if err != nil {
		return err
	}
	const query = `
INSERT INTO submissions (` + submissionColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = r.DB.ExecContext(ctx, query,
		row.id, row.state, row.company, row.dealContext, row.dealNotes,
		row.chunks, row.assessments, row.round1, row.round2, row.report,
		row.errorCode, row.errorMessage, row.errorStep, row.errorAttempts,
		row.createdAt, row.updatedAt, row.completedAt,
	)
	return err
}

// GetByID returns the submission with the given id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Submission, error) {
	const query = `
SELECT ` + submissionColumns + `
FROM submissions
WHERE id = $1
LIMIT 1`
	sub, err := scanSubmission(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	return sub, err
}

// Update replaces the submission row if its stored state still matches the
// state the caller last observed.
func (r *PGRepo) Update(ctx context.Context, sub Submission, expected State) error {
	row, err := encodeSubmission(sub)
	if err != nil {
		return err
	}
	const query = `
UPDATE submissions
SET state = $1, company = $2, deal_context = $3, deal_notes = $4,
    chunks = $5, assessments = $6, round1 = $7, round2 = $8, report = $9,
    error_code = $10, error_message = $11, error_step = $12, error_attempts = $13,
    updated_at = $14, completed_at = $15
WHERE id = $16 AND state = $17`
	res, err := r.DB.ExecContext(ctx, query,
		row.state, row.company, row.dealContext, row.dealNotes,
		row.chunks, row.assessments, row.round1, row.round2, row.report,
		row.errorCode, row.errorMessage, row.errorStep, row.errorAttempts,
		row.updatedAt, row.completedAt,
		row.id, string(expected),
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, sub.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrStateConflict
	}
	return nil
}

type submissionRow struct {
	id            string
	state         string
	company       []byte
	dealContext   []byte
	dealNotes     string
	chunks        []byte
	assessments   []byte
	round1        []byte
	round2        []byte
	report        []byte
	errorCode     sql.NullString
	errorMessage  sql.NullString
	errorStep     sql.NullString
	errorAttempts sql.NullInt64
	createdAt     sql.NullTime
	updatedAt     sql.NullTime
	completedAt   sql.NullTime
}

func encodeSubmission(sub Submission) (submissionRow, error) {
	row := submissionRow{
		id:        sub.ID,
		state:     string(sub.State),
		dealNotes: sub.DealNotes,
	}
	var err error
	if row.company, err = json.Marshal(sub.Company); err != nil {
		return submissionRow{}, fmt.Errorf("encode company: %w", err)
	}
	if row.dealContext, err = json.Marshal(sub.Deal); err != nil {
		return submissionRow{}, fmt.Errorf("encode deal context: %w", err)
	}
	if row.chunks, err = marshalNullable(sub.Chunks, len(sub.Chunks) == 0); err != nil {
		return submissionRow{}, fmt.Errorf("encode chunks: %w", err)
	}
	if row.assessments, err = marshalNullable(sub.Assessments, len(sub.Assessments) == 0); err != nil {
		return submissionRow{}, fmt.Errorf("encode assessments: %w", err)
	}
	if row.round1, err = marshalNullable(sub.Round1, sub.Round1 == nil); err != nil {
		return submissionRow{}, fmt.Errorf("encode round1: %w", err)
	}
	if row.round2, err = marshalNullable(sub.Round2, sub.Round2 == nil); err != nil {
		return submissionRow{}, fmt.Errorf("encode round2: %w", err)
	}
	if row.report, err = marshalNullable(sub.Report, sub.Report == nil); err != nil {
		return submissionRow{}, fmt.Errorf("encode report: %w", err)
	}
	if sub.Failure != nil {
		row.errorCode = sql.NullString{String: sub.Failure.Code, Valid: true}
		row.errorMessage = sql.NullString{String: sub.Failure.Message, Valid: true}
		row.errorStep = sql.NullString{String: sub.Failure.Step, Valid: true}
		row.errorAttempts = sql.NullInt64{Int64: int64(sub.Failure.Attempts), Valid: true}
	}
	row.createdAt = sql.NullTime{Time: sub.CreatedAt, Valid: true}
	row.updatedAt = sql.NullTime{Time: sub.UpdatedAt, Valid: true}
	if sub.CompletedAt != nil {
		row.completedAt = sql.NullTime{Time: *sub.CompletedAt, Valid: true}
	}
	return row, nil
}

func marshalNullable(v any, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var raw submissionRow
	if err := row.Scan(
		&raw.id, &raw.state, &raw.company, &raw.dealContext, &raw.dealNotes,
		&raw.chunks, &raw.assessments, &raw.round1, &raw.round2, &raw.report,
		&raw.errorCode, &raw.errorMessage, &raw.errorStep, &raw.errorAttempts,
		&raw.createdAt, &raw.updatedAt, &raw.completedAt,
	); err != nil {
		return Submission{}, err
	}

	sub := Submission{
		ID:        raw.id,
		State:     State(raw.state),
		DealNotes: raw.dealNotes,
	}
	if len(raw.company) > 0 {
		if err := json.Unmarshal(raw.company, &sub.Company); err != nil {
			return Submission{}, fmt.Errorf("decode company: %w", err)
		}
	}
	if len(raw.dealContext) > 0 {
		if err := json.Unmarshal(raw.dealContext, &sub.Deal); err != nil {
			return Submission{}, fmt.Errorf("decode deal context: %w", err)
		}
	}
	if len(raw.chunks) > 0 {
		if err := json.Unmarshal(raw.chunks, &sub.Chunks); err != nil {
			return Submission{}, fmt.Errorf("decode chunks: %w", err)
		}
	}
	if len(raw.assessments) > 0 {
		if err := json.Unmarshal(raw.assessments, &sub.Assessments); err != nil {
			return Submission{}, fmt.Errorf("decode assessments: %w", err)
		}
	}
	if len(raw.round1) > 0 {
		sub.Round1 = new(Round)
		if err := json.Unmarshal(raw.round1, sub.Round1); err != nil {
			return Submission{}, fmt.Errorf("decode round1: %w", err)
		}
	}
	if len(raw.round2) > 0 {
		sub.Round2 = new(Round)
		if err := json.Unmarshal(raw.round2, sub.Round2); err != nil {
			return Submission{}, fmt.Errorf("decode round2: %w", err)
		}
	}
	if len(raw.report) > 0 {
		sub.Report = new(report.Report)
		if err := json.Unmarshal(raw.report, sub.Report); err != nil {
			return Submission{}, fmt.Errorf("decode report: %w", err)
		}
	}
	if raw.errorCode.Valid || raw.errorMessage.Valid {
		sub.Failure = &Failure{
			Code:     raw.errorCode.String,
			Message:  raw.errorMessage.String,
			Step:     raw.errorStep.String,
			Attempts: int(raw.errorAttempts.Int64),
		}
	}
	sub.CreatedAt = raw.createdAt.Time
	sub.UpdatedAt = raw.updatedAt.Time
	if raw.completedAt.Valid {
		t := raw.completedAt.Time
		sub.CompletedAt = &t
	}
	return sub, nil
}

var _ Repo = (*PGRepo)(nil)
