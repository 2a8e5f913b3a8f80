package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"dealrisk-backend/internal/assessment/report"
	"dealrisk-backend/internal/documents"
	"dealrisk-backend/internal/notify"
	"dealrisk-backend/internal/queue"
	"dealrisk-backend/internal/reasoning"
	"dealrisk-backend/internal/shared/metrics"
	"dealrisk-backend/internal/shared/storage/object"
	"dealrisk-backend/internal/shared/telemetry"
)

// Service drives a submission through the assessment workflow. Each step
// loads the submission, does its work, and persists the result with an
// optimistic state check, so the wizard tolerates arbitrary pauses between
// any two states.
type Service struct {
	Repo        Repo
	DocRepo     documents.DocumentsRepo
	Store       object.ObjectStore
	Reasoner    reasoning.Client
	Queue       queue.Client
	Notifier    notify.Notifier
	Policy      report.Policy
	MaxAttempts int
	Backoff     time.Duration
}

// CreateInput carries the user-supplied fields for a new submission.
type CreateInput struct {
	Company   CompanyInfo
	Deal      DealContext
	DealNotes string
}

// AnswerInput is one answered question submitted by the user.
type AnswerInput struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
	Note   string `json:"note,omitempty"`
}

// Create opens a new submission in the input-collection state.
func (s *Service) Create(ctx context.Context, input CreateInput) (Submission, error) {
	now := time.Now().UTC()
	sub := Submission{
		ID:        uuid.NewString(),
		State:     StateCollectingInput,
		Company:   input.Company,
		Deal:      input.Deal,
		DealNotes: strings.TrimSpace(input.DealNotes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, sub); err != nil {
		return Submission{}, &PersistenceError{Op: "create submission", Err: err}
	}
	return sub, nil
}

// Get returns a submission by ID.
func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	if id == "" {
		return Submission{}, &ValidationError{Field: "id", Reason: "is required"}
	}
	return s.Repo.GetByID(ctx, id)
}

// AttachEnriched stores externally gathered public data as the enriched
// chunk. Only allowed while input is still being collected.
func (s *Service) AttachEnriched(ctx context.Context, id, content string) (Submission, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if sub.State != StateCollectingInput {
		return Submission{}, fmt.Errorf("%w: enrichment is only accepted in state %s", ErrInvalidTransition, StateCollectingInput)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Submission{}, &ValidationError{Field: "content", Reason: "is required"}
	}
	sub.SetChunk(KindEnriched, content)
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, sub, StateCollectingInput); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

// Begin validates collected input, assembles the analysis chunks, and kicks
// off the initial analysis step. Company details and deal context may be
// backfilled from document text when the user left them blank.
func (s *Service) Begin(ctx context.Context, id string) (Submission, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if sub.State != StateCollectingInput {
		return Submission{}, fmt.Errorf("%w: assessment already started", ErrInvalidTransition)
	}

	docText, err := s.combinedDocumentText(ctx, sub.ID)
	if err != nil {
		return Submission{}, &PersistenceError{Op: "load document text", Err: err}
	}

	if (sub.Company.Empty() || sub.Deal.Empty()) && docText != "" && s.Reasoner != nil {
		s.backfillFromDocuments(ctx, &sub, docText)
	}

	if sub.Company.Empty() {
		return Submission{}, &ValidationError{Field: "company", Reason: "is required"}
	}
	if sub.Deal.Empty() && sub.DealNotes == "" {
		return Submission{}, &ValidationError{Field: "dealContext", Reason: "is required"}
	}

	companyJSON, err := json.Marshal(sub.Company)
	if err != nil {
		return Submission{}, fmt.Errorf("encode company chunk: %w", err)
	}
	contextJSON, err := json.Marshal(struct {
		DealContext
		AdditionalNotes string `json:"additionalNotes,omitempty"`
	}{sub.Deal, sub.DealNotes})
	if err != nil {
		return Submission{}, fmt.Errorf("encode context chunk: %w", err)
	}
	sub.SetChunk(KindCompany, string(companyJSON))
	sub.SetChunk(KindContext, string(contextJSON))
	if docText != "" {
		sub.SetChunk(KindDocuments, docText)
	}

	sub.State = StateInitialAnalysis
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, sub, StateCollectingInput); err != nil {
		return Submission{}, err
	}
	metrics.IncAssessmentStarted()
	s.logTransition(ctx, sub, StateCollectingInput)

	s.dispatch(ctx, sub.ID, queue.StepInitialAnalysis)
	return sub, nil
}

// RunInitialAnalysis scores every chunk and generates the first question
// round. Chunk calls run concurrently; results keep the fixed chunk order.
func (s *Service) RunInitialAnalysis(ctx context.Context, id string) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.State != StateInitialAnalysis {
		return fmt.Errorf("%w: submission is in state %s", ErrInvalidTransition, sub.State)
	}
	startedAt := time.Now().UTC()
	reasoner := s.reasonerFor(ctx, sub.ID)

	assessments := make([]ChunkAssessment, len(sub.Chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range sub.Chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			req, err := buildChunkRequest(chunk)
			if err != nil {
				return err
			}
			resp, err := reasoner.Complete(gctx, req)
			if err != nil {
				return fmt.Errorf("analyze %s chunk: %w", chunk.Kind, err)
			}
			parsed, err := parseChunkAssessment(chunk.Kind, resp)
			if err != nil {
				return err
			}
			assessments[i] = parsed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.failSubmission(ctx, sub, StateInitialAnalysis, "initial_analysis",
			&AnalysisError{Step: "initial_analysis", Attempts: s.attempts(), Err: err})
	}

	round, err := s.generateRound(ctx, reasoner, sub, 1)
	if err != nil {
		return s.failSubmission(ctx, sub, StateInitialAnalysis, "initial_analysis", err)
	}

	sub.Assessments = assessments
	sub.Round1 = &round
	sub.State = StateAwaitingRound1
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, sub, StateInitialAnalysis); err != nil {
		return s.failSubmission(ctx, sub, StateInitialAnalysis, "initial_analysis",
			&PersistenceError{Op: "store initial analysis", Err: err})
	}
	metrics.ObserveStepDurationMs(durationMs(startedAt))
	s.logTransition(ctx, sub, StateInitialAnalysis)
	return nil
}

// SubmitAnswers records the user's answers for the round currently awaiting
// input. Every question must carry a yes or no answer; clarification notes
// are optional. Completing round one schedules round-two generation;
// completing round two schedules finalization.
func (s *Service) SubmitAnswers(ctx context.Context, id string, answers []AnswerInput) (Submission, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	round := sub.ActiveRound()
	if round == nil {
		return Submission{}, fmt.Errorf("%w: no question round is awaiting answers", ErrInvalidTransition)
	}

	byIndex := make(map[int]AnswerInput, len(answers))
	for _, a := range answers {
		byIndex[a.Index] = a
	}
	for i := range round.Questions {
		q := &round.Questions[i]
		answer, ok := byIndex[q.Index]
		if !ok {
			return Submission{}, &ValidationError{Field: "answers", Reason: fmt.Sprintf("question %d is unanswered", q.Index)}
		}
		normalized := strings.ToLower(strings.TrimSpace(answer.Answer))
		if normalized != AnswerYes && normalized != AnswerNo {
			return Submission{}, &ValidationError{Field: "answers", Reason: fmt.Sprintf("question %d must be answered yes or no", q.Index)}
		}
		q.Answer = normalized
		q.Note = strings.TrimSpace(answer.Note)
	}
	now := time.Now().UTC()
	round.Completed = true
	round.CompletedAt = &now

	expected := sub.State
	var nextStep string
	if round.Number == 1 {
		sub.State = StateGeneratingRound2
		nextStep = queue.StepGenerateRound2
	} else {
		sub.State = StateFinalizing
		nextStep = queue.StepFinalize
	}
	sub.UpdatedAt = now
	if err := s.Repo.Update(ctx, sub, expected); err != nil {
		return Submission{}, err
	}
	s.logTransition(ctx, sub, expected)

	s.dispatch(ctx, sub.ID, nextStep)
	return sub, nil
}

// GenerateRound2 builds the adaptive second round from the document text and
// the user's first-round answers.
func (s *Service) GenerateRound2(ctx context.Context, id string) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.State != StateGeneratingRound2 {
		return fmt.Errorf("%w: submission is in state %s", ErrInvalidTransition, sub.State)
	}
	startedAt := time.Now().UTC()

	round, err := s.generateRound(ctx, s.reasonerFor(ctx, sub.ID), sub, 2)
	if err != nil {
		return s.failSubmission(ctx, sub, StateGeneratingRound2, "generate_round2", err)
	}

	sub.Round2 = &round
	sub.State = StateAwaitingRound2
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, sub, StateGeneratingRound2); err != nil {
		return s.failSubmission(ctx, sub, StateGeneratingRound2, "generate_round2",
			&PersistenceError{Op: "store round two", Err: err})
	}
	metrics.ObserveStepDurationMs(durationMs(startedAt))
	s.logTransition(ctx, sub, StateGeneratingRound2)
	return nil
}

// Finalize aggregates all assessments and answers into the final report and
// completes the submission.
func (s *Service) Finalize(ctx context.Context, id string) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.State != StateFinalizing {
		return fmt.Errorf("%w: submission is in state %s", ErrInvalidTransition, sub.State)
	}
	startedAt := time.Now().UTC()

	input := report.Input{
		SubmissionID: sub.ID,
		CompanyName:  sub.Company.Name,
		DealSummary:  dealSummary(sub.Deal, sub.DealNotes),
		GeneratedAt:  startedAt,
	}
	for _, kind := range ChunkOrder {
		for _, a := range sub.Assessments {
			if a.Kind != kind {
				continue
			}
			input.Chunks = append(input.Chunks, report.ChunkInput{
				Kind:      string(a.Kind),
				Label:     a.Kind.Label(),
				Score:     a.Score,
				Rationale: a.Rationale,
				NextSteps: a.NextSteps,
			})
		}
	}
	for _, round := range []*Round{sub.Round1, sub.Round2} {
		if round == nil {
			continue
		}
		for _, q := range round.Questions {
			input.Questions = append(input.Questions, report.QuestionInput{
				Round:  round.Number,
				Index:  q.Index,
				Text:   q.Text,
				Answer: q.Answer,
				Note:   q.Note,
			})
		}
	}

	rpt, err := report.Compile(input, s.Policy)
	if err != nil {
		return s.failSubmission(ctx, sub, StateFinalizing, "finalize", err)
	}

	now := time.Now().UTC()
	sub.Report = &rpt
	sub.State = StateComplete
	sub.UpdatedAt = now
	sub.CompletedAt = &now
	if err := s.Repo.Update(ctx, sub, StateFinalizing); err != nil {
		return s.failSubmission(ctx, sub, StateFinalizing, "finalize",
			&PersistenceError{Op: "store report", Err: err})
	}
	metrics.IncAssessmentCompleted()
	metrics.ObserveStepDurationMs(durationMs(startedAt))
	s.logTransition(ctx, sub, StateFinalizing)

	if s.Notifier != nil {
		subject := "Deal Risk Assessment Report"
		if rpt.CompanyName != "" {
			subject += ": " + rpt.CompanyName
		}
		if err := s.Notifier.SendReport(ctx, subject, rpt.Markdown); err != nil {
			telemetry.Error("report.notify", map[string]any{
				"request_id":    requestIDFromContext(ctx),
				"submission_id": sub.ID,
				"error":         sanitizeError(err),
			})
		}
	}
	return nil
}

// RunStep executes one asynchronous workflow step by name. Used by both the
// in-process dispatcher and the queue consumer.
func (s *Service) RunStep(ctx context.Context, id, step string) error {
	switch step {
	case queue.StepInitialAnalysis:
		return s.RunInitialAnalysis(ctx, id)
	case queue.StepGenerateRound2:
		return s.GenerateRound2(ctx, id)
	case queue.StepFinalize:
		return s.Finalize(ctx, id)
	default:
		return fmt.Errorf("unknown workflow step %q", step)
	}
}

func (s *Service) generateRound(ctx context.Context, reasoner reasoning.Client, sub Submission, number int) (Round, error) {
	var req reasoning.Request
	if number == 1 {
		req = buildRound1Request(questionContext(sub))
	} else {
		if sub.Round1 == nil || !sub.Round1.Completed {
			return Round{}, &GenerationError{Round: number, Err: errors.New("round one is not complete")}
		}
		req = buildRound2Request(questionContext(sub), *sub.Round1)
	}
	resp, err := reasoner.Complete(ctx, req)
	if err != nil {
		return Round{}, &GenerationError{Round: number, Err: err}
	}
	round, err := buildRound(number, parseQuestionList(resp))
	if err != nil {
		return Round{}, err
	}
	round.GeneratedAt = time.Now().UTC()
	return round, nil
}

// questionContext is the text question generation works from: the document
// chunk when present, otherwise everything collected.
func questionContext(sub Submission) string {
	if c, ok := sub.ChunkByKind(KindDocuments); ok && c.Content != "" {
		return c.Content
	}
	parts := make([]string, 0, len(sub.Chunks))
	for _, c := range sub.Chunks {
		parts = append(parts, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

func (s *Service) reasonerFor(ctx context.Context, submissionID string) reasoning.Client {
	return newRetryingReasoner(s.Reasoner, s.attempts(), s.Backoff, submissionID, requestIDFromContext(ctx))
}

func (s *Service) attempts() int {
	if s.MaxAttempts < 1 {
		return 1
	}
	return s.MaxAttempts
}

// backfillFromDocuments fills blank company and deal fields from document
// text. Best-effort: extraction failures leave the submission untouched.
func (s *Service) backfillFromDocuments(ctx context.Context, sub *Submission, docText string) {
	resp, err := s.reasonerFor(ctx, sub.ID).Complete(ctx, buildExtractRequest(docText))
	if err != nil {
		telemetry.Warn("submission.extract_fields", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"submission_id": sub.ID,
			"error":         sanitizeError(err),
		})
		return
	}
	company, deal, err := parseExtraction(resp)
	if err != nil {
		telemetry.Warn("submission.extract_fields", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"submission_id": sub.ID,
			"error":         sanitizeError(err),
		})
		return
	}
	if sub.Company.Empty() {
		sub.Company = company
	}
	if sub.Deal.Empty() {
		sub.Deal = deal
	}
}

func (s *Service) combinedDocumentText(ctx context.Context, submissionID string) (string, error) {
	if s.DocRepo == nil || s.Store == nil {
		return "", nil
	}
	docs, err := s.DocRepo.ListBySubmission(ctx, submissionID)
	if err != nil {
		return "", err
	}
	var parts []string
	for _, doc := range docs {
		if doc.ExtractedTextKey == "" {
			continue
		}
		text, err := loadText(ctx, s.Store, doc.ExtractedTextKey)
		if err != nil {
			return "", fmt.Errorf("load extracted text for %s: %w", doc.FileName, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", doc.FileName, text))
	}
	return strings.Join(parts, "\n\n"), nil
}

// dispatch hands a step to the queue when one is configured, otherwise runs
// it on a detached goroutine.
func (s *Service) dispatch(ctx context.Context, id, step string) {
	if s.Queue != nil {
		msg := queue.Message{
			SubmissionID: id,
			Step:         step,
			RequestID:    requestIDFromContext(ctx),
			EnqueuedAt:   time.Now().UTC().Format(time.RFC3339),
			Version:      1,
		}
		if err := s.Queue.Send(ctx, msg); err == nil {
			return
		} else {
			telemetry.Error("submission.enqueue", map[string]any{
				"request_id":    requestIDFromContext(ctx),
				"submission_id": id,
				"step":          step,
				"error":         sanitizeError(err),
			})
		}
	}
	go s.runStepAsync(backgroundWithRequestID(ctx), id, step)
}

func (s *Service) runStepAsync(ctx context.Context, id, step string) {
	defer func() {
		if r := recover(); r != nil {
			if sub, getErr := s.Repo.GetByID(ctx, id); getErr == nil && !sub.State.Terminal() {
				_ = s.failSubmission(ctx, sub, sub.State, step, fmt.Errorf("panic: %v", r))
			}
		}
	}()
	if err := s.RunStep(ctx, id, step); err != nil {
		telemetry.Error("submission.step", map[string]any{
			"request_id":    requestIDFromContext(ctx),
			"submission_id": id,
			"step":          step,
			"error":         sanitizeError(err),
		})
	}
}

// failSubmission records a terminal failure and returns the original error.
// The failed state is written against the state the step started from so a
// concurrent success is never clobbered.
func (s *Service) failSubmission(ctx context.Context, sub Submission, expected State, step string, err error) error {
	now := time.Now().UTC()
	attempts := 1
	var aErr *AnalysisError
	if errors.As(err, &aErr) {
		attempts = aErr.Attempts
	}
	sub.Failure = &Failure{
		Code:     CodeFor(err),
		Message:  sanitizeError(err),
		Step:     step,
		Attempts: attempts,
	}
	sub.State = StateFailed
	sub.UpdatedAt = now
	sub.CompletedAt = &now
	if updateErr := s.Repo.Update(context.Background(), sub, expected); updateErr != nil {
		telemetry.Error("submission.fail", map[string]any{
			"submission_id": sub.ID,
			"step":          step,
			"error":         sanitizeError(updateErr),
		})
	}
	metrics.IncAssessmentFailed()
	telemetry.Info("submission.status", map[string]any{
		"request_id":       requestIDFromContext(ctx),
		"submission_id":    sub.ID,
		"state":            string(StateFailed),
		"state_transition": string(expected) + "->" + string(StateFailed),
		"step":             step,
		"error_code":       sub.Failure.Code,
	})
	return err
}

func (s *Service) logTransition(ctx context.Context, sub Submission, from State) {
	telemetry.Info("submission.status", map[string]any{
		"request_id":       requestIDFromContext(ctx),
		"submission_id":    sub.ID,
		"state":            string(sub.State),
		"state_transition": string(from) + "->" + string(sub.State),
	})
}

func dealSummary(deal DealContext, notes string) string {
	parts := make([]string, 0, 3)
	if deal.TransactionType != "" {
		parts = append(parts, deal.TransactionType)
	}
	if deal.Description != "" {
		parts = append(parts, deal.Description)
	}
	if len(parts) == 0 && notes != "" {
		parts = append(parts, notes)
	}
	return strings.Join(parts, ": ")
}

func durationMs(startedAt time.Time) float64 {
	return float64(time.Since(startedAt).Microseconds()) / 1000.0
}

func loadText(ctx context.Context, store object.ObjectStore, key string) (string, error) {
	body, err := store.Open(ctx, key)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
