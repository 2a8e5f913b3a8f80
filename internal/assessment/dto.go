package assessment

import "time"

// SubmissionResponse is the API shape for a submission's current position in
// the workflow. Chunk contents and raw assessments stay server-side; clients
// read results through the report.
type SubmissionResponse struct {
	ID          string      `json:"id"`
	State       State       `json:"state"`
	Company     CompanyInfo `json:"company"`
	DealContext DealContext `json:"dealContext"`
	DealNotes   string      `json:"dealNotes,omitempty"`
	HasReport   bool        `json:"hasReport"`
	Failure     *Failure    `json:"failure,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

func toResponse(sub Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:          sub.ID,
		State:       sub.State,
		Company:     sub.Company,
		DealContext: sub.Deal,
		DealNotes:   sub.DealNotes,
		HasReport:   sub.Report != nil,
		Failure:     sub.Failure,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
		CompletedAt: sub.CompletedAt,
	}
}

// QuestionResponse is one question presented to the user. Answers are
// write-only through the answers endpoint.
type QuestionResponse struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// RoundResponse is the question round currently awaiting answers.
type RoundResponse struct {
	Round     int                `json:"round"`
	Questions []QuestionResponse `json:"questions"`
}

func toRoundResponse(round Round) RoundResponse {
	out := RoundResponse{Round: round.Number}
	for _, q := range round.Questions {
		out.Questions = append(out.Questions, QuestionResponse{Index: q.Index, Text: q.Text})
	}
	return out
}
