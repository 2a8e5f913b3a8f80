package assessment

import (
	"time"

	"dealrisk-backend/internal/assessment/report"
)

// State is the lifecycle position of a Submission within the wizard.
type State string

const (
	StateCollectingInput  State = "collecting_input"
	StateInitialAnalysis  State = "initial_analysis"
	StateAwaitingRound1   State = "awaiting_round1"
	StateGeneratingRound2 State = "generating_round2"
	StateAwaitingRound2   State = "awaiting_round2"
	StateFinalizing       State = "finalizing"
	StateComplete         State = "complete"
	StateFailed           State = "failed"
)

// Terminal reports whether no further transitions are allowed from s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// ChunkKind identifies one categorized unit of input analyzed independently.
type ChunkKind string

const (
	KindCompany   ChunkKind = "company"
	KindContext   ChunkKind = "context"
	KindDocuments ChunkKind = "documents"
	KindEnriched  ChunkKind = "enriched"
)

// ChunkOrder fixes the deterministic ordering used for analysis dispatch and
// report rendering.
var ChunkOrder = []ChunkKind{KindCompany, KindContext, KindDocuments, KindEnriched}

// Label returns the human-readable heading for a chunk kind.
func (k ChunkKind) Label() string {
	switch k {
	case KindCompany:
		return "Company Info"
	case KindContext:
		return "Deal Context"
	case KindDocuments:
		return "Documents"
	case KindEnriched:
		return "Enriched Data"
	default:
		return string(k)
	}
}

// CompanyInfo captures the counterparty details supplied by the user or
// recovered from document text.
type CompanyInfo struct {
	Name         string   `json:"name"`
	Registration string   `json:"registration"`
	Address      string   `json:"address"`
	Country      string   `json:"country"`
	Owners       []string `json:"owners,omitempty"`
}

// Empty reports whether no company field is populated.
func (c CompanyInfo) Empty() bool {
	return c.Name == "" && c.Registration == "" && c.Address == "" && c.Country == "" && len(c.Owners) == 0
}

// DealContext describes the transaction under review.
type DealContext struct {
	TransactionType string `json:"transactionType"`
	Description     string `json:"description"`
	Notes           string `json:"notes"`
}

// Empty reports whether no deal field is populated.
func (d DealContext) Empty() bool {
	return d.TransactionType == "" && d.Description == "" && d.Notes == ""
}

// Chunk pairs a kind with raw text content. Immutable once created.
type Chunk struct {
	Kind    ChunkKind `json:"kind"`
	Content string    `json:"content"`
}

// ChunkAssessment is the result of analyzing one chunk.
type ChunkAssessment struct {
	Kind      ChunkKind `json:"kind"`
	Score     int       `json:"score"`
	Rationale string    `json:"rationale"`
	NextSteps []string  `json:"nextSteps"`
}

// Answer values for yes/no questions. Empty means unanswered.
const (
	AnswerYes = "yes"
	AnswerNo  = "no"
)

// Question is one yes/no question within a round.
type Question struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Answer string `json:"answer,omitempty"`
	Note   string `json:"note,omitempty"`
}

// QuestionsPerRound is the hard contract for generated rounds.
const QuestionsPerRound = 10

// Round is one batch of generated yes/no questions.
type Round struct {
	Number      int        `json:"number"`
	Questions   []Question `json:"questions"`
	GeneratedAt time.Time  `json:"generatedAt"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Failure records why a submission moved to the failed state.
type Failure struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Step     string `json:"step"`
	Attempts int    `json:"attempts"`
}

// Submission is one assessment session advanced across independent requests.
type Submission struct {
	ID          string            `json:"id"`
	State       State             `json:"state"`
	Company     CompanyInfo       `json:"company"`
	Deal        DealContext       `json:"deal"`
	DealNotes   string            `json:"dealNotes"`
	Chunks      []Chunk           `json:"chunks,omitempty"`
	Assessments []ChunkAssessment `json:"assessments,omitempty"`
	Round1      *Round            `json:"round1,omitempty"`
	Round2      *Round            `json:"round2,omitempty"`
	Report      *report.Report    `json:"report,omitempty"`
	Failure     *Failure          `json:"failure,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// ChunkByKind returns the chunk of the given kind, if present.
func (s *Submission) ChunkByKind(kind ChunkKind) (Chunk, bool) {
	for _, c := range s.Chunks {
		if c.Kind == kind {
			return c, true
		}
	}
	return Chunk{}, false
}

// SetChunk replaces or appends the chunk of the given kind, preserving the
// fixed chunk ordering.
func (s *Submission) SetChunk(kind ChunkKind, content string) {
	for i := range s.Chunks {
		if s.Chunks[i].Kind == kind {
			s.Chunks[i].Content = content
			return
		}
	}
	s.Chunks = append(s.Chunks, Chunk{Kind: kind, Content: content})
	ordered := make([]Chunk, 0, len(s.Chunks))
	for _, k := range ChunkOrder {
		if c, ok := s.ChunkByKind(k); ok {
			ordered = append(ordered, c)
		}
	}
	s.Chunks = ordered
}

// ActiveRound returns the round currently awaiting answers, if any.
func (s *Submission) ActiveRound() *Round {
	switch s.State {
	case StateAwaitingRound1:
		return s.Round1
	case StateAwaitingRound2:
		return s.Round2
	default:
		return nil
	}
}
