// Package report compiles a finished assessment into a final risk report.
// Compilation is a pure function of its inputs: no clocks, no external calls,
// identical inputs always produce an identical report.
package report

import "time"

// ChunkInput is one analyzed chunk result, in render order.
type ChunkInput struct {
	Kind      string
	Label     string
	Score     int
	Rationale string
	NextSteps []string
}

// QuestionInput is one answered question from either round.
type QuestionInput struct {
	Round  int
	Index  int
	Text   string
	Answer string
	Note   string
}

// Input carries everything the compiler needs. GeneratedAt is supplied by the
// caller so compilation stays deterministic.
type Input struct {
	SubmissionID string
	CompanyName  string
	DealSummary  string
	Chunks       []ChunkInput
	Questions    []QuestionInput
	GeneratedAt  time.Time
}

// ChunkResult is a per-chunk line in the final report.
type ChunkResult struct {
	Kind      string   `json:"kind"`
	Label     string   `json:"label"`
	Score     int      `json:"score"`
	Rationale string   `json:"rationale"`
	NextSteps []string `json:"nextSteps,omitempty"`
}

// QuestionRow is one row of the report's Q&A table.
type QuestionRow struct {
	Round  int    `json:"round"`
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Answer string `json:"answer"`
	Note   string `json:"note,omitempty"`
}

// Report is the final assessment output.
type Report struct {
	SubmissionID    string        `json:"submissionId"`
	CompanyName     string        `json:"companyName,omitempty"`
	Summary         string        `json:"summary"`
	OverallScore    int           `json:"overallScore"`
	Tier            string        `json:"tier"`
	Chunks          []ChunkResult `json:"chunks"`
	Questions       []QuestionRow `json:"questions"`
	Recommendations []string      `json:"recommendations"`
	Markdown        string        `json:"markdown"`
	GeneratedAt     time.Time     `json:"generatedAt"`
}
