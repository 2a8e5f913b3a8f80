package report

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func sampleChunks(score int) []ChunkInput {
	return []ChunkInput{
		{Kind: "company", Label: "Company Info", Score: score, Rationale: "company rationale"},
		{Kind: "context", Label: "Deal Context", Score: score, Rationale: "context rationale"},
		{Kind: "documents", Label: "Documents", Score: score, Rationale: "documents rationale"},
	}
}

func answeredQuestions(round int, answer string) []QuestionInput {
	out := make([]QuestionInput, 0, 10)
	for i := 1; i <= 10; i++ {
		out = append(out, QuestionInput{Round: round, Index: i, Text: "question", Answer: answer})
	}
	return out
}

func TestCompileModerateScenario(t *testing.T) {
	// Equal chunk scores of 25, every round-one answer "no" (+1.5 each) and
	// two confirming round-two "yes" answers (+2.5 each): 25 + 15 + 5 = 45.
	questions := answeredQuestions(1, "no")
	round2 := answeredQuestions(2, "no")
	round2[0].Answer = "yes"
	round2[1].Answer = "yes"
	questions = append(questions, round2...)

	rpt, err := Compile(Input{
		SubmissionID: "sub-1",
		CompanyName:  "Acme Trading Ltd",
		Chunks:       sampleChunks(25),
		Questions:    questions,
		GeneratedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, DefaultPolicy())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if rpt.OverallScore != 45 {
		t.Fatalf("overall score = %d, want 45", rpt.OverallScore)
	}
	if rpt.Tier != "Moderate Risk" {
		t.Fatalf("tier = %q, want Moderate Risk", rpt.Tier)
	}
	if len(rpt.Questions) != 20 {
		t.Fatalf("question rows = %d, want 20", len(rpt.Questions))
	}
}

func TestCompileLowScenario(t *testing.T) {
	// Clean inputs: low chunk scores, all reassuring answers, no adjustment.
	questions := answeredQuestions(1, "yes")
	questions = append(questions, answeredQuestions(2, "no")...)

	rpt, err := Compile(Input{
		SubmissionID: "sub-2",
		Chunks:       sampleChunks(10),
		Questions:    questions,
		GeneratedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, DefaultPolicy())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if rpt.OverallScore != 10 {
		t.Fatalf("overall score = %d, want 10", rpt.OverallScore)
	}
	if rpt.Tier != "Low Risk" {
		t.Fatalf("tier = %q, want Low Risk", rpt.Tier)
	}
}

func TestCompileClampsToHundred(t *testing.T) {
	questions := answeredQuestions(1, "no")
	questions = append(questions, answeredQuestions(2, "yes")...)

	rpt, err := Compile(Input{
		SubmissionID: "sub-3",
		Chunks:       sampleChunks(95),
		Questions:    questions,
		GeneratedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, DefaultPolicy())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if rpt.OverallScore != 100 {
		t.Fatalf("overall score = %d, want 100", rpt.OverallScore)
	}
	if rpt.Tier != "Fraudulent" {
		t.Fatalf("tier = %q, want Fraudulent", rpt.Tier)
	}
}

func TestCompileWeightsChunkKinds(t *testing.T) {
	// Documents carry weight 1.5 against 1.0 for company and context:
	// (1*20 + 1*20 + 1.5*90) / 3.5 = 50 (rounded).
	chunks := []ChunkInput{
		{Kind: "company", Label: "Company Info", Score: 20, Rationale: "r"},
		{Kind: "context", Label: "Deal Context", Score: 20, Rationale: "r"},
		{Kind: "documents", Label: "Documents", Score: 90, Rationale: "r"},
	}

	rpt, err := Compile(Input{
		SubmissionID: "sub-4",
		Chunks:       chunks,
		GeneratedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, DefaultPolicy())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if rpt.OverallScore != 50 {
		t.Fatalf("overall score = %d, want 50", rpt.OverallScore)
	}
}

func TestCompileDeterministic(t *testing.T) {
	input := Input{
		SubmissionID: "sub-5",
		CompanyName:  "Acme Trading Ltd",
		Chunks:       sampleChunks(40),
		Questions:    append(answeredQuestions(1, "no"), answeredQuestions(2, "yes")...),
		GeneratedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	first, err := Compile(input, DefaultPolicy())
	if err != nil {
		t.Fatalf("first compile: %v", err)
	}
	second, err := Compile(input, DefaultPolicy())
	if err != nil {
		t.Fatalf("second compile: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical inputs produced different reports")
	}
}

func TestCompileRejectsUnansweredQuestion(t *testing.T) {
	questions := answeredQuestions(1, "yes")
	questions[3].Answer = ""

	_, err := Compile(Input{
		SubmissionID: "sub-6",
		Chunks:       sampleChunks(30),
		Questions:    questions,
		GeneratedAt:  time.Now().UTC(),
	}, DefaultPolicy())
	if err == nil {
		t.Fatal("expected error for unanswered question")
	}
}

func TestCompileRejectsEmptyChunks(t *testing.T) {
	_, err := Compile(Input{SubmissionID: "sub-7", GeneratedAt: time.Now().UTC()}, DefaultPolicy())
	if err == nil {
		t.Fatal("expected error for missing chunk assessments")
	}
}

func TestMarkdownSectionOrder(t *testing.T) {
	rpt, err := Compile(Input{
		SubmissionID: "sub-8",
		CompanyName:  "Acme Trading Ltd",
		Chunks:       sampleChunks(40),
		Questions:    append(answeredQuestions(1, "yes"), answeredQuestions(2, "no")...),
		GeneratedAt:  time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}, DefaultPolicy())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	sections := []string{
		"# Deal Risk Assessment: Acme Trading Ltd",
		"## Summary",
		"## Overall Score",
		"## Analysis Breakdown",
		"## Questions and Answers",
		"## Recommendations",
	}
	last := -1
	for _, section := range sections {
		idx := strings.Index(rpt.Markdown, section)
		if idx < 0 {
			t.Fatalf("markdown missing section %q", section)
		}
		if idx < last {
			t.Fatalf("section %q out of order", section)
		}
		last = idx
	}

	if strings.Count(rpt.Markdown, "| 1 |")+strings.Count(rpt.Markdown, "| 2 |") < 20 {
		t.Fatal("markdown Q&A table does not include all 20 rows")
	}
}

func TestRecommendationsFireOnCryptoIndicator(t *testing.T) {
	chunks := []ChunkResult{
		{Kind: "context", Label: "Deal Context", Score: 60, Rationale: "Payment is requested exclusively in cryptocurrency."},
	}

	recs := buildRecommendations(chunks, nil)
	found := false
	for _, rec := range recs {
		if strings.Contains(rec, "escrow") {
			found = true
		}
	}
	if !found {
		t.Fatalf("crypto indicator did not produce escrow recommendation: %v", recs)
	}
}

func TestRecommendationsIgnoreReassuringAnswers(t *testing.T) {
	questions := []QuestionRow{
		{Round: 1, Index: 1, Text: "Is payment requested in cryptocurrency?", Answer: "yes"},
		{Round: 2, Index: 1, Text: "Has the counterparty pressed an urgent deadline?", Answer: "no"},
	}

	recs := buildRecommendations(nil, questions)
	if len(recs) != 1 || !strings.Contains(recs[0], "standard commercial due diligence") {
		t.Fatalf("expected only the default recommendation, got %v", recs)
	}
}
