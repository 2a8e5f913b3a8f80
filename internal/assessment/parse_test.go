package assessment

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestParseChunkAssessment(t *testing.T) {
	raw := `{"score": 42, "rationale": "registration is unverified", "next_steps": ["verify registry", "request documents"]}`

	got, err := parseChunkAssessment(KindCompany, raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := ChunkAssessment{
		Kind:      KindCompany,
		Score:     42,
		Rationale: "registration is unverified",
		NextSteps: []string{"verify registry", "request documents"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestParseChunkAssessmentAcceptsSingleNextStep(t *testing.T) {
	raw := `{"score": 10, "rationale": "looks clean", "next_steps": "proceed"}`

	got, err := parseChunkAssessment(KindContext, raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(got.NextSteps, []string{"proceed"}) {
		t.Fatalf("next steps = %v, want [proceed]", got.NextSteps)
	}
}

func TestParseChunkAssessmentStripsCodeFence(t *testing.T) {
	raw := "```json\n{\"score\": 30, \"rationale\": \"ok\", \"next_steps\": []}\n```"

	got, err := parseChunkAssessment(KindDocuments, raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Score != 30 {
		t.Fatalf("score = %d, want 30", got.Score)
	}
}

func TestParseChunkAssessmentRejectsOutOfRangeScore(t *testing.T) {
	for _, score := range []int{-5, 101, 250} {
		raw := fmt.Sprintf(`{"score": %d, "rationale": "r", "next_steps": []}`, score)
		if _, err := parseChunkAssessment(KindCompany, raw); err == nil {
			t.Errorf("score %d accepted, want error", score)
		}
	}
}

func TestParseChunkAssessmentRejectsMalformedJSON(t *testing.T) {
	if _, err := parseChunkAssessment(KindCompany, "not json at all"); err == nil {
		t.Fatal("expected error for malformed response")
	}
}

func TestParseQuestionListStripsOrdinals(t *testing.T) {
	raw := `1. Is the company registered?
2) Does it have a physical address?
3 - Are the directors traceable?

10. Is there a written contract?`

	got := parseQuestionList(raw)
	want := []string{
		"Is the company registered?",
		"Does it have a physical address?",
		"Are the directors traceable?",
		"Is there a written contract?",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildRoundCountContract(t *testing.T) {
	texts := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		texts = append(texts, fmt.Sprintf("question %d", i+1))
	}

	// Extra questions are truncated to exactly ten.
	round, err := buildRound(1, texts)
	if err != nil {
		t.Fatalf("build round: %v", err)
	}
	if len(round.Questions) != QuestionsPerRound {
		t.Fatalf("questions = %d, want %d", len(round.Questions), QuestionsPerRound)
	}
	if round.Questions[9].Index != 10 || round.Questions[9].Text != "question 10" {
		t.Fatalf("unexpected tenth question %+v", round.Questions[9])
	}

	// Fewer than ten is a hard generation failure, never padded.
	_, err = buildRound(2, texts[:7])
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Round != 2 || genErr.Got != 7 {
		t.Fatalf("unexpected generation error %+v", genErr)
	}
}

func TestParseExtraction(t *testing.T) {
	raw := `{"company": {"name": "Acme Ltd", "registration": "HRB 1234", "address": "1 Main St", "country": "DE", "directors": ["A. Smith", "B. Jones"]}, "context": {"transaction_type": "commodity purchase", "description": "sunflower oil", "notes": ""}}`

	company, deal, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parse extraction: %v", err)
	}
	if company.Name != "Acme Ltd" || company.Country != "DE" {
		t.Fatalf("unexpected company %+v", company)
	}
	if !reflect.DeepEqual(company.Owners, []string{"A. Smith", "B. Jones"}) {
		t.Fatalf("owners = %v", company.Owners)
	}
	if deal.TransactionType != "commodity purchase" {
		t.Fatalf("unexpected deal %+v", deal)
	}
}

func TestParseExtractionAcceptsDirectorString(t *testing.T) {
	raw := `{"company": {"name": "Acme", "directors": "A. Smith"}, "context": {}}`

	company, _, err := parseExtraction(raw)
	if err != nil {
		t.Fatalf("parse extraction: %v", err)
	}
	if !reflect.DeepEqual(company.Owners, []string{"A. Smith"}) {
		t.Fatalf("owners = %v", company.Owners)
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"plain":                         "plain",
		"```\nwrapped\n```":             "wrapped",
		"```json\n{\"a\": 1}\n```":      `{"a": 1}`,
		"  ```json\n{\"a\": 1}\n```  ":  `{"a": 1}`,
		"no fence\nwith\nseveral lines": "no fence\nwith\nseveral lines",
	}
	for in, want := range cases {
		if got := stripFences(in); got != want {
			t.Errorf("stripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
