package assessment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawAssessment mirrors the JSON the scoring prompts ask for. next_steps is
// accepted as either a single string or a list, since providers are
// inconsistent about which they return.
type rawAssessment struct {
	Score     json.Number  `json:"score"`
	Rationale string       `json:"rationale"`
	NextSteps rawNextSteps `json:"next_steps"`
}

type rawNextSteps []string

func (n *rawNextSteps) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*n = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("next_steps must be a string or list of strings")
	}
	if strings.TrimSpace(single) == "" {
		*n = nil
		return nil
	}
	*n = []string{single}
	return nil
}

// stripFences removes a surrounding markdown code fence if the provider
// wrapped its JSON in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// parseChunkAssessment parses a scoring response into a ChunkAssessment.
// Scores outside [0,100] are rejected rather than clamped so a malformed
// provider response cannot quietly skew the aggregate.
func parseChunkAssessment(kind ChunkKind, raw string) (ChunkAssessment, error) {
	var parsed rawAssessment
	dec := json.NewDecoder(strings.NewReader(stripFences(raw)))
	if err := dec.Decode(&parsed); err != nil {
		return ChunkAssessment{}, fmt.Errorf("parse %s assessment: %w", kind, err)
	}
	score, err := parsed.Score.Int64()
	if err != nil {
		f, ferr := parsed.Score.Float64()
		if ferr != nil {
			return ChunkAssessment{}, fmt.Errorf("parse %s assessment: score %q is not a number", kind, parsed.Score)
		}
		score = int64(f)
	}
	if score < 0 || score > 100 {
		return ChunkAssessment{}, fmt.Errorf("parse %s assessment: score %d out of range [0,100]", kind, score)
	}
	if strings.TrimSpace(parsed.Rationale) == "" {
		return ChunkAssessment{}, fmt.Errorf("parse %s assessment: rationale is empty", kind)
	}
	return ChunkAssessment{
		Kind:      kind,
		Score:     int(score),
		Rationale: strings.TrimSpace(parsed.Rationale),
		NextSteps: []string(parsed.NextSteps),
	}, nil
}

// parseQuestionList splits a numbered-list response into question texts.
// Leading ordinals and list punctuation are stripped per line; blank lines are
// skipped. Callers enforce the per-round count contract.
func parseQuestionList(raw string) []string {
	var questions []string
	for _, line := range strings.Split(stripFences(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimLeft(line, "0123456789.-) ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		questions = append(questions, line)
	}
	return questions
}

// buildRound validates the parsed question texts against the per-round count
// contract. More than the required count truncates to the first ten; fewer is
// a hard generation failure, never padded.
func buildRound(number int, texts []string) (Round, error) {
	if len(texts) < QuestionsPerRound {
		return Round{}, &GenerationError{Round: number, Got: len(texts)}
	}
	texts = texts[:QuestionsPerRound]
	round := Round{Number: number}
	for i, text := range texts {
		round.Questions = append(round.Questions, Question{Index: i + 1, Text: text})
	}
	return round, nil
}

// rawExtraction mirrors the structured field extraction response.
type rawExtraction struct {
	Company rawCompany `json:"company"`
	Context rawContext `json:"context"`
}

type rawCompany struct {
	Name         string         `json:"name"`
	Registration string         `json:"registration"`
	Address      string         `json:"address"`
	Country      string         `json:"country"`
	Directors    rawStringOrSet `json:"directors"`
}

// rawStringOrSet accepts either a single string or a list of strings.
type rawStringOrSet []string

func (s *rawStringOrSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("expected string or list of strings")
	}
	if strings.TrimSpace(single) == "" {
		*s = nil
		return nil
	}
	*s = []string{single}
	return nil
}

type rawContext struct {
	TransactionType string `json:"transaction_type"`
	Description     string `json:"description"`
	Notes           string `json:"notes"`
}

// parseExtraction parses the field extraction response used to backfill
// company and deal details from document text. A parse failure here is
// tolerable upstream: extraction is best-effort enrichment, not a gate.
func parseExtraction(raw string) (CompanyInfo, DealContext, error) {
	var parsed rawExtraction
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return CompanyInfo{}, DealContext{}, fmt.Errorf("parse extraction: %w", err)
	}
	owners := make([]string, 0, len(parsed.Company.Directors))
	for _, d := range parsed.Company.Directors {
		if d = strings.TrimSpace(d); d != "" {
			owners = append(owners, d)
		}
	}
	company := CompanyInfo{
		Name:         strings.TrimSpace(parsed.Company.Name),
		Registration: strings.TrimSpace(parsed.Company.Registration),
		Address:      strings.TrimSpace(parsed.Company.Address),
		Country:      strings.TrimSpace(parsed.Company.Country),
		Owners:       owners,
	}
	if len(owners) == 0 {
		company.Owners = nil
	}
	deal := DealContext{
		TransactionType: strings.TrimSpace(parsed.Context.TransactionType),
		Description:     strings.TrimSpace(parsed.Context.Description),
		Notes:           strings.TrimSpace(parsed.Context.Notes),
	}
	return company, deal, nil
}
