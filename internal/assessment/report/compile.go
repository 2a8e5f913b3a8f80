package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Compile aggregates chunk assessments and answered rounds into the final
// report under the given policy.
//
// Overall score = round(weighted mean of chunk scores) + answer adjustment,
// clamped to [0,100]. Chunks absent from the policy's weight map carry weight
// 1.0 so adding a new chunk kind never silently drops it from the aggregate.
func Compile(input Input, policy Policy) (Report, error) {
	if err := policy.Validate(); err != nil {
		return Report{}, err
	}
	if len(input.Chunks) == 0 {
		return Report{}, fmt.Errorf("compile: no chunk assessments")
	}
	for _, q := range input.Questions {
		if q.Answer == "" {
			return Report{}, fmt.Errorf("compile: question %d in round %d is unanswered", q.Index, q.Round)
		}
	}

	var weightedSum, weightTotal float64
	for _, chunk := range input.Chunks {
		weight, ok := policy.ChunkWeights[chunk.Kind]
		if !ok {
			weight = 1.0
		}
		weightedSum += weight * float64(chunk.Score)
		weightTotal += weight
	}
	base := math.Round(weightedSum / weightTotal)

	var adjustment float64
	for _, q := range input.Questions {
		answer := strings.ToLower(strings.TrimSpace(q.Answer))
		switch {
		case q.Round == 1 && answer == "no":
			adjustment += policy.Round1NoWeight
		case q.Round == 2 && answer == "yes":
			adjustment += policy.Round2YesWeight
		}
	}

	overall := int(base + math.Round(adjustment))
	if overall < 0 {
		overall = 0
	}
	if overall > 100 {
		overall = 100
	}

	chunks := make([]ChunkResult, 0, len(input.Chunks))
	for _, c := range input.Chunks {
		chunks = append(chunks, ChunkResult{
			Kind:      c.Kind,
			Label:     c.Label,
			Score:     c.Score,
			Rationale: c.Rationale,
			NextSteps: c.NextSteps,
		})
	}

	questions := make([]QuestionRow, 0, len(input.Questions))
	for _, q := range input.Questions {
		questions = append(questions, QuestionRow{
			Round:  q.Round,
			Index:  q.Index,
			Text:   q.Text,
			Answer: strings.ToLower(strings.TrimSpace(q.Answer)),
			Note:   strings.TrimSpace(q.Note),
		})
	}
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Round != questions[j].Round {
			return questions[i].Round < questions[j].Round
		}
		return questions[i].Index < questions[j].Index
	})

	tier := policy.TierFor(overall)
	rpt := Report{
		SubmissionID:    input.SubmissionID,
		CompanyName:     strings.TrimSpace(input.CompanyName),
		Summary:         buildSummary(input, overall, tier),
		OverallScore:    overall,
		Tier:            tier,
		Chunks:          chunks,
		Questions:       questions,
		Recommendations: buildRecommendations(chunks, questions),
		GeneratedAt:     input.GeneratedAt,
	}
	rpt.Markdown = renderMarkdown(rpt)
	return rpt, nil
}

func buildSummary(input Input, overall int, tier string) string {
	subject := strings.TrimSpace(input.CompanyName)
	if subject == "" {
		subject = "the counterparty"
	}
	summary := fmt.Sprintf("Assessment of %s scored %d/100 (%s) across %d analyzed input categories and %d answered questions.",
		subject, overall, tier, len(input.Chunks), len(input.Questions))
	if deal := strings.TrimSpace(input.DealSummary); deal != "" {
		summary += " Deal under review: " + deal
	}
	return summary
}
