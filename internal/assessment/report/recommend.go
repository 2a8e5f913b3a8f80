package report

import (
	"sort"
	"strings"
)

// indicatorRule fires when any of its keywords appears in a risk signal and
// contributes one recommendation. Rank orders the output; lower renders first.
type indicatorRule struct {
	keywords       []string
	recommendation string
	rank           int
}

var indicatorRules = []indicatorRule{
	{
		keywords:       []string{"crypto", "cryptocurrency", "bitcoin", "usdt"},
		recommendation: "Insist on escrow or a letter of credit instead of cryptocurrency payment.",
		rank:           1,
	},
	{
		keywords:       []string{"advance payment", "upfront", "prepayment", "wire transfer before"},
		recommendation: "Do not remit funds before independent verification; use staged payments tied to delivery milestones.",
		rank:           2,
	},
	{
		keywords:       []string{"registration", "unregistered", "registry", "incorporation"},
		recommendation: "Verify the company registration directly with the national business registry.",
		rank:           3,
	},
	{
		keywords:       []string{"sanction", "embargo", "blacklist"},
		recommendation: "Run a sanctions and watchlist screening on the company and its listed owners.",
		rank:           4,
	},
	{
		keywords:       []string{"offshore", "shell company", "nominee"},
		recommendation: "Request beneficial ownership documentation and verify the operating address in person or via a local agent.",
		rank:           5,
	},
	{
		keywords:       []string{"urgent", "urgency", "pressure", "deadline"},
		recommendation: "Treat time pressure as a red flag; extend the timeline until due diligence completes.",
		rank:           6,
	},
	{
		keywords:       []string{"reference", "track record", "no history", "newly formed", "recently registered"},
		recommendation: "Obtain and independently contact trade references from prior transactions.",
		rank:           7,
	},
	{
		keywords:       []string{"document", "certificate", "forged", "altered", "inconsistent"},
		recommendation: "Have presented certificates and trade documents authenticated by the issuing bodies.",
		rank:           8,
	},
}

// buildRecommendations matches fired risk signals against the indicator rules.
// Signals are risky answers (round one "no", round two "yes") plus every chunk
// rationale and suggested next step. Output is deduplicated and ordered by
// rule rank, so identical inputs always yield the identical list.
func buildRecommendations(chunks []ChunkResult, questions []QuestionRow) []string {
	signals := make([]string, 0, len(chunks)*2+len(questions))
	for _, c := range chunks {
		signals = append(signals, c.Rationale)
		signals = append(signals, c.NextSteps...)
	}
	for _, q := range questions {
		risky := (q.Round == 1 && q.Answer == "no") || (q.Round == 2 && q.Answer == "yes")
		if !risky {
			continue
		}
		signals = append(signals, q.Text)
		if q.Note != "" {
			signals = append(signals, q.Note)
		}
	}

	fired := make(map[int]indicatorRule)
	for _, signal := range signals {
		lower := strings.ToLower(signal)
		for _, rule := range indicatorRules {
			if _, ok := fired[rule.rank]; ok {
				continue
			}
			for _, kw := range rule.keywords {
				if strings.Contains(lower, kw) {
					fired[rule.rank] = rule
					break
				}
			}
		}
	}

	ranks := make([]int, 0, len(fired))
	for rank := range fired {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)

	out := make([]string, 0, len(ranks)+1)
	for _, rank := range ranks {
		out = append(out, fired[rank].recommendation)
	}
	if len(out) == 0 {
		out = append(out, "No specific fraud indicators fired; proceed with standard commercial due diligence.")
	}
	return out
}
