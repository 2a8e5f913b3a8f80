package report

import (
	"fmt"
	"strings"
)

const disclaimer = "This report is generated from automated analysis of the supplied information and answers. It supports, but does not replace, professional due diligence."

// renderMarkdown renders the report document. Section order is fixed:
// summary, overall score, per-chunk breakdown, Q&A table, recommendations,
// disclaimer.
func renderMarkdown(r Report) string {
	var b strings.Builder

	title := "Deal Risk Assessment"
	if r.CompanyName != "" {
		title += ": " + r.CompanyName
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Summary\n\n")
	b.WriteString(r.Summary)
	b.WriteString("\n\n")

	b.WriteString("## Overall Score\n\n")
	fmt.Fprintf(&b, "**%d/100** (%s)\n\n", r.OverallScore, r.Tier)

	b.WriteString("## Analysis Breakdown\n\n")
	for _, chunk := range r.Chunks {
		fmt.Fprintf(&b, "### %s\n\n", chunk.Label)
		fmt.Fprintf(&b, "Score: %d/100\n\n", chunk.Score)
		b.WriteString(chunk.Rationale)
		b.WriteString("\n")
		if len(chunk.NextSteps) > 0 {
			b.WriteString("\nNext steps:\n\n")
			for _, step := range chunk.NextSteps {
				fmt.Fprintf(&b, "- %s\n", step)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Questions and Answers\n\n")
	b.WriteString("| Round | # | Question | Answer | Note |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, q := range r.Questions {
		fmt.Fprintf(&b, "| %d | %d | %s | %s | %s |\n",
			q.Round, q.Index, escapeCell(q.Text), q.Answer, escapeCell(q.Note))
	}
	b.WriteString("\n")

	b.WriteString("## Recommendations\n\n")
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	b.WriteString("\n")

	b.WriteString("---\n\n")
	b.WriteString(disclaimer)
	b.WriteString("\n")

	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}
