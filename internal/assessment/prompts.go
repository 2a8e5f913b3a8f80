package assessment

import (
	_ "embed"
	"fmt"
	"strings"

	"dealrisk-backend/internal/reasoning"
)

var (
	//go:embed prompts/company.txt
	promptCompany string
	//go:embed prompts/context.txt
	promptContext string
	//go:embed prompts/documents.txt
	promptDocuments string
	//go:embed prompts/enriched.txt
	promptEnriched string
	//go:embed prompts/round1.txt
	promptRound1 string
	//go:embed prompts/round2.txt
	promptRound2 string
	//go:embed prompts/extract.txt
	promptExtract string
)

const (
	templateChunkPrefix = "chunk_"
	templateRound1      = "round1_questions"
	templateRound2      = "round2_questions"
	templateExtract     = "extract_fields"
)

func chunkTemplate(kind ChunkKind) (string, bool) {
	switch kind {
	case KindCompany:
		return promptCompany, true
	case KindContext:
		return promptContext, true
	case KindDocuments:
		return promptDocuments, true
	case KindEnriched:
		return promptEnriched, true
	default:
		return "", false
	}
}

func fill(template, data string) string {
	return strings.ReplaceAll(template, "{{DATA}}", data)
}

// buildChunkRequest renders the scoring prompt for one chunk.
func buildChunkRequest(chunk Chunk) (reasoning.Request, error) {
	template, ok := chunkTemplate(chunk.Kind)
	if !ok {
		return reasoning.Request{}, fmt.Errorf("no prompt for chunk kind %q", chunk.Kind)
	}
	return reasoning.Request{
		Template: templateChunkPrefix + string(chunk.Kind),
		Prompt:   fill(template, chunk.Content),
		WantJSON: true,
	}, nil
}

// buildRound1Request renders the first-round question generation prompt over
// the combined document text.
func buildRound1Request(docText string) reasoning.Request {
	return reasoning.Request{
		Template: templateRound1,
		Prompt:   fill(promptRound1, docText),
	}
}

// buildRound2Request renders the adaptive second-round prompt: the document
// text followed by the user's first-round answers so follow-ups can target
// unresolved or concerning responses.
func buildRound2Request(docText string, round1 Round) reasoning.Request {
	var b strings.Builder
	b.WriteString(docText)
	b.WriteString("\n\nPrevious answers:\n")
	for _, q := range round1.Questions {
		fmt.Fprintf(&b, "%d. %s Answer: %s", q.Index, q.Text, q.Answer)
		if strings.TrimSpace(q.Note) != "" {
			fmt.Fprintf(&b, " (%s)", q.Note)
		}
		b.WriteString("\n")
	}
	return reasoning.Request{
		Template: templateRound2,
		Prompt:   fill(promptRound2, b.String()),
	}
}

// buildExtractRequest renders the structured field extraction prompt used to
// backfill company and deal details from document text.
func buildExtractRequest(docText string) reasoning.Request {
	return reasoning.Request{
		Template: templateExtract,
		Prompt:   fill(promptExtract, docText),
		WantJSON: true,
	}
}
