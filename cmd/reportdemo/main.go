package main

// Compile a report from canned sample data:
//   go run ./cmd/reportdemo -out ./out/sample_report.md

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dealrisk-backend/internal/assessment/report"
)

func main() {
	outPath := flag.String("out", "./out/sample_report.md", "output path for the rendered markdown report")
	flag.Parse()

	input := sampleInput()

	rpt, err := report.Compile(input, report.DefaultPolicy())
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile failed: %v\n", err)
		os.Exit(1)
	}

	if err := writeOutputs(*outPath, rpt); err != nil {
		fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: wrote %s (score %d, %s)\n", *outPath, rpt.OverallScore, rpt.Tier)
}

func writeOutputs(outPath string, rpt report.Report) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := os.WriteFile(outPath, []byte(rpt.Markdown), 0o644); err != nil {
		return err
	}

	payload, err := json.MarshalIndent(rpt, "", "  ")
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, "sample_report.json")
	return os.WriteFile(jsonPath, payload, 0o644)
}

func sampleInput() report.Input {
	questions := make([]report.QuestionInput, 0, 20)
	round1 := []string{
		"Is the company registered in a recognized national registry?",
		"Does the company have a verifiable physical address?",
		"Are the listed directors traceable in public records?",
		"Has the company completed similar transactions before?",
		"Are the trade documents issued by known institutions?",
		"Is the payment routed through a regulated bank?",
		"Does the counterparty accept staged payments?",
		"Are trade references available on request?",
		"Is the quoted price consistent with market rates?",
		"Is there a written contract covering the transaction?",
	}
	round1Answers := []string{"yes", "yes", "no", "no", "yes", "no", "no", "no", "yes", "yes"}
	for i, text := range round1 {
		questions = append(questions, report.QuestionInput{Round: 1, Index: i + 1, Text: text, Answer: round1Answers[i]})
	}
	round2 := []string{
		"Was the company registered within the last twelve months?",
		"Is payment requested exclusively in cryptocurrency?",
		"Has the counterparty pressed for an urgent deadline?",
		"Did any presented certificate fail verification?",
		"Is the beneficial owner hidden behind nominees?",
		"Does the shipping route pass through a sanctioned port?",
		"Has contact been limited to messaging apps?",
		"Is the offered discount far above market norms?",
		"Were the trade references unreachable?",
		"Has the counterparty refused an escrow arrangement?",
	}
	round2Answers := []string{"yes", "yes", "yes", "no", "no", "no", "yes", "no", "yes", "yes"}
	for i, text := range round2 {
		questions = append(questions, report.QuestionInput{Round: 2, Index: i + 1, Text: text, Answer: round2Answers[i]})
	}

	return report.Input{
		SubmissionID: "demo-submission",
		CompanyName:  "Meridian Trade GmbH",
		DealSummary:  "commodity purchase: 2,000 MT refined sunflower oil, CIF Rotterdam",
		Chunks: []report.ChunkInput{
			{
				Kind:      "company",
				Label:     "Company Info",
				Score:     55,
				Rationale: "Company registration is recent and the directors are not traceable in public records.",
				NextSteps: []string{"Verify registration with the national registry", "Request beneficial ownership documents"},
			},
			{
				Kind:      "context",
				Label:     "Deal Context",
				Score:     60,
				Rationale: "Payment is requested in cryptocurrency with an unusually aggressive deadline.",
				NextSteps: []string{"Propose escrow or letter of credit", "Extend the negotiation timeline"},
			},
			{
				Kind:      "documents",
				Label:     "Documents",
				Score:     45,
				Rationale: "Presented certificates look plausible but issuing bodies have not confirmed them.",
				NextSteps: []string{"Authenticate certificates with the issuers"},
			},
		},
		Questions:   questions,
		GeneratedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}
