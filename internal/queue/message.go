package queue

import "encoding/json"

// Workflow steps a queue consumer may be asked to run.
const (
	StepInitialAnalysis = "initial_analysis"
	StepGenerateRound2  = "generate_round2"
	StepFinalize        = "finalize"
)

// Message is the payload sent to downstream queue consumers.
type Message struct {
	SubmissionID string `json:"submissionId"`
	Step         string `json:"step"`
	RequestID    string `json:"requestId"`
	EnqueuedAt   string `json:"enqueuedAt"`
	Version      int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
