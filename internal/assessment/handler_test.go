package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"dealrisk-backend/internal/assessment/report"
	"dealrisk-backend/internal/queue"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeSubmission(t *testing.T, w *httptest.ResponseRecorder) SubmissionResponse {
	t.Helper()
	var out SubmissionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, w.Body.String())
	}
	return out
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error response: %v\nbody: %s", err, w.Body.String())
	}
	return out.Error.Code
}

func TestCreateSubmissionEndpoint(t *testing.T) {
	svc, _ := newTestService(t, &routingReasoner{})
	r := newTestRouter(t, svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/submissions",
		`{"company": {"name": "Acme Trading Ltd"}, "dealContext": {"description": "oil purchase"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", w.Code, w.Body.String())
	}
	sub := decodeSubmission(t, w)
	if sub.ID == "" {
		t.Fatal("id missing")
	}
	if sub.State != StateCollectingInput {
		t.Fatalf("state = %s, want %s", sub.State, StateCollectingInput)
	}
	if sub.Company.Name != "Acme Trading Ltd" {
		t.Fatalf("company = %+v", sub.Company)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/submissions/"+sub.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
}

func TestCreateSubmissionRejectsBadJSON(t *testing.T) {
	svc, _ := newTestService(t, &routingReasoner{})
	r := newTestRouter(t, svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/submissions", `{"company": `)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "validation_error" {
		t.Fatalf("code = %q", code)
	}
}

func TestGetUnknownSubmissionEndpoint(t *testing.T) {
	svc, _ := newTestService(t, &routingReasoner{})
	r := newTestRouter(t, svc)

	w := doJSON(t, r, http.MethodGet, "/api/v1/submissions/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "not_found" {
		t.Fatalf("code = %q", code)
	}
}

func TestBeginEndpointValidation(t *testing.T) {
	svc, _ := newTestService(t, &routingReasoner{})
	r := newTestRouter(t, svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/submissions", `{"dealContext": {"description": "a deal"}}`)
	sub := decodeSubmission(t, w)

	w = doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/begin", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400\nbody: %s", w.Code, w.Body.String())
	}
	if code := decodeErrorCode(t, w); code != "validation_error" {
		t.Fatalf("code = %q", code)
	}
}

func TestBeginEndpointAccepted(t *testing.T) {
	svc, _ := newTestService(t, &routingReasoner{})
	r := newTestRouter(t, svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/submissions",
		`{"company": {"name": "Acme"}, "dealContext": {"description": "a deal"}}`)
	sub := decodeSubmission(t, w)

	w = doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/begin", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202\nbody: %s", w.Code, w.Body.String())
	}
	if got := decodeSubmission(t, w).State; got != StateInitialAnalysis {
		t.Fatalf("state = %s, want %s", got, StateInitialAnalysis)
	}

	// Beginning twice is a state conflict, not a validation error.
	w = doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/begin", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("restart status = %d, want 409", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "invalid_state" {
		t.Fatalf("code = %q", code)
	}
}

func TestQuestionsEndpointLifecycle(t *testing.T) {
	svc, _ := newTestService(t, &routingReasoner{})
	r := newTestRouter(t, svc)
	ctx := context.Background()

	w := doJSON(t, r, http.MethodPost, "/api/v1/submissions",
		`{"company": {"name": "Acme"}, "dealContext": {"description": "a deal"}}`)
	sub := decodeSubmission(t, w)

	// No round exists before analysis runs.
	w = doJSON(t, r, http.MethodGet, "/api/v1/submissions/"+sub.ID+"/questions", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "not_ready" {
		t.Fatalf("code = %q", code)
	}

	doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/begin", "")
	if err := svc.RunStep(ctx, sub.ID, queue.StepInitialAnalysis); err != nil {
		t.Fatalf("initial analysis: %v", err)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/submissions/"+sub.ID+"/questions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nbody: %s", w.Code, w.Body.String())
	}
	var round RoundResponse
	if err := json.Unmarshal(w.Body.Bytes(), &round); err != nil {
		t.Fatalf("decode round: %v", err)
	}
	if round.Round != 1 || len(round.Questions) != QuestionsPerRound {
		t.Fatalf("unexpected round %+v", round)
	}
}

func TestAnswersAndReportEndpoints(t *testing.T) {
	svc, q := newTestService(t, &routingReasoner{chunkScores: map[ChunkKind]int{KindCompany: 30, KindContext: 20}})
	r := newTestRouter(t, svc)
	ctx := context.Background()

	w := doJSON(t, r, http.MethodPost, "/api/v1/submissions",
		`{"company": {"name": "Acme"}, "dealContext": {"description": "a deal"}}`)
	sub := decodeSubmission(t, w)
	doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/begin", "")
	if err := svc.RunStep(ctx, sub.ID, queue.StepInitialAnalysis); err != nil {
		t.Fatalf("initial analysis: %v", err)
	}

	// The report is not available mid-workflow.
	w = doJSON(t, r, http.MethodGet, "/api/v1/submissions/"+sub.ID+"/report", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("report status = %d, want 409", w.Code)
	}

	answers := func() string {
		parts := make([]string, 0, QuestionsPerRound)
		for i := 1; i <= QuestionsPerRound; i++ {
			parts = append(parts, `{"index": `+strconv.Itoa(i)+`, "answer": "no"}`)
		}
		return `{"answers": [` + strings.Join(parts, ",") + `]}`
	}()

	w = doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/answers", answers)
	if w.Code != http.StatusAccepted {
		t.Fatalf("answers status = %d, want 202\nbody: %s", w.Code, w.Body.String())
	}
	if err := svc.RunStep(ctx, sub.ID, q.lastStep(t)); err != nil {
		t.Fatalf("generate round two: %v", err)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/answers", answers)
	if w.Code != http.StatusAccepted {
		t.Fatalf("round two answers status = %d\nbody: %s", w.Code, w.Body.String())
	}
	if err := svc.RunStep(ctx, sub.ID, q.lastStep(t)); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/submissions/"+sub.ID+"/report", "")
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d\nbody: %s", w.Code, w.Body.String())
	}
	var rpt report.Report
	if err := json.Unmarshal(w.Body.Bytes(), &rpt); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rpt.OverallScore == 0 || rpt.Tier == "" || rpt.Markdown == "" {
		t.Fatalf("incomplete report %+v", rpt)
	}
}

func TestReportEndpointAfterFailure(t *testing.T) {
	reasoner := &routingReasoner{failOn: templateChunkPrefix, failErr: errors.New("openai: http status 400")}
	svc, _ := newTestService(t, reasoner)
	r := newTestRouter(t, svc)
	ctx := context.Background()

	w := doJSON(t, r, http.MethodPost, "/api/v1/submissions",
		`{"company": {"name": "Acme"}, "dealContext": {"description": "a deal"}}`)
	sub := decodeSubmission(t, w)
	doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/begin", "")
	_ = svc.RunStep(ctx, sub.ID, queue.StepInitialAnalysis)

	w = doJSON(t, r, http.MethodGet, "/api/v1/submissions/"+sub.ID+"/report", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if code := decodeErrorCode(t, w); code != "assessment_failed" {
		t.Fatalf("code = %q", code)
	}
}

func TestEnrichmentEndpoint(t *testing.T) {
	svc, _ := newTestService(t, &routingReasoner{})
	r := newTestRouter(t, svc)

	w := doJSON(t, r, http.MethodPost, "/api/v1/submissions",
		`{"company": {"name": "Acme"}, "dealContext": {"description": "a deal"}}`)
	sub := decodeSubmission(t, w)

	w = doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/enrichment",
		`{"content": "Registry lookup confirms an active filing."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d\nbody: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/enrichment", `{"content": ""}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank content status = %d, want 400", w.Code)
	}
}

