package assessment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealrisk-backend/internal/shared/server/middleware"
	"dealrisk-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the assessment service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches assessment routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submissions", h.create)
	rg.GET("/submissions/:id", h.get)
	rg.POST("/submissions/:id/enrichment", h.attachEnrichment)
	rg.POST("/submissions/:id/begin", h.begin)
	rg.GET("/submissions/:id/questions", h.questions)
	rg.POST("/submissions/:id/answers", h.submitAnswers)
	rg.GET("/submissions/:id/report", h.report)
}

type createRequest struct {
	Company     CompanyInfo `json:"company"`
	DealContext DealContext `json:"dealContext"`
	DealNotes   string      `json:"dealNotes"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	sub, err := h.Svc.Create(c.Request.Context(), CreateInput{
		Company:   req.Company,
		Deal:      req.DealContext,
		DealNotes: req.DealNotes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, toResponse(sub))
}

func (h *Handler) get(c *gin.Context) {
	sub, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, toResponse(sub))
}

type enrichmentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) attachEnrichment(c *gin.Context) {
	var req enrichmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	sub, err := h.Svc.AttachEnriched(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.OK(c, toResponse(sub))
}

func (h *Handler) begin(c *gin.Context) {
	ctx := WithRequestID(c.Request.Context(), requestIDFromGin(c))
	sub, err := h.Svc.Begin(ctx, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, toResponse(sub))
}

func (h *Handler) questions(c *gin.Context) {
	sub, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	round := sub.ActiveRound()
	if round == nil {
		respond.Error(c, http.StatusConflict, "not_ready", "no question round is awaiting answers", gin.H{"state": sub.State})
		return
	}
	respond.OK(c, toRoundResponse(*round))
}

type answersRequest struct {
	Answers []AnswerInput `json:"answers"`
}

func (h *Handler) submitAnswers(c *gin.Context) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), requestIDFromGin(c))
	sub, err := h.Svc.SubmitAnswers(ctx, c.Param("id"), req.Answers)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respond.JSON(c, http.StatusAccepted, toResponse(sub))
}

func (h *Handler) report(c *gin.Context) {
	sub, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if sub.Report == nil {
		if sub.State == StateFailed {
			respond.Error(c, http.StatusConflict, "assessment_failed", "assessment failed before a report was produced", sub.Failure)
			return
		}
		respond.Error(c, http.StatusConflict, "not_ready", "report is not ready", gin.H{"state": sub.State})
		return
	}
	respond.OK(c, sub.Report)
}

func respondServiceError(c *gin.Context, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		respond.Error(c, http.StatusBadRequest, "validation_error", vErr.Error(), gin.H{"field": vErr.Field})
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "submission not found", nil)
	case errors.Is(err, ErrInvalidTransition):
		respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
	case errors.Is(err, ErrStateConflict):
		respond.Error(c, http.StatusConflict, "state_conflict", "submission changed concurrently, reload and retry", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}

func requestIDFromGin(c *gin.Context) string {
	return middleware.RequestIDFromContext(c)
}
