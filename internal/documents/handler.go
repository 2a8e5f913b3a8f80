package documents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dealrisk-backend/internal/extract"
	"dealrisk-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the documents service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/submissions/:id/documents", h.upload)
	rg.GET("/submissions/:id/documents", h.list)
}

func (h *Handler) upload(c *gin.Context) {
	submissionID := c.Param("id")
	if submissionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "submission id is required", nil)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, _, err := h.Svc.Upload(c.Request.Context(), submissionID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrFileTooLarge):
			respond.Error(c, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds the 5 MB upload limit", nil)
		case errors.Is(err, extract.ErrUnsupportedType):
			respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_type", "only PDF, PNG, and JPEG files are accepted", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) list(c *gin.Context) {
	submissionID := c.Param("id")
	if submissionID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "submission id is required", nil)
		return
	}

	docs, err := h.Svc.List(c.Request.Context(), submissionID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	respond.OK(c, gin.H{"documents": out})
}
