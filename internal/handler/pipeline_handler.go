package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rishabh7970/OneBox-For-Emails/internal/pipeline"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
)

type PipelineHandler struct {
	coord *pipeline.Coordinator
}

func NewPipelineHandler(coord *pipeline.Coordinator) *PipelineHandler {
	return &PipelineHandler{coord: coord}
}

// Sync handles POST /sync/:accountId — one on-demand sync cycle.
func (h *PipelineHandler) Sync(c *gin.Context) {
	res, err := h.coord.SyncAccount(c.Request.Context(), c.Param("accountId"))
	switch {
	case errors.Is(err, errclass.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
	case errors.Is(err, errclass.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"triggered": true, "newCount": res.NewCount})
	}
}

// Categorize handles POST /categorize/:emailId
func (h *PipelineHandler) Categorize(c *gin.Context) {
	cat, err := h.coord.Classify(c.Request.Context(), c.Param("emailId"))
	switch {
	case errors.Is(err, errclass.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
	case errors.Is(err, errclass.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "classification already in flight"})
	case errors.Is(err, errclass.ErrUnconfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classifier not configured"})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"category": cat})
	}
}

// CategorizeAll handles POST /categorize-all
func (h *PipelineHandler) CategorizeAll(c *gin.Context) {
	res, err := h.coord.ClassifyAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

// Analytics handles GET /analytics
func (h *PipelineHandler) Analytics(c *gin.Context) {
	stats, err := h.coord.Analytics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute analytics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// SuggestReply handles POST /suggest-reply/:emailId
func (h *PipelineHandler) SuggestReply(c *gin.Context) {
	reply, err := h.coord.SuggestReply(c.Request.Context(), c.Param("emailId"))
	switch {
	case errors.Is(err, errclass.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
	case errors.Is(err, errclass.ErrUnconfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classifier not configured"})
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"reply": reply})
	}
}
