package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/internal/pipeline"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
)

type EmailHandler struct {
	coord  *pipeline.Coordinator
	emails *repository.EmailRepository
}

func NewEmailHandler(coord *pipeline.Coordinator, emails *repository.EmailRepository) *EmailHandler {
	return &EmailHandler{coord: coord, emails: emails}
}

// List handles GET /emails with optional accountId/folder/category/search
// filters, newest first.
func (h *EmailHandler) List(c *gin.Context) {
	category := model.Category(c.Query("category"))
	if category != "" && !category.Valid() && category != model.CategoryUnclassifiable {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
		return
	}
	emails, err := h.coord.FilterEmails(
		c.Request.Context(),
		c.Query("accountId"),
		c.Query("folder"),
		category,
		c.Query("search"),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list emails"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails})
}

// Get handles GET /emails/:id
func (h *EmailHandler) Get(c *gin.Context) {
	e, err := h.emails.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, errclass.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": e})
}

// Update handles PATCH /emails/:id. Pointer fields distinguish "absent"
// from "set to zero"; sending category "" clears it so the email re-enters
// the pending set.
func (h *EmailHandler) Update(c *gin.Context) {
	var req struct {
		IsRead    *bool   `json:"isRead"`
		IsStarred *bool   `json:"isStarred"`
		Category  *string `json:"category"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	e, err := h.emails.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, errclass.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load email"})
		return
	}

	if req.IsRead != nil {
		e.IsRead = *req.IsRead
	}
	if req.IsStarred != nil {
		e.IsStarred = *req.IsStarred
	}
	if req.Category != nil {
		switch cat := model.Category(*req.Category); {
		case cat == "":
			// explicit user action: clear and let the scheduler retry
			e.Category = ""
			e.CategorizedAt = nil
		case cat.Valid():
			e.Category = cat
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category"})
			return
		}
	}

	if err := h.emails.Put(c.Request.Context(), e); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": e})
}

// Delete handles DELETE /emails/:id
func (h *EmailHandler) Delete(c *gin.Context) {
	if err := h.emails.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
