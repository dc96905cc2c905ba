package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rishabh7970/OneBox-For-Emails/internal/pipeline"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/errclass"
)

type AccountHandler struct {
	coord *pipeline.Coordinator
}

func NewAccountHandler(coord *pipeline.Coordinator) *AccountHandler {
	return &AccountHandler{coord: coord}
}

// Register handles POST /accounts
func (h *AccountHandler) Register(c *gin.Context) {
	var req pipeline.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	acct, err := h.coord.RegisterAccount(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acct})
}

// List handles GET /accounts
func (h *AccountHandler) List(c *gin.Context) {
	accounts, err := h.coord.ListAccounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list accounts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// Delete handles DELETE /accounts/:id
func (h *AccountHandler) Delete(c *gin.Context) {
	err := h.coord.DeleteAccount(c.Request.Context(), c.Param("id"))
	if errors.Is(err, errclass.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Reset handles POST /accounts/:id/reset — reactivate a paused account.
func (h *AccountHandler) Reset(c *gin.Context) {
	acct, err := h.coord.ResetAccount(c.Request.Context(), c.Param("id"))
	if errors.Is(err, errclass.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset account"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": acct})
}
