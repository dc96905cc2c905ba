package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rishabh7970/OneBox-For-Emails/internal/demo"
)

type DemoHandler struct {
	seeder *demo.Seeder
}

func NewDemoHandler(seeder *demo.Seeder) *DemoHandler {
	return &DemoHandler{seeder: seeder}
}

// Populate handles POST /demo/populate
func (h *DemoHandler) Populate(c *gin.Context) {
	accounts, emails, err := h.seeder.Populate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to populate demo data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"accounts": accounts,
		"emails":   emails,
	})
}

// Clear handles POST /demo/clear
func (h *DemoHandler) Clear(c *gin.Context) {
	if err := h.seeder.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
