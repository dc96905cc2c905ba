package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rishabh7970/OneBox-For-Emails/internal/model"
	"github.com/rishabh7970/OneBox-For-Emails/internal/repository"
)

type SettingsHandler struct {
	settings *repository.SettingsRepository
}

func NewSettingsHandler(settings *repository.SettingsRepository) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get handles GET /settings
func (h *SettingsHandler) Get(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// SetSlackWebhook handles POST /settings/slack. An empty URL disables the
// sink.
func (h *SettingsHandler) SetSlackWebhook(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	s, err := h.settings.Update(c.Request.Context(), func(s *model.Settings) {
		s.SlackWebhookURL = req.URL
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// SetWebhook handles POST /settings/webhook
func (h *SettingsHandler) SetWebhook(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	s, err := h.settings.Update(c.Request.Context(), func(s *model.Settings) {
		s.WebhookURL = req.URL
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

// GetTrainingData handles GET /training-data
func (h *SettingsHandler) GetTrainingData(c *gin.Context) {
	s, err := h.settings.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trainingData": s.Training})
}

// SetTrainingData handles POST /training-data
func (h *SettingsHandler) SetTrainingData(c *gin.Context) {
	var req struct {
		ProductInfo    string `json:"productInfo"`
		OutreachAgenda string `json:"outreachAgenda"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	s, err := h.settings.Update(c.Request.Context(), func(s *model.Settings) {
		s.Training = model.TrainingData{
			ProductInfo:    req.ProductInfo,
			OutreachAgenda: req.OutreachAgenda,
			UpdatedAt:      time.Now().UTC(),
		}
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trainingData": s.Training})
}
