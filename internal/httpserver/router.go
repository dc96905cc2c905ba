// Package httpserver assembles the gin engine: middleware, health and
// metrics endpoints, and the API routes.
package httpserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rishabh7970/OneBox-For-Emails/internal/handler"
	"github.com/rishabh7970/OneBox-For-Emails/pkg/metrics"
)

type Router struct {
	Engine *gin.Engine
}

type Handlers struct {
	Accounts *handler.AccountHandler
	Emails   *handler.EmailHandler
	Pipeline *handler.PipelineHandler
	Settings *handler.SettingsHandler
	Demo     *handler.DemoHandler
}

func NewRouter(h Handlers, logger *zap.Logger) *Router {
	r := gin.New()
	r.Use(requestLogger(logger), gin.Recovery(), recordMetrics())

	// Health endpoints (放在最前面)
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/health", func(c *gin.Context) {
		c.Status(200)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/accounts", h.Accounts.Register)
	r.GET("/accounts", h.Accounts.List)
	r.DELETE("/accounts/:id", h.Accounts.Delete)
	r.POST("/accounts/:id/reset", h.Accounts.Reset)

	r.GET("/emails", h.Emails.List)
	r.GET("/emails/:id", h.Emails.Get)
	r.PATCH("/emails/:id", h.Emails.Update)
	r.DELETE("/emails/:id", h.Emails.Delete)

	r.POST("/sync/:accountId", h.Pipeline.Sync)
	r.POST("/categorize/:emailId", h.Pipeline.Categorize)
	r.POST("/categorize-all", h.Pipeline.CategorizeAll)
	r.GET("/analytics", h.Pipeline.Analytics)
	r.POST("/suggest-reply/:emailId", h.Pipeline.SuggestReply)

	r.GET("/settings", h.Settings.Get)
	r.POST("/settings/slack", h.Settings.SetSlackWebhook)
	r.POST("/settings/webhook", h.Settings.SetWebhook)
	r.GET("/training-data", h.Settings.GetTrainingData)
	r.POST("/training-data", h.Settings.SetTrainingData)

	r.POST("/demo/populate", h.Demo.Populate)
	r.POST("/demo/clear", h.Demo.Clear)

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(":" + port)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(started)),
		)
	}
}

func recordMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, path, strconv.Itoa(c.Writer.Status()), time.Since(started))
	}
}
