package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/harvest/internal/server/handlers"
	"github.com/mamadbah2/harvest/internal/server/web"
)

// New wires the Gin engine with required routes and middlewares.
func New(harvestHandler *handlers.HarvestHandler, referenceHandler *handlers.ReferenceHandler, logger *zap.Logger) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.SetHTMLTemplate(templates)

	r.GET("/", handlers.IndexPage)
	r.GET("/get_names_options", referenceHandler.Names)
	r.GET("/get_locations_options", referenceHandler.Locations)
	r.GET("/get_crop_options", referenceHandler.Crops)
	r.GET("/search_crop_options", referenceHandler.SearchCrops)
	r.POST("/submit_harvest", harvestHandler.Submit)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized")
	}

	return r, nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
