package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/harvest/internal/domain/models"
)

// ReferenceLookup answers the form's option queries.
type ReferenceLookup interface {
	ListNames(ctx context.Context) ([]string, error)
	ListLocations(ctx context.Context) ([]string, error)
	ListCrops(ctx context.Context, query string) (models.CropOptions, error)
	SearchCrops(ctx context.Context, query string) ([]string, error)
}

// ReferenceHandler serves the lookup endpoints.
type ReferenceHandler struct {
	svc    ReferenceLookup
	logger *zap.Logger
}

// NewReferenceHandler constructs the HTTP handler adapter.
func NewReferenceHandler(svc ReferenceLookup, logger *zap.Logger) *ReferenceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceHandler{svc: svc, logger: logger}
}

// Names lists worker names.
func (h *ReferenceHandler) Names(c *gin.Context) {
	names, err := h.svc.ListNames(c.Request.Context())
	if err != nil {
		h.fail(c, "無法取得姓名數據", err)
		return
	}
	c.JSON(http.StatusOK, names)
}

// Locations lists harvest locations.
func (h *ReferenceHandler) Locations(c *gin.Context) {
	locations, err := h.svc.ListLocations(c.Request.Context())
	if err != nil {
		h.fail(c, "無法取得採收地點數據", err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

// Crops returns crops grouped by category, plus matches for q when given.
func (h *ReferenceHandler) Crops(c *gin.Context) {
	options, err := h.svc.ListCrops(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		h.fail(c, "無法取得採收作物數據", err)
		return
	}

	if options.Query != "" {
		c.JSON(http.StatusOK, gin.H{"filtered": options.Filtered, "all": options.All})
		return
	}
	c.JSON(http.StatusOK, gin.H{"all": options.All})
}

// SearchCrops returns the crops matching q.
func (h *ReferenceHandler) SearchCrops(c *gin.Context) {
	found, err := h.svc.SearchCrops(c.Request.Context(), strings.TrimSpace(c.Query("q")))
	if err != nil {
		h.fail(c, "查詢錯誤", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"filtered": found})
}

func (h *ReferenceHandler) fail(c *gin.Context, message string, err error) {
	h.logger.Error("reference lookup failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": message + ": " + err.Error()})
}
