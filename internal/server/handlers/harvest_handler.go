package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/mamadbah2/harvest/internal/domain/models"
	"github.com/mamadbah2/harvest/internal/service/harvest"
)

const (
	msgNoData        = "未接收到資料"
	msgBadPayload    = "資料格式錯誤"
	msgSubmitted     = "資料提交成功"
	msgStorageFailed = "資料儲存失敗"
)

func init() {
	// Record values keep their JSON text, so 1.50 is stored as 1.50.
	binding.EnableDecoderUseNumber = true
}

// HarvestSubmitter persists harvest batches.
type HarvestSubmitter interface {
	Submit(ctx context.Context, batch []models.RawRecord) (harvest.Result, error)
}

// HarvestHandler serves the harvest submission endpoint.
type HarvestHandler struct {
	svc    HarvestSubmitter
	logger *zap.Logger
}

// NewHarvestHandler constructs the HTTP handler adapter.
func NewHarvestHandler(svc HarvestSubmitter, logger *zap.Logger) *HarvestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HarvestHandler{svc: svc, logger: logger}
}

// Submit accepts a JSON array of raw records.
func (h *HarvestHandler) Submit(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.logger.Warn("failed to read harvest payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgBadPayload})
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgNoData})
		return
	}

	// json.Valid covers the whole body, so data after the array is rejected.
	if !json.Valid(body) {
		h.logger.Warn("invalid harvest payload", zap.Int("bytes", len(body)))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgBadPayload})
		return
	}
	var batch []models.RawRecord
	if err := binding.JSON.BindBody(body, &batch); err != nil {
		h.logger.Warn("invalid harvest payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgBadPayload})
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), batch)
	if err != nil {
		if errors.Is(err, harvest.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": validationMessage(err)})
			return
		}
		h.logger.Error("failed to submit harvest batch", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgStorageFailed})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msgSubmitted, "count": result.Accepted})
}

func validationMessage(err error) string {
	var missing *harvest.MissingFieldError
	if errors.As(err, &missing) {
		return fmt.Sprintf("缺少欄位: [%s]", strings.Join(missing.Fields, ", "))
	}

	var dateErr *harvest.DateFormatError
	if errors.As(err, &dateErr) {
		return fmt.Sprintf("日期格式錯誤: %s", dateErr.Value)
	}

	if errors.Is(err, harvest.ErrEmptyBatch) {
		return msgNoData
	}
	return err.Error()
}
