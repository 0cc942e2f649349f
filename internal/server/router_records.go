package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/globalreino/attendance/backend/internal/records"
	"github.com/globalreino/attendance/backend/internal/reporting"
	"go.uber.org/zap"
)

type captureRequestPayload struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	TotalPeople  int    `json:"total_people"`
	Decisions    int    `json:"decisions"`
	Visitors     int    `json:"visitors"`
	KidsVisitors int    `json:"kids_visitors"`
}

func (h *httpHandler) handleListRecords(c *gin.Context) {
	_, scope, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	visible, err := h.records.ListScoped(scope)
	if err != nil {
		h.logger.Error("failed to list records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record_list_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": visible})
}

func (h *httpHandler) handleSaveRecord(c *gin.Context) {
	_, scope, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var request captureRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	record, err := h.records.Add(scope, records.CaptureInput{
		Date:         request.Date,
		Time:         request.Time,
		TotalPeople:  request.TotalPeople,
		Decisions:    request.Decisions,
		Visitors:     request.Visitors,
		KidsVisitors: request.KidsVisitors,
	})
	if errors.Is(err, records.ErrInvalidInput) || errors.Is(err, records.ErrNegativeCount) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if errors.Is(err, records.ErrUnknownBranch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_branch"})
		return
	}
	if err != nil {
		h.logger.Error("failed to save record", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record_save_failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"record": record})
}

func (h *httpHandler) handleSummary(c *gin.Context) {
	visible, ok := h.scopedRecords(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, reporting.Summarize(visible))
}

func (h *httpHandler) handleTrend(c *gin.Context) {
	visible, ok := h.scopedRecords(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": reporting.Trend(visible)})
}

func (h *httpHandler) handleHistory(c *gin.Context) {
	visible, ok := h.scopedRecords(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": reporting.History(visible)})
}

func (h *httpHandler) handleHistoryExport(c *gin.Context) {
	visible, ok := h.scopedRecords(c)
	if !ok {
		return
	}

	// Build the workbook in memory first so a failure can still answer
	// with JSON instead of corrupting a half-written body.
	var workbook bytes.Buffer
	if err := reporting.WriteHistoryWorkbook(visible, &workbook); err != nil {
		h.logger.Error("failed to export history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed"})
		return
	}

	filename := fmt.Sprintf("attendance-history-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook.Bytes())
}

func (h *httpHandler) scopedRecords(c *gin.Context) ([]records.MeetingRecord, bool) {
	_, scope, err := h.sessionFrom(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return nil, false
	}
	visible, err := h.records.ListScoped(scope)
	if err != nil {
		h.logger.Error("failed to load scoped records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record_list_failed"})
		return nil, false
	}
	return visible, true
}
