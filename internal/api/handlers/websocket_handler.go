package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/analyzer"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
)

type WebSocketHandler struct {
	analysis *AnalysisHandler
}

func NewWebSocketHandler(analysis *AnalysisHandler) *WebSocketHandler {
	return &WebSocketHandler{
		analysis: analysis,
	}
}

type wsRequest struct {
	Type     string           `json:"type"`
	URL      string           `json:"url"`
	Settings *models.SettingsOverride `json:"settings,omitempty"`
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg wsRequest
		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "analyze" {
			h.sendError(c, "Unsupported message type")
			continue
		}

		logger.Info("Processing WebSocket analysis", zap.String("url", msg.URL))

		if err := h.streamAnalysis(c, msg); err != nil {
			logger.Error("Failed to stream analysis", zap.Error(err))
			break
		}
	}
}

// streamAnalysis runs one analysis, writing a progress message per step and
// then either complete or error. The returned error is a write failure only.
func (h *WebSocketHandler) streamAnalysis(c *websocket.Conn, msg wsRequest) error {
	var writeErr error
	progress := func(e analyzer.ProgressEvent) {
		if writeErr != nil {
			return
		}
		writeErr = c.WriteJSON(map[string]interface{}{
			"type":    "progress",
			"step":    e.Step,
			"index":   e.Index,
			"total":   e.Total,
			"message": e.Message,
		})
	}

	res, err := h.analysis.run(context.Background(), AnalyzeRequest{URL: msg.URL, Settings: msg.Settings}, progress)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		if !analyzer.IsValidationError(err) {
			logger.Error("Failed to analyze website", zap.Error(err))
			return h.sendError(c, "Failed to analyze website")
		}
		return h.sendError(c, err.Error())
	}

	return c.WriteJSON(map[string]interface{}{
		"type":      "complete",
		"report":    res.Report,
		"historyId": res.HistoryID,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) error {
	return c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
