package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/analyzer"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
)

// SettingsResolver yields the settings used for one analysis.
type SettingsResolver interface {
	Resolve(ctx context.Context, defaults models.Settings, override *models.SettingsOverride) models.Settings
}

type AnalyzeRequest struct {
	URL      string           `json:"url"`
	Settings *models.SettingsOverride `json:"settings,omitempty"`
}

type AnalyzeResponse struct {
	*models.AnalysisReport
	HistoryID string `json:"historyId,omitempty"`
}

type AnalysisHandler struct {
	analyzer *analyzer.Analyzer
	settings SettingsResolver
	defaults models.Settings
}

func NewAnalysisHandler(a *analyzer.Analyzer, settings SettingsResolver, defaults models.Settings) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer: a,
		settings: settings,
		defaults: defaults,
	}
}

func (h *AnalysisHandler) HandleAnalyze(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	res, err := h.run(c.UserContext(), req, nil)
	if err != nil {
		return analysisError(c, err)
	}

	return c.JSON(AnalyzeResponse{AnalysisReport: res.Report, HistoryID: res.HistoryID})
}

func (h *AnalysisHandler) run(ctx context.Context, req AnalyzeRequest, progress analyzer.ProgressFunc) (*analyzer.Result, error) {
	settings := h.settings.Resolve(ctx, h.defaults, req.Settings)
	return h.analyzer.Run(ctx, analyzer.Request{URL: req.URL, Settings: settings}, progress)
}

func analysisError(c *fiber.Ctx, err error) error {
	if analyzer.IsValidationError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return c.Status(fiber.StatusRequestTimeout).JSON(fiber.Map{
			"error": "Analysis was cancelled",
		})
	}
	logger.Error("Failed to analyze website", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Failed to analyze website",
	})
}
