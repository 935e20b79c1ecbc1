package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/export"
	"github.com/krug-analyzer/backend/internal/history"
	"github.com/krug-analyzer/backend/pkg/logger"
)

type HistoryHandler struct {
	store *history.Store
}

func NewHistoryHandler(store *history.Store) *HistoryHandler {
	return &HistoryHandler{
		store: store,
	}
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	entries, err := h.store.List(c.UserContext())
	if err != nil {
		logger.Error("Failed to list history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	// The list view omits full reports.
	items := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		items = append(items, fiber.Map{
			"id":               e.ID,
			"url":              e.URL,
			"timestamp":        e.Timestamp,
			"overallScore":     e.OverallScore,
			"summaryCounts":    e.SummaryCounts,
			"settingsSnapshot": e.SettingsSnapshot,
		})
	}

	return c.JSON(fiber.Map{
		"history": items,
		"count":   len(items),
	})
}

func (h *HistoryHandler) Get(c *fiber.Ctx) error {
	entry, err := h.store.Find(c.UserContext(), c.Params("id"))
	if err != nil {
		return historyError(c, err)
	}
	return c.JSON(entry)
}

func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.store.Delete(c.UserContext(), c.Params("id")); err != nil {
		return historyError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HistoryHandler) Clear(c *fiber.Ctx) error {
	if err := h.store.Clear(c.UserContext()); err != nil {
		return historyError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *HistoryHandler) Export(c *fiber.Ctx) error {
	entry, err := h.store.Find(c.UserContext(), c.Params("id"))
	if err != nil {
		return historyError(c, err)
	}
	if entry.FullReport == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "History entry has no report",
		})
	}

	kind, err := export.ParseKind(c.Query("kind", string(export.KindReport)))
	if err != nil {
		return badRequest(c, err)
	}
	format, err := export.ParseFormat(c.Query("format", string(export.FormatMarkdown)))
	if err != nil {
		return badRequest(c, err)
	}
	opts, err := todoOptions(c)
	if err != nil {
		return badRequest(c, err)
	}

	artifact, err := export.Render(entry.FullReport, kind, format, opts)
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return badRequest(c, err)
	}
	if err != nil {
		logger.Error("Failed to render export", zap.String("id", entry.ID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to render export",
		})
	}

	c.Set(fiber.HeaderContentType, artifact.ContentType)
	c.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="%s"`, export.Filename(entry.FullReport, kind, format)))
	return c.Send(artifact.Data)
}

func todoOptions(c *fiber.Ctx) (export.TodoOptions, error) {
	opts := export.DefaultTodoOptions()

	if v := c.Query("groupBy"); v != "" {
		g, err := export.ParseGroupBy(v)
		if err != nil {
			return opts, err
		}
		opts.GroupBy = g
	}
	if v := c.Query("priority"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid priority flag %q", v)
		}
		opts.IncludePriority = b
	}
	if v := c.Query("references"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid references flag %q", v)
		}
		opts.IncludeReferences = b
	}
	return opts, nil
}

func historyError(c *fiber.Ctx, err error) error {
	if errors.Is(err, history.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "History entry not found",
		})
	}
	logger.Error("History operation failed", zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "History operation failed",
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}
