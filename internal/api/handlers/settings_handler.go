package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/krug-analyzer/backend/internal/catalog"
	"github.com/krug-analyzer/backend/internal/history"
	"github.com/krug-analyzer/backend/internal/storage/models"
	"github.com/krug-analyzer/backend/pkg/logger"
	"github.com/krug-analyzer/backend/pkg/utils"
)

type SettingsHandler struct {
	store    *history.SettingsStore
	defaults models.Settings
}

func NewSettingsHandler(store *history.SettingsStore, defaults models.Settings) *SettingsHandler {
	return &SettingsHandler{
		store:    store,
		defaults: defaults,
	}
}

// Get returns the effective settings with API keys masked.
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.store.Effective(c.UserContext(), h.defaults)
	if err != nil {
		logger.Warn("Failed to load settings", zap.Error(err))
	}
	return c.JSON(maskSettings(settings))
}

func (h *SettingsHandler) Put(c *fiber.Ctx) error {
	var settings models.Settings
	if err := c.BodyParser(&settings); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	saved, err := h.store.Load(c.UserContext())
	if err != nil {
		logger.Warn("Failed to load settings", zap.Error(err))
	}
	if saved == nil {
		saved = &models.Settings{}
	}
	settings.AIAPIKey = unmaskKey(settings.AIAPIKey, saved.AIAPIKey, h.defaults.AIAPIKey)
	settings.ScrapeAPIKey = unmaskKey(settings.ScrapeAPIKey, saved.ScrapeAPIKey, h.defaults.ScrapeAPIKey)

	if err := h.store.Save(c.UserContext(), settings); err != nil {
		if errors.Is(err, models.ErrInvalidSettings) {
			return badRequest(c, err)
		}
		logger.Error("Failed to save settings", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save settings",
		})
	}

	effective, _ := h.store.Effective(c.UserContext(), h.defaults)
	return c.JSON(maskSettings(effective))
}

func (h *SettingsHandler) Categories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"categories":  catalog.List(),
		"totalWeight": catalog.TotalWeight(),
	})
}

func maskSettings(s models.Settings) models.Settings {
	s.AIAPIKey = utils.MaskSecret(s.AIAPIKey)
	s.ScrapeAPIKey = utils.MaskSecret(s.ScrapeAPIKey)
	return s
}

// unmaskKey maps a key echoed back from Get to the stored value so a
// round-trip does not persist the mask. An echo of the default key is
// stored as blank and keeps following the default.
func unmaskKey(incoming, saved, def string) string {
	switch {
	case incoming == "":
		return ""
	case saved != "" && incoming == utils.MaskSecret(saved):
		return saved
	case def != "" && incoming == utils.MaskSecret(def):
		return ""
	}
	return incoming
}
