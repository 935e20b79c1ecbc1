package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type Routes struct {
	Analysis  *AnalysisHandler
	WebSocket *WebSocketHandler
	History   *HistoryHandler
	Settings  *SettingsHandler
	// AnalyzeLimit guards the analyze endpoints. Optional.
	AnalyzeLimit fiber.Handler
	// Ready reports whether backing stores are reachable. Optional.
	Ready func() error
}

// Register mounts the API under router, normally the /api/v1 group.
func Register(router fiber.Router, r Routes) {
	limit := r.AnalyzeLimit
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("/analyze", limit, r.Analysis.HandleAnalyze)

	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/analyze", limit, websocket.New(r.WebSocket.HandleConnection))

	router.Get("/history", r.History.List)
	router.Delete("/history", r.History.Clear)
	router.Get("/history/:id", r.History.Get)
	router.Delete("/history/:id", r.History.Delete)
	router.Get("/history/:id/export", r.History.Export)

	router.Get("/settings", r.Settings.Get)
	router.Put("/settings", r.Settings.Put)
	router.Get("/categories", r.Settings.Categories)

	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	router.Get("/ready", func(c *fiber.Ctx) error {
		if r.Ready != nil {
			if err := r.Ready(); err != nil {
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status": "unavailable",
					"error":  err.Error(),
				})
			}
		}
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})
}
