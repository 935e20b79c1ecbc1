package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	// Script schemes are only rejected as the URL's scheme.
	schemePattern = regexp.MustCompile(`(?i)^\s*(javascript|data|vbscript):`)
	markupPattern = regexp.MustCompile(`(?i)(<script|<iframe|onerror=|onload=)`)
)

type Config struct {
	MaxURLLength        int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects malformed analyze requests before they reach the
// handler. Full URL normalisation happens in the analyzer; this only screens
// shape, size and obviously hostile input.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxURLLength == 0 {
		cfg.MaxURLLength = 2048
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{fiber.MIMEApplicationJSON}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if !allowedType(contentType, cfg.AllowedContentTypes) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		if !strings.HasSuffix(c.Path(), "/analyze") {
			return c.Next()
		}

		var req map[string]interface{}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		urlStr, ok := req["url"].(string)
		if !ok || strings.TrimSpace(urlStr) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "URL is required and must be a string",
			})
		}

		if len(urlStr) > cfg.MaxURLLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "URL exceeds maximum length",
			})
		}

		if schemePattern.MatchString(urlStr) || markupPattern.MatchString(urlStr) || strings.ContainsRune(urlStr, 0) {
			cfg.Logger.Warn("Rejected hostile analyze URL",
				zap.String("ip", c.IP()),
				zap.String("url", urlStr),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid URL",
			})
		}

		if s, present := req["settings"]; present && s != nil {
			if _, ok := s.(map[string]interface{}); !ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Settings must be an object",
				})
			}
		}

		return c.Next()
	}
}

func allowedType(contentType string, allowed []string) bool {
	if contentType == "" {
		return true
	}
	for _, t := range allowed {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}
