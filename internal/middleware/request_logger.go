package middleware

import (
	"time"

	"study-mitra/internal/domain"
	"study-mitra/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger writes one structured line per request. A chain error is
// rendered by the app's ErrorHandler first so the logged status is the one sent.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if session, ok := c.Locals(SessionKey).(domain.Session); ok {
			fields = append(fields, zap.String("user_id", session.UserID))
		}
		logger.Get().Info("HTTP request", fields...)
		return nil
	}
}
