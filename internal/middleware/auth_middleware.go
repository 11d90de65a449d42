package middleware

import (
	"strings"

	"study-mitra/internal/domain"
	"study-mitra/internal/logger"
	"study-mitra/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	SessionKey          = "session" // Key for storing the domain.Session in fiber.Ctx locals
)

// Protected requires a valid, unrevoked access token and stores the caller's
// session in the request locals.
func Protected(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "MISSING_AUTH_HEADER",
				Message: "Authorization header is missing",
				Status:  fiber.StatusUnauthorized,
			})
		}

		if !strings.HasPrefix(authHeader, BearerSchema) {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_AUTH_SCHEME",
				Message: "Authorization scheme is not Bearer",
				Status:  fiber.StatusUnauthorized,
			})
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "EMPTY_TOKEN",
				Message: "Token is empty",
				Status:  fiber.StatusUnauthorized,
			})
		}

		session, err := authService.ValidateAccessToken(c.UserContext(), tokenString)
		if err != nil {
			logger.Get().Debug("Access token rejected", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Code:    "INVALID_TOKEN",
				Message: "Access token is invalid or expired",
				Status:  fiber.StatusUnauthorized,
			})
		}

		c.Locals(SessionKey, *session)
		return c.Next()
	}
}

// CurrentSession returns the session stored by Protected.
func CurrentSession(c *fiber.Ctx) (domain.Session, error) {
	session, ok := c.Locals(SessionKey).(domain.Session)
	if !ok || session.UserID == "" {
		logger.Get().Warn("Session not found in context", zap.String("path", c.Path()))
		return domain.Session{}, domain.NewUnauthorizedError("Sign in to continue")
	}
	return session, nil
}
