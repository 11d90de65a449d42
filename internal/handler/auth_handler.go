package handler

import (
	"study-mitra/internal/domain"
	"study-mitra/internal/dto"
	"study-mitra/internal/logger"
	"study-mitra/internal/middleware"
	"study-mitra/internal/service"
	"study-mitra/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
	validator   *validation.Validator
}

func NewAuthHandler(authService service.AuthService, validator *validation.Validator) *AuthHandler {
	return &AuthHandler{authService: authService, validator: validator}
}

func tokenResponse(pair *domain.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    pair.ExpiresAt,
	}
}

// SignUp creates an account with an empty study profile.
// @Summary Sign up
// @Description Creates an email/password account and returns a token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignUpRequest true "Account details"
// @Success 201 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid request"
// @Failure 409 {object} middleware.ErrorResponse "Email already registered"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	pair, user, err := h.authService.SignUp(c.UserContext(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		return err
	}
	logger.Get().Info("User signed up", zap.String("userID", user.ID))
	return c.Status(fiber.StatusCreated).JSON(tokenResponse(pair))
}

// SignIn exchanges credentials for a token pair.
// @Summary Sign in
// @Description Verifies email and password and returns a token pair.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.SignInRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid request"
// @Failure 401 {object} middleware.ErrorResponse "Invalid email or password"
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	pair, user, err := h.authService.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	logger.Get().Info("User signed in", zap.String("userID", user.ID))
	return c.JSON(tokenResponse(pair))
}

// RefreshToken rotates the token pair.
// @Summary Refresh JWT tokens
// @Description Issues a new token pair; the presented refresh token stops working.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh Token Request"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid request"
// @Failure 401 {object} middleware.ErrorResponse "Invalid or expired refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	pair, err := h.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(tokenResponse(pair))
}

// SignOut revokes the current session.
// @Summary Sign out
// @Description Revokes the session of the presented access token and its refresh token.
// @Tags auth
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}
	if err := h.authService.SignOut(c.UserContext(), session); err != nil {
		return err
	}
	logger.Get().Info("User signed out", zap.String("userID", session.UserID))
	return c.JSON(dto.MessageResponse{Message: "Signed out"})
}
