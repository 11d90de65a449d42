package handler

import (
	"fmt"

	"study-mitra/internal/domain"
	"study-mitra/internal/dto"
	"study-mitra/internal/logger"
	"study-mitra/internal/middleware"
	"study-mitra/internal/service"
	"study-mitra/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// photoFormField is the multipart field carrying the uploaded image.
const photoFormField = "photo"

type UserHandler struct {
	profileService   service.ProfileService
	dashboardService service.DashboardService
	validator        *validation.Validator
	maxUploadBytes   int64
}

func NewUserHandler(
	profileService service.ProfileService,
	dashboardService service.DashboardService,
	validator *validation.Validator,
	maxUploadBytes int64,
) *UserHandler {
	return &UserHandler{
		profileService:   profileService,
		dashboardService: dashboardService,
		validator:        validator,
		maxUploadBytes:   maxUploadBytes,
	}
}

func profileResponse(u *domain.User) dto.UserProfileResponse {
	subjects := u.Subjects
	if subjects == nil {
		subjects = []string{}
	}
	return dto.UserProfileResponse{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		PhotoURL:         u.PhotoURL,
		TotalQuizzes:     u.TotalQuizzes,
		CompletedQuizzes: u.CompletedQuizzes,
		AverageScore:     u.AverageScore(),
		Subjects:         subjects,
		CreatedAt:        u.CreatedAt,
	}
}

// GetMyProfile retrieves the profile of the currently authenticated user.
// @Summary Get My Profile
// @Description Retrieves the profile and study aggregates of the logged-in user.
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} dto.UserProfileResponse
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Failure 500 {object} middleware.ErrorResponse "Internal server error"
// @Router /users/me [get]
func (h *UserHandler) GetMyProfile(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	user, err := h.profileService.GetProfile(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(user))
}

// UpdateMyProfile merges a display name and/or photo URL into the profile.
// @Summary Update My Profile
// @Description Omitted fields keep their stored value.
// @Tags users
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.UserProfileResponse
// @Failure 400 {object} middleware.ValidationErrorResponse "Invalid request"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Router /users/me [put]
func (h *UserHandler) UpdateMyProfile(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	var req dto.UpdateProfileRequest
	if err := bindJSON(c, h.validator, &req); err != nil {
		return err
	}

	user, err := h.profileService.UpdateProfile(c.UserContext(), session.UserID, domain.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(user))
}

// UploadMyPhoto stores a new profile photo.
// @Summary Upload Profile Photo
// @Description The image is cropped to a square JPEG and replaces the previous photo.
// @Tags users
// @Security ApiKeyAuth
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Image file"
// @Success 200 {object} dto.UserProfileResponse
// @Failure 400 {object} middleware.ErrorResponse "Missing file"
// @Failure 413 {object} middleware.ErrorResponse "File too large"
// @Failure 415 {object} middleware.ErrorResponse "Not an image"
// @Failure 502 {object} middleware.ErrorResponse "Storage failure"
// @Router /users/me/photo [post]
func (h *UserHandler) UploadMyPhoto(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile(photoFormField)
	if err != nil {
		return domain.ValidationErrors{domain.NewMissingFieldError(photoFormField)}
	}
	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("photo must be at most %d bytes", h.maxUploadBytes))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return domain.NewInternalError("Failed to read upload", err)
	}
	defer file.Close()

	user, err := h.profileService.UploadPhoto(c.UserContext(), session.UserID, file)
	if err != nil {
		return err
	}
	logger.Get().Info("Profile photo uploaded", zap.String("userID", session.UserID), zap.Int64("size", fileHeader.Size))
	return c.JSON(profileResponse(user))
}

// GetMyDashboard returns the statistics view.
// @Summary Get My Dashboard
// @Description Totals, average score, per-subject averages and the five most recent quizzes.
// @Tags users
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} domain.Dashboard
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 404 {object} middleware.ErrorResponse "User not found"
// @Router /users/me/dashboard [get]
func (h *UserHandler) GetMyDashboard(c *fiber.Ctx) error {
	session, err := middleware.CurrentSession(c)
	if err != nil {
		return err
	}

	dashboard, err := h.dashboardService.GetDashboard(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dashboard)
}
