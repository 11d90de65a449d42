package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"

	"study-mitra/internal/cache"
	"study-mitra/internal/domain"
	"study-mitra/internal/logger"

	"go.uber.org/zap"
)

// ProfileService reads and updates the signed-in user's profile.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error)
	UploadPhoto(ctx context.Context, userID string, body io.Reader) (*domain.User, error)
}

type profileServiceImpl struct {
	userRepo   domain.UserRepository
	storage    domain.PhotoStorage
	normalizer domain.ImageNormalizer
	cache      domain.Cache
}

func NewProfileService(userRepo domain.UserRepository, storage domain.PhotoStorage, normalizer domain.ImageNormalizer, cache domain.Cache) ProfileService {
	return &profileServiceImpl{userRepo: userRepo, storage: storage, normalizer: normalizer, cache: cache}
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load profile", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("User profile not found")
	}
	return user, nil
}

func (s *profileServiceImpl) UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (*domain.User, error) {
	if update.DisplayName == nil && update.PhotoURL == nil {
		return s.GetProfile(ctx, userID)
	}
	if err := s.userRepo.UpdateProfile(ctx, userID, update); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("User profile not found")
		}
		return nil, domain.NewInternalError("Failed to update profile", err)
	}
	s.invalidateDashboard(ctx, userID)
	return s.GetProfile(ctx, userID)
}

// UploadPhoto normalizes the image, overwrites profile_photos/{uid} and stores the new URL.
func (s *profileServiceImpl) UploadPhoto(ctx context.Context, userID string, body io.Reader) (*domain.User, error) {
	data, contentType, err := s.normalizer.Normalize(body)
	if err != nil {
		return nil, err
	}

	url, err := s.storage.Upload(ctx, domain.ProfilePhotoKey(userID), contentType, bytes.NewReader(data))
	if err != nil {
		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			return nil, err
		}
		return nil, domain.NewStorageServiceError(err)
	}

	logger.Get().Info("Profile photo updated", zap.String("user_id", userID), zap.Int("bytes", len(data)))
	return s.UpdateProfile(ctx, userID, domain.ProfileUpdate{PhotoURL: &url})
}

func (s *profileServiceImpl) invalidateDashboard(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cache.DashboardKey(userID)); err != nil {
		logger.Get().Warn("Failed to invalidate dashboard", zap.String("user_id", userID), zap.Error(err))
	}
}
