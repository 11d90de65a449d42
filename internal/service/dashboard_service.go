package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"study-mitra/internal/cache"
	"study-mitra/internal/domain"
	"study-mitra/internal/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DashboardService serves the per-user statistics view from a short-lived cache.
type DashboardService interface {
	GetDashboard(ctx context.Context, userID string) (*domain.Dashboard, error)
}

type dashboardServiceImpl struct {
	userRepo domain.UserRepository
	quizRepo domain.QuizRepository
	cache    domain.Cache
	ttl      time.Duration
	sfGroup  singleflight.Group
}

func NewDashboardService(userRepo domain.UserRepository, quizRepo domain.QuizRepository, cache domain.Cache, ttl time.Duration) DashboardService {
	return &dashboardServiceImpl{userRepo: userRepo, quizRepo: quizRepo, cache: cache, ttl: ttl}
}

func (s *dashboardServiceImpl) GetDashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	cacheKey := cache.DashboardKey(userID)

	cached, err := s.cache.Get(ctx, cacheKey)
	if err == nil {
		var d domain.Dashboard
		errDecode := json.Unmarshal([]byte(cached), &d)
		if errDecode == nil {
			return &d, nil
		}
		logger.Get().Warn("Failed to decode cached dashboard", zap.String("cacheKey", cacheKey), zap.Error(errDecode))
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		logger.Get().Warn("Failed to read dashboard cache", zap.String("cacheKey", cacheKey), zap.Error(err))
	}

	// Concurrent misses for the same user share one load.
	res, err, _ := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		d, loadErr := s.load(ctx, userID)
		if loadErr != nil {
			return nil, loadErr
		}
		if s.ttl > 0 {
			if raw, errEncode := json.Marshal(d); errEncode == nil {
				if errSet := s.cache.Set(ctx, cacheKey, string(raw), s.ttl); errSet != nil {
					logger.Get().Warn("Failed to cache dashboard", zap.String("cacheKey", cacheKey), zap.Error(errSet))
				}
			}
		}
		return d, nil
	})
	if err != nil {
		return nil, err
	}

	if d, ok := res.(*domain.Dashboard); ok {
		return d, nil
	}
	return nil, domain.NewInternalError("Failed to build dashboard", fmt.Errorf("unexpected type from singleflight.Do: %T", res))
}

func (s *dashboardServiceImpl) load(ctx context.Context, userID string) (*domain.Dashboard, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load profile", err)
	}
	if user == nil {
		return nil, domain.NewNotFoundError("User profile not found")
	}
	quizzes, err := s.quizRepo.ListQuizzesByUser(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list quizzes", err)
	}
	return domain.BuildDashboard(user, quizzes), nil
}
