package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"study-mitra/internal/cache"
	"study-mitra/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_GetDashboard(t *testing.T) {
	ctx := context.Background()
	user := &domain.User{ID: "u1", TotalQuizzes: 2, CompletedQuizzes: 1, ScoreSum: 80, Subjects: []string{"physics", "history"}}
	done := time.Now()
	score := 80
	quizzes := []*domain.Quiz{
		{ID: "q1", Subject: "physics", CreatedAt: done.Add(-time.Hour), CompletedAt: &done, Score: &score},
		{ID: "q2", Subject: "history", CreatedAt: done.Add(-time.Minute)},
	}

	t.Run("MissLoadsAndCaches", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		quizRepo := new(MockQuizRepository)
		c := newMemoryCache()
		svc := NewDashboardService(userRepo, quizRepo, c, time.Minute)

		userRepo.On("GetUserByID", ctx, "u1").Return(user, nil).Once()
		quizRepo.On("ListQuizzesByUser", ctx, "u1").Return(quizzes, nil).Once()

		d, err := svc.GetDashboard(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 80, d.AverageScore)
		require.Len(t, d.RecentQuizzes, 2)
		assert.Equal(t, "q1", d.RecentQuizzes[0].ID, "completion time sorts ahead of a later creation")
		assert.Equal(t, time.Minute, c.ttls[cache.DashboardKey("u1")])

		again, err := svc.GetDashboard(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, d.TotalQuizzes, again.TotalQuizzes)
		userRepo.AssertNumberOfCalls(t, "GetUserByID", 1)
	})

	t.Run("CacheHit", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		c := newMemoryCache()
		raw, err := json.Marshal(domain.Dashboard{TotalQuizzes: 9})
		require.NoError(t, err)
		c.values[cache.DashboardKey("u1")] = string(raw)
		svc := NewDashboardService(userRepo, new(MockQuizRepository), c, time.Minute)

		d, err := svc.GetDashboard(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 9, d.TotalQuizzes)
		userRepo.AssertNotCalled(t, "GetUserByID")
	})

	t.Run("CacheErrorFallsBackToDatabase", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		quizRepo := new(MockQuizRepository)
		c := newMemoryCache()
		c.getErr = errors.New("redis down")
		svc := NewDashboardService(userRepo, quizRepo, c, time.Minute)

		userRepo.On("GetUserByID", ctx, "u1").Return(user, nil).Once()
		quizRepo.On("ListQuizzesByUser", ctx, "u1").Return([]*domain.Quiz{}, nil).Once()

		d, err := svc.GetDashboard(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, 2, d.TotalQuizzes)
		assert.Empty(t, d.RecentQuizzes)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		svc := NewDashboardService(userRepo, new(MockQuizRepository), newMemoryCache(), time.Minute)
		userRepo.On("GetUserByID", ctx, "ghost").Return(nil, nil).Once()

		_, err := svc.GetDashboard(ctx, "ghost")
		assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	})
}
