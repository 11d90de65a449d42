package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedQuiz(id, subject string, score int, createdAt, completedAt time.Time) *Quiz {
	return &Quiz{
		ID: id, Subject: subject, Title: "Quiz " + id, CreatedAt: createdAt,
		CompletedAt: &completedAt, Score: &score, TotalQuestions: 5,
	}
}

func TestBuildDashboard(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	user := &User{
		ID: "u1", TotalQuizzes: 4, CompletedQuizzes: 3, ScoreSum: 205,
		Subjects: []string{"physics", "history"},
	}
	quizzes := []*Quiz{
		completedQuiz("q1", "physics", 80, base, base.Add(10*time.Hour)),
		completedQuiz("q2", "physics", 45, base.Add(time.Hour), base.Add(2*time.Hour)),
		completedQuiz("q3", "history", 80, base.Add(3*time.Hour), base.Add(4*time.Hour)),
		{ID: "q4", Subject: "history", CreatedAt: base.Add(5 * time.Hour), TotalQuestions: 10},
	}

	d := BuildDashboard(user, quizzes)

	assert.Equal(t, 4, d.TotalQuizzes)
	assert.Equal(t, 3, d.CompletedQuizzes)
	assert.Equal(t, 68, d.AverageScore) // 205/3 = 68.33
	assert.ElementsMatch(t, []string{"physics", "history"}, d.Subjects)

	require.Len(t, d.SubjectScores, 2)
	assert.Equal(t, SubjectScore{Subject: "history", AverageScore: 80, CompletedCount: 1}, d.SubjectScores[0])
	assert.Equal(t, SubjectScore{Subject: "physics", AverageScore: 63, CompletedCount: 2}, d.SubjectScores[1]) // 62.5

	// completedAt wins over createdAt when ordering
	var ids []string
	for _, r := range d.RecentQuizzes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"q1", "q4", "q3", "q2"}, ids)
	assert.False(t, d.RecentQuizzes[1].Completed)
}

func TestBuildDashboard_LimitsRecentQuizzes(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var quizzes []*Quiz
	for i := 0; i < 8; i++ {
		quizzes = append(quizzes, &Quiz{ID: fmt.Sprintf("q%d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	d := BuildDashboard(&User{TotalQuizzes: 8}, quizzes)
	require.Len(t, d.RecentQuizzes, RecentQuizLimit)
	assert.Equal(t, "q7", d.RecentQuizzes[0].ID)
	assert.Equal(t, "q3", d.RecentQuizzes[4].ID)
}

func TestBuildDashboard_NoQuizzes(t *testing.T) {
	d := BuildDashboard(&User{}, nil)
	assert.Equal(t, 0, d.AverageScore)
	assert.Empty(t, d.SubjectScores)
	assert.NotNil(t, d.RecentQuizzes)
	assert.NotNil(t, d.Subjects)
}

func TestResolveSubject(t *testing.T) {
	assert.Equal(t, "physics", ResolveSubject("physics", "ignored"))
	assert.Equal(t, "Ancient Rome", ResolveSubject("custom", "  Ancient Rome "))
	assert.Equal(t, "", ResolveSubject("custom", "   "))
	assert.True(t, IsKnownSubject("computer_science"))
	assert.False(t, IsKnownSubject("astrology"))
}

func TestUser_AverageScore(t *testing.T) {
	assert.Equal(t, 0, (&User{}).AverageScore())
	assert.Equal(t, 75, (&User{CompletedQuizzes: 2, ScoreSum: 149}).AverageScore())
}
