package domain

import (
	"math"
	"sort"
	"time"
)

// RecentQuizLimit is the number of quizzes shown on the dashboard.
const RecentQuizLimit = 5

// SubjectScore is the rounded average score of the completed quizzes in one subject.
type SubjectScore struct {
	Subject        string `json:"subject"`
	AverageScore   int    `json:"averageScore"`
	CompletedCount int    `json:"completedCount"`
}

// QuizSummary is a dashboard row.
type QuizSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Subject        string    `json:"subject"`
	TotalQuestions int       `json:"totalQuestions"`
	Completed      bool      `json:"completed"`
	Score          *int      `json:"score,omitempty"`
	SortTime       time.Time `json:"sortTime"`
}

// Dashboard is the per-user statistics view.
type Dashboard struct {
	TotalQuizzes     int            `json:"totalQuizzes"`
	CompletedQuizzes int            `json:"completedQuizzes"`
	AverageScore     int            `json:"averageScore"`
	Subjects         []string       `json:"subjects"`
	SubjectScores    []SubjectScore `json:"subjectScores"`
	RecentQuizzes    []QuizSummary  `json:"recentQuizzes"`
}

// BuildDashboard combines the stored profile aggregates with the per-subject
// averages and the most recent quizzes computed from the quiz list.
func BuildDashboard(user *User, quizzes []*Quiz) *Dashboard {
	d := &Dashboard{
		TotalQuizzes:     user.TotalQuizzes,
		CompletedQuizzes: user.CompletedQuizzes,
		AverageScore:     user.AverageScore(),
		Subjects:         append([]string{}, user.Subjects...),
		SubjectScores:    []SubjectScore{},
		RecentQuizzes:    []QuizSummary{},
	}

	type acc struct{ sum, n int }
	bySubject := make(map[string]*acc)
	var order []string
	for _, q := range quizzes {
		if !q.IsCompleted() || q.Score == nil {
			continue
		}
		a, ok := bySubject[q.Subject]
		if !ok {
			a = &acc{}
			bySubject[q.Subject] = a
			order = append(order, q.Subject)
		}
		a.sum += *q.Score
		a.n++
	}
	sort.Strings(order)
	for _, subject := range order {
		a := bySubject[subject]
		d.SubjectScores = append(d.SubjectScores, SubjectScore{
			Subject:        subject,
			AverageScore:   int(math.Round(float64(a.sum) / float64(a.n))),
			CompletedCount: a.n,
		})
	}

	sorted := append([]*Quiz(nil), quizzes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortTime().After(sorted[j].SortTime())
	})
	if len(sorted) > RecentQuizLimit {
		sorted = sorted[:RecentQuizLimit]
	}
	for _, q := range sorted {
		d.RecentQuizzes = append(d.RecentQuizzes, QuizSummary{
			ID:             q.ID,
			Title:          q.Title,
			Subject:        q.Subject,
			TotalQuestions: q.TotalQuestions,
			Completed:      q.IsCompleted(),
			Score:          q.Score,
			SortTime:       q.SortTime().UTC(),
		})
	}
	return d
}
