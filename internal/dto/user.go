package dto

import "time"

// UserProfileResponse is the signed-in user's profile with aggregates.
// @Description User profile
type UserProfileResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	DisplayName      string    `json:"displayName"`
	PhotoURL         string    `json:"photoURL,omitempty"`
	TotalQuizzes     int       `json:"totalQuizzes"`
	CompletedQuizzes int       `json:"completedQuizzes"`
	AverageScore     int       `json:"averageScore"`
	Subjects         []string  `json:"subjects"`
	CreatedAt        time.Time `json:"createdAt"`
}

// UpdateProfileRequest merges into the stored profile; omitted fields are kept.
// @Description Request body for profile updates
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,notblank,max=80"`
	PhotoURL    *string `json:"photoURL" validate:"omitempty,url,max=2048"`
}
