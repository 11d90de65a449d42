package cache

import "strings"

const (
	GlobalKeyPrefix = "studymitra"

	ServiceQuizSession = "quizsession"
	ServiceDashboard   = "dashboard"
	ServiceAuth        = "auth"
	ServiceChat        = "chat"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// QuizSessionKey holds the in-flight session snapshot of one user on one quiz.
func QuizSessionKey(userID, quizID string) string {
	return GenerateCacheKey(ServiceQuizSession, "session", userID, quizID)
}

func DashboardKey(userID string) string {
	return GenerateCacheKey(ServiceDashboard, "view", userID)
}

func RevokedSessionKey(sessionID string) string {
	return GenerateCacheKey(ServiceAuth, "revoked", sessionID)
}

// ChatChannel is the pub/sub channel notified after every transcript write.
func ChatChannel(userID string) string {
	return GenerateCacheKey(ServiceChat, "feed", userID)
}
