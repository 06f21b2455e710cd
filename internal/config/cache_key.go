package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session JTI.
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// QuizPayloadKey returns the cache key for a quiz's student-facing payload.
func (r *CacheKeyStruct) QuizPayloadKey(quizID string) string {
	return fmt.Sprintf("quiz:%s:payload", quizID)
}

// UserActiveAttemptKey returns the cache key for a user's currently active attempt.
func (r *CacheKeyStruct) UserActiveAttemptKey(userID int) string {
	return fmt.Sprintf("user:%d:active_attempt", userID)
}

var CacheKey = NewCacheKeyStruct()
