package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID string) string {
	return fmt.Sprintf("login:%s", studentID)
}

// TestPayloadKey returns the cache key for a test's student-facing payload
func (r *CacheKeyStruct) TestPayloadKey(testID string) string {
	return fmt.Sprintf("test:%s:payload", testID)
}

// TestLeaderboardKey returns the sorted-set key for a test's leaderboard
func (r *CacheKeyStruct) TestLeaderboardKey(testID string) string {
	return fmt.Sprintf("test:%s:leaderboard", testID)
}

var CacheKey = NewCacheKeyStruct()
