package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentSessionKey returns the cache key for a student's login session
func (r *CacheKeyStruct) StudentSessionKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// CatalogCoursesKey returns the cache key for the full public catalog payload
func (r *CacheKeyStruct) CatalogCoursesKey() string {
	return "catalog:courses"
}

// CourseKey returns the cache key for a single course payload
func (r *CacheKeyStruct) CourseKey(code string) string {
	return fmt.Sprintf("catalog:course:%s", code)
}

// EnrollmentFeedChannel returns the Redis PubSub channel for the live
// registrar enrollment feed
func (r *CacheKeyStruct) EnrollmentFeedChannel() string {
	return "enrollments:feed"
}

var CacheKey = NewCacheKeyStruct()
