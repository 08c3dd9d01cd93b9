package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// TeacherSessionKey returns the cache key holding a teacher's active token ID.
func (r *CacheKeyStruct) TeacherSessionKey(uid string) string {
	return fmt.Sprintf("rollbook:session:%s", uid)
}

var CacheKey = NewCacheKeyStruct()
