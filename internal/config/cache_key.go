package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// GenerationLockKey returns the acceptance-lock key for an exam generation.
// Held from request acceptance until the pipeline reaches a terminal state,
// so a concurrent resubmission of the same exam id is rejected up front.
func (r *CacheKeyStruct) GenerationLockKey(examID string) string {
	return fmt.Sprintf("exam:%s:generation_lock", examID)
}

// RequesterActiveGenerationsKey returns the key holding the number of
// in-flight generations for one requester.
func (r *CacheKeyStruct) RequesterActiveGenerationsKey(requesterID string) string {
	return fmt.Sprintf("requester:%s:active_generations", requesterID)
}

var CacheKey = NewCacheKeyStruct()
