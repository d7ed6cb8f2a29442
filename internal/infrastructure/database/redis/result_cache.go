package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	domain "github.com/turtacn/NoduleAdvisor/internal/domain/followup"
	"github.com/turtacn/NoduleAdvisor/pkg/types/nodule"
)

const resultKeyPrefix = "result:"

// ResultCache stores classification results keyed by the normalized sentence
// and the rules version that produced them.
type ResultCache struct {
	cache Cache
	ttl   time.Duration
}

// NewResultCache wraps cache.  A zero ttl uses the cache default.
func NewResultCache(cache Cache, ttl time.Duration) *ResultCache {
	return &ResultCache{cache: cache, ttl: ttl}
}

// ResultKey derives the cache key for a normalized sentence.
func ResultKey(sentence string) string {
	sum := sha256.Sum256([]byte(sentence))
	return resultKeyPrefix + domain.RulesVersion() + ":" + hex.EncodeToString(sum[:])
}

// GetOrCompute returns the cached result for sentence, or runs compute once
// across concurrent callers for the same sentence and caches a successful
// outcome.  hit is false when this call ran compute.  Errors from compute
// are returned unchanged and are never cached; an unreachable backend
// degrades to computing directly.
func (r *ResultCache) GetOrCompute(ctx context.Context, sentence string, compute func(ctx context.Context) (nodule.Result, error)) (res nodule.Result, hit bool, err error) {
	computed := false
	err = r.cache.GetOrSet(ctx, ResultKey(sentence), &res, r.ttl, func(ctx context.Context) (interface{}, error) {
		computed = true
		return compute(ctx)
	})
	if err != nil {
		return nodule.Result{}, false, err
	}
	return res, !computed, nil
}

//Personal.AI order the ending
