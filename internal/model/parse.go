package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
)

// ParseMethod identifies which extraction strategy produced a result.
type ParseMethod string

// Extraction strategies. A cache hit keeps the method that originally
// produced the result; a non-zero CacheAge marks it as served from cache.
const (
	MethodFast     ParseMethod = "fast"
	MethodAccurate ParseMethod = "accurate"
)

// ParseResult is the outcome of one document parse, whichever strategy
// produced it.
type ParseResult struct {
	Method          ParseMethod
	Warnings        []string
	Products        []RawProduct
	ExcludedLines   []string
	ConfidenceScore float64
	Duration        time.Duration
	CacheAge        time.Duration
}

// ContentHash returns the cache key for a document: a sha256 of the content
// with whitespace runs collapsed, so trivial reformatting still hits.
func ContentHash(content string) string {
	normalized := strings.Join(strings.Fields(content), " ")
	hash := sha256.Sum256([]byte(strings.ToLower(normalized)))
	return fmt.Sprintf("%x", hash)
}
