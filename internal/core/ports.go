package core

import (
	"context"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// AnalyzeEmail asks the LLM for a phishing risk assessment of an email
	AnalyzeEmail(ctx context.Context, email *Email) (*AIResult, error)
}

// CacheRepository defines the interface for caching AI analysis results
type CacheRepository interface {
	// Get retrieves a cached entry for a content digest
	Get(ctx context.Context, contentHash string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, contentHash string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
