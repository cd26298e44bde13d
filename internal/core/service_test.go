package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLLMClient struct {
	result *AIResult
	err    error
	calls  int
}

func (s *stubLLMClient) AnalyzeEmail(ctx context.Context, email *Email) (*AIResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type fakeCache struct {
	entries map[string]*CacheEntry
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*CacheEntry)}
}

func (c *fakeCache) Get(ctx context.Context, contentHash string) (*CacheEntry, error) {
	entry, ok := c.entries[contentHash]
	if !ok {
		return nil, errors.New("cache entry not found")
	}
	return entry, nil
}

func (c *fakeCache) Set(ctx context.Context, entry *CacheEntry) error {
	c.sets++
	c.entries[entry.ContentHash] = entry
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, contentHash string) error {
	delete(c.entries, contentHash)
	return nil
}

func (c *fakeCache) Cleanup(ctx context.Context) error {
	return nil
}

func defaultOptions() ScoringOptions {
	return ScoringOptions{
		RuleWeight: 0.3,
		AIWeight:   0.7,
		Threshold:  0.7,
	}
}

func newTestService(llm LLMClient, cache CacheRepository, opts ScoringOptions) *PhishingScorerService {
	return NewPhishingScorerService(llm, cache, NewRuleEngine(DefaultIndicators(), 0.2), zap.NewNop(), opts)
}

func successfulAIResult(riskScore, confidence float64) *AIResult {
	adjusted := riskScore * confidence
	return &AIResult{
		RiskScore: adjusted,
		Analysis: AIAnalysis{
			RiskScore:         riskScore,
			ThreatIndicators:  []string{"suspicious link"},
			Reasoning:         []string{"asks for credentials"},
			Confidence:        confidence,
			AdjustedRiskScore: adjusted,
			Timestamp:         time.Now(),
			ModelVersion:      "gpt-4",
		},
		DetailedThreats: ThreatDetails{
			Indicators: []string{"suspicious link"},
			Reasoning:  []string{"asks for credentials"},
			Actions:    []string{},
		},
	}
}

func TestCombine(t *testing.T) {
	svc := newTestService(&stubLLMClient{}, nil, defaultOptions())

	tests := []struct {
		name     string
		rule     float64
		ai       float64
		expected float64
	}{
		{name: "Both max", rule: 1.0, ai: 1.0, expected: 1.0},
		{name: "Both zero", rule: 0.0, ai: 0.0, expected: 0.0},
		{name: "Both midpoint", rule: 0.5, ai: 0.5, expected: 0.5},
		{name: "AI dominates", rule: 0.0, ai: 1.0, expected: 0.7},
		{name: "Rule alone", rule: 1.0, ai: 0.0, expected: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, svc.Combine(tt.rule, tt.ai), 1e-12)
		})
	}
}

func TestAnalyzeEmail_EndToEnd(t *testing.T) {
	llm := &stubLLMClient{result: successfulAIResult(0.9, 0.9)}
	svc := newTestService(llm, nil, defaultOptions())

	result := svc.AnalyzeContent(context.Background(),
		"Urgent: please verify your account immediately")

	// Matches: "urgent" (urgency), "verify your account" (requests)
	assert.InDelta(t, 0.4, result.RuleBasedScore, 1e-12)
	assert.InDelta(t, 0.81, result.AIAnalysis.RiskScore, 1e-12)
	assert.InDelta(t, 0.3*0.4+0.7*(0.9*0.9), result.CombinedRisk, 1e-12)
	assert.Equal(t, 1, llm.calls)
}

func TestAnalyzeEmail_FallbackOnLLMFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "Transport error", err: errors.New("connection refused")},
		{name: "Malformed response", err: ErrMalformedResponse},
		{name: "Incomplete response", err: ErrIncompleteResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &stubLLMClient{err: tt.err}
			svc := newTestService(llm, nil, defaultOptions())

			result := svc.AnalyzeContent(context.Background(), "urgent")

			require.NotNil(t, result)
			assert.Equal(t, 0.5, result.AIAnalysis.RiskScore)
			assert.Equal(t, 0.0, result.AIAnalysis.Analysis.Confidence)
			assert.InDelta(t, 0.3*0.2+0.7*0.5, result.CombinedRisk, 1e-12)
		})
	}
}

func TestAnalyzeEmail_FallbackShape(t *testing.T) {
	fallback := FallbackResult()

	assert.Equal(t, 0.5, fallback.RiskScore)
	assert.Equal(t, 0.0, fallback.Analysis.Confidence)
	assert.Equal(t, []string{"Analysis failed - using fallback"}, fallback.Analysis.ThreatIndicators)
	assert.Equal(t, []string{"Please retry analysis or use alternative methods"}, fallback.DetailedThreats.Actions)
	assert.False(t, fallback.Analysis.Timestamp.IsZero())
}

func TestAnalyzeEmail_WhitelistedDomainSkipsAnalysis(t *testing.T) {
	llm := &stubLLMClient{err: errors.New("should not be called")}
	opts := defaultOptions()
	opts.WhitelistedDomains = []string{"example.com"}
	svc := newTestService(llm, nil, opts)

	result := svc.AnalyzeEmail(context.Background(), &Email{
		From: "alerts@example.com",
		Body: "urgent: verify your account",
	})

	assert.Zero(t, result.RuleBasedScore)
	assert.Zero(t, result.CombinedRisk)
	assert.Equal(t, "whitelist", result.AIAnalysis.Analysis.ModelVersion)
	assert.Zero(t, llm.calls)
}

func TestAnalyzeEmail_CacheHitSkipsLLM(t *testing.T) {
	body := "please confirm your identity"
	cache := newFakeCache()
	cache.entries[ContentHash(body)] = &CacheEntry{
		ContentHash: ContentHash(body),
		RiskScore:   0.63,
		Confidence:  0.9,
		LastSeen:    time.Now(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}

	llm := &stubLLMClient{err: errors.New("should not be called")}
	opts := defaultOptions()
	opts.CacheEnabled = true
	opts.CacheTTL = time.Hour
	svc := newTestService(llm, cache, opts)

	result := svc.AnalyzeContent(context.Background(), body)

	assert.Equal(t, 0.63, result.AIAnalysis.RiskScore)
	assert.Equal(t, "cache", result.AIAnalysis.Analysis.ModelVersion)
	assert.Zero(t, llm.calls)
}

func TestAnalyzeEmail_SuccessfulAnalysisUpdatesCache(t *testing.T) {
	body := "hello there"
	cache := newFakeCache()
	llm := &stubLLMClient{result: successfulAIResult(0.2, 0.5)}
	opts := defaultOptions()
	opts.CacheEnabled = true
	opts.CacheTTL = time.Hour
	svc := newTestService(llm, cache, opts)

	svc.AnalyzeContent(context.Background(), body)

	require.Equal(t, 1, cache.sets)
	entry, err := cache.Get(context.Background(), ContentHash(body))
	require.NoError(t, err)
	assert.InDelta(t, 0.1, entry.RiskScore, 1e-12)
	assert.Equal(t, "gpt-4", entry.ModelVersion)
}

func TestIsPhishing(t *testing.T) {
	svc := newTestService(&stubLLMClient{}, nil, defaultOptions())

	assert.True(t, svc.IsPhishing(&CombinedResult{CombinedRisk: 0.7}))
	assert.True(t, svc.IsPhishing(&CombinedResult{CombinedRisk: 0.9}))
	assert.False(t, svc.IsPhishing(&CombinedResult{CombinedRisk: 0.69}))
}
