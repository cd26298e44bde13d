package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ScoringOptions holds the tunable parameters of the risk scoring pipeline
type ScoringOptions struct {
	RuleWeight         float64
	AIWeight           float64
	Threshold          float64
	RequestTimeout     time.Duration
	CacheEnabled       bool
	CacheTTL           time.Duration
	WhitelistedDomains []string
}

// PhishingScorerService is the core service for phishing risk scoring. It
// blends a deterministic rule-based score with an LLM assessment and degrades
// to a neutral AI result whenever the LLM path fails.
type PhishingScorerService struct {
	llmClient LLMClient
	cache     CacheRepository
	rules     *RuleEngine
	logger    *zap.Logger
	opts      ScoringOptions
}

// NewPhishingScorerService creates a new phishing scorer service
func NewPhishingScorerService(
	llmClient LLMClient,
	cache CacheRepository,
	rules *RuleEngine,
	logger *zap.Logger,
	opts ScoringOptions,
) *PhishingScorerService {
	return &PhishingScorerService{
		llmClient: llmClient,
		cache:     cache,
		rules:     rules,
		logger:    logger,
		opts:      opts,
	}
}

// Rules returns the rule engine used by this service
func (s *PhishingScorerService) Rules() *RuleEngine {
	return s.rules
}

// isDomainWhitelisted checks if the sender's domain is in the whitelist
func (s *PhishingScorerService) isDomainWhitelisted(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}

	domain := strings.ToLower(parts[1])
	for _, whitelisted := range s.opts.WhitelistedDomains {
		if strings.EqualFold(domain, whitelisted) {
			return true
		}
	}

	return false
}

// AnalyzeEmail scores an email for phishing risk. It never fails: a broken
// AI path is absorbed into the neutral fallback result, so callers always
// receive a complete CombinedResult.
func (s *PhishingScorerService) AnalyzeEmail(ctx context.Context, email *Email) *CombinedResult {
	if s.isDomainWhitelisted(email.From) {
		s.logger.Info("Skipping phishing analysis for whitelisted domain",
			zap.String("sender", email.From),
			zap.String("action", "whitelist_bypass"))
		return &CombinedResult{
			RuleBasedScore: 0.0,
			AIAnalysis:     whitelistResult(),
			CombinedRisk:   0.0,
		}
	}

	ruleScore := s.rules.Score(email.Body)
	aiResult := s.aiAnalysis(ctx, email)

	return &CombinedResult{
		RuleBasedScore: ruleScore,
		AIAnalysis:     *aiResult,
		CombinedRisk:   s.Combine(ruleScore, aiResult.RiskScore),
	}
}

// AnalyzeContent scores raw email body text without message metadata
func (s *PhishingScorerService) AnalyzeContent(ctx context.Context, content string) *CombinedResult {
	return s.AnalyzeEmail(ctx, &Email{Body: content})
}

// Combine blends the rule-based and AI-adjusted scores with the configured
// weights (defaults 0.3/0.7)
func (s *PhishingScorerService) Combine(ruleScore, aiScore float64) float64 {
	return ruleScore*s.opts.RuleWeight + aiScore*s.opts.AIWeight
}

// IsPhishing determines if a result crosses the configured risk threshold
func (s *PhishingScorerService) IsPhishing(result *CombinedResult) bool {
	return result.CombinedRisk >= s.opts.Threshold
}

// aiAnalysis runs the LLM half of the pipeline. Any failure in the cache is
// logged and ignored; any failure in the LLM call collapses to the fallback.
func (s *PhishingScorerService) aiAnalysis(ctx context.Context, email *Email) *AIResult {
	contentHash := ContentHash(email.Body)

	if s.opts.CacheEnabled {
		if entry, err := s.cache.Get(ctx, contentHash); err == nil {
			s.logger.Debug("Cache hit for content", zap.String("content_hash", contentHash))
			return resultFromCache(entry)
		}
	}

	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	result, err := s.llmClient.AnalyzeEmail(ctx, email)
	if err != nil {
		s.logger.Error("AI analysis failed, using fallback result",
			zap.String("failure", classifyFailure(err)),
			zap.Error(err))
		return FallbackResult()
	}

	if s.opts.CacheEnabled {
		entry := &CacheEntry{
			ContentHash:  contentHash,
			RiskScore:    result.RiskScore,
			Confidence:   result.Analysis.Confidence,
			ModelVersion: result.Analysis.ModelVersion,
			LastSeen:     time.Now(),
			ExpiresAt:    time.Now().Add(s.opts.CacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return result
}

// classifyFailure maps an AI path error onto the failure taxonomy for logs
func classifyFailure(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteResponse):
		return "incomplete_response"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "transport_error"
	}
}

// FallbackResult returns the neutral AI result substituted when the LLM call
// cannot be completed or its reply cannot be used. The 0.5 midpoint encodes
// "unknown", not "safe".
func FallbackResult() *AIResult {
	now := time.Now()
	return &AIResult{
		RiskScore: 0.5,
		Analysis: AIAnalysis{
			RiskScore:          0.5,
			ThreatIndicators:   []string{"Analysis failed - using fallback"},
			Reasoning:          []string{"AI analysis encountered an error"},
			Confidence:         0.0,
			RecommendedActions: []string{"Please retry analysis or use alternative methods"},
			AdjustedRiskScore:  0.5,
			Timestamp:          now,
			ModelVersion:       "fallback",
		},
		DetailedThreats: ThreatDetails{
			Indicators: []string{"Analysis failed"},
			Reasoning:  []string{"Fallback analysis activated due to error"},
			Actions:    []string{"Please retry analysis or use alternative methods"},
		},
	}
}

// whitelistResult is the zero-risk AI result used for whitelisted senders
func whitelistResult() AIResult {
	now := time.Now()
	return AIResult{
		RiskScore: 0.0,
		Analysis: AIAnalysis{
			RiskScore:          0.0,
			ThreatIndicators:   []string{},
			Reasoning:          []string{"Sender domain is whitelisted"},
			Confidence:         1.0,
			RecommendedActions: []string{},
			AdjustedRiskScore:  0.0,
			Timestamp:          now,
			ModelVersion:       "whitelist",
		},
		DetailedThreats: ThreatDetails{
			Indicators: []string{},
			Reasoning:  []string{"Sender domain is whitelisted"},
			Actions:    []string{},
		},
	}
}

// resultFromCache rebuilds an AI result from a cached entry
func resultFromCache(entry *CacheEntry) *AIResult {
	return &AIResult{
		RiskScore: entry.RiskScore,
		Analysis: AIAnalysis{
			RiskScore:          entry.RiskScore,
			ThreatIndicators:   []string{},
			Reasoning:          []string{"Result from cache"},
			Confidence:         entry.Confidence,
			RecommendedActions: []string{},
			AdjustedRiskScore:  entry.RiskScore,
			Timestamp:          entry.LastSeen,
			ModelVersion:       "cache",
		},
		DetailedThreats: ThreatDetails{
			Indicators: []string{},
			Reasoning:  []string{"Result from cache"},
			Actions:    []string{},
		},
	}
}

// ContentHash returns the SHA-256 hex digest used as the cache key for a body
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
