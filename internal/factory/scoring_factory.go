package factory

import (
	"fmt"

	"github.com/mikey/llm-phishing-filter/internal/config"
	"github.com/mikey/llm-phishing-filter/internal/core"
)

// BuildRuleEngine builds the rule engine from the configured indicator table
func BuildRuleEngine(cfg *config.Config) *core.RuleEngine {
	return core.NewRuleEngine(cfg.GetIndicators(), cfg.GetScoring().IndicatorWeight)
}

// BuildScoringOptions assembles the scorer options from configuration
func BuildScoringOptions(cfg *config.Config) (core.ScoringOptions, error) {
	scoring := cfg.GetScoring()

	requestTimeout, err := cfg.GetDuration("llm.request_timeout")
	if err != nil {
		return core.ScoringOptions{}, fmt.Errorf("invalid LLM request timeout: %w", err)
	}

	cacheTTL, err := cfg.GetDuration("cache.ttl")
	if err != nil {
		return core.ScoringOptions{}, fmt.Errorf("invalid cache TTL: %w", err)
	}

	return core.ScoringOptions{
		RuleWeight:         scoring.RuleWeight,
		AIWeight:           scoring.AIWeight,
		Threshold:          scoring.Threshold,
		RequestTimeout:     requestTimeout,
		CacheEnabled:       cfg.GetBool("cache.enabled"),
		CacheTTL:           cacheTTL,
		WhitelistedDomains: cfg.GetStringSlice("phishing.whitelisted_domains"),
	}, nil
}
