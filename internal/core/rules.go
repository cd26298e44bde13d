package core

import (
	"math"
	"strings"
)

// DefaultIndicators returns the built-in phishing indicator table
func DefaultIndicators() map[string][]string {
	return map[string][]string{
		"urgency":     {"immediate action", "urgent", "act now"},
		"threats":     {"account suspended", "security alert"},
		"requests":    {"verify your account", "confirm your identity"},
		"credentials": {"login", "password", "username"},
	}
}

// RuleEngine scores email content against a static table of phishing
// indicator phrases. The table is normalized once at construction and never
// mutated, so the engine is safe for concurrent use.
type RuleEngine struct {
	indicators  map[string][]string
	matchWeight float64
}

// NewRuleEngine creates a rule engine from an indicator table. Phrases are
// lowercased up front; matching is case-insensitive substring containment.
func NewRuleEngine(indicators map[string][]string, matchWeight float64) *RuleEngine {
	if len(indicators) == 0 {
		indicators = DefaultIndicators()
	}
	if matchWeight <= 0 {
		matchWeight = 0.2
	}

	normalized := make(map[string][]string, len(indicators))
	for category, phrases := range indicators {
		list := make([]string, 0, len(phrases))
		for _, phrase := range phrases {
			phrase = strings.ToLower(strings.TrimSpace(phrase))
			if phrase != "" {
				list = append(list, phrase)
			}
		}
		normalized[strings.ToLower(category)] = list
	}

	return &RuleEngine{
		indicators:  normalized,
		matchWeight: matchWeight,
	}
}

// Score computes the rule-based phishing score for the content. Each indicator
// phrase found in the lowercased content adds the match weight; the sum is
// clamped to [0,1]. Multiple matches within one category each count.
func (e *RuleEngine) Score(content string) float64 {
	content = strings.ToLower(content)
	score := 0.0

	for _, phrases := range e.indicators {
		for _, phrase := range phrases {
			if strings.Contains(content, phrase) {
				score += e.matchWeight
			}
		}
	}

	return math.Min(score, 1.0)
}

// Matches returns the indicator phrases found in the content, keyed by
// category. Used by the CLI front-end to explain the rule score.
func (e *RuleEngine) Matches(content string) map[string][]string {
	content = strings.ToLower(content)
	matches := make(map[string][]string)

	for category, phrases := range e.indicators {
		for _, phrase := range phrases {
			if strings.Contains(content, phrase) {
				matches[category] = append(matches[category], phrase)
			}
		}
	}

	return matches
}
