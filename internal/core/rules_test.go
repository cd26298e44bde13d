package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleEngine_Score(t *testing.T) {
	engine := NewRuleEngine(DefaultIndicators(), 0.2)

	tests := []struct {
		name     string
		content  string
		expected float64
	}{
		{
			name:     "Empty content",
			content:  "",
			expected: 0.0,
		},
		{
			name:     "No indicators present",
			content:  "Hi team, the quarterly report is attached. See you Thursday.",
			expected: 0.0,
		},
		{
			name:     "Single urgency match",
			content:  "This is urgent, please respond.",
			expected: 0.2,
		},
		{
			name:     "Urgency plus request",
			content:  "Urgent: please verify your account immediately",
			expected: 0.4,
		},
		{
			name:     "Near-miss phrasing does not match",
			content:  "Please verify your account immediately, your account will be suspended",
			expected: 0.2,
		},
		{
			name:     "Multiple matches within one category each count",
			content:  "Enter your login, password and username here.",
			expected: 0.6,
		},
		{
			name: "Many matches are clamped to 1.0",
			content: "urgent immediate action act now account suspended security alert " +
				"verify your account confirm your identity login password username",
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, engine.Score(tt.content), 1e-12)
		})
	}
}

func TestRuleEngine_ScoreIsCaseInsensitive(t *testing.T) {
	engine := NewRuleEngine(DefaultIndicators(), 0.2)

	assert.Equal(t, engine.Score("urgent"), engine.Score("URGENT"))
	assert.Equal(t, engine.Score("Verify Your Account"), engine.Score("verify your account"))
}

func TestRuleEngine_ScoreIsIdempotent(t *testing.T) {
	engine := NewRuleEngine(DefaultIndicators(), 0.2)
	content := "urgent: verify your account or it will be account suspended"

	first := engine.Score(content)
	second := engine.Score(content)

	assert.Equal(t, first, second)
}

func TestRuleEngine_CustomTableAndWeight(t *testing.T) {
	engine := NewRuleEngine(map[string][]string{
		"lottery": {"you have won", "claim your prize"},
	}, 0.5)

	assert.InDelta(t, 0.5, engine.Score("Congratulations, you have won!"), 1e-12)
	assert.InDelta(t, 1.0, engine.Score("you have won, claim your prize"), 1e-12)
	assert.Zero(t, engine.Score("urgent: verify your account"))
}

func TestRuleEngine_DefaultsWhenUnconfigured(t *testing.T) {
	engine := NewRuleEngine(nil, 0)

	// Falls back to the built-in table and 0.2 per match
	assert.InDelta(t, 0.2, engine.Score("please act now"), 1e-12)
}

func TestRuleEngine_Matches(t *testing.T) {
	engine := NewRuleEngine(DefaultIndicators(), 0.2)

	matches := engine.Matches("URGENT: verify your account today")

	assert.Equal(t, []string{"urgent"}, matches["urgency"])
	assert.Equal(t, []string{"verify your account"}, matches["requests"])
	assert.NotContains(t, matches, "threats")
}
