package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAIAnalysis_ValidResponse(t *testing.T) {
	reply := `{
		"risk_score": 0.8,
		"threat_indicators": ["suspicious link", "spoofed sender"],
		"reasoning": ["asks for credentials"],
		"confidence": 0.5,
		"recommended_actions": ["do not click the link"]
	}`

	result, err := ParseAIAnalysis(reply, "gpt-4")
	require.NoError(t, err)

	// Top-level risk score is confidence-adjusted
	assert.InDelta(t, 0.4, result.RiskScore, 1e-12)
	assert.InDelta(t, 0.8, result.Analysis.RiskScore, 1e-12)
	assert.InDelta(t, 0.5, result.Analysis.Confidence, 1e-12)
	assert.Equal(t, "gpt-4", result.Analysis.ModelVersion)
	assert.False(t, result.Analysis.Timestamp.IsZero())
	assert.Equal(t, []string{"suspicious link", "spoofed sender"}, result.DetailedThreats.Indicators)
	assert.Equal(t, []string{"asks for credentials"}, result.DetailedThreats.Reasoning)
	assert.Equal(t, []string{"do not click the link"}, result.DetailedThreats.Actions)
}

func TestParseAIAnalysis_ClampsOutOfRangeScores(t *testing.T) {
	reply := `{"risk_score": 1.8, "threat_indicators": [], "reasoning": [], "confidence": -0.3}`

	result, err := ParseAIAnalysis(reply, "gpt-4")
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Analysis.RiskScore)
	assert.Equal(t, 0.0, result.Analysis.Confidence)
	assert.Equal(t, 0.0, result.RiskScore)
}

func TestParseAIAnalysis_OptionalActionsDefaultToEmpty(t *testing.T) {
	reply := `{"risk_score": 0.3, "threat_indicators": ["x"], "reasoning": ["y"], "confidence": 1.0}`

	result, err := ParseAIAnalysis(reply, "gpt-4")
	require.NoError(t, err)

	assert.NotNil(t, result.Analysis.RecommendedActions)
	assert.Empty(t, result.Analysis.RecommendedActions)
	assert.Empty(t, result.DetailedThreats.Actions)
}

func TestParseAIAnalysis_SalvagesJSONEmbeddedInProse(t *testing.T) {
	reply := "Here is my assessment:\n" +
		`{"risk_score": 0.6, "threat_indicators": [], "reasoning": [], "confidence": 0.9}` +
		"\nLet me know if you need more detail."

	result, err := ParseAIAnalysis(reply, "gpt-4")
	require.NoError(t, err)
	assert.InDelta(t, 0.54, result.RiskScore, 1e-12)
}

func TestParseAIAnalysis_MalformedResponse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "Not JSON at all", reply: "I think this email is probably fine."},
		{name: "Truncated object", reply: `{"risk_score": 0.6, "threat`},
		{name: "Empty reply", reply: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseAIAnalysis(tt.reply, "gpt-4")
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestParseAIAnalysis_IncompleteResponse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "Missing risk_score", reply: `{"threat_indicators": [], "reasoning": [], "confidence": 0.9}`},
		{name: "Missing confidence", reply: `{"risk_score": 0.6, "threat_indicators": [], "reasoning": []}`},
		{name: "Missing reasoning", reply: `{"risk_score": 0.6, "threat_indicators": [], "confidence": 0.9}`},
		{name: "Missing threat_indicators", reply: `{"risk_score": 0.6, "reasoning": [], "confidence": 0.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseAIAnalysis(tt.reply, "gpt-4")
			assert.Nil(t, result)
			assert.ErrorIs(t, err, ErrIncompleteResponse)
		})
	}
}
