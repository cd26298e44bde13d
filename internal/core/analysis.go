package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// SystemPrompt is the system-role message sent with every analysis request
const SystemPrompt = "You are a cybersecurity expert. Provide analysis in valid JSON format only."

const promptFormat = `Analyze this email for phishing attempts. Provide analysis in the following JSON format:
{
    "risk_score": (float between 0-1),
    "threat_indicators": [list of specific suspicious elements found],
    "reasoning": [list of detailed explanations],
    "confidence": (float between 0-1),
    "recommended_actions": [list of recommended user actions]
}

Consider the following in your analysis:
1. Linguistic patterns and urgency
2. Technical indicators (links, headers)
3. Social engineering tactics
4. Credential harvesting attempts

Email content:
%s`

// BuildPrompt builds the user-role analysis prompt for the email content
func BuildPrompt(content string) string {
	return fmt.Sprintf(promptFormat, content)
}

// aiAnalysisResponse is the raw JSON shape expected from the LLM
type aiAnalysisResponse struct {
	RiskScore          float64  `json:"risk_score"`
	ThreatIndicators   []string `json:"threat_indicators"`
	Reasoning          []string `json:"reasoning"`
	Confidence         float64  `json:"confidence"`
	RecommendedActions []string `json:"recommended_actions"`
}

// requiredFields must all be present in the LLM reply for it to be usable
var requiredFields = []string{"risk_score", "threat_indicators", "reasoning", "confidence"}

// ParseAIAnalysis parses and validates an LLM text reply into an AIResult.
// The reply must be a JSON object containing risk_score, threat_indicators,
// reasoning and confidence; recommended_actions is optional. Scores are
// clamped to [0,1] and the result carries the confidence-adjusted risk score.
func ParseAIAnalysis(responseText string, modelVersion string) (*AIResult, error) {
	raw, err := decodeObject(responseText)
	if err != nil {
		return nil, err
	}

	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			return nil, fmt.Errorf("%w: missing field %q", ErrIncompleteResponse, field)
		}
	}

	var resp aiAnalysisResponse
	if err := json.Unmarshal([]byte(responseText), &resp); err != nil {
		// Fields were present but with unusable types
		if jsonStr, ok := extractJSON(responseText); ok {
			if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			}
		} else {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}

	analysis := AIAnalysis{
		RiskScore:          clamp01(resp.RiskScore),
		ThreatIndicators:   resp.ThreatIndicators,
		Reasoning:          resp.Reasoning,
		Confidence:         clamp01(resp.Confidence),
		RecommendedActions: resp.RecommendedActions,
		Timestamp:          time.Now(),
		ModelVersion:       modelVersion,
	}
	analysis.AdjustedRiskScore = analysis.RiskScore * analysis.Confidence
	if analysis.RecommendedActions == nil {
		analysis.RecommendedActions = []string{}
	}

	return &AIResult{
		RiskScore: analysis.AdjustedRiskScore,
		Analysis:  analysis,
		DetailedThreats: ThreatDetails{
			Indicators: analysis.ThreatIndicators,
			Reasoning:  analysis.Reasoning,
			Actions:    analysis.RecommendedActions,
		},
	}, nil
}

// decodeObject unmarshals the reply into a key set, salvaging JSON embedded
// in surrounding prose if the reply is not a bare object
func decodeObject(responseText string) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(responseText), &raw); err == nil {
		return raw, nil
	}

	jsonStr, ok := extractJSON(responseText)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrMalformedResponse)
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return raw, nil
}

// extractJSON returns the substring between the first '{' and the last '}'
func extractJSON(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
