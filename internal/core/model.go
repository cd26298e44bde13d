package core

import (
	"time"
)

// Email represents an email message
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// AIAnalysis is the full record returned by the LLM, normalized and stamped
// with analysis metadata
type AIAnalysis struct {
	RiskScore          float64   `json:"risk_score"`
	ThreatIndicators   []string  `json:"threat_indicators"`
	Reasoning          []string  `json:"reasoning"`
	Confidence         float64   `json:"confidence"`
	RecommendedActions []string  `json:"recommended_actions"`
	AdjustedRiskScore  float64   `json:"adjusted_risk_score"`
	Timestamp          time.Time `json:"timestamp"`
	ModelVersion       string    `json:"model_version"`
}

// ThreatDetails groups the threat evidence extracted from an AI analysis
type ThreatDetails struct {
	Indicators []string `json:"indicators"`
	Reasoning  []string `json:"reasoning"`
	Actions    []string `json:"actions"`
}

// AIResult is the AI half of a combined analysis. RiskScore is the
// confidence-adjusted score, not the raw one reported by the model.
type AIResult struct {
	RiskScore       float64       `json:"risk_score"`
	Analysis        AIAnalysis    `json:"analysis"`
	DetailedThreats ThreatDetails `json:"detailed_threats"`
}

// CombinedResult is the final output of a phishing analysis
type CombinedResult struct {
	RuleBasedScore float64  `json:"rule_based_score"`
	AIAnalysis     AIResult `json:"ai_analysis"`
	CombinedRisk   float64  `json:"combined_risk"`
}

// CacheEntry is a cached AI analysis keyed by the email body digest
type CacheEntry struct {
	ContentHash  string
	RiskScore    float64
	Confidence   float64
	ModelVersion string
	LastSeen     time.Time
	ExpiresAt    time.Time
}
