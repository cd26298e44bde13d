package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/llm-phishing-filter/internal/core"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for phishing analysis
type CliFilter struct {
	service *core.PhishingScorerService
	logger  *zap.Logger
	verbose bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service *core.PhishingScorerService, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
	}, nil
}

// ProcessEmail scores an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.CombinedResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", email.From)
	fmt.Printf("To: %s\n", strings.Join(email.To, ", "))
	fmt.Printf("Subject: %s\n", email.Subject)
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		fmt.Printf("\nBody preview:\n%s\n", preview)
	}

	fmt.Printf("\n")

	fmt.Printf("=== Analysis ===\n")
	fmt.Printf("Analyzing email...\n")
	startTime := time.Now()
	result := f.service.AnalyzeEmail(ctx, email)
	duration := time.Since(startTime)

	// Print results
	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Rule-based score: %.4f\n", result.RuleBasedScore)
	fmt.Printf("AI analysis score: %.4f\n", result.AIAnalysis.RiskScore)
	fmt.Printf("Combined risk score: %.4f\n", result.CombinedRisk)
	fmt.Printf("Is phishing: %t\n", f.service.IsPhishing(result))
	fmt.Printf("Model used: %s\n", result.AIAnalysis.Analysis.ModelVersion)
	fmt.Printf("Processing time: %v\n", duration)

	if f.verbose {
		fmt.Printf("\n=== Rule Matches ===\n")
		for category, phrases := range f.service.Rules().Matches(email.Body) {
			fmt.Printf("%s: %s\n", category, strings.Join(phrases, ", "))
		}

		fmt.Printf("\n=== Detailed AI Analysis ===\n")
		fmt.Printf("Confidence: %.4f\n", result.AIAnalysis.Analysis.Confidence)
		printList("Threat indicators", result.AIAnalysis.DetailedThreats.Indicators)
		printList("Reasoning", result.AIAnalysis.DetailedThreats.Reasoning)
		printList("Recommended actions", result.AIAnalysis.DetailedThreats.Actions)
	}

	return result, nil
}

func printList(title string, items []string) {
	fmt.Printf("%s:\n", title)
	if len(items) == 0 {
		fmt.Printf("  (none)\n")
		return
	}
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
