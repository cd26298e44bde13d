package ports

import (
	"context"

	"github.com/mikey/llm-phishing-filter/internal/core"
)

// EmailFilter defines the interface for email filtering front-ends
type EmailFilter interface {
	// ProcessEmail scores an email and returns the combined analysis
	ProcessEmail(ctx context.Context, email *core.Email) (*core.CombinedResult, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
