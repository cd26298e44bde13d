package whitelist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecker_IsWhitelisted(t *testing.T) {
	checker := NewChecker([]string{"Example.com", " trusted.org "}, nil)

	tests := []struct {
		name     string
		from     string
		expected bool
	}{
		{name: "Whitelisted domain", from: "alerts@example.com", expected: true},
		{name: "Whitelisted domain mixed case", from: "it@EXAMPLE.COM", expected: true},
		{name: "Domain normalized from padded config", from: "hr@trusted.org", expected: true},
		{name: "Unknown domain", from: "scammer@evil.io", expected: false},
		{name: "Not an email address", from: "not-an-address", expected: false},
		{name: "Empty sender", from: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.IsWhitelisted(tt.from))
		})
	}
}

func TestChecker_EmptyWhitelist(t *testing.T) {
	checker := NewChecker(nil, nil)

	assert.False(t, checker.IsWhitelisted("anyone@anywhere.com"))
}
