package ports

import (
	"context"

	"github.com/phishguard/phishguard/internal/core"
)

// EmailFilter defines the interface for email filtering
type EmailFilter interface {
	// ProcessEmail analyzes an email and returns the triage result
	ProcessEmail(ctx context.Context, email *core.EmailInput) (*core.AnalysisResult, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
