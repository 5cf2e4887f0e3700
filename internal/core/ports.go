package core

import (
	"context"
)

// TrustStore exposes the sender-trust service consumed by the behavior
// tracker. The engine only reads aggregates; write-backs (mark safe,
// mark phishing) are issued by the calling application after review.
type TrustStore interface {
	// IsSenderTrusted reports whether a sender meets the confirmation
	// threshold with no phishing flags
	IsSenderTrusted(ctx context.Context, sender string) (bool, error)

	// GetBehaviorSnapshot returns the aggregate interaction history for a
	// sender, or nil when the sender has never been seen
	GetBehaviorSnapshot(ctx context.Context, sender string) (*BehaviorSnapshot, error)

	// RecordInteraction updates the counters for a sender after the caller
	// has reviewed an analysis ("safe", "phishing" or "suspicious")
	RecordInteraction(ctx context.Context, sender, domain, verdict string) error
}

// MLClassifier wraps an external model that votes on an email
type MLClassifier interface {
	// ClassifyEmail returns the model's score/confidence pair for an email
	ClassifyEmail(ctx context.Context, email *EmailInput) (*MLOutput, error)
}

// HistoryRepository persists scan summaries for later review
type HistoryRepository interface {
	// SaveScan stores one scan record
	SaveScan(ctx context.Context, rec *ScanRecord) error

	// RecentScans returns the most recent scan records, newest first
	RecentScans(ctx context.Context, limit int) ([]ScanRecord, error)

	// Close releases the underlying storage
	Close() error
}
