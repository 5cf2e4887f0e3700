package truststore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the TrustStore interface
type SQLiteStore struct {
	db               *sql.DB
	logger           *zap.Logger
	trustedThreshold int
}

// NewSQLiteStore creates a new SQLite trust store
func NewSQLiteStore(dbPath string, logger *zap.Logger, trustedThreshold int) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sender_trust (
			sender TEXT PRIMARY KEY,
			domain TEXT,
			total INTEGER NOT NULL DEFAULT 0,
			phishing INTEGER NOT NULL DEFAULT 0,
			safe INTEGER NOT NULL DEFAULT 0,
			suspicious INTEGER NOT NULL DEFAULT 0,
			first_seen TIMESTAMP,
			last_seen TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_sender_trust_domain ON sender_trust(domain)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteStore{
		db:               db,
		logger:           logger,
		trustedThreshold: trustedThreshold,
	}, nil
}

// IsSenderTrusted reports whether the sender has only-safe history at or
// above the confirmation threshold
func (s *SQLiteStore) IsSenderTrusted(ctx context.Context, sender string) (bool, error) {
	snap, err := s.GetBehaviorSnapshot(ctx, sender)
	if err != nil || snap == nil {
		return false, err
	}
	return snap.Phishing == 0 && snap.Safe == snap.Total && snap.Safe >= s.trustedThreshold, nil
}

// GetBehaviorSnapshot returns the sender's aggregates, or nil when the
// sender has never been seen
func (s *SQLiteStore) GetBehaviorSnapshot(ctx context.Context, sender string) (*core.BehaviorSnapshot, error) {
	var (
		snap                core.BehaviorSnapshot
		firstSeen, lastSeen sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT sender, domain, total, phishing, safe, suspicious, first_seen, last_seen
		FROM sender_trust
		WHERE sender = ?
	`, normalizeSender(sender)).Scan(
		&snap.Sender, &snap.Domain, &snap.Total, &snap.Phishing,
		&snap.Safe, &snap.Suspicious, &firstSeen, &lastSeen,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query trust record: %w", err)
	}

	if firstSeen.Valid {
		if t, err := time.Parse(time.RFC3339, firstSeen.String); err == nil {
			snap.FirstSeen = &t
		}
	}
	if lastSeen.Valid {
		if t, err := time.Parse(time.RFC3339, lastSeen.String); err == nil {
			snap.LastSeen = &t
		}
	}
	return &snap, nil
}

// RecordInteraction updates the counters for a sender
func (s *SQLiteStore) RecordInteraction(ctx context.Context, sender, domain, verdict string) error {
	var column string
	switch verdict {
	case "safe":
		column = "safe"
	case "phishing":
		column = "phishing"
	case "suspicious":
		column = "suspicious"
	default:
		return ErrUnknownVerdict
	}

	now := time.Now().Format(time.RFC3339)
	query := fmt.Sprintf(`
		INSERT INTO sender_trust (sender, domain, total, %[1]s, first_seen, last_seen)
		VALUES (?, ?, 1, 1, ?, ?)
		ON CONFLICT(sender) DO UPDATE SET
			total = total + 1,
			%[1]s = %[1]s + 1,
			last_seen = excluded.last_seen
	`, column)

	_, err := s.db.ExecContext(ctx, query, normalizeSender(sender), strings.ToLower(domain), now, now)
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}

	s.logger.Debug("Recorded sender interaction",
		zap.String("sender", normalizeSender(sender)),
		zap.String("verdict", verdict))
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
