package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// PostgresRepository is a PostgreSQL implementation of the HistoryRepository interface
type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresRepository creates a new PostgreSQL scan history repository
func NewPostgresRepository(connStr string, logger *zap.Logger) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_history (
			id UUID PRIMARY KEY,
			subject TEXT,
			from_email VARCHAR(254),
			risk_score INT NOT NULL,
			verdict VARCHAR(16) NOT NULL,
			keywords JSONB,
			links JSONB,
			ml_confidence DOUBLE PRECISION,
			created_at TIMESTAMP NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_scan_history_created_at ON scan_history(created_at DESC)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &PostgresRepository{
		db:     db,
		logger: logger,
	}, nil
}

// SaveScan stores one scan record
func (r *PostgresRepository) SaveScan(ctx context.Context, rec *core.ScanRecord) error {
	keywordsJSON, err := json.Marshal(rec.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}
	linksJSON, err := json.Marshal(rec.Links)
	if err != nil {
		return fmt.Errorf("failed to marshal links: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scan_history
			(id, subject, from_email, risk_score, verdict, keywords, links, ml_confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		rec.ID, rec.Subject, rec.FromEmail, rec.RiskScore, rec.Verdict,
		keywordsJSON, linksJSON, rec.MLConfidence, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save scan record: %w", err)
	}

	r.logger.Debug("Saved scan record",
		zap.String("id", rec.ID),
		zap.Int("risk_score", rec.RiskScore),
		zap.String("verdict", rec.Verdict))
	return nil
}

// RecentScans returns the most recent scan records, newest first
func (r *PostgresRepository) RecentScans(ctx context.Context, limit int) ([]core.ScanRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subject, from_email, risk_score, verdict, keywords, links, ml_confidence, created_at
		FROM scan_history
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	records := make([]core.ScanRecord, 0)
	for rows.Next() {
		var (
			rec                     core.ScanRecord
			keywordsJSON, linksJSON []byte
		)
		if err := rows.Scan(
			&rec.ID, &rec.Subject, &rec.FromEmail, &rec.RiskScore,
			&rec.Verdict, &keywordsJSON, &linksJSON, &rec.MLConfidence, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		json.Unmarshal(keywordsJSON, &rec.Keywords)
		json.Unmarshal(linksJSON, &rec.Links)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan history: %w", err)
	}
	return records, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}
