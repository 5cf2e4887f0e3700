package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// MySQLRepository is a MySQL implementation of the HistoryRepository interface
type MySQLRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLRepository creates a new MySQL scan history repository
func NewMySQLRepository(dsn string, logger *zap.Logger) (*MySQLRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS scan_history (
			id VARCHAR(36) PRIMARY KEY,
			subject VARCHAR(512),
			from_email VARCHAR(255),
			risk_score INT NOT NULL,
			verdict VARCHAR(16) NOT NULL,
			keywords TEXT,
			links TEXT,
			ml_confidence FLOAT,
			created_at TIMESTAMP,
			INDEX idx_created_at (created_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLRepository{
		db:     db,
		logger: logger,
	}, nil
}

// SaveScan stores one scan record
func (r *MySQLRepository) SaveScan(ctx context.Context, rec *core.ScanRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scan_history
			(id, subject, from_email, risk_score, verdict, keywords, links, ml_confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Subject,
		rec.FromEmail,
		rec.RiskScore,
		rec.Verdict,
		joinList(rec.Keywords),
		joinList(rec.Links),
		rec.MLConfidence,
		rec.CreatedAt,
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
func (r *MySQLRepository) RecentScans(ctx context.Context, limit int) ([]core.ScanRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subject, from_email, risk_score, verdict, keywords, links, ml_confidence, created_at
		FROM scan_history
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan history: %w", err)
	}
	defer rows.Close()

	var records []core.ScanRecord
	for rows.Next() {
		var (
			rec             core.ScanRecord
			keywords, links string
		)
		if err := rows.Scan(
			&rec.ID, &rec.Subject, &rec.FromEmail, &rec.RiskScore,
			&rec.Verdict, &keywords, &links, &rec.MLConfidence, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		rec.Keywords = splitList(keywords)
		rec.Links = splitList(links)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan history: %w", err)
	}
	return records, nil
}

// Close closes the database connection
func (r *MySQLRepository) Close() error {
	return r.db.Close()
}

func joinList(items []string) string {
	return strings.Join(items, "\n")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
