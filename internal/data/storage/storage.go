package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/songzhibin97/tokenguard/internal/data"
	"github.com/songzhibin97/tokenguard/internal/models"

	_ "github.com/lib/pq"
)

const (
	DefaultReportLimit = 20
	maxReportLimit     = 100
)

// PostgresStorage implements data.AnalysisStore
type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(ctx context.Context, connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStorage{db: db}

	if err := s.initTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return s, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// SaveReport implements data.AnalysisStore
func (s *PostgresStorage) SaveReport(ctx context.Context, address string, result *models.AnalysisResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	query := `
        INSERT INTO analysis_reports (
            address, token_name, token_symbol, vulnerability_count,
            max_severity, verdict_line, payload, created_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8
        )
    `

	var name, symbol string
	if result.Token != nil {
		name, symbol = result.Token.Name, result.Token.Symbol
	}

	_, err = s.db.ExecContext(ctx, query,
		NormalizeAddress(address),
		nullString(name),
		nullString(symbol),
		len(result.Vulnerabilities),
		maxSeverity(result.Vulnerabilities),
		result.VerdictLine,
		payload,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	return nil
}

// RecentReports implements data.AnalysisStore
func (s *PostgresStorage) RecentReports(ctx context.Context, address string, limit int) ([]data.Report, error) {
	query := `
        SELECT id, address, payload, created_at
        FROM analysis_reports
        WHERE address = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `

	rows, err := s.db.QueryContext(ctx, query, NormalizeAddress(address), ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	result := make([]data.Report, 0)
	for rows.Next() {
		var (
			report  data.Report
			payload []byte
		)
		if err := rows.Scan(&report.ID, &report.Address, &payload, &report.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		if err := json.Unmarshal(payload, &report.Result); err != nil {
			return nil, fmt.Errorf("failed to decode report %d: %w", report.ID, err)
		}
		result = append(result, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return result, nil
}

// NormalizeAddress 地址统一小写存储
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ClampLimit bounds a requested page size, defaulting non-positive values.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultReportLimit
	case limit > maxReportLimit:
		return maxReportLimit
	default:
		return limit
	}
}

func maxSeverity(vulns []models.Vulnerability) float64 {
	var m float64
	for _, v := range vulns {
		if v.Severity > m {
			m = v.Severity
		}
	}
	return m
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *PostgresStorage) initTables(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS analysis_reports (
			id BIGSERIAL PRIMARY KEY,
			address VARCHAR(42) NOT NULL,
			token_name VARCHAR(200),
			token_symbol VARCHAR(50),
			vulnerability_count INT NOT NULL DEFAULT 0,
			max_severity NUMERIC(4, 1) NOT NULL DEFAULT 0,
			verdict_line TEXT,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_analysis_reports_address_created
			ON analysis_reports (address, created_at DESC)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}
