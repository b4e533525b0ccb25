package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenguard/internal/models"
)

// 需要真实的 PostgreSQL，未设置 TEST_DATABASE_URL 时跳过
var connStr = os.Getenv("TEST_DATABASE_URL")

func TestPostgresStorage_SaveAndRecent(t *testing.T) {
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewPostgresStorage(ctx, connStr)
	require.NoError(t, err)
	defer store.Close()

	address := "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
	line := "FINAL VERDICT: 🟢 Low (2/10) — Minimal risk, but still a risk"

	first := &models.AnalysisResult{
		Message:         "1 vulnerabilities found. See structured details below.",
		Metrics:         []models.TopMetric{{Key: "chain", Label: "Chain", Value: "ethereum (id 1)"}},
		Token:           &models.TokenIdentity{Address: address, Name: "Test", Symbol: "TST"},
		Vulnerabilities: []models.Vulnerability{{Severity: 2, Description: "Missing events"}},
		VerdictLine:     &line,
	}
	second := &models.AnalysisResult{
		Message:         "No clear vulnerabilities identified from available data. See verdict and metrics.",
		Metrics:         []models.TopMetric{},
		Vulnerabilities: []models.Vulnerability{},
	}

	require.NoError(t, store.SaveReport(ctx, address, first))
	require.NoError(t, store.SaveReport(ctx, address, second))

	reports, err := store.RecentReports(ctx, address, 2)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, NormalizeAddress(address), reports[0].Address)
	assert.Equal(t, second.Message, reports[0].Result.Message)
	assert.Equal(t, first.Vulnerabilities, reports[1].Result.Vulnerabilities)
	require.NotNil(t, reports[1].Result.VerdictLine)
	assert.Equal(t, line, *reports[1].Result.VerdictLine)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultReportLimit, ClampLimit(0))
	assert.Equal(t, DefaultReportLimit, ClampLimit(-5))
	assert.Equal(t, 7, ClampLimit(7))
	assert.Equal(t, 100, ClampLimit(1000))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xabc", NormalizeAddress("  0xAbC "))
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, 0.0, maxSeverity(nil))
	assert.Equal(t, 9.5, maxSeverity([]models.Vulnerability{{Severity: 3}, {Severity: 9.5}, {Severity: 1}}))
}
