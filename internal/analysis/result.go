package analysis

import (
	"fmt"
	"sort"

	"github.com/songzhibin97/tokenguard/internal/models"
)

const noFindingsMessage = "No clear vulnerabilities identified from available data. See verdict and metrics."

// AssembleResult combines the parts into the final result. Vulnerabilities
// are stable-sorted by severity, highest first. It performs no I/O.
func AssembleResult(vulns []models.Vulnerability, verdictLine *string, metrics []models.TopMetric, token *models.TokenIdentity) *models.AnalysisResult {
	sorted := make([]models.Vulnerability, len(vulns))
	copy(sorted, vulns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})

	message := noFindingsMessage
	if len(sorted) > 0 {
		message = fmt.Sprintf("%d vulnerabilities found. See structured details below.", len(sorted))
	}

	if metrics == nil {
		metrics = []models.TopMetric{}
	}
	if len(metrics) > MaxMetrics {
		metrics = metrics[:MaxMetrics]
	}

	return &models.AnalysisResult{
		Message:         message,
		Metrics:         metrics,
		Token:           token,
		Vulnerabilities: sorted,
		VerdictLine:     verdictLine,
	}
}

// RefusalResult is the fixed reply for blocked input.
func RefusalResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Message:         RefusalMessage,
		Metrics:         []models.TopMetric{},
		Vulnerabilities: []models.Vulnerability{},
	}
}
