package risk

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/songzhibin97/tokenguard/internal/models"
)

const (
	MinSeverity = 0
	MaxSeverity = 10

	verdictPrefix = "FINAL VERDICT:"
)

// 关键词按优先级排列，先命中者生效；只匹配整词
var severityKeywords = []struct {
	pattern  *regexp.Regexp
	severity float64
}{
	{regexp.MustCompile(`(?i)\b(critical|severe|serious)\b`), 9},
	{regexp.MustCompile(`(?i)\bhigh\b`), 7},
	{regexp.MustCompile(`(?i)\bmedium\b`), 5},
	{regexp.MustCompile(`(?i)\blow\b`), 3},
	{regexp.MustCompile(`(?i)\b(info|note)\b`), 1},
}

// InferSeverity scores a free-text finding that carries no explicit severity.
// Zero means unscored.
func InferSeverity(text string) float64 {
	for _, kw := range severityKeywords {
		if kw.pattern.MatchString(text) {
			return kw.severity
		}
	}
	return 0
}

// ClampSeverity bounds a severity to the 0-10 scale.
func ClampSeverity(v float64) float64 {
	return math.Max(MinSeverity, math.Min(MaxSeverity, v))
}

// FormatScore rounds to one decimal without trailing zeros, or N/A.
func FormatScore(score *float64) string {
	if score == nil || math.IsNaN(*score) || math.IsInf(*score, 0) {
		return "N/A"
	}
	return strconv.FormatFloat(math.Round(*score*10)/10, 'f', -1, 64)
}

// VerdictLine renders the single canonical verdict line:
//
//	FINAL VERDICT: <emoji> <Label> (<score|N/A>/10) — <meaning>[ — <meme>]
func VerdictLine(v models.Verdict) string {
	label := Label(strings.TrimSpace(v.Label))
	if label == "" {
		label = LabelLow
	}

	style := StyleFor(label)
	emoji := v.Emoji
	if emoji == "" {
		emoji = style.Emoji
	}
	meaning := v.Meaning
	if meaning == "" {
		meaning = style.Meaning
	}

	var b strings.Builder
	b.WriteString(verdictPrefix)
	b.WriteString(" ")
	b.WriteString(emoji)
	b.WriteString(" ")
	b.WriteString(string(label))
	b.WriteString(" (")
	b.WriteString(FormatScore(v.Score))
	b.WriteString("/10) — ")
	b.WriteString(meaning)
	if v.Meme != "" {
		b.WriteString(" — ")
		b.WriteString(v.Meme)
	}

	return b.String()
}

var verdictStart = regexp.MustCompile(`(?i)^FINAL VERDICT:`)

// IsVerdictLine reports whether text starts with the verdict prefix, ignoring case.
func IsVerdictLine(text string) bool {
	return verdictStart.MatchString(strings.TrimSpace(text))
}
