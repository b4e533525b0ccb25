package analysis

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/songzhibin97/tokenguard/internal/models"
	"github.com/songzhibin97/tokenguard/internal/risk"
)

// OutcomeKind tags the shape of a parsed model reply.
type OutcomeKind int

const (
	OutcomeMalformed OutcomeKind = iota
	OutcomeStructured
	OutcomeLegacy
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeStructured:
		return "structured"
	case OutcomeLegacy:
		return "legacy"
	default:
		return "malformed"
	}
}

// StructuredReply 模型按 JSON 模式返回的内容
type StructuredReply struct {
	Vulnerabilities []models.Vulnerability
	Verdict         *models.Verdict
	VerdictLine     string
}

// ParseOutcome is exactly one of: a structured reply, legacy sections, or
// malformed. Raw keeps the original text for verdict-line scanning.
type ParseOutcome struct {
	Kind       OutcomeKind
	Structured *StructuredReply
	Sections   []string
	Raw        string
}

var (
	sectionSplit   = regexp.MustCompile(`\n(?:\s*\n)+|\n\d+\.\s+`)
	severityMarker = regexp.MustCompile(`(?i)Severity[:\s-]*(\d+(?:\.\d+)?)\s*(?:/\s*10)?`)
	verdictLineRe  = regexp.MustCompile(`(?im)^FINAL VERDICT:.*$`)
	verdictStrip   = regexp.MustCompile(`(?im)^[ \t]*FINAL VERDICT:.*$`)
)

// ParseResponse interprets raw model output. In JSON mode it tries a direct
// decode, then the outermost brace span, then gives up as malformed. Otherwise
// the text is split into legacy sections.
func ParseResponse(raw string, jsonMode bool) ParseOutcome {
	if !jsonMode {
		return ParseOutcome{Kind: OutcomeLegacy, Sections: splitSections(raw), Raw: raw}
	}

	if reply, ok := decodeStructured(raw); ok {
		return ParseOutcome{Kind: OutcomeStructured, Structured: reply, Raw: raw}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if reply, ok := decodeStructured(raw[start : end+1]); ok {
			return ParseOutcome{Kind: OutcomeStructured, Structured: reply, Raw: raw}
		}
	}

	return ParseOutcome{Kind: OutcomeMalformed, Raw: raw}
}

// Vulnerabilities returns the extracted findings in extraction order.
func (o ParseOutcome) Vulnerabilities() []models.Vulnerability {
	switch o.Kind {
	case OutcomeStructured:
		return o.Structured.Vulnerabilities
	case OutcomeLegacy:
		return legacyVulnerabilities(o.Sections)
	case OutcomeMalformed:
		return nil
	default:
		panic("analysis: unknown outcome kind " + strconv.Itoa(int(o.Kind)))
	}
}

// VerdictLine resolves the verdict line: a literal verdict_line, else one
// synthesized from the verdict object, else a FINAL VERDICT line in the text.
// Malformed output has none.
func (o ParseOutcome) VerdictLine() *string {
	switch o.Kind {
	case OutcomeStructured:
		if line := strings.TrimSpace(o.Structured.VerdictLine); line != "" {
			return &line
		}
		if o.Structured.Verdict != nil {
			line := risk.VerdictLine(*o.Structured.Verdict)
			return &line
		}
		return scanVerdictLine(o.Raw)
	case OutcomeLegacy:
		return scanVerdictLine(o.Raw)
	case OutcomeMalformed:
		return nil
	default:
		panic("analysis: unknown outcome kind " + strconv.Itoa(int(o.Kind)))
	}
}

type structuredPayload struct {
	Vulnerabilities json.RawMessage `json:"vulnerabilities"`
	Verdict         json.RawMessage `json:"verdict"`
	VerdictLine     json.RawMessage `json:"verdict_line"`
}

func decodeStructured(text string) (*StructuredReply, bool) {
	var payload structuredPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, false
	}

	reply := &StructuredReply{
		Vulnerabilities: decodeVulnerabilities(payload.Vulnerabilities),
		Verdict:         decodeVerdict(payload.Verdict),
	}

	var line string
	if json.Unmarshal(payload.VerdictLine, &line) == nil {
		reply.VerdictLine = line
	}

	return reply, true
}

// decodeVulnerabilities drops entries whose severity is not a number or whose
// description is missing; nothing is defaulted.
func decodeVulnerabilities(raw json.RawMessage) []models.Vulnerability {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	out := make([]models.Vulnerability, 0, len(items))
	for _, item := range items {
		var v struct {
			Severity    interface{} `json:"severity"`
			Description interface{} `json:"description"`
		}
		if err := json.Unmarshal(item, &v); err != nil {
			continue
		}

		severity, ok := v.Severity.(float64)
		if !ok {
			continue
		}
		description, ok := v.Description.(string)
		if !ok || description == "" {
			continue
		}

		out = append(out, models.Vulnerability{
			Severity:    risk.ClampSeverity(severity),
			Description: description,
		})
	}
	return out
}

func decodeVerdict(raw json.RawMessage) *models.Verdict {
	var v map[string]interface{}
	if err := json.Unmarshal(raw, &v); err != nil || v == nil {
		return nil
	}

	verdict := &models.Verdict{
		Label:   stringField(v, "label"),
		Emoji:   stringField(v, "emoji"),
		Meaning: stringField(v, "meaning"),
		Meme:    stringField(v, "meme"),
	}
	if score, ok := v["score"].(float64); ok {
		verdict.Score = &score
	}
	return verdict
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// splitSections drops verdict lines before splitting so a verdict directly
// under the last finding never joins its section.
func splitSections(text string) []string {
	parts := sectionSplit.Split(verdictStrip.ReplaceAllString(text, ""), -1)

	sections := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || risk.IsVerdictLine(p) {
			continue
		}
		sections = append(sections, p)
	}
	return sections
}

// legacyVulnerabilities scores each section from an explicit "Severity: N"
// marker, else by keyword. Unscored sections are dropped.
func legacyVulnerabilities(sections []string) []models.Vulnerability {
	out := make([]models.Vulnerability, 0, len(sections))
	for _, section := range sections {
		var severity float64
		if m := severityMarker.FindStringSubmatch(section); m != nil {
			severity, _ = strconv.ParseFloat(m[1], 64)
		}
		if severity == 0 {
			severity = risk.InferSeverity(section)
		}
		if severity <= 0 {
			continue
		}

		out = append(out, models.Vulnerability{
			Severity:    risk.ClampSeverity(severity),
			Description: section,
		})
	}
	return out
}

func scanVerdictLine(text string) *string {
	match := verdictLineRe.FindString(text)
	if match == "" {
		return nil
	}
	line := strings.TrimSpace(match)
	return &line
}
