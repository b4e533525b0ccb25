package analysis

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/songzhibin97/tokenguard/internal/ai"
	"github.com/songzhibin97/tokenguard/internal/data/collector"
	"github.com/songzhibin97/tokenguard/internal/models"
)

const (
	// MaxHistoryTurns 最多保留的历史对话条数
	MaxHistoryTurns = 4

	maxDigestHolders = 10
	dayMillis        = int64(24 * time.Hour / time.Millisecond)

	noSourceNotice = "Source code could not be retrieved from Sourcify for this address. Analyze based on metadata and typical ERC-20 risks.\n"
	isoMillis      = "2006-01-02T15:04:05.000Z07:00"
)

// PromptAssembler builds the bounded model input for one request.
type PromptAssembler struct {
	jsonMode       bool
	maxPromptChars int
	now            func() time.Time
}

func NewPromptAssembler(jsonMode bool, maxPromptChars int, now func() time.Time) *PromptAssembler {
	if now == nil {
		now = time.Now
	}
	return &PromptAssembler{
		jsonMode:       jsonMode,
		maxPromptChars: maxPromptChars,
		now:            now,
	}
}

// AddressPayload renders the metadata digest followed by the entry source or
// the no-source notice.
func (p *PromptAssembler) AddressPayload(address string, md *collector.Metadata) string {
	if md == nil {
		md = &collector.Metadata{}
	}

	var b strings.Builder
	b.WriteString("Token Metadata (auto-fetched):\n")
	b.WriteString(FormatDigest(address, md.Summary, p.now()))
	b.WriteString("\n\n")

	src := md.Source
	if src == nil || src.Content == "" {
		b.WriteString(noSourceNotice)
		return b.String()
	}

	name := src.Name
	if name == "" {
		name = "entry"
	}
	if src.Match != "" {
		fmt.Fprintf(&b, "Primary Contract Source from Sourcify (%s, %s match):\n\n%s\n", name, src.Match, src.Content)
	} else {
		fmt.Fprintf(&b, "Primary Contract Source from Sourcify (%s):\n\n%s\n", name, src.Content)
	}
	return b.String()
}

// Messages returns [system policy, trailing history, user payload].
func (p *PromptAssembler) Messages(history []models.ChatMessage, payload string) []models.ChatMessage {
	trimmed := TrimHistory(history)

	messages := make([]models.ChatMessage, 0, len(trimmed)+2)
	messages = append(messages, models.ChatMessage{Role: ai.RoleSystem, Content: SystemPolicy(p.jsonMode)})
	messages = append(messages, trimmed...)
	messages = append(messages, models.ChatMessage{Role: ai.RoleUser, Content: truncateRunes(payload, p.maxPromptChars)})

	return messages
}

// TrimHistory keeps the last MaxHistoryTurns entries. Any role other than
// assistant becomes user so history cannot carry system instructions.
func TrimHistory(history []models.ChatMessage) []models.ChatMessage {
	if len(history) > MaxHistoryTurns {
		history = history[len(history)-MaxHistoryTurns:]
	}

	out := make([]models.ChatMessage, 0, len(history))
	for _, m := range history {
		role := ai.RoleUser
		if m.Role == ai.RoleAssistant {
			role = ai.RoleAssistant
		}
		out = append(out, models.ChatMessage{Role: role, Content: m.Content})
	}
	return out
}

// FormatDigest renders the human-readable metadata lines. Absent data is skipped.
func FormatDigest(address string, s models.MetadataSummary, now time.Time) string {
	lines := []string{"Token Address: " + address}

	if s.ChainSlug != "" {
		line := "Chain: " + s.ChainSlug
		if s.ChainID != nil && *s.ChainID != 0 {
			line += fmt.Sprintf(" (chainId %d)", *s.ChainID)
		}
		lines = append(lines, line)
	}
	if s.TotalLiquidityUSD != nil {
		lines = append(lines, "Liquidity (approx TVL across pairs): "+formatUSD(*s.TotalLiquidityUSD))
	}
	if s.EarliestPairCreatedAt != nil && *s.EarliestPairCreatedAt != 0 {
		created := *s.EarliestPairCreatedAt
		lines = append(lines, fmt.Sprintf("First known DEX pair (approx age): %s (~%d days ago)",
			time.UnixMilli(created).UTC().Format(isoMillis), ageDays(created, now)))
	}
	if s.HolderCount != nil {
		lines = append(lines, "Holders (approx): "+humanize.Comma(*s.HolderCount))
	}
	if len(s.TopHolders) > 0 {
		lines = append(lines, "Top holders (approx distribution):")
		for i, h := range s.TopHolders {
			if i == maxDigestHolders {
				break
			}
			lines = append(lines, fmt.Sprintf("- %s ~ %.2f%%", h.Address, h.Share))
		}
	}

	return strings.Join(lines, "\n")
}

// ageDays is whole days since createdMillis, never negative.
func ageDays(createdMillis int64, now time.Time) int64 {
	days := (now.UnixMilli() - createdMillis) / dayMillis
	if days < 0 {
		return 0
	}
	return days
}

func formatUSD(v float64) string {
	return "$" + humanize.Comma(int64(math.Round(v)))
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
