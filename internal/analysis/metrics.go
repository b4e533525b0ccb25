package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/songzhibin97/tokenguard/internal/models"
)

// MaxMetrics 每次分析最多展示的指标数
const MaxMetrics = 5

// ComputeMetrics picks the quick-fact metrics in fixed priority: chain, TVL,
// age, holders, then the first available of top holder share, 24h volume
// and price.
func ComputeMetrics(s models.MetadataSummary, now time.Time) []models.TopMetric {
	metrics := make([]models.TopMetric, 0, MaxMetrics)

	if s.ChainSlug != "" {
		value := s.ChainSlug
		if s.ChainID != nil && *s.ChainID != 0 {
			value = fmt.Sprintf("%s (id %d)", s.ChainSlug, *s.ChainID)
		}
		metrics = append(metrics, models.TopMetric{Key: "chain", Label: "Chain", Value: value})
	}
	if s.TotalLiquidityUSD != nil {
		metrics = append(metrics, models.TopMetric{Key: "tvl", Label: "Liquidity (TVL)", Value: formatUSD(*s.TotalLiquidityUSD)})
	}
	if s.EarliestPairCreatedAt != nil && *s.EarliestPairCreatedAt != 0 {
		days := ageDays(*s.EarliestPairCreatedAt, now)
		metrics = append(metrics, models.TopMetric{Key: "age_days", Label: "Token Age", Value: fmt.Sprintf("%d days", days)})
	}
	if s.HolderCount != nil {
		metrics = append(metrics, models.TopMetric{Key: "holders", Label: "Holders", Value: humanize.Comma(*s.HolderCount)})
	}
	if m, ok := fallbackMetric(s); ok {
		metrics = append(metrics, m)
	}

	if len(metrics) > MaxMetrics {
		metrics = metrics[:MaxMetrics]
	}
	return metrics
}

// fallbackMetric 三选一：最大持有人占比 > 24h 成交量 > 价格
func fallbackMetric(s models.MetadataSummary) (models.TopMetric, bool) {
	if len(s.TopHolders) > 0 {
		return models.TopMetric{
			Key:   "top_holder",
			Label: "Top Holder Share",
			Value: fmt.Sprintf("%.2f%%", s.TopHolders[0].Share),
		}, true
	}

	if s.TopPair == nil {
		return models.TopMetric{}, false
	}
	if v := s.TopPair.Volume24h; v != nil && *v != 0 {
		return models.TopMetric{Key: "vol_24h", Label: "Volume (24h)", Value: formatUSD(*v)}, true
	}
	if p := strings.TrimSpace(s.TopPair.PriceUSD); p != "" {
		price, err := strconv.ParseFloat(p, 64)
		if err == nil {
			return models.TopMetric{Key: "price", Label: "Price (USD)", Value: fmt.Sprintf("$%.6f", price)}, true
		}
	}
	return models.TopMetric{}, false
}
