package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenguard/internal/data"
	"github.com/songzhibin97/tokenguard/internal/models"
	"github.com/songzhibin97/tokenguard/internal/utils/request"
)

const defaultBaseURL = "https://api.dexscreener.com"

// chainIDs maps DexScreener chain slugs to EVM chain ids.
var chainIDs = map[string]int64{
	"ethereum":  1,
	"bsc":       56,
	"polygon":   137,
	"arbitrum":  42161,
	"base":      8453,
	"optimism":  10,
	"avalanche": 43114,
	"fantom":    250,
	"linea":     59144,
	"zksync":    324,
	"scroll":    534352,
}

// ChainID returns the numeric id for a slug; ok is false for unknown slugs.
func ChainID(slug string) (int64, bool) {
	id, ok := chainIDs[slug]
	return id, ok
}

type DexScreenerSource struct {
	baseURL    string
	httpClient *resty.Client
}

func NewDexScreenerSource(baseURL string, httpClient *resty.Client) *DexScreenerSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = request.New(0)
	}
	return &DexScreenerSource{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (d *DexScreenerSource) Name() string {
	return "dexscreener"
}

type pairPayload struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"quoteToken"`
	PriceUSD  string `json:"priceUsd"`
	Liquidity *struct {
		USD *float64 `json:"usd"`
	} `json:"liquidity"`
	Volume *struct {
		H24 *float64 `json:"h24"`
	} `json:"volume"`
	PairCreatedAt *int64 `json:"pairCreatedAt"`
	CreatedAt     *int64 `json:"createdAt"`
}

func (p pairPayload) toModel() models.Pair {
	pair := models.Pair{
		ChainID:     p.ChainID,
		DexID:       p.DexID,
		PairAddress: p.PairAddress,
		BaseToken: models.PairToken{
			Address: p.BaseToken.Address,
			Name:    p.BaseToken.Name,
			Symbol:  p.BaseToken.Symbol,
		},
		QuoteToken: models.PairToken{
			Address: p.QuoteToken.Address,
			Name:    p.QuoteToken.Name,
			Symbol:  p.QuoteToken.Symbol,
		},
		PriceUSD: p.PriceUSD,
	}
	if p.Liquidity != nil {
		pair.LiquidityUSD = p.Liquidity.USD
	}
	if p.Volume != nil {
		pair.Volume24h = p.Volume.H24
	}
	pair.CreatedAt = p.PairCreatedAt
	if pair.CreatedAt == nil {
		pair.CreatedAt = p.CreatedAt
	}
	return pair
}

// Pairs implements data.PairSource
func (d *DexScreenerSource) Pairs(ctx context.Context, address string) (*models.MetadataSummary, error) {
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", d.baseURL, address)

	resp, err := d.httpClient.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, data.NewFetchError(d.Name(), "pairs", fmt.Errorf("failed to execute request: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, data.NewFetchError(d.Name(), "pairs", fmt.Errorf("unexpected status code: %d", resp.StatusCode()))
	}

	var result struct {
		Pairs []pairPayload `json:"pairs"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, data.NewFetchError(d.Name(), "pairs", fmt.Errorf("failed to decode response: %w", err))
	}

	pairs := make([]models.Pair, 0, len(result.Pairs))
	for _, p := range result.Pairs {
		pairs = append(pairs, p.toModel())
	}

	return Summarize(pairs), nil
}

// Summarize derives the liquidity summary from a set of pairs. The top pair
// is the first pair with the greatest liquidity; missing liquidity counts as 0.
func Summarize(pairs []models.Pair) *models.MetadataSummary {
	summary := &models.MetadataSummary{PairCount: len(pairs)}
	if len(pairs) == 0 {
		return summary
	}

	var total float64
	topIdx := 0
	topLiq := liquidityOf(pairs[0])
	var earliest *int64

	for i, p := range pairs {
		liq := liquidityOf(p)
		total += liq
		if liq > topLiq {
			topIdx = i
			topLiq = liq
		}
		if p.CreatedAt != nil && (earliest == nil || *p.CreatedAt < *earliest) {
			ts := *p.CreatedAt
			earliest = &ts
		}
	}

	top := pairs[topIdx]
	summary.TopPair = &top
	summary.TotalLiquidityUSD = &total
	summary.EarliestPairCreatedAt = earliest
	summary.ChainSlug = top.ChainID
	if id, ok := ChainID(top.ChainID); ok {
		summary.ChainID = &id
	}

	return summary
}

func liquidityOf(p models.Pair) float64 {
	if p.LiquidityUSD == nil {
		return 0
	}
	return *p.LiquidityUSD
}
