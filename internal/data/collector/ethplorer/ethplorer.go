package ethplorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenguard/internal/data"
	"github.com/songzhibin97/tokenguard/internal/models"
	"github.com/songzhibin97/tokenguard/internal/utils/request"
)

const (
	defaultBaseURL = "https://api.ethplorer.io"
	defaultAPIKey  = "freekey"

	// TopHoldersLimit 最多拉取的持有人数量
	TopHoldersLimit = 25
)

// supportedChains Ethplorer 只覆盖以太坊主网
var supportedChains = map[string]struct{}{
	"ethereum": {},
}

type EthplorerSource struct {
	baseURL    string
	apiKey     string
	httpClient *resty.Client
}

func NewEthplorerSource(baseURL, apiKey string, httpClient *resty.Client) *EthplorerSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if apiKey == "" {
		apiKey = defaultAPIKey
	}
	if httpClient == nil {
		httpClient = request.New(0)
	}
	return &EthplorerSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (e *EthplorerSource) Name() string {
	return "ethplorer"
}

func (e *EthplorerSource) SupportsChain(slug string) bool {
	_, ok := supportedChains[slug]
	return ok
}

// Holders implements data.HolderSource. The holder count comes from the token
// info endpoint; a failing top-holders call keeps whatever count was found.
func (e *EthplorerSource) Holders(ctx context.Context, address string) (*models.HolderStats, error) {
	count, err := e.holderCount(ctx, address)
	if err != nil {
		return nil, data.NewFetchError(e.Name(), "token_info", err)
	}

	stats := &models.HolderStats{HolderCount: count}

	holders, err := e.topHolders(ctx, address)
	if err != nil {
		// 计数仍然可用
		return stats, nil
	}
	stats.TopHolders = holders

	return stats, nil
}

func (e *EthplorerSource) holderCount(ctx context.Context, address string) (*int64, error) {
	resp, err := e.httpClient.R().
		SetContext(ctx).
		SetQueryParam("apiKey", e.apiKey).
		Get(fmt.Sprintf("%s/getTokenInfo/%s", e.baseURL, address))
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var info struct {
		HoldersCount *int64 `json:"holdersCount"`
	}
	if err := json.Unmarshal(resp.Body(), &info); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return info.HoldersCount, nil
}

func (e *EthplorerSource) topHolders(ctx context.Context, address string) ([]models.Holder, error) {
	resp, err := e.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"apiKey": e.apiKey,
			"limit":  fmt.Sprint(TopHoldersLimit),
		}).
		Get(fmt.Sprintf("%s/getTopTokenHolders/%s", e.baseURL, address))
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result struct {
		Holders []struct {
			Address string  `json:"address"`
			Balance float64 `json:"balance"`
			Share   float64 `json:"share"`
		} `json:"holders"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	holders := make([]models.Holder, 0, len(result.Holders))
	for _, h := range result.Holders {
		if len(holders) == TopHoldersLimit {
			break
		}
		holders = append(holders, models.Holder{
			Address: h.Address,
			Share:   h.Share,
			Balance: h.Balance,
		})
	}

	return holders, nil
}
