package data

import (
	"context"
	"fmt"
	"time"

	"github.com/songzhibin97/tokenguard/internal/models"
)

// PairSource 流动性/交易对聚合数据源
type PairSource interface {
	Name() string

	// Pairs returns the liquidity summary for a token. No pairs is an empty summary, not an error.
	Pairs(ctx context.Context, address string) (*models.MetadataSummary, error)
}

// SourceRegistry 已验证合约源码仓库
type SourceRegistry interface {
	Name() string

	// SupportsChainID reports whether the registry indexes the given numeric chain.
	SupportsChainID(chainID int64) bool

	// Resolve returns the entry source file, or nil when no verified source exists.
	Resolve(ctx context.Context, chainID int64, address string) (*models.SourceFile, error)
}

// HolderSource 持有人分布数据源
type HolderSource interface {
	Name() string

	// SupportsChain reports whether the source has coverage for a chain slug.
	SupportsChain(slug string) bool

	// Holders retrieves the holder count and top holders.
	Holders(ctx context.Context, address string) (*models.HolderStats, error)
}

// AnalysisStore 处理分析报告的持久化
type AnalysisStore interface {
	// SaveReport stores a finished analysis for an address
	SaveReport(ctx context.Context, address string, result *models.AnalysisResult) error

	// RecentReports returns the latest reports for an address, newest first
	RecentReports(ctx context.Context, address string, limit int) ([]Report, error)
}

// Report 持久化的分析报告
type Report struct {
	ID        int64                 `json:"id"`
	Address   string                `json:"address"`
	Result    models.AnalysisResult `json:"result"`
	CreatedAt time.Time             `json:"createdAt"`
}

// FetchError wraps a failure from one metadata source. The collector treats
// it as "no data for this category" and keeps it only for logging.
type FetchError struct {
	Source string
	Op     string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError builds a FetchError, returning nil for a nil err.
func NewFetchError(source, op string, err error) error {
	if err == nil {
		return nil
	}
	return &FetchError{Source: source, Op: op, Err: err}
}
