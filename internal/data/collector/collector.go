package collector

import (
	"context"
	"errors"
	"sync"

	"github.com/songzhibin97/tokenguard/internal/data"
	"github.com/songzhibin97/tokenguard/internal/models"
)

// MetadataCollector fans out to the metadata sources for one address.
// Any source may be nil, which disables that category.
type MetadataCollector struct {
	pairs    data.PairSource
	registry data.SourceRegistry
	holders  data.HolderSource
	logger   Logger
}

type Logger interface {
	Error(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Metadata 单次采集结果
type Metadata struct {
	Summary models.MetadataSummary
	Source  *models.SourceFile
}

func NewMetadataCollector(pairs data.PairSource, registry data.SourceRegistry, holders data.HolderSource, logger Logger) *MetadataCollector {
	return &MetadataCollector{
		pairs:    pairs,
		registry: registry,
		holders:  holders,
		logger:   logger,
	}
}

// Collect never fails: every source error is logged and the category is left empty.
func (c *MetadataCollector) Collect(ctx context.Context, address string) *Metadata {
	result := &Metadata{}

	if c.pairs != nil {
		summary, err := c.pairs.Pairs(ctx, address)
		if err != nil {
			c.logFetchError(c.pairs.Name(), address, err)
		} else if summary != nil {
			result.Summary = *summary
		}
	}

	var wg sync.WaitGroup

	// 源码与持有人只依赖交易对给出的链信息，两者并发
	chainID := result.Summary.ChainID
	if c.registry != nil && chainID != nil && c.registry.SupportsChainID(*chainID) {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()

			file, err := c.registry.Resolve(ctx, id, address)
			if err != nil {
				c.logFetchError(c.registry.Name(), address, err)
				return
			}
			if file == nil {
				c.logger.Info("no verified source", "source", c.registry.Name(), "address", address, "chain_id", id)
				return
			}
			result.Source = file
		}(*chainID)
	}

	var holders *models.HolderStats
	if c.holders != nil && c.holders.SupportsChain(result.Summary.ChainSlug) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			stats, err := c.holders.Holders(ctx, address)
			if err != nil {
				c.logFetchError(c.holders.Name(), address, err)
				return
			}
			holders = stats
		}()
	}

	wg.Wait()

	if holders != nil {
		result.Summary.HolderCount = holders.HolderCount
		result.Summary.TopHolders = holders.TopHolders
	}

	c.logger.Info("collected token metadata",
		"address", address,
		"chain", result.Summary.ChainSlug,
		"pairs", result.Summary.PairCount,
		"has_source", result.Source != nil,
		"has_holders", holders != nil,
	)

	return result
}

func (c *MetadataCollector) logFetchError(source, address string, err error) {
	var fetchErr *data.FetchError
	if errors.As(err, &fetchErr) {
		c.logger.Warn("metadata fetch failed", "source", fetchErr.Source, "op", fetchErr.Op, "address", address, "error", fetchErr.Err)
		return
	}
	c.logger.Warn("metadata fetch failed", "source", source, "address", address, "error", err)
}
