package collector

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenguard/internal/data"
	"github.com/songzhibin97/tokenguard/internal/models"
)

const testAddress = "0x3333333333333333333333333333333333333333"

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Error(msg string, fields ...interface{}) {}
func (l *recordingLogger) Info(msg string, fields ...interface{})  {}
func (l *recordingLogger) Warn(msg string, fields ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

type fakePairs struct {
	summary *models.MetadataSummary
	err     error
	calls   int
}

func (f *fakePairs) Name() string { return "pairs" }
func (f *fakePairs) Pairs(ctx context.Context, address string) (*models.MetadataSummary, error) {
	f.calls++
	return f.summary, f.err
}

type fakeRegistry struct {
	file    *models.SourceFile
	err     error
	calls   int
	chainID int64
}

func (f *fakeRegistry) Name() string                  { return "registry" }
func (f *fakeRegistry) SupportsChainID(id int64) bool { return id == 1 || id == 56 }
func (f *fakeRegistry) Resolve(ctx context.Context, chainID int64, address string) (*models.SourceFile, error) {
	f.calls++
	f.chainID = chainID
	return f.file, f.err
}

type fakeHolders struct {
	stats *models.HolderStats
	err   error
	calls int
}

func (f *fakeHolders) Name() string                   { return "holders" }
func (f *fakeHolders) SupportsChain(slug string) bool { return slug == "ethereum" }
func (f *fakeHolders) Holders(ctx context.Context, address string) (*models.HolderStats, error) {
	f.calls++
	return f.stats, f.err
}

func int64Ptr(v int64) *int64 { return &v }

func ethereumSummary() *models.MetadataSummary {
	liq := 5000.0
	return &models.MetadataSummary{
		ChainSlug:         "ethereum",
		ChainID:           int64Ptr(1),
		TotalLiquidityUSD: &liq,
		PairCount:         1,
	}
}

func TestMetadataCollector_Collect(t *testing.T) {
	pairs := &fakePairs{summary: ethereumSummary()}
	registry := &fakeRegistry{file: &models.SourceFile{Name: "Token.sol", Content: "contract T {}", Match: "full"}}
	holders := &fakeHolders{stats: &models.HolderStats{
		HolderCount: int64Ptr(42),
		TopHolders:  []models.Holder{{Address: "0xaaa", Share: 12.5}},
	}}
	logger := &recordingLogger{}

	c := NewMetadataCollector(pairs, registry, holders, logger)
	md := c.Collect(context.Background(), testAddress)

	require.NotNil(t, md)
	assert.Equal(t, 1, pairs.calls)
	assert.Equal(t, 1, registry.calls)
	assert.Equal(t, int64(1), registry.chainID)
	assert.Equal(t, 1, holders.calls)

	require.NotNil(t, md.Source)
	assert.Equal(t, "Token.sol", md.Source.Name)
	require.NotNil(t, md.Summary.HolderCount)
	assert.Equal(t, int64(42), *md.Summary.HolderCount)
	assert.Len(t, md.Summary.TopHolders, 1)
	assert.Empty(t, logger.warns)
}

func TestMetadataCollector_CapabilityGating(t *testing.T) {
	tests := []struct {
		name          string
		summary       *models.MetadataSummary
		registryCalls int
		holderCalls   int
	}{
		{
			name:          "bsc has source but no holders",
			summary:       &models.MetadataSummary{ChainSlug: "bsc", ChainID: int64Ptr(56), PairCount: 1},
			registryCalls: 1,
			holderCalls:   0,
		},
		{
			name:          "unknown chain id skips the registry",
			summary:       &models.MetadataSummary{ChainSlug: "solana", PairCount: 1},
			registryCalls: 0,
			holderCalls:   0,
		},
		{
			name:          "unsupported chain id skips the registry",
			summary:       &models.MetadataSummary{ChainSlug: "base", ChainID: int64Ptr(8453), PairCount: 1},
			registryCalls: 0,
			holderCalls:   0,
		},
		{
			name:          "no pairs",
			summary:       &models.MetadataSummary{},
			registryCalls: 0,
			holderCalls:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := &fakeRegistry{}
			holders := &fakeHolders{}

			c := NewMetadataCollector(&fakePairs{summary: tt.summary}, registry, holders, &recordingLogger{})
			md := c.Collect(context.Background(), testAddress)

			require.NotNil(t, md)
			assert.Equal(t, tt.registryCalls, registry.calls)
			assert.Equal(t, tt.holderCalls, holders.calls)
			assert.Nil(t, md.Source)
		})
	}
}

func TestMetadataCollector_FailuresDegradeToAbsence(t *testing.T) {
	netErr := errors.New("connection reset")

	t.Run("pair source failure", func(t *testing.T) {
		registry := &fakeRegistry{}
		holders := &fakeHolders{}
		logger := &recordingLogger{}

		c := NewMetadataCollector(&fakePairs{err: data.NewFetchError("pairs", "pairs", netErr)}, registry, holders, logger)
		md := c.Collect(context.Background(), testAddress)

		require.NotNil(t, md)
		assert.Nil(t, md.Summary.ChainID)
		assert.Nil(t, md.Summary.TotalLiquidityUSD)
		assert.Zero(t, registry.calls)
		assert.Zero(t, holders.calls)
		assert.Len(t, logger.warns, 1)
	})

	t.Run("registry failure keeps holders", func(t *testing.T) {
		registry := &fakeRegistry{err: data.NewFetchError("registry", "metadata", netErr)}
		holders := &fakeHolders{stats: &models.HolderStats{HolderCount: int64Ptr(9)}}
		logger := &recordingLogger{}

		c := NewMetadataCollector(&fakePairs{summary: ethereumSummary()}, registry, holders, logger)
		md := c.Collect(context.Background(), testAddress)

		assert.Nil(t, md.Source)
		require.NotNil(t, md.Summary.HolderCount)
		assert.Equal(t, int64(9), *md.Summary.HolderCount)
		require.NotNil(t, md.Summary.TotalLiquidityUSD)
		assert.Len(t, logger.warns, 1)
	})

	t.Run("holder failure keeps source", func(t *testing.T) {
		registry := &fakeRegistry{file: &models.SourceFile{Name: "A.sol", Content: "x", Match: "partial"}}
		holders := &fakeHolders{err: netErr}
		logger := &recordingLogger{}

		c := NewMetadataCollector(&fakePairs{summary: ethereumSummary()}, registry, holders, logger)
		md := c.Collect(context.Background(), testAddress)

		require.NotNil(t, md.Source)
		assert.Equal(t, "partial", md.Source.Match)
		assert.Nil(t, md.Summary.HolderCount)
		assert.Empty(t, md.Summary.TopHolders)
		assert.Len(t, logger.warns, 1)
	})
}

func TestMetadataCollector_NilSources(t *testing.T) {
	c := NewMetadataCollector(nil, nil, nil, &recordingLogger{})
	md := c.Collect(context.Background(), testAddress)

	require.NotNil(t, md)
	assert.Nil(t, md.Source)
	assert.Zero(t, md.Summary.PairCount)
}
