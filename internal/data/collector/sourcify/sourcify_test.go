package sourcify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/tokenguard/internal/data"
)

const (
	testAddress = "0xAbCdEf0123456789abcdef0123456789ABCDEF01"
	lowerAddr   = "0xabcdef0123456789abcdef0123456789abcdef01"
)

func newSource(t *testing.T, routes map[string]string) (*httptest.Server, *SourcifySource, *int) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}))
	return server, NewSourcifySource(server.URL, resty.NewWithClient(server.Client())), &calls
}

func TestSourcifySource_FullMatchWithCompilationTarget(t *testing.T) {
	full := "/contracts/full_match/1/" + lowerAddr + "/"
	routes := map[string]string{
		full + "metadata.json": `{"sources":{"contracts/Token.sol":{},"@openzeppelin/contracts/token/ERC20/ERC20.sol":{}},
			"settings":{"compilationTarget":{"contracts/Token.sol":"Token"}}}`,
		full + "sources/contracts/Token.sol":                            "contract Token {}",
		full + "sources/@openzeppelin/contracts/token/ERC20/ERC20.sol": "contract ERC20 { /* a much longer library file */ }",
	}
	server, src, _ := newSource(t, routes)
	defer server.Close()

	file, err := src.Resolve(context.Background(), 1, testAddress)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "contracts/Token.sol", file.Name)
	assert.Equal(t, "contract Token {}", file.Content)
	assert.Equal(t, MatchFull, file.Match)
}

func TestSourcifySource_PartialMatchFallsBackToLargestFile(t *testing.T) {
	partial := "/contracts/partial_match/137/" + lowerAddr + "/"
	routes := map[string]string{
		partial + "metadata.json":  `{"sources":{"A.sol":{},"B.sol":{}},"settings":{"compilationTarget":{"Missing.sol":"X"}}}`,
		partial + "sources/A.sol": "short",
		partial + "sources/B.sol": "much longer source text",
	}
	server, src, _ := newSource(t, routes)
	defer server.Close()

	file, err := src.Resolve(context.Background(), 137, testAddress)
	require.NoError(t, err)
	require.NotNil(t, file)
	assert.Equal(t, "B.sol", file.Name)
	assert.Equal(t, MatchPartial, file.Match)
}

func TestSourcifySource_NotVerified(t *testing.T) {
	server, src, calls := newSource(t, map[string]string{})
	defer server.Close()

	file, err := src.Resolve(context.Background(), 1, testAddress)
	assert.NoError(t, err)
	assert.Nil(t, file)
	assert.Equal(t, 2, *calls, "full then partial match are tried")
}

func TestSourcifySource_NoSourceFiles(t *testing.T) {
	full := "/contracts/full_match/1/" + lowerAddr + "/"
	server, src, _ := newSource(t, map[string]string{
		full + "metadata.json": `{"sources":{"Gone.sol":{}}}`,
	})
	defer server.Close()

	file, err := src.Resolve(context.Background(), 1, testAddress)
	assert.NoError(t, err)
	assert.Nil(t, file)
}

func TestSourcifySource_BadMetadata(t *testing.T) {
	full := "/contracts/full_match/1/" + lowerAddr + "/"
	server, src, _ := newSource(t, map[string]string{
		full + "metadata.json": `not json`,
	})
	defer server.Close()

	file, err := src.Resolve(context.Background(), 1, testAddress)
	assert.Nil(t, file)
	require.Error(t, err)

	var fetchErr *data.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "metadata", fetchErr.Op)
}

func TestSourcifySource_SourceFetchDeadline(t *testing.T) {
	full := "/contracts/full_match/1/" + lowerAddr + "/"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == full+"metadata.json" {
			_, _ = w.Write([]byte(`{"sources":{"A.sol":{},"B.sol":{},"C.sol":{}}}`))
			return
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		_, _ = w.Write([]byte("contract Slow {}"))
	}))
	defer server.Close()

	src := NewSourcifySource(server.URL, resty.NewWithClient(server.Client()))
	src.budget = 100 * time.Millisecond

	start := time.Now()
	file, err := src.Resolve(context.Background(), 1, testAddress)
	elapsed := time.Since(start)

	assert.NoError(t, err)
	assert.Nil(t, file)
	assert.Less(t, elapsed, time.Second)
}

func TestSourcifySource_SourcesBudget(t *testing.T) {
	src := NewSourcifySource("", resty.New().SetTimeout(3*time.Second))
	assert.Equal(t, 6*time.Second, src.sourcesBudget())

	src = NewSourcifySource("", resty.NewWithClient(&http.Client{}))
	assert.Equal(t, 20*time.Second, src.sourcesBudget())
}

func TestSelectEntry(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		target   map[string]string
		wantName string
		wantOK   bool
	}{
		{name: "no files", files: map[string]string{}, wantOK: false},
		{
			name:     "target preferred over larger file",
			files:    map[string]string{"T.sol": "t", "Big.sol": "bigger"},
			target:   map[string]string{"T.sol": "T"},
			wantName: "T.sol",
			wantOK:   true,
		},
		{
			name:     "equal length resolves by name",
			files:    map[string]string{"b.sol": "xx", "a.sol": "yy"},
			wantName: "a.sol",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, _, ok := SelectEntry(tt.files, tt.target)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestSourcifySource_SupportsChainID(t *testing.T) {
	src := NewSourcifySource("", nil)
	assert.True(t, src.SupportsChainID(1))
	assert.False(t, src.SupportsChainID(0))
}
