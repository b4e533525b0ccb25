// Package sourcify resolves verified contract sources from the Sourcify repository.
package sourcify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/tokenguard/internal/data"
	"github.com/songzhibin97/tokenguard/internal/models"
	"github.com/songzhibin97/tokenguard/internal/utils/request"
)

const (
	defaultBaseURL = "https://repo.sourcify.dev"

	MatchFull    = "full"
	MatchPartial = "partial"

	// 源码文件总拉取时长为单次请求超时的倍数
	sourcesBudgetFactor = 2
)

type SourcifySource struct {
	baseURL    string
	httpClient *resty.Client
	budget     time.Duration // 为 0 时由客户端超时推导
}

func NewSourcifySource(baseURL string, httpClient *resty.Client) *SourcifySource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = request.New(0)
	}
	return &SourcifySource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

func (s *SourcifySource) Name() string {
	return "sourcify"
}

// SupportsChainID implements data.SourceRegistry. Sourcify is multi-chain;
// only a positive id is required.
func (s *SourcifySource) SupportsChainID(chainID int64) bool {
	return chainID > 0
}

type metadata struct {
	Sources  map[string]json.RawMessage `json:"sources"`
	Settings struct {
		CompilationTarget map[string]string `json:"compilationTarget"`
	} `json:"settings"`
}

// Resolve implements data.SourceRegistry. A nil file with a nil error means
// the contract is not verified on Sourcify.
func (s *SourcifySource) Resolve(ctx context.Context, chainID int64, address string) (*models.SourceFile, error) {
	addr := strings.ToLower(common.HexToAddress(address).Hex())

	meta, dir, match, err := s.fetchMetadata(ctx, chainID, addr)
	if err != nil {
		return nil, data.NewFetchError(s.Name(), "metadata", err)
	}
	if meta == nil {
		return nil, nil
	}

	files := s.fetchSources(ctx, dir, meta)
	name, content, ok := SelectEntry(files, meta.Settings.CompilationTarget)
	if !ok {
		return nil, nil
	}

	return &models.SourceFile{
		Name:    name,
		Content: content,
		Match:   match,
	}, nil
}

// fetchMetadata tries the full match location, then the partial match one.
// Transport failures on every location are reported; plain misses are not.
func (s *SourcifySource) fetchMetadata(ctx context.Context, chainID int64, addr string) (*metadata, string, string, error) {
	var lastErr error
	misses := 0

	for _, match := range []string{MatchFull, MatchPartial} {
		dir := fmt.Sprintf("%s/contracts/%s_match/%d/%s/", s.baseURL, match, chainID, addr)

		resp, err := s.httpClient.R().SetContext(ctx).Get(dir + "metadata.json")
		if err != nil {
			lastErr = fmt.Errorf("failed to execute request: %w", err)
			continue
		}
		if resp.StatusCode() != http.StatusOK {
			misses++
			continue
		}

		var meta metadata
		if err := json.Unmarshal(resp.Body(), &meta); err != nil {
			lastErr = fmt.Errorf("failed to decode metadata: %w", err)
			continue
		}
		return &meta, dir, match, nil
	}

	if misses == 2 {
		return nil, "", "", nil
	}
	return nil, "", "", lastErr
}

// fetchSources fetches every listed file under one overall deadline. Files
// not fetched before it expires are left out.
func (s *SourcifySource) fetchSources(ctx context.Context, dir string, meta *metadata) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, s.sourcesBudget())
	defer cancel()

	names := make([]string, 0, len(meta.Sources))
	for name := range meta.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	files := make(map[string]string, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		resp, err := s.httpClient.R().SetContext(ctx).Get(dir + "sources/" + escapePath(name))
		if err != nil || resp.StatusCode() != http.StatusOK {
			continue
		}
		files[name] = resp.String()
	}
	return files
}

func (s *SourcifySource) sourcesBudget() time.Duration {
	if s.budget > 0 {
		return s.budget
	}
	timeout := s.httpClient.GetClient().Timeout
	if timeout <= 0 {
		timeout = request.DefaultTimeout
	}
	return sourcesBudgetFactor * timeout
}

// SelectEntry picks the entry source: a compilation target file when one was
// fetched, otherwise the largest file. Ties resolve by name for determinism.
func SelectEntry(files map[string]string, compilationTarget map[string]string) (string, string, bool) {
	if len(files) == 0 {
		return "", "", false
	}

	targets := make([]string, 0, len(compilationTarget))
	for name := range compilationTarget {
		targets = append(targets, name)
	}
	sort.Strings(targets)
	for _, name := range targets {
		if content, ok := files[name]; ok && content != "" {
			return name, content, true
		}
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := len(files[names[i]]), len(files[names[j]])
		if li != lj {
			return li > lj
		}
		return names[i] < names[j]
	})

	return names[0], files[names[0]], true
}

func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
