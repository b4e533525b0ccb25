package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/songzhibin97/tokenguard/internal/ai"
	"github.com/songzhibin97/tokenguard/internal/data/collector"
	"github.com/songzhibin97/tokenguard/internal/models"
)

// MetadataCollector gathers token metadata; failures are absorbed inside.
type MetadataCollector interface {
	Collect(ctx context.Context, address string) *collector.Metadata
}

type Logger interface {
	Error(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Options 分析流程的可调参数
type Options struct {
	JSONMode       bool
	MaxTokens      int
	MaxPromptChars int
	// Now 用于计算代币年龄，测试中可替换
	Now func() time.Time
}

// Analyzer runs the classify, collect, prompt, complete, parse and assemble
// pipeline. It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	collector MetadataCollector
	completer ai.Completer
	prompts   *PromptAssembler
	opts      Options
	logger    Logger
}

func NewAnalyzer(c MetadataCollector, completer ai.Completer, opts Options, logger Logger) *Analyzer {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = ai.DefaultMaxTokens
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{
		collector: c,
		completer: completer,
		prompts:   NewPromptAssembler(opts.JSONMode, opts.MaxPromptChars, opts.Now),
		opts:      opts,
		logger:    logger,
	}
}

// Perform analyzes one request. Only a model failure is returned as an error.
func (a *Analyzer) Perform(ctx context.Context, input models.AnalysisInput) (*models.AnalysisResult, error) {
	kind := Classify(input.Content)
	if kind == KindSuspicious {
		a.logger.Warn("refused suspicious input", "kind", kind.String())
		return RefusalResult(), nil
	}

	var (
		payload = input.Content
		token   *models.TokenIdentity
		metrics []models.TopMetric
	)

	if kind == KindAddress {
		address := strings.TrimSpace(input.Content)
		md := a.collector.Collect(ctx, address)
		if md == nil {
			md = &collector.Metadata{}
		}

		token = &models.TokenIdentity{Address: address}
		if md.Summary.TopPair != nil {
			token.Name = md.Summary.TopPair.BaseToken.Name
			token.Symbol = md.Summary.TopPair.BaseToken.Symbol
		}
		metrics = ComputeMetrics(md.Summary, a.opts.Now())
		payload = a.prompts.AddressPayload(address, md)
	}

	messages := a.prompts.Messages(input.Messages, payload)

	raw, err := a.completer.Complete(ctx, ai.CompletionRequest{
		Messages:  messages,
		MaxTokens: a.opts.MaxTokens,
		JSONMode:  a.opts.JSONMode,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis: model invocation failed: %w", err)
	}

	outcome := ParseResponse(raw, a.opts.JSONMode)
	if outcome.Kind == OutcomeMalformed {
		a.logger.Warn("model output could not be parsed", "completer", a.completer.Name(), "length", len(raw))
	}

	result := AssembleResult(outcome.Vulnerabilities(), outcome.VerdictLine(), metrics, token)

	a.logger.Info("analysis finished",
		"kind", kind.String(),
		"outcome", outcome.Kind.String(),
		"vulnerabilities", len(result.Vulnerabilities),
	)

	return result, nil
}
