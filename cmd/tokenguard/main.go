package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/songzhibin97/tokenguard/internal/ai"
	"github.com/songzhibin97/tokenguard/internal/ai/deepseek"
	"github.com/songzhibin97/tokenguard/internal/ai/gemini"
	"github.com/songzhibin97/tokenguard/internal/ai/openai"
	"github.com/songzhibin97/tokenguard/internal/analysis"
	"github.com/songzhibin97/tokenguard/internal/api"
	"github.com/songzhibin97/tokenguard/internal/configs"
	"github.com/songzhibin97/tokenguard/internal/data"
	"github.com/songzhibin97/tokenguard/internal/data/collector"
	"github.com/songzhibin97/tokenguard/internal/data/collector/dexscreener"
	"github.com/songzhibin97/tokenguard/internal/data/collector/ethplorer"
	"github.com/songzhibin97/tokenguard/internal/data/collector/sourcify"
	"github.com/songzhibin97/tokenguard/internal/data/storage"
	"github.com/songzhibin97/tokenguard/internal/utils/request"
)

const (
	modelTimeout    = 2 * time.Minute
	shutdownTimeout = 30 * time.Second
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.json", "config path, eg: -conf config.json")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
		Level:     lvl,
	}))
}

// newCompleter 根据配置选择模型后端
func newCompleter(ctx context.Context, cfg configs.AIConfig) (ai.Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return openai.NewOpenAICompleter(cfg.APIKey, cfg.Model, cfg.BaseURL, &http.Client{Timeout: modelTimeout}), nil
	case "deepseek":
		return deepseek.NewDeepSeekCompleter(cfg.APIKey, cfg.Model, cfg.BaseURL, request.New(modelTimeout)), nil
	case "gemini":
		return gemini.NewGeminiCompleter(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, &http.Client{Timeout: modelTimeout})
	default:
		return nil, fmt.Errorf("%w: %s", ai.ErrUnsupportedProvider, cfg.Provider)
	}
}

func main() {
	flag.Parse()

	// 加载配置
	config, err := configs.Load(flagconf)
	if err != nil {
		slog.Error("Error loading config", "err", err)
		os.Exit(1)
	}

	log := newLogger(config.LogLevel)
	log.Debug("Loaded config", "provider", config.AIConfig.Provider, "model", config.AIConfig.Model, "addr", config.Server.Addr)

	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		log.Debug("set proxy ok", "proxy", config.Proxy)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化各个组件
	client := request.New(config.Sources.RequestTimeout())
	metadata := collector.NewMetadataCollector(
		dexscreener.NewDexScreenerSource(config.Sources.DexScreenerURL, client),
		sourcify.NewSourcifySource(config.Sources.SourcifyURL, client),
		ethplorer.NewEthplorerSource(config.Sources.EthplorerURL, config.Sources.EthplorerAPIKey, client),
		log,
	)

	log.Debug("init collector")

	completer, err := newCompleter(ctx, config.AIConfig)
	if err != nil {
		log.Error("Error creating completer", "err", err)
		os.Exit(1)
	}

	log.Debug("init completer", "completer", completer.Name())

	analyzer := analysis.NewAnalyzer(metadata, completer, analysis.Options{
		JSONMode:       config.AIConfig.JSONModeEnabled(),
		MaxTokens:      config.AIConfig.MaxTokens,
		MaxPromptChars: config.AIConfig.MaxPromptChars,
	}, log)

	// 未配置数据库时不保存历史
	var store data.AnalysisStore
	if config.Database.ConnStr != "" {
		pg, err := storage.NewPostgresStorage(ctx, config.Database.ConnStr)
		if err != nil {
			log.Error("Error creating storage", "err", err)
			os.Exit(1)
		}
		defer pg.Close()
		store = pg
		log.Debug("init storage")
	}

	names, err := api.LoadTokenNames(config.Server.TokenNamesFile)
	if err != nil {
		log.Error("Error loading token names", "err", err)
		os.Exit(1)
	}

	limiter, err := api.NewCooldownLimiter(config.Server.Window(), api.DefaultLimiterSize)
	if err != nil {
		log.Error("Error creating limiter", "err", err)
		os.Exit(1)
	}

	if len(config.Server.APIKeys) == 0 {
		log.Warn("no public api keys configured, /api/public-analyze will reject every call")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandler(analyzer, store, names, log), config.Server.APIKeys, limiter, log)

	if err := serve(ctx, config.Server.Addr, router, log); err != nil {
		log.Error("Server error", "err", err)
		os.Exit(1)
	}
}

// serve 运行 HTTP 服务，直到收到退出信号后优雅关闭
func serve(ctx context.Context, addr string, handler http.Handler, log *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
