package configs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig `json:"server" yaml:"server"`

	// AI 模型参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config"`

	// 外部数据源
	Sources SourcesConfig `json:"sources" yaml:"sources"`

	Database Database `json:"database" yaml:"database"`

	Proxy    string `json:"proxy" yaml:"proxy"`         // HTTP(S) 代理
	LogLevel string `json:"log_level" yaml:"log_level"` // debug/info/warn/error
}

type ServerConfig struct {
	Addr            string   `json:"addr" yaml:"addr"`                           // 监听地址
	APIKeys         []string `json:"api_keys" yaml:"api_keys"`                   // 公共接口允许的 key
	RateLimitWindow string   `json:"rate_limit_window" yaml:"rate_limit_window"` // 每个 key 的冷却时间
	TokenNamesFile  string   `json:"token_names_file" yaml:"token_names_file"`   // 地址 -> 名称映射文件
}

type AIConfig struct {
	Provider       string `json:"provider" yaml:"provider"`                 // openai/deepseek/gemini
	APIKey         string `json:"api_key" yaml:"api_key"`                   // AI服务API密钥
	Model          string `json:"model" yaml:"model"`                       // AI模型，为空时使用各后端默认值
	BaseURL        string `json:"base_url" yaml:"base_url"`                 // 自定义接口地址
	MaxTokens      int    `json:"max_tokens" yaml:"max_tokens"`             // 最大输出 token
	JSONMode       *bool  `json:"json_mode" yaml:"json_mode"`               // 是否要求 JSON 输出，默认 true
	MaxPromptChars int    `json:"max_prompt_chars" yaml:"max_prompt_chars"` // 用户消息截断长度，0 表示不截断
}

type SourcesConfig struct {
	DexScreenerURL  string `json:"dexscreener_url" yaml:"dexscreener_url"`
	SourcifyURL     string `json:"sourcify_url" yaml:"sourcify_url"`
	EthplorerURL    string `json:"ethplorer_url" yaml:"ethplorer_url"`
	EthplorerAPIKey string `json:"ethplorer_api_key" yaml:"ethplorer_api_key"`
	Timeout         string `json:"timeout" yaml:"timeout"` // 单次请求超时
}

type Database struct {
	ConnStr string `json:"conn_str" yaml:"conn_str"` // 数据库连接字符串，为空时不保存历史
}

const (
	defaultAddr            = ":8080"
	defaultProvider        = "openai"
	defaultMaxTokens       = 5000
	defaultRateLimitWindow = time.Minute
	defaultSourceTimeout   = 10 * time.Second
)

// Default returns the configuration used when no file is present.
func Default() *Config {
	jsonMode := true
	return &Config{
		Server: ServerConfig{
			Addr:            defaultAddr,
			RateLimitWindow: defaultRateLimitWindow.String(),
		},
		AIConfig: AIConfig{
			Provider:  defaultProvider,
			MaxTokens: defaultMaxTokens,
			JSONMode:  &jsonMode,
		},
		Sources: SourcesConfig{
			Timeout: defaultSourceTimeout.String(),
		},
		LogLevel: "info",
	}
}

// Load reads the JSON config at path on top of the defaults, then applies
// .env and environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := json.Unmarshal(raw, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// .env 可选
	_ = godotenv.Load()

	config.applyEnv()
	return config, nil
}

func (c *Config) applyEnv() {
	setString(&c.AIConfig.APIKey, "OPENAI_API_KEY")
	setString(&c.AIConfig.Provider, "AI_PROVIDER")
	setString(&c.AIConfig.Model, "AI_MODEL")
	setString(&c.Database.ConnStr, "DATABASE_URL")
	setString(&c.Server.Addr, "HTTP_ADDR")
	setString(&c.Sources.EthplorerAPIKey, "ETHPLORER_API_KEY")

	if raw := os.Getenv("PUBLIC_API_KEYS"); raw != "" {
		c.Server.APIKeys = SplitKeys(raw)
	}
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// SplitKeys parses a comma separated key list, dropping blanks.
func SplitKeys(raw string) []string {
	keys := make([]string, 0)
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// JSONModeEnabled 未配置时默认开启
func (a AIConfig) JSONModeEnabled() bool {
	return a.JSONMode == nil || *a.JSONMode
}

func (s ServerConfig) Window() time.Duration {
	return parseDuration(s.RateLimitWindow, defaultRateLimitWindow)
}

func (s SourcesConfig) RequestTimeout() time.Duration {
	return parseDuration(s.Timeout, defaultSourceTimeout)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
