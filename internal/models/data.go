package models

// ChatMessage 对话中的一条消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AnalysisInput 分析请求
type AnalysisInput struct {
	Content  string        `json:"content"`
	Messages []ChatMessage `json:"messages"`
}

// TokenIdentity 代币身份，name/symbol 只有在找到交易对时才有
type TokenIdentity struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
}

// TopMetric 展示用的快速指标
type TopMetric struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Vulnerability 单个漏洞，Severity 为 0 表示未评分
type Vulnerability struct {
	Severity    float64 `json:"severity"`
	Description string  `json:"description"`
}

// Verdict 模型给出的整体结论
type Verdict struct {
	Score   *float64 `json:"score"`
	Label   string   `json:"label"`
	Emoji   string   `json:"emoji"`
	Meaning string   `json:"meaning"`
	Meme    string   `json:"meme"`
}

// AnalysisResult 分析结果，返回后不再修改
type AnalysisResult struct {
	Message         string          `json:"message"`
	Metrics         []TopMetric     `json:"metrics"`
	Token           *TokenIdentity  `json:"token"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	VerdictLine     *string         `json:"verdictLine"`
}

// Pair DEX 交易对，所有字段都可能缺失
type Pair struct {
	ChainID      string    `json:"chainId,omitempty"`
	DexID        string    `json:"dexId,omitempty"`
	PairAddress  string    `json:"pairAddress,omitempty"`
	BaseToken    PairToken `json:"baseToken"`
	QuoteToken   PairToken `json:"quoteToken"`
	PriceUSD     string    `json:"priceUsd,omitempty"`
	LiquidityUSD *float64  `json:"liquidityUsd,omitempty"`
	Volume24h    *float64  `json:"volume24h,omitempty"`
	CreatedAt    *int64    `json:"createdAt,omitempty"` // unix 毫秒
}

// PairToken 交易对中的一侧代币
type PairToken struct {
	Address string `json:"address,omitempty"`
	Name    string `json:"name,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
}

// Holder 持有人及其占比（百分比）
type Holder struct {
	Address string  `json:"address"`
	Share   float64 `json:"share"`
	Balance float64 `json:"balance"`
}

// HolderStats 持有人分布
type HolderStats struct {
	HolderCount *int64   `json:"holderCount,omitempty"`
	TopHolders  []Holder `json:"topHolders,omitempty"`
}

// SourceFile 已验证的合约源码入口文件
type SourceFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Match   string `json:"match"` // full 或 partial
}

// MetadataSummary 单次请求内的链上/链下元数据，所有字段都可缺失
type MetadataSummary struct {
	ChainSlug             string   `json:"chainSlug,omitempty"`
	ChainID               *int64   `json:"chainId,omitempty"`
	TotalLiquidityUSD     *float64 `json:"totalLiquidityUsd,omitempty"`
	EarliestPairCreatedAt *int64   `json:"earliestPairCreatedAt,omitempty"`
	HolderCount           *int64   `json:"holderCount,omitempty"`
	TopHolders            []Holder `json:"topHolders,omitempty"`
	TopPair               *Pair    `json:"topPair,omitempty"`
	PairCount             int      `json:"pairCount"`
}
