package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/songzhibin97/tokenguard/internal/data"
	"github.com/songzhibin97/tokenguard/internal/models"
)

// Analyzer 执行一次完整的合约分析
type Analyzer interface {
	Perform(ctx context.Context, input models.AnalysisInput) (*models.AnalysisResult, error)
}

type Logger interface {
	Error(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// Handler 处理API请求
type Handler struct {
	analyzer Analyzer
	store    data.AnalysisStore // 可为 nil，此时不保存历史
	names    TokenNames
	logger   Logger
}

func NewHandler(analyzer Analyzer, store data.AnalysisStore, names TokenNames, logger Logger) *Handler {
	if names == nil {
		names = TokenNames{}
	}
	return &Handler{
		analyzer: analyzer,
		store:    store,
		names:    names,
		logger:   logger,
	}
}

type analyzeRequest struct {
	Content  string               `json:"content"`
	Messages []models.ChatMessage `json:"messages"`
}

// Analyze serves both the public and the UI analysis routes.
func (h *Handler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.analyzer.Perform(c.Request.Context(), models.AnalysisInput{
		Content:  req.Content,
		Messages: req.Messages,
	})
	if err != nil {
		h.logger.Error("analysis failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze contract"})
		return
	}

	h.saveReport(c.Request.Context(), result)
	c.JSON(http.StatusOK, result)
}

// saveReport 仅保存地址分析，失败只记录日志
func (h *Handler) saveReport(ctx context.Context, result *models.AnalysisResult) {
	if h.store == nil || result == nil || result.Token == nil {
		return
	}
	if err := h.store.SaveReport(ctx, result.Token.Address, result); err != nil {
		h.logger.Warn("failed to save analysis report", "address", result.Token.Address, "error", err)
	}
}

// TokenDisplayName 查询地址的展示名称
func (h *Handler) TokenDisplayName(c *gin.Context) {
	address := normalizeLowerAddress(c.Param("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return
	}

	name, ok := h.names[address]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"address": address, "displayName": nil, "found": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "displayName": name, "found": true})
}

// RecentAnalyses 返回地址最近的分析报告
func (h *Handler) RecentAnalyses(c *gin.Context) {
	address := normalizeLowerAddress(c.Param("address"))
	if address == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid address"})
		return
	}
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report history is disabled"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	reports, err := h.store.RecentReports(c.Request.Context(), address, limit)
	if err != nil {
		h.logger.Error("failed to load analysis reports", "address", address, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load reports"})
		return
	}
	if reports == nil {
		reports = []data.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "reports": reports})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
