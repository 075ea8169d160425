// internal/api/handlers.go
package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/Corphon/NarrativeCharts/internal/config"
	"github.com/Corphon/NarrativeCharts/internal/models"
	"github.com/Corphon/NarrativeCharts/internal/services"
	"github.com/gin-gonic/gin"
)

// Handler 处理API请求
type Handler struct {
	ChartService    *services.ChartService    // 图表批处理服务
	ExportService   *services.ExportService   // 导出服务
	ProgressService *services.ProgressService // 进度跟踪服务
	StatsService    *services.StatsService    // 统计服务
	Response        *ResponseHelper           // 响应助手
}

// GenerateChartsRequest 生成图表的请求结构
type GenerateChartsRequest struct {
	GiniCoeff *float64           `json:"gini_coeff,omitempty"` // 不传时使用配置默认值
	Books     []*models.BookSpec `json:"books"`
}

// GenerateChartsResponse 生成图表的响应结构
type GenerateChartsResponse struct {
	TaskID string `json:"task_id"`
}

// APIResponse 标准API响应格式
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"` // 用于调试和追踪
}

// APIError 标准错误格式
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// GenerateCharts 接受一批书籍规格，异步生成图表
// POST /api/charts
func (h *Handler) GenerateCharts(c *gin.Context) {
	var req GenerateChartsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求体格式错误", err.Error())
		return
	}

	if len(req.Books) == 0 {
		h.Response.BadRequest(c, "请求中没有任何书籍")
		return
	}

	gini := config.GetCurrentConfig().GiniCoeff
	if req.GiniCoeff != nil {
		gini = *req.GiniCoeff
	}
	if gini < 0 || gini > 1 {
		h.Response.BadRequest(c, "系数必须在 [0,1] 范围内")
		return
	}

	// 先整体校验，规格错误同步反馈而不是等任务失败
	for _, spec := range req.Books {
		if err := h.ChartService.BookService.ValidateSpec(spec); err != nil {
			h.Response.AppError(c, err)
			return
		}
	}

	taskID := h.ChartService.RunTask(req.Books, gini)
	h.Response.Accepted(c, &GenerateChartsResponse{TaskID: taskID}, "图表生成任务已启动")
}

// GetChart 获取已完成任务的图表结果
// GET /api/charts/:id
func (h *Handler) GetChart(c *gin.Context) {
	taskID := c.Param("id")

	// 任务还在运行时返回进度快照
	if tracker, exists := h.ProgressService.GetTracker(taskID); exists {
		snapshot := tracker.Snapshot()
		if snapshot.Status == "running" {
			h.Response.Success(c, snapshot, "任务处理中")
			return
		}
	}

	result, err := h.ChartService.GetResult(taskID)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	h.Response.Success(c, result)
}

// ExportChart 导出图表结果
// GET /api/charts/:id/export?format=json|html
func (h *Handler) ExportChart(c *gin.Context) {
	taskID := c.Param("id")
	format := c.DefaultQuery("format", "json")

	result, err := h.ExportService.Export(taskID, format)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	switch format {
	case "html":
		h.Response.FileResponse(c, result.Content, filepath.Base(result.FilePath), "text/html; charset=utf-8")
	default:
		h.Response.FileResponse(c, result.Content, filepath.Base(result.FilePath), "application/json; charset=utf-8")
	}
}

// GetBookStats 获取某任务中单本书的统计视图
// 统计在生成时已计算并随结果持久化，重启后从磁盘恢复的任务同样可查
// GET /api/charts/:id/books/:title/stats
func (h *Handler) GetBookStats(c *gin.Context) {
	taskID := c.Param("id")
	title := c.Param("title")

	result, err := h.ChartService.GetResult(taskID)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}

	for _, stats := range result.Stats {
		if stats.Title == title {
			h.Response.Success(c, stats)
			return
		}
	}

	h.Response.NotFound(c, "书籍不存在: "+title)
}

// GetStats 获取累计统计
// GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	h.Response.Success(c, h.StatsService.GetUsageStats())
}

// GetSettings 获取图表生成设置
// GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	cfg := config.GetCurrentConfig()
	h.Response.Success(c, gin.H{
		"chapter_pattern": cfg.ChapterPattern,
		"gini_coeff":      cfg.GiniCoeff,
		"panels":          services.PanelBudget,
	})
}

// UpdateSettingsRequest 更新图表生成设置的请求结构
type UpdateSettingsRequest struct {
	ChapterPattern string  `json:"chapter_pattern"`
	GiniCoeff      float64 `json:"gini_coeff"`
}

// UpdateSettings 更新图表生成设置
// PUT /api/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "请求体格式错误", err.Error())
		return
	}

	if err := config.UpdateChartConfig(req.ChapterPattern, req.GiniCoeff); err != nil {
		h.Response.BadRequest(c, err.Error())
		return
	}

	// 让新模式对后续任务立即生效
	if err := h.ChartService.BookService.Segmenter.SetPattern(req.ChapterPattern); err != nil {
		h.Response.InternalError(c, "更新分章模式失败", err.Error())
		return
	}

	h.Response.Success(c, nil, "设置已更新")
}

// HealthCheck 健康检查
// GET /api/health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// IndexPage 图表主页
// GET /
func (h *Handler) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title": "Narrative Charts",
	})
}
