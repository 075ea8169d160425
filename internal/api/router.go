// internal/api/router.go
package api

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Corphon/NarrativeCharts/internal/config"
	"github.com/Corphon/NarrativeCharts/internal/di"
	"github.com/Corphon/NarrativeCharts/internal/services"
	"github.com/gin-gonic/gin"
)

// SetupRouter 配置HTTP路由
func SetupRouter() (*gin.Engine, error) {
	// 获取配置
	cfg := config.GetCurrentConfig()

	// 只从容器获取服务，不再创建新实例
	container := di.GetContainer()

	chartService, ok := container.Get("chart").(*services.ChartService)
	if !ok {
		return nil, fmt.Errorf("图表服务未正确初始化")
	}

	exportService, ok := container.Get("export").(*services.ExportService)
	if !ok {
		return nil, fmt.Errorf("导出服务未正确初始化")
	}

	progressService, ok := container.Get("progress").(*services.ProgressService)
	if !ok {
		return nil, fmt.Errorf("进度服务未正确初始化")
	}

	statsService, ok := container.Get("stats").(*services.StatsService)
	if !ok {
		return nil, fmt.Errorf("统计服务未正确初始化")
	}

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(RequestIDMiddleware())

	// 页面模板和静态资源
	if cfg.TemplatesDir != "" {
		router.LoadHTMLGlob(filepath.Join(cfg.TemplatesDir, "*.html"))
	}
	if cfg.StaticDir != "" {
		router.Static("/static", cfg.StaticDir)
	}

	handler := &Handler{
		ChartService:    chartService,
		ExportService:   exportService,
		ProgressService: progressService,
		StatsService:    statsService,
		Response:        NewResponseHelper(),
	}

	progressWS := NewProgressWebSocket(progressService)

	// 页面
	router.GET("/", handler.IndexPage)

	// API
	apiGroup := router.Group("/api")
	apiGroup.Use(RateLimitMiddleware(120, time.Minute))
	{
		apiGroup.GET("/health", handler.HealthCheck)
		apiGroup.POST("/charts", handler.GenerateCharts)
		apiGroup.GET("/charts/:id", handler.GetChart)
		apiGroup.GET("/charts/:id/export", handler.ExportChart)
		apiGroup.GET("/charts/:id/books/:title/stats", handler.GetBookStats)
		apiGroup.GET("/stats", handler.GetStats)
		apiGroup.GET("/settings", handler.GetSettings)
		apiGroup.PUT("/settings", handler.UpdateSettings)
	}

	// WebSocket 进度推送
	router.GET("/ws/progress/:id", progressWS.HandleProgress)

	return router, nil
}
