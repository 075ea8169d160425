// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/Corphon/NarrativeCharts/internal/config"
	"github.com/Corphon/NarrativeCharts/internal/di"
	"github.com/Corphon/NarrativeCharts/internal/services"
	"github.com/Corphon/NarrativeCharts/internal/storage"
	"github.com/Corphon/NarrativeCharts/internal/utils"
)

// App 应用程序实例，持有配置、路由和运行状态
type App struct {
	config   *config.AppConfig
	server   *http.Server
	stopChan chan struct{}
}

var (
	instance *App
	appOnce  sync.Once
)

// GetApp 获取应用单例
func GetApp() *App {
	appOnce.Do(func() {
		instance = &App{
			stopChan: make(chan struct{}),
		}
	})
	return instance
}

// InitServices 按依赖顺序初始化所有服务并注册到容器
func InitServices() error {
	cfg := config.GetCurrentConfig()
	container := di.GetContainer()

	// 存储层最先初始化，后续服务都依赖它
	fileStorage, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}
	container.Register("storage", fileStorage)

	// 分章服务使用配置中的章节标题模式
	segmenter, err := services.NewSegmenterService(cfg.ChapterPattern)
	if err != nil {
		return fmt.Errorf("初始化分章服务失败: %w", err)
	}
	container.Register("segmenter", segmenter)

	progressService := services.NewProgressService()
	container.Register("progress", progressService)

	statsService := services.NewStatsService()
	container.Register("stats", statsService)

	bookService := services.NewBookService(segmenter, fileStorage)
	container.Register("book", bookService)

	chartService := services.NewChartService(bookService, progressService, statsService, fileStorage)
	container.Register("chart", chartService)

	exportService := services.NewExportService(chartService, fileStorage, cfg.TemplatesDir)
	container.Register("export", exportService)

	utils.GetLogger().Info("服务初始化完成", map[string]interface{}{
		"services": len(container.GetNames()),
	})

	return nil
}

// Initialize 初始化配置、日志和服务
func (a *App) Initialize(dataDir string) error {
	if err := config.InitConfig(dataDir); err != nil {
		return fmt.Errorf("初始化配置失败: %w", err)
	}

	cfg := config.GetCurrentConfig()
	a.config = cfg

	logFile := filepath.Join(cfg.LogDir, fmt.Sprintf("server_%s.log", time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}

	return InitServices()
}

// GetConfig 返回应用配置
func (a *App) GetConfig() *config.AppConfig {
	return a.config
}

// GetDIContainer 返回依赖注入容器
func (a *App) GetDIContainer() *di.Container {
	return di.GetContainer()
}

// IsDebugMode 返回是否为调试模式
func (a *App) IsDebugMode() bool {
	if a.config == nil {
		return false
	}
	return a.config.DebugMode
}

// Run 启动HTTP服务器，阻塞直到 Shutdown 被调用
func (a *App) Run(handler http.Handler, port string) error {
	a.server = &http.Server{
		Addr:    ":" + port,
		Handler: handler,
	}

	errChan := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-a.stopChan:
		return nil
	}
}

// Shutdown 优雅关闭服务器
func (a *App) Shutdown(ctx context.Context) error {
	defer close(a.stopChan)

	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
