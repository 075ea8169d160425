// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Corphon/NarrativeCharts/internal/api"
	"github.com/Corphon/NarrativeCharts/internal/app"
	"github.com/Corphon/NarrativeCharts/internal/config"
	"github.com/Corphon/NarrativeCharts/internal/di"
	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("🚀 启动 NarrativeCharts 服务器...")

	// 1. 首先加载基础配置
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	log.Printf("✅ 基础配置加载完成，端口: %s", baseConfig.Port)

	// 2. 创建必要的目录
	createDirectories(baseConfig)
	log.Println("✅ 目录结构创建完成")

	// 3. 初始化应用（配置系统、日志、服务）
	application := app.GetApp()
	if err := application.Initialize(baseConfig.DataDir); err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}
	log.Println("✅ 所有服务初始化完成")

	// 4. 服务健康检查
	if err := performHealthCheck(); err != nil {
		log.Fatalf("❌ 服务健康检查失败: %v", err)
	}

	// 5. 设置路由（只获取服务，不创建）
	router, err := api.SetupRouter()
	if err != nil {
		log.Fatalf("❌ 设置路由失败: %v", err)
	}
	log.Println("✅ 路由设置完成")

	// 6. 启动服务器
	log.Printf("🌐 服务器启动在端口 %s", baseConfig.Port)
	log.Printf("🔗 访问地址: http://localhost:%s", baseConfig.Port)

	setupGracefulShutdown(application, router, baseConfig.Port)
}

// 健康检查函数
func performHealthCheck() error {
	container := di.GetContainer()

	// 检查关键服务是否已注册
	criticalServices := []string{"storage", "segmenter", "book", "chart", "export", "progress", "stats"}

	for _, serviceName := range criticalServices {
		if service := container.Get(serviceName); service == nil {
			return fmt.Errorf("关键服务未注册: %s", serviceName)
		}
	}

	log.Println("✅ 服务健康检查通过")
	return nil
}

// 优雅关闭函数
func setupGracefulShutdown(application *app.App, router *gin.Engine, port string) {
	// 等待中断信号以进行优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 正在关闭服务器...")

		// 给定超时时间关闭服务器
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := application.Shutdown(ctx); err != nil {
			log.Fatalf("❌ 服务器强制关闭: %v", err)
		}
	}()

	if err := application.Run(router, port); err != nil {
		log.Fatalf("❌ 启动服务器失败: %v", err)
	}

	log.Println("✅ 服务器优雅关闭完成")
}

// createDirectories 创建应用所需的目录结构
func createDirectories(cfg *config.Config) {
	dirs := []string{
		cfg.DataDir,
		filepath.Join(cfg.DataDir, "charts"),
		filepath.Join(cfg.DataDir, "exports"),
		cfg.LogDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("创建目录失败 %s: %v", dir, err)
		}
	}
}
