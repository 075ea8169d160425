// internal/api/websocket.go
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/Corphon/NarrativeCharts/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该进行更严格的检查
		return true
	},
}

// 写超时与心跳间隔
const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// ProgressWebSocket 向前端推送图表生成进度
type ProgressWebSocket struct {
	ProgressService *services.ProgressService
}

// NewProgressWebSocket 创建进度推送处理器
func NewProgressWebSocket(progressService *services.ProgressService) *ProgressWebSocket {
	return &ProgressWebSocket{ProgressService: progressService}
}

// HandleProgress 订阅某任务的进度并持续推送，任务结束后关闭连接
// GET /ws/progress/:id
func (ws *ProgressWebSocket) HandleProgress(c *gin.Context) {
	taskID := c.Param("id")

	tracker, exists := ws.ProgressService.GetTracker(taskID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在: " + taskID})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}
	defer conn.Close()

	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	// 读端只用于感知客户端断开
	disconnect := make(chan struct{})
	go func() {
		defer close(disconnect)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			// 终态推送完即收尾
			if update.Status != "running" {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(wsWriteWait))
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-disconnect:
			return
		}
	}
}
