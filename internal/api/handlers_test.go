// internal/api/handlers_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/NarrativeCharts/internal/config"
	"github.com/Corphon/NarrativeCharts/internal/services"
	"github.com/Corphon/NarrativeCharts/internal/storage"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fileStorage, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("创建文件存储失败: %v", err)
	}
	segmenter, err := services.NewSegmenterService(config.DefaultChapterPattern)
	if err != nil {
		t.Fatalf("创建分章服务失败: %v", err)
	}

	bookService := services.NewBookService(segmenter, fileStorage)
	progressService := services.NewProgressService()
	statsService := services.NewStatsService()
	chartService := services.NewChartService(bookService, progressService, statsService, fileStorage)

	templatesDir := t.TempDir()
	tmpl := `<html><body>{{.Title}} {{.BooksJSON}}</body></html>`
	if err := os.WriteFile(filepath.Join(templatesDir, services.ChartTemplateFile), []byte(tmpl), 0644); err != nil {
		t.Fatalf("写入测试模板失败: %v", err)
	}

	return &Handler{
		ChartService:    chartService,
		ExportService:   services.NewExportService(chartService, fileStorage, templatesDir),
		ProgressService: progressService,
		StatsService:    statsService,
		Response:        NewResponseHelper(),
	}
}

func newTestRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.POST("/api/charts", h.GenerateCharts)
	router.GET("/api/charts/:id", h.GetChart)
	router.GET("/api/charts/:id/export", h.ExportChart)
	router.GET("/api/charts/:id/books/:title/stats", h.GetBookStats)
	router.GET("/api/stats", h.GetStats)
	router.GET("/api/health", h.HealthCheck)
	return router
}

func postJSON(router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func getPath(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func chartRequestBody() map[string]interface{} {
	return map[string]interface{}{
		"gini_coeff": 0.5,
		"books": []map[string]interface{}{
			{
				"title": "API Book",
				"source_lines": []string{
					"Chapter 1",
					"Alice arrived early.",
					"Chapter 2",
					"Alice stayed late.",
				},
				"character_groups": [][]string{{"Alice"}},
			},
		},
	}
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	w := getPath(router, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，得到 %d", w.Code)
	}
}

func TestGenerateChartsAccepted(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h)

	w := postJSON(router, "/api/charts", chartRequestBody())
	if w.Code != http.StatusAccepted {
		t.Fatalf("期望 202，得到 %d: %s", w.Code, w.Body.String())
	}

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法JSON: %v", err)
	}
	data := resp.Data.(map[string]interface{})
	taskID, _ := data["task_id"].(string)
	if taskID == "" {
		t.Fatal("响应应包含任务ID")
	}

	// 等任务结束后结果可查询
	tracker, exists := h.ProgressService.GetTracker(taskID)
	if !exists {
		t.Fatal("应创建进度跟踪器")
	}
	select {
	case <-tracker.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("任务未在超时前完成")
	}

	w = getPath(router, "/api/charts/"+taskID)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，得到 %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"panels":500`)) {
		t.Errorf("结果应包含面板预算: %s", w.Body.String())
	}
}

func TestGenerateChartsValidation(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	tests := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"无书籍", map[string]interface{}{"books": []interface{}{}}, http.StatusBadRequest},
		{"越界系数", func() map[string]interface{} {
			b := chartRequestBody()
			b["gini_coeff"] = 1.5
			return b
		}(), http.StatusBadRequest},
		{"缺少标题", map[string]interface{}{
			"books": []map[string]interface{}{
				{"source_lines": []string{"Chapter 1", "x"}, "character_groups": [][]string{{"A"}}},
			},
		}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/api/charts", tt.body)
			if w.Code != tt.code {
				t.Errorf("期望 %d，得到 %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetChartNotFound(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	w := getPath(router, "/api/charts/chart_missing")
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，得到 %d", w.Code)
	}
}

func TestExportChartHTML(t *testing.T) {
	h := newTestHandler(t)
	router := newTestRouter(h)

	w := postJSON(router, "/api/charts", chartRequestBody())
	if w.Code != http.StatusAccepted {
		t.Fatalf("期望 202，得到 %d: %s", w.Code, w.Body.String())
	}
	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法JSON: %v", err)
	}
	taskID := resp.Data.(map[string]interface{})["task_id"].(string)

	tracker, _ := h.ProgressService.GetTracker(taskID)
	select {
	case <-tracker.Done:
	case <-time.After(5 * time.Second):
		t.Fatal("任务未在超时前完成")
	}

	w = getPath(router, "/api/charts/"+taskID+"/export?format=html")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，得到 %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type 错误: %q", ct)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte("API Book")) {
		t.Error("导出页面应包含书名")
	}

	// 单本书的统计视图
	w = getPath(router, "/api/charts/"+taskID+"/books/API%20Book/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，得到 %d: %s", w.Code, w.Body.String())
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"word_count"`)) {
		t.Errorf("统计视图应包含词数: %s", w.Body.String())
	}
}

func TestGetStats(t *testing.T) {
	router := newTestRouter(newTestHandler(t))

	w := getPath(router, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，得到 %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"tasks_started"`)) {
		t.Errorf("统计响应缺少字段: %s", w.Body.String())
	}
}
