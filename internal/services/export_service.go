// internal/services/export_service.go
package services

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/Corphon/NarrativeCharts/internal/errors"
	"github.com/Corphon/NarrativeCharts/internal/models"
	"github.com/Corphon/NarrativeCharts/internal/storage"
)

// ChartTemplateFile 图表页面模板文件名
const ChartTemplateFile = "charts.html"

// ExportService 把批处理结果导出为JSON或HTML图表页面
type ExportService struct {
	ChartService *ChartService
	Storage      *storage.FileStorage
	TemplatesDir string
}

// NewExportService 创建导出服务
func NewExportService(chartService *ChartService, fileStorage *storage.FileStorage, templatesDir string) *ExportService {
	return &ExportService{
		ChartService: chartService,
		Storage:      fileStorage,
		TemplatesDir: templatesDir,
	}
}

// ChartPageData 图表页面模板的数据
type ChartPageData struct {
	Title     string
	Panels    int
	GiniCoeff float64
	Books     []*models.Book
	BooksJSON template.JS
}

// Export 导出指定任务的结果，format 支持 json 和 html
func (s *ExportService) Export(taskID string, format string) (*models.ExportResult, error) {
	result, err := s.ChartService.GetResult(taskID)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(format) {
	case "", "json":
		return s.exportJSON(result)
	case "html":
		return s.exportHTML(result)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("不支持的导出格式: %s", format), nil)
	}
}

// exportJSON 导出为JSON文件
func (s *ExportService) exportJSON(result *models.ChartResult) (*models.ExportResult, error) {
	content, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, apperrors.NewProcessingError("序列化图表结果失败", err)
	}

	return s.saveExport(result.TaskID, "json", string(content))
}

// exportHTML 渲染图表页面模板并导出
func (s *ExportService) exportHTML(result *models.ChartResult) (*models.ExportResult, error) {
	content, err := s.RenderChartPage(result)
	if err != nil {
		return nil, err
	}

	return s.saveExport(result.TaskID, "html", content)
}

// RenderChartPage 把批处理结果渲染为完整的图表HTML页面
func (s *ExportService) RenderChartPage(result *models.ChartResult) (string, error) {
	tmplPath := filepath.Join(s.TemplatesDir, ChartTemplateFile)
	tmpl, err := template.ParseFiles(tmplPath)
	if err != nil {
		return "", apperrors.NewProcessingError("加载图表模板失败", err)
	}

	booksJSON, err := json.Marshal(result.Books)
	if err != nil {
		return "", apperrors.NewProcessingError("序列化书籍数据失败", err)
	}

	title := "Narrative Charts"
	if len(result.Books) == 1 {
		title = result.Books[0].Title
	}

	data := ChartPageData{
		Title:     title,
		Panels:    result.Panels,
		GiniCoeff: result.GiniCoeff,
		Books:     result.Books,
		BooksJSON: template.JS(booksJSON),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", apperrors.NewProcessingError("渲染图表模板失败", err)
	}

	return sb.String(), nil
}

// saveExport 把导出内容写入 exports 目录
func (s *ExportService) saveExport(taskID, format, content string) (*models.ExportResult, error) {
	filename := fmt.Sprintf("%s_%s.%s", taskID, time.Now().Format("20060102_150405"), format)
	fullPath, size, err := s.Storage.WriteFile(filepath.Join("exports", filename), content)
	if err != nil {
		return nil, apperrors.NewProcessingError("保存导出文件失败", err)
	}

	return &models.ExportResult{
		TaskID:    taskID,
		Format:    format,
		FilePath:  fullPath,
		Content:   content,
		FileSize:  size,
		CreatedAt: time.Now(),
	}, nil
}
