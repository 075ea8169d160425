// internal/services/chart_service.go
package services

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	apperrors "github.com/Corphon/NarrativeCharts/internal/errors"
	"github.com/Corphon/NarrativeCharts/internal/models"
	"github.com/Corphon/NarrativeCharts/internal/storage"
	"github.com/Corphon/NarrativeCharts/internal/utils"
)

// ChartService 负责整批书籍的图表生成
//
// 错误作用域是单本书：一本书失败只产生一条 Failure 记录，
// 不影响同批其他书的处理和输出顺序
type ChartService struct {
	BookService     *BookService
	ProgressService *ProgressService
	StatsService    *StatsService
	Storage         *storage.FileStorage

	// 已完成任务的结果，taskID -> result
	results map[string]*models.ChartResult
	mutex   sync.RWMutex
}

// NewChartService 创建图表批处理服务
func NewChartService(bookService *BookService, progressService *ProgressService, statsService *StatsService, fileStorage *storage.FileStorage) *ChartService {
	return &ChartService{
		BookService:     bookService,
		ProgressService: progressService,
		StatsService:    statsService,
		Storage:         fileStorage,
		results:         make(map[string]*models.ChartResult),
	}
}

// GenerateCharts 同步处理一批书籍，按输入顺序产出结果
// gini 是全批共用的分摊系数；tracker 可为 nil（命令行路径不需要推送进度）
func (s *ChartService) GenerateCharts(specs []*models.BookSpec, gini float64, tracker *ProgressTracker) (*models.ChartResult, error) {
	if len(specs) == 0 {
		return nil, apperrors.NewValidationError("没有待处理的书籍", nil)
	}
	if gini < 0 || gini > 1 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("系数必须在 [0,1] 范围内，当前值: %v", gini), nil)
	}

	logger := utils.GetLogger()

	result := &models.ChartResult{
		Panels:    PanelBudget,
		GiniCoeff: gini,
		CreatedAt: time.Now(),
	}

	for i, spec := range specs {
		if tracker != nil {
			tracker.UpdateProgress(i*100/len(specs), fmt.Sprintf("正在处理书籍 %d/%d: %s", i+1, len(specs), spec.Title))
		}

		book, err := s.BookService.AssembleBook(spec, gini)
		if err != nil {
			logger.Error("书籍处理失败", map[string]interface{}{
				"title": spec.Title,
				"code":  apperrors.CodeOf(err),
				"error": err.Error(),
			})
			result.Failures = append(result.Failures, models.BookFailure{
				Title:   spec.Title,
				Code:    apperrors.CodeOf(err),
				Message: err.Error(),
			})
			continue
		}

		logger.Info("书籍处理完成", map[string]interface{}{
			"title":    book.Title,
			"chapters": len(book.Chapters),
			"words":    book.WordCount(),
		})
		result.Books = append(result.Books, book)
		// 统计视图在此时计算：结果落盘后章节正文不再可用
		result.Stats = append(result.Stats, ComputeBookStats(book))
	}

	if s.StatsService != nil {
		s.StatsService.RecordTask(result)
	}

	return result, nil
}

// RunTask 异步执行一批书籍的处理，进度通过跟踪器推送
// 返回任务ID，结果完成后可通过 GetResult 获取
func (s *ChartService) RunTask(specs []*models.BookSpec, gini float64) string {
	taskID := fmt.Sprintf("chart_%d", time.Now().UnixNano())
	tracker := s.ProgressService.CreateTracker(taskID)

	go func() {
		result, err := s.GenerateCharts(specs, gini, tracker)
		if err != nil {
			tracker.Fail(err)
			return
		}

		result.TaskID = taskID
		s.mutex.Lock()
		s.results[taskID] = result
		s.mutex.Unlock()

		// 结果落盘，便于重启后排查
		if err := s.Storage.SaveJSON(filepath.Join("charts", taskID+".json"), result); err != nil {
			utils.GetLogger().Warn("图表结果保存失败", map[string]interface{}{
				"task_id": taskID,
				"error":   err.Error(),
			})
		}

		if len(result.Failures) > 0 {
			tracker.Complete(fmt.Sprintf("处理完成：成功 %d 本，失败 %d 本", len(result.Books), len(result.Failures)))
		} else {
			tracker.Complete(fmt.Sprintf("处理完成：共 %d 本", len(result.Books)))
		}
	}()

	return taskID
}

// GetResult 获取已完成任务的结果
func (s *ChartService) GetResult(taskID string) (*models.ChartResult, error) {
	s.mutex.RLock()
	result, exists := s.results[taskID]
	s.mutex.RUnlock()

	if exists {
		return result, nil
	}

	// 内存中没有时尝试从磁盘恢复
	var loaded models.ChartResult
	if err := s.Storage.LoadJSON(filepath.Join("charts", taskID+".json"), &loaded); err != nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("任务结果不存在: %s", taskID), nil)
	}

	s.mutex.Lock()
	s.results[taskID] = &loaded
	s.mutex.Unlock()

	return &loaded, nil
}
