// internal/services/stats_service.go
package services

import (
	"sync"
	"time"

	"github.com/Corphon/NarrativeCharts/internal/models"
)

// UsageStats 批处理的累计统计
type UsageStats struct {
	TasksStarted      int       `json:"tasks_started"`
	BooksProcessed    int       `json:"books_processed"`
	BooksFailed       int       `json:"books_failed"`
	ChaptersSegmented int       `json:"chapters_segmented"`
	WordsCounted      int       `json:"words_counted"`
	LastUpdated       time.Time `json:"last_updated"`
}

// StatsService 聚合批处理过程的统计数据
type StatsService struct {
	mutex sync.Mutex
	stats UsageStats
}

// NewStatsService 创建统计服务实例
func NewStatsService() *StatsService {
	return &StatsService{}
}

// RecordTask 记录一次批处理任务的结果
func (s *StatsService) RecordTask(result *models.ChartResult) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.stats.TasksStarted++
	s.stats.BooksProcessed += len(result.Books)
	s.stats.BooksFailed += len(result.Failures)
	for _, book := range result.Books {
		s.stats.ChaptersSegmented += len(book.Chapters)
		s.stats.WordsCounted += book.WordCount()
	}
	s.stats.LastUpdated = time.Now()
}

// GetUsageStats 返回累计统计的副本
func (s *StatsService) GetUsageStats() UsageStats {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.stats
}

// ComputeBookStats 从装配完成的书计算统计视图
// 必须在章节仍在内存时调用：Book 序列化不保留章节正文
func ComputeBookStats(book *models.Book) *models.BookStats {
	summaries := make([]*models.ChapterSummary, 0, len(book.Chapters))
	presence := make(map[string]int)

	for _, chapter := range book.Chapters {
		summaries = append(summaries, chapter.Summary())
		for _, c := range chapter.PresentCharacters() {
			presence[c.Name]++
		}
	}

	return &models.BookStats{
		Title:             book.Title,
		ChapterCount:      len(book.Chapters),
		WordCount:         book.WordCount(),
		CharacterCount:    len(book.Characters),
		ChapterSummaries:  summaries,
		CharacterPresence: presence,
	}
}
