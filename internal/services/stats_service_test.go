// internal/services/stats_service_test.go
package services

import (
	"testing"

	"github.com/Corphon/NarrativeCharts/internal/models"
)

func TestRecordTask(t *testing.T) {
	svc := NewStatsService()
	books := newTestBookService(t)

	book, err := books.AssembleBook(testSpec("Stats Book"), 0)
	if err != nil {
		t.Fatalf("装配失败: %v", err)
	}

	svc.RecordTask(&models.ChartResult{
		Books: []*models.Book{book},
		Failures: []models.BookFailure{
			{Title: "Broken", Code: "NO_CHAPTERS_FOUND"},
		},
	})

	stats := svc.GetUsageStats()
	if stats.TasksStarted != 1 {
		t.Errorf("任务数错误: %d", stats.TasksStarted)
	}
	if stats.BooksProcessed != 1 || stats.BooksFailed != 1 {
		t.Errorf("书籍计数错误: %d/%d", stats.BooksProcessed, stats.BooksFailed)
	}
	if stats.ChaptersSegmented != 2 {
		t.Errorf("章节计数错误: %d", stats.ChaptersSegmented)
	}
	if stats.WordsCounted != book.WordCount() {
		t.Errorf("词数计数错误: %d", stats.WordsCounted)
	}
	if stats.LastUpdated.IsZero() {
		t.Error("应记录更新时间")
	}
}

func TestComputeBookStats(t *testing.T) {
	books := newTestBookService(t)

	spec := &models.BookSpec{
		Title: "Presence Book",
		SourceLines: []string{
			"Chapter 1",
			"Alice met Bob.",
			"Chapter 2",
			"Alice walked on.",
		},
		CharacterGroups: [][]string{{"Alice"}, {"Bob"}},
	}
	book, err := books.AssembleBook(spec, 0)
	if err != nil {
		t.Fatalf("装配失败: %v", err)
	}

	stats := ComputeBookStats(book)
	if stats.ChapterCount != 2 || stats.CharacterCount != 2 {
		t.Errorf("计数错误: %d 章 %d 角色", stats.ChapterCount, stats.CharacterCount)
	}
	if stats.CharacterPresence["Alice"] != 2 {
		t.Errorf("Alice 应出现在 2 章，得到 %d", stats.CharacterPresence["Alice"])
	}
	if stats.CharacterPresence["Bob"] != 1 {
		t.Errorf("Bob 应出现在 1 章，得到 %d", stats.CharacterPresence["Bob"])
	}
	if len(stats.ChapterSummaries) != 2 {
		t.Fatalf("章节摘要数错误: %d", len(stats.ChapterSummaries))
	}
	if stats.ChapterSummaries[0].Characters["Alice"] != 1 {
		t.Errorf("第一章 Alice 计数错误: %v", stats.ChapterSummaries[0].Characters)
	}
}
