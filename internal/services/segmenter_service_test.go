// internal/services/segmenter_service_test.go
package services

import (
	"reflect"
	"testing"

	"github.com/Corphon/NarrativeCharts/internal/config"
	"github.com/Corphon/NarrativeCharts/internal/models"
)

func newTestSegmenter(t *testing.T) *SegmenterService {
	t.Helper()
	segmenter, err := NewSegmenterService(config.DefaultChapterPattern)
	if err != nil {
		t.Fatalf("创建分章服务失败: %v", err)
	}
	return segmenter
}

func TestSegmentBasic(t *testing.T) {
	segmenter := newTestSegmenter(t)

	lines := []string{
		"front matter before any chapter",
		"Chapter 1",
		"Alice met Bob.",
		"They talked.",
		"Chapter 2",
		"Bob left.",
	}

	chapters := segmenter.Segment(lines)
	if len(chapters) != 2 {
		t.Fatalf("期望 2 个章节，得到 %d", len(chapters))
	}

	if chapters[0].Title != "Chapter 1" {
		t.Errorf("章节标题错误: %q", chapters[0].Title)
	}
	if !reflect.DeepEqual(chapters[0].Lines, []string{"Alice met Bob.", "They talked."}) {
		t.Errorf("第一章正文错误: %v", chapters[0].Lines)
	}
	if !reflect.DeepEqual(chapters[1].Lines, []string{"Bob left."}) {
		t.Errorf("第二章正文错误: %v", chapters[1].Lines)
	}
}

func TestSegmentDiscardsPreamble(t *testing.T) {
	segmenter := newTestSegmenter(t)

	lines := []string{
		"title page",
		"dedication",
		"Chapter 1",
		"body",
	}

	chapters := segmenter.Segment(lines)
	if len(chapters) != 1 {
		t.Fatalf("期望 1 个章节，得到 %d", len(chapters))
	}
	for _, line := range chapters[0].Lines {
		if line == "title page" || line == "dedication" {
			t.Errorf("第一个标题前的行不应进入任何章节: %q", line)
		}
	}
}

// 分段完整性：所有章节正文按序拼接应精确还原第一个标题之后的非标题行
func TestSegmentCompleteness(t *testing.T) {
	segmenter := newTestSegmenter(t)

	lines := []string{
		"pre",
		"Chapter 1", "a", "b",
		"Interlude", "c",
		"Chapter 2", "d", "e", "f",
		"Epilogue", "g",
	}

	chapters := segmenter.Segment(lines)
	if len(chapters) != 4 {
		t.Fatalf("期望 4 个章节，得到 %d", len(chapters))
	}

	var rebuilt []string
	for _, chapter := range chapters {
		rebuilt = append(rebuilt, chapter.Lines...)
	}
	want := []string{"a", "b", "c", "d", "e", "f", "g"}
	if !reflect.DeepEqual(rebuilt, want) {
		t.Errorf("章节正文拼接结果错误: got %v, want %v", rebuilt, want)
	}
}

func TestSegmentNoHeadings(t *testing.T) {
	segmenter := newTestSegmenter(t)

	chapters := segmenter.Segment([]string{"no heading here", "just prose"})
	if len(chapters) != 0 {
		t.Fatalf("没有标题行时应返回空章节序列，得到 %d 个", len(chapters))
	}
}

func TestSegmentTrailingEmptyChapter(t *testing.T) {
	segmenter := newTestSegmenter(t)

	// 最后一行是标题：该章节正文为空，但仍应被产出
	chapters := segmenter.Segment([]string{"Chapter 1", "body", "Epilogue"})
	if len(chapters) != 2 {
		t.Fatalf("期望 2 个章节，得到 %d", len(chapters))
	}
	if chapters[1].Title != "Epilogue" {
		t.Errorf("尾章标题错误: %q", chapters[1].Title)
	}
	if len(chapters[1].Lines) != 0 {
		t.Errorf("尾章正文应为空，得到 %v", chapters[1].Lines)
	}
}

func TestSegmentHeadingVariants(t *testing.T) {
	segmenter := newTestSegmenter(t)

	tests := []struct {
		line    string
		heading bool
	}{
		{"Chapter 1", true},
		{"  Chapter 42: The End", true},
		{"Prologue", true},
		{"Epilogue", true},
		{"Interlude", true},
		{"Prelude in C", true},
		{"chapter 1", false},      // 区分大小写
		{"In Chapter 1 we", false}, // 必须从行首匹配
		{"Chapters", false},
	}

	for _, tt := range tests {
		chapters := segmenter.Segment([]string{tt.line, "body"})
		got := len(chapters) == 1
		if got != tt.heading {
			t.Errorf("行 %q: 期望标题判定 %v，得到 %v", tt.line, tt.heading, got)
		}
	}
}

func TestSegmentWordCount(t *testing.T) {
	segmenter := newTestSegmenter(t)

	lines := []string{
		"Chapter 1",
		"one two three",
		"",
		"four",
		"Chapter 2",
		"five six",
	}

	chapters := segmenter.Segment(lines)
	if len(chapters) != 2 {
		t.Fatalf("期望 2 个章节，得到 %d", len(chapters))
	}

	// 词数守恒：各章词数之和等于全部正文行的词数
	if chapters[0].WordCount != 4 {
		t.Errorf("第一章词数错误: %d", chapters[0].WordCount)
	}
	if chapters[1].WordCount != 2 {
		t.Errorf("第二章词数错误: %d", chapters[1].WordCount)
	}

	var all []string
	for _, chapter := range chapters {
		all = append(all, chapter.Lines...)
	}
	total := chapters[0].WordCount + chapters[1].WordCount
	if got := models.CountWords(all); got != total {
		t.Errorf("词数守恒被破坏: 拼接计数 %d, 分章求和 %d", got, total)
	}
}

func TestSetPattern(t *testing.T) {
	segmenter := newTestSegmenter(t)

	if err := segmenter.SetPattern(`^第.+章`); err != nil {
		t.Fatalf("替换模式失败: %v", err)
	}

	chapters := segmenter.Segment([]string{"第1章 开端", "正文"})
	if len(chapters) != 1 {
		t.Fatalf("新模式未生效，得到 %d 个章节", len(chapters))
	}

	if err := segmenter.SetPattern(`([bad`); err == nil {
		t.Error("无效模式应返回错误")
	}
}
