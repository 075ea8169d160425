// internal/services/segmenter_service.go
package services

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/Corphon/NarrativeCharts/internal/models"
)

// SegmenterService 按章节标题模式把文本行序列切分为章节
// 模式可在运行时替换（设置接口），替换对后续任务生效
type SegmenterService struct {
	mu      sync.RWMutex
	pattern *regexp.Regexp
}

// NewSegmenterService 创建分章服务，模式无效时返回错误
func NewSegmenterService(pattern string) (*SegmenterService, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("编译章节标题模式失败 %q: %w", pattern, err)
	}

	return &SegmenterService{pattern: re}, nil
}

// Pattern 返回当前使用的章节标题模式
func (s *SegmenterService) Pattern() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pattern.String()
}

// SetPattern 替换章节标题模式
func (s *SegmenterService) SetPattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("编译章节标题模式失败 %q: %w", pattern, err)
	}

	s.mu.Lock()
	s.pattern = re
	s.mu.Unlock()
	return nil
}

// Segment 将文本行切分为章节序列
// 两状态扫描：未开章时遇到标题行开章，已开章时遇到标题行先收尾再开新章
// 第一个标题之前的行不属于任何章节，直接丢弃
// 章节标题行本身不计入正文；输入结束时收尾当前章节，即使正文为空
// 全文没有任何标题行时返回空序列，由调用方判定为 NoChaptersFound
func (s *SegmenterService) Segment(lines []string) []*models.Chapter {
	s.mu.RLock()
	re := s.pattern
	s.mu.RUnlock()

	var chapters []*models.Chapter

	var currentTitle string
	var currentLines []string
	open := false

	for _, line := range lines {
		if title, ok := matchHeading(re, line); ok {
			if open {
				chapters = append(chapters, models.NewChapter(currentTitle, currentLines))
			}
			currentTitle = title
			currentLines = nil
			open = true
			continue
		}

		if open {
			currentLines = append(currentLines, line)
		}
	}

	if open {
		chapters = append(chapters, models.NewChapter(currentTitle, currentLines))
	}

	return chapters
}

// matchHeading 判断一行是否为章节标题，是则返回完整匹配文本
// 匹配必须从行首开始，空匹配不算标题
func matchHeading(re *regexp.Regexp, line string) (string, bool) {
	loc := re.FindStringIndex(line)
	if loc == nil || loc[0] != 0 || loc[1] == 0 {
		return "", false
	}
	return line[:loc[1]], true
}
