// internal/models/chapter.go
package models

import (
	"sort"
	"strings"
)

// CharacterOccurrence 记录一个角色在某章节中的出现情况
type CharacterOccurrence struct {
	Character *Character `json:"-"`
	Count     int        `json:"count"`
}

// Chapter 表示一个章节，持有章节正文和角色出现统计
// WordCount 在构建时计算并缓存，章节建成后不再变化
type Chapter struct {
	Title       string                          `json:"title"`
	Lines       []string                        `json:"-"`
	WordCount   int                             `json:"word_count"`
	Occurrences map[string]*CharacterOccurrence `json:"-"`
}

// NewChapter 创建章节并立即计算词数
func NewChapter(title string, lines []string) *Chapter {
	return &Chapter{
		Title:       title,
		Lines:       lines,
		WordCount:   CountWords(lines),
		Occurrences: make(map[string]*CharacterOccurrence),
	}
}

// CountWords 按空白分隔统计一组文本行的总词数
func CountWords(lines []string) int {
	total := 0
	for _, line := range lines {
		total += len(strings.Fields(line))
	}
	return total
}

// AddOccurrence 记录角色在本章出现一次
func (ch *Chapter) AddOccurrence(c *Character) {
	if occ, exists := ch.Occurrences[c.Name]; exists {
		occ.Count++
		return
	}

	ch.Occurrences[c.Name] = &CharacterOccurrence{
		Character: c,
		Count:     1,
	}
}

// PresentCharacters 返回本章出现过的角色（计数 ≥ 1），按ID升序
func (ch *Chapter) PresentCharacters() []*Character {
	characters := make([]*Character, 0, len(ch.Occurrences))
	for _, occ := range ch.Occurrences {
		characters = append(characters, occ.Character)
	}

	sort.Slice(characters, func(i, j int) bool {
		return characters[i].ID < characters[j].ID
	})

	return characters
}

// ChapterSummary 章节的调试视图，用于统计接口
type ChapterSummary struct {
	Title      string         `json:"title"`
	NumLines   int            `json:"num_lines"`
	WordCount  int            `json:"word_count"`
	Characters map[string]int `json:"characters"`
}

// Summary 生成章节摘要
func (ch *Chapter) Summary() *ChapterSummary {
	counts := make(map[string]int, len(ch.Occurrences))
	for name, occ := range ch.Occurrences {
		counts[name] = occ.Count
	}

	return &ChapterSummary{
		Title:      ch.Title,
		NumLines:   len(ch.Lines),
		WordCount:  ch.WordCount,
		Characters: counts,
	}
}
