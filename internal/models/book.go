// internal/models/book.go
package models

import "time"

// BookSpec 描述一本待处理的书：标题、文本来源和角色分组
// SourceLines 与 Filename 二选一，SourceLines 优先
//
// CharacterGroups 每项是一个角色的别名序列。缺省时分组索引取角色在
// 列表中的位置；GroupIndexes 非空时逐项指定分组索引，多个角色指向
// 同一索引即共享一个视觉分组（同色渲染），长度必须与 CharacterGroups 一致
type BookSpec struct {
	Title           string     `json:"title"`
	Filename        string     `json:"filename,omitempty"`
	SourceLines     []string   `json:"source_lines,omitempty"`
	CharacterGroups [][]string `json:"character_groups"`
	GroupIndexes    []int      `json:"group_indexes,omitempty"`
}

// HasSource 判断是否提供了文本来源
func (s *BookSpec) HasSource() bool {
	return len(s.SourceLines) > 0 || s.Filename != ""
}

// Book 表示一本处理完成的书：角色集、章节序列和场景时间轴
type Book struct {
	Title      string       `json:"title"`
	Characters []*Character `json:"characters"`
	Chapters   []*Chapter   `json:"-"`
	Scenes     []*Scene     `json:"scenes"`
	GiniCoeff  float64      `json:"-"`
}

// WordCount 返回全书各章节词数之和
func (b *Book) WordCount() int {
	total := 0
	for _, ch := range b.Chapters {
		total += ch.WordCount
	}
	return total
}

// BookFailure 记录批处理中单本书的失败，不影响其他书
type BookFailure struct {
	Title   string `json:"title"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BookStats 单本书的统计视图
// 在生成时计算并随结果持久化：章节正文不落盘，重启后无法重算
type BookStats struct {
	Title             string            `json:"title"`
	ChapterCount      int               `json:"chapter_count"`
	WordCount         int               `json:"word_count"`
	CharacterCount    int               `json:"character_count"`
	ChapterSummaries  []*ChapterSummary `json:"chapters"`
	CharacterPresence map[string]int    `json:"character_presence"` // 角色名 -> 出现的章节数
}

// ChartResult 一次批处理的完整输出，交给渲染层序列化
type ChartResult struct {
	TaskID    string        `json:"task_id,omitempty"`
	Panels    int           `json:"panels"`
	GiniCoeff float64       `json:"gini_coeff"`
	Books     []*Book       `json:"books"`
	Stats     []*BookStats  `json:"book_stats,omitempty"`
	Failures  []BookFailure `json:"failures,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ExportResult 表示一次导出的产物
type ExportResult struct {
	TaskID    string    `json:"task_id"`
	Format    string    `json:"format"`
	FilePath  string    `json:"file_path"`
	Content   string    `json:"content"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}
