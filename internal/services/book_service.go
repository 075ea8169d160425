// internal/services/book_service.go
package services

import (
	"fmt"

	apperrors "github.com/Corphon/NarrativeCharts/internal/errors"
	"github.com/Corphon/NarrativeCharts/internal/models"
	"github.com/Corphon/NarrativeCharts/internal/storage"
)

// BookService 按依赖顺序编排单本书的完整处理管线：
// 角色注册 → 分章 → 出现检测 → 面板分摊
// 自身不含算法，任何上游失败都立即中止该书的处理
type BookService struct {
	Segmenter  *SegmenterService
	Occurrence *OccurrenceService
	Scenes     *SceneService
	Storage    *storage.FileStorage
}

// NewBookService 创建书籍装配服务
func NewBookService(segmenter *SegmenterService, fileStorage *storage.FileStorage) *BookService {
	return &BookService{
		Segmenter:  segmenter,
		Occurrence: NewOccurrenceService(),
		Scenes:     NewSceneService(),
		Storage:    fileStorage,
	}
}

// ValidateSpec 检查书籍规格的必填字段
// 缺失不再静默放过：空标题、无文本来源或无角色分组都是显式错误
func (s *BookService) ValidateSpec(spec *models.BookSpec) error {
	if spec.Title == "" {
		return apperrors.NewMissingBookFieldError("书籍规格缺少标题")
	}
	if !spec.HasSource() {
		return apperrors.NewMissingBookFieldError(fmt.Sprintf("书籍 %q 缺少文本来源（filename 或 source_lines）", spec.Title))
	}
	if len(spec.CharacterGroups) == 0 {
		return apperrors.NewMissingBookFieldError(fmt.Sprintf("书籍 %q 缺少角色分组", spec.Title))
	}
	if len(spec.GroupIndexes) != 0 && len(spec.GroupIndexes) != len(spec.CharacterGroups) {
		return apperrors.NewValidationError(fmt.Sprintf("书籍 %q 的分组索引数量 (%d) 与角色数量 (%d) 不一致",
			spec.Title, len(spec.GroupIndexes), len(spec.CharacterGroups)), nil)
	}
	return nil
}

// AssembleBook 处理一本书，生成可序列化的 Book 结构
// 每本书使用独立的角色注册表，ID 分配只取决于声明顺序
func (s *BookService) AssembleBook(spec *models.BookSpec, gini float64) (*models.Book, error) {
	if err := s.ValidateSpec(spec); err != nil {
		return nil, err
	}

	lines := spec.SourceLines
	if len(lines) == 0 {
		var err error
		lines, err = s.Storage.ReadLines(spec.Filename)
		if err != nil {
			return nil, err
		}
	}

	registry := NewCharacterService()
	characters := registry.BuildCharacters(spec.CharacterGroups, spec.GroupIndexes)

	chapters := s.Segmenter.Segment(lines)
	if len(chapters) == 0 {
		return nil, apperrors.NewNoChaptersError(fmt.Sprintf("书籍 %q 没有匹配到任何章节标题", spec.Title))
	}

	s.Occurrence.Detect(chapters, characters)

	scenes, err := s.Scenes.BuildScenes(chapters, gini)
	if err != nil {
		return nil, err
	}

	return &models.Book{
		Title:      spec.Title,
		Characters: characters,
		Chapters:   chapters,
		Scenes:     scenes,
		GiniCoeff:  gini,
	}, nil
}
