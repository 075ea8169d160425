// internal/services/scene_service.go
package services

import (
	"math"

	apperrors "github.com/Corphon/NarrativeCharts/internal/errors"
	"github.com/Corphon/NarrativeCharts/internal/models"
)

// PanelBudget 时间轴的固定总宽度（面板数）
const PanelBudget = 500

// SceneService 把章节序列分摊到固定面板预算上，生成场景时间轴
//
// 系数 g ∈ [0,1] 在均匀分配与按词数比例分配之间线性混合：
// g=0 每章等宽，g=1 严格按词数比例
type SceneService struct{}

// NewSceneService 创建场景分摊服务
func NewSceneService() *SceneService {
	return &SceneService{}
}

// BuildScenes 为章节序列计算场景的 start/duration
//
// duration_i = floor(evenShare + unit*words_i)
// start_i 取截断前的浮点累计值再取整，避免逐章截断误差累积，
// 因此 sum(duration) 只近似等于预算，不保证精确相等
func (s *SceneService) BuildScenes(chapters []*models.Chapter, gini float64) ([]*models.Scene, error) {
	if len(chapters) == 0 {
		return nil, apperrors.NewNoChaptersError("没有任何章节，无法分摊面板")
	}

	totalWords := 0
	for _, chapter := range chapters {
		totalWords += chapter.WordCount
	}
	if totalWords == 0 {
		return nil, apperrors.NewEmptyCorpusError("全书词数为零，无法按词数分摊面板")
	}

	evenShare := (1.0 - gini) * PanelBudget / float64(len(chapters))
	proportionalUnit := gini * PanelBudget / float64(totalWords)

	scenes := make([]*models.Scene, 0, len(chapters))
	cumulative := 0.0

	for i, chapter := range chapters {
		raw := evenShare + proportionalUnit*float64(chapter.WordCount)

		present := chapter.PresentCharacters()
		ids := make([]int, len(present))
		names := make([]string, len(present))
		for j, c := range present {
			ids[j] = c.ID
			names[j] = c.Name
		}

		scenes = append(scenes, &models.Scene{
			Title:          chapter.Title,
			Duration:       int(math.Floor(raw)),
			Start:          int(math.Floor(cumulative)),
			CharacterIDs:   ids,
			CharacterNames: names,
			ID:             i,
		})

		cumulative += raw
	}

	return scenes, nil
}
