// internal/services/occurrence_service.go
package services

import (
	"strings"

	"github.com/Corphon/NarrativeCharts/internal/models"
)

// OccurrenceService 扫描各章节正文，统计每个角色的出现情况
//
// 匹配是字面的、区分大小写的子串包含，不感知词边界：
// 别名 "Al" 会命中 "Alice" 中的子串。调用方通过别名的长短控制匹配精度
type OccurrenceService struct{}

// NewOccurrenceService 创建出现检测服务
func NewOccurrenceService() *OccurrenceService {
	return &OccurrenceService{}
}

// Detect 就地标注每个章节的角色出现信息
// 计数单位是（行，别名）对：某别名在某行出现即记一次，行内重复不累计
func (s *OccurrenceService) Detect(chapters []*models.Chapter, characters []*models.Character) {
	for _, chapter := range chapters {
		for _, line := range chapter.Lines {
			for _, character := range characters {
				for _, alias := range character.Aliases {
					if alias == "" {
						continue
					}
					if strings.Contains(line, alias) {
						chapter.AddOccurrence(character)
					}
				}
			}
		}
	}
}
