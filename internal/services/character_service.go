// internal/services/character_service.go
package services

import (
	"github.com/Corphon/NarrativeCharts/internal/models"
)

// CharacterService 是按书构建角色集的注册表
// ID 计数器的作用域严格限于单个实例，多本书并行处理互不干扰
type CharacterService struct {
	nextID     int
	characters []*models.Character
}

// NewCharacterService 创建一个空的角色注册表
func NewCharacterService() *CharacterService {
	return &CharacterService{}
}

// Register 注册一个角色：aliases 为其全部别名，第一个是显示名称
// group 为该角色的视觉分组索引，ID 按注册顺序分配
func (s *CharacterService) Register(group int, aliases []string) *models.Character {
	c := models.NewCharacter(s.nextID, group, aliases)
	s.nextID++
	s.characters = append(s.characters, c)
	return c
}

// BuildCharacters 从角色分组规格构建完整角色集
// 每个规格是一个角色的别名序列。groupIndexes 为空时分组索引取规格
// 在输入中的位置；非空时逐项取显式索引（长度须与 groups 一致），
// 多个角色可共享一个分组。空规格直接跳过，不占用ID
func (s *CharacterService) BuildCharacters(groups [][]string, groupIndexes []int) []*models.Character {
	for i, aliases := range groups {
		if len(aliases) == 0 {
			continue
		}
		group := i
		if len(groupIndexes) != 0 {
			group = groupIndexes[i]
		}
		s.Register(group, aliases)
	}
	return s.characters
}

// Characters 返回已注册的全部角色，按声明顺序
func (s *CharacterService) Characters() []*models.Character {
	return s.characters
}
