// internal/models/character.go
package models

// Character 表示叙事图表中被跟踪的一个角色
// ID 在单次构建中唯一，按声明顺序递增分配，创建后不可变
type Character struct {
	ID      int      `json:"id"`
	Group   int      `json:"group"`
	Name    string   `json:"name"`
	Aliases []string `json:"-"`
}

// NewCharacter 创建角色实例，显示名称取第一个别名
func NewCharacter(id, group int, aliases []string) *Character {
	name := ""
	if len(aliases) > 0 {
		name = aliases[0]
	}

	return &Character{
		ID:      id,
		Group:   group,
		Name:    name,
		Aliases: aliases,
	}
}
