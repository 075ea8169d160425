// internal/models/scene.go
package models

// Scene 表示一个章节在面板时间轴上的可视化表示
// Start/Duration 以面板为单位，CharacterIDs 与 CharacterNames 按角色ID升序对齐
type Scene struct {
	Title          string   `json:"title"`
	Duration       int      `json:"duration"`
	Start          int      `json:"start"`
	CharacterIDs   []int    `json:"chars"`
	CharacterNames []string `json:"named_chars"`
	ID             int      `json:"id"`
}
