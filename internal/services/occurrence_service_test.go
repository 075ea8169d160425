// internal/services/occurrence_service_test.go
package services

import (
	"testing"

	"github.com/Corphon/NarrativeCharts/internal/models"
)

func TestDetectCountsPerLine(t *testing.T) {
	detector := NewOccurrenceService()
	alice := models.NewCharacter(0, 0, []string{"Alice"})

	chapter := models.NewChapter("Chapter 1", []string{
		"Alice went home.",
		"Alice met Alice in the mirror.", // 行内重复不累计
		"Nobody here.",
	})

	detector.Detect([]*models.Chapter{chapter}, []*models.Character{alice})

	occ, exists := chapter.Occurrences["Alice"]
	if !exists {
		t.Fatal("应记录 Alice 的出现")
	}
	// 计数单位是（行，别名）对：两行命中即计 2
	if occ.Count != 2 {
		t.Errorf("期望计数 2，得到 %d", occ.Count)
	}
}

// 子串匹配契约：别名作为无关词的子串同样命中，这是既定行为
func TestDetectSubstringContract(t *testing.T) {
	detector := NewOccurrenceService()

	tests := []struct {
		name  string
		line  string
		count int
	}{
		{"精确出现", "Al went home.", 1},
		{"子串命中", "Alice went home.", 1},
		{"大小写敏感", "al went home.", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			al := models.NewCharacter(0, 0, []string{"Al"})
			chapter := models.NewChapter("Chapter 1", []string{tt.line})

			detector.Detect([]*models.Chapter{chapter}, []*models.Character{al})

			got := 0
			if occ, exists := chapter.Occurrences["Al"]; exists {
				got = occ.Count
			}
			if got != tt.count {
				t.Errorf("行 %q: 期望计数 %d，得到 %d", tt.line, tt.count, got)
			}
		})
	}
}

func TestDetectMultipleAliases(t *testing.T) {
	detector := NewOccurrenceService()
	clark := models.NewCharacter(0, 0, []string{"Clark Kent", "Superman"})

	chapter := models.NewChapter("Chapter 1", []string{
		"Clark Kent entered.",
		"Superman flew away.",
		"Clark Kent, also known as Superman.", // 同一行命中两个别名，计 2
	})

	detector.Detect([]*models.Chapter{chapter}, []*models.Character{clark})

	occ := chapter.Occurrences["Clark Kent"]
	if occ == nil {
		t.Fatal("应以显示名称记录出现")
	}
	if occ.Count != 4 {
		t.Errorf("期望计数 4，得到 %d", occ.Count)
	}
}

func TestPresentCharactersSortedByID(t *testing.T) {
	detector := NewOccurrenceService()
	a := models.NewCharacter(2, 0, []string{"Aaron"})
	b := models.NewCharacter(0, 0, []string{"Beth"})
	c := models.NewCharacter(1, 0, []string{"Cody"})

	chapter := models.NewChapter("Chapter 1", []string{"Cody saw Beth and Aaron."})
	detector.Detect([]*models.Chapter{chapter}, []*models.Character{a, b, c})

	present := chapter.PresentCharacters()
	if len(present) != 3 {
		t.Fatalf("期望 3 个在场角色，得到 %d", len(present))
	}
	for i := 1; i < len(present); i++ {
		if present[i-1].ID >= present[i].ID {
			t.Errorf("在场角色应按 ID 升序: %v", []int{present[0].ID, present[1].ID, present[2].ID})
		}
	}
}

func TestDetectAbsentCharacter(t *testing.T) {
	detector := NewOccurrenceService()
	ghost := models.NewCharacter(0, 0, []string{"Ghost"})

	chapter := models.NewChapter("Chapter 1", []string{"Nothing happened."})
	detector.Detect([]*models.Chapter{chapter}, []*models.Character{ghost})

	if len(chapter.Occurrences) != 0 {
		t.Errorf("未出现的角色不应有记录: %v", chapter.Occurrences)
	}
}
