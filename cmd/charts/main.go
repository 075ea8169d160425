// cmd/charts/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Corphon/NarrativeCharts/internal/config"
	"github.com/Corphon/NarrativeCharts/internal/models"
	"github.com/Corphon/NarrativeCharts/internal/services"
	"github.com/Corphon/NarrativeCharts/internal/storage"
	"github.com/Corphon/NarrativeCharts/internal/utils"
)

const (
	bookArg           = "--book"
	characterGroupArg = "--character_group="
	filenameArg       = "--filename="
	titleArg          = "--title="
	giniArg           = "--gini="
	outputArg         = "--output="
)

func usage() {
	fmt.Fprintf(os.Stderr, `NarrativeCharts 批量图表生成工具

用法:
  charts [--gini=0.5] [--output=out] \
      --book --filename=book1.txt --title="Book One" \
             --character_group="Alice" --character_group="Clark Kent|Superman" \
      --book --filename=book2.txt --title="Book Two" \
             --character_group="Alice,Bob"

说明:
  --book             开始一本新书的参数段
  --filename=        书籍文本文件路径
  --title=           书籍标题
  --character_group= 一组同色角色：逗号分隔组内多个角色，竖线分隔同一角色的别名
  --gini=            分摊系数，0=每章等宽，1=按词数比例（默认取配置）
  --output=          输出目录（默认 data/exports）
`)
}

func main() {
	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	gini := baseConfig.GiniCoeff
	outputDir := ""

	// 把每本书的参数段切分出来单独处理
	var globalArgs []string
	var bookArgSets [][]string
	var current []string
	inBook := false
	for _, arg := range os.Args[1:] {
		if arg == bookArg {
			if inBook {
				bookArgSets = append(bookArgSets, current)
			}
			current = nil
			inBook = true
			continue
		}
		if inBook {
			current = append(current, arg)
		} else {
			globalArgs = append(globalArgs, arg)
		}
	}
	if inBook {
		bookArgSets = append(bookArgSets, current)
	}

	for _, arg := range globalArgs {
		switch {
		case strings.HasPrefix(arg, giniArg):
			parsed, err := strconv.ParseFloat(arg[len(giniArg):], 64)
			if err != nil || parsed < 0 || parsed > 1 {
				log.Fatalf("无效的系数: %s（必须在 [0,1] 范围内）", arg)
			}
			gini = parsed
		case strings.HasPrefix(arg, outputArg):
			outputDir = arg[len(outputArg):]
		case arg == "-h" || arg == "--help":
			usage()
			return
		default:
			log.Fatalf("未知参数: %s", arg)
		}
	}

	if len(bookArgSets) == 0 {
		usage()
		os.Exit(1)
	}

	specs := make([]*models.BookSpec, 0, len(bookArgSets))
	for _, args := range bookArgSets {
		spec := &models.BookSpec{}
		nextGroup := 0
		for _, arg := range args {
			switch {
			case strings.HasPrefix(arg, characterGroupArg):
				body := arg[len(characterGroupArg):]
				if addCharacterGroup(spec, nextGroup, body) {
					nextGroup++
				}
			case strings.HasPrefix(arg, titleArg):
				spec.Title = arg[len(titleArg):]
			case strings.HasPrefix(arg, filenameArg):
				spec.Filename = arg[len(filenameArg):]
			default:
				log.Fatalf("未知书籍参数: %s", arg)
			}
		}
		specs = append(specs, spec)
	}

	if err := run(baseConfig, specs, gini, outputDir); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// addCharacterGroup 把一个角色组参数并入书籍规格
// 组内所有成员共享同一个分组索引（同色渲染）
// 返回是否确实加入了成员（全空的参数不占用分组索引）
func addCharacterGroup(spec *models.BookSpec, group int, body string) bool {
	members := parseCharacterGroup(body)
	for _, aliases := range members {
		spec.CharacterGroups = append(spec.CharacterGroups, aliases)
		spec.GroupIndexes = append(spec.GroupIndexes, group)
	}
	return len(members) > 0
}

// parseCharacterGroup 解析一个角色组参数的成员列表
// 逗号分隔组内多个角色，竖线分隔同一角色的别名
func parseCharacterGroup(body string) [][]string {
	var groups [][]string
	for _, member := range strings.Split(body, ",") {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		aliases := strings.Split(member, "|")
		for i := range aliases {
			aliases[i] = strings.TrimSpace(aliases[i])
		}
		groups = append(groups, aliases)
	}
	return groups
}

// run 执行批处理并写出JSON与HTML产物
func run(baseConfig *config.Config, specs []*models.BookSpec, gini float64, outputDir string) error {
	logFile := filepath.Join(baseConfig.LogDir, fmt.Sprintf("charts_%s.log", time.Now().Format("2006-01-02")))
	if err := utils.InitLogger(logFile); err != nil {
		log.Printf("⚠️ 无法初始化结构化日志: %v", err)
	}

	fileStorage, err := storage.NewFileStorage(baseConfig.DataDir)
	if err != nil {
		return fmt.Errorf("初始化文件存储失败: %w", err)
	}

	segmenter, err := services.NewSegmenterService(baseConfig.ChapterPattern)
	if err != nil {
		return fmt.Errorf("初始化分章服务失败: %w", err)
	}

	// 命令行给出的文件路径按当前目录解释，而不是存储根目录
	for _, spec := range specs {
		if spec.Filename != "" {
			if abs, err := filepath.Abs(spec.Filename); err == nil {
				spec.Filename = abs
			}
		}
	}

	bookService := services.NewBookService(segmenter, fileStorage)
	chartService := services.NewChartService(bookService, services.NewProgressService(), services.NewStatsService(), fileStorage)
	exportService := services.NewExportService(chartService, fileStorage, baseConfig.TemplatesDir)

	result, err := chartService.GenerateCharts(specs, gini, nil)
	if err != nil {
		return err
	}

	if outputDir == "" {
		outputDir = filepath.Join(baseConfig.DataDir, "exports")
	}
	// 存储层以相对路径为存储根目录下的路径，这里统一转成绝对路径
	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("解析输出目录失败: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	// JSON 结果
	jsonPath := filepath.Join(outputDir, "narrative_charts.json")
	if err := fileStorage.SaveJSON(jsonPath, result); err != nil {
		return err
	}
	log.Printf("✅ JSON 输出: %s", jsonPath)

	// HTML 图表页面
	html, err := exportService.RenderChartPage(result)
	if err != nil {
		return err
	}
	htmlPath := filepath.Join(outputDir, "narrative_charts.html")
	if _, _, err := fileStorage.WriteFile(htmlPath, html); err != nil {
		return err
	}
	log.Printf("✅ HTML 输出: %s", htmlPath)

	for _, book := range result.Books {
		log.Printf("📖 %s: %d 章 %d 场景", book.Title, len(book.Chapters), len(book.Scenes))
	}

	// 单本书的失败不阻塞其他书，最后统一汇报并以非零码退出
	if len(result.Failures) > 0 {
		for _, failure := range result.Failures {
			log.Printf("❌ 书籍处理失败 [%s] %s: %s", failure.Code, failure.Title, failure.Message)
		}
		return fmt.Errorf("共 %d 本书处理失败", len(result.Failures))
	}

	return nil
}
