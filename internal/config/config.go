// internal/config/config.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
)

// DefaultChapterPattern 默认章节标题模式，不同语料可通过 CHAPTER_PATTERN 覆盖
const DefaultChapterPattern = `^\s*(Epilogue|Prelude|Prologue|Interlude|Chapter\s+\d+).*`

// 当前配置的单例实例
var (
	currentConfig *AppConfig
	configMutex   sync.RWMutex
	configFile    string
)

// AppConfig 包含应用程序的所有配置
type AppConfig struct {
	// 基础配置
	Port         string `json:"port"`
	DataDir      string `json:"data_dir"`
	StaticDir    string `json:"static_dir"`
	TemplatesDir string `json:"templates_dir"`
	LogDir       string `json:"log_dir"`
	DebugMode    bool   `json:"debug_mode"`

	// 图表生成相关配置
	ChapterPattern string  `json:"chapter_pattern"`
	GiniCoeff      float64 `json:"gini_coeff"`
}

// Config 存储应用配置
type Config struct {
	Port         string
	DataDir      string
	StaticDir    string
	TemplatesDir string
	LogDir       string
	DebugMode    bool

	ChapterPattern string
	GiniCoeff      float64
}

// Load 从环境变量加载配置
func Load() (*Config, error) {
	// 尝试加载.env文件（可选）
	godotenv.Load()

	gini, err := getEnvFloat("GINI_COEFF", 1.0)
	if err != nil {
		return nil, err
	}

	// 创建配置
	config := &Config{
		Port:           getEnv("PORT", "8080"),
		DataDir:        getEnvPath("DATA_DIR", "data"),
		StaticDir:      getEnvPath("STATIC_DIR", "static"),
		TemplatesDir:   getEnv("TEMPLATES_DIR", "web/templates"),
		LogDir:         getEnvPath("LOG_DIR", "logs"),
		DebugMode:      getEnvBool("DEBUG_MODE", true),
		ChapterPattern: getEnv("CHAPTER_PATTERN", DefaultChapterPattern),
		GiniCoeff:      gini,
	}

	// 验证章节模式可编译
	if _, err := regexp.Compile(config.ChapterPattern); err != nil {
		return nil, fmt.Errorf("章节标题模式无效 %q: %w", config.ChapterPattern, err)
	}

	// 验证系数范围
	if config.GiniCoeff < 0 || config.GiniCoeff > 1 {
		return nil, fmt.Errorf("GINI_COEFF 必须在 [0,1] 范围内，当前值: %v", config.GiniCoeff)
	}

	return config, nil
}

// getEnv 获取环境变量，如果不存在则返回默认值
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvPath 获取环境变量表示的路径，如果不存在则返回默认值
func getEnvPath(key, defaultValue string) string {
	path := getEnv(key, defaultValue)

	// 确保目录存在
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = os.MkdirAll(path, 0755)
		if err != nil {
			fmt.Printf("警告: 创建目录失败 %s: %v\n", path, err)
		}
	}

	return path
}

// getEnvBool 获取布尔类型环境变量
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

// getEnvFloat 获取浮点类型环境变量，显式设置的值必须可解析
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("环境变量 %s 不是有效浮点数: %q", key, value)
	}
	return parsed, nil
}

// InitConfig 初始化配置管理器
func InitConfig(dataDir string) error {
	configFile = filepath.Join(dataDir, "config.json")

	// 加载基础配置
	baseConfig, err := Load()
	if err != nil {
		return err
	}

	// 创建初始配置
	configMutex.Lock()
	defer configMutex.Unlock()

	currentConfig = &AppConfig{
		Port:           baseConfig.Port,
		DataDir:        baseConfig.DataDir,
		StaticDir:      baseConfig.StaticDir,
		TemplatesDir:   baseConfig.TemplatesDir,
		LogDir:         baseConfig.LogDir,
		DebugMode:      baseConfig.DebugMode,
		ChapterPattern: baseConfig.ChapterPattern,
		GiniCoeff:      baseConfig.GiniCoeff,
	}

	// 尝试从文件加载已保存的配置
	if _, err := os.Stat(configFile); !os.IsNotExist(err) {
		data, err := os.ReadFile(configFile)
		if err == nil {
			var savedConfig AppConfig
			if json.Unmarshal(data, &savedConfig) == nil {
				// 合并配置：保留文件中的图表设置，基础配置以环境为准
				savedConfig.Port = baseConfig.Port
				savedConfig.DataDir = baseConfig.DataDir
				savedConfig.StaticDir = baseConfig.StaticDir
				savedConfig.TemplatesDir = baseConfig.TemplatesDir
				savedConfig.LogDir = baseConfig.LogDir
				savedConfig.DebugMode = baseConfig.DebugMode

				// 文件中的图表设置必须仍然有效，否则回退到基础配置
				if _, err := regexp.Compile(savedConfig.ChapterPattern); err != nil {
					savedConfig.ChapterPattern = baseConfig.ChapterPattern
				}
				if savedConfig.GiniCoeff < 0 || savedConfig.GiniCoeff > 1 {
					savedConfig.GiniCoeff = baseConfig.GiniCoeff
				}

				currentConfig = &savedConfig
			}
		}
	}

	// 保存初始配置到文件
	return SaveConfig()
}

// GetCurrentConfig 返回当前配置的副本
func GetCurrentConfig() *AppConfig {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if currentConfig == nil {
		// 紧急情况，返回一个基本配置
		baseConfig, _ := Load()
		if baseConfig == nil {
			return &AppConfig{
				Port:           "8080",
				ChapterPattern: DefaultChapterPattern,
				GiniCoeff:      1.0,
			}
		}
		return &AppConfig{
			Port:           baseConfig.Port,
			DataDir:        baseConfig.DataDir,
			StaticDir:      baseConfig.StaticDir,
			TemplatesDir:   baseConfig.TemplatesDir,
			LogDir:         baseConfig.LogDir,
			DebugMode:      baseConfig.DebugMode,
			ChapterPattern: baseConfig.ChapterPattern,
			GiniCoeff:      baseConfig.GiniCoeff,
		}
	}

	// 返回配置的副本
	configCopy := *currentConfig
	return &configCopy
}

// UpdateChartConfig 更新图表生成设置
func UpdateChartConfig(chapterPattern string, giniCoeff float64) error {
	if _, err := regexp.Compile(chapterPattern); err != nil {
		return fmt.Errorf("章节标题模式无效: %w", err)
	}
	if giniCoeff < 0 || giniCoeff > 1 {
		return fmt.Errorf("系数必须在 [0,1] 范围内，当前值: %v", giniCoeff)
	}

	configMutex.Lock()
	defer configMutex.Unlock()

	if currentConfig == nil {
		return fmt.Errorf("配置系统未初始化")
	}

	currentConfig.ChapterPattern = chapterPattern
	currentConfig.GiniCoeff = giniCoeff

	return SaveConfig()
}

// SaveConfig 保存当前配置到文件
func SaveConfig() error {
	if currentConfig == nil {
		return fmt.Errorf("没有配置可保存")
	}

	// 确保目录存在
	dir := filepath.Dir(configFile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	// 序列化并保存
	data, err := json.MarshalIndent(currentConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	return os.WriteFile(configFile, data, 0644)
}
