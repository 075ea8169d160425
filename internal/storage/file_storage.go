// internal/storage/file_storage.go
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/Corphon/NarrativeCharts/internal/errors"
)

// FileStorage 提供文件存储服务：读取书籍文本来源，保存图表结果与导出产物
type FileStorage struct {
	BaseDir string

	// 并发控制：文件级别锁 path -> *sync.RWMutex
	fileLocks sync.Map

	// 书籍文本的简单缓存，大文件重复处理时避免反复读盘
	cache       map[string]*cacheEntry
	cacheMutex  sync.RWMutex
	cacheExpiry time.Duration
}

type cacheEntry struct {
	lines     []string
	timestamp time.Time
}

// NewFileStorage 创建文件存储服务
func NewFileStorage(baseDir string) (*FileStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	return &FileStorage{
		BaseDir:     baseDir,
		cache:       make(map[string]*cacheEntry),
		cacheExpiry: 5 * time.Minute,
	}, nil
}

// getLock 获取指定路径的锁
func (fs *FileStorage) getLock(path string) *sync.RWMutex {
	lock, _ := fs.fileLocks.LoadOrStore(path, &sync.RWMutex{})
	return lock.(*sync.RWMutex)
}

// resolve 将相对路径解析到存储根目录下，绝对路径原样使用
func (fs *FileStorage) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(fs.BaseDir, path)
}

// ReadLines 按行读取一个书籍文本文件
// 读取失败时返回 SourceUnreadable 错误，由调用方决定该书的处理是否中止
func (fs *FileStorage) ReadLines(path string) ([]string, error) {
	fullPath := fs.resolve(path)

	// 先查缓存
	fs.cacheMutex.RLock()
	if entry, ok := fs.cache[fullPath]; ok && time.Since(entry.timestamp) < fs.cacheExpiry {
		fs.cacheMutex.RUnlock()
		return entry.lines, nil
	}
	fs.cacheMutex.RUnlock()

	lock := fs.getLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, apperrors.NewSourceUnreadableError(fmt.Sprintf("无法读取书籍文本: %s", path), err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	// 小说单行可能很长，放宽扫描缓冲
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewSourceUnreadableError(fmt.Sprintf("读取书籍文本失败: %s", path), err)
	}

	fs.cacheMutex.Lock()
	fs.cache[fullPath] = &cacheEntry{lines: lines, timestamp: time.Now()}
	fs.cacheMutex.Unlock()

	return lines, nil
}

// SaveJSON 将数据序列化为带缩进的JSON并写入存储目录
func (fs *FileStorage) SaveJSON(path string, data interface{}) error {
	fullPath := fs.resolve(path)

	lock := fs.getLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化数据失败: %w", err)
	}

	// 先写临时文件再改名，避免写入中断产生半截文件
	tempPath := fullPath + ".tmp"
	if err := os.WriteFile(tempPath, bytes, 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}

	return os.Rename(tempPath, fullPath)
}

// LoadJSON 从存储目录读取JSON并反序列化
func (fs *FileStorage) LoadJSON(path string, out interface{}) error {
	fullPath := fs.resolve(path)

	lock := fs.getLock(fullPath)
	lock.RLock()
	defer lock.RUnlock()

	bytes, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("文件不存在: %s", path), err)
		}
		return fmt.Errorf("读取文件失败: %w", err)
	}

	return json.Unmarshal(bytes, out)
}

// WriteFile 将文本内容写入存储目录，返回完整路径与字节数
func (fs *FileStorage) WriteFile(path string, content string) (string, int64, error) {
	fullPath := fs.resolve(path)

	lock := fs.getLock(fullPath)
	lock.Lock()
	defer lock.Unlock()

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", 0, fmt.Errorf("创建目录失败: %w", err)
	}

	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		return "", 0, fmt.Errorf("写入文件失败: %w", err)
	}

	return fullPath, int64(len(content)), nil
}

// Exists 检查文件是否存在
func (fs *FileStorage) Exists(path string) bool {
	_, err := os.Stat(fs.resolve(path))
	return err == nil
}

// ListFiles 列出存储目录下某个子目录中指定后缀的文件名
func (fs *FileStorage) ListFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(fs.resolve(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取目录失败: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if suffix == "" || strings.HasSuffix(entry.Name(), suffix) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// InvalidateCache 清除某个来源文件的缓存（文件被外部更新时使用）
func (fs *FileStorage) InvalidateCache(path string) {
	fullPath := fs.resolve(path)

	fs.cacheMutex.Lock()
	delete(fs.cache, fullPath)
	fs.cacheMutex.Unlock()
}
