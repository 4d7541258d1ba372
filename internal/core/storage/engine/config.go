package engine

import (
	"os"
	"path/filepath"
	"time"
)

// Config 存储引擎配置
type Config struct {
	// Path 数据库目录（InMemory 时忽略）
	Path string

	// InMemory 内存模式，不落盘
	InMemory bool

	// SyncWrites 每次写入同步到磁盘
	SyncWrites bool

	// Logger 引擎内部日志，nil 表示丢弃
	Logger Logger

	// MemTableSize 内存表大小
	MemTableSize int64

	// ValueLogFileSize 值日志文件大小
	ValueLogFileSize int64

	// BlockCacheSize 块缓存大小
	BlockCacheSize int64

	// GCInterval 值日志 GC 间隔，0 表示禁用
	GCInterval time.Duration

	// GCDiscardRatio GC 丢弃比例
	GCDiscardRatio float64
}

// Logger 引擎日志接口（与 badger.Logger 一致）
type Logger interface {
	Errorf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// DefaultConfig 返回默认配置
//
// 档案与节点缓存的数据量很小，默认值按现场设备的内存预算设置。
func DefaultConfig(path string) *Config {
	return &Config{
		Path:             path,
		SyncWrites:       true,
		MemTableSize:     8 << 20,  // 8MB
		ValueLogFileSize: 64 << 20, // 64MB
		BlockCacheSize:   16 << 20, // 16MB
		GCInterval:       10 * time.Minute,
		GCDiscardRatio:   0.5,
	}
}

// InMemoryConfig 返回内存模式配置
func InMemoryConfig() *Config {
	cfg := DefaultConfig("")
	cfg.InMemory = true
	cfg.SyncWrites = false
	cfg.GCInterval = 0
	return cfg
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Path == "" && !c.InMemory {
		return ErrInvalidConfig
	}
	if c.MemTableSize < 1<<20 { // 最小 1MB
		return ErrInvalidConfig
	}
	if c.ValueLogFileSize < 1<<20 { // 最小 1MB
		return ErrInvalidConfig
	}
	if c.GCInterval > 0 && (c.GCDiscardRatio <= 0 || c.GCDiscardRatio >= 1) {
		return ErrInvalidConfig
	}
	return nil
}

// EnsureDir 确保数据目录存在，并将 Path 转为绝对路径
func (c *Config) EnsureDir() error {
	if c.InMemory {
		return nil
	}
	absPath, err := filepath.Abs(c.Path)
	if err != nil {
		return err
	}
	c.Path = absPath

	return os.MkdirAll(c.Path, 0o700)
}
