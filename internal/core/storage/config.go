package storage

import (
	"fmt"
	"time"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
)

// Config Storage 模块配置
//
// 测试代码使用 t.TempDir() 或 InMemory。
type Config struct {
	// Path BadgerDB 数据库目录
	Path string

	// InMemory 内存模式
	InMemory bool

	// SyncWrites 每次写入同步到磁盘
	SyncWrites bool

	// GCInterval 值日志 GC 间隔，0 表示禁用
	GCInterval time.Duration

	// GCDiscardRatio GC 丢弃比例
	GCDiscardRatio float64
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Path:           config.DefaultStorageConfig().DBPath(),
		SyncWrites:     true,
		GCInterval:     10 * time.Minute,
		GCDiscardRatio: 0.5,
	}
}

// ConfigFromUnified 从统一配置创建 Storage 配置
func ConfigFromUnified(cfg *config.Config) Config {
	storageCfg := DefaultConfig()
	if cfg == nil {
		return storageCfg
	}

	if cfg.Storage.InMemory {
		return storageCfg.WithInMemory()
	}
	if cfg.Storage.DataDir != "" {
		storageCfg.Path = cfg.Storage.DBPath()
	}
	return storageCfg
}

// ToEngineConfig 转换为引擎配置
func (c Config) ToEngineConfig() *engine.Config {
	if c.InMemory {
		return engine.InMemoryConfig()
	}

	engineCfg := engine.DefaultConfig(c.Path)
	engineCfg.SyncWrites = c.SyncWrites
	engineCfg.GCInterval = c.GCInterval
	engineCfg.GCDiscardRatio = c.GCDiscardRatio
	engineCfg.Logger = engineLogger{}
	return engineCfg
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.Path == "" && !c.InMemory {
		return fmt.Errorf("%w: path is required", engine.ErrInvalidConfig)
	}
	if c.GCInterval < 0 {
		return fmt.Errorf("%w: negative gc interval", engine.ErrInvalidConfig)
	}
	return nil
}

// WithPath 设置存储路径
func (c Config) WithPath(path string) Config {
	c.Path = path
	c.InMemory = false
	return c
}

// WithInMemory 切换到内存模式
func (c Config) WithInMemory() Config {
	c.InMemory = true
	c.Path = ""
	c.GCInterval = 0
	return c
}

// WithGC 设置垃圾回收间隔
func (c Config) WithGC(interval time.Duration) Config {
	c.GCInterval = interval
	return c
}

// engineLogger 将 badger 内部日志转发到组件日志
//
// badger 的 Info 级别输出较多，降为 Debug。
type engineLogger struct{}

func (engineLogger) Errorf(format string, args ...interface{}) {
	logger.Error(fmt.Sprintf(format, args...))
}

func (engineLogger) Warningf(format string, args ...interface{}) {
	logger.Warn(fmt.Sprintf(format, args...))
}

func (engineLogger) Infof(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}

func (engineLogger) Debugf(format string, args ...interface{}) {
	logger.Debug(fmt.Sprintf(format, args...))
}
