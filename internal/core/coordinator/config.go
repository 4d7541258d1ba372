package coordinator

import (
	"errors"
	"time"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
)

// Config 协调器配置
type Config struct {
	// SyncTimeout 等待 sync_ack 的超时
	SyncTimeout time.Duration

	// MaxConcurrentSyncs SyncAll 的最大并发数
	MaxConcurrentSyncs int

	// DegradedMode 所有来源都不可用时是否合成最小节点集
	DegradedMode bool

	// StatusTimeout 启动快照的查询超时
	StatusTimeout time.Duration
}

// NewConfig 返回默认配置
func NewConfig() Config {
	return Config{
		SyncTimeout:        10 * time.Second,
		MaxConcurrentSyncs: 4,
		DegradedMode:       true,
		StatusTimeout:      5 * time.Second,
	}
}

// ConfigFromUnified 从统一配置创建协调器配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := NewConfig()
	if cfg == nil {
		return c
	}
	c.SyncTimeout = cfg.Sync.SyncTimeout.Duration()
	c.MaxConcurrentSyncs = cfg.Sync.MaxConcurrentSyncs
	c.DegradedMode = cfg.Sync.DegradedMode
	c.StatusTimeout = cfg.Status.Timeout.Duration()
	return c
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.SyncTimeout <= 0 {
		return errors.New("coordinator: sync timeout must be positive")
	}
	if c.MaxConcurrentSyncs <= 0 {
		return errors.New("coordinator: max concurrent syncs must be positive")
	}
	return nil
}
