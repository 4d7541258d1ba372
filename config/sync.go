package config

import (
	"errors"
	"time"
)

// SyncConfig 同步协调配置
type SyncConfig struct {
	// SyncTimeout 等待 sync_ack 的超时
	SyncTimeout Duration `json:"sync_timeout"`

	// MaxConcurrentSyncs SyncAll 的最大并发数
	MaxConcurrentSyncs int `json:"max_concurrent_syncs"`

	// PeerOfflineAfter 超过该时长未见的节点被置为离线
	PeerOfflineAfter Duration `json:"peer_offline_after"`

	// SweepInterval 存活扫描间隔
	SweepInterval Duration `json:"sweep_interval"`

	// DegradedMode 连接与缓存都不可用时是否合成最小节点集
	DegradedMode bool `json:"degraded_mode"`
}

// DefaultSyncConfig 返回默认同步配置
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		SyncTimeout:        Duration(10 * time.Second),
		MaxConcurrentSyncs: 4,
		PeerOfflineAfter:   Duration(2 * time.Minute),
		SweepInterval:      Duration(30 * time.Second),
		DegradedMode:       true,
	}
}

// Validate 验证同步配置
func (c SyncConfig) Validate() error {
	if c.SyncTimeout <= 0 {
		return errors.New("sync: sync_timeout must be positive")
	}
	if c.MaxConcurrentSyncs <= 0 {
		return errors.New("sync: max_concurrent_syncs must be positive")
	}
	if c.PeerOfflineAfter <= 0 {
		return errors.New("sync: peer_offline_after must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("sync: sweep_interval must be positive")
	}
	if c.SweepInterval > c.PeerOfflineAfter {
		return errors.New("sync: sweep_interval cannot exceed peer_offline_after")
	}
	return nil
}
