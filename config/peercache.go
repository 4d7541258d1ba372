package config

import "errors"

// PeerCacheConfig 节点缓存配置
type PeerCacheConfig struct {
	// Size 内存 LRU 容量
	Size int `json:"size"`

	// Persist 是否写入持久化存储
	Persist bool `json:"persist"`
}

// DefaultPeerCacheConfig 返回默认节点缓存配置
func DefaultPeerCacheConfig() PeerCacheConfig {
	return PeerCacheConfig{
		Size:    256,
		Persist: true,
	}
}

// Validate 验证节点缓存配置
func (c PeerCacheConfig) Validate() error {
	if c.Size <= 0 {
		return errors.New("peer_cache: size must be positive")
	}
	return nil
}
