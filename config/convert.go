package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// FromJSON 从 JSON 数据创建配置
//
// 未出现的字段保留默认值。
//
// 示例 JSON:
//
//	{
//	  "transport": {"url": "ws://10.0.0.2:8080/p2p/ws", "reconnect_interval": "5s"},
//	  "sync": {"degraded_mode": false}
//	}
func FromJSON(data []byte) (*Config, error) {
	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// ToJSON 将配置序列化为带缩进的 JSON
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// LoadFile 从 JSON 文件加载配置
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: 用户指定的配置文件路径是预期行为
	if err != nil {
		return nil, err
	}
	return FromJSON(data)
}

// ApplyPreset 应用预设配置
//
// 支持的预设：
//   - "field": 营地现场网络，链路不稳定，重连更耐心
//   - "demo": 内存传输与内存存储，无需协调节点
func ApplyPreset(cfg *Config, presetName string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	switch presetName {
	case "field":
		applyFieldPreset(cfg)
		return nil
	case "demo":
		applyDemoPreset(cfg)
		return nil
	case "":
		return nil
	default:
		return fmt.Errorf("unknown preset: %s", presetName)
	}
}

// applyFieldPreset 应用现场预设
//
//   - 更长的重连间隔与更多重连次数
//   - 更长的离线判定，避免短暂断链造成节点抖动
func applyFieldPreset(cfg *Config) {
	cfg.Transport.ReconnectInterval = Duration(10 * time.Second)
	cfg.Transport.MaxReconnectAttempts = 30
	cfg.Transport.HeartbeatInterval = Duration(60 * time.Second)
	cfg.Status.Timeout = Duration(15 * time.Second)
	cfg.Sync.SyncTimeout = Duration(30 * time.Second)
	cfg.Sync.PeerOfflineAfter = Duration(10 * time.Minute)
	cfg.Sync.SweepInterval = Duration(time.Minute)
	cfg.PeerCache.Size = 1024
}

// applyDemoPreset 应用演示预设
func applyDemoPreset(cfg *Config) {
	cfg.Transport.URL = "memory://demo"
	cfg.Status.Enabled = false
	cfg.Storage.InMemory = true
	cfg.PeerCache.Persist = false
	cfg.Sync.DegradedMode = true
}
