// Package config 提供统一的配置管理
//
// 本包采用混合配置模式：
//   - 主 Config 结构体嵌入所有子配置
//   - 每个子配置在独立文件中定义
//   - 支持从 JSON 加载和保存配置
//   - 支持 LAIRIK_* 环境变量覆盖
//   - 支持预设配置（field/demo）
//
// 使用示例：
//
//	// 创建默认配置
//	cfg := config.NewConfig()
//	cfg.Transport.URL = "ws://10.0.0.2:8080/p2p/ws"
//
//	// 应用预设到现有配置
//	config.ApplyPreset(cfg, "field")
//
//	// 从 JSON 加载
//	cfg, err := config.FromJSON(data)
//
//	// 环境变量覆盖
//	err = config.ApplyEnv(cfg, os.Getenv)
package config

// Config 是 meshsync 的完整配置结构
//
// 配置按照功能模块组织：
//   - Transport: 到协调节点的 WebSocket 连接与重连策略
//   - Status: HTTP 状态查询
//   - Sync: 同步协调、存活扫描与降级模式
//   - Storage: 本地持久化目录
//   - PeerCache: 节点缓存容量
//   - Metrics: Prometheus 指标
type Config struct {
	// Transport 传输连接配置
	Transport TransportConfig `json:"transport"`

	// Status 状态查询配置
	Status StatusConfig `json:"status"`

	// Sync 同步配置
	Sync SyncConfig `json:"sync"`

	// Storage 存储配置
	Storage StorageConfig `json:"storage"`

	// PeerCache 节点缓存配置
	PeerCache PeerCacheConfig `json:"peer_cache"`

	// Metrics 指标配置
	Metrics MetricsConfig `json:"metrics"`
}

// NewConfig 创建默认配置
//
// 返回的配置使用所有组件的默认值，连接本机 8080 端口上的协调节点。
func NewConfig() *Config {
	return &Config{
		Transport: DefaultTransportConfig(),
		Status:    DefaultStatusConfig(),
		Sync:      DefaultSyncConfig(),
		Storage:   DefaultStorageConfig(),
		PeerCache: DefaultPeerCacheConfig(),
		Metrics:   DefaultMetricsConfig(),
	}
}

// Validate 验证配置的有效性
//
// 检查所有子配置是否有效，如果发现无效配置则返回错误。
func (c *Config) Validate() error {
	if err := c.Transport.Validate(); err != nil {
		return err
	}
	if err := c.Status.Validate(); err != nil {
		return err
	}
	if err := c.Sync.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.PeerCache.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	return nil
}
