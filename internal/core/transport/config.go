package transport

import (
	"time"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
)

// Config 传输连接配置
type Config struct {
	// URL 协调节点地址
	URL string

	// ReconnectInterval 重连间隔
	ReconnectInterval time.Duration

	// MaxReconnectAttempts 一次异常关闭之后允许的最大重连次数
	MaxReconnectAttempts int

	// HeartbeatInterval ping 间隔，0 表示不发送
	HeartbeatInterval time.Duration

	// DialTimeout 单次握手超时
	DialTimeout time.Duration
}

// NewConfig 创建默认配置
func NewConfig() Config {
	return ConfigFromUnified(nil)
}

// ConfigFromUnified 从统一配置创建传输配置
func ConfigFromUnified(cfg *config.Config) Config {
	tc := config.DefaultTransportConfig()
	if cfg != nil {
		tc = cfg.Transport
	}
	return Config{
		URL:                  tc.URL,
		ReconnectInterval:    tc.ReconnectInterval.Duration(),
		MaxReconnectAttempts: tc.MaxReconnectAttempts,
		HeartbeatInterval:    tc.HeartbeatInterval.Duration(),
		DialTimeout:          tc.DialTimeout.Duration(),
	}
}
