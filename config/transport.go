package config

import (
	"errors"
	"net/url"
	"time"
)

// TransportConfig 传输连接配置
//
// 重连策略：异常关闭后等待 ReconnectInterval 再次握手，
// 连续 MaxReconnectAttempts 次失败后进入 Failed 状态，不再自动重试。
type TransportConfig struct {
	// URL 协调节点 WebSocket 地址
	URL string `json:"url"`

	// ReconnectInterval 重连间隔
	ReconnectInterval Duration `json:"reconnect_interval"`

	// MaxReconnectAttempts 最大重连次数
	MaxReconnectAttempts int `json:"max_reconnect_attempts"`

	// HeartbeatInterval Open 状态下发送 ping 的间隔
	HeartbeatInterval Duration `json:"heartbeat_interval"`

	// DialTimeout 握手超时
	DialTimeout Duration `json:"dial_timeout"`

	// WriteTimeout 单帧写超时
	WriteTimeout Duration `json:"write_timeout"`

	// MaxFrameSize 入站帧最大字节数
	MaxFrameSize int64 `json:"max_frame_size"`
}

// DefaultTransportConfig 返回默认传输配置
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		URL:                  "ws://localhost:8080/p2p/ws",
		ReconnectInterval:    Duration(3 * time.Second),
		MaxReconnectAttempts: 5,
		HeartbeatInterval:    Duration(30 * time.Second),
		DialTimeout:          Duration(10 * time.Second),
		WriteTimeout:         Duration(5 * time.Second),
		MaxFrameSize:         1 << 20,
	}
}

// Validate 验证传输配置
func (c TransportConfig) Validate() error {
	if c.URL == "" {
		return errors.New("transport: url cannot be empty")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return errors.New("transport: invalid url")
	}
	if u.Scheme != "ws" && u.Scheme != "wss" && u.Scheme != "memory" {
		return errors.New("transport: url scheme must be ws, wss or memory")
	}
	if c.ReconnectInterval <= 0 {
		return errors.New("transport: reconnect_interval must be positive")
	}
	if c.MaxReconnectAttempts < 0 {
		return errors.New("transport: max_reconnect_attempts cannot be negative")
	}
	if c.HeartbeatInterval <= 0 {
		return errors.New("transport: heartbeat_interval must be positive")
	}
	if c.DialTimeout <= 0 {
		return errors.New("transport: dial_timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("transport: write_timeout must be positive")
	}
	if c.MaxFrameSize <= 0 {
		return errors.New("transport: max_frame_size must be positive")
	}
	return nil
}

// WithURL 设置协调节点地址
func (c TransportConfig) WithURL(u string) TransportConfig {
	c.URL = u
	return c
}

// WithReconnect 设置重连策略
func (c TransportConfig) WithReconnect(interval time.Duration, maxAttempts int) TransportConfig {
	c.ReconnectInterval = Duration(interval)
	c.MaxReconnectAttempts = maxAttempts
	return c
}

// WithHeartbeatInterval 设置心跳间隔
func (c TransportConfig) WithHeartbeatInterval(d time.Duration) TransportConfig {
	c.HeartbeatInterval = Duration(d)
	return c
}
