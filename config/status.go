package config

import (
	"errors"
	"net/url"
	"time"
)

// StatusConfig 协调节点 HTTP 状态查询配置
//
// 用于启动时的初始快照和连接不可用时的发现降级。
type StatusConfig struct {
	// BaseURL 协调节点 HTTP 地址，查询路径为 <BaseURL>/p2p/status
	BaseURL string `json:"base_url"`

	// Timeout 单次查询超时
	Timeout Duration `json:"timeout"`

	// Enabled 是否启用状态查询
	Enabled bool `json:"enabled"`
}

// DefaultStatusConfig 返回默认状态查询配置
func DefaultStatusConfig() StatusConfig {
	return StatusConfig{
		BaseURL: "http://localhost:8080",
		Timeout: Duration(5 * time.Second),
		Enabled: true,
	}
}

// Validate 验证状态查询配置
func (c StatusConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("status: base_url must be an http(s) url")
	}
	if c.Timeout <= 0 {
		return errors.New("status: timeout must be positive")
	}
	return nil
}
