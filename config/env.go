package config

import (
	"fmt"
	"strconv"
	"strings"
)

// 环境变量名（均使用 LAIRIK_ 前缀）
const (
	// EnvPrefix 环境变量前缀
	EnvPrefix = "LAIRIK_"

	// EnvPreset 预设名称
	EnvPreset = "PRESET"
	// EnvTransportURL 协调节点 WebSocket 地址
	EnvTransportURL = "WS_URL"
	// EnvStatusURL 协调节点 HTTP 地址
	EnvStatusURL = "STATUS_URL"
	// EnvReconnectInterval 重连间隔
	EnvReconnectInterval = "RECONNECT_INTERVAL"
	// EnvMaxReconnectAttempts 最大重连次数
	EnvMaxReconnectAttempts = "MAX_RECONNECT_ATTEMPTS"
	// EnvHeartbeatInterval 心跳间隔
	EnvHeartbeatInterval = "HEARTBEAT_INTERVAL"
	// EnvDataDir 数据目录
	EnvDataDir = "DATA_DIR"
	// EnvDegradedMode 降级模式开关
	EnvDegradedMode = "DEGRADED_MODE"
	// EnvPeerOfflineAfter 节点离线判定时长
	EnvPeerOfflineAfter = "PEER_OFFLINE_AFTER"
	// EnvMetricsAddr 指标暴露地址
	EnvMetricsAddr = "METRICS_ADDR"
	// EnvLogLevel 日志级别
	EnvLogLevel = "LOG_LEVEL"
	// EnvLogFormat 日志格式（text/json）
	EnvLogFormat = "LOG_FORMAT"
)

// ApplyEnv 应用环境变量覆盖
//
// 环境变量优先级高于配置文件，但低于命令行参数。
// getenv 通常为 os.Getenv，测试中可替换。
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	get := func(name string) string {
		return strings.TrimSpace(getenv(EnvPrefix + name))
	}

	if v := get(EnvPreset); v != "" {
		if err := ApplyPreset(cfg, v); err != nil {
			return envError(EnvPreset, err)
		}
	}
	if v := get(EnvTransportURL); v != "" {
		cfg.Transport.URL = v
	}
	if v := get(EnvStatusURL); v != "" {
		cfg.Status.BaseURL = v
	}
	if v := get(EnvReconnectInterval); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return envError(EnvReconnectInterval, err)
		}
		cfg.Transport.ReconnectInterval = d
	}
	if v := get(EnvMaxReconnectAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return envError(EnvMaxReconnectAttempts, err)
		}
		cfg.Transport.MaxReconnectAttempts = n
	}
	if v := get(EnvHeartbeatInterval); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return envError(EnvHeartbeatInterval, err)
		}
		cfg.Transport.HeartbeatInterval = d
	}
	if v := get(EnvDataDir); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := get(EnvDegradedMode); v != "" {
		cfg.Sync.DegradedMode = ParseBool(v)
	}
	if v := get(EnvPeerOfflineAfter); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return envError(EnvPeerOfflineAfter, err)
		}
		cfg.Sync.PeerOfflineAfter = d
	}
	if v := get(EnvMetricsAddr); v != "" {
		cfg.Metrics.ListenAddr = v
	}
	return nil
}

// ParseBool 解析布尔值字符串
func ParseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func envError(name string, err error) error {
	return fmt.Errorf("env %s%s: %w", EnvPrefix, name, err)
}
