package coordinator

import "errors"

var (
	// ErrDiscoveryUnavailable 所有发现来源都不可用且未启用降级模式
	ErrDiscoveryUnavailable = errors.New("coordinator: no discovery source available")

	// ErrUnsupportedEvent 事件无法转发为出站帧
	ErrUnsupportedEvent = errors.New("coordinator: event cannot be forwarded")

	// ErrSyncAborted 连接在等待确认时断开
	ErrSyncAborted = errors.New("coordinator: connection lost during sync")
)
