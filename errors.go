package meshsync

import "errors"

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 客户端生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 客户端未启动
	ErrNotStarted = errors.New("client not started")

	// ErrAlreadyStarted 客户端已启动
	ErrAlreadyStarted = errors.New("client already started")

	// ErrClientClosed 客户端已关闭
	ErrClientClosed = errors.New("client closed")

	// ────────────────────────────────────────────────────────────────────────
	// 选项错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNilConfig 配置为空
	ErrNilConfig = errors.New("config is nil")
)
