package engine

import "errors"

// ============================================================================
//                              错误定义
// ============================================================================

// 读取与键错误
var (
	// ErrNotFound 键不存在，档案尚未创建时 Load 据此判断
	ErrNotFound = errors.New("storage: key not found")

	// ErrEmptyKey 空键
	ErrEmptyKey = errors.New("storage: empty key")

	// ErrCorrupted 值无法解码
	ErrCorrupted = errors.New("storage: data corrupted")
)

// 引擎状态错误
var (
	// ErrClosed 引擎已关闭，关闭后到达的缓存写回会得到该错误
	ErrClosed = errors.New("storage: engine closed")

	// ErrInvalidConfig 路径缺失或参数越界
	ErrInvalidConfig = errors.New("storage: invalid configuration")
)

// 事务错误
var (
	// ErrTransactionConflict 并发事务冲突
	ErrTransactionConflict = errors.New("storage: transaction conflict")

	// ErrTransactionTooLarge 单个事务写入过多
	ErrTransactionTooLarge = errors.New("storage: transaction too large")
)

// IsNotFound 是否为键不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClosed 是否为引擎已关闭
//
// 停机过程中的写入失败据此降为调试日志。
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
