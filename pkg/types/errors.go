package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              连接相关错误
// ============================================================================

var (
	// ErrNotConnected 传输连接未处于 Open 状态
	ErrNotConnected = errors.New("not connected")

	// ErrReconnectExhausted 重连次数耗尽
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")

	// ErrTransportClosed 传输已被释放
	ErrTransportClosed = errors.New("transport closed")
)

// ============================================================================
//                              协议相关错误
// ============================================================================

var (
	// ErrInvalidFrame 帧无法解码
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrUnknownFrameType 未识别的帧类型
	ErrUnknownFrameType = errors.New("unknown frame type")
)

// ============================================================================
//                              注册表相关错误
// ============================================================================

var (
	// ErrEmptyPeerID 空节点 ID
	ErrEmptyPeerID = errors.New("empty peer ID")

	// ErrEmptyContentID 空内容 ID
	ErrEmptyContentID = errors.New("empty content ID")

	// ErrUnknownPeer 节点未知
	ErrUnknownPeer = errors.New("unknown peer")

	// ErrUnknownDocument 文档未知
	ErrUnknownDocument = errors.New("unknown document")

	// ErrPeerUnavailable 节点不在线，无法同步
	ErrPeerUnavailable = errors.New("peer unavailable")
)

// ============================================================================
//                              档案相关错误
// ============================================================================

var (
	// ErrProfileExists 本机已存在档案
	ErrProfileExists = errors.New("profile already exists")

	// ErrNoProfile 本机尚未创建档案
	ErrNoProfile = errors.New("no profile")

	// ErrInvalidRole 无效的角色
	ErrInvalidRole = errors.New("invalid role")
)

// ============================================================================
//                              错误分类
// ============================================================================

// TransportError 连接/握手失败
//
// 按重连策略重试，次数耗尽后进入 Failed 状态。
type TransportError struct {
	Op      string
	URL     string
	Attempt int
	Err     error
}

func (e *TransportError) Error() string {
	if e.Attempt > 0 {
		return fmt.Sprintf("transport %s %s (attempt %d): %v", e.Op, e.URL, e.Attempt, e.Err)
	}
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError 畸形或未知的帧
//
// 帧被丢弃并记录日志，不会中断协调器。
type ProtocolError struct {
	FrameType string
	Err       error
}

func (e *ProtocolError) Error() string {
	if e.FrameType == "" {
		return fmt.Sprintf("protocol: %v", e.Err)
	}
	return fmt.Sprintf("protocol: frame %q: %v", e.FrameType, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// RegistryConflict 操作引用了未知实体
//
// 直接返回给调用方，注册表状态不受影响。
type RegistryConflict struct {
	Op  string
	ID  string
	Err error
}

func (e *RegistryConflict) Error() string {
	return fmt.Sprintf("registry %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *RegistryConflict) Unwrap() error { return e.Err }

// PersistenceError 本地持久化失败
//
// 触发该错误的档案修改在任何内存变更或广播之前中止。
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsTransportError 是否为传输错误
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsProtocolError 是否为协议错误
func IsProtocolError(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsRegistryConflict 是否为注册表冲突
func IsRegistryConflict(err error) bool {
	var target *RegistryConflict
	return errors.As(err, &target)
}

// IsPersistenceError 是否为持久化错误
func IsPersistenceError(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
