package types

// ConnState 传输连接状态
//
// 状态机：
//
//	Idle → Connecting → Open → Closing → Idle
//	                      └──→ (异常关闭) → Reconnecting → Connecting
//	Reconnecting 超过最大次数 → Failed（终止，不再自动重试）
//
// 显式 Disconnect 在任何状态下都会强制回到 Idle。
type ConnState int

const (
	// ConnStateIdle 空闲（初始状态，或显式断开之后）
	ConnStateIdle ConnState = iota
	// ConnStateConnecting 握手中
	ConnStateConnecting
	// ConnStateOpen 已连接
	ConnStateOpen
	// ConnStateClosing 正在主动关闭
	ConnStateClosing
	// ConnStateReconnecting 等待下一次重连
	ConnStateReconnecting
	// ConnStateFailed 重连次数耗尽
	ConnStateFailed
)

// String 返回连接状态的字符串表示
func (s ConnState) String() string {
	switch s {
	case ConnStateIdle:
		return "idle"
	case ConnStateConnecting:
		return "connecting"
	case ConnStateOpen:
		return "open"
	case ConnStateClosing:
		return "closing"
	case ConnStateReconnecting:
		return "reconnecting"
	case ConnStateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// IsActive 是否处于需要保持连接的状态
func (s ConnState) IsActive() bool {
	return s == ConnStateConnecting || s == ConnStateOpen || s == ConnStateReconnecting
}
