package interfaces

import (
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// TransportHandler 接收传输层通知
//
// 回调在传输层内部 goroutine 中串行调用，实现不得在回调内同步调用
// Connect/Disconnect。
type TransportHandler interface {
	// HandleState 每次状态转换时调用，err 为导致转换的原因（可为 nil）
	HandleState(state types.ConnState, err error)

	// HandleFrame 每个成功解码的入站帧调用一次
	HandleFrame(f protocol.Frame)

	// HandleFrameError 入站数据无法解码，err 为 *types.ProtocolError
	HandleFrameError(err error)
}

// Transport 到协调节点的长连接
//
// 状态机见 types.ConnState。Connect 不阻塞：握手在后台进行，
// 结果通过 TransportHandler 通知。
type Transport interface {
	// Connect 发起连接
	//
	// 在 Open/Connecting/Reconnecting 状态下为空操作；
	// 从 Idle/Failed 开始时重连计数清零。
	Connect() error

	// Disconnect 断开连接并回到 Idle
	//
	// 取消等待中的重连和进行中的握手，可重复调用。
	Disconnect()

	// Send 发送帧，仅在 Open 状态可用，否则返回 types.ErrNotConnected
	Send(f protocol.Frame) error

	// State 返回当前状态
	State() types.ConnState

	// URL 返回协调节点地址
	URL() string

	// SetHandler 设置通知接收者，必须在 Connect 之前调用
	SetHandler(h TransportHandler)

	// Close 断开并释放传输，之后 Connect 返回 types.ErrTransportClosed
	Close() error
}
