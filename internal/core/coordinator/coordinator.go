package coordinator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"

	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("core/coordinator")

// 编译时检查接口实现
var (
	_ pkgif.Coordinator      = (*Coordinator)(nil)
	_ pkgif.TransportHandler = (*Coordinator)(nil)
)

// Deps 协调器依赖
//
// Status 与 Cache 可为 nil，对应的发现降级步骤会被跳过。
type Deps struct {
	Transport pkgif.Transport
	Registry  pkgif.Registry
	Bus       pkgif.EventBus
	Status    pkgif.StatusQuerier
	Cache     pkgif.PeerCache
	Clock     clock.Clock
	Recorder  Recorder
}

// Coordinator 同步协调器
//
// 把传输层的入站帧翻译为注册表操作，把本地意图翻译为出站帧。
// 入站帧由传输层的通知 goroutine 串行投递。
type Coordinator struct {
	cfg       Config
	transport pkgif.Transport
	registry  pkgif.Registry
	bus       pkgif.EventBus
	status    pkgif.StatusQuerier
	cache     pkgif.PeerCache
	clock     clock.Clock
	rec       Recorder

	mu              sync.RWMutex
	state           types.ConnState
	remoteNodeID    string
	remoteConnected bool
	localID         string

	// 等待 sync_ack 的请求，按 RequestID 索引
	pendingMu sync.Mutex
	pending   map[string]pendingSync

	protocolErrors atomic.Uint64
}

// New 创建协调器并注册为传输层的通知接收者
func New(cfg Config, d Deps) *Coordinator {
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	c := &Coordinator{
		cfg:       cfg,
		transport: d.Transport,
		registry:  d.Registry,
		bus:       d.Bus,
		status:    d.Status,
		cache:     d.Cache,
		clock:     d.Clock,
		rec:       d.Recorder,
		pending:   make(map[string]pendingSync),
	}
	d.Transport.SetHandler(c)
	return c
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 获取初始快照并发起连接
//
// 快照查询失败只记录日志，连接结果通过 connection_state 事件观察。
func (c *Coordinator) Start(ctx context.Context) error {
	if c.status != nil {
		qctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
		st, err := c.status.QueryStatus(qctx)
		cancel()
		if err != nil {
			logger.Warn("初始快照获取失败", "error", err)
		} else {
			n := c.applyStatus(st)
			logger.Info("已加载初始快照", "node", st.NodeID, "peers", n)
		}
	}
	return c.transport.Connect()
}

// Stop 断开连接
func (c *Coordinator) Stop(_ context.Context) error {
	c.transport.Disconnect()
	return nil
}

// State 返回当前连接状态
func (c *Coordinator) State() types.ConnState {
	return c.transport.State()
}

// RemoteNodeID 返回协调节点报告的节点 ID
func (c *Coordinator) RemoteNodeID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remoteNodeID
}

// RemoteConnected 协调节点最近一次 status 报告的连通性
func (c *Coordinator) RemoteConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.remoteConnected
}

// SetLocalID 设置出站帧的 sender 字段
func (c *Coordinator) SetLocalID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localID = id
}

// LocalID 返回出站帧的 sender 字段
func (c *Coordinator) LocalID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.localID
}

// ProtocolErrors 已丢弃的畸形或未知帧数量
func (c *Coordinator) ProtocolErrors() uint64 {
	return c.protocolErrors.Load()
}

// ============================================================================
//                              TransportHandler
// ============================================================================

// HandleState 实现 pkgif.TransportHandler
//
// 每次状态转换都发布 connection_state；离开 Open 时额外发布
// mesh_disconnected，并让等待中的同步立即失败。
func (c *Coordinator) HandleState(state types.ConnState, err error) {
	c.mu.Lock()
	prev := c.state
	c.state = state
	if state != types.ConnStateOpen {
		c.remoteConnected = false
	}
	c.mu.Unlock()

	c.rec.ConnState(state)
	now := c.clock.Now()
	c.bus.Publish(types.ConnectionStateChanged{BaseEvent: types.NewBaseEvent(now), State: state, Err: err})

	if prev == types.ConnStateOpen && state != types.ConnStateOpen {
		reason := state.String()
		if err != nil {
			reason = err.Error()
		}
		c.failPending(ErrSyncAborted)
		c.bus.Publish(types.MeshDisconnected{BaseEvent: types.NewBaseEvent(now), Reason: reason})
	}

	switch state {
	case types.ConnStateOpen:
		logger.Info("已连接协调节点", "url", c.transport.URL())
	case types.ConnStateFailed:
		logger.Error("重连次数耗尽", "url", c.transport.URL(), "error", err)
	case types.ConnStateReconnecting:
		logger.Warn("连接中断，等待重连", "error", err)
	}
}

// HandleFrame 实现 pkgif.TransportHandler
func (c *Coordinator) HandleFrame(f protocol.Frame) {
	if err := c.dispatch(f); err != nil {
		c.recordProtocolError(f.Type.String(), err)
		return
	}
	c.rec.FrameReceived(f.Type.String(), len(f.Payload))
}

// HandleFrameError 实现 pkgif.TransportHandler
func (c *Coordinator) HandleFrameError(err error) {
	c.recordProtocolError("", err)
}

func (c *Coordinator) recordProtocolError(frameType string, err error) {
	c.protocolErrors.Add(1)
	c.rec.ProtocolError(frameType)
	logger.Warn("丢弃入站帧", "type", frameType, "error", err)
}

// ============================================================================
//                              出站
// ============================================================================

// send 构建并发送出站帧
func (c *Coordinator) send(typ protocol.FrameType, payload any) error {
	f, err := protocol.NewFrame(typ, payload, c.clock.Now())
	if err != nil {
		return err
	}
	f.Sender = c.LocalID()
	if err := c.transport.Send(f); err != nil {
		return err
	}
	c.rec.FrameSent(typ.String(), len(f.Payload))
	return nil
}

// sendIfOpen 连接可用时发送，不可用时静默跳过
func (c *Coordinator) sendIfOpen(typ protocol.FrameType, payload any) error {
	if c.transport.State() != types.ConnStateOpen {
		return nil
	}
	err := c.send(typ, payload)
	if errors.Is(err, types.ErrNotConnected) {
		// 检查之后连接刚好断开
		return nil
	}
	return err
}
