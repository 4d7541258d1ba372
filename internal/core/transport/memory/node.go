package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
)

var logger = log.Logger("transport/memory")

// 编译时检查接口实现
var (
	_ transport.Dialer    = (*Node)(nil)
	_ pkgif.StatusQuerier = (*Node)(nil)
	_ transport.Conn      = (*conn)(nil)
)

// ErrRefused 节点拒绝连接
var ErrRefused = errors.New("memory: connection refused")

// Node 进程内协调节点
//
// 行为与真实协调节点一致：连接建立后依次推送 status 与 peers 帧；
// 对 ping 回复 pong，对 discover 回复 peers，对 sync_request 回复 sync_ack。
// 仅用于测试与 -demo 模式。
type Node struct {
	id    string
	clock clock.Clock

	mu       sync.Mutex
	peers    []protocol.WirePeer
	sessions map[*conn]struct{}
	refuse   error
	received []protocol.Frame
	silent   bool
}

// Option 节点选项
type Option func(*Node)

// WithPeers 设置初始节点列表
func WithPeers(peers ...protocol.WirePeer) Option {
	return func(n *Node) {
		n.peers = slices.Clone(peers)
	}
}

// WithClock 设置时钟
func WithClock(clk clock.Clock) Option {
	return func(n *Node) {
		n.clock = clk
	}
}

// NewNode 创建进程内协调节点
func NewNode(id string, opts ...Option) *Node {
	n := &Node{
		id:       id,
		clock:    clock.New(),
		sessions: make(map[*conn]struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ID 返回节点 ID
func (n *Node) ID() string {
	return n.id
}

// ============================================================================
//                              控制接口
// ============================================================================

// SetPeers 替换节点列表
func (n *Node) SetPeers(peers ...protocol.WirePeer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers = slices.Clone(peers)
}

// Refuse 设置拒绝连接的原因，nil 表示恢复接受
func (n *Node) Refuse(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refuse = err
}

// SetSilent 为 true 时不自动回复请求帧
func (n *Node) SetSilent(silent bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.silent = silent
}

// Sessions 返回当前连接数
func (n *Node) Sessions() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sessions)
}

// Received 返回客户端发来的全部帧
func (n *Node) Received() []protocol.Frame {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.received)
}

// ReceivedOfType 返回指定类型的客户端帧
func (n *Node) ReceivedOfType(typ protocol.FrameType) []protocol.Frame {
	var out []protocol.Frame
	for _, f := range n.Received() {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

// Push 向全部连接推送一帧
func (n *Node) Push(typ protocol.FrameType, payload any) error {
	f, err := protocol.NewFrame(typ, payload, n.clock.Now())
	if err != nil {
		return err
	}
	f.Sender = n.id
	data, err := protocol.Encode(f)
	if err != nil {
		return err
	}
	n.PushRaw(data)
	return nil
}

// PushRaw 向全部连接推送原始数据
func (n *Node) PushRaw(data []byte) {
	for _, c := range n.snapshot() {
		c.enqueue(data)
	}
}

// Drop 异常中断全部连接
func (n *Node) Drop() {
	for _, c := range n.snapshot() {
		c.terminate(&transport.CloseError{Code: transport.CloseAbnormalClosure, Text: "dropped"})
	}
}

// Shutdown 以正常关闭码结束全部连接
func (n *Node) Shutdown() {
	for _, c := range n.snapshot() {
		c.terminate(&transport.CloseError{Code: transport.CloseNormalClosure, Text: "shutdown"})
	}
}

func (n *Node) snapshot() []*conn {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*conn, 0, len(n.sessions))
	for c := range n.sessions {
		out = append(out, c)
	}
	return out
}

// ============================================================================
//                              Dialer / StatusQuerier
// ============================================================================

// Dial 建立进程内连接
func (n *Node) Dial(ctx context.Context, _ string) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	if n.refuse != nil {
		err := n.refuse
		n.mu.Unlock()
		return nil, err
	}
	c := newConn(n)
	n.sessions[c] = struct{}{}
	status := n.statusLocked()
	peers := slices.Clone(n.peers)
	n.mu.Unlock()

	logger.Debug("客户端已连接", "node", n.id)
	c.send(n, protocol.TypeStatus, status)
	c.send(n, protocol.TypePeers, protocol.PeersPayload{Peers: peers, Count: len(peers)})
	return c, nil
}

// QueryStatus 返回节点状态快照
func (n *Node) QueryStatus(ctx context.Context) (protocol.StatusPayload, error) {
	if err := ctx.Err(); err != nil {
		return protocol.StatusPayload{}, err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.refuse != nil {
		return protocol.StatusPayload{}, n.refuse
	}
	return n.statusLocked(), nil
}

func (n *Node) statusLocked() protocol.StatusPayload {
	return protocol.StatusPayload{
		Connected: true,
		NodeID:    n.id,
		PeerCount: len(n.peers),
		Peers:     slices.Clone(n.peers),
	}
}

// ============================================================================
//                              请求处理
// ============================================================================

// handle 处理客户端发来的帧
func (n *Node) handle(c *conn, data []byte) {
	f, err := protocol.Decode(data)
	if err != nil {
		logger.Debug("丢弃无法解码的客户端帧", "error", err)
		return
	}

	n.mu.Lock()
	n.received = append(n.received, f)
	silent := n.silent
	peers := slices.Clone(n.peers)
	n.mu.Unlock()

	if silent {
		return
	}

	switch f.Type {
	case protocol.TypePing:
		var p protocol.PingPayload
		_ = f.DecodePayload(&p)
		c.send(n, protocol.TypePong, p)
	case protocol.TypeDiscover:
		c.send(n, protocol.TypePeers, protocol.PeersPayload{Peers: peers, Count: len(peers)})
	case protocol.TypeSyncRequest:
		var req protocol.SyncPayload
		if err := f.DecodePayload(&req); err != nil {
			return
		}
		c.send(n, protocol.TypeSyncAck, req)
	}
}

func (n *Node) detach(c *conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.sessions, c)
}

// ============================================================================
//                              conn
// ============================================================================

// conn 进程内连接的客户端一端
type conn struct {
	node *Node

	mu     sync.Mutex
	queue  [][]byte
	err    error
	wake   chan struct{}
	closed bool
}

func newConn(n *Node) *conn {
	return &conn{node: n, wake: make(chan struct{}, 1)}
}

func (c *conn) send(n *Node, typ protocol.FrameType, payload any) {
	f, err := protocol.NewFrame(typ, payload, n.clock.Now())
	if err != nil {
		return
	}
	f.Sender = n.id
	data, err := protocol.Encode(f)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *conn) enqueue(data []byte) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, data)
	c.mu.Unlock()
	c.signal()
}

func (c *conn) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// terminate 结束连接，排队中的帧仍可读出
func (c *conn) terminate(err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.err = err
	c.mu.Unlock()

	c.node.detach(c)
	c.signal()
}

// ReadFrame 实现 transport.Conn
func (c *conn) ReadFrame() ([]byte, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			data := c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return data, nil
		}
		if c.closed {
			err := c.err
			c.mu.Unlock()
			return nil, err
		}
		c.mu.Unlock()
		<-c.wake
	}
}

// WriteFrame 实现 transport.Conn
func (c *conn) WriteFrame(data []byte) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return &transport.CloseError{Code: transport.CloseAbnormalClosure, Text: "closed"}
	}
	c.node.handle(c, data)
	return nil
}

// Close 实现 transport.Conn
func (c *conn) Close(code int, reason string) error {
	c.terminate(&transport.CloseError{Code: code, Text: reason})
	return nil
}

// ============================================================================
//                              种子数据
// ============================================================================

// DemoPeers 返回演示用的节点列表
func DemoPeers(now time.Time) []protocol.WirePeer {
	seen := now.UnixMilli()
	return []protocol.WirePeer{
		{ID: "peer-imphal-01", Name: "Imphal Relief Desk", Role: "verifier", Status: "online", LastSeen: seen},
		{ID: "peer-churachandpur-02", Name: "Churachandpur Camp", Role: "camp_coordinator", Status: "online", LastSeen: seen},
		{ID: "peer-moreh-03", Name: "Moreh Field Unit", Role: "student", Status: "busy", LastSeen: seen},
	}
}
