package transport

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("core/transport")

// 编译时检查接口实现
var _ pkgif.Transport = (*Transport)(nil)

// Transport 到协调节点的长连接
//
// 同一时刻最多一个握手在进行；gen 在每次发起握手和 Disconnect 时递增，
// 过期握手的结果被丢弃。读循环以连接对象本身判断是否过期。
type Transport struct {
	cfg    Config
	dialer Dialer
	clock  clock.Clock

	mu         sync.Mutex
	state      types.ConnState
	handler    pkgif.TransportHandler
	conn       Conn
	gen        uint64
	attempts   int
	timer      *clock.Timer
	dialCancel context.CancelFunc
	hbStop     chan struct{}
	closed     bool

	writeMu sync.Mutex
	pingSeq atomic.Uint64

	notify *notifier
}

// New 创建传输，初始状态为 Idle
func New(cfg Config, dialer Dialer, clk clock.Clock) *Transport {
	if clk == nil {
		clk = clock.New()
	}
	return &Transport{
		cfg:    cfg,
		dialer: dialer,
		clock:  clk,
		state:  types.ConnStateIdle,
		notify: newNotifier(),
	}
}

// SetHandler 设置通知接收者
func (t *Transport) SetHandler(h pkgif.TransportHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// URL 返回协调节点地址
func (t *Transport) URL() string {
	return t.cfg.URL
}

// State 返回当前状态
func (t *Transport) State() types.ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ============================================================================
//                              连接控制
// ============================================================================

// Connect 发起连接
func (t *Transport) Connect() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return types.ErrTransportClosed
	}
	if t.state.IsActive() {
		return nil
	}

	t.attempts = 0
	t.startDialLocked()
	return nil
}

// Disconnect 断开连接并回到 Idle
func (t *Transport) Disconnect() {
	t.mu.Lock()

	t.gen++
	t.attempts = 0
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.dialCancel != nil {
		t.dialCancel()
		t.dialCancel = nil
	}
	t.stopHeartbeatLocked()

	conn := t.conn
	t.conn = nil
	if conn != nil {
		t.setStateLocked(types.ConnStateClosing, nil)
	}
	t.setStateLocked(types.ConnStateIdle, nil)
	t.mu.Unlock()

	if conn != nil {
		if err := conn.Close(CloseNormalClosure, "client disconnect"); err != nil {
			logger.Debug("关闭连接失败", "error", err)
		}
		logger.Info("已断开协调节点", "url", t.cfg.URL)
	}
}

// Close 断开并释放传输
func (t *Transport) Close() error {
	t.Disconnect()

	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	t.notify.close()
	return nil
}

// startDialLocked 进入 Connecting 并在后台握手
func (t *Transport) startDialLocked() {
	t.gen++
	gen := t.gen
	t.setStateLocked(types.ConnStateConnecting, nil)

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if t.cfg.DialTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), t.cfg.DialTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	t.dialCancel = cancel

	logger.Debug("正在连接协调节点", "url", t.cfg.URL, "attempt", t.attempts)
	go t.dial(ctx, cancel, gen)
}

func (t *Transport) dial(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	conn, err := t.dialer.Dial(ctx, t.cfg.URL)
	cancel()

	t.mu.Lock()
	if gen != t.gen || t.closed {
		t.mu.Unlock()
		if conn != nil {
			_ = conn.Close(CloseNormalClosure, "stale dial")
		}
		return
	}
	t.dialCancel = nil

	if err != nil {
		t.failLocked(&types.TransportError{Op: "dial", URL: t.cfg.URL, Attempt: t.attempts, Err: err})
		t.mu.Unlock()
		return
	}

	t.conn = conn
	t.attempts = 0
	t.startHeartbeatLocked()
	t.setStateLocked(types.ConnStateOpen, nil)
	t.mu.Unlock()

	logger.Info("已连接协调节点", "url", t.cfg.URL)
	go t.readLoop(conn)
}

// failLocked 处理异常关闭：安排重连或进入 Failed
func (t *Transport) failLocked(cause error) {
	if t.state == types.ConnStateIdle {
		return
	}

	if t.attempts >= t.cfg.MaxReconnectAttempts {
		err := &types.TransportError{
			Op:      "reconnect",
			URL:     t.cfg.URL,
			Attempt: t.attempts,
			Err:     multierr.Append(types.ErrReconnectExhausted, cause),
		}
		t.setStateLocked(types.ConnStateFailed, err)
		logger.Warn("重连次数耗尽，停止重试", "url", t.cfg.URL, "attempts", t.attempts, "error", cause)
		return
	}

	gen := t.gen
	t.timer = t.clock.AfterFunc(t.cfg.ReconnectInterval, func() {
		t.reconnect(gen)
	})
	t.setStateLocked(types.ConnStateReconnecting, cause)
	logger.Warn("连接中断，等待重连", "url", t.cfg.URL, "in", t.cfg.ReconnectInterval, "error", cause)
}

func (t *Transport) reconnect(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen || t.closed || t.state != types.ConnStateReconnecting {
		return
	}
	t.timer = nil
	t.attempts++
	t.startDialLocked()
}

// ============================================================================
//                              读写
// ============================================================================

func (t *Transport) readLoop(conn Conn) {
	for {
		data, err := conn.ReadFrame()
		if err != nil {
			t.onReadError(conn, err)
			return
		}

		t.mu.Lock()
		current := t.conn == conn
		h := t.handler
		t.mu.Unlock()
		if !current {
			return
		}
		if h == nil {
			continue
		}

		f, err := protocol.Decode(data)
		if err != nil {
			t.notify.post(func() { h.HandleFrameError(err) })
			continue
		}
		t.notify.post(func() { h.HandleFrame(f) })
	}
}

func (t *Transport) onReadError(conn Conn, err error) {
	t.mu.Lock()
	if t.conn != conn {
		t.mu.Unlock()
		return
	}
	t.conn = nil
	t.stopHeartbeatLocked()

	if IsNormalClosure(err) {
		t.attempts = 0
		t.setStateLocked(types.ConnStateIdle, nil)
		t.mu.Unlock()
		logger.Info("协调节点正常关闭连接", "url", t.cfg.URL)
	} else {
		t.failLocked(&types.TransportError{Op: "read", URL: t.cfg.URL, Err: err})
		t.mu.Unlock()
	}

	_ = conn.Close(CloseNormalClosure, "")
}

// Send 发送帧
//
// 仅在 Open 状态可用，不做缓冲。写失败按异常关闭处理。
func (t *Transport) Send(f protocol.Frame) error {
	t.mu.Lock()
	conn := t.conn
	open := t.state == types.ConnStateOpen && conn != nil
	t.mu.Unlock()
	if !open {
		return types.ErrNotConnected
	}

	data, err := protocol.Encode(f)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	err = conn.WriteFrame(data)
	t.writeMu.Unlock()
	if err == nil {
		return nil
	}

	werr := &types.TransportError{Op: "write", URL: t.cfg.URL, Err: err}
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
		t.stopHeartbeatLocked()
		t.failLocked(werr)
	}
	t.mu.Unlock()
	_ = conn.Close(CloseAbnormalClosure, "write failed")
	return werr
}

// ============================================================================
//                              心跳
// ============================================================================

func (t *Transport) startHeartbeatLocked() {
	if t.cfg.HeartbeatInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	t.hbStop = stop
	ticker := t.clock.Ticker(t.cfg.HeartbeatInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.sendPing()
			}
		}
	}()
}

func (t *Transport) stopHeartbeatLocked() {
	if t.hbStop != nil {
		close(t.hbStop)
		t.hbStop = nil
	}
}

func (t *Transport) sendPing() {
	f, err := protocol.NewFrame(protocol.TypePing, protocol.PingPayload{Seq: t.pingSeq.Add(1)}, t.clock.Now())
	if err != nil {
		return
	}
	if err := t.Send(f); err != nil && !errors.Is(err, types.ErrNotConnected) {
		logger.Debug("发送心跳失败", "error", err)
	}
}

// ============================================================================
//                              状态通知
// ============================================================================

// setStateLocked 转换状态并投递通知，调用方持有 mu
func (t *Transport) setStateLocked(s types.ConnState, err error) {
	if t.state == s {
		return
	}
	t.state = s
	if h := t.handler; h != nil {
		t.notify.post(func() { h.HandleState(s, err) })
	}
}
