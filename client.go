package meshsync

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/coordinator"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/metrics"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/profile"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport/memory"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/contentid"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("meshsync")

// closeTimeout Close 内部停止的超时
const closeTimeout = 10 * time.Second

// State 客户端状态
type State int

const (
	// StateCreated 已创建未启动
	StateCreated State = iota
	// StateRunning 运行中
	StateRunning
	// StateStopped 已停止
	StateStopped
)

// String 返回状态名
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Client 网格同步客户端
//
// 组装事件总线、注册表、传输、协调器、档案与节点缓存，
// 对外提供单一入口。客户端只能启动一次。
//
// 使用示例：
//
//	c, err := meshsync.New(meshsync.WithPreset("demo"))
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if err := c.Start(ctx); err != nil {
//	    return err
//	}
//	res, err := c.DiscoverPeers(ctx)
type Client struct {
	cfg   *config.Config
	app   *fx.App
	clock clock.Clock

	mu    sync.Mutex
	state State

	coord      *coordinator.Coordinator
	registry   pkgif.Registry
	bus        pkgif.EventBus
	peerCache  pkgif.PeerCache
	profiles   *profile.Store
	engine     engine.Engine
	promReg    *prometheus.Registry
	metrics    *metrics.Metrics
	memoryNode *memory.Node
}

// New 创建客户端
//
// 构建阶段会打开存储并加载本机档案，但不发起连接。
func New(opts ...Option) (*Client, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	cfg, err := o.buildConfig()
	if err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, clock: o.clock}
	if c.clock == nil {
		c.clock = clock.New()
	}
	app, err := buildFxApp(o, cfg, c)
	if err != nil {
		return nil, err
	}
	c.app = app
	return c, nil
}

func (c *Client) inject(cc clientComponents) {
	c.coord = cc.Coordinator
	c.registry = cc.Registry
	c.bus = cc.EventBus
	c.peerCache = cc.PeerCache
	c.profiles = cc.Profiles
	c.engine = cc.Engine
	c.promReg = cc.Prometheus
	c.metrics = cc.Metrics
	c.memoryNode = cc.Node
}

// ============================================================================
//                              生命周期
// ============================================================================

// Start 启动全部组件并发起连接
//
// 连接结果通过 connection_state 事件观察，连接失败不会让 Start 返回错误。
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrClientClosed
	}

	if err := c.app.Start(ctx); err != nil {
		c.state = StateStopped
		return err
	}
	c.state = StateRunning
	logger.Info("客户端已启动", "url", c.cfg.Transport.URL, "version", Version)
	return nil
}

// Stop 停止全部组件
func (c *Client) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return ErrNotStarted
	}
	c.state = StateStopped
	err := c.app.Stop(ctx)
	logger.Info("客户端已停止")
	return err
}

// Close 释放客户端资源，可重复调用
//
// 运行中的客户端先停止；从未启动的客户端直接关闭已打开的存储。
func (c *Client) Close() error {
	c.mu.Lock()
	prev := c.state
	c.state = StateStopped
	c.mu.Unlock()

	var err error
	switch prev {
	case StateRunning:
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		err = multierr.Append(err, c.app.Stop(ctx))
	case StateCreated:
		if c.engine != nil {
			err = multierr.Append(err, c.engine.Close())
		}
		if c.bus != nil {
			err = multierr.Append(err, c.bus.Close())
		}
	}
	return err
}

// State 返回客户端状态
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Config 返回生效配置的副本
func (c *Client) Config() config.Config {
	return *c.cfg
}

// ============================================================================
//                              组件访问
// ============================================================================

// Coordinator 返回同步协调器
func (c *Client) Coordinator() pkgif.Coordinator { return c.coord }

// Registry 返回网格注册表
func (c *Client) Registry() pkgif.Registry { return c.registry }

// Events 返回事件总线
func (c *Client) Events() pkgif.EventBus { return c.bus }

// Profiles 返回本机档案存储
func (c *Client) Profiles() pkgif.ProfileStore { return c.profiles }

// PeerCache 返回节点缓存
func (c *Client) PeerCache() pkgif.PeerCache { return c.peerCache }

// MetricsRegistry 返回 Prometheus 注册表
func (c *Client) MetricsRegistry() *prometheus.Registry { return c.promReg }

// MemoryNode 返回进程内节点，未使用 memory:// 地址时为 nil
func (c *Client) MemoryNode() *memory.Node { return c.memoryNode }

// ============================================================================
//                              查询
// ============================================================================

// ConnectionState 返回当前连接状态
func (c *Client) ConnectionState() types.ConnState {
	return c.coord.State()
}

// Peers 返回全部已知节点
func (c *Client) Peers() []types.Peer {
	return c.registry.ListPeers()
}

// OnlinePeers 返回在线节点
func (c *Client) OnlinePeers() []types.Peer {
	return c.registry.ListOnlinePeers()
}

// Documents 返回全部文档引用
func (c *Client) Documents() []types.DocumentRef {
	return c.registry.ListDocuments()
}

// Profile 返回本机档案
func (c *Client) Profile() (types.Profile, bool) {
	return c.profiles.Profile()
}

// Bandwidth 返回帧负载流量，指标关闭时为零值
func (c *Client) Bandwidth() metrics.Stats {
	return c.metrics.Bandwidth()
}

// Subscribe 订阅指定类型的事件
func (c *Client) Subscribe(kind types.EventKind, h pkgif.EventHandler) pkgif.Unsubscribe {
	return c.bus.Subscribe(kind, h)
}

// ============================================================================
//                              档案
// ============================================================================

// CreateProfile 创建本机档案
func (c *Client) CreateProfile(ctx context.Context, in types.ProfileInput) (types.Profile, error) {
	if err := c.usable(); err != nil {
		return types.Profile{}, err
	}
	return c.profiles.CreateProfile(ctx, in)
}

// UpdateProfile 部分更新本机档案
func (c *Client) UpdateProfile(ctx context.Context, u types.ProfileUpdate) (types.Profile, error) {
	if err := c.usable(); err != nil {
		return types.Profile{}, err
	}
	return c.profiles.UpdateProfile(ctx, u)
}

// DeleteProfile 删除本机档案及私钥
func (c *Client) DeleteProfile(ctx context.Context) error {
	if err := c.usable(); err != nil {
		return err
	}
	return c.profiles.DeleteProfile(ctx)
}

// ============================================================================
//                              文档
// ============================================================================

// AddDocument 按内容计算 ID 并登记为本机文档
//
// 需要已有本机档案；运行中的客户端会把文档记入档案。
func (c *Client) AddDocument(ctx context.Context, name string, data []byte) (types.DocumentRef, error) {
	if err := c.usable(); err != nil {
		return types.DocumentRef{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.DocumentRef{}, err
	}
	p, ok := c.profiles.Profile()
	if !ok {
		return types.DocumentRef{}, types.ErrNoProfile
	}

	ref := types.DocumentRef{
		ContentID: contentid.Sum(data),
		Name:      name,
		OwnerID:   p.ID,
		UpdatedAt: c.clock.Now(),
	}
	if err := c.coord.AddDocument(ref); err != nil {
		return types.DocumentRef{}, err
	}
	stored, _ := c.registry.Document(ref.ContentID)
	return stored, nil
}

// ShareDocument 共享文档，target 为空表示广播共享
func (c *Client) ShareDocument(ctx context.Context, cid types.ContentID, target string) (types.DocumentRef, error) {
	if err := c.usable(); err != nil {
		return types.DocumentRef{}, err
	}
	return c.coord.ShareDocument(ctx, cid, target)
}

// VerifyDocument 标记文档已验证
func (c *Client) VerifyDocument(cid types.ContentID) (types.DocumentRef, error) {
	if err := c.usable(); err != nil {
		return types.DocumentRef{}, err
	}
	return c.coord.VerifyDocument(cid)
}

// ============================================================================
//                              发现与同步
// ============================================================================

// DiscoverPeers 发现节点，连接不可用时按顺序降级
func (c *Client) DiscoverPeers(ctx context.Context) (types.DiscoveryResult, error) {
	if err := c.usable(); err != nil {
		return types.DiscoveryResult{}, err
	}
	return c.coord.DiscoverPeers(ctx)
}

// SyncWithPeer 与单个节点同步
func (c *Client) SyncWithPeer(ctx context.Context, peerID string) error {
	if err := c.running(); err != nil {
		return err
	}
	return c.coord.SyncWithPeer(ctx, peerID)
}

// SyncAll 与全部在线节点同步
func (c *Client) SyncAll(ctx context.Context) error {
	if err := c.running(); err != nil {
		return err
	}
	return c.coord.SyncAll(ctx)
}

// SendMessage 向指定节点发送消息
func (c *Client) SendMessage(ctx context.Context, peerID, body string) error {
	if err := c.running(); err != nil {
		return err
	}
	return c.coord.SendMessage(ctx, peerID, body)
}

// Broadcast 向全网发送消息
func (c *Client) Broadcast(ctx context.Context, body string) error {
	if err := c.running(); err != nil {
		return err
	}
	return c.coord.Broadcast(ctx, body)
}

// usable 本地操作在关闭前均可用
func (c *Client) usable() error {
	if c.State() == StateStopped {
		return ErrClientClosed
	}
	return nil
}

// running 网络操作需要客户端运行中
func (c *Client) running() error {
	switch c.State() {
	case StateCreated:
		return ErrNotStarted
	case StateStopped:
		return ErrClientClosed
	}
	return nil
}
