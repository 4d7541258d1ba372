package meshsync

import (
	"fmt"
	"net/url"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/coordinator"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/eventbus"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/metrics"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/peercache"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/profile"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/registry"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/statusclient"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport/memory"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport/ws"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
)

// ============================================================================
//                              Fx 应用构建
// ============================================================================

// buildFxApp 组装全部模块
//
// 模块依赖关系：
//
//	config ─┬─ storage ─┬─ profile ──(Broadcaster)── coordinator
//	        │           └─ peercache ───────────────────┤
//	        ├─ eventbus ── registry ────────────────────┤
//	        ├─ ws / memory ── transport ────────────────┤
//	        ├─ statusclient / memory ───────────────────┘
//	        └─ metrics (Observer / Recorder)
func buildFxApp(o *options, cfg *config.Config, c *Client) (*fx.App, error) {
	modules := []fx.Option{
		fx.Supply(cfg),
		eventbus.Module(),
		storage.Module(),
		registry.Module(),
		peercache.Module(),
		ws.Module(),
		transport.Module(),
		coordinator.Module(),
		profile.Module(),
		metrics.Module(),
	}

	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	peerSource, err := peerSourceModule(o, cfg)
	if err != nil {
		return nil, err
	}
	if peerSource != nil {
		modules = append(modules, peerSource)
	}

	modules = append(modules,
		fx.Invoke(bindLocalIdentity),
		fx.Invoke(func(cc clientComponents) { c.inject(cc) }),
	)
	modules = append(modules, o.fxOptions...)

	zapLogger := o.fxLogger
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	modules = append(modules, fx.WithLogger(func() fxevent.Logger {
		return &fxevent.ZapLogger{Logger: zapLogger}
	}))

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

// peerSourceModule 选择拨号器之外的节点来源
//
// memory:// 地址使用进程内节点（未提供时按主机名创建并填充演示节点），
// 节点同时充当状态查询源；其他地址在启用时使用 HTTP 状态查询。
func peerSourceModule(o *options, cfg *config.Config) (fx.Option, error) {
	u, err := url.Parse(cfg.Transport.URL)
	if err != nil {
		return nil, fmt.Errorf("parse transport url: %w", err)
	}

	if u.Scheme == memory.Scheme {
		node := o.memoryNode
		if node == nil {
			clk := o.clock
			if clk == nil {
				clk = clock.New()
			}
			node = memory.NewNode(u.Host,
				memory.WithPeers(memory.DemoPeers(clk.Now())...),
				memory.WithClock(clk),
			)
			logger.Info("使用进程内演示节点", "node", u.Host)
		}
		return memory.Module(node), nil
	}

	if cfg.Status.Enabled {
		return statusclient.Module(), nil
	}
	return nil, nil
}

// bindLocalIdentity 把已加载档案的 ID 作为出站帧 sender
//
// 档案在提供阶段加载，此时尚未执行任何 OnStart。
// 之后创建的档案在协调器广播 profile_created 时绑定。
func bindLocalIdentity(coord *coordinator.Coordinator, profiles *profile.Store) {
	if p, ok := profiles.Profile(); ok {
		coord.SetLocalID(p.ID)
	}
}

// clientComponents 注入到 Client 的组件
type clientComponents struct {
	fx.In

	Coordinator *coordinator.Coordinator
	Registry    pkgif.Registry
	EventBus    pkgif.EventBus
	PeerCache   pkgif.PeerCache
	Profiles    *profile.Store
	Engine      engine.Engine
	Prometheus  *prometheus.Registry
	Metrics     *metrics.Metrics `optional:"true"`
	Node        *memory.Node     `optional:"true"`
}
