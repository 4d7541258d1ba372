package coordinator

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
)

// 模块元信息
const (
	Version     = "1.0.0"
	Name        = "coordinator"
	Description = "同步协调器：入站帧合并、发现降级与出站意图"
)

// Params 协调器依赖参数
type Params struct {
	fx.In

	Transport  pkgif.Transport
	Registry   pkgif.Registry
	EventBus   pkgif.EventBus
	Status     pkgif.StatusQuerier `optional:"true"`
	PeerCache  pkgif.PeerCache     `optional:"true"`
	Clock      clock.Clock         `optional:"true"`
	Recorder   Recorder            `optional:"true"`
	UnifiedCfg *config.Config      `optional:"true"`
}

// Result 协调器导出结果
type Result struct {
	fx.Out

	Coordinator pkgif.Coordinator
	Broadcaster pkgif.Broadcaster
	Impl        *Coordinator
}

// Module 返回协调器 Fx 模块
//
// 生命周期:
//   - OnStart: 获取初始快照并发起连接
//   - OnStop: 断开连接
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideCoordinator),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideCoordinator 提供协调器
func ProvideCoordinator(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	c := New(cfg, Deps{
		Transport: p.Transport,
		Registry:  p.Registry,
		Bus:       p.EventBus,
		Status:    p.Status,
		Cache:     p.PeerCache,
		Clock:     p.Clock,
		Recorder:  p.Recorder,
	})
	return Result{Coordinator: c, Broadcaster: c, Impl: c}, nil
}

func registerLifecycle(lc fx.Lifecycle, c *Coordinator) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return c.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return c.Stop(ctx)
		},
	})
}
