package registry

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
	Name        = "registry"
	Description = "网格注册表：节点与文档的权威集合"
)

// Params 注册表依赖参数
type Params struct {
	fx.In

	EventBus   pkgif.EventBus
	Clock      clock.Clock    `optional:"true"`
	UnifiedCfg *config.Config `optional:"true"`
}

// Result 注册表导出结果
type Result struct {
	fx.Out

	Registry pkgif.Registry
	Impl     *Registry
	Sweeper  *Sweeper
}

// Module 返回注册表 Fx 模块
//
// 生命周期:
//   - OnStart: 启动存活扫描
//   - OnStop: 停止存活扫描
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideRegistry),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideRegistry 提供注册表与存活扫描器
func ProvideRegistry(p Params) Result {
	syncCfg := config.DefaultSyncConfig()
	if p.UnifiedCfg != nil {
		syncCfg = p.UnifiedCfg.Sync
	}

	reg := New(p.EventBus, p.Clock)
	sweeper := NewSweeper(reg, p.Clock, syncCfg.SweepInterval.Duration(), syncCfg.PeerOfflineAfter.Duration())

	return Result{
		Registry: reg,
		Impl:     reg,
		Sweeper:  sweeper,
	}
}

func registerLifecycle(lc fx.Lifecycle, s *Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.Start()
			logger.Debug("存活扫描已启动", "interval", s.interval, "offlineAfter", s.offlineAfter)
			return nil
		},
		OnStop: func(_ context.Context) error {
			s.Stop()
			return nil
		},
	})
}
