package profile

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/kv"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
)

// 模块元信息
const (
	Version     = "1.0.0"
	Name        = "profile"
	Description = "本机身份档案：持久化、签名与档案事件广播"
)

// Params 档案存储依赖参数
type Params struct {
	fx.In

	Engine      engine.Engine
	EventBus    pkgif.EventBus
	Broadcaster pkgif.Broadcaster `optional:"true"`
	Clock       clock.Clock       `optional:"true"`
}

// Result 档案存储导出结果
type Result struct {
	fx.Out

	ProfileStore pkgif.ProfileStore
	Signer       pkgif.Signer
	Impl         *Store
}

// Module 返回档案存储 Fx 模块
//
// 档案在构造时加载，依赖方在 OnStart 之前即可读取。
//
// 生命周期:
//   - OnStart: 订阅 document_added
//   - OnStop: 取消订阅
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideStore),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideStore 提供档案存储
func ProvideStore(p Params) Result {
	var opts []Option
	if p.Clock != nil {
		opts = append(opts, WithClock(p.Clock))
	}
	s := New(kv.New(p.Engine, kv.PrefixProfile), p.Broadcaster, opts...)
	if err := s.Load(context.Background()); err != nil {
		// 档案损坏时以无档案状态继续运行
		logger.Error("加载本机档案失败", "error", err)
	}
	return Result{ProfileStore: s, Signer: s, Impl: s}
}

func registerLifecycle(lc fx.Lifecycle, s *Store, bus pkgif.EventBus) {
	var unsub pkgif.Unsubscribe
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			unsub = s.Attach(bus)
			return nil
		},
		OnStop: func(_ context.Context) error {
			if unsub != nil {
				unsub()
			}
			return nil
		},
	})
}
