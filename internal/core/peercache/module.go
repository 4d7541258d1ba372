package peercache

import (
	"context"

	"go.uber.org/fx"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/kv"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
)

// 模块元信息
const (
	Version     = "1.0.0"
	Name        = "peercache"
	Description = "节点缓存：LRU 内存层与 BadgerDB 持久层"
)

// Params 节点缓存依赖参数
type Params struct {
	fx.In

	EventBus   pkgif.EventBus
	Engine     engine.Engine  `optional:"true"`
	UnifiedCfg *config.Config `optional:"true"`
}

// Result 节点缓存导出结果
type Result struct {
	fx.Out

	PeerCache pkgif.PeerCache
	Impl      *Cache
}

// Module 返回节点缓存 Fx 模块
//
// 生命周期:
//   - OnStart: 从存储恢复缓存，启动写回协程，订阅节点事件
//   - OnStop: 取消订阅，提交剩余写回
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideCache),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideCache 提供节点缓存
//
// 没有存储引擎或配置关闭持久化时仅使用内存。
func ProvideCache(p Params) (Result, error) {
	cfg := config.DefaultPeerCacheConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.PeerCache
	}

	var store *kv.Store
	if cfg.Persist && p.Engine != nil {
		store = kv.New(p.Engine, kv.PrefixPeers)
	}

	c, err := New(cfg.Size, store)
	if err != nil {
		return Result{}, err
	}
	return Result{PeerCache: c, Impl: c}, nil
}

func registerLifecycle(lc fx.Lifecycle, c *Cache, bus pkgif.EventBus) {
	var unsub pkgif.Unsubscribe
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			n, err := c.Load()
			if err != nil {
				// 缓存不可用不影响启动
				logger.Warn("恢复节点缓存失败", "error", err)
			}
			c.Start()
			unsub = c.Attach(bus)
			logger.Debug("节点缓存已启动", "restored", n)
			return nil
		},
		OnStop: func(_ context.Context) error {
			if unsub != nil {
				unsub()
			}
			if err := c.Close(); err != nil {
				logger.Warn("节点缓存写回失败", "error", err)
			}
			return nil
		},
	})
}
