package statusclient

import (
	"context"

	"go.uber.org/fx"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
)

// 模块元信息
const (
	Version     = "1.0.0"
	Name        = "statusclient"
	Description = "协调节点 HTTP 状态查询"
)

// Params 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Result 导出结果
type Result struct {
	fx.Out

	StatusQuerier pkgif.StatusQuerier
	Impl          *Client
}

// Module 返回状态查询 Fx 模块
//
// 配置关闭状态查询时不应加载本模块，协调器会跳过该降级步骤。
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideClient),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideClient 提供状态查询客户端
func ProvideClient(p Params) (Result, error) {
	cfg := config.DefaultStatusConfig()
	if p.UnifiedCfg != nil {
		cfg = p.UnifiedCfg.Status
	}
	c, err := New(cfg.BaseURL, cfg.Timeout.Duration())
	if err != nil {
		return Result{}, err
	}
	return Result{StatusQuerier: c, Impl: c}, nil
}

func registerLifecycle(lc fx.Lifecycle, c *Client) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return c.Close()
		},
	})
}
