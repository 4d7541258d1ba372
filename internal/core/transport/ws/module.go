package ws

import (
	"go.uber.org/fx"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport"
)

// Params 依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
}

// Module 返回 WebSocket 拨号器 Fx 模块
//
// 向 "dialers" 组注册 ws 与 wss 两个 scheme。
func Module() fx.Option {
	return fx.Module("transport-ws",
		fx.Provide(ProvideDialers),
	)
}

// ConfigFromUnified 从统一配置创建拨号配置
func ConfigFromUnified(cfg *config.Config) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.HandshakeTimeout = cfg.Transport.DialTimeout.Duration()
	c.WriteTimeout = cfg.Transport.WriteTimeout.Duration()
	c.MaxFrameSize = cfg.Transport.MaxFrameSize
	return c
}

// ProvideDialers 提供 ws/wss 拨号器
func ProvideDialers(p Params) transport.DialerOutput {
	d := NewDialer(ConfigFromUnified(p.UnifiedCfg))
	return transport.DialerOutput{
		Dialers: []transport.SchemeDialer{
			{Scheme: "ws", Dialer: d},
			{Scheme: "wss", Dialer: d},
		},
	}
}
