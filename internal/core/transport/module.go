package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
)

// 模块元信息
const (
	Version     = "1.0.0"
	Name        = "transport"
	Description = "到协调节点的长连接：重连、心跳与帧收发"
)

// SchemeDialer 按 URL scheme 注册的拨号器
type SchemeDialer struct {
	Scheme string
	Dialer Dialer
}

// DialerOutput 拨号器模块的 Fx 输出
type DialerOutput struct {
	fx.Out

	Dialers []SchemeDialer `group:"dialers,flatten"`
}

// Params 传输模块依赖参数
type Params struct {
	fx.In

	UnifiedCfg *config.Config `optional:"true"`
	Clock      clock.Clock    `optional:"true"`
	Dialers    []SchemeDialer `group:"dialers"`
}

// Result 传输模块导出结果
type Result struct {
	fx.Out

	Transport pkgif.Transport
	Impl      *Transport
}

// Module 返回传输 Fx 模块
//
// 需要至少一个拨号器模块（ws 或 memory）提供 "dialers" 组。
//
// 生命周期:
//   - OnStop: 断开并释放传输
func Module() fx.Option {
	return fx.Module(Name,
		fx.Provide(ProvideTransport),
		fx.Invoke(registerLifecycle),
	)
}

// ProvideTransport 按配置地址选择拨号器并创建传输
func ProvideTransport(p Params) (Result, error) {
	cfg := ConfigFromUnified(p.UnifiedCfg)

	dialer, err := SelectDialer(cfg.URL, p.Dialers)
	if err != nil {
		return Result{}, err
	}

	t := New(cfg, dialer, p.Clock)
	return Result{Transport: t, Impl: t}, nil
}

// SelectDialer 返回与地址 scheme 匹配的拨号器
func SelectDialer(rawURL string, dialers []SchemeDialer) (Dialer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse transport url: %w", err)
	}
	for _, d := range dialers {
		if strings.EqualFold(d.Scheme, u.Scheme) && d.Dialer != nil {
			return d.Dialer, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoDialer, u.Scheme)
}

func registerLifecycle(lc fx.Lifecycle, t *Transport) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return t.Close()
		},
	})
}
