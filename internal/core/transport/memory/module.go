package memory

import (
	"go.uber.org/fx"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
)

// Scheme 进程内节点的 URL scheme
const Scheme = "memory"

// Module 返回进程内节点 Fx 模块
//
// 提供 *Node、以 memory scheme 注册拨号器，并把节点作为
// pkgif.StatusQuerier 暴露给协调器。
func Module(node *Node) fx.Option {
	return fx.Module("transport-memory",
		fx.Supply(node),
		fx.Provide(
			ProvideDialers,
			func(n *Node) pkgif.StatusQuerier { return n },
		),
	)
}

// ProvideDialers 提供 memory scheme 拨号器
func ProvideDialers(n *Node) transport.DialerOutput {
	return transport.DialerOutput{
		Dialers: []transport.SchemeDialer{{Scheme: Scheme, Dialer: n}},
	}
}

// URL 返回指向节点的地址
func (n *Node) URL() string {
	return Scheme + "://" + n.id
}
