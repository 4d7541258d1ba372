package interfaces

import "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"

// PeerCache 非权威的节点缓存
//
// 仅用于连接不可用时的发现降级，错误只记录日志不向上返回。
type PeerCache interface {
	// Put 写入节点
	Put(p types.Peer)

	// Get 读取节点
	Get(id string) (types.Peer, bool)

	// List 列出全部缓存节点，按 ID 排序
	List() []types.Peer

	// Len 缓存数量
	Len() int
}
