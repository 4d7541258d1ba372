package interfaces

import (
	"time"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// Registry 网格注册表
//
// 持有节点与文档的权威集合。每次变更及其事件发布在下一次变更开始前完成，
// 查询返回按 ID 排序的副本。
type Registry interface {
	// UpsertPeer 插入或合并节点
	UpsertPeer(p types.Peer) error

	// RemovePeer 移除节点，未知 ID 返回 false 且不发布事件
	RemovePeer(id string) bool

	// AddDocument 插入或替换文档引用，标记不会回退
	AddDocument(ref types.DocumentRef) error

	// MarkShared 标记文档已共享，target 为空表示广播共享
	MarkShared(cid types.ContentID, target string) (types.DocumentRef, error)

	// MarkVerified 标记文档已验证
	MarkVerified(cid types.ContentID) (types.DocumentRef, error)

	// Peer 查询节点
	Peer(id string) (types.Peer, bool)

	// Document 查询文档
	Document(cid types.ContentID) (types.DocumentRef, bool)

	// ListPeers 列出全部节点
	ListPeers() []types.Peer

	// ListOnlinePeers 列出在线节点
	ListOnlinePeers() []types.Peer

	// ListDocuments 列出全部文档
	ListDocuments() []types.DocumentRef

	// ListSharedDocuments 列出已共享文档
	ListSharedDocuments() []types.DocumentRef

	// MarkStale 将 LastSeenAt 早于 cutoff 的非离线节点置为离线，返回数量
	MarkStale(cutoff time.Time) int
}
