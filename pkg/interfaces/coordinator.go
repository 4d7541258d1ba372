package interfaces

import (
	"context"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// Signer 对出站数据签名
type Signer interface {
	Sign(payload []byte) ([]byte, error)
}

// Broadcaster 向本地订阅者和网格广播档案事件
type Broadcaster interface {
	// BroadcastProfileEvent 本地发布事件，连接可用时转发为出站帧
	//
	// signer 非空时出站帧携带签名。
	BroadcastProfileEvent(ctx context.Context, ev types.MeshEvent, signer Signer) error
}

// Coordinator 同步协调器
//
// 把传输层的入站帧翻译为注册表变更，把本地意图翻译为出站帧。
type Coordinator interface {
	Broadcaster

	// Start 获取初始快照并发起连接
	Start(ctx context.Context) error

	// Stop 断开连接
	Stop(ctx context.Context) error

	// DiscoverPeers 发现节点，连接不可用时按顺序降级
	DiscoverPeers(ctx context.Context) (types.DiscoveryResult, error)

	// AddDocument 登记本地文档
	AddDocument(ref types.DocumentRef) error

	// ShareDocument 共享文档，target 为空表示广播共享
	ShareDocument(ctx context.Context, cid types.ContentID, target string) (types.DocumentRef, error)

	// VerifyDocument 标记文档已验证
	VerifyDocument(cid types.ContentID) (types.DocumentRef, error)

	// SyncWithPeer 与单个在线节点同步并等待确认
	SyncWithPeer(ctx context.Context, peerID string) error

	// SyncAll 与全部在线节点并发同步
	SyncAll(ctx context.Context) error

	// SendMessage 向指定节点发送消息
	SendMessage(ctx context.Context, peerID, body string) error

	// Broadcast 向全网发送消息
	Broadcast(ctx context.Context, body string) error

	// State 返回当前连接状态
	State() types.ConnState

	// RemoteNodeID 返回协调节点报告的节点 ID
	RemoteNodeID() string
}
