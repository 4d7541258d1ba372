package types

import "time"

// ============================================================================
//                              EventKind - 事件类型
// ============================================================================

// EventKind 网格事件类型
type EventKind string

const (
	EventPeerJoined       EventKind = "peer_joined"
	EventPeerLeft         EventKind = "peer_left"
	EventPeerUpdated      EventKind = "peer_updated"
	EventDocumentAdded    EventKind = "document_added"
	EventDocumentShared   EventKind = "document_shared"
	EventDocumentVerified EventKind = "document_verified"
	EventProfileCreated   EventKind = "profile_created"
	EventProfileUpdated   EventKind = "profile_updated"
	EventSyncStarted      EventKind = "sync_started"
	EventSyncCompleted    EventKind = "sync_completed"
	EventMeshDisconnected EventKind = "mesh_disconnected"
	EventConnectionState  EventKind = "connection_state"
)

// AllEventKinds 返回全部事件类型
func AllEventKinds() []EventKind {
	return []EventKind{
		EventPeerJoined, EventPeerLeft, EventPeerUpdated,
		EventDocumentAdded, EventDocumentShared, EventDocumentVerified,
		EventProfileCreated, EventProfileUpdated,
		EventSyncStarted, EventSyncCompleted,
		EventMeshDisconnected, EventConnectionState,
	}
}

// String 返回事件类型字符串
func (k EventKind) String() string {
	return string(k)
}

// ============================================================================
//                              MeshEvent - 封闭事件集合
// ============================================================================

// MeshEvent 网格事件
//
// 事件是注册表状态对外可见的唯一通道。接口通过未导出方法封闭，
// 只有本包定义的事件类型能实现它，消费方可以对 Kind() 做穷尽 switch。
type MeshEvent interface {
	// Kind 返回事件类型
	Kind() EventKind

	// Timestamp 返回事件时间戳
	Timestamp() time.Time

	meshEvent()
}

// BaseEvent 事件公共字段
type BaseEvent struct {
	At time.Time
}

// Timestamp 返回事件时间戳
func (e BaseEvent) Timestamp() time.Time {
	return e.At
}

func (BaseEvent) meshEvent() {}

// NewBaseEvent 创建基础事件
func NewBaseEvent(at time.Time) BaseEvent {
	return BaseEvent{At: at}
}

// ============================================================================
//                              节点事件
// ============================================================================

// PeerJoined 首次获知节点
type PeerJoined struct {
	BaseEvent
	Peer Peer
}

// Kind 实现 MeshEvent
func (PeerJoined) Kind() EventKind { return EventPeerJoined }

// PeerLeft 节点被显式移除
type PeerLeft struct {
	BaseEvent
	Peer Peer
}

// Kind 实现 MeshEvent
func (PeerLeft) Kind() EventKind { return EventPeerLeft }

// PeerUpdated 已知节点的可变字段发生合并
type PeerUpdated struct {
	BaseEvent
	Peer           Peer
	PreviousStatus PeerStatus
}

// Kind 实现 MeshEvent
func (PeerUpdated) Kind() EventKind { return EventPeerUpdated }

// ============================================================================
//                              文档事件
// ============================================================================

// DocumentAdded 文档引用被插入或替换
type DocumentAdded struct {
	BaseEvent
	Document DocumentRef
}

// Kind 实现 MeshEvent
func (DocumentAdded) Kind() EventKind { return EventDocumentAdded }

// DocumentShared 文档被标记为已共享
type DocumentShared struct {
	BaseEvent
	Document DocumentRef
	// TargetPeerID 共享目标，空表示广播共享
	TargetPeerID string
}

// Kind 实现 MeshEvent
func (DocumentShared) Kind() EventKind { return EventDocumentShared }

// DocumentVerified 文档被标记为已验证
type DocumentVerified struct {
	BaseEvent
	Document DocumentRef
}

// Kind 实现 MeshEvent
func (DocumentVerified) Kind() EventKind { return EventDocumentVerified }

// ============================================================================
//                              档案事件
// ============================================================================

// ProfileCreated 本机档案已创建
type ProfileCreated struct {
	BaseEvent
	Profile Profile
}

// Kind 实现 MeshEvent
func (ProfileCreated) Kind() EventKind { return EventProfileCreated }

// ProfileUpdated 本机档案已更新
type ProfileUpdated struct {
	BaseEvent
	Profile Profile
}

// Kind 实现 MeshEvent
func (ProfileUpdated) Kind() EventKind { return EventProfileUpdated }

// ============================================================================
//                              同步与连接事件
// ============================================================================

// SyncStarted 与节点的同步开始
type SyncStarted struct {
	BaseEvent
	PeerID string
}

// Kind 实现 MeshEvent
func (SyncStarted) Kind() EventKind { return EventSyncStarted }

// SyncCompleted 与节点的同步结束，Err 非空表示失败
type SyncCompleted struct {
	BaseEvent
	PeerID string
	Err    error
}

// Kind 实现 MeshEvent
func (SyncCompleted) Kind() EventKind { return EventSyncCompleted }

// MeshDisconnected 与协调节点的连接已离开 Open 状态
type MeshDisconnected struct {
	BaseEvent
	Reason string
}

// Kind 实现 MeshEvent
func (MeshDisconnected) Kind() EventKind { return EventMeshDisconnected }

// ConnectionStateChanged 传输连接状态变化
//
// 传输层和协议层错误只通过该事件向消费方汇总。
type ConnectionStateChanged struct {
	BaseEvent
	State ConnState
	Err   error
}

// Kind 实现 MeshEvent
func (ConnectionStateChanged) Kind() EventKind { return EventConnectionState }

// 编译时检查接口实现
var (
	_ MeshEvent = PeerJoined{}
	_ MeshEvent = PeerLeft{}
	_ MeshEvent = PeerUpdated{}
	_ MeshEvent = DocumentAdded{}
	_ MeshEvent = DocumentShared{}
	_ MeshEvent = DocumentVerified{}
	_ MeshEvent = ProfileCreated{}
	_ MeshEvent = ProfileUpdated{}
	_ MeshEvent = SyncStarted{}
	_ MeshEvent = SyncCompleted{}
	_ MeshEvent = MeshDisconnected{}
	_ MeshEvent = ConnectionStateChanged{}
)
