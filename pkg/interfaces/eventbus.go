package interfaces

import "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"

// EventHandler 事件处理函数
//
// 在发布者的 goroutine 中同步调用，耗时工作应自行转交给其他 goroutine。
type EventHandler func(types.MeshEvent)

// Unsubscribe 取消订阅，可重复调用
type Unsubscribe func()

// EventBus 定义事件总线接口
//
// 发布是同步的：Publish 返回时所有当前订阅者都已被调用。
// 同一事件类型的订阅者按订阅顺序调用；某个订阅者 panic 不影响其他订阅者。
type EventBus interface {
	// Subscribe 订阅指定类型的事件
	Subscribe(kind types.EventKind, h EventHandler) Unsubscribe

	// SubscribeAll 订阅全部事件
	SubscribeAll(h EventHandler) Unsubscribe

	// SubscribeChan 以通道方式订阅
	//
	// kinds 为空表示订阅全部事件。通道满时事件被丢弃并计数，
	// 取消订阅后通道被关闭。
	SubscribeChan(buf int, kinds ...types.EventKind) (<-chan types.MeshEvent, Unsubscribe)

	// Publish 发布事件
	Publish(ev types.MeshEvent)

	// Close 关闭总线，之后的 Publish 为空操作
	Close() error
}
