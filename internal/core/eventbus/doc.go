// Package eventbus 实现进程内事件总线
//
// 以 types.EventKind 为键分发 types.MeshEvent，支持：
//   - 同步发布：Publish 返回时所有当前订阅者都已调用
//   - 订阅顺序分发（按类型订阅与全量订阅按订阅先后交错）
//   - 订阅者 panic 隔离：恢复、记录并计数，不影响其他订阅者与发布者
//   - 分发期间取消订阅（写时复制，已取消的订阅者不再被调用）
//   - 通道订阅：非阻塞投递，通道满时丢弃并计数
//
// # 快速开始
//
//	bus := eventbus.NewBus()
//
//	// 按类型订阅
//	unsub := bus.Subscribe(types.EventPeerJoined, func(ev types.MeshEvent) {
//	    e := ev.(types.PeerJoined)
//	    // 处理事件
//	})
//	defer unsub()
//
//	// 泛型辅助
//	eventbus.On(bus, func(e types.DocumentShared) { ... })
//
//	// 通道订阅，把耗时工作交给自己的 goroutine
//	ch, cancel := bus.SubscribeChan(64)
//	go func() {
//	    for ev := range ch { ... }
//	}()
//
// # 并发安全
//
// 订阅表由写锁保护并以副本替换，发布只在读锁下取快照，
// 调用订阅者时不持有任何锁，因此订阅者可以在回调中再次发布。
package eventbus
