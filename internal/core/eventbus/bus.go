package eventbus

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件总线已关闭
	ErrClosed = errors.New("eventbus closed")
)

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu sync.RWMutex

	// nodes 事件类型 → 订阅者列表（写时复制）
	nodes map[types.EventKind][]*sink

	// all 全量订阅者列表（写时复制）
	all []*sink

	nextID   atomic.Uint64
	closed   atomic.Bool
	panics   atomic.Int64
	dropped  atomic.Int64
	observer Observer
}

// 编译时检查接口实现
var _ pkgif.EventBus = (*Bus)(nil)

// NewBus 创建新的事件总线
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		nodes:    make(map[types.EventKind][]*sink),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ============================================================================
// EventBus 接口实现
// ============================================================================

// Subscribe 订阅指定类型的事件
func (b *Bus) Subscribe(kind types.EventKind, h pkgif.EventHandler) pkgif.Unsubscribe {
	if h == nil {
		return func() {}
	}

	s := b.newSink(kind, h)

	b.mu.Lock()
	list := b.nodes[kind]
	next := make([]*sink, len(list), len(list)+1)
	copy(next, list)
	b.nodes[kind] = append(next, s)
	b.mu.Unlock()

	return b.unsubscriber(s)
}

// SubscribeAll 订阅全部事件
func (b *Bus) SubscribeAll(h pkgif.EventHandler) pkgif.Unsubscribe {
	if h == nil {
		return func() {}
	}

	s := b.newSink("", h)

	b.mu.Lock()
	next := make([]*sink, len(b.all), len(b.all)+1)
	copy(next, b.all)
	b.all = append(next, s)
	b.mu.Unlock()

	return b.unsubscriber(s)
}

// SubscribeChan 以通道方式订阅
func (b *Bus) SubscribeChan(buf int, kinds ...types.EventKind) (<-chan types.MeshEvent, pkgif.Unsubscribe) {
	if buf <= 0 {
		buf = 16
	}
	cs := newChanSink(b, buf)

	var unsubs []pkgif.Unsubscribe
	if len(kinds) == 0 {
		unsubs = append(unsubs, b.SubscribeAll(cs.deliver))
	} else {
		for _, k := range kinds {
			unsubs = append(unsubs, b.Subscribe(k, cs.deliver))
		}
	}

	var once sync.Once
	return cs.out, func() {
		once.Do(func() {
			for _, u := range unsubs {
				u()
			}
			cs.close()
		})
	}
}

// Publish 发布事件
//
// 同步调用当前订阅者。订阅者列表在分发前取快照，
// 分发期间的取消订阅从下一次 Publish 起生效。总线关闭后为空操作。
func (b *Bus) Publish(ev types.MeshEvent) {
	if ev == nil || b.closed.Load() {
		return
	}

	kind := ev.Kind()
	b.observer.EventPublished(kind)

	b.mu.RLock()
	byKind := b.nodes[kind]
	all := b.all
	b.mu.RUnlock()

	// 按订阅 ID 归并两个列表，保持全局订阅顺序
	i, j := 0, 0
	for i < len(byKind) || j < len(all) {
		var s *sink
		if j >= len(all) || (i < len(byKind) && byKind[i].id < all[j].id) {
			s = byKind[i]
			i++
		} else {
			s = all[j]
			j++
		}
		b.dispatch(s, ev)
	}
}

// Close 关闭总线
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	b.nodes = make(map[types.EventKind][]*sink)
	b.all = nil
	b.mu.Unlock()

	logger.Debug("事件总线已关闭")
	return nil
}

// ============================================================================
// 统计
// ============================================================================

// PanicCount 订阅者 panic 次数
func (b *Bus) PanicCount() int64 {
	return b.panics.Load()
}

// DroppedCount 通道订阅丢弃的事件数
func (b *Bus) DroppedCount() int64 {
	return b.dropped.Load()
}

// SubscriberCount 指定类型的订阅者数量（含全量订阅者）
func (b *Bus) SubscriberCount(kind types.EventKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.nodes[kind]) + len(b.all)
}

// ============================================================================
// 内部方法
// ============================================================================

func (b *Bus) newSink(kind types.EventKind, h pkgif.EventHandler) *sink {
	return &sink{
		id:   b.nextID.Add(1),
		kind: kind,
		h:    h,
	}
}

// dispatch 调用单个订阅者，panic 被恢复并计数
func (b *Bus) dispatch(s *sink, ev types.MeshEvent) {
	defer func() {
		if r := recover(); r != nil {
			n := b.panics.Add(1)
			b.observer.SubscriberPanicked(ev.Kind())
			logger.Error("订阅者 panic",
				"kind", ev.Kind(),
				"subscriber", s.id,
				"panic", fmt.Sprint(r),
				"total", n)
		}
	}()
	s.h(ev)
}

func (b *Bus) unsubscriber(s *sink) pkgif.Unsubscribe {
	return func() {
		if !s.removed.CompareAndSwap(false, true) {
			return
		}
		b.removeSink(s)
	}
}

// removeSink 以副本替换订阅者列表
func (b *Bus) removeSink(s *sink) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if s.kind == "" {
		b.all = without(b.all, s)
		return
	}

	next := without(b.nodes[s.kind], s)
	if len(next) == 0 {
		delete(b.nodes, s.kind)
		return
	}
	b.nodes[s.kind] = next
}

func without(list []*sink, s *sink) []*sink {
	out := make([]*sink, 0, len(list))
	for _, x := range list {
		if x != s {
			out = append(out, x)
		}
	}
	return out
}
