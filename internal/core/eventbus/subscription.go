package eventbus

import (
	"sync"
	"sync/atomic"

	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// ============================================================================
// sink 订阅者
// ============================================================================

// sink 单个订阅者
//
// kind 为空表示全量订阅。id 单调递增，用于保持订阅顺序。
type sink struct {
	id      uint64
	kind    types.EventKind
	h       pkgif.EventHandler
	removed atomic.Bool
}

// ============================================================================
// chanSink 通道订阅
// ============================================================================

// chanSink 把同步回调转为非阻塞的通道投递
type chanSink struct {
	bus    *Bus
	mu     sync.Mutex
	out    chan types.MeshEvent
	closed bool
}

func newChanSink(b *Bus, buf int) *chanSink {
	return &chanSink{
		bus: b,
		out: make(chan types.MeshEvent, buf),
	}
}

// deliver 非阻塞投递，通道满时丢弃
func (c *chanSink) deliver(ev types.MeshEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.out <- ev:
	default:
		dropped := c.bus.dropped.Add(1)
		c.bus.observer.EventDropped(ev.Kind())

		// 每丢弃 100 个事件警告一次，避免日志泛滥
		if dropped%100 == 1 {
			logger.Warn("慢消费者检测",
				"dropped", dropped,
				"kind", ev.Kind(),
				"reason", "subscriber buffer full")
		}
	}
}

// close 关闭通道，之后的投递被忽略
func (c *chanSink) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.out)
}

// ============================================================================
// 泛型辅助
// ============================================================================

// On 按具体事件类型订阅
//
// 事件类型由 E 的零值推断：
//
//	eventbus.On(bus, func(e types.PeerJoined) { ... })
func On[E types.MeshEvent](bus pkgif.EventBus, fn func(E)) pkgif.Unsubscribe {
	var zero E
	return bus.Subscribe(zero.Kind(), func(ev types.MeshEvent) {
		if e, ok := ev.(E); ok {
			fn(e)
		}
	})
}
