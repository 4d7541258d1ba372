package eventbus

import (
	"sync"
	"testing"
	"time"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// ============================================================================
// 辅助
// ============================================================================

func joined(id string) types.PeerJoined {
	return types.PeerJoined{BaseEvent: types.NewBaseEvent(time.Unix(1, 0)), Peer: types.Peer{ID: id}}
}

func left(id string) types.PeerLeft {
	return types.PeerLeft{BaseEvent: types.NewBaseEvent(time.Unix(1, 0)), Peer: types.Peer{ID: id}}
}

type countingObserver struct {
	mu        sync.Mutex
	published map[types.EventKind]int
	panicked  int
	dropped   int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{published: make(map[types.EventKind]int)}
}

func (o *countingObserver) EventPublished(k types.EventKind) {
	o.mu.Lock()
	o.published[k]++
	o.mu.Unlock()
}

func (o *countingObserver) SubscriberPanicked(types.EventKind) {
	o.mu.Lock()
	o.panicked++
	o.mu.Unlock()
}

func (o *countingObserver) EventDropped(types.EventKind) {
	o.mu.Lock()
	o.dropped++
	o.mu.Unlock()
}

// ============================================================================
// 基础测试
// ============================================================================

// TestBus_PublishByKind 测试按类型分发
func TestBus_PublishByKind(t *testing.T) {
	bus := NewBus()

	var got []string
	bus.Subscribe(types.EventPeerJoined, func(ev types.MeshEvent) {
		got = append(got, ev.(types.PeerJoined).Peer.ID)
	})

	bus.Publish(joined("a"))
	bus.Publish(left("b"))
	bus.Publish(joined("c"))

	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("got %v, want [a c]", got)
	}
}

// TestBus_SubscriptionOrder 测试订阅顺序分发
func TestBus_SubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) { order = append(order, 1) })
	bus.SubscribeAll(func(types.MeshEvent) { order = append(order, 2) })
	bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) { order = append(order, 3) })
	bus.Subscribe(types.EventPeerLeft, func(types.MeshEvent) { order = append(order, 99) })

	bus.Publish(joined("x"))

	want := []int{1, 2, 3}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

// TestBus_Unsubscribe 测试取消订阅
func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	calls := 0
	unsub := bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) { calls++ })

	bus.Publish(joined("a"))
	unsub()
	unsub() // 可重复调用
	bus.Publish(joined("b"))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := bus.SubscriberCount(types.EventPeerJoined); n != 0 {
		t.Errorf("SubscriberCount = %d, want 0", n)
	}
}

// TestBus_UnsubscribeDuringDispatch 测试分发期间取消订阅
func TestBus_UnsubscribeDuringDispatch(t *testing.T) {
	bus := NewBus()

	var second func()
	firstCalls, secondCalls := 0, 0

	bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) {
		firstCalls++
		second()
	})
	second = bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) { secondCalls++ })

	// 本次分发仍送达已取消的订阅者
	bus.Publish(joined("a"))
	if firstCalls != 1 || secondCalls != 1 {
		t.Fatalf("after first publish: firstCalls = %d, secondCalls = %d, want 1, 1", firstCalls, secondCalls)
	}

	bus.Publish(joined("b"))
	if firstCalls != 2 {
		t.Errorf("firstCalls = %d, want 2", firstCalls)
	}
	if secondCalls != 1 {
		t.Errorf("secondCalls = %d, want 1", secondCalls)
	}
}

// TestBus_PanicIsolation 测试订阅者 panic 隔离
func TestBus_PanicIsolation(t *testing.T) {
	obs := newCountingObserver()
	bus := NewBus(WithObserver(obs))

	after := 0
	bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) { panic("boom") })
	bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) { after++ })

	bus.Publish(joined("a"))
	bus.Publish(joined("b"))

	if after != 2 {
		t.Errorf("after = %d, want 2", after)
	}
	if bus.PanicCount() != 2 {
		t.Errorf("PanicCount = %d, want 2", bus.PanicCount())
	}
	if obs.panicked != 2 || obs.published[types.EventPeerJoined] != 2 {
		t.Errorf("observer = %+v", obs)
	}
}

// TestBus_NestedPublish 测试订阅者回调中再次发布
func TestBus_NestedPublish(t *testing.T) {
	bus := NewBus()

	var seen []types.EventKind
	bus.SubscribeAll(func(ev types.MeshEvent) { seen = append(seen, ev.Kind()) })
	bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) {
		bus.Publish(left("a"))
	})

	bus.Publish(joined("a"))

	if len(seen) != 2 || seen[0] != types.EventPeerJoined || seen[1] != types.EventPeerLeft {
		t.Errorf("seen = %v", seen)
	}
}

// TestBus_Close 测试关闭
func TestBus_Close(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.SubscribeAll(func(types.MeshEvent) { calls++ })

	if err := bus.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	bus.Publish(joined("a"))
	if calls != 0 {
		t.Errorf("calls = %d after close, want 0", calls)
	}
}

// TestBus_NilArgs 测试空参数
func TestBus_NilArgs(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(types.EventPeerJoined, nil)()
	bus.SubscribeAll(nil)()
	bus.Publish(nil)
}

// ============================================================================
// 通道订阅
// ============================================================================

// TestBus_SubscribeChan 测试通道订阅
func TestBus_SubscribeChan(t *testing.T) {
	bus := NewBus()

	ch, cancel := bus.SubscribeChan(4, types.EventPeerLeft)

	bus.Publish(joined("a"))
	bus.Publish(left("b"))

	select {
	case ev := <-ch:
		if ev.(types.PeerLeft).Peer.ID != "b" {
			t.Errorf("got %v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel not closed after cancel")
	}

	// 取消后发布不应 panic
	bus.Publish(left("c"))
}

// TestBus_SubscribeChan_Drop 测试慢消费者丢弃
func TestBus_SubscribeChan_Drop(t *testing.T) {
	obs := newCountingObserver()
	bus := NewBus(WithObserver(obs))

	ch, cancel := bus.SubscribeChan(1)
	defer cancel()

	bus.Publish(joined("a"))
	bus.Publish(joined("b"))
	bus.Publish(joined("c"))

	if bus.DroppedCount() != 2 {
		t.Errorf("DroppedCount = %d, want 2", bus.DroppedCount())
	}
	if obs.dropped != 2 {
		t.Errorf("observer dropped = %d, want 2", obs.dropped)
	}
	if ev := <-ch; ev.(types.PeerJoined).Peer.ID != "a" {
		t.Errorf("first event = %v, want a", ev)
	}
}

// TestBus_ConcurrentPublish 测试并发发布
func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	received := 0
	bus.SubscribeAll(func(types.MeshEvent) {
		mu.Lock()
		received++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bus.Publish(joined("p"))
			}
		}()
	}

	// 并发订阅/取消订阅
	for i := 0; i < 50; i++ {
		bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) {})()
	}

	wg.Wait()

	if received != 1000 {
		t.Errorf("received = %d, want 1000", received)
	}
}

// ============================================================================
// 泛型辅助
// ============================================================================

// TestOn 测试泛型订阅
func TestOn(t *testing.T) {
	bus := NewBus()

	var ids []string
	unsub := On(bus, func(e types.PeerJoined) { ids = append(ids, e.Peer.ID) })

	bus.Publish(joined("a"))
	bus.Publish(left("x"))
	unsub()
	bus.Publish(joined("b"))

	if len(ids) != 1 || ids[0] != "a" {
		t.Errorf("ids = %v, want [a]", ids)
	}
}
