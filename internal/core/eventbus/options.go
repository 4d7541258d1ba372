package eventbus

import "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"

// ============================================================================
// 选项
// ============================================================================

// Observer 观察总线运行情况
//
// 由指标模块实现，方法必须快速返回且不得发布事件。
type Observer interface {
	EventPublished(kind types.EventKind)
	SubscriberPanicked(kind types.EventKind)
	EventDropped(kind types.EventKind)
}

// Option 总线选项
type Option func(*Bus)

// WithObserver 设置观察者
func WithObserver(o Observer) Option {
	return func(b *Bus) {
		if o != nil {
			b.observer = o
		}
	}
}

type nopObserver struct{}

func (nopObserver) EventPublished(types.EventKind)     {}
func (nopObserver) SubscriberPanicked(types.EventKind) {}
func (nopObserver) EventDropped(types.EventKind)       {}
