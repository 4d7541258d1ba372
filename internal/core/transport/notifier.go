package transport

import "sync"

// notifier 在单个 goroutine 中按投递顺序执行回调
//
// 状态转换在持有传输锁时投递，保证通知顺序与转换顺序一致，
// 回调本身在锁外执行，可以安全调用 Send/State。
type notifier struct {
	mu     sync.Mutex
	queue  []func()
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newNotifier() *notifier {
	n := &notifier{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go n.run()
	return n
}

// post 投递回调，关闭后丢弃
func (n *notifier) post(fn func()) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.queue = append(n.queue, fn)
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *notifier) run() {
	for {
		n.mu.Lock()
		batch := n.queue
		n.queue = nil
		closed := n.closed
		n.mu.Unlock()

		for _, fn := range batch {
			n.call(fn)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}

		select {
		case <-n.wake:
		case <-n.done:
		}
	}
}

func (n *notifier) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("传输回调 panic", "panic", r)
		}
	}()
	fn()
}

// close 停止接收新回调，已投递的回调仍会执行
func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	close(n.done)
}
