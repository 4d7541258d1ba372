package registry

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Sweeper 周期性将超时节点置为离线
type Sweeper struct {
	reg          *Registry
	clock        clock.Clock
	interval     time.Duration
	offlineAfter time.Duration

	mu      sync.Mutex
	ticker  *clock.Ticker
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewSweeper 创建存活扫描器
func NewSweeper(reg *Registry, clk clock.Clock, interval, offlineAfter time.Duration) *Sweeper {
	if clk == nil {
		clk = clock.New()
	}
	return &Sweeper{
		reg:          reg,
		clock:        clk,
		interval:     interval,
		offlineAfter: offlineAfter,
	}
}

// Start 启动扫描循环，重复调用无副作用
func (s *Sweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || s.interval <= 0 {
		return
	}
	s.running = true
	s.ticker = s.clock.Ticker(s.interval)
	s.done = make(chan struct{})

	s.wg.Add(1)
	go s.loop(s.ticker, s.done)
}

func (s *Sweeper) loop(ticker *clock.Ticker, done <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.SweepOnce()
		}
	}
}

// SweepOnce 立即执行一次扫描
func (s *Sweeper) SweepOnce() int {
	return s.reg.MarkStale(s.clock.Now().Add(-s.offlineAfter))
}

// Stop 停止扫描循环
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.ticker.Stop()
	close(s.done)
	s.mu.Unlock()

	s.wg.Wait()
}
