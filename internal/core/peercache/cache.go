package peercache

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/kv"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("core/peercache")

// 编译时检查接口实现
var _ pkgif.PeerCache = (*Cache)(nil)

// ErrInvalidSize 容量非正
var ErrInvalidSize = errors.New("peercache: size must be positive")

// Cache 节点缓存
//
// 内存层为 LRU；配置了 store 时异步写回持久化存储：
// Put 与淘汰只登记待写条目，由 Start 启动的写回协程按批提交，
// 同一节点的多次变更合并为最后一次。被 LRU 淘汰的条目同时从 store 删除，
// store 的大小因此受容量约束。持久化失败只记录日志，缓存本身不是权威数据。
type Cache struct {
	lru   *lru.Cache[string, types.Peer]
	store *kv.Store

	// loading 期间的淘汰不回写 store
	loading     atomic.Bool
	storeErrors atomic.Uint64

	// pending 待写回条目，值为 nil 表示删除
	pendingMu sync.Mutex
	pending   map[string]*types.Peer

	// flushMu 串行化写回，保证同一节点的写入顺序
	flushMu sync.Mutex

	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	started atomic.Bool
}

// New 创建节点缓存，store 为 nil 表示仅内存
func New(size int, store *kv.Store) (*Cache, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	c := &Cache{
		store:   store,
		pending: make(map[string]*types.Peer),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	l, err := lru.NewWithEvict[string, types.Peer](size, c.onEvict)
	if err != nil {
		return nil, err
	}
	c.lru = l
	return c, nil
}

// Load 从持久化存储恢复缓存
//
// 按 LastSeenAt 升序装入，容量不足时保留最近活跃的节点。
func (c *Cache) Load() (int, error) {
	if c.store == nil {
		return 0, nil
	}

	var peers []types.Peer
	var corrupted [][]byte
	err := c.store.PrefixScan(nil, func(key, value []byte) bool {
		var p types.Peer
		if err := json.Unmarshal(value, &p); err != nil || p.ID == "" {
			corrupted = append(corrupted, slices.Clone(key))
			return true
		}
		peers = append(peers, p)
		return true
	})
	if err != nil {
		return 0, err
	}

	for _, key := range corrupted {
		logger.Warn("丢弃损坏的缓存条目", "key", string(key))
		_ = c.store.Delete(key)
	}

	slices.SortFunc(peers, func(a, b types.Peer) int {
		return a.LastSeenAt.Compare(b.LastSeenAt)
	})

	c.loading.Store(true)
	for _, p := range peers {
		c.lru.Add(p.ID, p)
	}
	c.loading.Store(false)

	// 装入时被挤出的条目不在 LRU 中，从 store 清理
	if extra := len(peers) - c.lru.Len(); extra > 0 {
		for _, p := range peers[:extra] {
			c.deleteStored(p.ID)
		}
	}

	logger.Debug("节点缓存已恢复", "count", c.lru.Len())
	return c.lru.Len(), nil
}

// Put 写入节点，合成节点不缓存
func (c *Cache) Put(p types.Peer) {
	if p.ID == "" || p.Synthetic {
		return
	}
	p = p.Clone()
	c.lru.Add(p.ID, p)
	stored := p.Clone()
	c.enqueue(p.ID, &stored)
}

// Get 读取节点
func (c *Cache) Get(id string) (types.Peer, bool) {
	p, ok := c.lru.Get(id)
	if !ok {
		return types.Peer{}, false
	}
	return p.Clone(), true
}

// List 列出全部缓存节点，按 ID 排序
func (c *Cache) List() []types.Peer {
	values := c.lru.Values()
	out := make([]types.Peer, 0, len(values))
	for _, p := range values {
		out = append(out, p.Clone())
	}
	slices.SortFunc(out, func(a, b types.Peer) int {
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Len 缓存数量
func (c *Cache) Len() int {
	return c.lru.Len()
}

// StoreErrors 持久化失败次数
func (c *Cache) StoreErrors() uint64 {
	return c.storeErrors.Load()
}

// Purge 清空内存与持久化条目
func (c *Cache) Purge() error {
	c.loading.Store(true)
	c.lru.Purge()
	c.loading.Store(false)
	if c.store == nil {
		return nil
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()
	c.pendingMu.Lock()
	clear(c.pending)
	c.pendingMu.Unlock()
	return c.store.DeletePrefix(nil)
}

func (c *Cache) onEvict(id string, _ types.Peer) {
	if c.loading.Load() {
		return
	}
	c.enqueue(id, nil)
}

// ============================================================================
//                              异步写回
// ============================================================================

// Start 启动写回协程，重复调用无效
func (c *Cache) Start() {
	if c.store == nil || !c.started.CompareAndSwap(false, true) {
		return
	}
	go c.writeLoop()
}

// Close 停止写回协程并提交剩余条目
func (c *Cache) Close() error {
	if c.started.Load() {
		select {
		case <-c.stop:
		default:
			close(c.stop)
		}
		<-c.done
	}
	return c.Flush()
}

// Pending 待写回条目数量
func (c *Cache) Pending() int {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	return len(c.pending)
}

// Flush 以单个批量写入提交全部待写条目
func (c *Cache) Flush() error {
	if c.store == nil {
		return nil
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.pendingMu.Lock()
	if len(c.pending) == 0 {
		c.pendingMu.Unlock()
		return nil
	}
	items := c.pending
	c.pending = make(map[string]*types.Peer, len(items))
	c.pendingMu.Unlock()

	batch := c.store.NewBatch()
	for id, p := range items {
		if p == nil {
			batch.Delete([]byte(id))
			continue
		}
		if err := batch.PutJSON([]byte(id), p); err != nil {
			logger.Warn("节点缓存序列化失败", "peer", log.TruncateID(id, 12), "error", err)
		}
	}
	if err := batch.Write(); err != nil {
		c.storeErrors.Add(1)
		if engine.IsClosed(err) {
			logger.Debug("存储已关闭，丢弃缓存写回", "count", len(items))
		} else {
			logger.Warn("节点缓存持久化失败", "count", len(items), "error", err)
		}
		return err
	}
	return nil
}

func (c *Cache) enqueue(id string, p *types.Peer) {
	if c.store == nil {
		return
	}
	c.pendingMu.Lock()
	c.pending[id] = p
	c.pendingMu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Cache) writeLoop() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			return
		case <-c.wake:
			_ = c.Flush()
		}
	}
}

func (c *Cache) deleteStored(id string) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete([]byte(id)); err != nil {
		c.storeErrors.Add(1)
		logger.Debug("删除缓存条目失败", "peer", log.TruncateID(id, 12), "error", err)
	}
}

// ============================================================================
//                              事件订阅
// ============================================================================

// Attach 订阅注册表的节点事件并写入缓存
//
// 离开的节点保留在缓存中，供断线后的发现降级使用。
func (c *Cache) Attach(bus pkgif.EventBus) pkgif.Unsubscribe {
	handler := func(ev types.MeshEvent) {
		switch e := ev.(type) {
		case types.PeerJoined:
			c.Put(e.Peer)
		case types.PeerUpdated:
			c.Put(e.Peer)
		}
	}
	unsubJoined := bus.Subscribe(types.EventPeerJoined, handler)
	unsubUpdated := bus.Subscribe(types.EventPeerUpdated, handler)
	return func() {
		unsubJoined()
		unsubUpdated()
	}
}
