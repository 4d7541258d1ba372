package badger

import (
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
)

// WriteBatch BadgerDB 批量写入实现
type WriteBatch struct {
	db       *Engine
	batch    *badger.WriteBatch
	count    atomic.Int32
	canceled atomic.Bool
}

// 编译时检查接口实现
var _ engine.Batch = (*WriteBatch)(nil)

// Put 添加一个写入操作到批量中
//
// BadgerDB WriteBatch.Set 的错误会在 Flush 时再次返回。
func (b *WriteBatch) Put(key, value []byte) {
	if b.canceled.Load() || len(key) == 0 {
		return
	}
	_ = b.batch.Set(key, value)
	b.count.Add(1)
}

// Delete 添加一个删除操作到批量中
func (b *WriteBatch) Delete(key []byte) {
	if b.canceled.Load() || len(key) == 0 {
		return
	}
	_ = b.batch.Delete(key)
	b.count.Add(1)
}

// Write 执行批量写入
//
// 写入后批量对象不可再用。
func (b *WriteBatch) Write() error {
	if b.canceled.Load() {
		return engine.ErrClosed
	}
	if b.db.closed.Load() {
		b.Cancel()
		return engine.ErrClosed
	}

	b.canceled.Store(true)
	return convertError(b.batch.Flush())
}

// Size 返回批量中的操作数量
func (b *WriteBatch) Size() int {
	return int(b.count.Load())
}

// Cancel 放弃未写入的操作
func (b *WriteBatch) Cancel() {
	if b.canceled.Swap(true) {
		return
	}
	b.batch.Cancel()
}
