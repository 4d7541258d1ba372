package engine

// Engine 存储引擎
//
// 提供键值存储的基本操作、原子更新、批量写入和前缀迭代。
// 线程安全：实现必须保证所有方法的线程安全性。
type Engine interface {
	// Get 获取指定键的值
	//
	// 返回值的副本；键不存在时返回 ErrNotFound。
	Get(key []byte) ([]byte, error)

	// Put 设置键值对，已存在时覆盖
	Put(key, value []byte) error

	// Delete 删除指定键，键不存在时不返回错误
	Delete(key []byte) error

	// Update 在单个读写事务中执行 fn
	//
	// fn 返回 nil 时提交，否则丢弃。提交是原子的：
	// 要么所有写入可见，要么都不可见。
	Update(fn func(txn Txn) error) error

	// NewBatch 创建批量写入
	NewBatch() Batch

	// NewPrefixIterator 创建前缀迭代器
	NewPrefixIterator(prefix []byte) Iterator

	// Start 启动后台任务（GC）
	Start() error

	// Close 关闭引擎，可重复调用
	Close() error
}

// Txn 读写事务
type Txn interface {
	// Get 在事务中读取值
	Get(key []byte) ([]byte, error)

	// Set 在事务中设置值
	Set(key, value []byte) error

	// Delete 在事务中删除键
	Delete(key []byte) error
}

// Batch 批量写入
//
// 适合大量非关联写入；不保证跨条目的原子性，需要原子性时使用 Update。
type Batch interface {
	// Put 添加写入操作
	Put(key, value []byte)

	// Delete 添加删除操作
	Delete(key []byte)

	// Write 执行批量写入
	Write() error

	// Size 返回批量中的操作数量
	Size() int

	// Cancel 放弃未写入的操作
	Cancel()
}

// Iterator 迭代器
//
// 使用方式：
//
//	it := eng.NewPrefixIterator(prefix)
//	defer it.Close()
//	for it.First(); it.Valid(); it.Next() {
//	    key, value := it.Key(), it.Value()
//	}
//	return it.Error()
type Iterator interface {
	// First 移动到第一个键值对
	First() bool

	// Next 移动到下一个键值对
	Next() bool

	// Valid 是否指向有效位置
	Valid() bool

	// Key 返回当前键的副本
	Key() []byte

	// Value 返回当前值的副本
	Value() []byte

	// Close 关闭迭代器
	Close()

	// Error 返回迭代过程中的错误
	Error() error
}
