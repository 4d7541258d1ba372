package kv

import (
	"encoding/json"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/storage/engine"
)

// 键空间前缀
var (
	// PrefixProfile 本机身份档案与签名密钥
	PrefixProfile = []byte("profile/")

	// PrefixPeers 节点缓存
	PrefixPeers = []byte("peers/")
)

// Store 带前缀隔离的 KV 存储
//
// 所有键自动添加 Store 的前缀；返回给调用方的键已去除前缀。
type Store struct {
	engine engine.Engine
	prefix []byte
}

// New 创建新的 KVStore
func New(eng engine.Engine, prefix []byte) *Store {
	p := make([]byte, len(prefix))
	copy(p, prefix)
	return &Store{
		engine: eng,
		prefix: p,
	}
}

// prefixKey 为键添加前缀
func (s *Store) prefixKey(key []byte) []byte {
	if len(s.prefix) == 0 {
		return key
	}
	prefixed := make([]byte, len(s.prefix)+len(key))
	copy(prefixed, s.prefix)
	copy(prefixed[len(s.prefix):], key)
	return prefixed
}

// stripPrefix 从键中移除前缀
func (s *Store) stripPrefix(key []byte) []byte {
	if len(s.prefix) == 0 || len(key) < len(s.prefix) {
		return key
	}
	return key[len(s.prefix):]
}

// ============================================================================
// 基础操作
// ============================================================================

// Get 获取指定键的值
func (s *Store) Get(key []byte) ([]byte, error) {
	return s.engine.Get(s.prefixKey(key))
}

// Put 设置键值对
func (s *Store) Put(key, value []byte) error {
	return s.engine.Put(s.prefixKey(key), value)
}

// Delete 删除指定键
func (s *Store) Delete(key []byte) error {
	return s.engine.Delete(s.prefixKey(key))
}

// GetJSON 获取并反序列化 JSON 值
func (s *Store) GetJSON(key []byte, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return engine.ErrCorrupted
	}
	return nil
}

// PutJSON 序列化并存储 JSON 值
func (s *Store) PutJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(key, data)
}

// ============================================================================
// 事务
// ============================================================================

// Txn 带前缀的读写事务
type Txn struct {
	store *Store
	txn   engine.Txn
}

// Update 在单个原子事务中执行 fn
//
// fn 返回错误时事务中的全部写入被丢弃。
func (s *Store) Update(fn func(txn *Txn) error) error {
	return s.engine.Update(func(txn engine.Txn) error {
		return fn(&Txn{store: s, txn: txn})
	})
}

// Get 在事务中获取值
func (t *Txn) Get(key []byte) ([]byte, error) {
	return t.txn.Get(t.store.prefixKey(key))
}

// Set 在事务中设置值
func (t *Txn) Set(key, value []byte) error {
	return t.txn.Set(t.store.prefixKey(key), value)
}

// Delete 在事务中删除键
func (t *Txn) Delete(key []byte) error {
	return t.txn.Delete(t.store.prefixKey(key))
}

// SetJSON 在事务中序列化并存储 JSON
func (t *Txn) SetJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return t.Set(key, data)
}

// ============================================================================
// 前缀迭代
// ============================================================================

// PrefixScan 扫描指定前缀的所有键值对
//
// 回调函数返回 false 时停止扫描。返回的 key 已去除 Store 的前缀，
// 但保留 subPrefix。
func (s *Store) PrefixScan(subPrefix []byte, fn func(key, value []byte) bool) error {
	iter := s.engine.NewPrefixIterator(s.prefixKey(subPrefix))
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if !fn(s.stripPrefix(iter.Key()), iter.Value()) {
			break
		}
	}
	return iter.Error()
}

// Keys 返回指定前缀的所有键
func (s *Store) Keys(subPrefix []byte) ([][]byte, error) {
	var keys [][]byte
	err := s.PrefixScan(subPrefix, func(key, _ []byte) bool {
		keys = append(keys, key)
		return true
	})
	return keys, err
}

// DeletePrefix 删除指定前缀的所有键
func (s *Store) DeletePrefix(subPrefix []byte) error {
	keys, err := s.Keys(subPrefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}

	batch := s.NewBatch()
	for _, key := range keys {
		batch.Delete(key)
	}
	return batch.Write()
}

// ============================================================================
// 批量操作
// ============================================================================

// Batch 带前缀的批量写入
type Batch struct {
	store *Store
	batch engine.Batch
}

// NewBatch 创建新的批量写入
func (s *Store) NewBatch() *Batch {
	return &Batch{
		store: s,
		batch: s.engine.NewBatch(),
	}
}

// Put 添加写入操作
func (b *Batch) Put(key, value []byte) {
	b.batch.Put(b.store.prefixKey(key), value)
}

// Delete 添加删除操作
func (b *Batch) Delete(key []byte) {
	b.batch.Delete(b.store.prefixKey(key))
}

// PutJSON 添加 JSON 写入操作
func (b *Batch) PutJSON(key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Put(key, data)
	return nil
}

// Write 执行批量写入
func (b *Batch) Write() error {
	return b.batch.Write()
}

// Cancel 放弃批量写入
func (b *Batch) Cancel() {
	b.batch.Cancel()
}

// Size 返回操作数量
func (b *Batch) Size() int {
	return b.batch.Size()
}
