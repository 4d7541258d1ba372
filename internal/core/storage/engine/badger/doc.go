// Package badger 基于 BadgerDB 的存储引擎实现
//
// 磁盘模式下按 GCInterval 周期回收值日志；InMemory 模式用于演示
// 节点与测试，不落盘也不启动 GC。
//
// # 使用示例
//
//	eng, err := badger.New(engine.DefaultConfig("/var/lib/lairik/meshsync.db"))
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	err = eng.Update(func(txn engine.Txn) error {
//	    if err := txn.Set([]byte("a"), v1); err != nil {
//	        return err
//	    }
//	    return txn.Set([]byte("b"), v2)
//	})
package badger
