// Package kv 提供带前缀隔离的 KV 存储
//
// Store 在 engine.Engine 之上按前缀划分命名空间：
//   - profile/ - 本机身份档案与签名密钥
//   - peers/   - 节点缓存
//
// # 使用示例
//
//	profiles := kv.New(eng, kv.PrefixProfile)
//	err := profiles.Update(func(txn *kv.Txn) error {
//	    if err := txn.SetJSON([]byte("lairik_profile"), p); err != nil {
//	        return err
//	    }
//	    return txn.Set([]byte("lairik_profile_key"), keyDER)
//	})
package kv
