// Package storage 提供统一的持久化存储服务
//
// 基于 BadgerDB，为档案存储和节点缓存提供键值后端：
//
//	┌──────────────────────────────────────────┐
//	│        profile        |    peercache     │
//	└──────────────────────────────────────────┘
//	                    │
//	                    ▼
//	┌──────────────────────────────────────────┐
//	│  kv.Store（前缀隔离，原子 Update）        │
//	├──────────────────────────────────────────┤
//	│  engine/badger（BadgerDB 实现）           │
//	└──────────────────────────────────────────┘
//
// # 键空间设计
//
//   - profile/lairik_profile     - 本机身份档案（JSON）
//   - profile/lairik_profile_key - 档案签名私钥（PKCS#8）
//   - peers/<peerID>             - 节点缓存条目（JSON）
//
// 演示模式与测试使用 InMemory 配置，不落盘。
package storage
