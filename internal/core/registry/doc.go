// Package registry 实现网格注册表
//
// 注册表是节点与文档引用的唯一权威集合，所有状态变化都以 MeshEvent
// 的形式发布到事件总线。
//
// # 合并规则
//
//   - 节点按 ID 插入或合并，ID 与 PublicKey 不可变
//   - 文档按 ContentID 插入或替换，Verified/Shared 不回退
//   - 存活超时只把节点置为离线，不删除
//
// # 并发
//
// 变更串行执行，一次变更连同其事件发布完成后下一次变更才开始；
// 查询只持有读锁并返回按 ID 排序的副本。
package registry
