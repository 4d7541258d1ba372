// Package peercache 节点缓存
//
// 记录最近见过的节点，供连接和状态查询都不可用时的发现降级使用。
// 缓存跟随注册表的 peer_joined / peer_updated 事件更新，
// 进程重启后从 BadgerDB 的 peers/ 前缀恢复。
//
// 缓存中的数据不是权威数据，发现结果会标记为降级。
package peercache
