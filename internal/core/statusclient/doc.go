// Package statusclient 查询协调节点的 /p2p/status
//
// 协调器在建立 WebSocket 连接前用它获取初始节点快照，
// 连接不可用时作为发现的第二级来源。
package statusclient
