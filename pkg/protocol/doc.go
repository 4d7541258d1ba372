// Package protocol 定义与协调节点交换的帧格式
//
// 本包是 meshsync 所有帧类型的单一真相源。所有模块应从此包引用
// 帧类型常量，而不是自行定义字符串。
//
// # 帧信封
//
//	{ "type": string, "payload": object, "timestamp": epoch-ms, "sender"?: string }
//
// # 帧分类
//
// 入站（协调节点 → 本机）：
//   - status     连接状态与节点 ID
//   - peers      节点列表（合并语义，不做快照替换）
//   - peer_left  显式的节点离开
//   - document   文档引用及其标记
//   - ping/pong  存活检测
//   - sync_ack   同步完成确认
//
// 出站（本机 → 协调节点）：
//   - ping/pong、discover、profile_created、profile_updated、
//     document_shared、sync_request、message
//
// 兼容性：协调节点历史版本以秒为单位发送 timestamp，
// Frame.Time 会自动识别秒与毫秒。
package protocol
