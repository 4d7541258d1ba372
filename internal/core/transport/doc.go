// Package transport 实现到协调节点的长连接
//
// # 状态机
//
//	Idle ──Connect──▶ Connecting ──握手成功──▶ Open
//	                      ▲                     │ 异常关闭
//	                      │ ReconnectInterval   ▼
//	                      └──────────── Reconnecting
//	                                            │ 超过 MaxReconnectAttempts
//	                                            ▼
//	                                          Failed
//
// 其他转换规则：
//
//   - 远端以 1000 正常关闭：回到 Idle，不重连
//   - Disconnect：任何状态强制回到 Idle，取消等待中的重连与握手
//   - Send：仅 Open 可用，否则立即返回 types.ErrNotConnected
//   - Open 期间每 HeartbeatInterval 发送一次 ping
//
// # 拨号器
//
// 底层连接由 Dialer 提供，按 URL scheme 选择：
//
//   - ws / wss: transport/ws（gorilla/websocket）
//   - memory:   transport/memory（进程内协调节点，测试与演示）
//
// 计时器全部来自注入的 clock.Clock，测试用 clock.Mock 驱动重连与心跳。
package transport
