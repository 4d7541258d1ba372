// Package coordinator 同步协调器
//
// 协调器位于传输层与注册表之间：
//
//	Transport ──帧──▶ Coordinator ──操作──▶ Registry ──事件──▶ EventBus
//	    ▲                 │
//	    └──────出站帧─────┘  (discover / profile_* / document_shared / sync_request / message)
//
// # 入站
//
// status、peers 合并进注册表（只合并不删除），peer_left 显式移除，
// document 按单调标记合并，ping 回 pong，sync_ack 完成等待中的同步。
// 畸形或未知的帧被丢弃并计数，不影响后续帧。
//
// # 发现降级
//
// DiscoverPeers 依次尝试实时连接、HTTP 状态查询、节点缓存、本地合成。
// 后两者的结果标记为非权威（Degraded，节点带 Synthetic），
// 本地合成只在配置开启降级模式时使用。
//
// # 连接状态
//
// 每次传输状态转换发布 connection_state 事件；离开 Open 时
// 额外发布 mesh_disconnected。
package coordinator
