// Package types 定义 meshsync 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 meshsync 内部包。
// 所有类型都是纯值类型，用于在各模块间传递数据。
//
// # 与 pkg/protocol 的区别
//
// pkg/types 定义 Go 内部数据结构（内存结构），
// pkg/protocol 定义与协调节点交换的帧（wire format）。
//
// # 文件组织
//
//   - peer.go      - Peer, Role, PeerStatus
//   - document.go  - ContentID, DocumentRef
//   - profile.go   - Profile, ProfileInput, ProfileUpdate
//   - state.go     - ConnState（传输连接状态机）
//   - events.go    - MeshEvent 封闭事件集合
//   - errors.go    - 错误分类（Transport/Protocol/Registry/Persistence）
package types
