// Package interfaces 定义 meshsync 的公共接口
//
// 一个接口文件对应 internal/core 下的一个实现目录：
//   - eventbus.go     - 事件总线（internal/core/eventbus）
//   - transport.go    - 传输连接（internal/core/transport）
//   - registry.go     - 网格注册表（internal/core/registry）
//   - coordinator.go  - 同步协调器（internal/core/coordinator）
//   - profile.go      - 档案存储（internal/core/profile）
//   - peercache.go    - 节点缓存（internal/core/peercache）
//   - status.go       - 状态查询（internal/core/statusclient）
//
// 组件之间只通过这些接口依赖，具体实现由根包的 fx 组合根注入。
package interfaces
