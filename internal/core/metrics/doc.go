// Package metrics 同步核心的 Prometheus 指标
//
// 指标注册在模块自己创建的 prometheus.Registry 上，不使用全局注册表，
// 命令行工具通过 promhttp 暴露该注册表。
//
// 采集来源：
//   - 事件总线：实现 eventbus.Observer（发布、订阅者 panic、通道丢弃）
//   - 同步协调器：实现 coordinator.Recorder（帧数量与负载字节、协议错误、
//     连接状态、同步延迟、发现来源）
//   - 注册表：采集时按状态统计节点数量与文档数量
//
// 帧负载流量同时保存一份原子累计值，Bandwidth() 直接读取：
//
//	stats := m.Bandwidth()
//	fmt.Printf("In: %d, Out: %d\n", stats.TotalIn, stats.TotalOut)
package metrics
