// Package meshsync 提供 Lairik Pulse 离线优先身份网格的实时同步核心
//
// 客户端通过一条长连接与本地协调节点通信，维护网格中的节点与文档，
// 管理本机身份档案，并在协调节点不可达时按顺序降级：
// HTTP 状态查询、本地节点缓存、本地合成。
//
// 快速开始：
//
//	c, err := meshsync.New(meshsync.WithPreset("demo"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	if err := c.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	p, _ := c.CreateProfile(ctx, types.ProfileInput{DisplayName: "Thoibi"})
//	ref, _ := c.AddDocument(ctx, "marksheet.pdf", data)
//	_, _ = c.ShareDocument(ctx, ref.ContentID, "")
//
// 组件（均位于 internal/core 下，以 Fx 模块组装）：
//   - eventbus: 同步事件分发
//   - registry: 节点与文档的权威集合，存活扫描
//   - transport: 长连接、重连与心跳（ws 与 memory 拨号器）
//   - coordinator: 入站帧合并、节点发现、同步与出站意图
//   - profile: 本机档案与签名密钥
//   - peercache: 降级发现使用的节点缓存
//   - storage: BadgerDB 持久化
//   - metrics: Prometheus 指标
package meshsync
