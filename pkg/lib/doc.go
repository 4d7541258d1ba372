// Package lib 包含基础设施工具库
//
// 本目录包含与架构组件无关的通用工具库：
//
//   - crypto: P-256 签名密钥（生成、编码、签名与验签）
//   - contentid: 文档内容 ID（BLAKE3 + base58）
//   - log: 日志封装
//
// # 与 pkg/ 其他目录的关系
//
// pkg/ 目录包含四类内容：
//
//   - interfaces/: 组件公共接口（架构核心）
//   - types/: 公共类型定义（架构核心）
//   - protocol/: 与协调节点之间的帧格式
//   - lib/: 基础设施工具库（本目录）
//
// # 使用示例
//
//	import (
//	    "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/contentid"
//	    "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/crypto"
//	    "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
//	)
package lib
