// Package profile 本机身份档案
//
// 每个安装实例一份档案，创建时生成 did:lairik:<uuid> 与 P-256 密钥对。
// 档案与私钥保存在 BadgerDB 的 profile/ 前缀下：
//
//	profile/lairik_profile      档案 JSON
//	profile/lairik_profile_key  PKCS#8 私钥
//
// 每次修改先持久化，成功后才更新内存并通过 Broadcaster 发布
// profile_created / profile_updated。持久化失败返回 *types.PersistenceError，
// 内存状态保持不变。
//
// Store 同时订阅 document_added：持有者为本机的文档会记入档案。
package profile
