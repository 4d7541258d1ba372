// Package memory 进程内协调节点
//
// Node 同时实现 transport.Dialer 与 interfaces.StatusQuerier，
// 在不启动网络服务的情况下驱动完整的同步流程。测试通过 Push、Drop、
// Shutdown、Refuse 控制节点行为，通过 Received 检查客户端发出的帧。
package memory
