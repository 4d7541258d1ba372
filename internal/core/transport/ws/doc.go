// Package ws 基于 gorilla/websocket 的协调节点拨号器
//
// 每条消息承载一个 JSON 帧。远端关闭帧转换为 *transport.CloseError，
// 由传输状态机区分正常关闭与异常关闭。
package ws
