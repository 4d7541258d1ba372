package transport

import (
	"context"
	"errors"
	"fmt"
)

// WebSocket 关闭码
const (
	// CloseNormalClosure 正常关闭，不触发重连
	CloseNormalClosure = 1000

	// CloseGoingAway 端点离开
	CloseGoingAway = 1001

	// CloseAbnormalClosure 连接异常中断（本地合成，不会出现在线上）
	CloseAbnormalClosure = 1006
)

// Conn 一条已建立的帧连接
//
// ReadFrame 只由一个 goroutine 调用；WriteFrame 由传输层串行化。
type Conn interface {
	// ReadFrame 阻塞读取下一帧原始数据
	//
	// 远端发送关闭帧时返回 *CloseError。
	ReadFrame() ([]byte, error)

	// WriteFrame 写出一帧
	WriteFrame(data []byte) error

	// Close 发送关闭帧并释放连接，可重复调用
	Close(code int, reason string) error
}

// Dialer 建立到协调节点的连接
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// DialerFunc 函数形式的 Dialer
type DialerFunc func(ctx context.Context, url string) (Conn, error)

// Dial 实现 Dialer
func (f DialerFunc) Dial(ctx context.Context, url string) (Conn, error) {
	return f(ctx, url)
}

// CloseError 远端关闭连接
type CloseError struct {
	Code int
	Text string
}

func (e *CloseError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("connection closed (code %d)", e.Code)
	}
	return fmt.Sprintf("connection closed (code %d): %s", e.Code, e.Text)
}

// IsNormalClosure 是否为远端发起的正常关闭
func IsNormalClosure(err error) bool {
	var ce *CloseError
	return errors.As(err, &ce) && ce.Code == CloseNormalClosure
}
