package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
)

var logger = log.Logger("transport/ws")

// 编译时检查接口实现
var (
	_ transport.Dialer = (*Dialer)(nil)
	_ transport.Conn   = (*Conn)(nil)
)

// Config WebSocket 拨号配置
type Config struct {
	// HandshakeTimeout 握手超时
	HandshakeTimeout time.Duration

	// WriteTimeout 单帧写超时
	WriteTimeout time.Duration

	// MaxFrameSize 入站帧最大字节数
	MaxFrameSize int64

	// Header 握手附加请求头
	Header http.Header
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		MaxFrameSize:     1 << 20,
	}
}

// Dialer gorilla/websocket 拨号器
type Dialer struct {
	cfg    Config
	dialer *websocket.Dialer
}

// NewDialer 创建拨号器
func NewDialer(cfg Config) *Dialer {
	return &Dialer{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Dial 建立 WebSocket 连接
func (d *Dialer) Dial(ctx context.Context, url string) (transport.Conn, error) {
	c, resp, err := d.dialer.DialContext(ctx, url, d.cfg.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			logger.Debug("握手被拒绝", "url", url, "status", resp.StatusCode)
		}
		return nil, err
	}

	if d.cfg.MaxFrameSize > 0 {
		c.SetReadLimit(d.cfg.MaxFrameSize)
	}
	return &Conn{conn: c, writeTimeout: d.cfg.WriteTimeout}, nil
}

// Conn WebSocket 帧连接
type Conn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// ReadFrame 读取下一条文本或二进制消息
func (c *Conn) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		var ce *websocket.CloseError
		if errors.As(err, &ce) {
			return nil, &transport.CloseError{Code: ce.Code, Text: ce.Text}
		}
		return nil, err
	}
	return data, nil
}

// WriteFrame 以文本消息写出一帧
func (c *Conn) WriteFrame(data []byte) error {
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close 发送关闭帧并关闭底层连接
func (c *Conn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		if c.writeTimeout > 0 {
			deadline = time.Now().Add(c.writeTimeout)
		}
		// 对端可能已经断开，关闭帧写失败不影响释放
		_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
