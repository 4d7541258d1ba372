package statusclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
)

var logger = log.Logger("core/statusclient")

// 编译时检查接口实现
var _ pkgif.StatusQuerier = (*Client)(nil)

// StatusPath 协调节点状态查询路径
const StatusPath = "/p2p/status"

// maxBodySize 状态响应最大字节数
const maxBodySize = 1 << 20

var (
	// ErrBadStatus 协调节点返回非 200 响应
	ErrBadStatus = errors.New("statusclient: unexpected response status")

	// ErrInvalidBaseURL 基础地址无效
	ErrInvalidBaseURL = errors.New("statusclient: invalid base url")
)

// Client 协调节点 HTTP 状态查询客户端
type Client struct {
	endpoint string
	client   *http.Client
}

// New 创建客户端
//
// baseURL 形如 http://10.0.0.2:8080，查询地址为 baseURL + /p2p/status。
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + StatusPath,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				MaxIdleConns:    2,
				IdleConnTimeout: 30 * time.Second,
			},
		},
	}, nil
}

// Endpoint 返回查询地址
func (c *Client) Endpoint() string {
	return c.endpoint
}

// QueryStatus 查询协调节点状态
func (c *Client) QueryStatus(ctx context.Context) (protocol.StatusPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return protocol.StatusPayload{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "meshsync/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return protocol.StatusPayload{}, fmt.Errorf("query %s: %w", c.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return protocol.StatusPayload{}, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var st protocol.StatusPayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&st); err != nil {
		return protocol.StatusPayload{}, fmt.Errorf("decode status: %w", err)
	}

	logger.Debug("状态查询完成", "node", st.NodeID, "peers", st.PeerCount)
	return st, nil
}

// Close 释放空闲连接
func (c *Client) Close() error {
	c.client.CloseIdleConnections()
	return nil
}
