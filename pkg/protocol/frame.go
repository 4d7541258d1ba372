package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// ============================================================================
//                              帧类型
// ============================================================================

// FrameType 帧类型
type FrameType string

// 入站帧类型
const (
	TypeStatus   FrameType = "status"
	TypePeers    FrameType = "peers"
	TypePeerLeft FrameType = "peer_left"
	TypeDocument FrameType = "document"
	TypeSyncAck  FrameType = "sync_ack"
)

// 存活检测帧类型（双向）
const (
	TypePing FrameType = "ping"
	TypePong FrameType = "pong"
)

// 出站帧类型
const (
	TypeDiscover       FrameType = "discover"
	TypeProfileCreated FrameType = "profile_created"
	TypeProfileUpdated FrameType = "profile_updated"
	TypeDocumentShared FrameType = "document_shared"
	TypeSyncRequest    FrameType = "sync_request"
	TypeMessage        FrameType = "message"
)

// String 返回帧类型字符串
func (t FrameType) String() string {
	return string(t)
}

// IsInbound 是否为协调器处理的入站帧类型
func (t FrameType) IsInbound() bool {
	switch t {
	case TypeStatus, TypePeers, TypePeerLeft, TypeDocument, TypeSyncAck, TypePing, TypePong:
		return true
	default:
		return false
	}
}

// ============================================================================
//                              Frame 帧信封
// ============================================================================

// secondsThreshold 小于该值的时间戳按秒解释（约为 1973 年的毫秒数）
const secondsThreshold = 100_000_000_000

// Frame 帧信封
type Frame struct {
	Type      FrameType       `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
	Sender    string          `json:"sender,omitempty"`
}

// NewFrame 构建帧，payload 序列化为 JSON
func NewFrame(typ FrameType, payload any, now time.Time) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	return Frame{
		Type:      typ,
		Payload:   raw,
		Timestamp: now.UnixMilli(),
	}, nil
}

// Time 返回帧时间，兼容秒与毫秒两种精度
func (f Frame) Time() time.Time {
	if f.Timestamp <= 0 {
		return time.Time{}
	}
	return millisOrSeconds(f.Timestamp)
}

// DecodePayload 将 payload 解码到 v
//
// 失败时返回 *types.ProtocolError。
func (f Frame) DecodePayload(v any) error {
	if len(f.Payload) == 0 || string(f.Payload) == "null" {
		return &types.ProtocolError{FrameType: f.Type.String(), Err: fmt.Errorf("%w: empty payload", types.ErrInvalidFrame)}
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return &types.ProtocolError{FrameType: f.Type.String(), Err: fmt.Errorf("%w: %v", types.ErrInvalidFrame, err)}
	}
	return nil
}

// Validate 校验信封字段
func (f Frame) Validate() error {
	if f.Type == "" {
		return &types.ProtocolError{Err: fmt.Errorf("%w: missing type", types.ErrInvalidFrame)}
	}
	return nil
}

// ============================================================================
//                              编解码
// ============================================================================

// Encode 将帧编码为 JSON
func Encode(f Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// Decode 从 JSON 解码帧
//
// 失败时返回 *types.ProtocolError。
func Decode(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, &types.ProtocolError{Err: fmt.Errorf("%w: %v", types.ErrInvalidFrame, err)}
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}
