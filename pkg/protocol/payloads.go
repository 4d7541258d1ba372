package protocol

import (
	"encoding/base64"
	"time"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// ============================================================================
//                              入站 payload
// ============================================================================

// StatusPayload status 帧与 HTTP 状态查询的响应体
type StatusPayload struct {
	Connected bool       `json:"connected"`
	NodeID    string     `json:"node_id"`
	PeerCount int        `json:"peer_count"`
	Peers     []WirePeer `json:"peers,omitempty"`
}

// PeersPayload peers 帧
type PeersPayload struct {
	Peers []WirePeer `json:"peers"`
	Count int        `json:"count"`
}

// PeerLeftPayload peer_left 帧
type PeerLeftPayload struct {
	ID string `json:"id"`
}

// DocumentPayload document 帧与 document_shared 帧
type DocumentPayload struct {
	CID       string `json:"cid"`
	Name      string `json:"name,omitempty"`
	Owner     string `json:"owner,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Verified  bool   `json:"verified"`
	Shared    bool   `json:"shared"`
	Target    string `json:"target,omitempty"`
}

// SyncPayload sync_request 与 sync_ack 帧
type SyncPayload struct {
	PeerID    string   `json:"peer_id"`
	RequestID string   `json:"request_id,omitempty"`
	Documents []string `json:"documents,omitempty"`
}

// ============================================================================
//                              出站 payload
// ============================================================================

// PingPayload ping/pong 帧
type PingPayload struct {
	Seq uint64 `json:"seq,omitempty"`
}

// DiscoverPayload discover 帧
type DiscoverPayload struct {
	NodeID string `json:"node_id,omitempty"`
}

// ProfilePayload profile_created 与 profile_updated 帧
//
// Signature 为对 Profile JSON 的 ECDSA P-256 签名，SHA-256 摘要，
// 定长 64 字节 R||S（各 32 字节大端），base64 编码，不是 ASN.1 DER。
type ProfilePayload struct {
	Profile   WireProfile `json:"profile"`
	Signature string      `json:"signature,omitempty"`
}

// WireProfile 对外公开的档案字段
//
// 不包含联系方式和元数据。
type WireProfile struct {
	ID        string   `json:"id"`
	DID       string   `json:"did"`
	Name      string   `json:"name"`
	Avatar    string   `json:"avatar,omitempty"`
	Role      string   `json:"role"`
	Documents []string `json:"documents"`
	Verified  bool     `json:"verified"`
	PublicKey string   `json:"publicKey"`
	UpdatedAt int64    `json:"updatedAt"`
}

// MessagePayload message 帧
type MessagePayload struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to,omitempty"`
	Kind    string `json:"type"`
	Content string `json:"content"`
}

// 消息投递方式
const (
	MessageBroadcast = "broadcast"
	MessageDirect    = "direct"
)

// ============================================================================
//                              WirePeer
// ============================================================================

// WirePeer 协调节点报告的节点记录
//
// 协调节点的不同版本只保证 id 存在，其余字段均可能缺失。
type WirePeer struct {
	ID        string   `json:"id"`
	DID       string   `json:"did,omitempty"`
	Name      string   `json:"name,omitempty"`
	Role      string   `json:"role,omitempty"`
	Status    string   `json:"status,omitempty"`
	LastSeen  int64    `json:"lastSeen,omitempty"`
	PublicKey string   `json:"publicKey,omitempty"`
	Documents []string `json:"documents,omitempty"`
	Address   string   `json:"address,omitempty"`
	Connected *bool    `json:"connected,omitempty"`
}

// ToPeer 转换为领域节点
//
// 缺失的状态由 connected 推断，都缺失时视为在线；缺失的 lastSeen 取 now。
func (w WirePeer) ToPeer(now time.Time) types.Peer {
	p := types.Peer{
		ID:          w.ID,
		DID:         w.DID,
		DisplayName: w.Name,
		Role:        types.Role(w.Role),
		Status:      types.PeerStatus(w.Status),
		LastSeenAt:  now,
		PublicKey:   decodeKey(w.PublicKey),
		Address:     w.Address,
	}
	if !p.Role.Valid() {
		p.Role = ""
	}
	if !p.Status.Valid() {
		p.Status = types.PeerStatusOnline
		if w.Connected != nil && !*w.Connected {
			p.Status = types.PeerStatusOffline
		}
	}
	if w.LastSeen > 0 {
		p.LastSeenAt = millisOrSeconds(w.LastSeen)
	}
	for _, d := range w.Documents {
		if d != "" {
			p.DocumentRefs = append(p.DocumentRefs, types.ContentID(d))
		}
	}
	return p
}

// FromPeer 由领域节点构建线上记录
func FromPeer(p types.Peer) WirePeer {
	connected := p.Status != types.PeerStatusOffline
	w := WirePeer{
		ID:        p.ID,
		DID:       p.DID,
		Name:      p.DisplayName,
		Role:      p.Role.String(),
		Status:    p.Status.String(),
		Address:   p.Address,
		Connected: &connected,
	}
	if !p.LastSeenAt.IsZero() {
		w.LastSeen = p.LastSeenAt.UnixMilli()
	}
	if len(p.PublicKey) > 0 {
		w.PublicKey = base64.StdEncoding.EncodeToString(p.PublicKey)
	}
	for _, cid := range p.DocumentRefs {
		w.Documents = append(w.Documents, cid.String())
	}
	return w
}

// ============================================================================
//                              文档与档案转换
// ============================================================================

// ToDocumentRef 转换为文档引用
func (d DocumentPayload) ToDocumentRef(now time.Time) types.DocumentRef {
	ref := types.DocumentRef{
		ContentID: types.ContentID(d.CID),
		Name:      d.Name,
		OwnerID:   d.Owner,
		Verified:  d.Verified,
		Shared:    d.Shared,
		UpdatedAt: now,
	}
	if d.Timestamp > 0 {
		ref.UpdatedAt = millisOrSeconds(d.Timestamp)
	}
	return ref
}

// FromDocumentRef 由文档引用构建 payload
func FromDocumentRef(ref types.DocumentRef, target string) DocumentPayload {
	return DocumentPayload{
		CID:       ref.ContentID.String(),
		Name:      ref.Name,
		Owner:     ref.OwnerID,
		Timestamp: ref.UpdatedAt.UnixMilli(),
		Verified:  ref.Verified,
		Shared:    ref.Shared,
		Target:    target,
	}
}

// FromProfile 由档案构建公开记录
func FromProfile(p types.Profile) WireProfile {
	w := WireProfile{
		ID:        p.ID,
		DID:       p.DID,
		Name:      p.DisplayName,
		Avatar:    p.Avatar,
		Role:      p.Role.String(),
		Documents: make([]string, 0, len(p.DocumentRefs)),
		Verified:  p.Verified,
		PublicKey: base64.StdEncoding.EncodeToString(p.PublicKey),
		UpdatedAt: p.UpdatedAt.UnixMilli(),
	}
	for _, cid := range p.DocumentRefs {
		w.Documents = append(w.Documents, cid.String())
	}
	return w
}

// decodeKey 公钥在线上通常为 base64，无法解码时按原始字节保留
func decodeKey(s string) []byte {
	if s == "" {
		return nil
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b
	}
	return []byte(s)
}

func millisOrSeconds(v int64) time.Time {
	if v < secondsThreshold {
		return time.Unix(v, 0)
	}
	return time.UnixMilli(v)
}
