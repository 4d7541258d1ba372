package types

import (
	"slices"
	"time"
)

// ============================================================================
//                              Role - 参与者角色
// ============================================================================

// Role 网格参与者角色
type Role string

const (
	// RoleStudent 学生
	RoleStudent Role = "student"
	// RoleVerifier 验证者
	RoleVerifier Role = "verifier"
	// RoleAdmin 管理员
	RoleAdmin Role = "admin"
	// RoleCampCoordinator 营地协调员
	RoleCampCoordinator Role = "camp_coordinator"
)

// Valid 是否为已知角色
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleVerifier, RoleAdmin, RoleCampCoordinator:
		return true
	default:
		return false
	}
}

// String 返回角色的字符串表示
func (r Role) String() string {
	return string(r)
}

// ============================================================================
//                              PeerStatus - 节点状态
// ============================================================================

// PeerStatus 节点状态
type PeerStatus string

const (
	// PeerStatusOnline 在线
	PeerStatusOnline PeerStatus = "online"
	// PeerStatusBusy 忙碌 - 在线但暂不接受同步
	PeerStatusBusy PeerStatus = "busy"
	// PeerStatusOffline 离线 - 主动离线或超过存活超时
	PeerStatusOffline PeerStatus = "offline"
)

// Valid 是否为已知状态
func (s PeerStatus) Valid() bool {
	return s == PeerStatusOnline || s == PeerStatusBusy || s == PeerStatusOffline
}

// String 返回节点状态的字符串表示
func (s PeerStatus) String() string {
	return string(s)
}

// ============================================================================
//                              Peer - 网格节点
// ============================================================================

// Peer 本节点已知的其他网格参与者
//
// ID 和 PublicKey 一经设置不可修改；创建之后由同步协调器更新的
// 只有 Status、LastSeenAt 和 DocumentRefs。
type Peer struct {
	// ID 节点标识（不透明字符串，不可变）
	ID string `json:"id"`

	// DID 去中心化标识符
	DID string `json:"did,omitempty"`

	// DisplayName 显示名称
	DisplayName string `json:"display_name,omitempty"`

	// Role 角色
	Role Role `json:"role,omitempty"`

	// Status 当前状态
	Status PeerStatus `json:"status"`

	// LastSeenAt 最后活跃时间
	LastSeenAt time.Time `json:"last_seen_at"`

	// PublicKey 公钥（不透明字节，不可变）
	PublicKey []byte `json:"public_key,omitempty"`

	// DocumentRefs 该节点持有的文档内容 ID 集合
	DocumentRefs []ContentID `json:"document_refs,omitempty"`

	// Address 协调节点报告的网络地址（仅供展示）
	Address string `json:"address,omitempty"`

	// Synthetic 本地合成的非权威数据（降级模式）
	Synthetic bool `json:"synthetic,omitempty"`
}

// IsOnline 节点是否在线
func (p Peer) IsOnline() bool {
	return p.Status == PeerStatusOnline
}

// Clone 返回深拷贝，调用方修改副本不会影响原值
func (p Peer) Clone() Peer {
	c := p
	c.PublicKey = slices.Clone(p.PublicKey)
	c.DocumentRefs = slices.Clone(p.DocumentRefs)
	return c
}

// HasDocument 节点是否持有指定文档
func (p Peer) HasDocument(cid ContentID) bool {
	return slices.Contains(p.DocumentRefs, cid)
}
