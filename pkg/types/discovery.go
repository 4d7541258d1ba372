package types

// DiscoverySource 发现结果的来源
type DiscoverySource string

const (
	// DiscoveryLive 来自实时连接的注册表快照
	DiscoveryLive DiscoverySource = "live"
	// DiscoveryStatus 来自 HTTP 状态查询
	DiscoveryStatus DiscoverySource = "status"
	// DiscoveryCache 来自本地节点缓存
	DiscoveryCache DiscoverySource = "cache"
	// DiscoverySynthetic 本地合成
	DiscoverySynthetic DiscoverySource = "synthetic"
)

// DiscoveryResult 发现结果
//
// Authoritative 为 false 时 Peers 仅供参考，调用方不应据此做信任决策。
// Degraded 表示结果来自降级路径（缓存或合成）。
type DiscoveryResult struct {
	Peers         []Peer
	Source        DiscoverySource
	Authoritative bool
	Degraded      bool
}
