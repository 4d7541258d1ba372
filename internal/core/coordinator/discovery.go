package coordinator

import (
	"context"
	"fmt"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// SyntheticPeerID 本地合成的占位节点 ID
const SyntheticPeerID = "synthetic-local"

// ============================================================================
//                              节点发现
// ============================================================================

// DiscoverPeers 发现节点
//
// 来源按顺序尝试：
//  1. 实时连接：发送 discover 帧，返回注册表快照（权威）
//  2. HTTP 状态查询（权威）
//  3. 节点缓存（非权威，降级）
//  4. 本地合成（非权威，降级，仅在 DegradedMode 开启时）
//
// 降级结果中的节点都带 Synthetic 标记，并以该标记合并进注册表；
// 之后收到的实时数据会清除标记。
func (c *Coordinator) DiscoverPeers(ctx context.Context) (types.DiscoveryResult, error) {
	if res, ok := c.discoverLive(); ok {
		return c.discovered(res), nil
	}

	var lastErr error
	if c.status != nil {
		st, err := c.status.QueryStatus(ctx)
		if err == nil {
			c.applyStatus(st)
			now := c.clock.Now()
			peers := make([]types.Peer, 0, len(st.Peers))
			for _, w := range st.Peers {
				if w.ID != "" {
					peers = append(peers, w.ToPeer(now))
				}
			}
			return c.discovered(types.DiscoveryResult{
				Peers:         peers,
				Source:        types.DiscoveryStatus,
				Authoritative: true,
			}), nil
		}
		lastErr = err
		logger.Debug("状态查询不可用", "error", err)
	}

	if c.cache != nil && c.cache.Len() > 0 {
		peers := c.cache.List()
		for i := range peers {
			peers[i].Synthetic = true
		}
		c.upsertDegraded(peers)
		logger.Warn("发现降级：使用缓存节点", "count", len(peers))
		return c.discovered(types.DiscoveryResult{
			Peers:    peers,
			Source:   types.DiscoveryCache,
			Degraded: true,
		}), nil
	}

	if !c.cfg.DegradedMode {
		if lastErr != nil {
			return types.DiscoveryResult{}, fmt.Errorf("%w: %v", ErrDiscoveryUnavailable, lastErr)
		}
		return types.DiscoveryResult{}, ErrDiscoveryUnavailable
	}

	peers := c.synthesize()
	c.upsertDegraded(peers)
	logger.Warn("发现降级：使用本地合成节点", "count", len(peers))
	return c.discovered(types.DiscoveryResult{
		Peers:    peers,
		Source:   types.DiscoverySynthetic,
		Degraded: true,
	}), nil
}

// discoverLive 连接可用时请求最新节点列表并返回当前快照
//
// 响应的 peers 帧异步到达，通过 peer_joined / peer_updated 事件可见。
func (c *Coordinator) discoverLive() (types.DiscoveryResult, bool) {
	if c.transport.State() != types.ConnStateOpen {
		return types.DiscoveryResult{}, false
	}
	if err := c.send(protocol.TypeDiscover, protocol.DiscoverPayload{NodeID: c.LocalID()}); err != nil {
		logger.Debug("discover 帧发送失败", "error", err)
		return types.DiscoveryResult{}, false
	}
	return types.DiscoveryResult{
		Peers:         c.registry.ListPeers(),
		Source:        types.DiscoveryLive,
		Authoritative: true,
	}, true
}

// synthesize 合成最小节点集
//
// 注册表中已有的节点（来自更早的实时数据）优先；注册表为空时
// 返回一个离线的占位节点，保证结果非空。
func (c *Coordinator) synthesize() []types.Peer {
	known := c.registry.ListPeers()
	if len(known) > 0 {
		for i := range known {
			known[i].Synthetic = true
		}
		return known
	}
	return []types.Peer{{
		ID:          SyntheticPeerID,
		DisplayName: "Offline mesh",
		Status:      types.PeerStatusOffline,
		LastSeenAt:  c.clock.Now(),
		Synthetic:   true,
	}}
}

// upsertDegraded 以非权威标记合并降级数据
func (c *Coordinator) upsertDegraded(peers []types.Peer) {
	for _, p := range peers {
		if err := c.registry.UpsertPeer(p); err != nil {
			logger.Debug("合并降级节点失败", "peer", p.ID, "error", err)
		}
	}
}

func (c *Coordinator) discovered(res types.DiscoveryResult) types.DiscoveryResult {
	c.rec.Discovery(res.Source)
	return res
}
