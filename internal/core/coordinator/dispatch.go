package coordinator

import (
	"encoding/json"
	"fmt"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// ============================================================================
//                              入站帧分发
// ============================================================================

// dispatch 处理一个入站帧，返回的错误按协议错误处理
func (c *Coordinator) dispatch(f protocol.Frame) error {
	switch f.Type {
	case protocol.TypeStatus:
		var st protocol.StatusPayload
		if err := f.DecodePayload(&st); err != nil {
			return err
		}
		c.applyStatus(st)
		return nil

	case protocol.TypePeers:
		var pp protocol.PeersPayload
		if err := f.DecodePayload(&pp); err != nil {
			return err
		}
		return c.applyPeers(pp.Peers)

	case protocol.TypePeerLeft:
		var pl protocol.PeerLeftPayload
		if err := f.DecodePayload(&pl); err != nil {
			return err
		}
		if pl.ID == "" {
			return protoErr(f.Type, types.ErrEmptyPeerID)
		}
		c.registry.RemovePeer(pl.ID)
		return nil

	case protocol.TypeDocument:
		var dp protocol.DocumentPayload
		if err := f.DecodePayload(&dp); err != nil {
			return err
		}
		return c.applyDocument(dp)

	case protocol.TypePing:
		// 原样回显 payload
		payload := json.RawMessage(f.Payload)
		if len(payload) == 0 {
			payload = json.RawMessage("{}")
		}
		if err := c.sendIfOpen(protocol.TypePong, payload); err != nil {
			logger.Debug("回复 pong 失败", "error", err)
		}
		return nil

	case protocol.TypePong:
		return nil

	case protocol.TypeSyncAck:
		var sp protocol.SyncPayload
		if err := f.DecodePayload(&sp); err != nil {
			return err
		}
		c.completeSync(sp)
		return nil

	default:
		return protoErr(f.Type, types.ErrUnknownFrameType)
	}
}

// applyStatus 记录协调节点身份并合并其报告的节点，返回合并的节点数
func (c *Coordinator) applyStatus(st protocol.StatusPayload) int {
	c.mu.Lock()
	c.remoteNodeID = st.NodeID
	c.remoteConnected = st.Connected
	c.mu.Unlock()

	if len(st.Peers) == 0 {
		return 0
	}
	if err := c.applyPeers(st.Peers); err != nil {
		logger.Debug("状态快照包含无效节点", "error", err)
	}
	return len(st.Peers)
}

// applyPeers 逐个合并节点
//
// 快照只做合并：本地已知但未出现在快照中的节点保持不变。
// 无效条目被跳过，其余条目照常合并。
func (c *Coordinator) applyPeers(peers []protocol.WirePeer) error {
	now := c.clock.Now()
	var skipped int
	for _, w := range peers {
		if err := c.registry.UpsertPeer(w.ToPeer(now)); err != nil {
			skipped++
		}
	}
	if skipped > 0 {
		return protoErr(protocol.TypePeers, fmt.Errorf("%w: %d entries skipped", types.ErrEmptyPeerID, skipped))
	}
	return nil
}

// applyDocument 合并远端文档
//
// 先以已有标记登记文档，再逐个应用新出现的标记，
// 让 document_verified / document_shared 只在标记首次置位时发布。
func (c *Coordinator) applyDocument(dp protocol.DocumentPayload) error {
	ref := dp.ToDocumentRef(c.clock.Now())
	if ref.ContentID.IsEmpty() {
		return protoErr(protocol.TypeDocument, types.ErrEmptyContentID)
	}

	prior, _ := c.registry.Document(ref.ContentID)
	base := ref
	base.Verified = prior.Verified
	base.Shared = prior.Shared
	if err := c.registry.AddDocument(base); err != nil {
		return protoErr(protocol.TypeDocument, err)
	}

	if ref.Verified && !prior.Verified {
		if _, err := c.registry.MarkVerified(ref.ContentID); err != nil {
			return protoErr(protocol.TypeDocument, err)
		}
	}
	if ref.Shared && !prior.Shared {
		if _, err := c.registry.MarkShared(ref.ContentID, dp.Target); err != nil {
			return protoErr(protocol.TypeDocument, err)
		}
	}
	return nil
}

func protoErr(typ protocol.FrameType, err error) error {
	return &types.ProtocolError{FrameType: typ.String(), Err: err}
}
