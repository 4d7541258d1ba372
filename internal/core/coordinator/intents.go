package coordinator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// ============================================================================
//                              档案事件
// ============================================================================

// BroadcastProfileEvent 本地发布档案事件，连接可用时转发为出站帧
//
// 仅支持 profile_created 与 profile_updated。signer 非空时
// 出站帧携带对公开档案 JSON 的签名。
func (c *Coordinator) BroadcastProfileEvent(_ context.Context, ev types.MeshEvent, signer pkgif.Signer) error {
	var (
		typ     protocol.FrameType
		profile types.Profile
	)
	switch e := ev.(type) {
	case types.ProfileCreated:
		typ, profile = protocol.TypeProfileCreated, e.Profile
	case types.ProfileUpdated:
		typ, profile = protocol.TypeProfileUpdated, e.Profile
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.Kind())
	}

	c.SetLocalID(profile.ID)
	c.bus.Publish(ev)

	if c.transport.State() != types.ConnStateOpen {
		return nil
	}
	payload, err := signedProfile(profile, signer)
	if err != nil {
		return err
	}
	return c.sendIfOpen(typ, payload)
}

func signedProfile(p types.Profile, signer pkgif.Signer) (protocol.ProfilePayload, error) {
	payload := protocol.ProfilePayload{Profile: protocol.FromProfile(p)}
	if signer == nil {
		return payload, nil
	}
	data, err := json.Marshal(payload.Profile)
	if err != nil {
		return payload, err
	}
	sig, err := signer.Sign(data)
	if err != nil {
		return payload, fmt.Errorf("sign profile: %w", err)
	}
	payload.Signature = base64.StdEncoding.EncodeToString(sig)
	return payload, nil
}

// ============================================================================
//                              文档意图
// ============================================================================

// AddDocument 登记本地文档
func (c *Coordinator) AddDocument(ref types.DocumentRef) error {
	return c.registry.AddDocument(ref)
}

// ShareDocument 共享文档
//
// 注册表更新成功即返回；连接可用时额外发出 document_shared 帧，
// 发送失败只记录日志。
func (c *Coordinator) ShareDocument(_ context.Context, cid types.ContentID, target string) (types.DocumentRef, error) {
	ref, err := c.registry.MarkShared(cid, target)
	if err != nil {
		return types.DocumentRef{}, err
	}
	if err := c.sendIfOpen(protocol.TypeDocumentShared, protocol.FromDocumentRef(ref, target)); err != nil {
		logger.Warn("document_shared 帧发送失败", "cid", log.TruncateID(cid.String(), 16), "error", err)
	}
	return ref, nil
}

// VerifyDocument 标记文档已验证
func (c *Coordinator) VerifyDocument(cid types.ContentID) (types.DocumentRef, error) {
	return c.registry.MarkVerified(cid)
}

// ============================================================================
//                              同步
// ============================================================================

// SyncWithPeer 与单个在线节点同步
//
// 发布 sync_started，发送 sync_request 并等待对应的 sync_ack；
// 超时（SyncTimeout）、ctx 取消或连接断开都以错误结束，
// 无论成败都发布 sync_completed。
func (c *Coordinator) SyncWithPeer(ctx context.Context, peerID string) error {
	p, ok := c.registry.Peer(peerID)
	if !ok {
		return &types.RegistryConflict{Op: "sync", ID: peerID, Err: types.ErrUnknownPeer}
	}
	if !p.IsOnline() {
		return &types.RegistryConflict{Op: "sync", ID: peerID, Err: types.ErrPeerUnavailable}
	}

	start := c.clock.Now()
	c.bus.Publish(types.SyncStarted{BaseEvent: types.NewBaseEvent(start), PeerID: peerID})

	err := c.awaitSync(ctx, peerID)

	c.rec.SyncFinished(c.clock.Since(start), err)
	c.bus.Publish(types.SyncCompleted{BaseEvent: types.NewBaseEvent(c.clock.Now()), PeerID: peerID, Err: err})
	if err != nil {
		logger.Warn("同步失败", "peer", log.TruncateID(peerID, 12), "error", err)
	}
	return err
}

func (c *Coordinator) awaitSync(ctx context.Context, peerID string) error {
	reqID := uuid.NewString()
	done := make(chan error, 1)

	c.pendingMu.Lock()
	c.pending[reqID] = pendingSync{peerID: peerID, done: done}
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, reqID)
		c.pendingMu.Unlock()
	}()

	// 超时计时器先于请求发出，回复再快也不会错过
	ctx, cancel := c.clock.WithTimeout(ctx, c.cfg.SyncTimeout)
	defer cancel()

	req := protocol.SyncPayload{PeerID: peerID, RequestID: reqID, Documents: c.localDocuments()}
	if err := c.send(protocol.TypeSyncRequest, req); err != nil {
		return fmt.Errorf("sync with %s: %w", peerID, err)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("sync with %s: %w", peerID, ctx.Err())
	}
}

// completeSync 以 sync_ack 完成等待中的同步
//
// 未携带 RequestID 的确认按 PeerID 匹配任一尚未完成的等待者。
func (c *Coordinator) completeSync(ack protocol.SyncPayload) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	if ack.RequestID != "" {
		if ps, ok := c.pending[ack.RequestID]; ok {
			deliver(ps.done, nil)
			return
		}
	} else {
		for _, ps := range c.pending {
			if ps.peerID == ack.PeerID && deliver(ps.done, nil) {
				return
			}
		}
	}
	logger.Debug("收到无匹配请求的 sync_ack", "peer", ack.PeerID, "request", ack.RequestID)
}

// failPending 让全部等待中的同步以 err 结束
func (c *Coordinator) failPending(err error) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for _, ps := range c.pending {
		deliver(ps.done, err)
	}
}

// pendingSync 等待 sync_ack 的请求
type pendingSync struct {
	peerID string
	done   chan error
}

// deliver 非阻塞投递结果，等待者已有结果时返回 false
func deliver(ch chan error, err error) bool {
	select {
	case ch <- err:
		return true
	default:
		return false
	}
}

func (c *Coordinator) localDocuments() []string {
	docs := c.registry.ListDocuments()
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ContentID.String())
	}
	return out
}

// SyncAll 与全部在线节点并发同步
//
// 并发数受 MaxConcurrentSyncs 限制；单个节点失败不影响其他节点，
// 返回合并后的错误。
func (c *Coordinator) SyncAll(ctx context.Context) error {
	peers := c.registry.ListOnlinePeers()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs error
	)
	g.SetLimit(c.cfg.MaxConcurrentSyncs)
	for _, p := range peers {
		id := p.ID
		g.Go(func() error {
			if err := c.SyncWithPeer(ctx, id); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// ============================================================================
//                              消息
// ============================================================================

// SendMessage 向指定节点发送消息
func (c *Coordinator) SendMessage(_ context.Context, peerID, body string) error {
	if _, ok := c.registry.Peer(peerID); !ok {
		return &types.RegistryConflict{Op: "send_message", ID: peerID, Err: types.ErrUnknownPeer}
	}
	return c.send(protocol.TypeMessage, protocol.MessagePayload{
		ID:      uuid.NewString(),
		From:    c.LocalID(),
		To:      peerID,
		Kind:    protocol.MessageDirect,
		Content: body,
	})
}

// Broadcast 向全网发送消息
func (c *Coordinator) Broadcast(_ context.Context, body string) error {
	return c.send(protocol.TypeMessage, protocol.MessagePayload{
		ID:      uuid.NewString(),
		From:    c.LocalID(),
		Kind:    protocol.MessageBroadcast,
		Content: body,
	})
}
