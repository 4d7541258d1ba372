package registry

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/log"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

var logger = log.Logger("core/registry")

// 编译时检查接口实现
var _ pkgif.Registry = (*Registry)(nil)

// Registry 网格注册表
//
// 两把锁：writeMu 串行化变更并覆盖事件发布，保证同一实体的事件顺序；
// mu 只保护 map 本身，发布前释放，订阅者在回调中可以安全查询注册表。
// 订阅者不得在回调中同步调用变更方法。
type Registry struct {
	writeMu sync.Mutex

	mu    sync.RWMutex
	peers map[string]*types.Peer
	docs  map[types.ContentID]*types.DocumentRef

	bus   pkgif.EventBus
	clock clock.Clock
}

// New 创建注册表
func New(bus pkgif.EventBus, clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		peers: make(map[string]*types.Peer),
		docs:  make(map[types.ContentID]*types.DocumentRef),
		bus:   bus,
		clock: clk,
	}
}

// publish 在持有 writeMu、释放 mu 之后调用
func (r *Registry) publish(events []types.MeshEvent) {
	if r.bus == nil {
		return
	}
	for _, ev := range events {
		r.bus.Publish(ev)
	}
}

// ============================================================================
//                              节点变更
// ============================================================================

// UpsertPeer 插入或合并节点
//
// 已知节点只合并 Status、LastSeenAt、DocumentRefs 与 Synthetic；
// ID 与 PublicKey 一经设置不再覆盖，空的描述字段可以补齐一次。
// 首次提到的文档会以该节点为持有者创建文档引用。
func (r *Registry) UpsertPeer(p types.Peer) error {
	if p.ID == "" {
		return types.ErrEmptyPeerID
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	now := r.clock.Now()
	var events []types.MeshEvent

	r.mu.Lock()
	existing, known := r.peers[p.ID]
	if !known {
		stored := p.Clone()
		if !stored.Status.Valid() {
			stored.Status = types.PeerStatusOnline
		}
		if stored.LastSeenAt.IsZero() {
			stored.LastSeenAt = now
		}
		stored.DocumentRefs = types.UnionContentIDs(nil, stored.DocumentRefs)
		r.peers[p.ID] = &stored
		events = append(events, types.PeerJoined{BaseEvent: types.NewBaseEvent(now), Peer: stored.Clone()})
		logger.Debug("新节点加入", "peer", log.TruncateID(p.ID, 12), "status", stored.Status)
	} else {
		prev := existing.Status
		mergePeer(existing, p)
		events = append(events, types.PeerUpdated{
			BaseEvent:      types.NewBaseEvent(now),
			Peer:           existing.Clone(),
			PreviousStatus: prev,
		})
	}
	events = append(events, r.claimDocumentsLocked(p.ID, p.DocumentRefs, now)...)
	r.mu.Unlock()

	r.publish(events)
	return nil
}

// mergePeer 将 incoming 的可变字段合并到 existing
func mergePeer(existing *types.Peer, incoming types.Peer) {
	if incoming.Status.Valid() {
		existing.Status = incoming.Status
	}
	if incoming.LastSeenAt.After(existing.LastSeenAt) {
		existing.LastSeenAt = incoming.LastSeenAt
	}
	existing.DocumentRefs = types.UnionContentIDs(existing.DocumentRefs, incoming.DocumentRefs)
	// 实时数据覆盖合成数据，合成数据不会降级实时数据
	existing.Synthetic = existing.Synthetic && incoming.Synthetic

	if len(existing.PublicKey) == 0 && len(incoming.PublicKey) > 0 {
		existing.PublicKey = slices.Clone(incoming.PublicKey)
	}
	if existing.DID == "" {
		existing.DID = incoming.DID
	}
	if existing.DisplayName == "" {
		existing.DisplayName = incoming.DisplayName
	}
	if existing.Role == "" {
		existing.Role = incoming.Role
	}
	if existing.Address == "" {
		existing.Address = incoming.Address
	}
}

// claimDocumentsLocked 为首次出现的内容 ID 创建文档引用，调用方持有 mu
func (r *Registry) claimDocumentsLocked(owner string, cids []types.ContentID, now time.Time) []types.MeshEvent {
	var events []types.MeshEvent
	for _, cid := range cids {
		if cid.IsEmpty() {
			continue
		}
		if _, ok := r.docs[cid]; ok {
			continue
		}
		ref := types.DocumentRef{ContentID: cid, OwnerID: owner, UpdatedAt: now}
		r.docs[cid] = &ref
		events = append(events, types.DocumentAdded{BaseEvent: types.NewBaseEvent(now), Document: ref})
	}
	return events
}

// RemovePeer 移除节点
//
// 未知 ID 是空操作，不发布事件。
func (r *Registry) RemovePeer(id string) bool {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	p, ok := r.peers[id]
	if ok {
		delete(r.peers, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}

	logger.Debug("节点移除", "peer", log.TruncateID(id, 12))
	r.publish([]types.MeshEvent{types.PeerLeft{BaseEvent: types.NewBaseEvent(r.clock.Now()), Peer: p.Clone()}})
	return true
}

// MarkStale 将 LastSeenAt 早于 cutoff 的非离线节点置为离线
//
// 节点不会因为存活超时被删除。返回被置为离线的数量。
func (r *Registry) MarkStale(cutoff time.Time) int {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	now := r.clock.Now()
	var events []types.MeshEvent

	r.mu.Lock()
	for _, id := range sortedKeys(r.peers) {
		p := r.peers[id]
		if p.Status == types.PeerStatusOffline || !p.LastSeenAt.Before(cutoff) {
			continue
		}
		prev := p.Status
		p.Status = types.PeerStatusOffline
		events = append(events, types.PeerUpdated{
			BaseEvent:      types.NewBaseEvent(now),
			Peer:           p.Clone(),
			PreviousStatus: prev,
		})
	}
	r.mu.Unlock()

	if len(events) > 0 {
		logger.Debug("节点存活超时", "count", len(events))
	}
	r.publish(events)
	return len(events)
}

// ============================================================================
//                              文档变更
// ============================================================================

// AddDocument 插入或替换文档引用
//
// Verified 与 Shared 不会回退。持有者已知时，内容 ID 并入其文档集合；
// 替换改变了持有者时，内容 ID 从原持有者的集合中移除。
// 文档集合有变化的节点在 document_added 之后各发布一次 peer_updated。
func (r *Registry) AddDocument(ref types.DocumentRef) error {
	if ref.ContentID.IsEmpty() {
		return types.ErrEmptyContentID
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	now := r.clock.Now()
	var prevOwner string

	r.mu.Lock()
	stored := ref
	if existing, ok := r.docs[ref.ContentID]; ok {
		stored = existing.MergeFlags(ref)
		prevOwner = existing.OwnerID
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = now
	}
	r.docs[ref.ContentID] = &stored

	events := []types.MeshEvent{types.DocumentAdded{BaseEvent: types.NewBaseEvent(now), Document: stored}}
	if prevOwner != "" && prevOwner != stored.OwnerID {
		if prev, ok := r.peers[prevOwner]; ok && prev.HasDocument(stored.ContentID) {
			prev.DocumentRefs = slices.DeleteFunc(prev.DocumentRefs, func(c types.ContentID) bool {
				return c == stored.ContentID
			})
			events = append(events, documentsChanged(prev, now))
		}
	}
	if owner, ok := r.peers[stored.OwnerID]; ok && !owner.HasDocument(stored.ContentID) {
		owner.DocumentRefs = append(owner.DocumentRefs, stored.ContentID)
		events = append(events, documentsChanged(owner, now))
	}
	r.mu.Unlock()

	r.publish(events)
	return nil
}

// documentsChanged 节点文档集合变化，状态不变
func documentsChanged(p *types.Peer, now time.Time) types.MeshEvent {
	return types.PeerUpdated{
		BaseEvent:      types.NewBaseEvent(now),
		Peer:           p.Clone(),
		PreviousStatus: p.Status,
	}
}

// MarkShared 标记文档已共享
//
// 每次调用都会刷新 UpdatedAt 并发布 document_shared。
func (r *Registry) MarkShared(cid types.ContentID, target string) (types.DocumentRef, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	now := r.clock.Now()

	r.mu.Lock()
	doc, ok := r.docs[cid]
	if !ok {
		r.mu.Unlock()
		return types.DocumentRef{}, &types.RegistryConflict{Op: "mark_shared", ID: string(cid), Err: types.ErrUnknownDocument}
	}
	doc.Shared = true
	doc.UpdatedAt = now
	out := *doc
	r.mu.Unlock()

	r.publish([]types.MeshEvent{types.DocumentShared{
		BaseEvent:    types.NewBaseEvent(now),
		Document:     out,
		TargetPeerID: target,
	}})
	return out, nil
}

// MarkVerified 标记文档已验证
//
// 幂等：只有从未验证变为已验证时才发布 document_verified。
func (r *Registry) MarkVerified(cid types.ContentID) (types.DocumentRef, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	now := r.clock.Now()

	r.mu.Lock()
	doc, ok := r.docs[cid]
	if !ok {
		r.mu.Unlock()
		return types.DocumentRef{}, &types.RegistryConflict{Op: "mark_verified", ID: string(cid), Err: types.ErrUnknownDocument}
	}
	transitioned := !doc.Verified
	if transitioned {
		doc.Verified = true
		doc.UpdatedAt = now
	}
	out := *doc
	r.mu.Unlock()

	if transitioned {
		r.publish([]types.MeshEvent{types.DocumentVerified{BaseEvent: types.NewBaseEvent(now), Document: out}})
	}
	return out, nil
}

// ============================================================================
//                              查询
// ============================================================================

// Peer 查询节点
func (r *Registry) Peer(id string) (types.Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.peers[id]
	if !ok {
		return types.Peer{}, false
	}
	return p.Clone(), true
}

// Document 查询文档
func (r *Registry) Document(cid types.ContentID) (types.DocumentRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.docs[cid]
	if !ok {
		return types.DocumentRef{}, false
	}
	return *d, true
}

// ListPeers 列出全部节点，按 ID 排序
func (r *Registry) ListPeers() []types.Peer {
	return r.filterPeers(func(types.Peer) bool { return true })
}

// ListOnlinePeers 列出在线节点，按 ID 排序
func (r *Registry) ListOnlinePeers() []types.Peer {
	return r.filterPeers(types.Peer.IsOnline)
}

// ListDocuments 列出全部文档，按内容 ID 排序
func (r *Registry) ListDocuments() []types.DocumentRef {
	return r.filterDocs(func(types.DocumentRef) bool { return true })
}

// ListSharedDocuments 列出已共享文档，按内容 ID 排序
func (r *Registry) ListSharedDocuments() []types.DocumentRef {
	return r.filterDocs(func(d types.DocumentRef) bool { return d.Shared })
}

// PeerCount 返回节点数量
func (r *Registry) PeerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

func (r *Registry) filterPeers(keep func(types.Peer) bool) []types.Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Peer, 0, len(r.peers))
	for _, p := range r.peers {
		if keep(*p) {
			out = append(out, p.Clone())
		}
	}
	slices.SortFunc(out, func(a, b types.Peer) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (r *Registry) filterDocs(keep func(types.DocumentRef) bool) []types.DocumentRef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.DocumentRef, 0, len(r.docs))
	for _, d := range r.docs {
		if keep(*d) {
			out = append(out, *d)
		}
	}
	slices.SortFunc(out, func(a, b types.DocumentRef) int { return cmp.Compare(a.ContentID, b.ContentID) })
	return out
}

func sortedKeys(m map[string]*types.Peer) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
