package coordinator

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/config"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/eventbus"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/peercache"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/registry"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/transport/memory"
	pkgif "github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/interfaces"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/lib/crypto"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/protocol"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

const waitFor = 2 * time.Second

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// ============================================================================
//                              测试夹具
// ============================================================================

// events 记录总线上的全部事件
type events struct {
	mu  sync.Mutex
	all []types.MeshEvent
}

func (e *events) handle(ev types.MeshEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, ev)
}

func (e *events) ofKind(kind types.EventKind) []types.MeshEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []types.MeshEvent
	for _, ev := range e.all {
		if ev.Kind() == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (e *events) count(kind types.EventKind) int {
	return len(e.ofKind(kind))
}

type harness struct {
	node  *memory.Node
	tr    *transport.Transport
	reg   *registry.Registry
	bus   *eventbus.Bus
	clk   *clock.Mock
	coord *Coordinator
	ev    *events
}

type harnessOption func(*Config, *Deps)

func withCache(c pkgif.PeerCache) harnessOption {
	return func(_ *Config, d *Deps) { d.Cache = c }
}

func withStatus(s pkgif.StatusQuerier) harnessOption {
	return func(_ *Config, d *Deps) { d.Status = s }
}

func withoutDegraded() harnessOption {
	return func(c *Config, _ *Deps) { c.DegradedMode = false }
}

func newHarness(t *testing.T, node *memory.Node, opts ...harnessOption) *harness {
	t.Helper()

	h := &harness{node: node, bus: eventbus.NewBus(), clk: clock.NewMock(), ev: &events{}}
	h.clk.Set(t0)
	h.bus.SubscribeAll(h.ev.handle)
	h.reg = registry.New(h.bus, h.clk)

	tcfg := transport.NewConfig()
	tcfg.URL = node.URL()
	tcfg.ReconnectInterval = 10 * time.Millisecond
	tcfg.MaxReconnectAttempts = 2
	h.tr = transport.New(tcfg, node, nil)

	cfg := NewConfig()
	deps := Deps{Transport: h.tr, Registry: h.reg, Bus: h.bus, Clock: h.clk}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}
	h.coord = New(cfg, deps)

	t.Cleanup(func() {
		_ = h.tr.Close()
		_ = h.bus.Close()
	})
	return h
}

// start 启动协调器并等待问候帧处理完成
func (h *harness) start(t *testing.T) {
	t.Helper()
	require.NoError(t, h.coord.Start(context.Background()))
	require.Eventually(t, func() bool {
		return h.tr.State() == types.ConnStateOpen && h.ev.count(types.EventConnectionState) >= 2
	}, waitFor, time.Millisecond)
	// status 与 peers 帧按顺序处理，等待 peers 帧被计入
	require.Eventually(t, func() bool { return h.coord.RemoteNodeID() != "" }, waitFor, time.Millisecond)
}

func (h *harness) push(t *testing.T, typ protocol.FrameType, payload any) {
	t.Helper()
	require.NoError(t, h.node.Push(typ, payload))
}

func wire(id string, status types.PeerStatus) protocol.WirePeer {
	return protocol.WirePeer{ID: id, Status: status.String(), LastSeen: t0.UnixMilli()}
}

// ============================================================================
//                              入站帧
// ============================================================================

func TestStart_SnapshotThenConnect(t *testing.T) {
	node := memory.NewNode("node-1", memory.WithPeers(wire("A", types.PeerStatusOnline), wire("B", types.PeerStatusBusy)))
	h := newHarness(t, node, withStatus(node))
	h.start(t)

	assert.Equal(t, "node-1", h.coord.RemoteNodeID())
	assert.Equal(t, types.ConnStateOpen, h.coord.State())
	require.Eventually(t, func() bool { return len(h.reg.ListPeers()) == 2 }, waitFor, time.Millisecond)

	// 快照与问候帧描述同一批节点：每个节点只有一次 peer_joined
	assert.Equal(t, 2, h.ev.count(types.EventPeerJoined))

	states := h.ev.ofKind(types.EventConnectionState)
	assert.Equal(t, types.ConnStateConnecting, states[0].(types.ConnectionStateChanged).State)
	assert.Equal(t, types.ConnStateOpen, states[1].(types.ConnectionStateChanged).State)
}

func TestStart_SnapshotFailureStillConnects(t *testing.T) {
	node := memory.NewNode("node-1")
	h := newHarness(t, node, withStatus(failingStatus{}))
	h.start(t)
	assert.Equal(t, types.ConnStateOpen, h.coord.State())
}

func TestPeersFrame_MergesWithoutRemoval(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	h.start(t)

	require.NoError(t, h.reg.UpsertPeer(types.Peer{ID: "A", Status: types.PeerStatusOnline}))
	require.NoError(t, h.reg.UpsertPeer(types.Peer{ID: "C", Status: types.PeerStatusOnline}))

	h.push(t, protocol.TypePeers, protocol.PeersPayload{
		Peers: []protocol.WirePeer{wire("A", types.PeerStatusBusy), wire("B", types.PeerStatusOnline)},
		Count: 2,
	})
	require.Eventually(t, func() bool { return len(h.reg.ListPeers()) == 3 }, waitFor, time.Millisecond)

	a, _ := h.reg.Peer("A")
	assert.Equal(t, types.PeerStatusBusy, a.Status)
	c, ok := h.reg.Peer("C")
	require.True(t, ok)
	assert.Equal(t, types.PeerStatusOnline, c.Status)
}

func TestPeerLeftFrame(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1", memory.WithPeers(wire("A", types.PeerStatusOnline))))
	h.start(t)
	require.Eventually(t, func() bool { _, ok := h.reg.Peer("A"); return ok }, waitFor, time.Millisecond)

	h.push(t, protocol.TypePeerLeft, protocol.PeerLeftPayload{ID: "unknown"})
	h.push(t, protocol.TypePeerLeft, protocol.PeerLeftPayload{ID: "A"})
	require.Eventually(t, func() bool { _, ok := h.reg.Peer("A"); return !ok }, waitFor, time.Millisecond)
	assert.Equal(t, 1, h.ev.count(types.EventPeerLeft))
}

func TestDocumentFrame_FlagsAreMonotonic(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	h.start(t)

	h.push(t, protocol.TypeDocument, protocol.DocumentPayload{CID: "bafy1", Owner: "A", Verified: true, Shared: true, Target: "B"})
	require.Eventually(t, func() bool { return h.ev.count(types.EventDocumentShared) == 1 }, waitFor, time.Millisecond)
	assert.Equal(t, 1, h.ev.count(types.EventDocumentAdded))
	assert.Equal(t, 1, h.ev.count(types.EventDocumentVerified))
	shared := h.ev.ofKind(types.EventDocumentShared)[0].(types.DocumentShared)
	assert.Equal(t, "B", shared.TargetPeerID)

	h.push(t, protocol.TypeDocument, protocol.DocumentPayload{CID: "bafy1", Name: "renamed"})
	require.Eventually(t, func() bool { return h.ev.count(types.EventDocumentAdded) == 2 }, waitFor, time.Millisecond)

	doc, ok := h.reg.Document("bafy1")
	require.True(t, ok)
	assert.True(t, doc.Verified)
	assert.True(t, doc.Shared)
	assert.Equal(t, "renamed", doc.Name)
	assert.Equal(t, 1, h.ev.count(types.EventDocumentVerified))
}

func TestMalformedFramesAreDropped(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	h.start(t)

	h.node.PushRaw([]byte("not json"))
	h.push(t, "bogus", map[string]string{"x": "y"})
	h.push(t, protocol.TypePeers, "not an object")
	h.push(t, protocol.TypeDocument, protocol.DocumentPayload{})
	require.Eventually(t, func() bool { return h.coord.ProtocolErrors() == 4 }, waitFor, time.Millisecond)

	// 后续帧照常处理
	h.push(t, protocol.TypePeers, protocol.PeersPayload{Peers: []protocol.WirePeer{wire("Z", types.PeerStatusOnline)}})
	require.Eventually(t, func() bool { _, ok := h.reg.Peer("Z"); return ok }, waitFor, time.Millisecond)
	assert.Equal(t, types.ConnStateOpen, h.coord.State())
}

func TestPingIsAnsweredWithPong(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	h.start(t)

	h.push(t, protocol.TypePing, protocol.PingPayload{Seq: 9})
	require.Eventually(t, func() bool { return len(h.node.ReceivedOfType(protocol.TypePong)) == 1 }, waitFor, time.Millisecond)

	var p protocol.PingPayload
	require.NoError(t, h.node.ReceivedOfType(protocol.TypePong)[0].DecodePayload(&p))
	assert.Equal(t, uint64(9), p.Seq)
}

func TestLeavingOpenPublishesMeshDisconnected(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	h.start(t)

	require.NoError(t, h.coord.Stop(context.Background()))
	require.Eventually(t, func() bool { return h.ev.count(types.EventMeshDisconnected) == 1 }, waitFor, time.Millisecond)
	require.Eventually(t, func() bool { return h.coord.State() == types.ConnStateIdle }, waitFor, time.Millisecond)
	assert.False(t, h.coord.RemoteConnected())
}

// ============================================================================
//                              发现
// ============================================================================

type failingStatus struct{}

func (failingStatus) QueryStatus(context.Context) (protocol.StatusPayload, error) {
	return protocol.StatusPayload{}, errors.New("connection refused")
}

type fixedStatus struct{ st protocol.StatusPayload }

func (f fixedStatus) QueryStatus(context.Context) (protocol.StatusPayload, error) {
	return f.st, nil
}

func TestDiscoverPeers_Live(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1", memory.WithPeers(wire("A", types.PeerStatusOnline))))
	h.start(t)
	require.Eventually(t, func() bool { return len(h.reg.ListPeers()) == 1 }, waitFor, time.Millisecond)

	res, err := h.coord.DiscoverPeers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.DiscoveryLive, res.Source)
	assert.True(t, res.Authoritative)
	assert.False(t, res.Degraded)
	assert.Len(t, res.Peers, 1)
	require.Eventually(t, func() bool { return len(h.node.ReceivedOfType(protocol.TypeDiscover)) == 1 }, waitFor, time.Millisecond)
}

func TestDiscoverPeers_StatusFallback(t *testing.T) {
	st := protocol.StatusPayload{NodeID: "node-9", Connected: true, Peers: []protocol.WirePeer{wire("S", types.PeerStatusOnline)}}
	h := newHarness(t, memory.NewNode("node-1"), withStatus(fixedStatus{st}))

	res, err := h.coord.DiscoverPeers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.DiscoveryStatus, res.Source)
	assert.True(t, res.Authoritative)
	require.Len(t, res.Peers, 1)
	assert.False(t, res.Peers[0].Synthetic)
	_, ok := h.reg.Peer("S")
	assert.True(t, ok)
	assert.Equal(t, "node-9", h.coord.RemoteNodeID())
}

func TestDiscoverPeers_CacheFallback(t *testing.T) {
	cache, err := peercache.New(8, nil)
	require.NoError(t, err)
	cache.Put(types.Peer{ID: "cached", Status: types.PeerStatusOnline, LastSeenAt: t0})

	h := newHarness(t, memory.NewNode("node-1"), withStatus(failingStatus{}), withCache(cache))
	res, err := h.coord.DiscoverPeers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.DiscoveryCache, res.Source)
	assert.False(t, res.Authoritative)
	assert.True(t, res.Degraded)
	require.Len(t, res.Peers, 1)
	assert.True(t, res.Peers[0].Synthetic)

	p, ok := h.reg.Peer("cached")
	require.True(t, ok)
	assert.True(t, p.Synthetic)
}

func TestDiscoverPeers_UnreachableYieldsSyntheticSet(t *testing.T) {
	node := memory.NewNode("node-1")
	node.Refuse(memory.ErrRefused)
	h := newHarness(t, node, withStatus(node))

	require.NoError(t, h.coord.Start(context.Background()))

	res, err := h.coord.DiscoverPeers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.DiscoverySynthetic, res.Source)
	assert.False(t, res.Authoritative)
	assert.True(t, res.Degraded)
	require.NotEmpty(t, res.Peers)
	for _, p := range res.Peers {
		assert.True(t, p.Synthetic)
	}
	p, ok := h.reg.Peer(SyntheticPeerID)
	require.True(t, ok)
	assert.True(t, p.Synthetic)
}

func TestDiscoverPeers_DegradedModeOff(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"), withStatus(failingStatus{}), withoutDegraded())

	_, err := h.coord.DiscoverPeers(context.Background())
	assert.ErrorIs(t, err, ErrDiscoveryUnavailable)
	assert.Empty(t, h.reg.ListPeers())
}

func TestDiscoverPeers_LiveDataClearsSynthetic(t *testing.T) {
	node := memory.NewNode("node-1", memory.WithPeers(wire("A", types.PeerStatusOnline)))
	h := newHarness(t, node)
	require.NoError(t, h.reg.UpsertPeer(types.Peer{ID: "A", Status: types.PeerStatusOffline, Synthetic: true}))

	h.start(t)
	require.Eventually(t, func() bool {
		p, _ := h.reg.Peer("A")
		return !p.Synthetic
	}, waitFor, time.Millisecond)
}

// ============================================================================
//                              同步
// ============================================================================

func syncHarness(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, memory.NewNode("node-1", memory.WithPeers(
		wire("A", types.PeerStatusOnline),
		wire("B", types.PeerStatusOnline),
		wire("C", types.PeerStatusBusy),
	)))
	h.start(t)
	require.Eventually(t, func() bool { return len(h.reg.ListPeers()) == 3 }, waitFor, time.Millisecond)
	return h
}

func TestSyncWithPeer(t *testing.T) {
	h := syncHarness(t)
	require.NoError(t, h.coord.AddDocument(types.DocumentRef{ContentID: "bafy1", OwnerID: "me"}))

	require.NoError(t, h.coord.SyncWithPeer(context.Background(), "A"))

	reqs := h.node.ReceivedOfType(protocol.TypeSyncRequest)
	require.Len(t, reqs, 1)
	var sp protocol.SyncPayload
	require.NoError(t, reqs[0].DecodePayload(&sp))
	assert.Equal(t, "A", sp.PeerID)
	assert.NotEmpty(t, sp.RequestID)
	assert.Equal(t, []string{"bafy1"}, sp.Documents)

	assert.Equal(t, 1, h.ev.count(types.EventSyncStarted))
	completed := h.ev.ofKind(types.EventSyncCompleted)
	require.Len(t, completed, 1)
	assert.NoError(t, completed[0].(types.SyncCompleted).Err)
}

func TestSyncWithPeer_Conflicts(t *testing.T) {
	h := syncHarness(t)

	err := h.coord.SyncWithPeer(context.Background(), "nobody")
	assert.True(t, types.IsRegistryConflict(err))
	assert.ErrorIs(t, err, types.ErrUnknownPeer)

	err = h.coord.SyncWithPeer(context.Background(), "C")
	assert.ErrorIs(t, err, types.ErrPeerUnavailable)
	assert.Equal(t, 0, h.ev.count(types.EventSyncStarted))
}

func TestSyncWithPeer_Timeout(t *testing.T) {
	h := syncHarness(t)
	h.node.SetSilent(true)

	errc := make(chan error, 1)
	go func() { errc <- h.coord.SyncWithPeer(context.Background(), "A") }()

	require.Eventually(t, func() bool { return len(h.node.ReceivedOfType(protocol.TypeSyncRequest)) == 1 }, waitFor, time.Millisecond)
	h.clk.Add(NewConfig().SyncTimeout)

	select {
	case err := <-errc:
		assert.Error(t, err)
	case <-time.After(waitFor):
		t.Fatal("sync did not time out")
	}
	completed := h.ev.ofKind(types.EventSyncCompleted)
	require.Len(t, completed, 1)
	assert.Error(t, completed[0].(types.SyncCompleted).Err)
}

func TestSyncWithPeer_AbortedByDisconnect(t *testing.T) {
	h := syncHarness(t)
	h.node.SetSilent(true)

	errc := make(chan error, 1)
	go func() { errc <- h.coord.SyncWithPeer(context.Background(), "A") }()

	require.Eventually(t, func() bool { return len(h.node.ReceivedOfType(protocol.TypeSyncRequest)) == 1 }, waitFor, time.Millisecond)
	h.node.Drop()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, ErrSyncAborted)
	case <-time.After(waitFor):
		t.Fatal("sync was not aborted")
	}
}

func TestSyncWithPeer_NotConnected(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	require.NoError(t, h.reg.UpsertPeer(types.Peer{ID: "A", Status: types.PeerStatusOnline}))

	err := h.coord.SyncWithPeer(context.Background(), "A")
	assert.ErrorIs(t, err, types.ErrNotConnected)
	assert.Equal(t, 1, h.ev.count(types.EventSyncCompleted))
}

func TestSyncAll(t *testing.T) {
	h := syncHarness(t)

	require.NoError(t, h.coord.SyncAll(context.Background()))
	assert.Len(t, h.node.ReceivedOfType(protocol.TypeSyncRequest), 2)
	assert.Equal(t, 2, h.ev.count(types.EventSyncCompleted))
}

// ============================================================================
//                              本地意图
// ============================================================================

func TestShareAndVerifyDocument(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	h.start(t)

	_, err := h.coord.ShareDocument(context.Background(), "missing", "")
	assert.True(t, types.IsRegistryConflict(err))
	_, err = h.coord.VerifyDocument("missing")
	assert.ErrorIs(t, err, types.ErrUnknownDocument)

	require.NoError(t, h.coord.AddDocument(types.DocumentRef{ContentID: "bafy1", OwnerID: "me"}))
	ref, err := h.coord.ShareDocument(context.Background(), "bafy1", "A")
	require.NoError(t, err)
	assert.True(t, ref.Shared)

	require.Eventually(t, func() bool { return len(h.node.ReceivedOfType(protocol.TypeDocumentShared)) == 1 }, waitFor, time.Millisecond)
	var dp protocol.DocumentPayload
	require.NoError(t, h.node.ReceivedOfType(protocol.TypeDocumentShared)[0].DecodePayload(&dp))
	assert.Equal(t, "bafy1", dp.CID)
	assert.Equal(t, "A", dp.Target)

	ref, err = h.coord.VerifyDocument("bafy1")
	require.NoError(t, err)
	assert.True(t, ref.Verified)
}

func TestShareDocument_OfflineAppliesLocally(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	require.NoError(t, h.coord.AddDocument(types.DocumentRef{ContentID: "bafy1"}))

	ref, err := h.coord.ShareDocument(context.Background(), "bafy1", "")
	require.NoError(t, err)
	assert.True(t, ref.Shared)
	assert.Equal(t, 1, h.ev.count(types.EventDocumentShared))
}

type fakeSigner struct{ err error }

func (s fakeSigner) Sign(payload []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte("sig:" + string(payload[:4])), nil
}

func TestBroadcastProfileEvent(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	h.start(t)

	profile := types.Profile{ID: "me", DID: "did:lairik:me", DisplayName: "Tomba", Role: types.RoleStudent, UpdatedAt: t0}
	ev := types.ProfileCreated{BaseEvent: types.NewBaseEvent(t0), Profile: profile}
	require.NoError(t, h.coord.BroadcastProfileEvent(context.Background(), ev, fakeSigner{}))

	assert.Equal(t, 1, h.ev.count(types.EventProfileCreated))
	assert.Equal(t, "me", h.coord.LocalID())
	require.Eventually(t, func() bool { return len(h.node.ReceivedOfType(protocol.TypeProfileCreated)) == 1 }, waitFor, time.Millisecond)

	f := h.node.ReceivedOfType(protocol.TypeProfileCreated)[0]
	assert.Equal(t, "me", f.Sender)
	var pp protocol.ProfilePayload
	require.NoError(t, f.DecodePayload(&pp))
	assert.Equal(t, "did:lairik:me", pp.Profile.DID)
	assert.NotEmpty(t, pp.Signature)

	err := h.coord.BroadcastProfileEvent(context.Background(), types.SyncStarted{}, nil)
	assert.ErrorIs(t, err, ErrUnsupportedEvent)

	err = h.coord.BroadcastProfileEvent(context.Background(),
		types.ProfileUpdated{BaseEvent: types.NewBaseEvent(t0), Profile: profile}, fakeSigner{err: errors.New("no key")})
	assert.Error(t, err)
	assert.Equal(t, 1, h.ev.count(types.EventProfileUpdated), "local publish happens before forwarding")
}

func TestBroadcastProfileEvent_SignatureIsRawRS(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))
	h.start(t)

	key, err := crypto.GenerateKey(nil)
	require.NoError(t, err)

	profile := types.Profile{ID: "me", DID: "did:lairik:me", DisplayName: "Tomba", Role: types.RoleStudent, UpdatedAt: t0}
	ev := types.ProfileCreated{BaseEvent: types.NewBaseEvent(t0), Profile: profile}
	require.NoError(t, h.coord.BroadcastProfileEvent(context.Background(), ev, key))
	require.Eventually(t, func() bool { return len(h.node.ReceivedOfType(protocol.TypeProfileCreated)) == 1 }, waitFor, time.Millisecond)

	var pp protocol.ProfilePayload
	require.NoError(t, h.node.ReceivedOfType(protocol.TypeProfileCreated)[0].DecodePayload(&pp))

	sig, err := base64.StdEncoding.DecodeString(pp.Signature)
	require.NoError(t, err)
	assert.Len(t, sig, crypto.SignatureSize)

	data, err := json.Marshal(pp.Profile)
	require.NoError(t, err)
	ok, err := key.Public().Verify(data, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBroadcastProfileEvent_OfflinePublishesLocally(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1"))

	ev := types.ProfileUpdated{BaseEvent: types.NewBaseEvent(t0), Profile: types.Profile{ID: "me"}}
	require.NoError(t, h.coord.BroadcastProfileEvent(context.Background(), ev, nil))
	assert.Equal(t, 1, h.ev.count(types.EventProfileUpdated))
}

func TestMessages(t *testing.T) {
	h := newHarness(t, memory.NewNode("node-1", memory.WithPeers(wire("A", types.PeerStatusOnline))))

	require.NoError(t, h.reg.UpsertPeer(types.Peer{ID: "A"}))
	assert.ErrorIs(t, h.coord.Broadcast(context.Background(), "hello"), types.ErrNotConnected)

	h.start(t)
	h.coord.SetLocalID("me")

	err := h.coord.SendMessage(context.Background(), "nobody", "hi")
	assert.True(t, types.IsRegistryConflict(err))

	require.NoError(t, h.coord.SendMessage(context.Background(), "A", "hi"))
	require.NoError(t, h.coord.Broadcast(context.Background(), "hello all"))

	msgs := h.node.ReceivedOfType(protocol.TypeMessage)
	require.Len(t, msgs, 2)
	var direct, bcast protocol.MessagePayload
	require.NoError(t, msgs[0].DecodePayload(&direct))
	require.NoError(t, msgs[1].DecodePayload(&bcast))
	assert.Equal(t, protocol.MessageDirect, direct.Kind)
	assert.Equal(t, "A", direct.To)
	assert.Equal(t, "me", direct.From)
	assert.Equal(t, protocol.MessageBroadcast, bcast.Kind)
	assert.Empty(t, bcast.To)
}

// ============================================================================
//                              Fx 模块
// ============================================================================

func TestModule(t *testing.T) {
	node := memory.NewNode("node-1", memory.WithPeers(wire("A", types.PeerStatusOnline)))
	u := config.NewConfig()
	u.Transport = u.Transport.WithURL(node.URL())

	var (
		coord pkgif.Coordinator
		bc    pkgif.Broadcaster
		reg   pkgif.Registry
	)
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(u),
		eventbus.Module(),
		registry.Module(),
		memory.Module(node),
		transport.Module(),
		Module(),
		fx.Populate(&coord, &bc, &reg),
	)
	app.RequireStart()

	require.Eventually(t, func() bool { return coord.State() == types.ConnStateOpen }, waitFor, time.Millisecond)
	require.Eventually(t, func() bool { _, ok := reg.Peer("A"); return ok }, waitFor, time.Millisecond)
	assert.Equal(t, "node-1", coord.RemoteNodeID())
	assert.Same(t, coord, bc)

	app.RequireStop()
	assert.Equal(t, types.ConnStateIdle, coord.State())
}
