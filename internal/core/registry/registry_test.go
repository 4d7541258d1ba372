package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/internal/core/eventbus"
	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

// recorder 记录总线上的全部事件
type recorder struct {
	mu     sync.Mutex
	events []types.MeshEvent
}

func (r *recorder) handle(ev types.MeshEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []types.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.EventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind())
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) last() types.MeshEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.events[len(r.events)-1]
}

func setup(t *testing.T) (*Registry, *recorder, *clock.Mock) {
	t.Helper()
	bus := eventbus.NewBus()
	t.Cleanup(func() { _ = bus.Close() })

	rec := &recorder{}
	bus.SubscribeAll(rec.handle)

	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return New(bus, clk), rec, clk
}

func TestUpsertPeer_InsertThenMerge(t *testing.T) {
	reg, rec, clk := setup(t)

	require.NoError(t, reg.UpsertPeer(types.Peer{
		ID:        "p1",
		Status:    types.PeerStatusOnline,
		PublicKey: []byte{1, 2, 3},
	}))
	assert.Equal(t, []types.EventKind{types.EventPeerJoined}, rec.kinds())

	p, ok := reg.Peer("p1")
	require.True(t, ok)
	assert.Equal(t, clk.Now(), p.LastSeenAt)

	rec.reset()
	later := clk.Now().Add(time.Minute)
	require.NoError(t, reg.UpsertPeer(types.Peer{
		ID:         "p1",
		Status:     types.PeerStatusBusy,
		LastSeenAt: later,
		PublicKey:  []byte{9, 9, 9},
	}))
	assert.Equal(t, []types.EventKind{types.EventPeerUpdated}, rec.kinds())

	upd := rec.last().(types.PeerUpdated)
	assert.Equal(t, types.PeerStatusOnline, upd.PreviousStatus)
	assert.Equal(t, types.PeerStatusBusy, upd.Peer.Status)

	p, _ = reg.Peer("p1")
	assert.Equal(t, []byte{1, 2, 3}, p.PublicKey, "public key is immutable once set")
	assert.Equal(t, later, p.LastSeenAt)
	assert.Equal(t, 1, reg.PeerCount())
}

func TestUpsertPeer_FillsMissingKeyOnce(t *testing.T) {
	reg, _, _ := setup(t)

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1"}))
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", PublicKey: []byte{7}}))
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", PublicKey: []byte{8}}))

	p, _ := reg.Peer("p1")
	assert.Equal(t, []byte{7}, p.PublicKey)
}

func TestUpsertPeer_OlderLastSeenDoesNotRegress(t *testing.T) {
	reg, _, clk := setup(t)

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", LastSeenAt: clk.Now()}))
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", LastSeenAt: clk.Now().Add(-time.Hour)}))

	p, _ := reg.Peer("p1")
	assert.Equal(t, clk.Now(), p.LastSeenAt)
}

func TestUpsertPeer_DocumentsUnionAndClaim(t *testing.T) {
	reg, rec, _ := setup(t)

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", DocumentRefs: []types.ContentID{"a", "b"}}))
	assert.Equal(t, []types.EventKind{
		types.EventPeerJoined, types.EventDocumentAdded, types.EventDocumentAdded,
	}, rec.kinds())

	rec.reset()
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", DocumentRefs: []types.ContentID{"b", "c"}}))
	assert.Equal(t, []types.EventKind{types.EventPeerUpdated, types.EventDocumentAdded}, rec.kinds())

	p, _ := reg.Peer("p1")
	assert.Equal(t, []types.ContentID{"a", "b", "c"}, p.DocumentRefs)

	d, ok := reg.Document("c")
	require.True(t, ok)
	assert.Equal(t, "p1", d.OwnerID)
}

func TestUpsertPeer_LiveClearsSynthetic(t *testing.T) {
	reg, _, _ := setup(t)

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", Synthetic: true}))
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", DisplayName: "Field Officer"}))

	p, _ := reg.Peer("p1")
	assert.False(t, p.Synthetic)
	assert.Equal(t, "Field Officer", p.DisplayName)

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", Synthetic: true}))
	p, _ = reg.Peer("p1")
	assert.False(t, p.Synthetic, "synthetic data never downgrades live data")
}

func TestUpsertPeer_EmptyID(t *testing.T) {
	reg, rec, _ := setup(t)
	assert.ErrorIs(t, reg.UpsertPeer(types.Peer{}), types.ErrEmptyPeerID)
	assert.Empty(t, rec.kinds())
}

func TestRemovePeer(t *testing.T) {
	reg, rec, _ := setup(t)

	assert.False(t, reg.RemovePeer("ghost"))
	assert.Empty(t, rec.kinds())

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1"}))
	rec.reset()

	assert.True(t, reg.RemovePeer("p1"))
	assert.Equal(t, []types.EventKind{types.EventPeerLeft}, rec.kinds())
	assert.Equal(t, "p1", rec.last().(types.PeerLeft).Peer.ID)

	_, ok := reg.Peer("p1")
	assert.False(t, ok)
}

func TestAddDocument_FlagsNeverRegress(t *testing.T) {
	reg, rec, _ := setup(t)

	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "cid1", Name: "aadhaar", Verified: true}))
	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "cid1", Name: "aadhaar-v2"}))

	d, ok := reg.Document("cid1")
	require.True(t, ok)
	assert.True(t, d.Verified)
	assert.Equal(t, "aadhaar-v2", d.Name)
	assert.Equal(t, []types.EventKind{types.EventDocumentAdded, types.EventDocumentAdded}, rec.kinds())

	assert.ErrorIs(t, reg.AddDocument(types.DocumentRef{}), types.ErrEmptyContentID)
}

func TestAddDocument_LinksKnownOwner(t *testing.T) {
	reg, _, _ := setup(t)

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "owner"}))
	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "cid1", OwnerID: "owner"}))

	p, _ := reg.Peer("owner")
	assert.True(t, p.HasDocument("cid1"))
}

func TestAddDocument_OwnerChangeUpdatesBothPeers(t *testing.T) {
	reg, rec, _ := setup(t)

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "old", Status: types.PeerStatusOnline}))
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "new", Status: types.PeerStatusBusy}))
	rec.reset()

	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "cid1", OwnerID: "old"}))
	assert.Equal(t, []types.EventKind{types.EventDocumentAdded, types.EventPeerUpdated}, rec.kinds())
	ev := rec.last().(types.PeerUpdated)
	assert.Equal(t, "old", ev.Peer.ID)
	assert.Equal(t, []types.ContentID{"cid1"}, ev.Peer.DocumentRefs)
	assert.Equal(t, types.PeerStatusOnline, ev.PreviousStatus)

	// 持有者不变时不重复发布
	rec.reset()
	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "cid1", OwnerID: "old", Name: "renamed"}))
	assert.Equal(t, []types.EventKind{types.EventDocumentAdded}, rec.kinds())

	rec.reset()
	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "cid1", OwnerID: "new"}))
	assert.Equal(t, []types.EventKind{
		types.EventDocumentAdded, types.EventPeerUpdated, types.EventPeerUpdated,
	}, rec.kinds())

	oldPeer, _ := reg.Peer("old")
	assert.False(t, oldPeer.HasDocument("cid1"))
	newPeer, _ := reg.Peer("new")
	assert.True(t, newPeer.HasDocument("cid1"))
	assert.Equal(t, "new", rec.last().(types.PeerUpdated).Peer.ID)
}

func TestMarkShared(t *testing.T) {
	reg, rec, clk := setup(t)

	_, err := reg.MarkShared("missing", "p2")
	var conflict *types.RegistryConflict
	require.ErrorAs(t, err, &conflict)
	assert.ErrorIs(t, err, types.ErrUnknownDocument)
	assert.Empty(t, rec.kinds())

	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "cid1"}))
	clk.Add(time.Second)
	rec.reset()

	ref, err := reg.MarkShared("cid1", "p2")
	require.NoError(t, err)
	assert.True(t, ref.Shared)
	assert.Equal(t, clk.Now(), ref.UpdatedAt)

	ev := rec.last().(types.DocumentShared)
	assert.Equal(t, "p2", ev.TargetPeerID)
	assert.Len(t, reg.ListSharedDocuments(), 1)
}

func TestMarkVerified_EmitsOnlyOnTransition(t *testing.T) {
	reg, rec, _ := setup(t)

	_, err := reg.MarkVerified("missing")
	assert.True(t, types.IsRegistryConflict(err))

	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "cid1"}))
	rec.reset()

	for i := 0; i < 3; i++ {
		ref, err := reg.MarkVerified("cid1")
		require.NoError(t, err)
		assert.True(t, ref.Verified)
	}
	assert.Equal(t, []types.EventKind{types.EventDocumentVerified}, rec.kinds())
}

func TestListsAreSortedCopies(t *testing.T) {
	reg, _, _ := setup(t)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, reg.UpsertPeer(types.Peer{ID: id, Status: types.PeerStatusOnline}))
	}
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "d", Status: types.PeerStatusOffline}))

	peers := reg.ListPeers()
	require.Len(t, peers, 4)
	assert.Equal(t, "a", peers[0].ID)
	assert.Equal(t, "d", peers[3].ID)

	online := reg.ListOnlinePeers()
	assert.Len(t, online, 3)

	peers[0].DocumentRefs = append(peers[0].DocumentRefs, "mutated")
	p, _ := reg.Peer("a")
	assert.Empty(t, p.DocumentRefs)

	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "z"}))
	require.NoError(t, reg.AddDocument(types.DocumentRef{ContentID: "m"}))
	docs := reg.ListDocuments()
	require.Len(t, docs, 2)
	assert.Equal(t, types.ContentID("m"), docs[0].ContentID)
}

func TestMarkStale(t *testing.T) {
	reg, rec, clk := setup(t)

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "old", Status: types.PeerStatusOnline, LastSeenAt: clk.Now().Add(-5 * time.Minute)}))
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "fresh", Status: types.PeerStatusOnline}))
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "gone", Status: types.PeerStatusOffline, LastSeenAt: clk.Now().Add(-time.Hour)}))
	rec.reset()

	n := reg.MarkStale(clk.Now().Add(-2 * time.Minute))
	assert.Equal(t, 1, n)
	assert.Equal(t, []types.EventKind{types.EventPeerUpdated}, rec.kinds())

	p, ok := reg.Peer("old")
	require.True(t, ok, "stale peers are never deleted")
	assert.Equal(t, types.PeerStatusOffline, p.Status)

	assert.Equal(t, 0, reg.MarkStale(clk.Now().Add(-2*time.Minute)))
}

func TestSubscriberMayQueryDuringPublish(t *testing.T) {
	bus := eventbus.NewBus()
	defer bus.Close()
	reg := New(bus, clock.NewMock())

	var seen []types.Peer
	bus.Subscribe(types.EventPeerJoined, func(types.MeshEvent) {
		seen = reg.ListPeers()
	})

	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1"}))
	require.Len(t, seen, 1)
}

func TestConcurrentMutations(t *testing.T) {
	reg, _, _ := setup(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = reg.UpsertPeer(types.Peer{ID: string(rune('a' + i))})
				_ = reg.AddDocument(types.DocumentRef{ContentID: types.ContentID(string(rune('a' + j%5)))})
				_ = reg.ListPeers()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, reg.PeerCount())
	assert.Len(t, reg.ListDocuments(), 5)
}

func TestSweeper(t *testing.T) {
	reg, _, clk := setup(t)
	require.NoError(t, reg.UpsertPeer(types.Peer{ID: "p1", Status: types.PeerStatusOnline}))

	s := NewSweeper(reg, clk, 30*time.Second, 2*time.Minute)
	s.Start()
	s.Start()
	defer s.Stop()

	for i := 0; i < 3; i++ {
		clk.Add(30 * time.Second)
	}
	p, _ := reg.Peer("p1")
	assert.Equal(t, types.PeerStatusOnline, p.Status)

	clk.Add(30 * time.Second)
	clk.Add(30 * time.Second)
	require.Eventually(t, func() bool {
		p, _ := reg.Peer("p1")
		return p.Status == types.PeerStatusOffline
	}, time.Second, 5*time.Millisecond)
}
