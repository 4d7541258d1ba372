package types

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleStudent, RoleVerifier, RoleAdmin, RoleCampCoordinator} {
		assert.True(t, r.Valid(), r)
	}
	assert.False(t, Role("guest").Valid())
	assert.False(t, Role("").Valid())
}

func TestPeerStatus_Valid(t *testing.T) {
	assert.True(t, PeerStatusBusy.Valid())
	assert.False(t, PeerStatus("away").Valid())
}

func TestPeer_Clone(t *testing.T) {
	p := Peer{ID: "a", PublicKey: []byte{1}, DocumentRefs: []ContentID{"c1"}}
	c := p.Clone()
	c.PublicKey[0] = 9
	c.DocumentRefs[0] = "c2"

	assert.Equal(t, byte(1), p.PublicKey[0])
	assert.True(t, p.HasDocument("c1"))
	assert.False(t, p.HasDocument("c2"))
}

func TestDocumentRef_MergeFlags(t *testing.T) {
	old := DocumentRef{ContentID: "c", Name: "deg", OwnerID: "p1", Verified: true}
	incoming := DocumentRef{ContentID: "c", Shared: true}

	got := old.MergeFlags(incoming)
	assert.True(t, got.Verified, "verified must not regress")
	assert.True(t, got.Shared)
	assert.Equal(t, "deg", got.Name)
	assert.Equal(t, "p1", got.OwnerID)
}

func TestUnionContentIDs(t *testing.T) {
	got := UnionContentIDs([]ContentID{"a", "b"}, []ContentID{"b", "", "c", "a"})
	assert.Equal(t, []ContentID{"a", "b", "c"}, got)
	assert.Empty(t, UnionContentIDs(nil, nil))
}

func TestProfileUpdate_Apply(t *testing.T) {
	created := time.Unix(100, 0)
	p := Profile{
		ID:          "id",
		DisplayName: "old",
		Role:        RoleStudent,
		CreatedAt:   created,
		Metadata:    map[string]string{"camp": "A"},
	}

	name := "new"
	role := RoleVerifier
	out := ProfileUpdate{
		DisplayName: &name,
		Role:        &role,
		Contact:     &ContactInfo{Phone: "123"},
		Metadata:    map[string]string{"region": "IN-MN"},
	}.Apply(p)

	assert.Equal(t, "new", out.DisplayName)
	assert.Equal(t, RoleVerifier, out.Role)
	assert.Equal(t, "123", out.Contact.Phone)
	assert.Equal(t, map[string]string{"camp": "A", "region": "IN-MN"}, out.Metadata)
	assert.Equal(t, created, out.CreatedAt)

	// 原值不受影响
	assert.Equal(t, "old", p.DisplayName)
	assert.Equal(t, map[string]string{"camp": "A"}, p.Metadata)
}

func TestConnState_String(t *testing.T) {
	assert.Equal(t, "idle", ConnStateIdle.String())
	assert.Equal(t, "reconnecting", ConnStateReconnecting.String())
	assert.Equal(t, "invalid", ConnState(99).String())

	assert.True(t, ConnStateConnecting.IsActive())
	assert.False(t, ConnStateFailed.IsActive())
	assert.False(t, ConnStateIdle.IsActive())
}

func TestEvents_Kind(t *testing.T) {
	at := time.Unix(5, 0)
	events := []MeshEvent{
		PeerJoined{BaseEvent: NewBaseEvent(at)},
		PeerLeft{BaseEvent: NewBaseEvent(at)},
		PeerUpdated{BaseEvent: NewBaseEvent(at)},
		DocumentAdded{BaseEvent: NewBaseEvent(at)},
		DocumentShared{BaseEvent: NewBaseEvent(at)},
		DocumentVerified{BaseEvent: NewBaseEvent(at)},
		ProfileCreated{BaseEvent: NewBaseEvent(at)},
		ProfileUpdated{BaseEvent: NewBaseEvent(at)},
		SyncStarted{BaseEvent: NewBaseEvent(at)},
		SyncCompleted{BaseEvent: NewBaseEvent(at)},
		MeshDisconnected{BaseEvent: NewBaseEvent(at)},
		ConnectionStateChanged{BaseEvent: NewBaseEvent(at)},
	}

	kinds := AllEventKinds()
	require.Len(t, events, len(kinds))
	for i, ev := range events {
		assert.Equal(t, kinds[i], ev.Kind())
		assert.Equal(t, at, ev.Timestamp())
	}
}

func TestTypedErrors(t *testing.T) {
	base := errors.New("boom")

	terr := fmt.Errorf("wrap: %w", &TransportError{Op: "dial", URL: "ws://x", Attempt: 2, Err: base})
	assert.True(t, IsTransportError(terr))
	assert.ErrorIs(t, terr, base)
	assert.Contains(t, terr.Error(), "attempt 2")

	perr := &ProtocolError{FrameType: "peers", Err: ErrInvalidFrame}
	assert.True(t, IsProtocolError(perr))
	assert.ErrorIs(t, perr, ErrInvalidFrame)
	assert.False(t, IsProtocolError(base))

	rerr := &RegistryConflict{Op: "mark_shared", ID: "c1", Err: ErrUnknownDocument}
	assert.True(t, IsRegistryConflict(rerr))
	assert.ErrorIs(t, rerr, ErrUnknownDocument)

	serr := &PersistenceError{Op: "put", Key: "profile/x", Err: base}
	assert.True(t, IsPersistenceError(serr))
	assert.ErrorIs(t, serr, base)
}
