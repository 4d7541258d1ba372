package protocol

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sadiqueahmed/Lairik-Pulse/meshsync/pkg/types"
)

func TestFrameType_IsInbound(t *testing.T) {
	inbound := []FrameType{TypeStatus, TypePeers, TypePeerLeft, TypeDocument, TypeSyncAck, TypePing, TypePong}
	for _, ft := range inbound {
		assert.True(t, ft.IsInbound(), ft)
	}

	outbound := []FrameType{TypeDiscover, TypeProfileCreated, TypeProfileUpdated, TypeDocumentShared, TypeSyncRequest, TypeMessage}
	for _, ft := range outbound {
		assert.False(t, ft.IsInbound(), ft)
	}
}

func TestNewFrame_Encode_Decode(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_123)
	f, err := NewFrame(TypeDiscover, DiscoverPayload{NodeID: "n1"}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_123), f.Timestamp)

	data, err := Encode(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"discover"`)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, TypeDiscover, got.Type)
	assert.True(t, got.Time().Equal(now))

	var p DiscoverPayload
	require.NoError(t, got.DecodePayload(&p))
	assert.Equal(t, "n1", p.NodeID)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"missing type", `{"payload":{}}`},
		{"wrong type", `{"type":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.True(t, types.IsProtocolError(err))
			assert.True(t, errors.Is(err, types.ErrInvalidFrame))
		})
	}
}

func TestFrame_DecodePayload_Errors(t *testing.T) {
	f := Frame{Type: TypePeers}
	err := f.DecodePayload(&PeersPayload{})
	require.Error(t, err)

	var perr *types.ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "peers", perr.FrameType)

	f.Payload = []byte(`{"peers":"nope"}`)
	err = f.DecodePayload(&PeersPayload{})
	assert.ErrorIs(t, err, types.ErrInvalidFrame)
}

func TestFrame_Time_Seconds(t *testing.T) {
	f := Frame{Type: TypeStatus, Timestamp: 1_700_000_000}
	assert.Equal(t, int64(1_700_000_000), f.Time().Unix())

	assert.True(t, Frame{Type: TypeStatus}.Time().IsZero())
}

func TestFrame_Time_Threshold(t *testing.T) {
	below := Frame{Type: TypeStatus, Timestamp: secondsThreshold - 1}
	assert.Equal(t, int64(secondsThreshold-1), below.Time().Unix())

	at := Frame{Type: TypeStatus, Timestamp: secondsThreshold}
	assert.Equal(t, int64(secondsThreshold), at.Time().UnixMilli())

	ms := Frame{Type: TypeStatus, Timestamp: 1_700_000_000_123}
	assert.Equal(t, int64(1_700_000_000_123), ms.Time().UnixMilli())
}

func TestWirePeer_ToPeer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	t.Run("full record", func(t *testing.T) {
		w := WirePeer{
			ID:        "peer-1",
			DID:       "did:lairik:peer-1",
			Name:      "Tomba",
			Role:      "verifier",
			Status:    "busy",
			LastSeen:  now.Add(-time.Minute).UnixMilli(),
			PublicKey: "mock-public-key-1",
			Documents: []string{"doc-1", "", "doc-2"},
		}
		p := w.ToPeer(now)
		assert.Equal(t, "peer-1", p.ID)
		assert.Equal(t, types.RoleVerifier, p.Role)
		assert.Equal(t, types.PeerStatusBusy, p.Status)
		assert.Equal(t, now.Add(-time.Minute).Unix(), p.LastSeenAt.Unix())
		assert.Equal(t, []byte("mock-public-key-1"), p.PublicKey)
		assert.Equal(t, []types.ContentID{"doc-1", "doc-2"}, p.DocumentRefs)
	})

	t.Run("coordinator shape", func(t *testing.T) {
		disconnected := false
		p := WirePeer{ID: "12D3", Address: "/ip4/1.2.3.4", Connected: &disconnected}.ToPeer(now)
		assert.Equal(t, types.PeerStatusOffline, p.Status)
		assert.Equal(t, now, p.LastSeenAt)
		assert.Equal(t, "/ip4/1.2.3.4", p.Address)
		assert.Empty(t, p.Role)
	})

	t.Run("defaults online", func(t *testing.T) {
		p := WirePeer{ID: "x", Status: "weird"}.ToPeer(now)
		assert.Equal(t, types.PeerStatusOnline, p.Status)
	})
}

func TestWirePeer_RoundTripKey(t *testing.T) {
	key := []byte{0x04, 0x01, 0xff, 0x00}
	w := FromPeer(types.Peer{ID: "p", Status: types.PeerStatusOnline, PublicKey: key})
	require.NotNil(t, w.Connected)
	assert.True(t, *w.Connected)
	assert.Equal(t, key, w.ToPeer(time.Now()).PublicKey)
}

func TestDocumentPayload_ToDocumentRef(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ref := DocumentPayload{CID: "c1", Name: "degree.pdf", Owner: "peer-1", Verified: true}.ToDocumentRef(now)
	assert.Equal(t, types.ContentID("c1"), ref.ContentID)
	assert.True(t, ref.Verified)
	assert.False(t, ref.Shared)
	assert.Equal(t, now, ref.UpdatedAt)

	back := FromDocumentRef(ref, "peer-2")
	assert.Equal(t, "peer-2", back.Target)
	assert.Equal(t, now.UnixMilli(), back.Timestamp)
}

func TestFromProfile(t *testing.T) {
	p := types.Profile{
		ID:           "id",
		DID:          types.DIDPrefix + "id",
		DisplayName:  "Chanu",
		Role:         types.RoleStudent,
		DocumentRefs: []types.ContentID{"c1"},
		PublicKey:    []byte{1, 2, 3},
		Contact:      &types.ContactInfo{Email: "a@b.c"},
	}
	w := FromProfile(p)
	assert.Equal(t, "did:lairik:id", w.DID)
	assert.Equal(t, []string{"c1"}, w.Documents)
	assert.Equal(t, "AQID", w.PublicKey)
}
