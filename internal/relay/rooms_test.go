package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomIDs(snaps []RoomSnapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.RoomID
	}
	return out
}

func TestRooms_Lifecycle(t *testing.T) {
	r := NewRooms()

	r.Create("r1", "alice")
	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "r1", snap[0].RoomID)
	assert.Equal(t, []string{"alice"}, snap[0].Users)
	assert.Equal(t, 1, snap[0].UserCount)

	ok, events := r.Join("r1", "bob")
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, EventUserJoined, events[0].Type)
	assert.Equal(t, "bob", events[0].UserID)
	assert.Equal(t, "r1", events[0].RoomID)
	assert.Equal(t, []string{"alice", "bob"}, events[0].RoomUsers)
	assert.ElementsMatch(t, []string{"alice", "bob"}, events[0].Recipients)

	events = r.LeaveCurrent("alice")
	require.Len(t, events, 1)
	assert.Equal(t, EventUserLeft, events[0].Type)
	assert.Equal(t, "alice", events[0].UserID)
	assert.Equal(t, []string{"bob"}, events[0].RoomUsers)
	assert.Equal(t, []string{"bob"}, events[0].Recipients)

	events = r.LeaveCurrent("bob")
	assert.Empty(t, events)
	assert.Empty(t, r.Snapshot())
}

func TestRooms_JoinUnknownRoomIsNoop(t *testing.T) {
	r := NewRooms()

	ok, events := r.Join("ghost", "alice")
	assert.False(t, ok)
	assert.Empty(t, events)
	_, inRoom := r.RoomOf("alice")
	assert.False(t, inRoom)
}

func TestRooms_SwitchingNeverLeavesUserInTwoRooms(t *testing.T) {
	r := NewRooms()
	r.Create("r1", "alice")
	_, _ = r.Join("r1", "carol")
	r.Create("r2", "bob")

	ok, events := r.Join("r2", "carol")
	require.True(t, ok)

	// carol left r1 (alice notified), then joined r2.
	require.Len(t, events, 2)
	assert.Equal(t, EventUserLeft, events[0].Type)
	assert.Equal(t, "r1", events[0].RoomID)
	assert.Equal(t, []string{"alice"}, events[0].Recipients)
	assert.Equal(t, EventUserJoined, events[1].Type)
	assert.Equal(t, "r2", events[1].RoomID)

	room, inRoom := r.RoomOf("carol")
	require.True(t, inRoom)
	assert.Equal(t, "r2", room)
	for _, s := range r.Snapshot() {
		if s.RoomID == "r1" {
			assert.NotContains(t, s.Users, "carol")
		}
	}
}

func TestRooms_SwitchingFromSoleMembershipDeletesOldRoom(t *testing.T) {
	r := NewRooms()
	r.Create("r1", "carol")
	r.Create("r2", "bob")

	ok, events := r.Join("r2", "carol")
	require.True(t, ok)

	// r1 emptied, so no userLeft event; only the userJoined for r2.
	require.Len(t, events, 1)
	assert.Equal(t, EventUserJoined, events[0].Type)
	assert.Equal(t, []string{"r2"}, roomIDs(r.Snapshot()))
}

func TestRooms_RejoinOwnRoom(t *testing.T) {
	r := NewRooms()
	r.Create("r1", "alice")

	ok, events := r.Join("r1", "alice")
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, EventUserJoined, events[0].Type)
	assert.Equal(t, []string{"alice"}, events[0].RoomUsers)
}

func TestRooms_RecreateOverwritesMembership(t *testing.T) {
	r := NewRooms()
	r.Create("r1", "alice")
	_, _ = r.Join("r1", "bob")

	r.Create("r1", "carol")

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, []string{"carol"}, snap[0].Users)

	// Evicted members are detached from the inverse index too.
	_, inRoom := r.RoomOf("alice")
	assert.False(t, inRoom)
	_, inRoom = r.RoomOf("bob")
	assert.False(t, inRoom)
}

func TestRooms_CreateMovesCreatorOutOfCurrentRoom(t *testing.T) {
	r := NewRooms()
	r.Create("r1", "alice")
	_, _ = r.Join("r1", "bob")

	events := r.Create("r2", "bob")

	require.Len(t, events, 1)
	assert.Equal(t, EventUserLeft, events[0].Type)
	assert.Equal(t, "r1", events[0].RoomID)
	assert.Equal(t, []string{"alice"}, events[0].Recipients)

	room, _ := r.RoomOf("bob")
	assert.Equal(t, "r2", room)
}
