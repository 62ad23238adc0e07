package relay

import (
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// MemberEvent is an addressed room notification. Recipients lists the
// identities it must be delivered to; it is not part of the wire payload.
type MemberEvent struct {
	Type      string   `json:"type"`
	UserID    string   `json:"userId"`
	RoomID    string   `json:"roomId"`
	RoomUsers []string `json:"roomUsers"`

	Recipients []string `json:"-"`
}

const (
	EventUserJoined = "userJoined"
	EventUserLeft   = "userLeft"
)

type RoomSnapshot struct {
	RoomID    string   `json:"roomId"`
	Users     []string `json:"users"`
	UserCount int      `json:"userCount"`
}

// Rooms tracks room member sets and the inverse user→room index.
// A user is a member of at most one room; an empty room is deleted outright.
type Rooms struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
	roomOf  map[string]string
}

func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[string]map[string]struct{}),
		roomOf:  make(map[string]string),
	}
}

// Create makes roomID exist with creator as its only member. Creating over an
// existing id overwrites its membership; the evicted members learn about it
// from the next room snapshot broadcast. The creator leaves their current
// room first, so the single-room invariant holds throughout.
func (r *Rooms) Create(roomID, creator string) []MemberEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.leaveCurrentLocked(creator)
	if old, ok := r.members[roomID]; ok {
		log.Warn().Str("module", "relay.rooms").Str("room", roomID).Int("evicted", len(old)).
			Msg("room recreated, membership overwritten")
		for m := range old {
			delete(r.roomOf, m)
		}
	}
	r.members[roomID] = map[string]struct{}{creator: {}}
	r.roomOf[creator] = roomID
	log.Info().Str("module", "relay.rooms").Str("room", roomID).Str("creator", creator).Msg("room created")
	return events
}

// Join adds userID to roomID, leaving their current room first as one
// critical section. Joining a room that does not exist is a silent no-op.
func (r *Rooms) Join(roomID, userID string) (bool, []MemberEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[roomID]; !ok {
		log.Warn().Str("module", "relay.rooms").Str("room", roomID).Str("user", userID).Msg("join to unknown room ignored")
		return false, nil
	}

	var events []MemberEvent
	if r.roomOf[userID] != roomID {
		events = r.leaveCurrentLocked(userID)
	}
	r.members[roomID][userID] = struct{}{}
	r.roomOf[userID] = roomID

	users := r.memberListLocked(roomID)
	events = append(events, MemberEvent{
		Type:       EventUserJoined,
		UserID:     userID,
		RoomID:     roomID,
		RoomUsers:  users,
		Recipients: users,
	})
	log.Info().Str("module", "relay.rooms").Str("room", roomID).Str("user", userID).Int("members", len(users)).Msg("user joined room")
	return true, events
}

// LeaveCurrent removes userID from whatever room they occupy. Not being in a
// room is a no-op.
func (r *Rooms) LeaveCurrent(userID string) []MemberEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveCurrentLocked(userID)
}

func (r *Rooms) leaveCurrentLocked(userID string) []MemberEvent {
	roomID, ok := r.roomOf[userID]
	if !ok {
		return nil
	}
	delete(r.roomOf, userID)
	delete(r.members[roomID], userID)
	if len(r.members[roomID]) == 0 {
		delete(r.members, roomID)
		log.Info().Str("module", "relay.rooms").Str("room", roomID).Msg("room removed")
		return nil
	}
	users := r.memberListLocked(roomID)
	log.Info().Str("module", "relay.rooms").Str("room", roomID).Str("user", userID).Int("members", len(users)).Msg("user left room")
	return []MemberEvent{{
		Type:       EventUserLeft,
		UserID:     userID,
		RoomID:     roomID,
		RoomUsers:  users,
		Recipients: users,
	}}
}

func (r *Rooms) memberListLocked(roomID string) []string {
	users := make([]string, 0, len(r.members[roomID]))
	for u := range r.members[roomID] {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// RoomOf reports the room userID currently occupies, if any.
func (r *Rooms) RoomOf(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.roomOf[userID]
	return roomID, ok
}

// Snapshot returns a point-in-time copy of every room, ordered by id.
func (r *Rooms) Snapshot() []RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RoomSnapshot, 0, len(r.members))
	for roomID := range r.members {
		users := r.memberListLocked(roomID)
		out = append(out, RoomSnapshot{RoomID: roomID, Users: users, UserCount: len(users)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}
