package relay

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// Handler interprets inbound envelopes, drives the presence directory and the
// room registry, and hands results to the Publisher. It holds no protocol
// state of its own; its mutex only serializes cross-store sequences (a
// disconnect cleanup racing a reconnect must never interleave).
type Handler struct {
	Presence *Presence
	Rooms    *Rooms
	Pub      Publisher

	// Accounts is optional. When set, announce/withdraw flip the durable
	// online flag; when AccountsAuthoritative is also set, the users
	// snapshot comes from the account store instead of the directory.
	Accounts              AccountDirectory
	AccountsAuthoritative bool

	mu       sync.Mutex
	validate *validator.Validate
}

func NewHandler(p *Presence, r *Rooms, pub Publisher) *Handler {
	return &Handler{
		Presence: p,
		Rooms:    r,
		Pub:      pub,
		validate: validator.New(),
	}
}

// Handle dispatches one raw envelope from the connection conn. A malformed
// envelope is logged and dropped before any state is touched; it never takes
// the handler down.
func (h *Handler) Handle(conn string, data []byte) {
	var head struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		log.Warn().Err(err).Str("module", "relay.handler").Str("conn", conn).Msg("bad json")
		return
	}

	switch head.Kind {
	case KindAddUser:
		h.handleAddUser(conn, data)
	case KindRemoveUser:
		h.handleRemoveUser(data)
	case KindGetUserList:
		h.publishUsers()
	case KindCreateRoom:
		h.handleCreateRoom(data)
	case KindJoinRoom:
		h.handleJoinRoom(data)
	case KindLeaveRoom:
		h.handleLeaveRoom(data)
	case KindCall:
		h.handleCall(data)
	case KindCallResponse:
		h.handleCallResponse(data)
	case KindOffer, KindAnswer, KindCandidate:
		h.handlePeer(head.Kind, data)
	case KindGroupOffer, KindGroupAnswer, KindGroupCandidate:
		h.handleGroup(head.Kind, data)
	default:
		log.Warn().Str("module", "relay.handler").Str("kind", head.Kind).Msg("unknown envelope kind")
	}
}

// HandleDisconnect frees the presence entry bound to conn and leaves the
// user's room, as one serialized sequence. Called by the transport when the
// connection drops; unknown connections are a no-op.
func (h *Handler) HandleDisconnect(conn string) {
	h.mu.Lock()
	identity, ok := h.Presence.LeaveByConnection(conn)
	var events []MemberEvent
	if ok {
		events = h.Rooms.LeaveCurrent(identity)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	if h.Accounts != nil {
		h.Accounts.SetOnline(identity, false)
	}
	h.deliverEvents(events)
	if len(events) > 0 {
		h.publishRooms()
	}
	h.publishUsers()
}

func (h *Handler) handleAddUser(conn string, data []byte) {
	var p presenceEnvelope
	if !h.decode(KindAddUser, data, &p) {
		return
	}
	h.mu.Lock()
	h.Presence.Join(p.User, conn)
	h.mu.Unlock()
	if h.Accounts != nil {
		h.Accounts.SetOnline(p.User, true)
	}
	h.publishUsers()
}

func (h *Handler) handleRemoveUser(data []byte) {
	var p presenceEnvelope
	if !h.decode(KindRemoveUser, data, &p) {
		return
	}
	h.mu.Lock()
	h.Presence.LeaveByIdentity(p.User)
	h.mu.Unlock()
	if h.Accounts != nil {
		h.Accounts.SetOnline(p.User, false)
	}
	h.publishUsers()
}

func (h *Handler) handleCreateRoom(data []byte) {
	var p createRoomEnvelope
	if !h.decode(KindCreateRoom, data, &p) {
		return
	}
	h.mu.Lock()
	events := h.Rooms.Create(p.RoomID, p.Creator)
	h.mu.Unlock()
	h.Pub.SendToUser(p.Creator, TopicRoomCreated, roomCreatedAck{RoomID: p.RoomID, Success: true})
	h.deliverEvents(events)
	h.publishRooms()
}

func (h *Handler) handleJoinRoom(data []byte) {
	var p joinRoomEnvelope
	if !h.decode(KindJoinRoom, data, &p) {
		return
	}
	h.mu.Lock()
	_, events := h.Rooms.Join(p.RoomID, p.UserID)
	h.mu.Unlock()
	h.deliverEvents(events)
	h.publishRooms()
}

func (h *Handler) handleLeaveRoom(data []byte) {
	var p leaveRoomEnvelope
	if !h.decode(KindLeaveRoom, data, &p) {
		return
	}
	h.mu.Lock()
	events := h.Rooms.LeaveCurrent(p.UserID)
	h.mu.Unlock()
	h.deliverEvents(events)
	h.publishRooms()
}

func (h *Handler) handleCall(data []byte) {
	var p callEnvelope
	if !h.decode(KindCall, data, &p) {
		return
	}
	if p.Type != "" {
		h.Pub.SendToUser(p.CallTo, KindCall, json.RawMessage(data))
		return
	}
	// Old clients expect the caller's identity as a bare payload.
	h.Pub.SendToUser(p.CallTo, KindCall, p.CallFrom)
}

func (h *Handler) handleCallResponse(data []byte) {
	var p callEnvelope
	if !h.decode(KindCallResponse, data, &p) {
		return
	}
	if p.Type == "" {
		log.Warn().Str("module", "relay.handler").Str("kind", KindCallResponse).Msg("envelope missing required fields")
		return
	}
	h.Pub.SendToUser(p.CallTo, KindCallResponse, json.RawMessage(data))
}

func (h *Handler) handlePeer(kind string, data []byte) {
	var p peerEnvelope
	if !h.decode(kind, data, &p) {
		return
	}
	if !hasPayload(kind, p.Offer, p.Answer, p.Candidate) {
		log.Warn().Str("module", "relay.handler").Str("kind", kind).Msg("envelope missing payload")
		return
	}
	h.Pub.SendToUser(p.ToUser, kind, json.RawMessage(data))
}

func (h *Handler) handleGroup(kind string, data []byte) {
	var p groupEnvelope
	if !h.decode(kind, data, &p) {
		return
	}
	h.Pub.SendToUser(p.ToUser, kind, json.RawMessage(data))
}

func hasPayload(kind string, offer, answer, candidate json.RawMessage) bool {
	switch kind {
	case KindOffer:
		return len(offer) > 0
	case KindAnswer:
		return len(answer) > 0
	case KindCandidate:
		return len(candidate) > 0
	}
	return false
}

// decode unmarshals and validates an envelope. Any failure is logged and
// reported as false so the caller abandons the operation untouched.
func (h *Handler) decode(kind string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("module", "relay.handler").Str("kind", kind).Msg("bad envelope payload")
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		log.Warn().Err(err).Str("module", "relay.handler").Str("kind", kind).Msg("envelope missing required fields")
		return false
	}
	return true
}

func (h *Handler) deliverEvents(events []MemberEvent) {
	for _, ev := range events {
		for _, to := range ev.Recipients {
			h.Pub.SendToUser(to, TopicRoomUpdate, ev)
		}
	}
}

func (h *Handler) publishUsers() {
	var users []string
	if h.Accounts != nil && h.AccountsAuthoritative {
		users = h.Accounts.OnlineUsernames()
	} else {
		users = h.Presence.Snapshot()
	}
	sort.Strings(users)
	h.Pub.Publish(TopicUsers, users)
}

func (h *Handler) publishRooms() {
	h.Pub.Publish(TopicRooms, h.Rooms.Snapshot())
}
