package relay

import "encoding/json"

// Envelope kinds, as sent by clients in the "kind" field. The remaining field
// names are part of the client protocol and must not change.
const (
	KindAddUser        = "addUser"
	KindRemoveUser     = "removeUser"
	KindGetUserList    = "getUserList"
	KindCreateRoom     = "createRoom"
	KindJoinRoom       = "joinRoom"
	KindLeaveRoom      = "leaveRoom"
	KindCall           = "call"
	KindCallResponse   = "callResponse"
	KindOffer          = "offer"
	KindAnswer         = "answer"
	KindCandidate      = "candidate"
	KindGroupOffer     = "groupOffer"
	KindGroupAnswer    = "groupAnswer"
	KindGroupCandidate = "groupCandidate"
)

// Delivery topics. TopicUsers and TopicRooms are broadcast to everyone;
// the rest are addressed to a single identity.
const (
	TopicUsers       = "users"
	TopicRooms       = "rooms"
	TopicRoomCreated = "roomCreated"
	TopicRoomUpdate  = "roomUpdate"
)

type presenceEnvelope struct {
	User string `json:"user" validate:"required"`
}

type createRoomEnvelope struct {
	RoomID  string `json:"roomId" validate:"required"`
	Creator string `json:"creator" validate:"required"`
}

type joinRoomEnvelope struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type leaveRoomEnvelope struct {
	UserID string `json:"userId" validate:"required"`
}

// callEnvelope carries a direct call request or response. Type is the
// caller-chosen tag ("video", "accepted", ...); old clients omit it on
// requests, which switches the relay to the legacy bare-callFrom forward.
type callEnvelope struct {
	CallTo   string `json:"callTo" validate:"required"`
	CallFrom string `json:"callFrom" validate:"required"`
	Type     string `json:"type"`
}

// peerEnvelope addresses one negotiation artifact to one user. Exactly one of
// the payload fields is set, matching the envelope kind.
type peerEnvelope struct {
	ToUser    string          `json:"toUser" validate:"required"`
	FromUser  string          `json:"fromUser" validate:"required"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// groupEnvelope is the room-call variant of peerEnvelope. The room id is
// carried for the recipient's bookkeeping; the relay does not check that
// toUser is a member of it.
type groupEnvelope struct {
	ToUser    string          `json:"toUser" validate:"required"`
	FromUser  string          `json:"fromUser" validate:"required"`
	RoomID    string          `json:"roomId" validate:"required"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

type roomCreatedAck struct {
	RoomID  string `json:"roomId"`
	Success bool   `json:"success"`
}
