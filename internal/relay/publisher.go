package relay

// Publisher is the delivery side of the relay, provided by the transport.
// Both calls are fire-and-forget: no confirmation, no retry, and delivery to
// an identity without a live connection is a silent drop.
type Publisher interface {
	Publish(topic string, payload any)
	SendToUser(identity, topic string, payload any)
}

// AccountDirectory is the slice of the account collaborator the relay
// consumes: flipping the durable online flag and, when the account store is
// authoritative for presence, listing who is online.
type AccountDirectory interface {
	SetOnline(username string, online bool)
	OnlineUsernames() []string
}
