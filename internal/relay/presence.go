// Package relay implements the signaling coordinator: the in-memory presence
// directory, the room registry, and the protocol handler that routes envelopes
// between peers. It forwards payloads blind and keeps no history.
package relay

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Presence maps announced identities to live connection ids and back.
// Both maps are mutual inverses at all times.
type Presence struct {
	mu     sync.RWMutex
	byUser map[string]string
	byConn map[string]string
}

func NewPresence() *Presence {
	return &Presence{
		byUser: make(map[string]string),
		byConn: make(map[string]string),
	}
}

// Join binds identity to conn. An existing entry for either side is evicted
// first, so a reconnecting user never ends up with two live entries.
func (p *Presence) Join(identity, conn string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if old, ok := p.byUser[identity]; ok {
		delete(p.byConn, old)
	}
	if old, ok := p.byConn[conn]; ok {
		delete(p.byUser, old)
	}
	p.byUser[identity] = conn
	p.byConn[conn] = identity
	log.Info().Str("module", "relay.presence").Str("user", identity).Str("conn", conn).Msg("user joined")
}

// LeaveByIdentity removes the entry for identity. Absence is a no-op.
func (p *Presence) LeaveByIdentity(identity string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	conn, ok := p.byUser[identity]
	if !ok {
		return false
	}
	delete(p.byUser, identity)
	delete(p.byConn, conn)
	log.Info().Str("module", "relay.presence").Str("user", identity).Msg("user left")
	return true
}

// LeaveByConnection removes the entry bound to conn and reports the freed
// identity. Used on transport disconnects, where only the conn id is known.
func (p *Presence) LeaveByConnection(conn string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	identity, ok := p.byConn[conn]
	if !ok {
		return "", false
	}
	delete(p.byConn, conn)
	delete(p.byUser, identity)
	log.Info().Str("module", "relay.presence").Str("user", identity).Str("conn", conn).Msg("user disconnected")
	return identity, true
}

// ConnOf resolves the current connection of identity, if any.
func (p *Presence) ConnOf(identity string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	conn, ok := p.byUser[identity]
	return conn, ok
}

// Snapshot returns a point-in-time copy of the live identities.
func (p *Presence) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.byUser))
	for user := range p.byUser {
		out = append(out, user)
	}
	return out
}
