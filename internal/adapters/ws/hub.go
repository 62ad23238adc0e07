package ws

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// identityResolver maps a user identity to its current connection id.
// Satisfied by the relay's presence directory.
type identityResolver interface {
	ConnOf(identity string) (string, bool)
}

// frame is the outbound wire shape: which topic the payload belongs to.
type frame struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

// Hub tracks live connections and delivers frames to all of them or to the
// one connection an identity is bound to. Delivery is fire-and-forget; a slow
// consumer loses frames rather than stalling the relay.
type Hub struct {
	mu       sync.RWMutex
	conns    map[string]*Conn
	resolver identityResolver
}

func NewHub(resolver identityResolver) *Hub {
	return &Hub{
		conns:    make(map[string]*Conn),
		resolver: resolver,
	}
}

func (h *Hub) Register(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID()] = c
	count := len(h.conns)
	h.mu.Unlock()
	log.Info().Str("module", "ws.hub").Str("conn", c.ID()).Int("conns", count).Msg("connection registered")
}

func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c.ID())
	count := len(h.conns)
	h.mu.Unlock()
	log.Info().Str("module", "ws.hub").Str("conn", c.ID()).Int("conns", count).Msg("connection unregistered")
}

// Publish fans a topic frame out to every live connection.
func (h *Hub) Publish(topic string, payload any) {
	data, err := json.Marshal(frame{Topic: topic, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "ws.hub").Str("topic", topic).Msg("marshal frame")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		if err := c.TrySend(data); err != nil {
			log.Debug().Err(err).Str("module", "ws.hub").Str("conn", c.ID()).Str("topic", topic).Msg("frame dropped")
		}
	}
}

// SendToUser delivers a topic frame to the connection currently bound to
// identity, or drops it silently when the identity is not connected.
func (h *Hub) SendToUser(identity, topic string, payload any) {
	connID, ok := h.resolver.ConnOf(identity)
	if !ok {
		log.Debug().Str("module", "ws.hub").Str("user", identity).Str("topic", topic).Msg("no live connection, dropped")
		return
	}
	h.mu.RLock()
	c, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	data, err := json.Marshal(frame{Topic: topic, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "ws.hub").Str("topic", topic).Msg("marshal frame")
		return
	}
	if err := c.TrySend(data); err != nil {
		log.Debug().Err(err).Str("module", "ws.hub").Str("conn", connID).Str("topic", topic).Msg("frame dropped")
	}
}
