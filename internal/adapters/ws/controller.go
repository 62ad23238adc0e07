package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"webrtc-signaling-server/internal/config"
	"webrtc-signaling-server/internal/relay"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 5 * time.Second

type Controller struct {
	cfg     *config.Config
	hub     *Hub
	handler *relay.Handler
	limiter *RateLimiter
}

func NewController(cfg *config.Config, hub *Hub, handler *relay.Handler) *Controller {
	return &Controller{
		cfg:     cfg,
		hub:     hub,
		handler: handler,
		limiter: NewRateLimiter(cfg.RateLimit.Burst, cfg.RateLimit.Interval),
	}
}

// HandleSignal upgrades the request and runs the connection's pumps. The
// connection id is the relay's ConnectionHandle for this client.
func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("ws upgrade")
		return
	}
	conn := newConn(uuid.NewString(), sock, ctl.cfg.SendBuffer)
	log.Info().Str("module", "ws").Str("conn", conn.ID()).Msg("new WS connection")

	ctl.hub.Register(conn)
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
	}()
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.sock.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", c.ID()).Msg("writePump set deadline")
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", c.ID()).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", c.ID()).Msg("readPump closing")
		ctl.hub.Unregister(c)
		ctl.handler.HandleDisconnect(c.ID())
		ctl.limiter.Forget(c.ID())
		c.Close()
	}()

	c.sock.SetReadLimit(ctl.cfg.ReadLimit)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.sock.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "ws").Str("conn", c.ID()).Msg("readPump read error")
				}
				return
			}
			if !ctl.limiter.Allow(c.ID()) {
				log.Warn().Str("module", "ws").Str("conn", c.ID()).Msg("rate limit exceeded, envelope dropped")
				continue
			}
			ctl.handler.Handle(c.ID(), data)
		}
	}
}
