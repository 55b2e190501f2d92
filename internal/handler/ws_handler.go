package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/krs-backend/internal/config"
	"github.com/stemsi/krs-backend/internal/middleware"
	ws "github.com/stemsi/krs-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams the live enrollment feed to registrar dashboards.
type WSHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// EnrollmentFeedStream godoc
// WS /ws/v1/admin/enrollments/stream
// Upgrades to WebSocket and forwards every enrollment mutation published
// on the Redis feed channel.
func (h *WSHandler) EnrollmentFeedStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.EnrollmentFeedChannel())
	defer sub.Close()

	h.log.Info().Int("admin_id", claims.UserID).Msg("Enrollment feed subscriber connected")

	h.serve(ctx, cancel, conn, sub.Channel())
}

// serve owns every write to conn. The reader goroutine never writes: pings
// are handed over a channel into the select below, so a pong can never
// race a feed frame on the connection.
func (h *WSHandler) serve(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, events <-chan *redis.Message) {
	pings := make(chan struct{}, 1)

	// Reader goroutine: detects client disconnect and relays ping requests.
	go func() {
		defer cancel()
		for {
			var req ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &req); err != nil {
				return
			}
			if req.Action == ws.ActionPing {
				select {
				case pings <- struct{}{}:
				default: // A pong is already pending.
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongMessage{Event: ws.EventPong}); err != nil {
				return
			}
		case msg, ok := <-events:
			if !ok {
				return
			}

			var event ws.EnrollmentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.log.Warn().Err(err).Msg("Malformed feed payload")
				continue
			}

			if err := ws.WriteTyped(conn, ws.FeedMessage{
				Event:           ws.EventEnrollment,
				EnrollmentEvent: event,
			}); err != nil {
				return
			}
		}
	}
}
