package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	ws "github.com/stemsi/krs-backend/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFeedConn upgrades a test client against a route running the feed's
// serve loop, fed by the given events channel instead of a Redis
// subscription.
func newFeedConn(t *testing.T, h *WSHandler, events chan *redis.Message) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/stream", func(c *gin.Context) {
		conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()
		h.serve(ctx, cancel, conn, events)
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	client, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame map[string]interface{}
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func feedPayload(t *testing.T, code string) string {
	t.Helper()
	raw, err := json.Marshal(ws.EnrollmentEvent{
		Action:     "enrolled",
		StudentID:  7,
		CourseID:   3,
		CourseCode: code,
		At:         time.Now(),
	})
	require.NoError(t, err)
	return string(raw)
}

func TestEnrollmentFeed_ForwardsEventsAndPongs(t *testing.T) {
	h := NewWSHandler(nil, zerolog.Nop(), nil)
	events := make(chan *redis.Message, 1)
	client := newFeedConn(t, h, events)

	events <- &redis.Message{Payload: feedPayload(t, "INF101")}

	frame := readFrame(t, client)
	assert.Equal(t, "enrollment", frame["event"])
	assert.Equal(t, "INF101", frame["course_code"])
	assert.Equal(t, "enrolled", frame["action"])

	require.NoError(t, client.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}))
	frame = readFrame(t, client)
	assert.Equal(t, "pong", frame["event"])
}

func TestEnrollmentFeed_SkipsMalformedPayload(t *testing.T) {
	h := NewWSHandler(nil, zerolog.Nop(), nil)
	events := make(chan *redis.Message, 2)
	client := newFeedConn(t, h, events)

	events <- &redis.Message{Payload: "{not json"}
	events <- &redis.Message{Payload: feedPayload(t, "MAT101")}

	frame := readFrame(t, client)
	assert.Equal(t, "enrollment", frame["event"])
	assert.Equal(t, "MAT101", frame["course_code"])
}

// Pings arriving mid-stream must never produce a second concurrent writer
// on the connection: every frame, pong or feed, goes out through the one
// serve loop. Run under -race.
func TestEnrollmentFeed_ConcurrentPingsAndEvents(t *testing.T) {
	h := NewWSHandler(nil, zerolog.Nop(), nil)
	events := make(chan *redis.Message, 64)
	client := newFeedConn(t, h, events)

	payload := feedPayload(t, "INF101")

	const eventCount = 50
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < eventCount; i++ {
			if err := client.WriteJSON(ws.RequestEnvelope{Action: ws.ActionPing}); err != nil {
				return
			}
		}
	}()

	for i := 0; i < eventCount; i++ {
		events <- &redis.Message{Payload: payload}
	}

	// Read until every feed frame arrived; pongs interleave freely and may
	// coalesce when pings arrive faster than they are answered.
	seen := 0
	for seen < eventCount {
		frame := readFrame(t, client)
		switch frame["event"] {
		case "enrollment":
			seen++
		case "pong":
		default:
			t.Fatalf("unexpected frame: %v", frame)
		}
	}
	<-done
}
