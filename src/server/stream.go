package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Server-Sent Events
// -----------------------------------------------------------------------------

func (s *HTTPServer) handleStream(c *gin.Context) {
	key, err := instrumentFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := uuid.NewString()
	channel := newStreamChannel(id, s.Config.Transport.SendBuffer)
	channel.OnClose(func() { s.Feed.Unsubscribe(id) })
	defer channel.finish()

	ctx := c.Request.Context()
	if err := s.Feed.Subscribe(ctx, id, key, channel); err != nil {
		s.Logger.Warning("Subscribe %s to %s rejected: %v", id, key, err)
		c.JSON(subscribeStatus(err), gin.H{"error": err.Error()})
		return
	}
	s.Logger.Info("SSE subscriber %s streaming %s", id, key)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(s.Heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-channel.quit:
			return false
		case <-s.closing:
			return false
		case payload := <-channel.send:
			c.SSEvent("candle", string(payload))
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})

	s.Logger.Info("SSE subscriber %s left %s", id, key)
}

// -----------------------------------------------------------------------------
// WebSocket
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *HTTPServer) handleWebSocket(c *gin.Context) {
	key, err := instrumentFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	id := uuid.NewString()
	client := &Client{
		conn:    conn,
		channel: newStreamChannel(id, s.Config.Transport.SendBuffer),
		closing: s.closing,
		logger:  s.Logger,
	}
	client.channel.OnClose(func() { s.Feed.Unsubscribe(id) })

	if err := s.Feed.Subscribe(c.Request.Context(), id, key, client.channel); err != nil {
		s.Logger.Warning("Subscribe %s to %s rejected: %v", id, key, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		client.channel.finish()
		return
	}
	s.Logger.Info("WebSocket subscriber %s streaming %s", id, key)

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}
