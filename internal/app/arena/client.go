package arena

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"bitarena/internal/app/room"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/metrics"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a message sent by the client.
	maxMessageSize = 8192
)

// Custom WebSocket close codes (4000-4999 range) shared by every socket kind.
const (
	CloseMissingToken     = 4001
	CloseInvalidToken     = 4002
	CloseSendError        = 4003
	CloseRoomUnauthorized = 4005
	CloseHostOnly         = 4010
	CloseRankedNotReady   = 4011
)

// intentHandler dispatches one decoded client intent.
type intentHandler func(intentType string, payload map[string]any)

// Client is one live websocket connection of any socket kind. The read pump
// feeds client intents to the session's dispatch function; the write pump
// drains the send queue that both the session and the hub's delivery loops
// enqueue into.
type Client struct {
	conn     *websocket.Conn
	identity room.Identity
	kind     string

	send   chan []byte
	sendMu sync.Mutex
	closed bool

	// dispatch routes decoded intents; onClose runs once when the read pump ends.
	dispatch intentHandler
	onClose  func()

	logger zerolog.Logger
}

// NewClient wraps an upgraded connection. kind labels the socket for logs
// and metrics (rooms, lobby, battle).
func NewClient(conn *websocket.Conn, identity room.Identity, kind string) *Client {
	clientLogger := logx.Logger().With().
		Str("socket", kind).
		Str("user", identity.Username).
		Logger()

	return &Client{
		conn:     conn,
		identity: identity,
		kind:     kind,
		send:     make(chan []byte, 256),
		logger:   clientLogger,
	}
}

// Run starts the write pump and blocks in the read pump until the connection
// ends, then runs the session's close hook.
func (c *Client) Run(dispatch intentHandler, onClose func()) {
	c.dispatch = dispatch
	c.onClose = onClose

	metrics.WebsocketConnections.WithLabelValues(c.kind).Inc()
	defer metrics.WebsocketConnections.WithLabelValues(c.kind).Dec()

	go c.writePump()
	c.readPump()
}

// readPump handles heartbeats, decodes intents, and performs cleanup on exit.
func (c *Client) readPump() {
	defer func() {
		if c.onClose != nil {
			c.onClose()
		}
		c.closeSend()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}

		var intent struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(messageBytes, &intent); err != nil || intent.Type == "" {
			c.SendErrorMessage("Invalid message format")
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal(messageBytes, &payload); err != nil {
			c.SendErrorMessage("Invalid message format")
			continue
		}

		c.dispatch(intent.Type, payload)
	}
}

// writePump drains the send queue onto the wire and keeps the heartbeat going.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Info().Err(err).Msg("Error writing message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues a raw payload for delivery, dropping it when the client is
// gone or too slow to drain its queue. The mutex orders enqueues against
// closeSend so the hub's delivery loops never write into a closed channel.
func (c *Client) enqueue(payload []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if c.closed {
		return
	}

	select {
	case c.send <- payload:
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping event")
	}
}

// SendJSON marshals v and queues it for delivery to this client only.
func (c *Client) SendJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to marshal payload for client")
		return
	}
	c.enqueue(payload)
}

// SendErrorMessage queues a realtime error payload.
func (c *Client) SendErrorMessage(message string) {
	c.SendJSON(map[string]any{"type": "error", "message": message})
}

// CloseWithCode sends a close frame carrying a custom code and terminates
// the connection.
func (c *Client) CloseWithCode(code int, reason string) {
	closeMessage := websocket.FormatCloseMessage(code, reason)

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Warn().Err(err).Int("close_code", code).Msg("Failed to send close frame")
	}

	c.closeSend()
	c.conn.Close()
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Identity returns the verified identity behind this connection.
func (c *Client) Identity() room.Identity {
	return c.identity
}
