package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second

	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 512
	sendBuffer     = 256
)

// Client is one ledger event subscriber. Besides control frames a peer may only
// send ControlMessages to narrow which entities it hears about.
type Client struct {
	id          string
	workspaceID int32
	conn        *websocket.Conn
	hub         *Hub
	subs        subscriptions

	// mu guards closed and sending on queue
	mu     sync.RWMutex
	closed bool
	queue  chan []byte
}

// NewClient creates a subscriber bound to a workspace
func NewClient(conn *websocket.Conn, workspaceID int32, hub *Hub) *Client {
	return &Client{
		id:          uuid.New().String(),
		workspaceID: workspaceID,
		conn:        conn,
		hub:         hub,
		queue:       make(chan []byte, sendBuffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) WorkspaceID() int32 {
	return c.workspaceID
}

// Wants reports whether the subscriber asked for events about entity
func (c *Client) Wants(entity EntityType) bool {
	return c.subs.wants(entity)
}

// Subscribe restricts the client to the given entities. An empty list means all.
func (c *Client) Subscribe(entities []EntityType) {
	c.subs.apply(ControlMessage{Action: ActionSubscribe, Entities: entities})
}

// Send queues a message without blocking. ErrSendBufferFull means the peer has
// stopped reading; the hub disconnects it.
func (c *Client) Send(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClientClosed
	}

	select {
	case c.queue <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close stops the write pump and closes the connection. Safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	return c.conn.Close()
}

// ReadPump applies control messages until the peer goes away, then unregisters
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	log := c.hub.logger.With().Str("client_id", c.id).Int32("workspace_id", c.workspaceID).Logger()
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("Subscriber closed unexpectedly")
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		msg, err := ParseControlMessage(data)
		if err != nil {
			log.Debug().Err(err).Msg("Ignoring subscriber message")
			continue
		}
		c.subs.apply(msg)
		log.Debug().Str("action", msg.Action).Interface("entities", msg.Entities).Msg("Subscription changed")
	}
}

// WritePump writes queued events and keepalive pings to the connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.queue:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Warn().
					Err(err).
					Str("client_id", c.id).
					Int32("workspace_id", c.workspaceID).
					Msg("Subscriber write failed")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
