package ws

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxMessageSize  = 4096
	pongWait        = 2 * time.Minute
	pingPeriod      = time.Minute
	writeWait       = 10 * time.Second
	sendChannelSize = 256
)

// Client is a middleman between one websocket connection and the hub. It is
// bound to exactly one room and one username for its whole lifetime.
type Client struct {
	srv *Server

	// The websocket connection.
	conn *websocket.Conn

	roomId    string
	username  string
	sessionId string

	// Buffered channel of outbound frames.
	Send chan []byte

	doneChan  chan struct{}
	closeOnce sync.Once
}

func newClient(srv *Server, conn *websocket.Conn, roomId, username, sessionId string) *Client {
	return &Client{
		srv:       srv,
		conn:      conn,
		roomId:    roomId,
		username:  username,
		sessionId: sessionId,
		Send:      make(chan []byte, sendChannelSize),
		doneChan:  make(chan struct{}),
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.doneChan) })
}

// enqueue hands a frame to the write loop without ever blocking. A closed
// or saturated connection reports false and the frame is dropped for this
// client only.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.doneChan:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// ReadLoop pumps frames from the websocket connection into the broker.
//
// There is exactly one ReadLoop per connection, so inbound messages of one
// connection are processed strictly in receive order.
func (c *Client) ReadLoop() {
	defer func() {
		c.close()
		c.conn.Close()
		c.srv.onClose(c)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("info: websocket closed unexpectedly: %s", err)
			}
			return
		}
		c.srv.onMessage(c, raw)
	}
}

// WriteLoop pumps frames from the hub to the websocket connection.
//
// A goroutine running WriteLoop is started for each connection. All writes
// to the connection happen here, including the keepalive pings.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case <-c.doneChan:
			return

		case message := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("info: could not write to websocket connection, exiting write loop")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("info: could not send ping message, exiting write loop")
				return
			}
		}
	}
}
