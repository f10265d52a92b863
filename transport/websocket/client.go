package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// sendBuffer bounds the per-client outbound queue; a client that cannot
// drain it fast enough loses messages rather than stalling a room worker.
const sendBuffer = 16

// client is one live connection. Its id doubles as the player identity for
// the lifetime of the connection.
type client struct {
	id   string
	conn *websocket.Conn

	send chan Message
	done chan struct{}
	once sync.Once

	mu     sync.Mutex
	roomID string
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Message, sendBuffer),
		done: make(chan struct{}),
	}
}

// writePump is the single writer for the connection; gorilla connections
// do not support concurrent writes.
func (that *client) writePump(logger *slog.Logger) {
	defer that.conn.Close()

	for {
		select {
		case <-that.done:
			return
		case msg := <-that.send:
			if err := that.conn.WriteJSON(msg); err != nil {
				logger.Debug("failed to write message", "playerID", that.id, "error", err)
				return
			}
		}
	}
}

// deliver queues a message for the write pump. It reports false when the
// client is gone or its queue is full.
func (that *client) deliver(msg Message) bool {
	select {
	case <-that.done:
		return false
	case that.send <- msg:
		return true
	default:
		return false
	}
}

func (that *client) close() {
	that.once.Do(func() {
		close(that.done)
	})
}

func (that *client) setRoom(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.roomID = roomID
}

func (that *client) room() string {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.roomID
}
