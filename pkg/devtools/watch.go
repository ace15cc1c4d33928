package devtools

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/atoms/pkg/atom"
	"github.com/vango-dev/atoms/pkg/features/provider"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// ConnIDHeader carries the id of a watch connection in the handshake
// response.
const ConnIDHeader = "X-Atoms-Conn"

// Message is sent to watch clients. Type is "value" for the current value
// of the atom and "result" or "error" in reply to a write.
type Message struct {
	Type  string          `json:"type"`
	Seq   uint64          `json:"seq"`
	Name  string          `json:"name"`
	State string          `json:"state,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Error string          `json:"error,omitempty"`
}

// watcher keeps one atom mounted for the lifetime of a WebSocket
// connection and streams its value. Messages received from the client are
// decoded as write arguments.
type watcher struct {
	id     string
	srv    *Server
	store  *atom.Store
	conn   *websocket.Conn
	entry  Entry
	logger *slog.Logger

	// dirty holds at most one pending change; bursts coalesce into a
	// single value message.
	dirty   chan struct{}
	replies chan Message
	closed  chan struct{} // read loop ended
	stop    chan struct{} // write loop ended
	seq     uint64
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	id := uuid.NewString()
	conn, err := s.upgrader.Upgrade(w, r, http.Header{ConnIDHeader: []string{id}})
	if err != nil {
		// Upgrade has already written the error response.
		s.logger.Warn("websocket upgrade", "atom", e.Name, "error", err)
		return
	}

	c := &watcher{
		id:      id,
		srv:     s,
		store:   provider.Store(r.Context()),
		conn:    conn,
		entry:   e,
		logger:  s.logger.With("conn", id, "atom", e.Name),
		dirty:   make(chan struct{}, 1),
		replies: make(chan Message, 8),
		closed:  make(chan struct{}),
		stop:    make(chan struct{}),
	}

	s.watchers.Add(1)
	defer s.watchers.Done()
	c.run()
}

func (c *watcher) run() {
	defer c.conn.Close()

	unsubscribe := c.store.Subscribe(c.entry.Atom, atom.NewListener(func() {
		select {
		case c.dirty <- struct{}{}:
		default:
		}
	}))
	defer unsubscribe()
	c.logger.Debug("watch opened")

	go c.readLoop()
	c.writeLoop()
	close(c.stop)
	c.logger.Debug("watch closed")
}

func (c *watcher) readLoop() {
	defer close(c.closed)

	c.conn.SetReadLimit(maxBodySize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Warn("read error", "error", err)
			}
			return
		}

		reply := c.write(msg)
		select {
		case c.replies <- reply:
		case <-c.stop:
			return
		}
	}
}

// write applies one client message as a write to the watched atom.
func (c *watcher) write(body []byte) Message {
	reply := Message{Type: "result", Name: c.entry.Name}

	args, err := c.entry.Args(body)
	if err == nil {
		var result any
		result, err = c.store.Set(c.entry.Atom, args...)
		if err == nil {
			reply.Value, err = json.Marshal(result)
		}
	}
	if err != nil {
		reply.Type = "error"
		reply.Error = err.Error()
	}
	return reply
}

func (c *watcher) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if !c.sendValue() {
		return
	}
	for {
		select {
		case <-c.dirty:
			if !c.sendValue() {
				return
			}
		case reply := <-c.replies:
			if !c.send(reply) {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		case <-c.srv.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (c *watcher) sendValue() bool {
	v, err := readValue(c.store, c.entry)
	if err != nil {
		// The store was closed; there is nothing more to stream.
		c.send(Message{Type: "error", Name: c.entry.Name, Error: err.Error()})
		return false
	}
	return c.send(Message{
		Type:  "value",
		Name:  v.Name,
		State: v.State,
		Value: v.Value,
		Error: v.Error,
	})
}

func (c *watcher) send(m Message) bool {
	c.seq++
	m.Seq = c.seq
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(m); err != nil {
		c.logger.Debug("write error", "error", err)
		return false
	}
	return true
}
