package server

import (
	"net/http"
	"sync"

	"github.com/decred/slog"
	"github.com/gorilla/websocket"
)

// Broadcaster delivers notifications to connected users. Delivery is best
// effort: a slow consumer loses messages rather than stalling the server.
type Broadcaster interface {
	ToUser(userID string, n Notification)
	ToUsers(userIDs []string, n Notification)
	Broadcast(n Notification)
}

// connection is one websocket client with a FIFO outbound queue.
type connection struct {
	userID string
	ws     *websocket.Conn
	send   chan Notification
	done   chan struct{}
}

// WSBroadcaster is the websocket hub. Each user may hold several
// connections (reconnects, multiple tabs); every connection gets its own
// writer goroutine so one stuck socket cannot block the rest.
type WSBroadcaster struct {
	log      slog.Logger
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]map[*connection]struct{} // by user id

	// OnMessage handles inbound client messages; OnDisconnect fires when a
	// user's last connection drops.
	OnMessage    func(userID string, data []byte)
	OnConnect    func(userID string)
	OnDisconnect func(userID string)
}

// sendQueueSize bounds each connection's outbound FIFO.
const sendQueueSize = 64

// NewWSBroadcaster creates the hub.
func NewWSBroadcaster(log slog.Logger) *WSBroadcaster {
	return &WSBroadcaster{
		log:   log,
		conns: make(map[string]map[*connection]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades a request to a websocket session. The user id comes
// from the `user` query parameter; authentication proper is out of scope
// and expected from the fronting proxy.
func (b *WSBroadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		http.Error(w, "missing user", http.StatusBadRequest)
		return
	}

	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Errorf("websocket upgrade for %s: %v", userID, err)
		return
	}

	conn := &connection{
		userID: userID,
		ws:     ws,
		send:   make(chan Notification, sendQueueSize),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.conns[userID] == nil {
		b.conns[userID] = make(map[*connection]struct{})
	}
	first := len(b.conns[userID]) == 0
	b.conns[userID][conn] = struct{}{}
	b.mu.Unlock()

	b.log.Debugf("user %s connected", userID)
	if first && b.OnConnect != nil {
		b.OnConnect(userID)
	}

	go conn.writeLoop(b)
	conn.readLoop(b)
}

func (c *connection) writeLoop(b *WSBroadcaster) {
	for {
		select {
		case n := <-c.send:
			if err := c.ws.WriteJSON(n); err != nil {
				b.log.Debugf("write to %s failed: %v", c.userID, err)
				c.ws.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *connection) readLoop(b *WSBroadcaster) {
	defer b.drop(c)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		if b.OnMessage != nil {
			b.OnMessage(c.userID, data)
		}
	}
}

func (b *WSBroadcaster) drop(c *connection) {
	close(c.done)
	c.ws.Close()

	b.mu.Lock()
	delete(b.conns[c.userID], c)
	last := len(b.conns[c.userID]) == 0
	if last {
		delete(b.conns, c.userID)
	}
	b.mu.Unlock()

	b.log.Debugf("user %s disconnected", c.userID)
	if last && b.OnDisconnect != nil {
		b.OnDisconnect(c.userID)
	}
}

// ToUser queues a notification on every connection of one user.
func (b *WSBroadcaster) ToUser(userID string, n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.conns[userID] {
		select {
		case c.send <- n:
		default:
			b.log.Warnf("send queue full for %s, dropping %s", userID, n.Type)
		}
	}
}

// ToUsers fans a notification out to several users.
func (b *WSBroadcaster) ToUsers(userIDs []string, n Notification) {
	for _, id := range userIDs {
		b.ToUser(id, n)
	}
}

// Broadcast delivers to every connected user.
func (b *WSBroadcaster) Broadcast(n Notification) {
	b.mu.RLock()
	users := make([]string, 0, len(b.conns))
	for id := range b.conns {
		users = append(users, id)
	}
	b.mu.RUnlock()
	b.ToUsers(users, n)
}

// CloseAll shuts every connection, used during server shutdown.
func (b *WSBroadcaster) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, conns := range b.conns {
		for c := range conns {
			c.ws.Close()
		}
	}
}
