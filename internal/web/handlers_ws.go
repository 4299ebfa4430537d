package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// wsServerMessage is the payload pushed to websocket clients.
type wsServerMessage struct {
	Type  string    `json:"type"` // status
	Event string    `json:"event"`
	Time  time.Time `json:"time"`
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     allowWSOrigin,
}

func allowWSOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil || originURL.Host == "" {
		return false
	}

	return strings.EqualFold(originURL.Host, r.Host)
}

// wsClient is one connected websocket consumer.
type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

// broadcastLimiter caps change fan-out; the watcher already debounces, this
// guards against pathological event floods reaching every client.
var broadcastLimiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 1)

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	if !s.authorizeRequest(r) {
		writeAPIError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &wsClient{conn: conn}
	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, client)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	_ = client.writeJSON(wsServerMessage{Type: "status", Event: "connected", Time: time.Now().UTC()})

	// The feed is push-only; the read loop exists to detect disconnects and
	// honor server shutdown.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-s.baseCtx.Done():
	case <-done:
	}
}

// broadcastChanged pushes a no-payload "re-query now" event to every client.
func (s *Server) broadcastChanged() {
	if !broadcastLimiter.Allow() {
		return
	}

	msg := wsServerMessage{Type: "status", Event: "changed", Time: time.Now().UTC()}

	s.clientsMu.Lock()
	clients := make([]*wsClient, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(msg); err != nil {
			webLog.Debug("ws_write_failed", slog.String("error", err.Error()))
		}
	}
}
