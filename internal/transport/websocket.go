package transport

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mixdown/internal/log"
)

// WebSocketTransport broadcasts analysis frames to connected WebSocket
// clients with rate limiting to avoid flooding clients or the network.
//
// Thread Safety:
// - Uses a mutex for client map access
// - Send drops frames instead of blocking when the queue is full
// - Handles concurrent connections safely
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	server    *http.Server

	lastSend    time.Time
	minInterval time.Duration
}

// NewWebSocketTransport creates the transport and starts its HTTP server
// on addr (e.g. ":8080"). Clients connect on /spectrum.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	t := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local visualization clients only
			},
		},
		clients:     make(map[*websocket.Conn]bool),
		broadcast:   make(chan any, 256),
		minInterval: 33 * time.Millisecond, // ~30 frames/s to clients
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/spectrum", t.handleWebSocket)
	t.server = &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Infof("spectrum WebSocket server listening on %s", addr)
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("spectrum WebSocket server: %v", err)
		}
	}()
	go t.handleBroadcasts()

	return t
}

// handleWebSocket upgrades HTTP connections to WebSocket and registers
// the client. Disconnects remove it.
func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade error: %v", err)
		return
	}

	t.clientsMu.Lock()
	t.clients[conn] = true
	total := len(t.clients)
	t.clientsMu.Unlock()
	log.Debugf("spectrum client connected, total: %d", total)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				t.clientsMu.Lock()
				delete(t.clients, conn)
				t.clientsMu.Unlock()
				conn.Close()
				break
			}
		}
	}()
}

// handleBroadcasts fans queued frames out to every connected client.
func (t *WebSocketTransport) handleBroadcasts() {
	for data := range t.broadcast {
		t.clientsMu.Lock()
		for client := range t.clients {
			if err := client.WriteJSON(data); err != nil {
				client.Close()
				delete(t.clients, client)
			}
		}
		t.clientsMu.Unlock()
	}
}

// Send queues a frame for broadcast. Frames are dropped when the queue
// is full or the rate limit window has not elapsed; Send never blocks.
func (t *WebSocketTransport) Send(data any) error {
	now := time.Now()
	if now.Sub(t.lastSend) < t.minInterval {
		return nil // rate limited, skip this frame
	}
	t.lastSend = now

	select {
	case t.broadcast <- data:
	default:
		// Queue full, drop the frame.
	}
	return nil
}

// Close shuts down the server and all client connections.
func (t *WebSocketTransport) Close() error {
	t.clientsMu.Lock()
	for client := range t.clients {
		client.Close()
	}
	t.clients = make(map[*websocket.Conn]bool)
	t.clientsMu.Unlock()

	return t.server.Close()
}

// Ensure WebSocketTransport satisfies the interface.
var _ Transport = (*WebSocketTransport)(nil)
