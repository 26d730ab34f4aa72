// Package netcast streams the combined event record to WebSocket clients.
// It subscribes to the throttled bus, so network consumers can never see
// more than one frame per throttle interval.
package netcast

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"go-strum/bus"
	"go-strum/debug"
)

const writeTimeout = time.Second

// Broadcaster serves /events and fans each combined record out to every
// connected client as a JSON text message
type Broadcaster struct {
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]bool

	unsubscribe func()
}

// Listen starts a broadcaster on addr (e.g. ":8137"). Use Attach to wire
// it to a bus.
func Listen(addr string) (*Broadcaster, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	b := &Broadcaster{
		listener: ln,
		clients:  make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			// Local instrument stream: any origin may listen
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", b.handleEvents)
	b.server = &http.Server{Handler: mux}

	go b.server.Serve(ln)
	debug.Log("netcast", "listening on %s", ln.Addr())
	return b, nil
}

// Addr returns the bound listen address
func (b *Broadcaster) Addr() string {
	return b.listener.Addr().String()
}

// Attach subscribes the broadcaster to a bus's combined stream
func (b *Broadcaster) Attach(eventBus *bus.Bus) {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	b.unsubscribe = eventBus.OnCombinedEvent(b.Broadcast)
}

// ClientCount returns the number of connected clients
func (b *Broadcaster) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

func (b *Broadcaster) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Log("netcast", "upgrade failed: %v", err)
		return
	}

	b.mu.Lock()
	b.clients[conn] = true
	n := len(b.clients)
	b.mu.Unlock()
	debug.Log("netcast", "client connected (%d total)", n)

	// Consume (and ignore) client frames so pings/closes are processed
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.drop(conn)
				return
			}
		}
	}()
}

// Broadcast sends one combined record to every client. Clients that cannot
// be written to within the deadline are dropped; the flush path never
// blocks on a slow consumer.
func (b *Broadcaster) Broadcast(evt bus.CombinedEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		debug.Log("netcast", "marshal failed: %v", err)
		return
	}

	b.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(b.clients))
	for conn := range b.clients {
		conns = append(conns, conn)
	}
	b.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			b.drop(conn)
		}
	}
}

func (b *Broadcaster) drop(conn *websocket.Conn) {
	b.mu.Lock()
	_, ok := b.clients[conn]
	delete(b.clients, conn)
	b.mu.Unlock()
	if ok {
		conn.Close()
		debug.Log("netcast", "client dropped")
	}
}

// Close detaches from the bus, disconnects all clients and stops the server
func (b *Broadcaster) Close() error {
	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}

	b.mu.Lock()
	for conn := range b.clients {
		conn.Close()
	}
	b.clients = make(map[*websocket.Conn]bool)
	b.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return b.server.Shutdown(ctx)
}
