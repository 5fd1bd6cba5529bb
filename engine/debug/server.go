package debug

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

//go:embed assets/panel.html
var panelPage []byte

// Message types sent to panel clients.
const (
	MessageSnapshot = "snapshot"
	MessageError    = "error"
)

// sendBuffer is the number of outbound messages queued per client before new ones are dropped.
const sendBuffer = 16

// Dispatcher runs closures on the goroutine that owns the panel's targets.
type Dispatcher interface {
	Post(fn func())
}

// Update is a control change sent by a panel client.
type Update struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Message is sent to panel clients.
type Message struct {
	Type     string            `json:"type"`
	Controls []ControlSnapshot `json:"controls,omitempty"`
	Name     string            `json:"name,omitempty"`
	Error    string            `json:"error,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
}

// server is the implementation of the Server interface.
type server struct {
	panel    Panel
	dispatch Dispatcher
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

// Server exposes a Panel over HTTP. GET / serves the panel page, GET /controls returns a
// JSON snapshot, and /ws accepts websocket clients that receive snapshots and send
// {"name","value"} updates. Updates are applied through the dispatcher, never on the
// connection goroutine.
type Server interface {
	// Handler returns the HTTP routes.
	Handler() http.Handler

	// Serve listens on addr until ctx is cancelled.
	//
	// Parameters:
	//   - ctx: stops the server when cancelled
	//   - addr: the listen address, e.g. "127.0.0.1:8090"
	//
	// Returns:
	//   - error: nil after a clean shutdown, or the listen error
	Serve(ctx context.Context, addr string) error

	// Broadcast pushes the current snapshot to every client. Call it from the dispatcher goroutine.
	Broadcast()
}

var _ Server = &server{}

// NewServer creates a panel server.
//
// Parameters:
//   - panel: the panel to expose
//   - dispatch: where updates are applied
//   - log: the logger; nil disables logging
//
// Returns:
//   - Server: the server
func NewServer(panel Panel, dispatch Dispatcher, log *zap.Logger) Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &server{
		panel:    panel,
		dispatch: dispatch,
		log:      log.Named("debug.server"),
		clients:  make(map[*client]struct{}),
	}
}

func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(panelPage)
	})
	mux.HandleFunc("GET /controls", s.handleControls)
	mux.HandleFunc("/ws", s.handleWebsocket)
	return mux
}

func (s *server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("debug panel listen %s: %w", addr, err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	s.log.Info("debug panel listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) Broadcast() {
	msg := Message{Type: MessageSnapshot, Controls: s.panel.Snapshot()}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		s.enqueue(c, msg)
	}
}

func (s *server) handleControls(w http.ResponseWriter, r *http.Request) {
	// the snapshot is read on the dispatcher goroutine, same as writes
	result := make(chan []ControlSnapshot, 1)
	s.dispatch.Post(func() { result <- s.panel.Snapshot() })

	select {
	case controls := <-result:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(controls)
	case <-r.Context().Done():
	}
}

func (s *server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.Debug("panel client connected", zap.String("remote", r.RemoteAddr))

	go s.writeLoop(c)
	s.dispatch.Post(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.enqueue(c, Message{Type: MessageSnapshot, Controls: s.panel.Snapshot()})
	})
	s.readLoop(c)
}

func (s *server) readLoop(c *client) {
	defer s.remove(c)
	for {
		var u Update
		if err := c.conn.ReadJSON(&u); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("panel client read failed", zap.Error(err))
			}
			return
		}
		s.dispatch.Post(func() { s.apply(c, u) })
	}
}

// apply runs on the dispatcher goroutine.
func (s *server) apply(c *client, u Update) {
	if err := s.panel.Set(u.Name, u.Value); err != nil {
		s.log.Warn("rejected panel update", zap.String("control", u.Name), zap.Error(err))
		s.mu.Lock()
		s.enqueue(c, Message{Type: MessageError, Name: u.Name, Error: err.Error()})
		s.mu.Unlock()
		return
	}
	s.Broadcast()
}

func (s *server) writeLoop(c *client) {
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteJSON(msg); err != nil {
			s.log.Debug("panel client write failed", zap.Error(err))
			_ = c.conn.Close()
		}
	}
}

// enqueue must be called with s.mu held. Messages to slow or removed clients are dropped.
func (s *server) enqueue(c *client, msg Message) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
		s.log.Debug("dropping panel message for slow client")
	}
}

func (s *server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	_ = c.conn.Close()
}

func (s *server) closeClients() {
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()
	for _, c := range clients {
		s.remove(c)
	}
}
