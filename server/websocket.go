package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"climateglobe/core"
	"climateglobe/globe"
	"climateglobe/observability"
)

const (
	maxMessageBytes = 16 << 10
	writeWait       = 5 * time.Second
	outboxSize      = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // the control channel is meant for local dashboards
	},
}

// ControlMessage is what clients send on /ws and POST /selection.
// Type "select" (the default) moves the highlight; "metrics" only updates
// the stored metrics of a region.
type ControlMessage struct {
	Type    string          `json:"type,omitempty"`
	Region  core.RegionID   `json:"region"`
	Metrics *core.MetricSet `json:"metrics,omitempty"`
}

// Update converts the message into a queued selection change
func (m ControlMessage) Update(source globe.Source) (globe.Update, error) {
	if m.Region == "" {
		return globe.Update{}, ErrEmptyRegion
	}
	u := globe.Update{Source: source}
	u.Region = m.Region
	if m.Metrics != nil {
		u.Metrics = *m.Metrics
	}
	switch m.Type {
	case "", "select":
	case "metrics":
		if m.Metrics == nil {
			return globe.Update{}, errors.New("metrics message carries no metrics")
		}
		u.MetricsOnly = true
	default:
		return globe.Update{}, fmt.Errorf("unknown message type %q", m.Type)
	}
	return u, nil
}

// StateMessage is broadcast to every client after each applied change and
// sent once on connect.
type StateMessage struct {
	Type  string         `json:"type"`
	State globe.Snapshot `json:"state"`
}

// ErrorMessage answers a control message that could not be used
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func stateMessage(s globe.Snapshot) StateMessage {
	return StateMessage{Type: "state", State: s}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.hub.add(conn)
	defer s.hub.remove(conn)

	if err := s.hub.send(conn, stateMessage(s.globe.Snapshot())); err != nil {
		return
	}

	conn.SetReadLimit(maxMessageBytes)
	for {
		var msg ControlMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				if s.hub.send(conn, ErrorMessage{Type: "error", Error: err.Error()}) != nil {
					return
				}
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		u, err := msg.Update(globe.SourceSocket)
		if err != nil {
			if s.hub.send(conn, ErrorMessage{Type: "error", Error: err.Error()}) != nil {
				return
			}
			continue
		}
		s.globe.Submit(u)
	}
}

// hub fans snapshots out to websocket clients. Each connection has its own
// write lock since gorilla connections allow one concurrent writer.
type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex

	outbox    chan globe.Snapshot
	done      chan struct{}
	closeOnce sync.Once

	metrics *observability.Metrics
	logger  *slog.Logger
}

func newHub(metrics *observability.Metrics, logger *slog.Logger) *hub {
	return &hub{
		clients: make(map[*websocket.Conn]*sync.Mutex),
		outbox:  make(chan globe.Snapshot, outboxSize),
		done:    make(chan struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.WebsocketClients.Set(float64(n))
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	n := len(h.clients)
	h.mu.Unlock()
	h.metrics.WebsocketClients.Set(float64(n))
}

func (h *hub) send(conn *websocket.Conn, v any) error {
	h.mu.RLock()
	lock, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return websocket.ErrCloseSent
	}
	lock.Lock()
	defer lock.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by WriteJSON
	return conn.WriteJSON(v)
}

// publish never blocks: it runs on the render goroutine. When the outbox is
// full the oldest snapshot is dropped.
func (h *hub) publish(s globe.Snapshot) {
	for {
		select {
		case <-h.done:
			return
		case h.outbox <- s:
			return
		default:
		}
		select {
		case <-h.outbox:
		default:
		}
	}
}

func (h *hub) run() {
	for {
		select {
		case <-h.done:
			return
		case s := <-h.outbox:
			h.broadcast(stateMessage(s))
		}
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	var failed []*websocket.Conn
	for conn, lock := range h.clients {
		lock.Lock()
		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // surfaced by WriteJSON
		err := conn.WriteJSON(v)
		lock.Unlock()
		if err != nil {
			h.logger.Debug("websocket write failed", "error", err)
			conn.Close()
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()

	if len(failed) > 0 {
		h.mu.Lock()
		for _, conn := range failed {
			delete(h.clients, conn)
		}
		n := len(h.clients)
		h.mu.Unlock()
		h.metrics.WebsocketClients.Set(float64(n))
	}
}

func (h *hub) close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		for conn, lock := range h.clients {
			lock.Lock()
			conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)) //nolint:errcheck // closing anyway
			conn.Close()
			lock.Unlock()
			delete(h.clients, conn)
		}
		h.metrics.WebsocketClients.Set(0)
	})
}
