// Package stream pushes session updates to websocket clients. Each client
// gets the full snapshot on connect, then one message per refresh tick.
package stream

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/newthinker/signalpro/internal/logger"
	"github.com/newthinker/signalpro/internal/metrics"
	"github.com/newthinker/signalpro/internal/session"
	"go.uber.org/zap"
)

const (
	TypeSnapshot = "snapshot"
	TypeUpdate   = "update"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	bufferSize = 16
)

// Message is the envelope sent to clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Source is satisfied by *session.Session.
type Source interface {
	Snapshot(ctx context.Context) (session.Snapshot, error)
	Subscribe(buffer int) (<-chan session.Update, func())
}

// Handler upgrades requests and streams session updates.
type Handler struct {
	src      Source
	upgrader websocket.Upgrader
	logger   *zap.Logger
	metrics  *metrics.Registry

	mu      sync.Mutex
	clients map[string]*websocket.Conn
}

// NewHandler creates a stream handler. reg may be nil.
func NewHandler(src Source, log *zap.Logger, reg *metrics.Registry) *Handler {
	return &Handler{
		src: src,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The API key guards the route; any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  logger.OrNop(log),
		metrics: reg,
		clients: make(map[string]*websocket.Conn),
	}
}

// Clients returns the number of connected clients.
func (h *Handler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// CloseAll disconnects every client with a going-away close frame.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for id, conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		conn.Close()
		delete(h.clients, id)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	h.add(id, conn)
	defer h.remove(id, conn)

	log := h.logger.With(zap.String("client_id", id), zap.String("remote_addr", r.RemoteAddr))
	log.Info("stream client connected")

	// Subscribe before the snapshot so no tick falls between the two.
	updates, unsubscribe := h.src.Subscribe(bufferSize)
	defer unsubscribe()

	snap, err := h.src.Snapshot(r.Context())
	if err != nil {
		log.Error("snapshot failed", zap.Error(err))
		return
	}
	if err := h.write(conn, Message{Type: TypeSnapshot, Data: snap}); err != nil {
		log.Debug("write snapshot failed", zap.Error(err))
		return
	}

	gone := make(chan struct{})
	go readPump(conn, gone)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed")
				conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
				log.Info("stream ended, session closed")
				return
			}
			if err := h.write(conn, Message{Type: TypeUpdate, Data: u}); err != nil {
				log.Debug("write update failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-gone:
			log.Info("stream client disconnected")
			return
		}
	}
}

// readPump drains client frames so control messages are processed, and
// signals gone when the connection drops.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, msg Message) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

func (h *Handler) add(id string, conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.StreamClientsInc()
	}
}

func (h *Handler) remove(id string, conn *websocket.Conn) {
	h.mu.Lock()
	_, ok := h.clients[id]
	delete(h.clients, id)
	h.mu.Unlock()
	if ok {
		conn.Close()
	}
	if h.metrics != nil {
		h.metrics.StreamClientsDec()
	}
}
