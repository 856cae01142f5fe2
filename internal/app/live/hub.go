// internal/app/live/hub.go

// Package live pushes roster updates to dashboard websocket clients. Each
// client carries its own view filter; when a school's data changes, the hub
// re-renders per client and sends the result.
package live

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/carline/internal/app/dismissal"
	"github.com/dalemusser/carline/internal/app/system/metrics"
)

const (
	pingInterval = 15 * time.Second
	writeWait    = 5 * time.Second
	// sendBuffer bounds per-client queued payloads. A client too slow to
	// drain its queue misses intermediate frames, not the final state,
	// since every notification carries a full snapshot.
	sendBuffer = 8
)

// RenderFunc produces the payload for one client's view of a school.
type RenderFunc func(schoolID primitive.ObjectID, f dismissal.RosterFilter) ([]byte, error)

// FilterMessage is what clients send to change their view.
type FilterMessage struct {
	HideDeparted bool   `json:"hide_departed"`
	Teacher      string `json:"teacher"`
	Page         int    `json:"page"`
}

type client struct {
	id       string // connection id, for log correlation
	conn     *websocket.Conn
	send     chan []byte
	schoolID primitive.ObjectID

	mu     sync.Mutex
	filter dismissal.RosterFilter
	closed bool
}

// enqueue queues a payload unless the client is closed or its buffer is
// full. Reports whether the frame was queued.
func (c *client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// shutdown marks the client closed and closes its send channel exactly once.
func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) getFilter() dismissal.RosterFilter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

func (c *client) setFilter(f dismissal.RosterFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filter = f
}

// Hub tracks connected dashboard clients grouped by school.
type Hub struct {
	render         RenderFunc
	log            *zap.Logger
	metrics        *metrics.Collector
	allowedOrigins []string

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(render RenderFunc, allowedOrigins []string, log *zap.Logger, collector *metrics.Collector) *Hub {
	return &Hub{
		render:         render,
		log:            log,
		metrics:        collector,
		allowedOrigins: allowedOrigins,
		clients:        make(map[*client]struct{}),
	}
}

// upgrader is built per request to close over the allowed origins.
func (h *Hub) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.log.Warn("websocket origin rejected", zap.String("origin", origin))
			return false
		},
	}
}

// ClientCount reports connected clients, for tests and diagnostics.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Notify re-renders and pushes the current view to every client watching
// the given school.
func (h *Hub) Notify(schoolID primitive.ObjectID) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		if c.schoolID == schoolID {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	for _, c := range targets {
		h.push(c)
	}
}

// push renders a client's view and queues it, dropping the frame if the
// client's buffer is full.
func (h *Hub) push(c *client) {
	payload, err := h.render(c.schoolID, c.getFilter())
	if err != nil {
		h.log.Warn("render roster for websocket failed",
			zap.String("school_id", c.schoolID.Hex()), zap.Error(err))
		return
	}
	if !c.enqueue(payload) {
		h.log.Debug("websocket frame dropped",
			zap.String("conn_id", c.id),
			zap.String("school_id", c.schoolID.Hex()))
	}
}

// ServeWS upgrades the request and runs the client until it disconnects.
// The initial filter determines the first frame pushed after attach.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, schoolID primitive.ObjectID, initial dismissal.RosterFilter) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		schoolID: schoolID,
		filter:   initial,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.WSClientConnected()
	h.log.Info("dashboard client connected",
		zap.String("conn_id", c.id),
		zap.String("school_id", schoolID.Hex()))

	// First frame so the dashboard isn't blank until the next change.
	h.push(c)

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) detach(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if present {
		c.shutdown()
		h.metrics.WSClientDisconnected()
		h.log.Info("dashboard client disconnected", zap.String("conn_id", c.id))
	}
	_ = c.conn.Close()
}

// readPump consumes filter messages until the connection dies.
func (h *Hub) readPump(c *client) {
	defer h.detach(c)

	for {
		var msg FilterMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		c.setFilter(dismissal.RosterFilter{
			HideDeparted: msg.HideDeparted,
			Teacher:      msg.Teacher,
			Page:         msg.Page,
		})
		// A filter change re-renders immediately.
		h.push(c)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait))
		}
	}
}
