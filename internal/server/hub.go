package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/when/internal/leaderboard"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Viewers only send control frames
	maxMessageSize = 512

	sendBuffer = 16
)

// BoardMessage is pushed to live viewers whenever a board changes
type BoardMessage struct {
	Type  string             `json:"type"`
	Board *leaderboard.Board `json:"board"`
}

// Hub fans leaderboard updates out to websocket viewers, keyed by date.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu     sync.RWMutex
	subs   map[string]map[*viewer]struct{}
	closed bool
}

type viewer struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
	done      chan struct{}
}

// NewHub creates a hub. An empty origins list accepts any origin.
func NewHub(logger *log.Logger, origins []string) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 || allowed["*"] {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.WithPrefix("hub"),
		subs:   make(map[string]map[*viewer]struct{}),
	}
}

// Watching reports whether anyone is viewing date.
func (h *Hub) Watching(date string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[date]) > 0
}

// Viewers returns the total number of connected viewers.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, vs := range h.subs {
		n += len(vs)
	}
	return n
}

// Publish sends board to every viewer of its date. Slow viewers are dropped.
func (h *Hub) Publish(board *leaderboard.Board) {
	data, err := json.Marshal(BoardMessage{Type: "leaderboard", Board: board})
	if err != nil {
		h.logger.Error("Failed to encode board", "date", board.Date, "error", err)
		return
	}

	h.mu.RLock()
	var slow []*viewer
	for v := range h.subs[board.Date] {
		select {
		case v.send <- data:
		default:
			slow = append(slow, v)
		}
	}
	h.mu.RUnlock()

	for _, v := range slow {
		h.logger.Warn("Viewer send buffer full, closing connection", "date", board.Date)
		h.remove(board.Date, v)
	}
	h.logger.Debug("Published board", "date", board.Date, "entries", len(board.Leaderboard))
}

// Serve upgrades the request and streams date's board, starting with
// snapshot. It returns when the viewer disconnects.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, date string, snapshot *leaderboard.Board) {
	if h.isClosed() {
		writeError(w, http.StatusServiceUnavailable, "Server is shutting down")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	if data, err := json.Marshal(BoardMessage{Type: "leaderboard", Board: snapshot}); err == nil {
		v.send <- data
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		v.close()
		return
	}
	if h.subs[date] == nil {
		h.subs[date] = make(map[*viewer]struct{})
	}
	h.subs[date][v] = struct{}{}
	total := len(h.subs[date])
	h.mu.Unlock()
	h.logger.Info("Viewer connected", "date", date, "viewers", total)

	go h.writePump(date, v)
	h.readPump(date, v)
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	all := h.subs
	h.subs = make(map[string]map[*viewer]struct{})
	h.mu.Unlock()

	for _, vs := range all {
		for v := range vs {
			v.close()
		}
	}
}

func (h *Hub) remove(date string, v *viewer) {
	h.mu.Lock()
	if _, ok := h.subs[date][v]; ok {
		delete(h.subs[date], v)
		if len(h.subs[date]) == 0 {
			delete(h.subs, date)
		}
	}
	h.mu.Unlock()
	v.close()
}

func (v *viewer) close() {
	v.closeOnce.Do(func() {
		close(v.done)
		_ = v.conn.Close()
	})
}

// readPump discards client frames and keeps the read deadline fresh.
func (h *Hub) readPump(date string, v *viewer) {
	defer func() {
		h.remove(date, v)
		h.logger.Info("Viewer disconnected", "date", date)
	}()

	v.conn.SetReadLimit(maxMessageSize)
	_ = v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("Viewer read error", "date", date, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(date string, v *viewer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.remove(date, v)
	}()

	for {
		select {
		case msg := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.logger.Debug("Viewer write error", "date", date, "error", err)
				return
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-v.done:
			return
		}
	}
}
